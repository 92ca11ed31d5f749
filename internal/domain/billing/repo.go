package billing

import (
	"context"

	"github.com/google/uuid"
)

type BillRepository interface {
	// CreateWithItems persists a bill and its items atomically: either the
	// bill row and every item row land, or nothing does.
	CreateWithItems(ctx context.Context, b *Bill, items []*BillItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	Update(ctx context.Context, b *Bill) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Bill, int, error)
	GetItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error)
}
