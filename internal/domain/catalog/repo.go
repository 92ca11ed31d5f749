package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *BillableService) error
	GetByID(ctx context.Context, id uuid.UUID) (*BillableService, error)
	GetByCode(ctx context.Context, code string) (*BillableService, error)
	Update(ctx context.Context, s *BillableService) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*BillableService, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*BillableService, int, error)
}
