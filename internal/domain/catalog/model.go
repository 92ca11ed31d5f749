package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillableService is a priced entry in the hospital's service catalog.
// BillingModel selects how usage is turned into a charge; Parameters
// holds model-specific settings as JSON, e.g. the fixed charge and
// per-kilometre rate of a composite service.
type BillableService struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Code         string          `db:"code" json:"code"`
	Name         string          `db:"name" json:"name"`
	Description  *string         `db:"description" json:"description,omitempty"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	BillingModel string          `db:"billing_model" json:"billing_model"`
	Parameters   *string         `db:"parameters" json:"parameters,omitempty"`
	Active       bool            `db:"active" json:"active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
