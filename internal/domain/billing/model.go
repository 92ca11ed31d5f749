package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill maps to the bill table: one invoice-style record for a patient,
// built from engine results.
type Bill struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	PatientID   uuid.UUID       `db:"patient_id" json:"patient_id"`
	AdmissionID *uuid.UUID      `db:"admission_id" json:"admission_id,omitempty"`
	Status      string          `db:"status" json:"status"`
	Total       decimal.Decimal `db:"total" json:"total"`
	Currency    *string         `db:"currency" json:"currency,omitempty"`
	Note        *string         `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// BillItem maps to the bill_item table: one charged service on a bill,
// persisted exactly as the engine computed it.
type BillItem struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	BillID       uuid.UUID       `db:"bill_id" json:"bill_id"`
	Sequence     int             `db:"sequence" json:"sequence"`
	ServiceID    *uuid.UUID      `db:"service_id" json:"service_id,omitempty"`
	ServiceName  string          `db:"service_name" json:"service_name"`
	BillingModel string          `db:"billing_model" json:"billing_model"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	Subtotal     decimal.Decimal `db:"subtotal" json:"subtotal"`
	Description  *string         `db:"description" json:"description,omitempty"`
}

// ItemTotal sums the subtotals of the given items. A bill's Total must
// always equal the ItemTotal of its items.
func ItemTotal(items []*BillItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// Usage carries the caller-supplied facts of one service usage. Every
// field is optional; which ones matter depends on the service's billing
// model.
type Usage struct {
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
	Hours         *decimal.Decimal `json:"hours,omitempty"`
	Start         *time.Time       `json:"start,omitempty"`
	End           *time.Time       `json:"end,omitempty"`
	Distance      *decimal.Decimal `json:"distance,omitempty"`
	OverridePrice *decimal.Decimal `json:"override_price,omitempty"`
}

// Charge is one service usage to be priced onto a bill.
type Charge struct {
	ServiceID uuid.UUID `json:"service_id"`
	Usage
}
