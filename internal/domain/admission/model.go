package admission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Admission is one inpatient stay. DischargedAt stays nil while the
// patient is in the ward; room charges for an open stay accrue up to the
// billing instant.
type Admission struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	PatientID    uuid.UUID       `db:"patient_id" json:"patient_id"`
	Ward         string          `db:"ward" json:"ward"`
	Bed          *string         `db:"bed" json:"bed,omitempty"`
	DailyRate    decimal.Decimal `db:"daily_rate" json:"daily_rate"`
	AdmittedAt   time.Time       `db:"admitted_at" json:"admitted_at"`
	DischargedAt *time.Time      `db:"discharged_at" json:"discharged_at,omitempty"`
	Status       string          `db:"status" json:"status"`
	Note         *string         `db:"note" json:"note,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
