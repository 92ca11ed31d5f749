package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the registration record billing and admissions hang off.
// MRN is the hospital's medical record number, unique per patient.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	MRN       string     `db:"mrn" json:"mrn"`
	FullName  string     `db:"full_name" json:"full_name"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender    *string    `db:"gender" json:"gender,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Address   *string    `db:"address" json:"address,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
