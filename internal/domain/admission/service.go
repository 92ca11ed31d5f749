package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
)

const (
	StatusAdmitted   = "admitted"
	StatusDischarged = "discharged"
)

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// SetClock replaces the time source, for tests.
func (s *Service) SetClock(fn func() time.Time) { s.clock = fn }

// Admit opens a stay. AdmittedAt defaults to the current instant when
// the caller leaves it zero.
func (s *Service) Admit(ctx context.Context, a *Admission) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.Ward == "" {
		return fmt.Errorf("ward is required")
	}
	if a.DailyRate.IsNegative() {
		return fmt.Errorf("daily_rate must not be negative")
	}
	if a.AdmittedAt.IsZero() {
		a.AdmittedAt = s.clock()
	}
	a.Status = StatusAdmitted
	a.DischargedAt = nil
	return s.repo.Create(ctx, a)
}

// Discharge closes a stay. The discharge instant defaults to the
// current time and must not precede admission.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID, at *time.Time) (*Admission, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusDischarged {
		return nil, fmt.Errorf("admission %s is already discharged", id)
	}
	when := s.clock()
	if at != nil {
		when = *at
	}
	if when.Before(a.AdmittedAt) {
		return nil, fmt.Errorf("discharge must not precede admission")
	}
	a.DischargedAt = &when
	a.Status = StatusDischarged
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *Admission) error {
	if a.DailyRate.IsNegative() {
		return fmt.Errorf("daily_rate must not be negative")
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Admission, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

// Record adapts an admission to the billing service's view of a stay.
func (s *Service) Record(ctx context.Context, id uuid.UUID) (billing.AdmissionRecord, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return billing.AdmissionRecord{}, err
	}
	return billing.AdmissionRecord{
		ID:           a.ID,
		PatientID:    a.PatientID,
		DailyRate:    a.DailyRate,
		AdmittedAt:   a.AdmittedAt,
		DischargedAt: a.DischargedAt,
	}, nil
}
