package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(bs *BillableService) error {
	if bs.Code == "" {
		return fmt.Errorf("code is required")
	}
	if bs.Name == "" {
		return fmt.Errorf("name is required")
	}
	if bs.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price must not be negative")
	}
	if bs.BillingModel != "" && !billing.KnownModel(bs.BillingModel) {
		return fmt.Errorf("unknown billing model: %s", bs.BillingModel)
	}
	if bs.Parameters != nil && !json.Valid([]byte(*bs.Parameters)) {
		return fmt.Errorf("parameters must be valid JSON")
	}
	return nil
}

func (s *Service) CreateService(ctx context.Context, bs *BillableService) error {
	if bs.BillingModel == "" {
		bs.BillingModel = billing.ModelPerInstance
	}
	if err := s.validate(bs); err != nil {
		return err
	}
	bs.Active = true
	return s.repo.Create(ctx, bs)
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*BillableService, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetServiceByCode(ctx context.Context, code string) (*BillableService, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) UpdateService(ctx context.Context, bs *BillableService) error {
	if err := s.validate(bs); err != nil {
		return err
	}
	return s.repo.Update(ctx, bs)
}

// DeactivateService retires a catalog entry without deleting it, so
// existing bill items keep a resolvable service reference.
func (s *Service) DeactivateService(ctx context.Context, id uuid.UUID) error {
	bs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	bs.Active = false
	return s.repo.Update(ctx, bs)
}

func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListServices(ctx context.Context, activeOnly bool, limit, offset int) ([]*BillableService, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}

func (s *Service) SearchServices(ctx context.Context, params map[string]string, limit, offset int) ([]*BillableService, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

// Definition adapts a catalog entry to the billing engine's view of a
// service. Inactive services fail here so they cannot be billed.
func (s *Service) Definition(ctx context.Context, id uuid.UUID) (billing.ServiceDefinition, error) {
	bs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return billing.ServiceDefinition{}, err
	}
	if !bs.Active {
		return billing.ServiceDefinition{}, fmt.Errorf("service %s is inactive", bs.Code)
	}
	return billing.ServiceDefinition{
		ID:         bs.ID,
		Name:       bs.Name,
		UnitPrice:  bs.UnitPrice,
		Model:      bs.BillingModel,
		Parameters: bs.Parameters,
	}, nil
}
