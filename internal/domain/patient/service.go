package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, p *Patient) error {
	if p.MRN == "" {
		return fmt.Errorf("mrn is required")
	}
	if p.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if existing, err := s.repo.GetByMRN(ctx, p.MRN); err == nil && existing != nil {
		return fmt.Errorf("mrn %s is already registered", p.MRN)
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.repo.GetByMRN(ctx, mrn)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.MRN == "" {
		return fmt.Errorf("mrn is required")
	}
	if p.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
