package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/billing"
)

type mockRepo struct {
	services map[uuid.UUID]*BillableService
}

func newMockRepo() *mockRepo {
	return &mockRepo{services: make(map[uuid.UUID]*BillableService)}
}

func (m *mockRepo) Create(_ context.Context, s *BillableService) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	m.services[s.ID] = s
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*BillableService, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return s, nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*BillableService, error) {
	for _, s := range m.services {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRepo) Update(_ context.Context, s *BillableService) error {
	m.services[s.ID] = s
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.services, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*BillableService, int, error) {
	var items []*BillableService
	for _, s := range m.services {
		if activeOnly && !s.Active {
			continue
		}
		items = append(items, s)
	}
	return items, len(items), nil
}

func (m *mockRepo) Search(_ context.Context, _ map[string]string, limit, offset int) ([]*BillableService, int, error) {
	var items []*BillableService
	for _, s := range m.services {
		items = append(items, s)
	}
	return items, len(items), nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo), repo
}

func TestService_CreateService(t *testing.T) {
	svc, _ := newTestService()
	bs := &BillableService{Code: "CONS", Name: "Consultation", UnitPrice: dec("500")}
	if err := svc.CreateService(context.Background(), bs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.BillingModel != billing.ModelPerInstance {
		t.Errorf("billing model = %q, want default per-instance", bs.BillingModel)
	}
	if !bs.Active {
		t.Error("expected new service to be active")
	}
}

func TestService_CreateService_RequiresCode(t *testing.T) {
	svc, _ := newTestService()
	bs := &BillableService{Name: "Consultation", UnitPrice: dec("500")}
	if err := svc.CreateService(context.Background(), bs); err == nil {
		t.Error("expected error for missing code")
	}
}

func TestService_CreateService_RejectsNegativePrice(t *testing.T) {
	svc, _ := newTestService()
	bs := &BillableService{Code: "CONS", Name: "Consultation", UnitPrice: dec("-1")}
	if err := svc.CreateService(context.Background(), bs); err == nil {
		t.Error("expected error for negative price")
	}
}

func TestService_CreateService_RejectsUnknownModel(t *testing.T) {
	svc, _ := newTestService()
	bs := &BillableService{Code: "CONS", Name: "Consultation", UnitPrice: dec("500"), BillingModel: "per-blood-moon"}
	if err := svc.CreateService(context.Background(), bs); err == nil {
		t.Error("expected error for unknown billing model")
	}
}

func TestService_CreateService_RejectsInvalidParameters(t *testing.T) {
	svc, _ := newTestService()
	params := `{not json`
	bs := &BillableService{
		Code: "AMB", Name: "Ambulance", UnitPrice: dec("300"),
		BillingModel: billing.ModelComposite, Parameters: &params,
	}
	if err := svc.CreateService(context.Background(), bs); err == nil {
		t.Error("expected error for invalid parameters JSON")
	}
}

func TestService_DeactivateService(t *testing.T) {
	svc, repo := newTestService()
	bs := &BillableService{Code: "CONS", Name: "Consultation", UnitPrice: dec("500")}
	if err := svc.CreateService(context.Background(), bs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeactivateService(context.Background(), bs.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.services[bs.ID].Active {
		t.Error("expected service to be inactive")
	}
}

func TestService_Definition(t *testing.T) {
	svc, _ := newTestService()
	params := `{"fixedCharge": 300, "perKmRate": 20}`
	bs := &BillableService{
		Code: "AMB", Name: "Ambulance", UnitPrice: dec("300"),
		BillingModel: billing.ModelComposite, Parameters: &params,
	}
	if err := svc.CreateService(context.Background(), bs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def, err := svc.Definition(context.Background(), bs.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.ID != bs.ID || def.Name != "Ambulance" || def.Model != billing.ModelComposite {
		t.Errorf("unexpected definition: %+v", def)
	}
	if def.Parameters == nil || *def.Parameters != params {
		t.Error("expected parameters to carry through")
	}
}

func TestService_Definition_InactiveFails(t *testing.T) {
	svc, _ := newTestService()
	bs := &BillableService{Code: "CONS", Name: "Consultation", UnitPrice: dec("500")}
	if err := svc.CreateService(context.Background(), bs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeactivateService(context.Background(), bs.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Definition(context.Background(), bs.ID); err == nil {
		t.Error("expected error for inactive service")
	}
}

func TestService_Definition_NotFound(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Definition(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for unknown service")
	}
}
