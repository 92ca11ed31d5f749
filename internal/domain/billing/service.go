package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceCatalog is the slice of the catalog domain the billing service
// needs. An adapter in cmd wires the catalog repository to it, keeping
// this package free of a catalog import.
type ServiceCatalog interface {
	Definition(ctx context.Context, id uuid.UUID) (ServiceDefinition, error)
}

// AdmissionRecord is the slice of an admission the room-billing path
// needs.
type AdmissionRecord struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	DailyRate    decimal.Decimal
	AdmittedAt   time.Time
	DischargedAt *time.Time
}

// AdmissionDirectory resolves admission records for room billing.
type AdmissionDirectory interface {
	Record(ctx context.Context, id uuid.UUID) (AdmissionRecord, error)
}

type Service struct {
	engine     *Engine
	bills      BillRepository
	catalog    ServiceCatalog
	admissions AdmissionDirectory

	defaultCurrency string
}

func NewService(engine *Engine, bills BillRepository, catalog ServiceCatalog, admissions AdmissionDirectory) *Service {
	return &Service{engine: engine, bills: bills, catalog: catalog, admissions: admissions}
}

// SetDefaultCurrency sets the currency stamped on bills created without
// an explicit one.
func (s *Service) SetDefaultCurrency(cur string) { s.defaultCurrency = cur }

// Engine exposes the calculation engine, mainly for callers that already
// hold a service definition.
func (s *Service) Engine() *Engine { return s.engine }

var validBillStatuses = map[string]bool{
	"draft": true, "issued": true, "paid": true, "cancelled": true,
}

// validateUsage rejects input the engine would otherwise silently
// normalize. The engine itself never fails; sanity checks live here at
// the boundary.
func validateUsage(u Usage) error {
	if u.Quantity != nil && u.Quantity.IsNegative() {
		return fmt.Errorf("quantity must not be negative")
	}
	if u.Hours != nil && u.Hours.IsNegative() {
		return fmt.Errorf("hours must not be negative")
	}
	if u.Distance != nil && u.Distance.IsNegative() {
		return fmt.Errorf("distance must not be negative")
	}
	if u.OverridePrice != nil && u.OverridePrice.IsNegative() {
		return fmt.Errorf("override_price must not be negative")
	}
	if u.Start != nil && u.End != nil && u.End.Before(*u.Start) {
		return fmt.Errorf("end must not be before start")
	}
	return nil
}

func (s *Service) calculate(ctx context.Context, serviceID uuid.UUID, u Usage) (ServiceDefinition, CalculationResult, error) {
	def, err := s.catalog.Definition(ctx, serviceID)
	if err != nil {
		return ServiceDefinition{}, CalculationResult{}, fmt.Errorf("resolve service %s: %w", serviceID, err)
	}
	if err := validateUsage(u); err != nil {
		return ServiceDefinition{}, CalculationResult{}, err
	}
	res := s.engine.Calculate(CalculationInput{
		Service:       def,
		Quantity:      u.Quantity,
		Hours:         u.Hours,
		Start:         u.Start,
		End:           u.End,
		Distance:      u.Distance,
		OverridePrice: u.OverridePrice,
	})
	return def, res, nil
}

// Preview prices one service usage without persisting anything.
func (s *Service) Preview(ctx context.Context, serviceID uuid.UUID, u Usage) (*CalculationResult, error) {
	_, res, err := s.calculate(ctx, serviceID, u)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// PreviewRoom prices the room charges of an admission. The daily rate
// comes from the admission record unless an override is given. An open
// admission (no discharge timestamp) is billed up to the engine's current
// instant.
func (s *Service) PreviewRoom(ctx context.Context, admissionID uuid.UUID, rateOverride *decimal.Decimal) (*CalculationResult, error) {
	adm, err := s.admissions.Record(ctx, admissionID)
	if err != nil {
		return nil, fmt.Errorf("resolve admission %s: %w", admissionID, err)
	}
	rate := adm.DailyRate
	if rateOverride != nil {
		rate = *rateOverride
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("daily rate must not be negative")
	}
	res := s.engine.CalculateRoom(rate, adm.AdmittedAt, adm.DischargedAt)
	return &res, nil
}

// CreateBill prices every charge through the engine and persists the bill
// with its items atomically. The stored bill total is the sum of the item
// subtotals, and a persistence failure leaves no partial bill behind.
func (s *Service) CreateBill(ctx context.Context, b *Bill, charges []Charge) error {
	if b.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if len(charges) == 0 {
		return fmt.Errorf("at least one charge is required")
	}
	if b.Status == "" {
		b.Status = "draft"
	}
	if !validBillStatuses[b.Status] {
		return fmt.Errorf("invalid bill status: %s", b.Status)
	}
	if b.Currency == nil && s.defaultCurrency != "" {
		cur := s.defaultCurrency
		b.Currency = &cur
	}

	var items []*BillItem
	for i, ch := range charges {
		def, res, err := s.calculate(ctx, ch.ServiceID, ch.Usage)
		if err != nil {
			return err
		}
		serviceID := def.ID
		summary := res.Summary
		items = append(items, &BillItem{
			Sequence:     i + 1,
			ServiceID:    &serviceID,
			ServiceName:  def.Name,
			BillingModel: def.Model,
			UnitPrice:    def.UnitPrice,
			Quantity:     res.BilledQuantity,
			Subtotal:     res.Total,
			Description:  &summary,
		})
	}
	b.Total = ItemTotal(items)

	return s.bills.CreateWithItems(ctx, b, items)
}

func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.bills.GetByID(ctx, id)
}

func (s *Service) UpdateBill(ctx context.Context, b *Bill) error {
	if b.Status != "" && !validBillStatuses[b.Status] {
		return fmt.Errorf("invalid bill status: %s", b.Status)
	}
	return s.bills.Update(ctx, b)
}

func (s *Service) DeleteBill(ctx context.Context, id uuid.UUID) error {
	return s.bills.Delete(ctx, id)
}

func (s *Service) ListBillsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	return s.bills.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) SearchBills(ctx context.Context, params map[string]string, limit, offset int) ([]*Bill, int, error) {
	return s.bills.Search(ctx, params, limit, offset)
}

func (s *Service) GetBillItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error) {
	return s.bills.GetItems(ctx, billID)
}
