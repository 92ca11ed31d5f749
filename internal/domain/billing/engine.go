package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Billing model tags. Services in the catalog carry one of these; the
// engine picks a pricing strategy from the tag.
const (
	ModelPerInstance     = "per-instance"
	ModelPer24Hours      = "per-24-hours"
	ModelPerHour         = "per-hour"
	ModelComposite       = "composite"
	ModelVariable        = "variable"
	ModelPerCalendarDate = "per-calendar-date"
)

var knownModels = map[string]bool{
	ModelPerInstance:     true,
	ModelPer24Hours:      true,
	ModelPerHour:         true,
	ModelComposite:       true,
	ModelVariable:        true,
	ModelPerCalendarDate: true,
}

// KnownModel reports whether tag is a recognized billing model.
func KnownModel(tag string) bool { return knownModels[tag] }

// ServiceDefinition is the slice of a catalog service the engine needs:
// what it costs and how it is billed. Parameters is an optional JSON
// document used only by the composite model.
type ServiceDefinition struct {
	ID         uuid.UUID
	Name       string
	UnitPrice  decimal.Decimal
	Model      string
	Parameters *string
}

// CalculationInput is a single usage event to be priced. All fields other
// than Service are optional; each strategy reads only the fields it needs
// and substitutes documented defaults for the rest.
type CalculationInput struct {
	Service       ServiceDefinition
	Quantity      *decimal.Decimal
	Hours         *decimal.Decimal
	Start         *time.Time
	End           *time.Time
	Distance      *decimal.Decimal
	OverridePrice *decimal.Decimal
}

// BreakdownLine is one itemized charge component. Subtotal is always
// UnitPrice times Quantity.
type BreakdownLine struct {
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CalculationResult is the priced outcome of one usage event. The sum of
// the breakdown subtotals always equals Total.
type CalculationResult struct {
	Total          decimal.Decimal `json:"total"`
	BilledQuantity decimal.Decimal `json:"billed_quantity"`
	Breakdown      []BreakdownLine `json:"breakdown"`
	Summary        string          `json:"summary"`
}

// Engine computes charges from service definitions and usage facts. It is
// a pure calculator: no I/O, no shared state, safe for concurrent use.
// The clock is only consulted when an open-ended duration omits its end
// timestamp.
type Engine struct {
	clock func() time.Time
	log   zerolog.Logger
}

func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{clock: time.Now, log: logger}
}

// SetClock replaces the time source used to close open-ended durations.
// Tests pin it to a fixed instant to make results reproducible.
func (e *Engine) SetClock(fn func() time.Time) {
	if fn != nil {
		e.clock = fn
	}
}

// Calculate prices one usage event. It never fails: an unrecognized or
// empty billing model falls back to per-instance so that legacy or
// malformed catalog records still produce a charge. The fallback is
// logged because it can hide data-entry errors in the catalog.
func (e *Engine) Calculate(in CalculationInput) CalculationResult {
	switch in.Service.Model {
	case ModelPerInstance:
		return perUnit(in.Service, unitQuantity(in.Quantity), "instance(s)")
	case ModelPerCalendarDate:
		return perUnit(in.Service, unitQuantity(in.Quantity), "calendar day(s)")
	case ModelPerHour:
		hours := in.Hours
		if hours == nil {
			hours = in.Quantity
		}
		return perUnit(in.Service, unitQuantity(hours), "hour(s)")
	case ModelPer24Hours:
		return e.perDay(in.Service, in.Start, in.End)
	case ModelComposite:
		return composite(in.Service, in.Distance)
	case ModelVariable:
		return variable(in.Service, in.OverridePrice)
	default:
		e.log.Warn().
			Str("service_id", in.Service.ID.String()).
			Str("billing_model", in.Service.Model).
			Msg("unknown billing model, falling back to per-instance")
		return perUnit(in.Service, unitQuantity(in.Quantity), "instance(s)")
	}
}

// CalculateRoom prices a hospital stay from an admission record: daily
// rate times billed days, where a missing discharge time means the stay
// is still open and is closed at the current instant. The day count must
// stay identical to the per-24-hours strategy so a room modeled as a
// catalog service and a room billed straight from an admission never
// drift apart.
func (e *Engine) CalculateRoom(dailyRate decimal.Decimal, admittedAt time.Time, dischargedAt *time.Time) CalculationResult {
	until := e.clock()
	if dischargedAt != nil {
		until = *dischargedAt
	}
	days := billedDays(admittedAt, until)
	rate := nonNegative(dailyRate)
	subtotal := rate.Mul(days)

	return CalculationResult{
		Total:          subtotal,
		BilledQuantity: days,
		Breakdown: []BreakdownLine{{
			Description: "Room charges",
			UnitPrice:   rate,
			Quantity:    days,
			Subtotal:    subtotal,
		}},
		Summary: fmt.Sprintf("Room charges: %s day(s) @ %s = %s", days, rate, subtotal),
	}
}

// perUnit handles the per-instance, per-hour and per-calendar-date
// models: unit price times quantity, one breakdown line.
func perUnit(svc ServiceDefinition, quantity decimal.Decimal, unit string) CalculationResult {
	price := nonNegative(svc.UnitPrice)
	subtotal := price.Mul(quantity)

	return CalculationResult{
		Total:          subtotal,
		BilledQuantity: quantity,
		Breakdown: []BreakdownLine{{
			Description: fmt.Sprintf("%s %s", quantity, unit),
			UnitPrice:   price,
			Quantity:    quantity,
			Subtotal:    subtotal,
		}},
		Summary: fmt.Sprintf("%s: %s %s @ %s = %s", svc.Name, quantity, unit, price, subtotal),
	}
}

// perDay charges one unit per started 24-hour period. With no start
// timestamp at all the charge is exactly one day at the unit price, a
// documented default for incomplete input rather than an error. A missing
// end timestamp means the usage is still open and is closed at the
// current instant.
func (e *Engine) perDay(svc ServiceDefinition, start, end *time.Time) CalculationResult {
	price := nonNegative(svc.UnitPrice)

	days := decimal.NewFromInt(1)
	if start != nil {
		until := e.clock()
		if end != nil {
			until = *end
		}
		days = billedDays(*start, until)
	}
	subtotal := price.Mul(days)

	return CalculationResult{
		Total:          subtotal,
		BilledQuantity: days,
		Breakdown: []BreakdownLine{{
			Description: fmt.Sprintf("%s day(s)", days),
			UnitPrice:   price,
			Quantity:    days,
			Subtotal:    subtotal,
		}},
		Summary: fmt.Sprintf("%s: %s day(s) @ %s = %s", svc.Name, days, price, subtotal),
	}
}

// composite charges a fixed base plus a per-kilometre rate times the
// distance travelled, the model used for ambulance runs. Both the fixed
// charge and the rate come from the service's parameter document; a
// missing fixed charge falls back to the service's unit price, a missing
// rate to zero.
func composite(svc ServiceDefinition, distance *decimal.Decimal) CalculationResult {
	params := parseCompositeParams(svc.Parameters)

	fixed := nonNegative(svc.UnitPrice)
	if params.FixedCharge != nil {
		fixed = nonNegative(*params.FixedCharge)
	}
	rate := decimal.Zero
	if params.PerKmRate != nil {
		rate = nonNegative(*params.PerKmRate)
	}
	dist := decimal.Zero
	if distance != nil {
		dist = nonNegative(*distance)
	}

	total := fixed
	breakdown := []BreakdownLine{{
		Description: "Fixed charge",
		UnitPrice:   fixed,
		Quantity:    decimal.NewFromInt(1),
		Subtotal:    fixed,
	}}
	summary := fmt.Sprintf("%s: fixed charge %s", svc.Name, fixed)

	// A zero-distance run gets no variable line: "0 km" is noise.
	if dist.IsPositive() {
		variableCharge := rate.Mul(dist)
		total = total.Add(variableCharge)
		breakdown = append(breakdown, BreakdownLine{
			Description: fmt.Sprintf("%s km @ %s/km", dist, rate),
			UnitPrice:   rate,
			Quantity:    dist,
			Subtotal:    variableCharge,
		})
		summary = fmt.Sprintf("%s: fixed charge %s + %s km @ %s/km = %s", svc.Name, fixed, dist, rate, total)
	}

	return CalculationResult{
		Total:          total,
		BilledQuantity: decimal.NewFromInt(1),
		Breakdown:      breakdown,
		Summary:        summary,
	}
}

// variable charges a price decided at the point of use: the caller's
// override price, falling back to the service's list price, falling back
// to zero. Quantity is always one.
func variable(svc ServiceDefinition, override *decimal.Decimal) CalculationResult {
	price := nonNegative(svc.UnitPrice)
	if override != nil {
		price = nonNegative(*override)
	}
	one := decimal.NewFromInt(1)

	return CalculationResult{
		Total:          price,
		BilledQuantity: one,
		Breakdown: []BreakdownLine{{
			Description: fmt.Sprintf("%s (variable price)", svc.Name),
			UnitPrice:   price,
			Quantity:    one,
			Subtotal:    price,
		}},
		Summary: fmt.Sprintf("%s: variable price %s", svc.Name, price),
	}
}

// billedDays converts a time span into whole billed days: any started
// 24-hour period counts as a full day, and a stay shorter than one day
// still owes one. The arithmetic runs on UTC instants so DST transitions
// cannot shift the day count.
func billedDays(from, to time.Time) decimal.Decimal {
	elapsed := to.UTC().Sub(from.UTC())
	if elapsed <= 0 {
		return decimal.NewFromInt(1)
	}
	days := int64(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return decimal.NewFromInt(days)
}

// compositeParams is the parameter document of a composite service.
// Pointer fields distinguish "absent" from an explicit zero.
type compositeParams struct {
	FixedCharge *decimal.Decimal `json:"fixedCharge"`
	PerKmRate   *decimal.Decimal `json:"perKmRate"`
}

// parseCompositeParams tolerates a corrupt parameter document: billing
// must never hard-fail because of a bad configuration string, so a
// payload that does not parse is treated as if no parameters were set.
func parseCompositeParams(raw *string) compositeParams {
	if raw == nil || *raw == "" {
		return compositeParams{}
	}
	var p compositeParams
	if err := json.Unmarshal([]byte(*raw), &p); err != nil {
		return compositeParams{}
	}
	return p
}

// unitQuantity normalizes an optional quantity: absent means one,
// negative means zero. The engine never rejects input; the API layer
// validates before calling.
func unitQuantity(q *decimal.Decimal) decimal.Decimal {
	if q == nil {
		return decimal.NewFromInt(1)
	}
	return nonNegative(*q)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
