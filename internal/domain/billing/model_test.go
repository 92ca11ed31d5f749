package billing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestItemTotal(t *testing.T) {
	items := []*BillItem{
		{Subtotal: dec("1500")},
		{Subtotal: dec("400")},
		{Subtotal: dec("0.50")},
	}
	if got := ItemTotal(items); !got.Equal(dec("1900.50")) {
		t.Errorf("ItemTotal = %s, want 1900.50", got)
	}
}

func TestItemTotal_Empty(t *testing.T) {
	if got := ItemTotal(nil); !got.Equal(decimal.Zero) {
		t.Errorf("ItemTotal(nil) = %s, want 0", got)
	}
}

func TestUsage_UnmarshalQuotedDecimals(t *testing.T) {
	var u Usage
	payload := `{"quantity":"3","hours":"4.5","distance":"12.3","override_price":"750"}`
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Quantity == nil || !u.Quantity.Equal(dec("3")) {
		t.Errorf("quantity = %v, want 3", u.Quantity)
	}
	if u.OverridePrice == nil || !u.OverridePrice.Equal(dec("750")) {
		t.Errorf("override_price = %v, want 750", u.OverridePrice)
	}
}

func TestUsage_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Usage{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("empty usage marshals to %s, want {}", data)
	}
}
