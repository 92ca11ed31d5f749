package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *testFixture, *echo.Echo) {
	f := newTestService()
	h := NewHandler(f.svc)
	e := echo.New()
	return h, f, e
}

// -- Preview --

func TestHandler_Preview(t *testing.T) {
	h, f, e := newTestHandler()
	id := f.catalog.add(ServiceDefinition{Name: "Consultation", UnitPrice: dec("500"), Model: ModelPerInstance})

	body := `{"service_id":"` + id.String() + `","quantity":"3"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Preview(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var res CalculationResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if !res.Total.Equal(dec("1500")) {
		t.Errorf("total = %s, want 1500", res.Total)
	}
}

func TestHandler_Preview_MissingServiceID(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Preview(c); err == nil {
		t.Error("expected error for missing service_id")
	}
}

func TestHandler_Preview_UnknownService(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"service_id":"` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Preview(c); err == nil {
		t.Error("expected error for unknown service")
	}
}

func TestHandler_PreviewRoom(t *testing.T) {
	h, f, e := newTestHandler()
	admitted := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	discharged := admitted.Add(25 * time.Hour)
	id := f.admissions.add(AdmissionRecord{
		PatientID:    uuid.New(),
		DailyRate:    dec("2000"),
		AdmittedAt:   admitted,
		DischargedAt: &discharged,
	})

	body := `{"admission_id":"` + id.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.PreviewRoom(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var res CalculationResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if !res.Total.Equal(dec("4000")) {
		t.Errorf("total = %s, want 4000", res.Total)
	}
}

func TestHandler_PreviewRoom_MissingAdmissionID(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.PreviewRoom(c); err == nil {
		t.Error("expected error for missing admission_id")
	}
}

// -- Bills --

func TestHandler_CreateBill(t *testing.T) {
	h, f, e := newTestHandler()
	id := f.catalog.add(ServiceDefinition{Name: "Consultation", UnitPrice: dec("500"), Model: ModelPerInstance})

	body := `{"patient_id":"` + uuid.New().String() + `","charges":[{"service_id":"` + id.String() + `","quantity":"2"}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateBill(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var bill Bill
	json.Unmarshal(rec.Body.Bytes(), &bill)
	if !bill.Total.Equal(dec("1000")) {
		t.Errorf("total = %s, want 1000", bill.Total)
	}
	if bill.Status != "draft" {
		t.Errorf("status = %q, want draft", bill.Status)
	}
}

func TestHandler_CreateBill_BadRequest(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateBill(c); err == nil {
		t.Error("expected error for missing patient_id")
	}
}

func createTestBill(t *testing.T, f *testFixture) *Bill {
	t.Helper()
	id := f.catalog.add(ServiceDefinition{Name: "Consultation", UnitPrice: dec("500"), Model: ModelPerInstance})
	bill := &Bill{PatientID: uuid.New()}
	if err := f.svc.CreateBill(nil, bill, []Charge{{ServiceID: id}}); err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return bill
}

func TestHandler_GetBill(t *testing.T) {
	h, f, e := newTestHandler()
	bill := createTestBill(t, f)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(bill.ID.String())

	err := h.GetBill(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetBill_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.GetBill(c); err == nil {
		t.Error("expected error for not found")
	}
}

func TestHandler_GetBill_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetBill(c); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestHandler_ListBills(t *testing.T) {
	h, f, e := newTestHandler()
	createTestBill(t, f)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListBills(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_ListBills_ByPatient(t *testing.T) {
	h, f, e := newTestHandler()
	bill := createTestBill(t, f)

	req := httptest.NewRequest(http.MethodGet, "/?patient_id="+bill.PatientID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListBills(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), bill.ID.String()) {
		t.Error("expected bill in response")
	}
}

func TestHandler_GetBillItems(t *testing.T) {
	h, f, e := newTestHandler()
	bill := createTestBill(t, f)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(bill.ID.String())

	err := h.GetBillItems(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var items []*BillItem
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
}

func TestHandler_UpdateBill(t *testing.T) {
	h, f, e := newTestHandler()
	bill := createTestBill(t, f)

	body := `{"status":"issued"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(bill.ID.String())

	err := h.UpdateBill(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var updated Bill
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Status != "issued" {
		t.Errorf("status = %q, want issued", updated.Status)
	}
}

func TestHandler_UpdateBill_InvalidStatus(t *testing.T) {
	h, f, e := newTestHandler()
	bill := createTestBill(t, f)

	body := `{"status":"shredded"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(bill.ID.String())

	if err := h.UpdateBill(c); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestHandler_DeleteBill(t *testing.T) {
	h, f, e := newTestHandler()
	bill := createTestBill(t, f)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(bill.ID.String())

	err := h.DeleteBill(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

// -- Route Registration --

func TestHandler_RegisterRoutes(t *testing.T) {
	h, _, e := newTestHandler()
	api := e.Group("/api/v1")
	h.RegisterRoutes(api)

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Method+":"+r.Path] = true
	}
	expected := []string{
		"POST:/api/v1/billing/preview",
		"POST:/api/v1/billing/room-preview",
		"POST:/api/v1/bills",
		"GET:/api/v1/bills",
		"GET:/api/v1/bills/:id",
		"GET:/api/v1/bills/:id/items",
		"PUT:/api/v1/bills/:id",
		"DELETE:/api/v1/bills/:id",
	}
	for _, path := range expected {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
