package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/billing/preview", h.Preview)
	api.POST("/billing/room-preview", h.PreviewRoom)
	api.POST("/bills", h.CreateBill)
	api.GET("/bills", h.ListBills)
	api.GET("/bills/:id", h.GetBill)
	api.GET("/bills/:id/items", h.GetBillItems)
	api.PUT("/bills/:id", h.UpdateBill)
	api.DELETE("/bills/:id", h.DeleteBill)
}

type previewRequest struct {
	ServiceID uuid.UUID `json:"service_id"`
	Usage
}

type roomPreviewRequest struct {
	AdmissionID uuid.UUID        `json:"admission_id"`
	DailyRate   *decimal.Decimal `json:"daily_rate,omitempty"`
}

type createBillRequest struct {
	PatientID   uuid.UUID  `json:"patient_id"`
	AdmissionID *uuid.UUID `json:"admission_id,omitempty"`
	Currency    *string    `json:"currency,omitempty"`
	Note        *string    `json:"note,omitempty"`
	Charges     []Charge   `json:"charges"`
}

func (h *Handler) Preview(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ServiceID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "service_id is required")
	}
	res, err := h.svc.Preview(c.Request().Context(), req.ServiceID, req.Usage)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) PreviewRoom(c echo.Context) error {
	var req roomPreviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AdmissionID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "admission_id is required")
	}
	res, err := h.svc.PreviewRoom(c.Request().Context(), req.AdmissionID, req.DailyRate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) CreateBill(c echo.Context) error {
	var req createBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	bill := &Bill{
		PatientID:   req.PatientID,
		AdmissionID: req.AdmissionID,
		Currency:    req.Currency,
		Note:        req.Note,
	}
	if err := h.svc.CreateBill(c.Request().Context(), bill, req.Charges); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, bill)
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bill, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, bill)
}

func (h *Handler) ListBills(c echo.Context) error {
	pg := pagination.FromContext(c)
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListBillsByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	params := map[string]string{}
	if status := c.QueryParam("status"); status != "" {
		params["status"] = status
	}
	items, total, err := h.svc.SearchBills(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetBillItems(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.GetBillItems(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bill, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	var req Bill
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Status != "" {
		bill.Status = req.Status
	}
	if req.Note != nil {
		bill.Note = req.Note
	}
	if err := h.svc.UpdateBill(c.Request().Context(), bill); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, bill)
}

func (h *Handler) DeleteBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteBill(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
