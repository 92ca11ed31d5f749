package catalog

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/services", h.CreateService)
	api.GET("/services", h.ListServices)
	api.GET("/services/:id", h.GetService)
	api.PUT("/services/:id", h.UpdateService)
	api.POST("/services/:id/deactivate", h.DeactivateService)
	api.DELETE("/services/:id", h.DeleteService)
}

func (h *Handler) CreateService(c echo.Context) error {
	var bs BillableService
	if err := c.Bind(&bs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateService(c.Request().Context(), &bs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, bs)
}

func (h *Handler) GetService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bs, err := h.svc.GetService(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "service not found")
	}
	return c.JSON(http.StatusOK, bs)
}

func (h *Handler) ListServices(c echo.Context) error {
	pg := pagination.FromContext(c)

	params := map[string]string{}
	for _, key := range []string{"code", "name", "model"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	if len(params) > 0 {
		items, total, err := h.svc.SearchServices(c.Request().Context(), params, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	activeOnly := c.QueryParam("active") == "true"
	items, total, err := h.svc.ListServices(c.Request().Context(), activeOnly, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bs, err := h.svc.GetService(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "service not found")
	}
	var req BillableService
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Code != "" {
		bs.Code = req.Code
	}
	if req.Name != "" {
		bs.Name = req.Name
	}
	if req.Description != nil {
		bs.Description = req.Description
	}
	if !req.UnitPrice.IsZero() {
		bs.UnitPrice = req.UnitPrice
	}
	if req.BillingModel != "" {
		bs.BillingModel = req.BillingModel
	}
	if req.Parameters != nil {
		bs.Parameters = req.Parameters
	}
	if err := h.svc.UpdateService(c.Request().Context(), bs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, bs)
}

func (h *Handler) DeactivateService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeactivateService(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "service not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteService(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
