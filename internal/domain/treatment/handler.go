package treatment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/dentio/dentio/internal/domain/chart"
	"github.com/dentio/dentio/internal/platform/auth"
	"github.com/dentio/dentio/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDentist, auth.RoleAssistant, auth.RoleBilling))
	g.GET("/patients/:id/treatments", h.List)
	g.GET("/treatments/:itemId", h.Get)

	w := api.Group("", auth.RequireRole(auth.RoleDentist))
	w.POST("/patients/:id/treatments", h.AddItem)
	w.POST("/patients/:id/treatments/approve", h.ApproveAndStart)
	w.POST("/treatments/:itemId/complete", h.CompleteItem)
	w.POST("/treatments/:itemId/revert", h.RevertItem)
	w.DELETE("/treatments/:itemId", h.DeleteItem)
}

type addItemRequest struct {
	ToothID   int             `json:"tooth_id" validate:"required"`
	Procedure string          `json:"procedure" validate:"required"`
	Cost      decimal.Decimal `json:"cost" validate:"required"`
}

func (h *Handler) AddItem(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.svc.AddItem(c.Request().Context(), patientID, req.ToothID, req.Procedure, req.Cost)
	if err != nil {
		if errors.Is(err, chart.ErrInvalidToothID) || errors.Is(err, ErrInvalidCost) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) ApproveAndStart(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	items, err := h.svc.ApproveAndStart(c.Request().Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrNothingToApprove) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"approved": items,
	})
}

func (h *Handler) CompleteItem(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	item, err := h.svc.CompleteItem(c.Request().Context(), itemID)
	if err != nil {
		return itemError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) RevertItem(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	item, err := h.svc.RevertItem(c.Request().Context(), itemID)
	if err != nil {
		return itemError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteItem(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	if err := h.svc.DeleteItem(c.Request().Context(), itemID); err != nil {
		return itemError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Get(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	item, err := h.svc.GetItem(c.Request().Context(), itemID)
	if err != nil {
		return itemError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func itemError(err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
