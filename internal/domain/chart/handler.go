package chart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dentio/dentio/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDentist, auth.RoleAssistant, auth.RoleBilling))
	g.GET("/patients/:id/chart", h.GetChart)
	g.GET("/patients/:id/chart/:toothId", h.GetTooth)

	w := api.Group("", auth.RequireRole(auth.RoleDentist))
	w.PUT("/patients/:id/chart/:toothId", h.SetStatus)
	w.DELETE("/patients/:id/chart/:toothId", h.ClearStatus)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	toothID, err := strconv.Atoi(c.Param("toothId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tooth id")
	}

	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.SetStatus(c.Request().Context(), patientID, toothID, req.Status); err != nil {
		if errors.Is(err, ErrInvalidToothID) || errors.Is(err, ErrInvalidStatus) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, Tooth{ToothID: toothID, Status: req.Status})
}

func (h *Handler) ClearStatus(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	toothID, err := strconv.Atoi(c.Param("toothId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tooth id")
	}

	if err := h.svc.SetStatus(c.Request().Context(), patientID, toothID, StatusHealthy); err != nil {
		if errors.Is(err, ErrInvalidToothID) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetTooth(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	toothID, err := strconv.Atoi(c.Param("toothId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tooth id")
	}

	status, err := h.svc.GetStatus(c.Request().Context(), patientID, toothID)
	if err != nil {
		if errors.Is(err, ErrInvalidToothID) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, Tooth{ToothID: toothID, Status: status})
}

func (h *Handler) GetChart(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	teeth, err := h.svc.GetChart(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": patientID,
		"teeth":      teeth,
	})
}
