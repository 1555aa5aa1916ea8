package billing

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

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
	g.GET("/invoices/:id", h.Get)
	g.GET("/patients/:id/invoices", h.ListByPatient)

	w := api.Group("", auth.RequireRole(auth.RoleBilling))
	w.POST("/invoices", h.Create)
}

type createInvoiceRequest struct {
	PatientID uuid.UUID       `json:"patient_id" validate:"required"`
	DoctorID  uuid.UUID       `json:"doctor_id" validate:"required"`
	ItemIDs   []uuid.UUID     `json:"item_ids" validate:"required,min=1"`
	Discount  decimal.Decimal `json:"discount"`
	Notes     *string         `json:"notes"`
	DueDate   *time.Time      `json:"due_date"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	inv, err := h.svc.CreateInvoice(c.Request().Context(), CreateInvoiceInput{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		ItemIDs:   req.ItemIDs,
		Discount:  req.Discount,
		Notes:     req.Notes,
		DueDate:   req.DueDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoItems), errors.Is(err, ErrInvalidDiscount):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrItemNotBillable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListByPatient(c echo.Context) error {
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
