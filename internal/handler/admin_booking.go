package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tourboat-booking/internal/model"
	"tourboat-booking/internal/repository"
	"tourboat-booking/internal/service"
)

// BookingAdminHandler exposes the operator side of the booking lifecycle:
// manifest listings, check-in at the dock and cancellations on behalf of a
// customer.
type BookingAdminHandler struct {
	Bookings *service.BookingService
	Repo     *repository.BookingRepo
}

func NewBookingAdminHandler(bookings *service.BookingService, repo *repository.BookingRepo) *BookingAdminHandler {
	return &BookingAdminHandler{Bookings: bookings, Repo: repo}
}

// ListByTrip handles GET /v1/admin/trips/:id/bookings?status=confirmed.
func (h *BookingAdminHandler) ListByTrip(c echo.Context) error {
	tripID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !model.BookingStatus(status).Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	items, err := h.Repo.ListByTrip(c.Request().Context(), tripID, model.BookingStatus(status))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/admin/bookings/:code.
func (h *BookingAdminHandler) Get(c echo.Context) error {
	b, err := h.Bookings.Lookup(c.Request().Context(), c.Param("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CheckIn handles POST /v1/admin/bookings/:code/check-in.
func (h *BookingAdminHandler) CheckIn(c echo.Context) error {
	b, err := h.Bookings.CheckIn(c.Request().Context(), c.Param("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// UndoCheckIn handles DELETE /v1/admin/bookings/:code/check-in.  Moves a
// checked-in booking back to confirmed; used when a party was scanned by
// mistake.
func (h *BookingAdminHandler) UndoCheckIn(c echo.Context) error {
	b, err := h.Bookings.UndoCheckIn(c.Request().Context(), c.Param("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Complete handles POST /v1/admin/bookings/:code/complete.
func (h *BookingAdminHandler) Complete(c echo.Context) error {
	b, err := h.Bookings.Complete(c.Request().Context(), c.Param("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

type cancelBody struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /v1/admin/bookings/:code/cancel.
func (h *BookingAdminHandler) Cancel(c echo.Context) error {
	var body cancelBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	reason := strings.TrimSpace(body.Reason)
	if reason == "" {
		reason = "cancelled by operator"
	}
	b, err := h.Bookings.Cancel(c.Request().Context(), c.Param("code"), reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}
