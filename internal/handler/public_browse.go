package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tourboat-booking/internal/model"
	"tourboat-booking/internal/repository"
	"tourboat-booking/internal/service"
)

// BrowseHandler serves the customer-facing catalog: listed trips, per-trip
// seat availability and the merchandise offered alongside a departure.
type BrowseHandler struct {
	Trips    *repository.TripRepo
	Merch    *repository.MerchandiseRepo
	Bookings *service.BookingService
}

func NewBrowseHandler(trips *repository.TripRepo, merch *repository.MerchandiseRepo,
	bookings *service.BookingService) *BrowseHandler {
	return &BrowseHandler{Trips: trips, Merch: merch, Bookings: bookings}
}

// ListTrips handles GET /v1/trips.  Only active, listed trips whose
// effective booking mode is public right now are shown; early-bird and
// private trips stay reachable by direct link only.
func (h *BrowseHandler) ListTrips(c echo.Context) error {
	trips, err := h.Trips.List(c.Request().Context(), true)
	if err != nil {
		return fail(c, err)
	}
	now := time.Now().UTC()
	visible := make([]model.Trip, 0, len(trips))
	for _, t := range trips {
		if t.EffectiveBookingMode(now) == model.BookingModePublic {
			visible = append(visible, t)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": visible})
}

// GetTrip handles GET /v1/trips/:id.  Unlisted trips resolve here so a
// direct link works; inactive ones do not.
func (h *BrowseHandler) GetTrip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	t, err := h.Trips.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !t.Active {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
	}
	boats, err := h.Bookings.Availability(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	merch, err := h.Merch.ListTripMerchandise(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trip":        t,
		"boats":       boats,
		"merchandise": merch,
	})
}

// GetAvailability handles GET /v1/trips/:id/availability.
func (h *BrowseHandler) GetAvailability(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	boats, err := h.Bookings.Availability(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"boats": boats})
}
