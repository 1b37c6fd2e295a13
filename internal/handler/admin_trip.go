package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"tourboat-booking/internal/model"
	"tourboat-booking/internal/repository"
	"tourboat-booking/internal/service"
)

// TripHandler exposes the operator endpoints for trips: scheduling, boat
// assignments, trip-level pricing, merchandise offerings and passenger
// reassignment.
type TripHandler struct {
	Trips    *repository.TripRepo
	Merch    *repository.MerchandiseRepo
	Bookings *service.BookingService
	Reassign *service.ReassignmentService
}

func NewTripHandler(trips *repository.TripRepo, merch *repository.MerchandiseRepo,
	bookings *service.BookingService, reassign *service.ReassignmentService) *TripHandler {
	return &TripHandler{Trips: trips, Merch: merch, Bookings: bookings, Reassign: reassign}
}

type tripBody struct {
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Active        *bool      `json:"active"`
	Unlisted      *bool      `json:"unlisted"`
	BookingMode   string     `json:"booking_mode"`
	SalesOpenAt   *time.Time `json:"sales_open_at"`
	CheckInTime   *time.Time `json:"check_in_time"`
	BoardingTime  *time.Time `json:"boarding_time"`
	DepartureTime *time.Time `json:"departure_time"`
}

func validTripType(s string) bool {
	return s == string(model.TripTypeLaunchViewing) || s == string(model.TripTypePreLaunch)
}

func validBookingMode(s string) bool {
	switch model.BookingMode(s) {
	case model.BookingModePrivate, model.BookingModeEarlyBird, model.BookingModePublic:
		return true
	}
	return false
}

// CreateTrip handles POST /v1/admin/trips.  Check-in and boarding times
// default from the departure time by trip type when omitted.
func (h *TripHandler) CreateTrip(c echo.Context) error {
	var body tripBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !validTripType(body.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be launch_viewing or pre_launch"})
	}
	if !validBookingMode(body.BookingMode) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_mode must be private, early_bird or public"})
	}
	if body.DepartureTime == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_time is required"})
	}
	t := &model.Trip{
		Name:          strings.TrimSpace(body.Name),
		Type:          model.TripType(body.Type),
		Active:        true,
		BookingMode:   model.BookingMode(body.BookingMode),
		SalesOpenAt:   body.SalesOpenAt,
		DepartureTime: body.DepartureTime.UTC(),
	}
	if body.Active != nil {
		t.Active = *body.Active
	}
	if body.Unlisted != nil {
		t.Unlisted = *body.Unlisted
	}
	if body.CheckInTime != nil {
		t.CheckInTime = body.CheckInTime.UTC()
	}
	if body.BoardingTime != nil {
		t.BoardingTime = body.BoardingTime.UTC()
	}
	t.ApplyDefaultTimes()
	if err := h.Trips.Create(c.Request().Context(), t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// GetTrip handles GET /v1/admin/trips/:id with boats and availability.
func (h *TripHandler) GetTrip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Trips.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	boats, err := h.Bookings.Availability(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trip": t, "boats": boats})
}

// ListTrips handles GET /v1/admin/trips (all trips, including inactive).
func (h *TripHandler) ListTrips(c echo.Context) error {
	items, err := h.Trips.List(c.Request().Context(), false)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateTrip handles PUT /v1/admin/trips/:id.
func (h *TripHandler) UpdateTrip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body tripBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	t, err := h.Trips.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if name := strings.TrimSpace(body.Name); name != "" {
		t.Name = name
	}
	if body.Type != "" {
		if !validTripType(body.Type) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
		}
		t.Type = model.TripType(body.Type)
	}
	if body.BookingMode != "" {
		if !validBookingMode(body.BookingMode) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking_mode"})
		}
		t.BookingMode = model.BookingMode(body.BookingMode)
	}
	if body.Active != nil {
		t.Active = *body.Active
	}
	if body.Unlisted != nil {
		t.Unlisted = *body.Unlisted
	}
	if body.SalesOpenAt != nil {
		t.SalesOpenAt = body.SalesOpenAt
	}
	if body.CheckInTime != nil {
		t.CheckInTime = body.CheckInTime.UTC()
	}
	if body.BoardingTime != nil {
		t.BoardingTime = body.BoardingTime.UTC()
	}
	if body.DepartureTime != nil {
		t.DepartureTime = body.DepartureTime.UTC()
	}
	if err := h.Trips.Update(c.Request().Context(), t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTrip handles DELETE /v1/admin/trips/:id.
func (h *TripHandler) DeleteTrip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Trips.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- trip boats -----

type tripBoatBody struct {
	BoatID             uint64 `json:"boat_id"`
	MaxCapacity        *int   `json:"max_capacity"`
	UseOnlyTripPricing *bool  `json:"use_only_trip_pricing"`
}

// AttachBoat handles POST /v1/admin/trips/:id/boats.
func (h *TripHandler) AttachBoat(c echo.Context) error {
	tripID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Trips.GetByID(c.Request().Context(), tripID); err != nil {
		return fail(c, err)
	}
	var body tripBoatBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BoatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "boat_id is required"})
	}
	tb := &model.TripBoat{TripID: tripID, BoatID: body.BoatID, MaxCapacity: body.MaxCapacity}
	if body.UseOnlyTripPricing != nil {
		tb.UseOnlyTripPricing = *body.UseOnlyTripPricing
	}
	if err := h.Trips.AttachBoat(c.Request().Context(), tb); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, tb)
}

// UpdateTripBoat handles PUT /v1/admin/trips/:id/boats/:tripBoatID.
func (h *TripHandler) UpdateTripBoat(c echo.Context) error {
	tripBoatID, err := parseID(c, "tripBoatID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip boat id"})
	}
	var body tripBoatBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	tb, err := h.Trips.GetTripBoatByID(c.Request().Context(), tripBoatID)
	if err != nil {
		return fail(c, err)
	}
	tb.MaxCapacity = body.MaxCapacity
	if body.UseOnlyTripPricing != nil {
		tb.UseOnlyTripPricing = *body.UseOnlyTripPricing
	}
	if err := h.Trips.UpdateTripBoat(c.Request().Context(), tb); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tb)
}

// DetachBoat handles DELETE /v1/admin/trips/:id/boats/:tripBoatID.  Boats
// with ticketed passengers must be cleared through reassignment first.
func (h *TripHandler) DetachBoat(c echo.Context) error {
	tripBoatID, err := parseID(c, "tripBoatID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip boat id"})
	}
	if err := h.Trips.DetachBoat(c.Request().Context(), tripBoatID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- trip boat pricing -----

type tripPricingBody struct {
	TicketType string `json:"ticket_type"`
	PriceCents int64  `json:"price_cents"`
	Capacity   *int   `json:"capacity"`
}

// CreateTripBoatPricing handles POST /v1/admin/trips/:id/boats/:tripBoatID/pricing.
func (h *TripHandler) CreateTripBoatPricing(c echo.Context) error {
	tripBoatID, err := parseID(c, "tripBoatID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip boat id"})
	}
	var body tripPricingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.TicketType = strings.TrimSpace(strings.ToLower(body.TicketType))
	if body.TicketType == "" || body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_type and non-negative price_cents required"})
	}
	p := &model.TripBoatPricing{TripBoatID: tripBoatID, TicketType: body.TicketType, PriceCents: body.PriceCents, Capacity: body.Capacity}
	if err := h.Trips.CreateTripBoatPricing(c.Request().Context(), p); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// UpdateTripBoatPricing handles PUT .../pricing/:pricingID.
func (h *TripHandler) UpdateTripBoatPricing(c echo.Context) error {
	tripBoatID, err := parseID(c, "tripBoatID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip boat id"})
	}
	pricingID, err := parseID(c, "pricingID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pricing id"})
	}
	var body tripPricingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p := &model.TripBoatPricing{ID: pricingID, TripBoatID: tripBoatID, PriceCents: body.PriceCents, Capacity: body.Capacity}
	if err := h.Trips.UpdateTripBoatPricing(c.Request().Context(), p); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteTripBoatPricing handles DELETE .../pricing/:pricingID.
func (h *TripHandler) DeleteTripBoatPricing(c echo.Context) error {
	tripBoatID, err := parseID(c, "tripBoatID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip boat id"})
	}
	pricingID, err := parseID(c, "pricingID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pricing id"})
	}
	if err := h.Trips.DeleteTripBoatPricing(c.Request().Context(), tripBoatID, pricingID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- trip merchandise -----

type tripMerchBody struct {
	MerchandiseID    uint64 `json:"merchandise_id"`
	PriceOverride    *int64 `json:"price_override"`
	QuantityOverride *int   `json:"quantity_override"`
}

// OfferMerchandise handles POST /v1/admin/trips/:id/merchandise.
func (h *TripHandler) OfferMerchandise(c echo.Context) error {
	tripID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body tripMerchBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MerchandiseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "merchandise_id is required"})
	}
	if _, err := h.Merch.GetByID(c.Request().Context(), body.MerchandiseID); err != nil {
		return fail(c, err)
	}
	tm := &model.TripMerchandise{TripID: tripID, MerchandiseID: body.MerchandiseID,
		PriceOverride: body.PriceOverride, QuantityOverride: body.QuantityOverride}
	if err := h.Merch.OfferOnTrip(c.Request().Context(), tm); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, tm)
}

// UpdateTripMerchandise handles PUT /v1/admin/trips/:id/merchandise/:tripMerchID.
func (h *TripHandler) UpdateTripMerchandise(c echo.Context) error {
	tripMerchID, err := parseID(c, "tripMerchID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip merchandise id"})
	}
	var body tripMerchBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	tm, err := h.Merch.GetTripMerchandise(c.Request().Context(), tripMerchID)
	if err != nil {
		return fail(c, err)
	}
	tm.PriceOverride = body.PriceOverride
	tm.QuantityOverride = body.QuantityOverride
	if err := h.Merch.UpdateTripMerchandise(c.Request().Context(), tm); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tm)
}

// RemoveTripMerchandise handles DELETE /v1/admin/trips/:id/merchandise/:tripMerchID.
func (h *TripHandler) RemoveTripMerchandise(c echo.Context) error {
	tripMerchID, err := parseID(c, "tripMerchID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip merchandise id"})
	}
	if err := h.Merch.RemoveFromTrip(c.Request().Context(), tripMerchID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- reassignment -----

type reassignBody struct {
	FromBoatID  uint64            `json:"from_boat_id"`
	ToBoatID    uint64            `json:"to_boat_id"`
	TypeMapping map[string]string `json:"type_mapping"`
	DryRun      bool              `json:"dry_run"`
}

// ReassignPassengers handles POST /v1/admin/trips/:id/reassign.  With
// dry_run the plan is computed and returned without moving anyone.
func (h *TripHandler) ReassignPassengers(c echo.Context) error {
	tripID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body reassignBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.FromBoatID == 0 || body.ToBoatID == 0 || body.FromBoatID == body.ToBoatID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "distinct from_boat_id and to_boat_id required"})
	}
	ctx := c.Request().Context()
	if body.DryRun {
		plan, err := h.Reassign.Plan(ctx, tripID, body.FromBoatID, body.ToBoatID, body.TypeMapping)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, plan)
	}
	plan, err := h.Reassign.Reassign(ctx, tripID, body.FromBoatID, body.ToBoatID, body.TypeMapping)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}
