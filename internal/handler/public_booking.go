package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tourboat-booking/internal/service"
)

// BookingHandler is the customer-facing booking flow: open a draft, start
// and confirm payment, look a booking up and cancel it, all keyed by the
// confirmation code.
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

// Create handles POST /v1/bookings.  Seats are held for the configured TTL;
// the draft must reach payment before the holds lapse.
func (h *BookingHandler) Create(c echo.Context) error {
	var req service.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.ConfirmationCode = strings.TrimSpace(req.ConfirmationCode)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name, last_name and email are required"})
	}
	if req.DiscountCents < 0 || req.TipCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "discount and tip must be non-negative"})
	}
	for _, t := range req.Tickets {
		if t.Quantity < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket quantity must be at least 1"})
		}
	}
	for _, m := range req.Merchandise {
		if m.Quantity < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "merchandise quantity must be at least 1"})
		}
	}
	b, err := h.Bookings.CreateDraft(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// StartPayment handles POST /v1/bookings/:code/payment.  Returns the
// booking together with the gateway client secret; calling it again resumes
// the existing payment intent rather than opening a second one.  Free
// bookings confirm immediately and return no intent.
func (h *BookingHandler) StartPayment(c echo.Context) error {
	sess, err := h.Bookings.StartPayment(c.Request().Context(), c.Param("code"))
	if err != nil {
		return fail(c, err)
	}
	resp := echo.Map{"booking": sess.Booking}
	if sess.Intent != nil {
		resp["payment"] = echo.Map{
			"intent_id":     sess.Intent.ID,
			"client_secret": sess.Intent.ClientSecret,
			"amount_cents":  sess.Intent.AmountCents,
			"currency":      sess.Intent.Currency,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// ConfirmPayment handles POST /v1/bookings/:code/confirm.  Verifies the
// charge with the gateway and converts the seat holds into committed seats.
func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
	b, err := h.Bookings.ConfirmPayment(c.Request().Context(), c.Param("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Get handles GET /v1/bookings/:code.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.Bookings.Lookup(c.Request().Context(), c.Param("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles POST /v1/bookings/:code/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	var body cancelBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	reason := strings.TrimSpace(body.Reason)
	if reason == "" {
		reason = "cancelled by customer"
	}
	b, err := h.Bookings.Cancel(c.Request().Context(), c.Param("code"), reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}
