package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tourboat-booking/internal/model"
	"tourboat-booking/internal/payment"
	"tourboat-booking/internal/pricing"
	"tourboat-booking/internal/queue"
	"tourboat-booking/internal/repository"
	"tourboat-booking/internal/utils"
)

var (
	// ErrTripNotOnSale is returned when a trip is inactive or its effective
	// booking mode is private at booking time.
	ErrTripNotOnSale = errors.New("trip is not on sale")
	// ErrEmptyBooking is returned when a booking request has no items.
	ErrEmptyBooking = errors.New("booking has no items")
	// ErrPaymentNotCompleted is returned when confirmation is attempted
	// before the gateway reports a successful charge.
	ErrPaymentNotCompleted = errors.New("payment not completed")
	// ErrMerchandiseSoldOut is returned when a trip's merchandise quota or a
	// variation's stock cannot cover the requested quantity.
	ErrMerchandiseSoldOut = errors.New("merchandise sold out")
)

// Catalog is the read surface the booking flow needs from the catalogue.
type Catalog interface {
	Trip(ctx context.Context, id uint64) (*model.Trip, error)
	Boat(ctx context.Context, id uint64) (*model.Boat, error)
	TripBoat(ctx context.Context, tripID, boatID uint64) (*model.TripBoat, error)
	TripBoats(ctx context.Context, tripID uint64) ([]model.TripBoat, error)
	BoatPricing(ctx context.Context, boatID uint64) ([]model.BoatPricing, error)
	TripBoatPricing(ctx context.Context, tripBoatID uint64) ([]model.TripBoatPricing, error)
	TripMerchandise(ctx context.Context, id uint64) (*model.TripMerchandise, error)
	Merchandise(ctx context.Context, id uint64) (*model.Merchandise, error)
	Variation(ctx context.Context, id uint64) (*model.MerchandiseVariation, error)
	TripMerchandiseSold(ctx context.Context, tripMerchandiseID uint64) (int, error)
}

// BookingStore is the write surface the booking flow needs.  Implemented by
// *repository.Store; tests substitute an in-memory fake.
type BookingStore interface {
	CreateDraft(ctx context.Context, b *model.Booking, holds []repository.HoldRequest,
		limits map[uint64]repository.CapacityLimits, stock map[uint64]int, expiresAt time.Time) error
	BookingByCode(ctx context.Context, code string) (*model.Booking, error)
	ConfirmSeats(ctx context.Context, bookingID uint64) error
	SetPaymentPending(ctx context.Context, bookingID uint64, intentID string) error
	CancelBooking(ctx context.Context, b *model.Booking) error
	Transition(ctx context.Context, bookingID uint64, to model.BookingStatus) error
	Counts(ctx context.Context, tripBoatID uint64) (map[string]model.SeatCount, error)
}

// TicketRequest is one requested ticket line.
type TicketRequest struct {
	TripID     uint64 `json:"trip_id"`
	BoatID     uint64 `json:"boat_id"`
	TicketType string `json:"ticket_type"`
	Quantity   int    `json:"quantity"`
}

// MerchandiseRequest is one requested merchandise line.
type MerchandiseRequest struct {
	TripMerchandiseID uint64  `json:"trip_merchandise_id"`
	VariationID       *uint64 `json:"variation_id,omitempty"`
	Quantity          int     `json:"quantity"`
}

// CreateBookingRequest carries everything needed to open a draft booking.
type CreateBookingRequest struct {
	FirstName       string               `json:"first_name"`
	LastName        string               `json:"last_name"`
	Email           string               `json:"email"`
	Phone           string               `json:"phone"`
	BillingAddress  string               `json:"billing_address"`
	SpecialRequests string               `json:"special_requests"`
	Tickets         []TicketRequest      `json:"tickets"`
	Merchandise     []MerchandiseRequest `json:"merchandise"`
	DiscountCents   int64                `json:"discount_cents"`
	TipCents        int64                `json:"tip_cents"`

	// ConfirmationCode lets an integrator supply its own code; when empty
	// the server generates one.  A supplied code that already exists fails
	// with model.ErrDuplicateConfirmationCode instead of regenerating.
	ConfirmationCode string `json:"confirmation_code"`
}

// BookingService runs the booking lifecycle: draft creation with seat holds,
// payment hand-off, confirmation, cancellation and the operator transitions.
type BookingService struct {
	catalog   Catalog
	store     BookingStore
	gateway   payment.Gateway
	publisher EventPublisher

	holdTTL       time.Duration
	minChargeable int64 // totals below this confirm without the gateway
	taxRateBps    int64 // basis points applied to subtotal minus discount

	now func() time.Time
}

// NewBookingService wires the booking flow together.
func NewBookingService(catalog Catalog, store BookingStore, gateway payment.Gateway,
	publisher EventPublisher, holdTTL time.Duration, minChargeableCents, taxRateBps int64) *BookingService {
	return &BookingService{
		catalog:       catalog,
		store:         store,
		gateway:       gateway,
		publisher:     publisher,
		holdTTL:       holdTTL,
		minChargeable: minChargeableCents,
		taxRateBps:    taxRateBps,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

const (
	createAttempts  = 3
	codeAttempts    = 5
	conflictBackoff = 50 * time.Millisecond
)

// CreateDraft prices the requested items, places seat holds and opens a
// draft booking, all or nothing.  Ledger write conflicts are retried a
// bounded number of times before surfacing model.ErrConflict.
func (s *BookingService) CreateDraft(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
	if len(req.Tickets) == 0 && len(req.Merchandise) == 0 {
		return nil, ErrEmptyBooking
	}
	b, holds, limits, stock, err := s.priceRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * conflictBackoff):
			}
		}
		if err := s.createWithCode(ctx, b, holds, limits, stock); err != nil {
			if errors.Is(err, model.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"booking_id": b.ID,
			"code":       b.ConfirmationCode,
			"seats":      b.TicketQuantity(),
			"total":      b.TotalAmount,
		}).Info("draft booking created")
		return b, nil
	}
	return nil, lastErr
}

// createWithCode generates a confirmation code and writes the draft,
// regenerating on the rare code collision.  A caller-supplied code is used
// as-is and never regenerated; its collision is the caller's error.
func (s *BookingService) createWithCode(ctx context.Context, b *model.Booking,
	holds []repository.HoldRequest, limits map[uint64]repository.CapacityLimits, stock map[uint64]int) error {
	expiresAt := s.now().Add(s.holdTTL)
	if b.ConfirmationCode != "" {
		return s.store.CreateDraft(ctx, b, holds, limits, stock, expiresAt)
	}
	var err error
	for i := 0; i < codeAttempts; i++ {
		b.ConfirmationCode, err = utils.NewConfirmationCode()
		if err != nil {
			return err
		}
		err = s.store.CreateDraft(ctx, b, holds, limits, stock, expiresAt)
		if !errors.Is(err, model.ErrDuplicateConfirmationCode) {
			return err
		}
	}
	return err
}

// priceRequest resolves every line against the catalogue, snapshots prices
// and assembles the holds and stock mutations the draft needs.
func (s *BookingService) priceRequest(ctx context.Context, req CreateBookingRequest) (
	*model.Booking, []repository.HoldRequest, map[uint64]repository.CapacityLimits, map[uint64]int, error) {
	b := &model.Booking{
		ConfirmationCode: req.ConfirmationCode,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		BillingAddress:   req.BillingAddress,
		SpecialRequests:  req.SpecialRequests,
		DiscountAmount:   req.DiscountCents,
		TipAmount:        req.TipCents,
		Status:           model.BookingStatusDraft,
	}
	var holds []repository.HoldRequest
	limits := make(map[uint64]repository.CapacityLimits)
	stock := make(map[uint64]int)
	now := s.now()

	for _, t := range req.Tickets {
		if t.Quantity <= 0 {
			return nil, nil, nil, nil, fmt.Errorf("ticket quantity must be positive")
		}
		trip, err := s.catalog.Trip(ctx, t.TripID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if !trip.Active || trip.EffectiveBookingMode(now) == model.BookingModePrivate {
			return nil, nil, nil, nil, ErrTripNotOnSale
		}
		tb, err := s.catalog.TripBoat(ctx, t.TripID, t.BoatID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		boat, err := s.catalog.Boat(ctx, t.BoatID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		defaults, err := s.catalog.BoatPricing(ctx, boat.ID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		overrides, err := s.catalog.TripBoatPricing(ctx, tb.ID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		resolved, err := pricing.ResolveTicket(tb, boat, defaults, overrides, t.TicketType)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if _, ok := limits[tb.ID]; !ok {
			limits[tb.ID] = repository.CapacityLimits{
				Boat:    pricing.EffectiveBoatCapacity(tb, boat),
				PerType: make(map[string]*int),
			}
		}
		typeCap := resolved.Capacity
		limits[tb.ID].PerType[t.TicketType] = &typeCap
		holds = append(holds, repository.HoldRequest{
			TripBoatID: tb.ID,
			TicketType: t.TicketType,
			Quantity:   t.Quantity,
		})
		b.Items = append(b.Items, model.BookingItem{
			Kind:         model.ItemKindTicket,
			TripID:       t.TripID,
			BoatID:       t.BoatID,
			TicketType:   t.TicketType,
			Quantity:     t.Quantity,
			PricePerUnit: resolved.PriceCents,
		})
		b.Subtotal += resolved.PriceCents * int64(t.Quantity)
	}

	for _, m := range req.Merchandise {
		if m.Quantity <= 0 {
			return nil, nil, nil, nil, fmt.Errorf("merchandise quantity must be positive")
		}
		tm, err := s.catalog.TripMerchandise(ctx, m.TripMerchandiseID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		item, err := s.catalog.Merchandise(ctx, tm.MerchandiseID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		var variation *model.MerchandiseVariation
		if m.VariationID != nil {
			variation, err = s.catalog.Variation(ctx, *m.VariationID)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			if variation.MerchandiseID != item.ID {
				return nil, nil, nil, nil, fmt.Errorf("variation does not belong to merchandise item")
			}
			stock[variation.ID] += m.Quantity
		}
		if tm.QuantityOverride != nil {
			sold, err := s.catalog.TripMerchandiseSold(ctx, tm.ID)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			if sold+m.Quantity > *tm.QuantityOverride {
				return nil, nil, nil, nil, ErrMerchandiseSoldOut
			}
		}
		resolved := pricing.ResolveMerchandise(item, tm, variation)
		if variation != nil && resolved.Available < m.Quantity {
			return nil, nil, nil, nil, ErrMerchandiseSoldOut
		}
		mi := model.BookingItem{
			Kind:              model.ItemKindMerchandise,
			TripID:            tm.TripID,
			TripMerchandiseID: &tm.ID,
			VariationID:       m.VariationID,
			Quantity:          m.Quantity,
			PricePerUnit:      resolved.PriceCents,
		}
		if variation != nil {
			mi.VariantValue = variation.Value
		}
		b.Items = append(b.Items, mi)
		b.Subtotal += resolved.PriceCents * int64(m.Quantity)
	}

	taxable := b.Subtotal - b.DiscountAmount
	if taxable < 0 {
		return nil, nil, nil, nil, model.ErrInvalidAmounts
	}
	b.TaxAmount = taxable * s.taxRateBps / 10000
	b.TotalAmount = b.Subtotal - b.DiscountAmount + b.TaxAmount + b.TipAmount
	if err := b.ValidateAmounts(); err != nil {
		return nil, nil, nil, nil, err
	}
	return b, holds, limits, stock, nil
}

// PaymentSession is what checkout needs to continue on the frontend.  Intent
// is nil when the booking confirmed without a charge.
type PaymentSession struct {
	Booking *model.Booking
	Intent  *payment.Intent
}

// StartPayment begins or resumes payment for a draft.  Totals below the
// chargeable minimum confirm immediately without touching the gateway.  A
// booking that already has an intent resumes it, so interrupted checkouts
// never double-charge.
func (s *BookingService) StartPayment(ctx context.Context, code string) (*PaymentSession, error) {
	b, err := s.store.BookingByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case model.BookingStatusDraft, model.BookingStatusPaymentPending:
	case model.BookingStatusConfirmed:
		return &PaymentSession{Booking: b}, nil
	default:
		return nil, model.ErrInvalidStateTransition
	}

	if b.TotalAmount < s.minChargeable {
		if err := s.confirm(ctx, b); err != nil {
			return nil, err
		}
		return &PaymentSession{Booking: b}, nil
	}

	if b.PaymentIntentID != "" {
		intent, err := s.gateway.ResumePayment(ctx, b.PaymentIntentID)
		if err == nil {
			return &PaymentSession{Booking: b, Intent: intent}, nil
		}
		if !errors.Is(err, payment.ErrIntentNotFound) {
			return nil, err
		}
		// The gateway lost the intent; fall through and mint a new one.
	}

	intent, err := s.gateway.InitializePayment(ctx, b.ID, b.ConfirmationCode, b.TotalAmount)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetPaymentPending(ctx, b.ID, intent.ID); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatusPaymentPending
	b.PaymentIntentID = intent.ID
	return &PaymentSession{Booking: b, Intent: intent}, nil
}

// ConfirmPayment verifies the charge with the gateway and confirms the
// booking.  Calling it again on a confirmed booking is a no-op.
func (s *BookingService) ConfirmPayment(ctx context.Context, code string) (*model.Booking, error) {
	b, err := s.store.BookingByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BookingStatusConfirmed {
		return b, nil
	}
	if b.Status != model.BookingStatusPaymentPending {
		return nil, model.ErrInvalidStateTransition
	}
	intent, err := s.gateway.VerifyPayment(ctx, b.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != payment.IntentStatusSucceeded {
		return nil, ErrPaymentNotCompleted
	}
	if err := s.confirm(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// confirm commits the booking's seats and publishes the confirmed event.
func (s *BookingService) confirm(ctx context.Context, b *model.Booking) error {
	if err := s.store.ConfirmSeats(ctx, b.ID); err != nil {
		return err
	}
	b.Status = model.BookingStatusConfirmed
	ev := queue.BookingConfirmedEvent{
		EventID:          uuid.NewString(),
		BookingID:        b.ID,
		ConfirmationCode: b.ConfirmationCode,
		Email:            b.Email,
		TotalAmountCents: b.TotalAmount,
		ConfirmedAt:      s.now().Format(time.RFC3339),
	}
	for _, item := range b.Items {
		if item.Kind == model.ItemKindTicket {
			ev.Tickets = append(ev.Tickets, queue.TicketCount{
				TripID:     item.TripID,
				BoatID:     item.BoatID,
				TicketType: item.TicketType,
				Quantity:   item.Quantity,
			})
		}
	}
	if err := s.publisher.PublishBookingConfirmed(ctx, ev); err != nil {
		logrus.WithError(err).WithField("booking_id", b.ID).Warn("publish booking.confirmed failed")
	}
	return nil
}

// Cancel releases the booking's seats and stock and publishes the cancelled
// event.  Completed bookings cannot be cancelled.
func (s *BookingService) Cancel(ctx context.Context, code, reason string) (*model.Booking, error) {
	b, err := s.store.BookingByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	seats := b.TicketQuantity()
	if err := s.store.CancelBooking(ctx, b); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatusCancelled
	ev := queue.BookingCancelledEvent{
		EventID:          uuid.NewString(),
		BookingID:        b.ID,
		ConfirmationCode: b.ConfirmationCode,
		Email:            b.Email,
		SeatsReleased:    seats,
		Reason:           reason,
		CancelledAt:      s.now().Format(time.RFC3339),
	}
	if err := s.publisher.PublishBookingCancelled(ctx, ev); err != nil {
		logrus.WithError(err).WithField("booking_id", b.ID).Warn("publish booking.cancelled failed")
	}
	return b, nil
}

// CheckIn marks a confirmed booking as checked in at the dock.
func (s *BookingService) CheckIn(ctx context.Context, code string) (*model.Booking, error) {
	return s.transition(ctx, code, model.BookingStatusCheckedIn)
}

// UndoCheckIn reverts an accidental check-in.
func (s *BookingService) UndoCheckIn(ctx context.Context, code string) (*model.Booking, error) {
	return s.transition(ctx, code, model.BookingStatusConfirmed)
}

// Complete marks a checked-in booking as completed after the trip returns.
func (s *BookingService) Complete(ctx context.Context, code string) (*model.Booking, error) {
	return s.transition(ctx, code, model.BookingStatusCompleted)
}

func (s *BookingService) transition(ctx context.Context, code string, to model.BookingStatus) (*model.Booking, error) {
	b, err := s.store.BookingByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.store.Transition(ctx, b.ID, to); err != nil {
		return nil, err
	}
	b.Status = to
	return b, nil
}

// Lookup fetches a booking by its public code.
func (s *BookingService) Lookup(ctx context.Context, code string) (*model.Booking, error) {
	return s.store.BookingByCode(ctx, code)
}

// TypeAvailability is the sellable state of one ticket type on one boat.
type TypeAvailability struct {
	TicketType string         `json:"ticket_type"`
	PriceCents int64          `json:"price_cents"`
	Remaining  int            `json:"remaining"`
	Source     pricing.Source `json:"source"`
}

// BoatAvailability is the sellable state of one boat on a trip.
type BoatAvailability struct {
	BoatID    uint64             `json:"boat_id"`
	BoatName  string             `json:"boat_name"`
	Remaining int                `json:"remaining"`
	Types     []TypeAvailability `json:"types"`
}

// Availability reports remaining seats per boat and ticket type for a trip.
// A type's remaining count is bounded by its own limit and by the boat's
// overall remaining capacity, whichever is smaller.
func (s *BookingService) Availability(ctx context.Context, tripID uint64) ([]BoatAvailability, error) {
	if _, err := s.catalog.Trip(ctx, tripID); err != nil {
		return nil, err
	}
	tripBoats, err := s.catalog.TripBoats(ctx, tripID)
	if err != nil {
		return nil, err
	}
	var out []BoatAvailability
	for i := range tripBoats {
		tb := &tripBoats[i]
		boat, err := s.catalog.Boat(ctx, tb.BoatID)
		if err != nil {
			return nil, err
		}
		defaults, err := s.catalog.BoatPricing(ctx, boat.ID)
		if err != nil {
			return nil, err
		}
		overrides, err := s.catalog.TripBoatPricing(ctx, tb.ID)
		if err != nil {
			return nil, err
		}
		counts, err := s.store.Counts(ctx, tb.ID)
		if err != nil {
			return nil, err
		}
		taken := 0
		for _, c := range counts {
			taken += c.Total()
		}
		boatRemaining := pricing.EffectiveBoatCapacity(tb, boat) - taken
		if boatRemaining < 0 {
			boatRemaining = 0
		}
		ba := BoatAvailability{BoatID: boat.ID, BoatName: boat.Name, Remaining: boatRemaining}
		for _, resolved := range pricing.SellableTypes(tb, boat, defaults, overrides) {
			remaining := boatRemaining
			typeRemaining := resolved.Capacity - counts[resolved.TicketType].Total()
			if typeRemaining < 0 {
				typeRemaining = 0
			}
			if typeRemaining < remaining {
				remaining = typeRemaining
			}
			ba.Types = append(ba.Types, TypeAvailability{
				TicketType: resolved.TicketType,
				PriceCents: resolved.PriceCents,
				Remaining:  remaining,
				Source:     resolved.Source,
			})
		}
		sort.Slice(ba.Types, func(a, b int) bool { return ba.Types[a].TicketType < ba.Types[b].TicketType })
		out = append(out, ba)
	}
	return out, nil
}
