package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourboat-booking/internal/model"
	"tourboat-booking/internal/payment"
	"tourboat-booking/internal/queue"
	"tourboat-booking/internal/repository"
)

// --- fakes -----------------------------------------------------------------

type tripBoatKey struct{ tripID, boatID uint64 }

type fakeCatalog struct {
	trips           map[uint64]*model.Trip
	boats           map[uint64]*model.Boat
	tripBoats       map[tripBoatKey]*model.TripBoat
	boatPricing     map[uint64][]model.BoatPricing
	tripBoatPricing map[uint64][]model.TripBoatPricing
	tripMerch       map[uint64]*model.TripMerchandise
	merch           map[uint64]*model.Merchandise
	variations      map[uint64]*model.MerchandiseVariation
	sold            map[uint64]int
}

func (c *fakeCatalog) Trip(_ context.Context, id uint64) (*model.Trip, error) {
	if t, ok := c.trips[id]; ok {
		return t, nil
	}
	return nil, repository.ErrTripNotFound
}

func (c *fakeCatalog) Boat(_ context.Context, id uint64) (*model.Boat, error) {
	if b, ok := c.boats[id]; ok {
		return b, nil
	}
	return nil, repository.ErrBoatNotFound
}

func (c *fakeCatalog) TripBoat(_ context.Context, tripID, boatID uint64) (*model.TripBoat, error) {
	if tb, ok := c.tripBoats[tripBoatKey{tripID, boatID}]; ok {
		return tb, nil
	}
	return nil, repository.ErrTripBoatNotFound
}

func (c *fakeCatalog) TripBoats(_ context.Context, tripID uint64) ([]model.TripBoat, error) {
	var out []model.TripBoat
	for k, tb := range c.tripBoats {
		if k.tripID == tripID {
			out = append(out, *tb)
		}
	}
	return out, nil
}

func (c *fakeCatalog) BoatPricing(_ context.Context, boatID uint64) ([]model.BoatPricing, error) {
	return c.boatPricing[boatID], nil
}

func (c *fakeCatalog) TripBoatPricing(_ context.Context, tripBoatID uint64) ([]model.TripBoatPricing, error) {
	return c.tripBoatPricing[tripBoatID], nil
}

func (c *fakeCatalog) TripMerchandise(_ context.Context, id uint64) (*model.TripMerchandise, error) {
	if tm, ok := c.tripMerch[id]; ok {
		return tm, nil
	}
	return nil, repository.ErrMerchandiseNotFound
}

func (c *fakeCatalog) Merchandise(_ context.Context, id uint64) (*model.Merchandise, error) {
	if m, ok := c.merch[id]; ok {
		return m, nil
	}
	return nil, repository.ErrMerchandiseNotFound
}

func (c *fakeCatalog) Variation(_ context.Context, id uint64) (*model.MerchandiseVariation, error) {
	if v, ok := c.variations[id]; ok {
		return v, nil
	}
	return nil, repository.ErrMerchandiseNotFound
}

func (c *fakeCatalog) TripMerchandiseSold(_ context.Context, id uint64) (int, error) {
	return c.sold[id], nil
}

type fakeStore struct {
	nextID      uint64
	bookings    map[string]*model.Booking
	createErrs  []error // consumed one per CreateDraft call; nil means success
	createCalls int
	holds       []repository.HoldRequest
	confirmed   []uint64
	counts      map[uint64]map[string]model.SeatCount
	ticketItems []model.BookingItem
	transfers   [][]repository.SeatMove
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bookings: make(map[string]*model.Booking),
		counts:   make(map[uint64]map[string]model.SeatCount),
	}
}

func (s *fakeStore) CreateDraft(_ context.Context, b *model.Booking, holds []repository.HoldRequest,
	_ map[uint64]repository.CapacityLimits, _ map[uint64]int, _ time.Time) error {
	s.createCalls++
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return err
		}
	}
	s.nextID++
	b.ID = s.nextID
	s.holds = append(s.holds, holds...)
	s.bookings[b.ConfirmationCode] = b
	return nil
}

func (s *fakeStore) BookingByCode(_ context.Context, code string) (*model.Booking, error) {
	if b, ok := s.bookings[code]; ok {
		return b, nil
	}
	return nil, repository.ErrBookingNotFound
}

func (s *fakeStore) ConfirmSeats(_ context.Context, bookingID uint64) error {
	s.confirmed = append(s.confirmed, bookingID)
	for _, b := range s.bookings {
		if b.ID == bookingID {
			b.Status = model.BookingStatusConfirmed
		}
	}
	return nil
}

func (s *fakeStore) SetPaymentPending(_ context.Context, bookingID uint64, intentID string) error {
	for _, b := range s.bookings {
		if b.ID == bookingID {
			b.Status = model.BookingStatusPaymentPending
			b.PaymentIntentID = intentID
		}
	}
	return nil
}

func (s *fakeStore) CancelBooking(_ context.Context, b *model.Booking) error {
	if !model.CanTransition(b.Status, model.BookingStatusCancelled) {
		return model.ErrInvalidStateTransition
	}
	if stored, ok := s.bookings[b.ConfirmationCode]; ok {
		stored.Status = model.BookingStatusCancelled
	}
	return nil
}

func (s *fakeStore) Transition(_ context.Context, bookingID uint64, to model.BookingStatus) error {
	for _, b := range s.bookings {
		if b.ID == bookingID {
			if !model.CanTransition(b.Status, to) {
				return model.ErrInvalidStateTransition
			}
			b.Status = to
		}
	}
	return nil
}

func (s *fakeStore) Counts(_ context.Context, tripBoatID uint64) (map[string]model.SeatCount, error) {
	if c, ok := s.counts[tripBoatID]; ok {
		return c, nil
	}
	return map[string]model.SeatCount{}, nil
}

func (s *fakeStore) TicketItems(_ context.Context, _, _ uint64) ([]model.BookingItem, error) {
	return s.ticketItems, nil
}

func (s *fakeStore) TransferSeats(_ context.Context, moves []repository.SeatMove) error {
	s.transfers = append(s.transfers, moves)
	return nil
}

type fakeGateway struct {
	intents    map[string]*payment.Intent
	initCalls  int
	initErr    error
	nextStatus payment.IntentStatus
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: make(map[string]*payment.Intent), nextStatus: payment.IntentStatusPending}
}

func (g *fakeGateway) InitializePayment(_ context.Context, bookingID uint64, _ string, amountCents int64) (*payment.Intent, error) {
	g.initCalls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	intent := &payment.Intent{
		ID:          fmt.Sprintf("pi_%d_%d", bookingID, g.initCalls),
		Status:      g.nextStatus,
		AmountCents: amountCents,
		Currency:    "usd",
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *fakeGateway) ResumePayment(_ context.Context, intentID string) (*payment.Intent, error) {
	if intent, ok := g.intents[intentID]; ok {
		return intent, nil
	}
	return nil, payment.ErrIntentNotFound
}

func (g *fakeGateway) VerifyPayment(ctx context.Context, intentID string) (*payment.Intent, error) {
	return g.ResumePayment(ctx, intentID)
}

type fakePublisher struct {
	confirmed []queue.BookingConfirmedEvent
	cancelled []queue.BookingCancelledEvent
}

func (p *fakePublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.confirmed = append(p.confirmed, ev)
	return nil
}

func (p *fakePublisher) PublishBookingCancelled(_ context.Context, ev queue.BookingCancelledEvent) error {
	p.cancelled = append(p.cancelled, ev)
	return nil
}

// --- fixtures --------------------------------------------------------------

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

// newTestCatalog builds one public trip with one boat: adult seats priced at
// the boat default with a trip override, child seats capped at 10.
func newTestCatalog() *fakeCatalog {
	departure := time.Date(2026, 9, 12, 14, 0, 0, 0, time.UTC)
	return &fakeCatalog{
		trips: map[uint64]*model.Trip{
			1: {ID: 1, Name: "Starship Flight 12 Viewing", Type: model.TripTypeLaunchViewing,
				Active: true, BookingMode: model.BookingModePublic,
				CheckInTime: departure.Add(-90 * time.Minute), BoardingTime: departure.Add(-30 * time.Minute),
				DepartureTime: departure},
		},
		boats: map[uint64]*model.Boat{
			10: {ID: 10, ProviderID: 1, Name: "Osprey", Capacity: 40},
		},
		tripBoats: map[tripBoatKey]*model.TripBoat{
			{1, 10}: {ID: 100, TripID: 1, BoatID: 10},
		},
		boatPricing: map[uint64][]model.BoatPricing{
			10: {
				{ID: 1, BoatID: 10, TicketType: "adult", PriceCents: 5000},
				{ID: 2, BoatID: 10, TicketType: "child", PriceCents: 3000, Capacity: intPtr(10)},
			},
		},
		tripBoatPricing: map[uint64][]model.TripBoatPricing{
			100: {{ID: 1, TripBoatID: 100, TicketType: "adult", PriceCents: 4500}},
		},
		tripMerch: map[uint64]*model.TripMerchandise{
			200: {ID: 200, TripID: 1, MerchandiseID: 20},
		},
		merch: map[uint64]*model.Merchandise{
			20: {ID: 20, ProviderID: 1, Name: "Launch Tee", PriceCents: 2500},
		},
		variations: map[uint64]*model.MerchandiseVariation{
			300: {ID: 300, MerchandiseID: 20, Value: "L", QuantityTotal: 50, QuantitySold: 12},
		},
		sold: make(map[uint64]int),
	}
}

func newTestService(catalog *fakeCatalog, store *fakeStore, gw *fakeGateway, pub *fakePublisher) *BookingService {
	svc := NewBookingService(catalog, store, gw, pub, 15*time.Minute, 50, 800)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func twoAdultsRequest() CreateBookingRequest {
	return CreateBookingRequest{
		FirstName: "Ada", LastName: "Moreno", Email: "ada@example.com",
		Tickets: []TicketRequest{{TripID: 1, BoatID: 10, TicketType: "adult", Quantity: 2}},
	}
}

// --- tests -----------------------------------------------------------------

func TestCreateDraftSnapshotsOverridePrice(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusDraft, b.Status)
	assert.Len(t, b.ConfirmationCode, 8)
	require.Len(t, b.Items, 1)
	assert.Equal(t, int64(4500), b.Items[0].PricePerUnit, "trip override price wins")
	assert.Equal(t, int64(9000), b.Subtotal)
	assert.Equal(t, int64(720), b.TaxAmount, "8% of subtotal")
	assert.Equal(t, int64(9720), b.TotalAmount)
	require.Len(t, store.holds, 1)
	assert.Equal(t, uint64(100), store.holds[0].TripBoatID)
	assert.Equal(t, 2, store.holds[0].Quantity)
}

func TestCreateDraftWithMerchandise(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	req := twoAdultsRequest()
	req.Merchandise = []MerchandiseRequest{{TripMerchandiseID: 200, VariationID: uint64Ptr(300), Quantity: 2}}
	b, err := svc.CreateDraft(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, b.Items, 2)
	assert.Equal(t, model.ItemKindMerchandise, b.Items[1].Kind)
	assert.Equal(t, int64(2500), b.Items[1].PricePerUnit)
	assert.Equal(t, "L", b.Items[1].VariantValue)
	assert.Equal(t, int64(9000+5000), b.Subtotal)
}

func TestCreateDraftRejectsEmpty(t *testing.T) {
	svc := newTestService(newTestCatalog(), newFakeStore(), newFakeGateway(), &fakePublisher{})
	_, err := svc.CreateDraft(context.Background(), CreateBookingRequest{})
	assert.ErrorIs(t, err, ErrEmptyBooking)
}

func TestCreateDraftRejectsInactiveTrip(t *testing.T) {
	catalog := newTestCatalog()
	catalog.trips[1].Active = false
	svc := newTestService(catalog, newFakeStore(), newFakeGateway(), &fakePublisher{})

	_, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	assert.ErrorIs(t, err, ErrTripNotOnSale)
}

func TestCreateDraftRejectsPrivateTrip(t *testing.T) {
	catalog := newTestCatalog()
	catalog.trips[1].BookingMode = model.BookingModePrivate
	svc := newTestService(catalog, newFakeStore(), newFakeGateway(), &fakePublisher{})

	_, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	assert.ErrorIs(t, err, ErrTripNotOnSale)
}

func TestCreateDraftBeforeSalesOpenDowngradesMode(t *testing.T) {
	catalog := newTestCatalog()
	open := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC) // after the fixed test clock
	catalog.trips[1].BookingMode = model.BookingModeEarlyBird
	catalog.trips[1].SalesOpenAt = &open
	svc := newTestService(catalog, newFakeStore(), newFakeGateway(), &fakePublisher{})

	// early_bird before sales open is effectively private
	_, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	assert.ErrorIs(t, err, ErrTripNotOnSale)
}

func TestCreateDraftRetriesOnConflict(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{model.ErrConflict, model.ErrConflict, nil}
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, store.createCalls)
	assert.NotZero(t, b.ID)
}

func TestCreateDraftGivesUpAfterBoundedConflicts(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{model.ErrConflict, model.ErrConflict, model.ErrConflict}
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	_, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, 3, store.createCalls)
}

func TestCreateDraftRegeneratesCodeOnCollision(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{model.ErrDuplicateConfirmationCode, nil}
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, store.createCalls)
	assert.NotEmpty(t, b.ConfirmationCode)
}

func TestCreateDraftUsesSuppliedCode(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	req := twoAdultsRequest()
	req.ConfirmationCode = "FAMILY-REUNION"
	b, err := svc.CreateDraft(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "FAMILY-REUNION", b.ConfirmationCode)
}

func TestCreateDraftSuppliedCodeCollisionNotRegenerated(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{model.ErrDuplicateConfirmationCode}
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	req := twoAdultsRequest()
	req.ConfirmationCode = "FAMILY-REUNION"
	_, err := svc.CreateDraft(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrDuplicateConfirmationCode)
	assert.Equal(t, 1, store.createCalls)
}

func TestCreateDraftCapacityExceededNotRetried(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{model.ErrCapacityExceeded}
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	_, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)
	assert.Equal(t, 1, store.createCalls)
}

func TestCreateDraftUnknownTicketType(t *testing.T) {
	svc := newTestService(newTestCatalog(), newFakeStore(), newFakeGateway(), &fakePublisher{})
	req := twoAdultsRequest()
	req.Tickets[0].TicketType = "veteran"
	_, err := svc.CreateDraft(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrUnknownTicketType)
}

func TestCreateDraftTripMerchandiseQuotaExhausted(t *testing.T) {
	catalog := newTestCatalog()
	catalog.tripMerch[200].QuantityOverride = intPtr(5)
	catalog.sold[200] = 4
	svc := newTestService(catalog, newFakeStore(), newFakeGateway(), &fakePublisher{})

	req := twoAdultsRequest()
	req.Merchandise = []MerchandiseRequest{{TripMerchandiseID: 200, Quantity: 2}}
	_, err := svc.CreateDraft(context.Background(), req)
	assert.ErrorIs(t, err, ErrMerchandiseSoldOut)
}

func TestStartPaymentFreeBookingConfirmsWithoutGateway(t *testing.T) {
	catalog := newTestCatalog()
	catalog.tripBoatPricing[100] = []model.TripBoatPricing{
		{ID: 1, TripBoatID: 100, TicketType: "adult", PriceCents: 0},
	}
	store := newFakeStore()
	gw := newFakeGateway()
	pub := &fakePublisher{}
	svc := newTestService(catalog, store, gw, pub)

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)
	require.Equal(t, int64(0), b.TotalAmount)

	session, err := svc.StartPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	assert.Nil(t, session.Intent)
	assert.Equal(t, model.BookingStatusConfirmed, session.Booking.Status)
	assert.Zero(t, gw.initCalls, "gateway must not be touched for free bookings")
	require.Len(t, pub.confirmed, 1)
	assert.Equal(t, b.ID, pub.confirmed[0].BookingID)
}

func TestStartPaymentCreatesIntent(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	svc := newTestService(newTestCatalog(), store, gw, &fakePublisher{})

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)

	session, err := svc.StartPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	require.NotNil(t, session.Intent)
	assert.Equal(t, b.TotalAmount, session.Intent.AmountCents)
	assert.Equal(t, model.BookingStatusPaymentPending, session.Booking.Status)
	assert.Equal(t, session.Intent.ID, session.Booking.PaymentIntentID)
}

func TestStartPaymentResumesExistingIntent(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	svc := newTestService(newTestCatalog(), store, gw, &fakePublisher{})

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)
	first, err := svc.StartPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)

	second, err := svc.StartPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, first.Intent.ID, second.Intent.ID, "retried checkout must reuse the intent")
	assert.Equal(t, 1, gw.initCalls)
}

func TestConfirmPaymentHappyPath(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	pub := &fakePublisher{}
	svc := newTestService(newTestCatalog(), store, gw, pub)

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)
	session, err := svc.StartPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	gw.intents[session.Intent.ID].Status = payment.IntentStatusSucceeded

	confirmed, err := svc.ConfirmPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, []uint64{b.ID}, store.confirmed)
	require.Len(t, pub.confirmed, 1)
	assert.Equal(t, b.ConfirmationCode, pub.confirmed[0].ConfirmationCode)
	assert.NotEmpty(t, pub.confirmed[0].EventID)
}

func TestConfirmPaymentRejectsUnpaidIntent(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	svc := newTestService(newTestCatalog(), store, gw, &fakePublisher{})

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)
	_, err = svc.StartPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), b.ConfirmationCode)
	assert.ErrorIs(t, err, ErrPaymentNotCompleted)
	assert.Empty(t, store.confirmed)
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	pub := &fakePublisher{}
	svc := newTestService(newTestCatalog(), store, gw, pub)

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)
	session, err := svc.StartPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	gw.intents[session.Intent.ID].Status = payment.IntentStatusSucceeded

	_, err = svc.ConfirmPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	again, err := svc.ConfirmPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, again.Status)
	assert.Len(t, store.confirmed, 1, "second confirm must not re-commit seats")
	assert.Len(t, pub.confirmed, 1, "second confirm must not re-publish")
}

func TestCancelPublishesEvent(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), pub)

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), b.ConfirmationCode, "customer request")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	require.Len(t, pub.cancelled, 1)
	assert.Equal(t, 2, pub.cancelled[0].SeatsReleased)
	assert.Equal(t, "customer request", pub.cancelled[0].Reason)
}

func TestCheckInFlow(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	svc := newTestService(newTestCatalog(), store, gw, &fakePublisher{})

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)
	session, err := svc.StartPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	gw.intents[session.Intent.ID].Status = payment.IntentStatusSucceeded
	_, err = svc.ConfirmPayment(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)

	checked, err := svc.CheckIn(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCheckedIn, checked.Status)

	reverted, err := svc.UndoCheckIn(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, reverted.Status)

	_, err = svc.CheckIn(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	done, err := svc.Complete(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, done.Status)

	_, err = svc.Cancel(context.Background(), b.ConfirmationCode, "too late")
	assert.ErrorIs(t, err, model.ErrInvalidStateTransition)
}

func TestCheckInRequiresConfirmed(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), b.ConfirmationCode)
	assert.ErrorIs(t, err, model.ErrInvalidStateTransition)
}

func TestAvailability(t *testing.T) {
	store := newFakeStore()
	store.counts[100] = map[string]model.SeatCount{
		"adult": {Used: 20, Held: 5},
		"child": {Used: 4},
	}
	svc := newTestService(newTestCatalog(), store, newFakeGateway(), &fakePublisher{})

	boats, err := svc.Availability(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, boats, 1)
	assert.Equal(t, 11, boats[0].Remaining, "40 capacity minus 29 taken")

	byType := make(map[string]TypeAvailability)
	for _, ta := range boats[0].Types {
		byType[ta.TicketType] = ta
	}
	assert.Equal(t, int64(4500), byType["adult"].PriceCents)
	assert.Equal(t, 11, byType["adult"].Remaining, "bounded by boat remaining")
	assert.Equal(t, 6, byType["child"].Remaining, "bounded by the child cap of 10")
}

func uint64Ptr(v uint64) *uint64 { return &v }

func TestErrorsSurfaceFromMissingEntities(t *testing.T) {
	svc := newTestService(newTestCatalog(), newFakeStore(), newFakeGateway(), &fakePublisher{})

	req := twoAdultsRequest()
	req.Tickets[0].TripID = 99
	_, err := svc.CreateDraft(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrTripNotFound)

	_, err = svc.Lookup(context.Background(), "NOPE1234")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestStartPaymentGatewayFailureLeavesDraft(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	gw.initErr = errors.New("gateway down")
	svc := newTestService(newTestCatalog(), store, gw, &fakePublisher{})

	b, err := svc.CreateDraft(context.Background(), twoAdultsRequest())
	require.NoError(t, err)

	_, err = svc.StartPayment(context.Background(), b.ConfirmationCode)
	require.Error(t, err)
	assert.Equal(t, model.BookingStatusDraft, store.bookings[b.ConfirmationCode].Status,
		"failed gateway call must not advance the booking")
}
