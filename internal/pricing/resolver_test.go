package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourboat-booking/internal/model"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestResolveTicketBoatDefault(t *testing.T) {
	boat := &model.Boat{ID: 1, Capacity: 40}
	tb := &model.TripBoat{ID: 10, BoatID: 1}
	defaults := []model.BoatPricing{{BoatID: 1, TicketType: "adult", PriceCents: 2000}}

	r, err := ResolveTicket(tb, boat, defaults, nil, "adult")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), r.PriceCents)
	assert.Equal(t, 40, r.Capacity)
	assert.Equal(t, SourceBoatDefault, r.Source)
}

func TestResolveTicketOverrideWins(t *testing.T) {
	boat := &model.Boat{ID: 1, Capacity: 40}
	tb := &model.TripBoat{ID: 10, BoatID: 1}
	defaults := []model.BoatPricing{{BoatID: 1, TicketType: "adult", PriceCents: 2000, Capacity: intPtr(30)}}
	overrides := []model.TripBoatPricing{{TripBoatID: 10, TicketType: "adult", PriceCents: 2500}}

	r, err := ResolveTicket(tb, boat, defaults, overrides, "adult")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), r.PriceCents)
	// Override leaves capacity unset, so the boat default's cap still binds.
	assert.Equal(t, 30, r.Capacity)
	assert.Equal(t, SourceTripOverride, r.Source)
}

func TestResolveTicketDefaultCapStillBindsUnderOverride(t *testing.T) {
	boat := &model.Boat{ID: 1, Capacity: 40}
	tb := &model.TripBoat{ID: 10, BoatID: 1}
	defaults := []model.BoatPricing{{BoatID: 1, TicketType: "adult", PriceCents: 2000, Capacity: intPtr(10)}}
	overrides := []model.TripBoatPricing{{TripBoatID: 10, TicketType: "adult", PriceCents: 2500, Capacity: intPtr(20)}}

	r, err := ResolveTicket(tb, boat, defaults, overrides, "adult")
	require.NoError(t, err)
	// A looser override never widens the boat default's cap: min(20, 10, 40).
	assert.Equal(t, 10, r.Capacity)

	// The override still tightens when it is the smaller of the two.
	overrides[0].Capacity = intPtr(6)
	r, err = ResolveTicket(tb, boat, defaults, overrides, "adult")
	require.NoError(t, err)
	assert.Equal(t, 6, r.Capacity)
}

func TestResolveTicketExclusiveMode(t *testing.T) {
	boat := &model.Boat{ID: 1, Capacity: 40}
	tb := &model.TripBoat{ID: 10, BoatID: 1, UseOnlyTripPricing: true}
	defaults := []model.BoatPricing{
		{BoatID: 1, TicketType: "adult", PriceCents: 2000},
		{BoatID: 1, TicketType: "child", PriceCents: 1000},
	}
	overrides := []model.TripBoatPricing{{TripBoatID: 10, TicketType: "adult", PriceCents: 3000}}

	r, err := ResolveTicket(tb, boat, defaults, overrides, "adult")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), r.PriceCents)

	// A boat default for "child" exists but must not leak through.
	_, err = ResolveTicket(tb, boat, defaults, overrides, "child")
	assert.ErrorIs(t, err, model.ErrUnknownTicketType)
}

func TestResolveTicketNotConfigured(t *testing.T) {
	boat := &model.Boat{ID: 1, Capacity: 40}
	tb := &model.TripBoat{ID: 10, BoatID: 1}

	_, err := ResolveTicket(tb, boat, nil, nil, "senior")
	assert.ErrorIs(t, err, model.ErrPricingNotConfigured)
}

func TestEffectiveBoatCapacity(t *testing.T) {
	boat := &model.Boat{Capacity: 40}

	assert.Equal(t, 40, EffectiveBoatCapacity(&model.TripBoat{}, boat))
	assert.Equal(t, 25, EffectiveBoatCapacity(&model.TripBoat{MaxCapacity: intPtr(25)}, boat))
	// An override looser than the hull capacity is ignored.
	assert.Equal(t, 40, EffectiveBoatCapacity(&model.TripBoat{MaxCapacity: intPtr(90)}, boat))
}

func TestResolveTicketCapacityChain(t *testing.T) {
	boat := &model.Boat{ID: 1, Capacity: 40}
	tb := &model.TripBoat{ID: 10, BoatID: 1, MaxCapacity: intPtr(35)}
	defaults := []model.BoatPricing{{BoatID: 1, TicketType: "adult", PriceCents: 2000, Capacity: intPtr(38)}}
	overrides := []model.TripBoatPricing{{TripBoatID: 10, TicketType: "adult", PriceCents: 2200, Capacity: intPtr(36)}}

	r, err := ResolveTicket(tb, boat, defaults, overrides, "adult")
	require.NoError(t, err)
	// min(override 36, trip boat 35, boat 40) = 35.
	assert.Equal(t, 35, r.Capacity)
}

func TestSellableTypes(t *testing.T) {
	boat := &model.Boat{ID: 1, Capacity: 40}
	defaults := []model.BoatPricing{
		{BoatID: 1, TicketType: "adult", PriceCents: 2000},
		{BoatID: 1, TicketType: "child", PriceCents: 1000},
	}
	overrides := []model.TripBoatPricing{{TripBoatID: 10, TicketType: "adult", PriceCents: 2500}}

	layered := SellableTypes(&model.TripBoat{ID: 10, BoatID: 1}, boat, defaults, overrides)
	require.Len(t, layered, 2)
	assert.Equal(t, "adult", layered[0].TicketType)
	assert.Equal(t, int64(2500), layered[0].PriceCents)
	assert.Equal(t, "child", layered[1].TicketType)

	exclusive := SellableTypes(&model.TripBoat{ID: 10, BoatID: 1, UseOnlyTripPricing: true}, boat, defaults, overrides)
	require.Len(t, exclusive, 1)
	assert.Equal(t, "adult", exclusive[0].TicketType)
}

func TestResolveMerchandise(t *testing.T) {
	item := &model.Merchandise{ID: 1, PriceCents: 1500}
	variation := &model.MerchandiseVariation{MerchandiseID: 1, Value: "M", QuantityTotal: 20, QuantitySold: 5}

	plain := ResolveMerchandise(item, &model.TripMerchandise{MerchandiseID: 1}, variation)
	assert.Equal(t, int64(1500), plain.PriceCents)
	assert.Equal(t, 15, plain.Available)

	tm := &model.TripMerchandise{MerchandiseID: 1, PriceOverride: int64Ptr(1200), QuantityOverride: intPtr(10)}
	overridden := ResolveMerchandise(item, tm, variation)
	assert.Equal(t, int64(1200), overridden.PriceCents)
	assert.Equal(t, 10, overridden.Available)
}
