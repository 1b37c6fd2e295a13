package router

import (
	"github.com/labstack/echo/v4"

	"tourboat-booking/internal/handler"
	"tourboat-booking/internal/middleware"
)

// AdminHandlers bundles the handler set mounted under /v1/admin.
type AdminHandlers struct {
	Catalog  *handler.CatalogHandler
	Trips    *handler.TripHandler
	Bookings *handler.BookingAdminHandler
}

// RegisterAdmin registers the operator console endpoints.  Everything under
// /v1/admin requires a valid access token with the OPERATOR role.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, jwtSecret string) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OPERATOR"),
	)

	// providers and boats
	g.POST("/providers", h.Catalog.CreateProvider)
	g.GET("/providers", h.Catalog.ListProviders)
	g.POST("/boats", h.Catalog.CreateBoat)
	g.GET("/boats", h.Catalog.ListBoats)
	g.GET("/boats/:id", h.Catalog.GetBoat)
	g.PUT("/boats/:id", h.Catalog.UpdateBoat)
	g.DELETE("/boats/:id", h.Catalog.DeleteBoat)
	g.POST("/boats/:id/pricing", h.Catalog.CreateBoatPricing)
	g.PUT("/boats/:id/pricing/:pricingID", h.Catalog.UpdateBoatPricing)
	g.DELETE("/boats/:id/pricing/:pricingID", h.Catalog.DeleteBoatPricing)

	// merchandise catalog
	g.POST("/merchandise", h.Catalog.CreateMerchandise)
	g.GET("/merchandise/:id", h.Catalog.GetMerchandise)
	g.PUT("/merchandise/:id", h.Catalog.UpdateMerchandise)
	g.DELETE("/merchandise/:id", h.Catalog.DeleteMerchandise)
	g.POST("/merchandise/:id/variations", h.Catalog.CreateVariation)
	g.PUT("/merchandise/:id/variations/:variationID", h.Catalog.UpdateVariation)

	// trips, boat assignments and trip-level pricing
	g.POST("/trips", h.Trips.CreateTrip)
	g.GET("/trips", h.Trips.ListTrips)
	g.GET("/trips/:id", h.Trips.GetTrip)
	g.PUT("/trips/:id", h.Trips.UpdateTrip)
	g.DELETE("/trips/:id", h.Trips.DeleteTrip)
	g.POST("/trips/:id/boats", h.Trips.AttachBoat)
	g.PUT("/trips/:id/boats/:tripBoatID", h.Trips.UpdateTripBoat)
	g.DELETE("/trips/:id/boats/:tripBoatID", h.Trips.DetachBoat)
	g.POST("/trips/:id/boats/:tripBoatID/pricing", h.Trips.CreateTripBoatPricing)
	g.PUT("/trips/:id/boats/:tripBoatID/pricing/:pricingID", h.Trips.UpdateTripBoatPricing)
	g.DELETE("/trips/:id/boats/:tripBoatID/pricing/:pricingID", h.Trips.DeleteTripBoatPricing)
	g.POST("/trips/:id/merchandise", h.Trips.OfferMerchandise)
	g.PUT("/trips/:id/merchandise/:tripMerchID", h.Trips.UpdateTripMerchandise)
	g.DELETE("/trips/:id/merchandise/:tripMerchID", h.Trips.RemoveTripMerchandise)
	g.POST("/trips/:id/reassign", h.Trips.ReassignPassengers)

	// booking lifecycle from the operator side
	g.GET("/trips/:id/bookings", h.Bookings.ListByTrip)
	g.GET("/bookings/:code", h.Bookings.Get)
	g.POST("/bookings/:code/check-in", h.Bookings.CheckIn)
	g.DELETE("/bookings/:code/check-in", h.Bookings.UndoCheckIn)
	g.POST("/bookings/:code/complete", h.Bookings.Complete)
	g.POST("/bookings/:code/cancel", h.Bookings.Cancel)
}
