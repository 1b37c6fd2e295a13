package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"tourboat-booking/internal/config"
	"tourboat-booking/internal/handler"
	"tourboat-booking/internal/middleware"
)

// RegisterPublic registers the customer-facing endpoints: trip browsing and
// the whole booking flow.  No authentication is applied; the rate limiter
// guards the write endpoints and the response cache covers the read-heavy
// availability lookups.  Both degrade to no-ops when rdb is nil.
func RegisterPublic(e *echo.Echo, browse *handler.BrowseHandler, booking *handler.BookingHandler, rdb *redis.Client) {
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	g := e.Group("/v1", limit)

	g.GET("/trips", browse.ListTrips, cache)
	g.GET("/trips/:id", browse.GetTrip, cache)
	g.GET("/trips/:id/availability", browse.GetAvailability, cache)

	g.POST("/bookings", booking.Create)
	g.GET("/bookings/:code", booking.Get)
	g.POST("/bookings/:code/payment", booking.StartPayment)
	g.POST("/bookings/:code/confirm", booking.ConfirmPayment)
	g.POST("/bookings/:code/cancel", booking.Cancel)
}
