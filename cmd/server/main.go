package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"tourboat-booking/internal/config"
	"tourboat-booking/internal/database"
	"tourboat-booking/internal/handler"
	"tourboat-booking/internal/payment"
	"tourboat-booking/internal/queue"
	"tourboat-booking/internal/repository"
	"tourboat-booking/internal/router"
	"tourboat-booking/internal/service"
	"tourboat-booking/internal/worker"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Env == "prod" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logrus.Warn("redis unavailable, caching and rate limiting disabled")
	}

	store := repository.NewStore(db)
	boats := repository.NewBoatRepo(db)
	trips := repository.NewTripRepo(db)
	merch := repository.NewMerchandiseRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	gateway := payment.NewStripeClient(cfg.StripeBaseURL, cfg.StripeSecretKey, cfg.Currency)
	publisher := service.NewAMQPPublisher(cfg.RabbitURL)

	bookings := service.NewBookingService(store, store, gateway, publisher,
		time.Duration(cfg.HoldTTLMin)*time.Minute, cfg.MinChargeableCents, cfg.TaxRateBps)
	reassign := service.NewReassignmentService(store, store)

	// background: expired draft cleanup and event consumption
	sweeper := worker.NewHoldSweeper(store, time.Duration(cfg.SweepIntervalSec)*time.Second, 0)
	go sweeper.Start(context.Background())
	go func() {
		if err := queue.StartBookingConsumer(cfg.RabbitURL); err != nil {
			logrus.WithError(err).Warn("booking event consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewBrowseHandler(trips, merch, bookings),
		handler.NewBookingHandler(bookings),
		rdb)
	router.RegisterAdmin(e, router.AdminHandlers{
		Catalog:  handler.NewCatalogHandler(boats, merch),
		Trips:    handler.NewTripHandler(trips, merch, bookings, reassign),
		Bookings: handler.NewBookingAdminHandler(bookings, bookingRepo),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
