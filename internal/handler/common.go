package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"tourboat-booking/internal/model"
	"tourboat-booking/internal/repository"
	"tourboat-booking/internal/service"
)

// parseID parses a numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// parseQueryID parses a numeric query parameter value.
func parseQueryID(v string) (uint64, error) {
	return strconv.ParseUint(v, 10, 64)
}

// fail maps a domain error to an HTTP response.  Unrecognized errors become
// an opaque 500; the cause is left for the request logger.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrProviderNotFound),
		errors.Is(err, repository.ErrBoatNotFound),
		errors.Is(err, repository.ErrTripNotFound),
		errors.Is(err, repository.ErrTripBoatNotFound),
		errors.Is(err, repository.ErrPricingNotFound),
		errors.Is(err, repository.ErrMerchandiseNotFound),
		errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "capacity exceeded"})
	case errors.Is(err, model.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "concurrent update, try again"})
	case errors.Is(err, model.ErrInvalidStateTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid state transition"})
	case errors.Is(err, repository.ErrInUse):
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource is in use"})
	case errors.Is(err, model.ErrDuplicateConfirmationCode):
		return c.JSON(http.StatusConflict, echo.Map{"error": "confirmation code already exists"})
	case errors.Is(err, service.ErrMerchandiseSoldOut):
		return c.JSON(http.StatusConflict, echo.Map{"error": "merchandise sold out"})
	case errors.Is(err, service.ErrTripNotOnSale):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "trip is not on sale"})
	case errors.Is(err, service.ErrPaymentNotCompleted):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment not completed"})
	case errors.Is(err, model.ErrUnknownTicketType),
		errors.Is(err, model.ErrPricingNotConfigured),
		errors.Is(err, model.ErrReassignmentMappingIncomplete),
		errors.Is(err, model.ErrInvalidAmounts),
		errors.Is(err, service.ErrEmptyBooking),
		errors.Is(err, service.ErrSameBoat):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
