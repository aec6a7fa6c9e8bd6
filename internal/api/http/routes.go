package httpapi

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weather-proxy/internal/weather"
)

var validate = validator.New()

// maxCoordinateDecimals bounds the precision of inbound coordinates.
const maxCoordinateDecimals = 6

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/v1")

	v1.Get("/current", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.CurrentWeather(c.Context(), q.Lat, q.Lon)
		if err != nil {
			var failure *weather.Failure
			if errors.As(err, &failure) {
				return fiber.NewError(statusForFailure(failure.Kind), failure.Message)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}

		return c.JSON(report)
	})
}

// coordsQuery holds the resolved request coordinates.
type coordsQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func parseCoordinates(c *fiber.Ctx) (coordsQuery, error) {
	var q coordsQuery

	lat, err := resolveAlias(c.Queries(), "lat", "latitude")
	if err != nil {
		return q, err
	}
	lon, err := resolveAlias(c.Queries(), "lon", "longitude")
	if err != nil {
		return q, err
	}

	if n := decimalPlaces(lat); n > maxCoordinateDecimals {
		return q, fmt.Errorf("latitude precision must not exceed %d decimal places, got %d", maxCoordinateDecimals, n)
	}
	if n := decimalPlaces(lon); n > maxCoordinateDecimals {
		return q, fmt.Errorf("longitude precision must not exceed %d decimal places, got %d", maxCoordinateDecimals, n)
	}

	q.Lat = lat
	q.Lon = lon
	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

func statusForFailure(kind weather.FailureKind) int {
	switch kind {
	case weather.FailureGatewayTimeout:
		return fiber.StatusGatewayTimeout
	case weather.FailureBadGateway:
		return fiber.StatusBadGateway
	case weather.FailureUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
