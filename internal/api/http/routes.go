package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-timeline/internal/store"
	"github.com/i474232898/weather-timeline/internal/weather"
)

var validate = validator.New()

const (
	chatTimeout    = 30 * time.Second
	narrateTimeout = 20 * time.Second

	askForCity = "Please tell me which city you'd like the weather for."
)

// Service is what the handlers need from the weather service.
type Service interface {
	Resolve(ctx context.Context, message string) (weather.Report, error)
	Narrate(ctx context.Context, in weather.BriefingInput) (string, error)
	GetLatest(loc weather.Location) (weather.Report, error)
	GetRange(loc weather.Location, from, to time.Time) ([]weather.Report, error)
}

// ErrorHandler is the central error response for the Fiber app.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Weather Chat API is running"})
	})

	app.Post("/chat", func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.Message = strings.TrimSpace(req.Message)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), chatTimeout)
		defer cancel()

		report, err := service.Resolve(ctx, req.Message)
		if err != nil {
			return c.JSON(fiber.Map{"response": chatError(req.Message, err)})
		}
		return c.JSON(fiber.Map{"response": report})
	})

	app.Post("/narrate", func(c *fiber.Ctx) error {
		var req narrateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), narrateTimeout)
		defer cancel()

		briefing, err := service.Narrate(ctx, *req.WeatherData)
		if err != nil {
			log.Printf("ERROR: narrate failed for %s: %v", req.WeatherData.City, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": err.Error()})
		}
		return c.JSON(fiber.Map{"briefing": briefing})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		locReq, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := locReq.toLocation()
		report, err := service.GetLatest(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(report)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Location.toLocation()
		reports, err := service.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"from":     req.From,
			"to":       req.To,
			"reports":  reports,
		})
	})
}

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

type narrateRequest struct {
	WeatherData *weather.BriefingInput `json:"weather_data" validate:"required"`
}

// chatError renders a failed query the way /chat answers: a bare string when
// there is nothing to look up, an error object otherwise.
func chatError(message string, err error) any {
	city := weather.ExtractLocation(message)
	switch {
	case errors.Is(err, weather.ErrEmptyQuery):
		return askForCity
	case errors.Is(err, weather.ErrLocationNotFound):
		return fiber.Map{"error": fmt.Sprintf("Could not find location: %s", city)}
	default:
		log.Printf("ERROR: chat query %q failed: %v", message, err)
		return fiber.Map{"error": fmt.Sprintf("Error retrieving weather data for %s: %v", city, err)}
	}
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	City    string `validate:"required"`
	Country string
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		City:    l.City,
		Country: l.Country,
	}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	q.City = c.Query("city")
	q.Country = c.Query("country")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
