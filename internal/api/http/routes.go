package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/triage-trend/internal/features"
	"github.com/i474232898/triage-trend/internal/metrics"
	"github.com/i474232898/triage-trend/internal/predict"
)

var validate = validator.New()

// Predictor is the prediction use case served over HTTP.
type Predictor interface {
	Predict(ctx context.Context, date string) (predict.Result, error)
}

// Info describes the running service on /health.
type Info struct {
	Service string
	ModelID string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. m may be nil,
// in which case /metrics is not served.
func RegisterRoutes(app *fiber.App, svc Predictor, m *metrics.Metrics, info Info) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": info.Service,
			"model":   info.ModelID,
		})
	})

	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	app.Post("/predict", func(c *fiber.Ctx) error {
		var req predictRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := svc.Predict(c.UserContext(), req.Date)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(res)
	})
}

// predictRequest is the body of POST /predict.
type predictRequest struct {
	Date string `json:"date" validate:"required"`
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, predict.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, features.ErrSchemaMismatch):
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	case errors.Is(err, predict.ErrUpstreamUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "prediction failed")
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
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
