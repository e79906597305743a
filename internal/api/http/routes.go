package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weatherwave/internal/render"
	"github.com/i474232898/weatherwave/internal/session"
	"github.com/i474232898/weatherwave/internal/weather"
)

var validate = validator.New()

const (
	// oneShotTimeout bounds GET /weather/current.
	oneShotTimeout = 30 * time.Second
	// heartbeatInterval keeps event streams alive and detects gone clients.
	heartbeatInterval = 15 * time.Second
)

// RegisterRoutes wires the HTTP handlers into the Fiber app. newController
// builds the throwaway controller behind the one-shot endpoint.
func RegisterRoutes(app *fiber.App, sessions *session.Registry, newController session.Factory) {
	v1 := app.Group("/api/v1")

	v1.Post("/sessions", func(c *fiber.Ctx) error {
		id, _, err := sessions.Create()
		if err != nil {
			return sessionError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	})

	v1.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if err := sessions.Delete(c.Params("id")); err != nil {
			return sessionError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/sessions/:id/query", func(c *fiber.Ctx) error {
		var req queryRequest
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctrl, err := sessions.Get(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}
		ctrl.SubmitQuery(req.Location)
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Get("/sessions/:id/state", func(c *fiber.Ctx) error {
		ctrl, err := sessions.Get(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}
		view, err := render.NewView(ctrl.State())
		if err != nil {
			return err
		}
		return c.JSON(view)
	})

	v1.Get("/sessions/:id/events", func(c *fiber.Ctx) error {
		ctrl, err := sessions.Get(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}
		states, unsubscribe := ctrl.Subscribe()

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		// Params are only valid during the handler; the stream outlives it.
		id := strings.Clone(c.Params("id"))
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer unsubscribe()
			streamStates(w, states, heartbeatInterval, func() error {
				return sessions.Touch(id)
			})
		})
		return nil
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		location := strings.TrimSpace(c.Query("q"))
		if location == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}

		ctrl := newController()
		defer ctrl.Close()

		states, unsubscribe := ctrl.Subscribe()
		defer unsubscribe()
		ctrl.SubmitQuery(location)

		ctx, cancel := context.WithTimeout(c.UserContext(), oneShotTimeout)
		defer cancel()

		state, err := weather.Await(ctx, states)
		if err != nil {
			return fiber.NewError(fiber.StatusGatewayTimeout, "weather lookup did not complete")
		}
		view, err := render.NewView(state)
		if err != nil {
			return err
		}
		if view.Status == render.StatusError {
			return c.Status(fiber.StatusBadGateway).JSON(view)
		}
		return c.JSON(view)
	})
}

// streamStates writes each state as a server-sent event until the stream
// closes or the client goes away. touch runs on every event and heartbeat
// so a watched session is never swept as idle.
func streamStates(w *bufio.Writer, states <-chan weather.FetchState, interval time.Duration, touch func() error) {
	heartbeat := time.NewTicker(interval)
	defer heartbeat.Stop()

	for {
		select {
		case s, ok := <-states:
			if !ok {
				return
			}
			if err := touch(); err != nil {
				return
			}
			if err := writeEvent(w, "state", s); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := touch(); err != nil {
				return
			}
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w *bufio.Writer, event string, s weather.FetchState) error {
	view, err := render.NewView(s)
	if err != nil {
		return err
	}
	b, err := json.Marshal(view)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", b)
	return w.Flush()
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "unknown session")
	case errors.Is(err, session.ErrFull):
		return fiber.NewError(fiber.StatusServiceUnavailable, "too many sessions")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "session lookup failed")
	}
}

// queryRequest is the body of POST /sessions/:id/query.
type queryRequest struct {
	Location string `json:"location" validate:"required"`
}

func (q *queryRequest) bind(c *fiber.Ctx) error {
	if err := c.BodyParser(q); err != nil {
		return errors.New("body must be JSON with a location field")
	}
	q.Location = strings.TrimSpace(q.Location)
	return validate.Struct(q)
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
