package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Despacho-api/pkg/logger"
)

// HTTPObserver recibe latencia y status de cada petición (lo implementa metrics.Prometheus).
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, seconds float64)
}

// RequestLogger registra cada petición en zerolog y alimenta las métricas HTTP si hay observer.
// Debe ir después de requestid para incluir el id de la petición.
func RequestLogger(log *logger.Logger, obs HTTPObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		route := c.Route().Path
		if obs != nil {
			obs.ObserveHTTP(c.Method(), route, status, latency.Seconds())
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error().Err(err)
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Str("route", route).
			Int("status", status).
			Dur("latency", latency).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("user_id", GetUserID(c)).
			Msg("http")
		return err
	}
}
