package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

// Cabeceras de idempotencia.
const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIdempotentReplay  = "Idempotent-Replay"
	maxIdempotencyKeyLength = 128
)

// IdempotencyMiddleware guarda la primera respuesta de cada POST con Idempotency-Key y la repite
// ante reintentos del mismo usuario. La clave se limita al usuario, método y ruta.
// Las respuestas 5xx no se guardan para que el cliente pueda reintentar.
// Debe usarse DESPUÉS de AuthMiddleware.
func IdempotencyMiddleware(store ports.IdempotencyStore, ttl time.Duration, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if store == nil || c.Method() != fiber.MethodPost {
			return c.Next()
		}
		key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLength {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: HeaderIdempotencyKey + " demasiado largo"})
		}
		scoped := GetUserID(c) + ":" + c.Method() + ":" + c.Path() + ":" + key
		ctx := c.UserContext()

		if stored, ok, err := store.Get(ctx, scoped); err != nil {
			log.Error().Err(err).Str("key", key).Msg("idempotencia: lectura")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo verificar la clave de idempotencia"})
		} else if ok {
			return replay(c, stored)
		}

		reserved, err := store.Reserve(ctx, scoped, ttl)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("idempotencia: reserva")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo verificar la clave de idempotencia"})
		}
		if !reserved {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "REQUEST_IN_PROGRESS", Message: "hay una petición en curso con la misma " + HeaderIdempotencyKey})
		}
		defer func() {
			if err := store.Release(ctx, scoped); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("idempotencia: liberar reserva")
			}
		}()

		if err := c.Next(); err != nil {
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		resp := ports.StoredResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Save(ctx, scoped, resp, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("idempotencia: guardar respuesta")
		}
		return nil
	}
}

func replay(c *fiber.Ctx, stored *ports.StoredResponse) error {
	c.Set(HeaderIdempotentReplay, "true")
	if stored.ContentType != "" {
		c.Set(fiber.HeaderContentType, stored.ContentType)
	}
	return c.Status(stored.Status).Send(stored.Body)
}
