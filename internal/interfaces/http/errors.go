package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/domain"
)

// errorStatus traduce un error de los casos de uso a status HTTP y código.
// ReconciliationNeeded se evalúa primero: el hecho quedó registrado pero nunca se responde 2xx.
func errorStatus(err error) (int, string) {
	var validation *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrReconciliationNeeded):
		return fiber.StatusInternalServerError, "RECONCILIATION_NEEDED"
	case errors.As(err, &validation), errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInvalidCode):
		return fiber.StatusUnprocessableEntity, "INVALID_CODE"
	case errors.Is(err, domain.ErrCrossUnitBatch):
		return fiber.StatusUnprocessableEntity, "CROSS_UNIT_BATCH"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrVersionConflict):
		return fiber.StatusConflict, "STATE_CONFLICT"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// respondError escribe dto.ErrorResponse. Los 5xx no exponen el detalle interno salvo la reconciliación.
func respondError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	msg := err.Error()
	if code == "INTERNAL" {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func invalidQuery(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de consulta inválidos"})
}
