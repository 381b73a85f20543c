// Package requests casos de uso de pedidos de material y de mueble (compuertas de aprobación).
// Las transiciones de entrega (procesar, separar, despachar, completar) las hace el lote.
package requests

import (
	"context"
	"errors"
	"strings"

	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

// StockReader lectura verificada de stock (la implementa el proyector).
type StockReader interface {
	Current(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error)
}

// scopedToUnit roles que solo ven los pedidos de su unidad.
func scopedToUnit(actor entity.Actor) bool {
	return actor.Role == entity.RoleRequester || actor.Role == entity.RoleController
}

// resolveUnit unidad solicitante: la del actor salvo que un admin indique otra.
func resolveUnit(ctx context.Context, dir ports.Directory, actor entity.Actor, requested string) (string, error) {
	unitID := strings.TrimSpace(requested)
	if unitID == "" {
		unitID = actor.UnitID
	}
	if unitID != actor.UnitID && actor.Role != entity.RoleAdmin {
		return "", domain.ErrForbidden
	}
	if unitID == "" {
		return "", domain.NewValidationError("requesting_unit_id", "la unidad solicitante es obligatoria")
	}
	if _, err := dir.GetUnit(ctx, unitID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.NewValidationError("requesting_unit_id", "la unidad no existe")
		}
		return "", err
	}
	return unitID, nil
}

func logTransition(log *logger.Logger, m ports.Metrics, entityName, id string, from, to entity.Status, actor string) {
	m.Transition(entityName, string(to))
	log.Info().Str("entity", entityName).Str("id", id).Str("from", string(from)).
		Str("to", string(to)).Str("actor", actor).Msg("transición")
}

func requireReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", domain.NewValidationError("reason", "el motivo del rechazo es obligatorio")
	}
	return reason, nil
}
