// Package codes expone el código diario de identidad de cada usuario.
package codes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/pkg/dailycode"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

// CodeUseCase consulta y validación del código diario.
type CodeUseCase struct {
	gen *dailycode.Generator
	dir ports.Directory
	now func() time.Time
	log *logger.Logger
}

// NewCodeUseCase construye el caso de uso de códigos diarios.
func NewCodeUseCase(rt ports.Runtime, gen *dailycode.Generator) *CodeUseCase {
	rt = rt.WithDefaults()
	return &CodeUseCase{gen: gen, dir: rt.Directory, now: rt.Now, log: rt.Log.Component("codes")}
}

// Code código vigente del usuario. Cada uno ve el suyo; admin puede ver el de cualquiera.
func (uc *CodeUseCase) Code(ctx context.Context, actor entity.Actor, userID string) (*dto.DailyCodeResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && actor.Role != entity.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if _, err := uc.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	now := uc.now()
	code, err := uc.gen.Code(userID, now)
	if err != nil {
		return nil, err
	}
	return &dto.DailyCodeResponse{UserID: userID, Code: code, Day: uc.gen.Day(now)}, nil
}

// Validate comprueba el código presentado por un usuario. Lo usan conductores y controladores
// antes de entregar; un código inválido no es un error sino Valid=false.
func (uc *CodeUseCase) Validate(ctx context.Context, actor entity.Actor, in dto.ValidateCodeRequest) (*dto.ValidateCodeResponse, error) {
	if !actor.HasRole(entity.RoleDriver, entity.RoleController, entity.RoleWarehouse) {
		return nil, domain.ErrForbidden
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "indique el usuario")
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, domain.NewValidationError("code", "el código es obligatorio")
	}
	if _, err := uc.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	now := uc.now()
	valid := uc.gen.Validate(userID, code, now)
	if !valid {
		uc.log.Warn().Str("user", userID).Str("by", actor.UserID).Msg("código diario inválido")
	}
	return &dto.ValidateCodeResponse{UserID: userID, Day: uc.gen.Day(now), Valid: valid}, nil
}

func (uc *CodeUseCase) activeUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := uc.dir.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("user_id", "el usuario no existe")
		}
		return nil, err
	}
	if !u.Active {
		return nil, domain.NewValidationError("user_id", "el usuario no está activo")
	}
	return u, nil
}
