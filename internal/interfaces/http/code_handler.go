package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Despacho-api/internal/application/codes"
	"github.com/jhoicas/Despacho-api/internal/application/dto"
)

// CodeHandler códigos diarios de identidad (protegido).
type CodeHandler struct {
	uc *codes.CodeUseCase
}

// NewCodeHandler construye el handler.
func NewCodeHandler(uc *codes.CodeUseCase) *CodeHandler {
	return &CodeHandler{uc: uc}
}

// Me godoc
// @Summary      Código diario vigente
// @Description  Cada usuario consulta el suyo; admin puede pedir el de otro con user_id.
// @Tags         codes
// @Security     Bearer
// @Produce      json
// @Param        user_id  query  string  false  "Usuario (solo admin)"
// @Success      200  {object}  dto.DailyCodeResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/codes/me [get]
func (h *CodeHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.Code(c.UserContext(), GetActor(c), c.Query("user_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Validate godoc
// @Summary      Validar código diario de un usuario
// @Tags         codes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateCodeRequest  true  "user_id, code"
// @Success      200  {object}  dto.ValidateCodeResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/codes/validate [post]
func (h *CodeHandler) Validate(c *fiber.Ctx) error {
	var in dto.ValidateCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Validate(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
