package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/application/requests"
)

// RequestHandler pedidos de material (protegido).
type RequestHandler struct {
	uc *requests.RequestUseCase
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *requests.RequestUseCase) *RequestHandler {
	return &RequestHandler{uc: uc}
}

// Create godoc
// @Summary      Crear pedido de material
// @Description  Queda en estado pending. Si no se envía requesting_unit_id se usa la unidad del usuario.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.CreateRequestRequest  true  "item_id, quantity, urgency, observations"
// @Success      201  {object}  dto.RequestResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener pedido de material
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.RequestResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar pedidos de material
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "Estado"
// @Param        unit_id   query  string  false  "Unidad solicitante"
// @Param        batch_id  query  string  false  "Lote"
// @Param        limit     query  int     false  "Límite (default 20, máx 100)"
// @Param        offset    query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.RequestListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	var in dto.RequestListRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidQuery(c)
	}
	in.DefaultPage()
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Transition godoc
// @Summary      Aprobar o rechazar pedido de material
// @Description  Solo status approved o rejected. Aprobar con stock insuficiente procede y devuelve warnings.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del pedido"
// @Param        body  body  dto.TransitionRequestRequest  true  "status, reason"
// @Success      200  {object}  dto.RequestTransitionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [put]
func (h *RequestHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Transition(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// FurnitureHandler pedidos de mueble al diseñador (protegido).
type FurnitureHandler struct {
	uc *requests.FurnitureUseCase
}

// NewFurnitureHandler construye el handler.
func NewFurnitureHandler(uc *requests.FurnitureUseCase) *FurnitureHandler {
	return &FurnitureHandler{uc: uc}
}

// Create godoc
// @Summary      Crear pedido de mueble
// @Tags         furniture
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.CreateFurnitureRequestRequest  true  "item_id, description, designer_user_id, quantity"
// @Success      201  {object}  dto.FurnitureRequestResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/furniture-requests [post]
func (h *FurnitureHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateFurnitureRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener pedido de mueble
// @Tags         furniture
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.FurnitureRequestResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/furniture-requests/{id} [get]
func (h *FurnitureHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar pedidos de mueble
// @Tags         furniture
// @Security     Bearer
// @Produce      json
// @Param        status            query  string  false  "Estado"
// @Param        unit_id           query  string  false  "Unidad solicitante"
// @Param        designer_user_id  query  string  false  "Diseñador asignado"
// @Success      200  {object}  dto.FurnitureListResponse
// @Router       /api/furniture-requests [get]
func (h *FurnitureHandler) List(c *fiber.Ctx) error {
	var in dto.FurnitureListRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidQuery(c)
	}
	in.DefaultPage()
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Transition godoc
// @Summary      Avanzar pedido de mueble
// @Description  status approved_designer (diseñador), approved_storage (bodega) o rejected.
// @Tags         furniture
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del pedido"
// @Param        body  body  dto.TransitionRequestRequest  true  "status, reason"
// @Success      200  {object}  dto.FurnitureRequestResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/furniture-requests/{id} [put]
func (h *FurnitureHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Transition(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
