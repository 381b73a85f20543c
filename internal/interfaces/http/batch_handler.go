package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Despacho-api/internal/application/delivery"
	"github.com/jhoicas/Despacho-api/internal/application/dto"
)

// BatchHandler lotes de entrega y confirmaciones (protegido).
type BatchHandler struct {
	uc *delivery.BatchUseCase
}

// NewBatchHandler construye el handler.
func NewBatchHandler(uc *delivery.BatchUseCase) *BatchHandler {
	return &BatchHandler{uc: uc}
}

// Create godoc
// @Summary      Crear lote de entrega
// @Description  Todos los pedidos deben ir a la misma unidad. Pedidos de material aprobados pasan a processing;
// @Description  un lote solo de muebles sale de inmediato.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.CreateBatchRequest  true  "request_ids, furniture_request_ids, driver_user_id"
// @Success      201  {object}  dto.BatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.CreateBatch(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener lote con sus pedidos y confirmaciones
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchDetailResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByScanCode godoc
// @Summary      Buscar lote por código de escaneo
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código de escaneo (ENT-AAMMDD-XXXXXXXX)"
// @Success      200  {object}  dto.BatchDetailResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/scan/{code} [get]
func (h *BatchHandler) GetByScanCode(c *fiber.Ctx) error {
	out, err := h.uc.GetByScanCode(c.UserContext(), GetActor(c), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar lotes
// @Description  Conductores ven solo sus lotes; solicitantes y controladores los de su unidad.
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        status          query  string  false  "Estado"
// @Param        driver_user_id  query  string  false  "Conductor"
// @Param        target_unit_id  query  string  false  "Unidad destino"
// @Param        limit           query  int     false  "Límite (default 20, máx 100)"
// @Param        offset          query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.BatchListResponse
// @Router       /api/batches [get]
func (h *BatchHandler) List(c *fiber.Ctx) error {
	var in dto.BatchListRequest
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
// @Summary      Avanzar lote
// @Description  action: separate (request_id), dispatch, confirm_delivery (receiver_user_id, code), defer_confirmation.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del lote"
// @Param        body  body  dto.TransitionBatchRequest  true  "action y sus datos"
// @Success      200  {object}  dto.BatchTransitionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [put]
func (h *BatchHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionBatchRequest
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

// Label godoc
// @Summary      Rótulo imprimible del lote
// @Description  PDF con QR y código de barras del código de escaneo y la lista de ítems.
// @Tags         batches
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/label [get]
func (h *BatchHandler) Label(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.uc.Label(c.UserContext(), GetActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="lote-`+id+`.pdf"`)
	return c.Send(pdf)
}

// ListConfirmations godoc
// @Summary      Confirmaciones de un lote
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {array}   dto.ConfirmationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/confirmations [get]
func (h *BatchHandler) ListConfirmations(c *fiber.Ctx) error {
	out, err := h.uc.ListConfirmations(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Confirm godoc
// @Summary      Registrar confirmación de entrega
// @Description  type delivery (conductor, con receptor y su código del día), receipt (controlador de la unidad
// @Description  destino, por código de escaneo) o requester (solicitante o controlador con su propio código).
// @Tags         confirmations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.ConfirmRequest  true  "type, batch_id o scan_code, receiver_user_id, code"
// @Success      201  {object}  dto.ConfirmResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/confirmations [post]
func (h *BatchHandler) Confirm(c *fiber.Ctx) error {
	var in dto.ConfirmRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Confirm(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
