package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/application/inventory"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// InventoryHandler maneja el libro de movimientos y la consulta de stock (protegido).
type InventoryHandler struct {
	ledger    *inventory.LedgerUseCase
	projector *inventory.Projector
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, projector *inventory.Projector) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, projector: projector}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  El servidor asigna id y fecha; la proyección de stock se actualiza en la misma petición.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.RecordMovementRequest  true  "type (entry|consumption|loan|return|out), item_id, unit_id, quantity"
// @Success      201   {object}  dto.RecordMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.ledger.RecordMovement(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Consultar el libro de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id    query  string  false  "Ítem"
// @Param        unit_id    query  string  false  "Unidad"
// @Param        reference  query  string  false  "Referencia (código de escaneo del lote)"
// @Param        limit      query  int     false  "Límite (default 20, máx 100)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var in dto.MovementListRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidQuery(c)
	}
	in.DefaultPage()
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.ledger.ListMovements(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Stock de un ítem en una unidad
// @Description  Si la fila quedó desactualizada respecto al libro se repara antes de responder.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        itemId  path  string  true  "Ítem"
// @Param        unitId  path  string  true  "Unidad"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock/{itemId}/{unitId} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	key := entity.StockKey{ItemID: c.Params("itemId"), UnitID: c.Params("unitId")}
	out, err := h.projector.GetStock(c.UserContext(), key)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListStock godoc
// @Summary      Stock de una unidad
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        unit_id  query  string  false  "Unidad (por defecto la del usuario)"
// @Success      200  {object}  dto.StockListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock [get]
func (h *InventoryHandler) ListStock(c *fiber.Ctx) error {
	unitID := c.Query("unit_id", GetUnitID(c))
	if unitID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "unit_id es obligatorio"})
	}
	out, err := h.projector.ListByUnit(c.UserContext(), unitID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// OverrideStock godoc
// @Summary      Ajuste manual de una fila de stock
// @Description  Mínimo y ubicación se editan directo. Un cambio de cantidad se registra como movimiento compensatorio.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la fila de stock"
// @Param        body  body  dto.OverrideStockRequest  true  "quantity, minimum_quantity, location"
// @Success      200  {object}  dto.OverrideStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [put]
func (h *InventoryHandler) OverrideStock(c *fiber.Ctx) error {
	var in dto.OverrideStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.ledger.OverrideStock(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
