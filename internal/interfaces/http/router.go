package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Despacho-api/internal/application/codes"
	"github.com/jhoicas/Despacho-api/internal/application/delivery"
	"github.com/jhoicas/Despacho-api/internal/application/inventory"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/application/requests"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger         *inventory.LedgerUseCase
	Projector      *inventory.Projector
	Requests       *requests.RequestUseCase
	Furniture      *requests.FurnitureUseCase
	Batches        *delivery.BatchUseCase
	Codes          *codes.CodeUseCase
	Idempotency    ports.IdempotencyStore
	IdempotencyTTL time.Duration
	JWTSecret      string
	Log            *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token; RequireRole filtra las rutas
// de un solo perfil y el resto de permisos los decide cada caso de uso.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	api := app.Group("/api",
		AuthMiddleware(deps.JWTSecret),
		IdempotencyMiddleware(deps.Idempotency, deps.IdempotencyTTL, deps.Log),
	)

	// Libro de movimientos y stock
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Projector)
	api.Post("/movements", inventoryHandler.RecordMovement)
	api.Get("/movements", inventoryHandler.ListMovements)
	api.Get("/stock", inventoryHandler.ListStock)
	api.Get("/stock/:itemId/:unitId", inventoryHandler.GetStock)
	api.Put("/stock/:id", RequireRole(entity.RoleWarehouse), inventoryHandler.OverrideStock)

	// Pedidos de material
	requestsGroup := api.Group("/requests")
	requestHandler := NewRequestHandler(deps.Requests)
	requestsGroup.Post("/", requestHandler.Create)
	requestsGroup.Get("/", requestHandler.List)
	requestsGroup.Get("/:id", requestHandler.GetByID)
	requestsGroup.Put("/:id", requestHandler.Transition)

	// Pedidos de mueble
	furnitureGroup := api.Group("/furniture-requests")
	furnitureHandler := NewFurnitureHandler(deps.Furniture)
	furnitureGroup.Post("/", furnitureHandler.Create)
	furnitureGroup.Get("/", furnitureHandler.List)
	furnitureGroup.Get("/:id", furnitureHandler.GetByID)
	furnitureGroup.Put("/:id", furnitureHandler.Transition)

	// Lotes de entrega
	batches := api.Group("/batches")
	batchHandler := NewBatchHandler(deps.Batches)
	batches.Post("/", RequireRole(entity.RoleWarehouse), batchHandler.Create)
	batches.Get("/", batchHandler.List)
	batches.Get("/scan/:code", batchHandler.GetByScanCode)
	batches.Get("/:id", batchHandler.GetByID)
	batches.Put("/:id", batchHandler.Transition)
	batches.Get("/:id/label", batchHandler.Label)
	batches.Get("/:id/confirmations", batchHandler.ListConfirmations)

	api.Post("/confirmations", batchHandler.Confirm)

	// Códigos diarios
	codesGroup := api.Group("/codes")
	codeHandler := NewCodeHandler(deps.Codes)
	codesGroup.Get("/me", codeHandler.Me)
	codesGroup.Post("/validate", RequireRole(entity.RoleDriver, entity.RoleController, entity.RoleWarehouse), codeHandler.Validate)
}
