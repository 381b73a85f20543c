package requests_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	appinv "github.com/jhoicas/Despacho-api/internal/application/inventory"
	"github.com/jhoicas/Despacho-api/internal/application/requests"
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/infrastructure/memory"
	th "github.com/jhoicas/Despacho-api/internal/testhelpers"
)

type fixture struct {
	*th.TestHelper
	ledger    *appinv.LedgerUseCase
	material  *requests.RequestUseCase
	furniture *requests.FurnitureUseCase
}

func setup(t *testing.T) *fixture {
	h := th.New(t)
	p := appinv.NewProjector(h.Runtime)
	return &fixture{
		TestHelper: h,
		ledger:     appinv.NewLedgerUseCase(h.Runtime, p),
		material:   requests.NewRequestUseCase(h.Runtime, p),
		furniture:  requests.NewFurnitureUseCase(h.Runtime),
	}
}

func (f *fixture) stockWarehouse(qty int64) {
	f.T.Helper()
	_, err := f.ledger.RecordMovement(f.Ctx, f.Actor(th.UserWarehouse), dto.RecordMovementRequest{
		Type: "entry", ItemID: th.ItemCement, UnitID: th.UnitWarehouse, Quantity: decimal.NewFromInt(qty),
	})
	require.NoError(f.T, err)
}

func (f *fixture) newRequest(qty int64) *dto.RequestResponse {
	f.T.Helper()
	r, err := f.material.Create(f.Ctx, f.Actor(th.UserRequesterNorth), dto.CreateRequestRequest{
		ItemID: th.ItemCement, Quantity: decimal.NewFromInt(qty), Urgency: "high",
	})
	require.NoError(f.T, err)
	return r
}

func TestCreate_PendingConUnidadDelActor(t *testing.T) {
	f := setup(t)
	r := f.newRequest(5)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, string(entity.StatusPending), r.Status)
	assert.Equal(t, th.UnitNorth, r.RequestingUnitID)
	assert.Equal(t, th.UserRequesterNorth, r.RequestedByUserID)
	assert.Equal(t, "high", r.Urgency)
}

func TestCreate_Validaciones(t *testing.T) {
	f := setup(t)
	req := f.Actor(th.UserRequesterNorth)

	_, err := f.material.Create(f.Ctx, req, dto.CreateRequestRequest{ItemID: th.ItemCement, Quantity: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.material.Create(f.Ctx, req, dto.CreateRequestRequest{ItemID: th.ItemCement, Quantity: decimal.RequireFromString("0.00001")})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr, "la columna guarda cuatro decimales")
	assert.Equal(t, "quantity", verr.Field)

	_, err = f.material.Create(f.Ctx, req, dto.CreateRequestRequest{ItemID: th.ItemDesk, Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "los muebles van por el otro flujo")

	_, err = f.material.Create(f.Ctx, req, dto.CreateRequestRequest{ItemID: th.ItemCement, Quantity: decimal.NewFromInt(1), Urgency: "ya"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.material.Create(f.Ctx, req, dto.CreateRequestRequest{ItemID: th.ItemCement, Quantity: decimal.NewFromInt(1), RequestingUnitID: th.UnitSouth})
	assert.ErrorIs(t, err, domain.ErrForbidden, "no se pide para otra unidad")

	_, err = f.material.Create(f.Ctx, f.Actor(th.UserDriver), dto.CreateRequestRequest{ItemID: th.ItemCement, Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApprove_ConStockSuficienteSinAdvertencia(t *testing.T) {
	f := setup(t)
	f.stockWarehouse(10)
	r := f.newRequest(5)

	res, err := f.material.Approve(f.Ctx, f.Actor(th.UserWarehouse), r.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusApproved), res.Request.Status)
	assert.Equal(t, th.UserWarehouse, res.Request.ApprovedBy)
	require.NotNil(t, res.Request.ApprovedAt)
	assert.Empty(t, res.Warnings)
}

// La aprobación con stock insuficiente es una política blanda: aprueba y advierte.
func TestApprove_StockInsuficienteAdvierte(t *testing.T) {
	f := setup(t)
	f.stockWarehouse(2)
	r := f.newRequest(5)

	res, err := f.material.Approve(f.Ctx, f.Actor(th.UserWarehouse), r.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusApproved), res.Request.Status)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "INSUFFICIENT_STOCK", res.Warnings[0].Code)
	assert.True(t, res.Warnings[0].Available.Equal(decimal.NewFromInt(2)))
	assert.True(t, res.Warnings[0].Requested.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 1, f.Metrics.Snapshot().InsufficientStockN)
}

func TestApprove_SoloBodegaYSoloDesdePending(t *testing.T) {
	f := setup(t)
	r := f.newRequest(1)

	_, err := f.material.Approve(f.Ctx, f.Actor(th.UserRequesterNorth), r.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.material.Approve(f.Ctx, f.Actor(th.UserWarehouse), r.ID)
	require.NoError(t, err)
	_, err = f.material.Approve(f.Ctx, f.Actor(th.UserWarehouse), r.ID)
	var sc *domain.StateConflictError
	require.ErrorAs(t, err, &sc)
	assert.Equal(t, string(entity.StatusApproved), sc.Current)

	_, err = f.material.Approve(f.Ctx, f.Actor(th.UserWarehouse), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReject_MotivoObligatorioYTerminal(t *testing.T) {
	f := setup(t)
	r := f.newRequest(1)
	wh := f.Actor(th.UserWarehouse)

	_, err := f.material.Reject(f.Ctx, wh, r.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	got, err := f.material.Get(f.Ctx, wh, r.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusPending), got.Status, "la validación no cambia estado")

	res, err := f.material.Reject(f.Ctx, wh, r.ID, "sin presupuesto")
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusRejected), res.Request.Status)
	assert.Equal(t, "sin presupuesto", res.Request.RejectionReason)

	_, err = f.material.Approve(f.Ctx, wh, r.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTransition_EmbudoPUT(t *testing.T) {
	f := setup(t)
	r := f.newRequest(1)
	wh := f.Actor(th.UserWarehouse)

	_, err := f.material.Transition(f.Ctx, wh, r.ID, dto.TransitionRequestRequest{Status: "processing"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "processing es automático")

	res, err := f.material.Transition(f.Ctx, wh, r.ID, dto.TransitionRequestRequest{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Request.Status)

	res, err = f.material.Transition(f.Ctx, wh, r.ID, dto.TransitionRequestRequest{Status: "rejected", Reason: "duplicado"})
	require.NoError(t, err)
	assert.Equal(t, "rejected", res.Request.Status, "approved todavía admite rechazo")
}

// Dos aprobadores a la vez: uno gana y el otro ve el conflicto de estado.
func TestApprove_Concurrente(t *testing.T) {
	f := setup(t)
	r := f.newRequest(1)
	wh := f.Actor(th.UserWarehouse)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.material.Approve(f.Ctx, wh, r.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, conflicts)
}

func TestApprove_ConflictoDeVersionSeReintenta(t *testing.T) {
	f := setup(t)
	r := f.newRequest(1)
	f.Store.InjectFault(memory.OpRequestUpdate, 1, domain.ErrVersionConflict)

	res, err := f.material.Approve(f.Ctx, f.Actor(th.UserWarehouse), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Request.Status)
	assert.Equal(t, 1, f.Metrics.Snapshot().Retries)
}

func TestGetList_AlcancePorUnidad(t *testing.T) {
	f := setup(t)
	r := f.newRequest(1)
	_, err := f.material.Create(f.Ctx, f.Actor(th.UserRequesterSouth), dto.CreateRequestRequest{
		ItemID: th.ItemPaint, Quantity: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	_, err = f.material.Get(f.Ctx, f.Actor(th.UserRequesterSouth), r.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := f.material.List(f.Ctx, f.Actor(th.UserRequesterSouth), dto.RequestListRequest{UnitID: th.UnitNorth})
	require.NoError(t, err)
	require.Len(t, list.Items, 1, "el filtro de unidad se fuerza a la del actor")
	assert.Equal(t, th.UnitSouth, list.Items[0].RequestingUnitID)

	all, err := f.material.List(f.Ctx, f.Actor(th.UserWarehouse), dto.RequestListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestFurniture_DosCompuertas(t *testing.T) {
	f := setup(t)
	fr, err := f.furniture.Create(f.Ctx, f.Actor(th.UserRequesterNorth), dto.CreateFurnitureRequestRequest{
		ItemID: th.ItemDesk, Description: "escritorio para recepción", Quantity: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusPendingDesigner), fr.Status)

	_, err = f.furniture.ApproveStorage(f.Ctx, f.Actor(th.UserWarehouse), fr.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "almacén no aprueba antes que diseño")

	out, err := f.furniture.ApproveDesigner(f.Ctx, f.Actor(th.UserDesigner), fr.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusApprovedDesigner), out.Status)
	assert.Equal(t, th.UserDesigner, out.DesignerApprovedBy)
	assert.Equal(t, th.UserDesigner, out.DesignerUserID)

	out, err = f.furniture.ApproveStorage(f.Ctx, f.Actor(th.UserWarehouse), fr.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusApprovedStorage), out.Status)
	require.NotNil(t, out.StorageApprovedAt)

	_, err = f.furniture.Reject(f.Ctx, f.Actor(th.UserWarehouse), fr.ID, "tarde")
	assert.ErrorIs(t, err, domain.ErrConflict, "rechazo solo en las dos primeras etapas")
}

func TestFurniture_RechazoYValidaciones(t *testing.T) {
	f := setup(t)
	req := f.Actor(th.UserRequesterNorth)

	_, err := f.furniture.Create(f.Ctx, req, dto.CreateFurnitureRequestRequest{ItemID: th.ItemCement, Description: "x", Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el ítem debe ser un mueble")
	_, err = f.furniture.Create(f.Ctx, req, dto.CreateFurnitureRequestRequest{ItemID: th.ItemDesk, Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "descripción obligatoria")
	_, err = f.furniture.Create(f.Ctx, req, dto.CreateFurnitureRequestRequest{ItemID: th.ItemDesk, Description: "x", DesignerUserID: th.UserDriver, Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el asignado debe ser diseñador")

	fr, err := f.furniture.Create(f.Ctx, req, dto.CreateFurnitureRequestRequest{
		ItemID: th.ItemDesk, Description: "silla", DesignerUserID: th.UserDesigner, Quantity: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	_, err = f.furniture.Reject(f.Ctx, f.Actor(th.UserWarehouse), fr.ID, "no")
	assert.ErrorIs(t, err, domain.ErrForbidden, "en pending_designer rechaza el diseñador")

	out, err := f.furniture.Transition(f.Ctx, f.Actor(th.UserDesigner), fr.ID, dto.TransitionRequestRequest{Status: "rejected", Reason: "fuera de catálogo"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusRejected), out.Status)
	assert.Equal(t, th.UserDesigner, out.RejectedBy)

	list, err := f.furniture.List(f.Ctx, f.Actor(th.UserDesigner), dto.FurnitureListRequest{Status: "rejected"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}
