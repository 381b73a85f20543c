package delivery_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Despacho-api/internal/application/delivery"
	"github.com/jhoicas/Despacho-api/internal/application/dto"
	appinv "github.com/jhoicas/Despacho-api/internal/application/inventory"
	"github.com/jhoicas/Despacho-api/internal/application/requests"
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	th "github.com/jhoicas/Despacho-api/internal/testhelpers"
)

type fakeLabels struct {
	got *dto.BatchLabelData
}

func (f *fakeLabels) GenerateBatchLabel(d *dto.BatchLabelData) ([]byte, error) {
	f.got = d
	return []byte("%PDF-fake"), nil
}

type fixture struct {
	*th.TestHelper
	projector *appinv.Projector
	ledger    *appinv.LedgerUseCase
	material  *requests.RequestUseCase
	furniture *requests.FurnitureUseCase
	batches   *delivery.BatchUseCase
	labels    *fakeLabels
}

func setup(t *testing.T) *fixture {
	h := th.New(t)
	p := appinv.NewProjector(h.Runtime)
	labels := &fakeLabels{}
	return &fixture{
		TestHelper: h,
		projector:  p,
		ledger:     appinv.NewLedgerUseCase(h.Runtime, p),
		material:   requests.NewRequestUseCase(h.Runtime, p),
		furniture:  requests.NewFurnitureUseCase(h.Runtime),
		batches:    delivery.NewBatchUseCase(h.Runtime, p, h.Codes, labels),
		labels:     labels,
	}
}

func (f *fixture) stock(item string, qty int64) {
	f.T.Helper()
	_, err := f.ledger.RecordMovement(f.Ctx, f.Actor(th.UserWarehouse), dto.RecordMovementRequest{
		Type: "entry", ItemID: item, UnitID: th.UnitWarehouse, Quantity: decimal.NewFromInt(qty),
	})
	require.NoError(f.T, err)
}

// approved crea y aprueba un pedido de cemento de la unidad del solicitante.
func (f *fixture) approved(requester string, qty int64) string {
	f.T.Helper()
	r, err := f.material.Create(f.Ctx, f.Actor(requester), dto.CreateRequestRequest{
		ItemID: th.ItemCement, Quantity: decimal.NewFromInt(qty),
	})
	require.NoError(f.T, err)
	_, err = f.material.Approve(f.Ctx, f.Actor(th.UserWarehouse), r.ID)
	require.NoError(f.T, err)
	return r.ID
}

func (f *fixture) approvedFurniture(requester string) string {
	f.T.Helper()
	r, err := f.furniture.Create(f.Ctx, f.Actor(requester), dto.CreateFurnitureRequestRequest{
		ItemID: th.ItemDesk, Description: "escritorio para recepción", DesignerUserID: th.UserDesigner, Quantity: decimal.NewFromInt(1),
	})
	require.NoError(f.T, err)
	_, err = f.furniture.ApproveDesigner(f.Ctx, f.Actor(th.UserDesigner), r.ID)
	require.NoError(f.T, err)
	_, err = f.furniture.ApproveStorage(f.Ctx, f.Actor(th.UserWarehouse), r.ID)
	require.NoError(f.T, err)
	return r.ID
}

func (f *fixture) createBatch(ids ...string) *dto.BatchResponse {
	f.T.Helper()
	b, err := f.batches.CreateBatch(f.Ctx, f.Actor(th.UserWarehouse), dto.CreateBatchRequest{
		RequestIDs: ids, DriverUserID: th.UserDriver,
	})
	require.NoError(f.T, err)
	return b
}

func (f *fixture) request(id string) *dto.RequestResponse {
	f.T.Helper()
	r, err := f.material.Get(f.Ctx, f.Actor(th.UserAdmin), id)
	require.NoError(f.T, err)
	return r
}

func (f *fixture) warehouseQty(item string) string {
	f.T.Helper()
	s, err := f.projector.GetStock(f.Ctx, entity.StockKey{ItemID: item, UnitID: th.UnitWarehouse})
	require.NoError(f.T, err)
	return s.Quantity.String()
}

func (f *fixture) outMovements() []dto.MovementResponse {
	f.T.Helper()
	list, err := f.ledger.ListMovements(f.Ctx, dto.MovementListRequest{ItemID: th.ItemCement, PageRequest: dto.PageRequest{Limit: 100}})
	require.NoError(f.T, err)
	var out []dto.MovementResponse
	for _, m := range list.Items {
		if m.Type == string(entity.MovementOut) {
			out = append(out, m)
		}
	}
	return out
}

func TestEntregaCompleta_DeSeparacionARecepcion(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	reqID := f.approved(th.UserRequesterNorth, 4)

	b := f.createBatch(reqID)
	assert.Equal(t, string(entity.StatusPending), b.Status)
	assert.Equal(t, th.UnitNorth, b.TargetUnitID)
	assert.True(t, strings.HasPrefix(b.ScanCode, "ENT-261016-"), b.ScanCode)
	assert.Equal(t, string(entity.StatusProcessing), f.request(reqID).Status)

	sep, err := f.batches.Separate(f.Ctx, f.Actor(th.UserWarehouse), b.ID, reqID)
	require.NoError(t, err)
	assert.True(t, sep.Dispatched)
	assert.Equal(t, string(entity.StatusInTransit), sep.Batch.Status)
	assert.Equal(t, string(entity.StatusOutForDelivery), sep.Request.Status)
	assert.Equal(t, b.ScanCode, sep.Movement.Reference)
	assert.Equal(t, th.UnitWarehouse, sep.Movement.UnitID)
	assert.Equal(t, "6", f.warehouseQty(th.ItemCement))

	f.Clock.Advance(2 * time.Hour)
	conf, err := f.batches.ConfirmDelivery(f.Ctx, f.Actor(th.UserDriver), dto.ConfirmRequest{
		Type: "delivery", BatchID: b.ID, ReceiverUserID: th.UserRequesterNorth2, Code: f.Code(th.UserRequesterNorth2),
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusDeliveryConfirmed), conf.Batch.Status)
	assert.Equal(t, th.UserRequesterNorth2, conf.Confirmation.AttestedByUserID)

	// el lector entrega el código en minúsculas y con espacios
	rec, err := f.batches.ConfirmReceipt(f.Ctx, f.Actor(th.UserControllerNorth), dto.ConfirmRequest{
		Type: "receipt", ScanCode: " " + strings.ToLower(b.ScanCode) + " ",
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusCompleted), rec.Batch.Status)
	assert.NotNil(t, rec.Batch.CompletedAt)
	assert.Equal(t, string(entity.StatusCompleted), f.request(reqID).Status)

	// la salida no se duplica al completar
	outs := f.outMovements()
	require.Len(t, outs, 1)
	assert.Equal(t, reqID, outs[0].RequestID)
	assert.Equal(t, "6", f.warehouseQty(th.ItemCement))

	d, err := f.batches.Get(f.Ctx, f.Actor(th.UserControllerNorth), b.ID)
	require.NoError(t, err)
	assert.Len(t, d.Confirmations, 2)
	assert.Len(t, d.Requests, 1)
}

func TestCreateBatch_UnidadesDistintasNoCambiaNada(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	north := f.approved(th.UserRequesterNorth, 1)
	south := f.approved(th.UserRequesterSouth, 1)

	_, err := f.batches.CreateBatch(f.Ctx, f.Actor(th.UserWarehouse), dto.CreateBatchRequest{
		RequestIDs: []string{north, south}, DriverUserID: th.UserDriver,
	})
	require.ErrorIs(t, err, domain.ErrCrossUnitBatch)
	var cross *domain.CrossUnitBatchError
	require.ErrorAs(t, err, &cross)
	assert.Equal(t, south, cross.RequestID)
	assert.Equal(t, th.UnitNorth, cross.TargetUnitID)

	assert.Equal(t, string(entity.StatusApproved), f.request(north).Status)
	assert.Empty(t, f.request(north).BatchID)
	assert.Equal(t, string(entity.StatusApproved), f.request(south).Status)

	list, err := f.batches.List(f.Ctx, f.Actor(th.UserAdmin), dto.BatchListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestCreateBatch_Validaciones(t *testing.T) {
	f := setup(t)
	reqID := f.approved(th.UserRequesterNorth, 1)
	wh := f.Actor(th.UserWarehouse)

	_, err := f.batches.CreateBatch(f.Ctx, wh, dto.CreateBatchRequest{DriverUserID: th.UserDriver})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.batches.CreateBatch(f.Ctx, wh, dto.CreateBatchRequest{RequestIDs: []string{reqID}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "seleccione un conductor", verr.Message)

	_, err = f.batches.CreateBatch(f.Ctx, wh, dto.CreateBatchRequest{RequestIDs: []string{reqID}, DriverUserID: th.UserRequesterNorth})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el conductor debe tener rol conductor")

	_, err = f.batches.CreateBatch(f.Ctx, wh, dto.CreateBatchRequest{RequestIDs: []string{reqID, reqID}, DriverUserID: th.UserDriver})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.batches.CreateBatch(f.Ctx, f.Actor(th.UserDriver), dto.CreateBatchRequest{RequestIDs: []string{reqID}, DriverUserID: th.UserDriver})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	pending, err := f.material.Create(f.Ctx, f.Actor(th.UserRequesterNorth), dto.CreateRequestRequest{ItemID: th.ItemCement, Quantity: decimal.NewFromInt(1)})
	require.NoError(t, err)
	_, err = f.batches.CreateBatch(f.Ctx, wh, dto.CreateBatchRequest{RequestIDs: []string{reqID, pending.ID}, DriverUserID: th.UserDriver})
	assert.ErrorIs(t, err, domain.ErrConflict, "un pedido pendiente no entra al lote")
	assert.Equal(t, string(entity.StatusApproved), f.request(reqID).Status)

	f.createBatch(reqID)
	_, err = f.batches.CreateBatch(f.Ctx, wh, dto.CreateBatchRequest{RequestIDs: []string{reqID}, DriverUserID: th.UserDriver})
	assert.ErrorIs(t, err, domain.ErrConflict, "un pedido no está en dos lotes")
}

func TestCreateBatch_ColisionDeCodigoSeReintenta(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	first := f.approved(th.UserRequesterNorth, 1)
	second := f.approved(th.UserRequesterNorth, 1)

	f.batches.WithRandom(bytes.NewReader(make([]byte, 8)))
	b1 := f.createBatch(first)
	assert.Equal(t, "ENT-261016-00000000", b1.ScanCode)

	f.batches.WithRandom(bytes.NewReader(append(make([]byte, 8), bytes.Repeat([]byte{1}, 8)...)))
	b2 := f.createBatch(second)
	assert.Equal(t, "ENT-261016-11111111", b2.ScanCode)
	assert.Equal(t, 1, f.Metrics.Snapshot().Retries)
}

func TestSeparate_NoSeSeparaDosVeces(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	r1 := f.approved(th.UserRequesterNorth, 2)
	r2 := f.approved(th.UserRequesterNorth, 3)
	b := f.createBatch(r1, r2)
	wh := f.Actor(th.UserWarehouse)

	sep, err := f.batches.Separate(f.Ctx, wh, b.ID, r1)
	require.NoError(t, err)
	assert.False(t, sep.Dispatched)
	assert.Equal(t, string(entity.StatusPending), sep.Batch.Status)

	_, err = f.batches.Separate(f.Ctx, wh, b.ID, r1)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.outMovements(), 1)
	assert.Equal(t, "8", f.warehouseQty(th.ItemCement))

	other := f.approved(th.UserRequesterNorth, 1)
	_, err = f.batches.Separate(f.Ctx, wh, b.ID, other)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el pedido no es del lote")
}

func TestDispatch_TodoONada(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	r1 := f.approved(th.UserRequesterNorth, 2)
	r2 := f.approved(th.UserRequesterNorth, 3)
	b := f.createBatch(r1, r2)
	wh := f.Actor(th.UserWarehouse)

	_, err := f.batches.Separate(f.Ctx, wh, b.ID, r1)
	require.NoError(t, err)

	_, err = f.batches.Dispatch(f.Ctx, wh, b.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, string(entity.StatusAwaitingPickup), f.request(r1).Status)
	assert.Equal(t, string(entity.StatusProcessing), f.request(r2).Status)

	// sin todo separado tampoco se puede confirmar la entrega
	_, err = f.batches.ConfirmDelivery(f.Ctx, f.Actor(th.UserDriver), dto.ConfirmRequest{
		BatchID: b.ID, ReceiverUserID: th.UserRequesterNorth, Code: f.Code(th.UserRequesterNorth),
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	res, err := f.batches.Transition(f.Ctx, wh, b.ID, dto.TransitionBatchRequest{Action: dto.BatchActionSeparate, RequestID: r2})
	require.NoError(t, err)
	require.NotNil(t, res.Separation)
	assert.True(t, res.Separation.Dispatched)
	assert.Equal(t, string(entity.StatusInTransit), res.Batch.Status)
	assert.Equal(t, string(entity.StatusOutForDelivery), f.request(r1).Status)
	assert.Equal(t, string(entity.StatusOutForDelivery), f.request(r2).Status)

	_, err = f.batches.Dispatch(f.Ctx, wh, b.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "ya salió")
}

func TestConfirmDelivery_Restricciones(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	r := f.approved(th.UserRequesterNorth, 1)
	b := f.createBatch(r)
	_, err := f.batches.Separate(f.Ctx, f.Actor(th.UserWarehouse), b.ID, r)
	require.NoError(t, err)
	driver := f.Actor(th.UserDriver)

	_, err = f.batches.ConfirmDelivery(f.Ctx, driver, dto.ConfirmRequest{BatchID: b.ID, ReceiverUserID: th.UserRequesterNorth, Code: "000000"})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = f.batches.ConfirmDelivery(f.Ctx, driver, dto.ConfirmRequest{BatchID: b.ID, ReceiverUserID: th.UserRequesterSouth, Code: f.Code(th.UserRequesterSouth)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el receptor debe ser de la unidad destino")

	_, err = f.batches.ConfirmDelivery(f.Ctx, f.Actor(th.UserOtherDriver), dto.ConfirmRequest{BatchID: b.ID, ReceiverUserID: th.UserRequesterNorth, Code: f.Code(th.UserRequesterNorth)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// el código de ayer ya no sirve
	yesterday, err := f.Codes.Code(th.UserRequesterNorth, f.Clock.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	_, err = f.batches.ConfirmDelivery(f.Ctx, driver, dto.ConfirmRequest{BatchID: b.ID, ReceiverUserID: th.UserRequesterNorth, Code: yesterday})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	d, err := f.batches.Get(f.Ctx, f.Actor(th.UserAdmin), b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusInTransit), d.Batch.Status)
	assert.Empty(t, d.Confirmations)

	// recepción antes de que el conductor confirme o aplace
	_, err = f.batches.ConfirmReceipt(f.Ctx, f.Actor(th.UserControllerNorth), dto.ConfirmRequest{ScanCode: b.ScanCode})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.batches.ConfirmDelivery(f.Ctx, driver, dto.ConfirmRequest{ScanCode: b.ScanCode, ReceiverUserID: th.UserRequesterNorth, Code: f.Code(th.UserRequesterNorth)})
	require.NoError(t, err)
	_, err = f.batches.ConfirmDelivery(f.Ctx, driver, dto.ConfirmRequest{BatchID: b.ID, ReceiverUserID: th.UserRequesterNorth, Code: f.Code(th.UserRequesterNorth)})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestConfirmReceipt_SoloControladorDeLaUnidad(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	r := f.approved(th.UserRequesterNorth, 1)
	b := f.createBatch(r)
	_, err := f.batches.Separate(f.Ctx, f.Actor(th.UserWarehouse), b.ID, r)
	require.NoError(t, err)
	_, err = f.batches.DeferConfirmation(f.Ctx, f.Actor(th.UserDriver), b.ID, "no había nadie")
	require.NoError(t, err)

	_, err = f.batches.ConfirmReceipt(f.Ctx, f.Actor(th.UserControllerSouth), dto.ConfirmRequest{ScanCode: b.ScanCode})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.batches.ConfirmReceipt(f.Ctx, f.Actor(th.UserRequesterNorth), dto.ConfirmRequest{ScanCode: b.ScanCode})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.batches.ConfirmReceipt(f.Ctx, f.Actor(th.UserControllerNorth), dto.ConfirmRequest{ScanCode: "ENT-000000-XXXXXXXX"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res, err := f.batches.ConfirmReceipt(f.Ctx, f.Actor(th.UserControllerNorth), dto.ConfirmRequest{ScanCode: b.ScanCode})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusCompleted), res.Batch.Status)
	assert.Contains(t, res.Batch.Notes, "no había nadie")
}

func TestConfirmByRequester_AplazadoYConfirmacionesExtra(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	r := f.approved(th.UserRequesterNorth, 1)
	b := f.createBatch(r)
	_, err := f.batches.Separate(f.Ctx, f.Actor(th.UserWarehouse), b.ID, r)
	require.NoError(t, err)

	res, err := f.batches.Transition(f.Ctx, f.Actor(th.UserDriver), b.ID, dto.TransitionBatchRequest{Action: dto.BatchActionDeferConfirmation})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusPendingConfirmation), res.Batch.Status)

	req := f.Actor(th.UserRequesterNorth)
	_, err = f.batches.ConfirmByRequester(f.Ctx, req, dto.ConfirmRequest{BatchID: b.ID, Code: f.Code(th.UserRequesterNorth2)})
	assert.ErrorIs(t, err, domain.ErrInvalidCode, "cada uno confirma con su propio código")

	_, err = f.batches.ConfirmByRequester(f.Ctx, f.Actor(th.UserRequesterSouth), dto.ConfirmRequest{BatchID: b.ID, Code: f.Code(th.UserRequesterSouth)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	done, err := f.batches.Confirm(f.Ctx, req, dto.ConfirmRequest{Type: "requester", ScanCode: b.ScanCode, Code: f.Code(th.UserRequesterNorth)})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusCompleted), done.Batch.Status)
	assert.Equal(t, string(entity.StatusCompleted), f.request(r).Status)

	// sobre un lote completado solo se suma la confirmación, una por usuario
	_, err = f.batches.ConfirmByRequester(f.Ctx, f.Actor(th.UserRequesterNorth2), dto.ConfirmRequest{BatchID: b.ID, Code: f.Code(th.UserRequesterNorth2)})
	require.NoError(t, err)
	_, err = f.batches.ConfirmByRequester(f.Ctx, req, dto.ConfirmRequest{BatchID: b.ID, Code: f.Code(th.UserRequesterNorth)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	confs, err := f.batches.ListConfirmations(f.Ctx, f.Actor(th.UserAdmin), b.ID)
	require.NoError(t, err)
	assert.Len(t, confs, 2)
	assert.Len(t, f.outMovements(), 1)

	_, err = f.batches.Confirm(f.Ctx, req, dto.ConfirmRequest{Type: "otro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfirm_UsuarioInactivoNoConfirma(t *testing.T) {
	f := setup(t)
	f.Dir.AddUser(entity.User{ID: "u-baja", Name: "Dado de baja", UnitID: th.UnitNorth, Role: entity.RoleRequester, Active: false})
	f.stock(th.ItemCement, 10)
	r := f.approved(th.UserRequesterNorth, 1)
	b := f.createBatch(r)
	_, err := f.batches.Separate(f.Ctx, f.Actor(th.UserWarehouse), b.ID, r)
	require.NoError(t, err)

	_, err = f.batches.ConfirmDelivery(f.Ctx, f.Actor(th.UserDriver), dto.ConfirmRequest{
		BatchID: b.ID, ReceiverUserID: "u-baja", Code: f.Code("u-baja"),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "receiver_user_id", verr.Field)

	_, err = f.batches.DeferConfirmation(f.Ctx, f.Actor(th.UserDriver), b.ID, "")
	require.NoError(t, err)
	_, err = f.batches.ConfirmByRequester(f.Ctx, f.Actor("u-baja"), dto.ConfirmRequest{BatchID: b.ID, Code: f.Code("u-baja")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	d, err := f.batches.Get(f.Ctx, f.Actor(th.UserAdmin), b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusPendingConfirmation), d.Batch.Status)
	assert.Empty(t, d.Confirmations)
}

func TestBatchSoloMuebles_SaleDeInmediato(t *testing.T) {
	f := setup(t)
	desk := f.approvedFurniture(th.UserRequesterNorth)

	b, err := f.batches.CreateBatch(f.Ctx, f.Actor(th.UserWarehouse), dto.CreateBatchRequest{
		FurnitureRequestIDs: []string{desk}, DriverUserID: th.UserDriver,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusInTransit), b.Status)
	assert.NotNil(t, b.DispatchedAt)

	fr, err := f.furniture.Get(f.Ctx, f.Actor(th.UserAdmin), desk)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusInTransit), fr.Status)
	assert.Equal(t, b.ID, fr.BatchID)

	_, err = f.batches.ConfirmDelivery(f.Ctx, f.Actor(th.UserDriver), dto.ConfirmRequest{BatchID: b.ID, ReceiverUserID: th.UserControllerNorth, Code: f.Code(th.UserControllerNorth)})
	require.NoError(t, err)
	_, err = f.batches.ConfirmReceipt(f.Ctx, f.Actor(th.UserControllerNorth), dto.ConfirmRequest{ScanCode: b.ScanCode})
	require.NoError(t, err)

	fr, err = f.furniture.Get(f.Ctx, f.Actor(th.UserAdmin), desk)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusCompleted), fr.Status)
	assert.Empty(t, f.outMovements(), "los muebles no tocan el libro")
}

func TestBatchMixto_EsperaSeparacionDelMaterial(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	desk := f.approvedFurniture(th.UserRequesterNorth)
	r := f.approved(th.UserRequesterNorth, 2)

	b, err := f.batches.CreateBatch(f.Ctx, f.Actor(th.UserWarehouse), dto.CreateBatchRequest{
		RequestIDs: []string{r}, FurnitureRequestIDs: []string{desk}, DriverUserID: th.UserDriver,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusPending), b.Status)

	sep, err := f.batches.Separate(f.Ctx, f.Actor(th.UserWarehouse), b.ID, r)
	require.NoError(t, err)
	assert.True(t, sep.Dispatched)

	fr, err := f.furniture.Get(f.Ctx, f.Actor(th.UserAdmin), desk)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusInTransit), fr.Status)
}

func TestSeparate_Concurrente(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	r := f.approved(th.UserRequesterNorth, 3)
	b := f.createBatch(r)

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, conf int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.batches.Separate(f.Ctx, f.Actor(th.UserWarehouse), b.ID, r)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, domain.ErrConflict):
				conf++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conf)
	assert.Len(t, f.outMovements(), 1)
	assert.Equal(t, "7", f.warehouseQty(th.ItemCement))
}

func TestGetAndList_Visibilidad(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	b := f.createBatch(f.approved(th.UserRequesterNorth, 1))

	_, err := f.batches.Get(f.Ctx, f.Actor(th.UserRequesterSouth), b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.batches.Get(f.Ctx, f.Actor(th.UserOtherDriver), b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	d, err := f.batches.GetByScanCode(f.Ctx, f.Actor(th.UserDriver), strings.ToLower(b.ScanCode))
	require.NoError(t, err)
	assert.Equal(t, b.ID, d.Batch.ID)

	list, err := f.batches.List(f.Ctx, f.Actor(th.UserOtherDriver), dto.BatchListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	list, err = f.batches.List(f.Ctx, f.Actor(th.UserControllerNorth), dto.BatchListRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestLabel_UsaNombresDelDirectorio(t *testing.T) {
	f := setup(t)
	f.stock(th.ItemCement, 10)
	b := f.createBatch(f.approved(th.UserRequesterNorth, 4))

	pdf, err := f.batches.Label(f.Ctx, f.Actor(th.UserWarehouse), b.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	require.NotNil(t, f.labels.got)
	assert.Equal(t, b.ScanCode, f.labels.got.ScanCode)
	assert.Equal(t, "Sede norte", f.labels.got.TargetUnitName)
	assert.Equal(t, "Conductor", f.labels.got.DriverName)
	require.Len(t, f.labels.got.Lines, 1)
	assert.Equal(t, "Cemento gris 50kg", f.labels.got.Lines[0].ItemName)
	assert.Equal(t, "4", f.labels.got.Lines[0].Quantity.String())
}
