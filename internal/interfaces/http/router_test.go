package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Despacho-api/internal/application/codes"
	"github.com/jhoicas/Despacho-api/internal/application/delivery"
	"github.com/jhoicas/Despacho-api/internal/application/dto"
	appinv "github.com/jhoicas/Despacho-api/internal/application/inventory"
	"github.com/jhoicas/Despacho-api/internal/application/requests"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Despacho-api/internal/interfaces/http"
	th "github.com/jhoicas/Despacho-api/internal/testhelpers"
	pkgjwt "github.com/jhoicas/Despacho-api/pkg/jwt"
)

type pdfStub struct{}

func (pdfStub) GenerateBatchLabel(*dto.BatchLabelData) ([]byte, error) {
	return []byte("%PDF-1.7 stub"), nil
}

type api struct {
	*th.TestHelper
	app *fiber.App
}

func newAPI(t *testing.T) *api {
	h := th.New(t)
	p := appinv.NewProjector(h.Runtime)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:         appinv.NewLedgerUseCase(h.Runtime, p),
		Projector:      p,
		Requests:       requests.NewRequestUseCase(h.Runtime, p),
		Furniture:      requests.NewFurnitureUseCase(h.Runtime),
		Batches:        delivery.NewBatchUseCase(h.Runtime, p, h.Codes, pdfStub{}),
		Codes:          codes.NewCodeUseCase(h.Runtime, h.Codes),
		Idempotency:    memory.NewIdempotencyStore(nil),
		IdempotencyTTL: time.Hour,
		JWTSecret:      testJWTSecret,
	})
	return &api{TestHelper: h, app: app}
}

// call hace la petición como el usuario sembrado indicado y devuelve status, cabeceras y cuerpo.
func (a *api) call(method, path, userID string, body any, headers ...string) (int, http.Header, []byte) {
	a.T.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.T, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		actor := a.Actor(userID)
		tok, err := pkgjwt.Generate(testJWTSecret, actor.UserID, actor.UnitID, actor.Role, testIssuer, testExpMin)
		require.NoError(a.T, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.T, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.T, err)
	return resp.StatusCode, resp.Header, raw
}

func (a *api) decode(raw []byte, out any) {
	a.T.Helper()
	require.NoError(a.T, json.Unmarshal(raw, out), string(raw))
}

func (a *api) errorCode(raw []byte) string {
	a.T.Helper()
	var e dto.ErrorResponse
	a.decode(raw, &e)
	return e.Code
}

func (a *api) entry(item string, qty string) {
	a.T.Helper()
	status, _, raw := a.call(http.MethodPost, "/api/movements", th.UserWarehouse, map[string]any{
		"type": "entry", "item_id": item, "unit_id": th.UnitWarehouse, "quantity": qty,
	})
	require.Equal(a.T, http.StatusCreated, status, string(raw))
}

func (a *api) approvedRequest(requester, qty string) string {
	a.T.Helper()
	status, _, raw := a.call(http.MethodPost, "/api/requests", requester, map[string]any{
		"item_id": th.ItemCement, "quantity": qty, "urgency": "high",
	})
	require.Equal(a.T, http.StatusCreated, status, string(raw))
	var r dto.RequestResponse
	a.decode(raw, &r)

	status, _, raw = a.call(http.MethodPut, "/api/requests/"+r.ID, th.UserWarehouse, map[string]any{"status": "approved"})
	require.Equal(a.T, http.StatusOK, status, string(raw))
	return r.ID
}

func TestMovimientos_RegistroYConsultaDeStock(t *testing.T) {
	a := newAPI(t)
	status, _, raw := a.call(http.MethodPost, "/api/movements", th.UserWarehouse, map[string]any{
		"type": "entry", "item_id": th.ItemCement, "unit_id": th.UnitWarehouse, "quantity": "12.5",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var rec dto.RecordMovementResponse
	a.decode(raw, &rec)
	assert.NotZero(t, rec.Movement.ID)
	assert.Equal(t, th.UserWarehouse, rec.Movement.UserID)
	assert.Equal(t, "12.5", rec.Stock.Quantity.String())

	status, _, raw = a.call(http.MethodGet, "/api/stock/"+th.ItemCement+"/"+th.UnitWarehouse, th.UserRequesterNorth, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var st dto.StockResponse
	a.decode(raw, &st)
	assert.Equal(t, "12.5", st.Quantity.String())

	status, _, raw = a.call(http.MethodGet, "/api/stock?unit_id="+th.UnitWarehouse, th.UserWarehouse, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var list dto.StockListResponse
	a.decode(raw, &list)
	require.Len(t, list.Items, 1)

	status, _, raw = a.call(http.MethodGet, "/api/movements?item_id="+th.ItemCement, th.UserWarehouse, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var movs dto.MovementListResponse
	a.decode(raw, &movs)
	assert.Len(t, movs.Items, 1)
	assert.Equal(t, 20, movs.Page.Limit)
}

func TestMovimientos_ErroresMapeados(t *testing.T) {
	a := newAPI(t)

	status, _, raw := a.call(http.MethodPost, "/api/movements", th.UserWarehouse, map[string]any{
		"type": "robo", "item_id": th.ItemCement, "unit_id": th.UnitWarehouse, "quantity": "1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", a.errorCode(raw))

	status, _, raw = a.call(http.MethodPost, "/api/movements", th.UserRequesterNorth, map[string]any{
		"type": "entry", "item_id": th.ItemCement, "unit_id": th.UnitNorth, "quantity": "1",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", a.errorCode(raw))

	status, _, raw = a.call(http.MethodPost, "/api/movements", th.UserWarehouse, map[string]any{
		"type": "entry", "item_id": "no-existe", "unit_id": th.UnitWarehouse, "quantity": "1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", a.errorCode(raw))

	status, _, raw = a.call(http.MethodGet, "/api/stock?unit_id=no-existe", th.UserWarehouse, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", a.errorCode(raw))

	req := httptest.NewRequest(http.MethodPost, "/api/movements", strings.NewReader("{no es json"))
	req.Header.Set("Content-Type", "application/json")
	actor := a.Actor(th.UserWarehouse)
	tok, err := pkgjwt.Generate(testJWTSecret, actor.UserID, actor.UnitID, actor.Role, testIssuer, testExpMin)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	status, _, _ = a.call(http.MethodGet, "/api/movements", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestIdempotencyKey_RepiteLaPrimeraRespuesta(t *testing.T) {
	a := newAPI(t)
	body := map[string]any{"item_id": th.ItemCement, "quantity": "3"}

	status1, h1, raw1 := a.call(http.MethodPost, "/api/requests", th.UserRequesterNorth, body, apphttp.HeaderIdempotencyKey, "pedido-001")
	require.Equal(t, http.StatusCreated, status1, string(raw1))
	assert.Empty(t, h1.Get(apphttp.HeaderIdempotentReplay))

	status2, h2, raw2 := a.call(http.MethodPost, "/api/requests", th.UserRequesterNorth, body, apphttp.HeaderIdempotencyKey, "pedido-001")
	assert.Equal(t, http.StatusCreated, status2)
	assert.Equal(t, "true", h2.Get(apphttp.HeaderIdempotentReplay))
	assert.JSONEq(t, string(raw1), string(raw2))

	// la misma clave de otro usuario es otra petición
	status3, _, raw3 := a.call(http.MethodPost, "/api/requests", th.UserRequesterNorth2, body, apphttp.HeaderIdempotencyKey, "pedido-001")
	require.Equal(t, http.StatusCreated, status3)
	assert.NotEqual(t, string(raw1), string(raw3))

	status, _, raw := a.call(http.MethodGet, "/api/requests", th.UserAdmin, nil)
	require.Equal(t, http.StatusOK, status)
	var list dto.RequestListResponse
	a.decode(raw, &list)
	assert.Len(t, list.Items, 2, "el reintento no crea un segundo pedido")
}

func TestEntregaPorHTTP_DeLoteARecepcion(t *testing.T) {
	a := newAPI(t)
	a.entry(th.ItemCement, "10")
	reqID := a.approvedRequest(th.UserRequesterNorth, "4")

	status, _, raw := a.call(http.MethodPost, "/api/batches", th.UserWarehouse, map[string]any{
		"request_ids": []string{reqID}, "driver_user_id": th.UserDriver,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var b dto.BatchResponse
	a.decode(raw, &b)
	assert.Equal(t, th.UnitNorth, b.TargetUnitID)

	status, _, raw = a.call(http.MethodPut, "/api/batches/"+b.ID, th.UserWarehouse, map[string]any{
		"action": "separate", "request_id": reqID,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	var sep dto.BatchTransitionResponse
	a.decode(raw, &sep)
	require.NotNil(t, sep.Separation)
	assert.True(t, sep.Separation.Dispatched)
	assert.Equal(t, string(entity.StatusInTransit), sep.Batch.Status)

	status, _, raw = a.call(http.MethodPut, "/api/batches/"+b.ID, th.UserDriver, map[string]any{
		"action": "confirm_delivery", "receiver_user_id": th.UserRequesterNorth2, "code": "000000",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_CODE", a.errorCode(raw))

	status, _, raw = a.call(http.MethodPut, "/api/batches/"+b.ID, th.UserDriver, map[string]any{
		"action": "confirm_delivery", "receiver_user_id": th.UserRequesterNorth2, "code": a.Code(th.UserRequesterNorth2),
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	var conf dto.BatchTransitionResponse
	a.decode(raw, &conf)
	assert.Equal(t, string(entity.StatusDeliveryConfirmed), conf.Batch.Status)
	require.NotNil(t, conf.Confirmation)

	status, _, raw = a.call(http.MethodPost, "/api/confirmations", th.UserControllerSouth, map[string]any{
		"type": "receipt", "scan_code": b.ScanCode,
	})
	assert.Equal(t, http.StatusForbidden, status, string(raw))

	status, _, raw = a.call(http.MethodPost, "/api/confirmations", th.UserControllerNorth, map[string]any{
		"type": "receipt", "scan_code": b.ScanCode,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var rec dto.ConfirmResponse
	a.decode(raw, &rec)
	assert.Equal(t, string(entity.StatusCompleted), rec.Batch.Status)

	status, _, raw = a.call(http.MethodGet, "/api/batches/"+b.ID+"/confirmations", th.UserControllerNorth, nil)
	require.Equal(t, http.StatusOK, status)
	var confs []dto.ConfirmationResponse
	a.decode(raw, &confs)
	assert.Len(t, confs, 2)

	status, _, raw = a.call(http.MethodGet, "/api/batches/scan/"+b.ScanCode, th.UserControllerNorth, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var d dto.BatchDetailResponse
	a.decode(raw, &d)
	assert.Equal(t, b.ID, d.Batch.ID)

	status, _, raw = a.call(http.MethodGet, "/api/movements?reference="+b.ScanCode, th.UserWarehouse, nil)
	require.Equal(t, http.StatusOK, status)
	var movs dto.MovementListResponse
	a.decode(raw, &movs)
	require.Len(t, movs.Items, 1)
	assert.Equal(t, "out", movs.Items[0].Type)
}

func TestLotes_ErroresDeNegocio(t *testing.T) {
	a := newAPI(t)
	a.entry(th.ItemCement, "10")
	north := a.approvedRequest(th.UserRequesterNorth, "1")
	south := a.approvedRequest(th.UserRequesterSouth, "1")

	status, _, raw := a.call(http.MethodPost, "/api/batches", th.UserWarehouse, map[string]any{
		"request_ids": []string{north, south}, "driver_user_id": th.UserDriver,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "CROSS_UNIT_BATCH", a.errorCode(raw))

	status, _, raw = a.call(http.MethodPost, "/api/batches", th.UserDriver, map[string]any{
		"request_ids": []string{north}, "driver_user_id": th.UserDriver,
	})
	assert.Equal(t, http.StatusForbidden, status, string(raw))

	status, _, raw = a.call(http.MethodPost, "/api/batches", th.UserWarehouse, map[string]any{
		"request_ids": []string{north},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", a.errorCode(raw))

	status, _, raw = a.call(http.MethodPost, "/api/batches", th.UserWarehouse, map[string]any{
		"request_ids": []string{north}, "driver_user_id": th.UserDriver,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var b dto.BatchResponse
	a.decode(raw, &b)

	status, _, raw = a.call(http.MethodPut, "/api/batches/"+b.ID, th.UserWarehouse, map[string]any{"action": "dispatch"})
	assert.Equal(t, http.StatusConflict, status, "no sale sin separar todo")
	assert.Equal(t, "STATE_CONFLICT", a.errorCode(raw))

	status, _, raw = a.call(http.MethodPut, "/api/batches/"+b.ID, th.UserWarehouse, map[string]any{"action": "volar"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", a.errorCode(raw))

	status, _, raw = a.call(http.MethodGet, "/api/batches/no-existe", th.UserAdmin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", a.errorCode(raw))
}

func TestLote_RotuloPDF(t *testing.T) {
	a := newAPI(t)
	a.entry(th.ItemCement, "5")
	reqID := a.approvedRequest(th.UserRequesterNorth, "2")
	status, _, raw := a.call(http.MethodPost, "/api/batches", th.UserWarehouse, map[string]any{
		"request_ids": []string{reqID}, "driver_user_id": th.UserDriver,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var b dto.BatchResponse
	a.decode(raw, &b)

	status, headers, raw := a.call(http.MethodGet, "/api/batches/"+b.ID+"/label", th.UserWarehouse, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "application/pdf", headers.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestAprobacion_ConStockInsuficienteDevuelveAdvertencia(t *testing.T) {
	a := newAPI(t)
	status, _, raw := a.call(http.MethodPost, "/api/requests", th.UserRequesterNorth, map[string]any{
		"item_id": th.ItemCement, "quantity": "50",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var r dto.RequestResponse
	a.decode(raw, &r)

	status, _, raw = a.call(http.MethodPut, "/api/requests/"+r.ID, th.UserWarehouse, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, status, string(raw))
	var out dto.RequestTransitionResponse
	a.decode(raw, &out)
	assert.Equal(t, string(entity.StatusApproved), out.Request.Status)
	require.Len(t, out.Warnings, 1)

	status, _, raw = a.call(http.MethodPut, "/api/requests/"+r.ID, th.UserWarehouse, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "STATE_CONFLICT", a.errorCode(raw))

	status, _, raw = a.call(http.MethodPut, "/api/requests/"+r.ID, th.UserWarehouse, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", a.errorCode(raw))
}

func TestMuebles_FlujoDeAprobacion(t *testing.T) {
	a := newAPI(t)
	status, _, raw := a.call(http.MethodPost, "/api/furniture-requests", th.UserRequesterNorth, map[string]any{
		"item_id": th.ItemDesk, "description": "escritorio en L para recepción", "designer_user_id": th.UserDesigner, "quantity": "1",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var f dto.FurnitureRequestResponse
	a.decode(raw, &f)
	assert.Equal(t, string(entity.StatusPendingDesigner), f.Status)

	status, _, _ = a.call(http.MethodPut, "/api/furniture-requests/"+f.ID, th.UserWarehouse, map[string]any{"status": "approved_storage"})
	assert.Equal(t, http.StatusConflict, status, "bodega no aprueba antes que el diseñador")

	status, _, raw = a.call(http.MethodPut, "/api/furniture-requests/"+f.ID, th.UserDesigner, map[string]any{"status": "approved_designer"})
	require.Equal(t, http.StatusOK, status, string(raw))
	status, _, raw = a.call(http.MethodPut, "/api/furniture-requests/"+f.ID, th.UserWarehouse, map[string]any{"status": "approved_storage"})
	require.Equal(t, http.StatusOK, status, string(raw))
	a.decode(raw, &f)
	assert.Equal(t, string(entity.StatusApprovedStorage), f.Status)

	status, _, raw = a.call(http.MethodGet, "/api/furniture-requests?designer_user_id="+th.UserDesigner, th.UserAdmin, nil)
	require.Equal(t, http.StatusOK, status)
	var list dto.FurnitureListResponse
	a.decode(raw, &list)
	assert.Len(t, list.Items, 1)
}

func TestCodigos_PropioYValidacion(t *testing.T) {
	a := newAPI(t)

	status, _, raw := a.call(http.MethodGet, "/api/codes/me", th.UserRequesterNorth, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var code dto.DailyCodeResponse
	a.decode(raw, &code)
	assert.Equal(t, a.Code(th.UserRequesterNorth), code.Code)

	status, _, _ = a.call(http.MethodGet, "/api/codes/me?user_id="+th.UserRequesterSouth, th.UserRequesterNorth, nil)
	assert.Equal(t, http.StatusForbidden, status, "nadie ve el código de otro salvo admin")

	status, _, raw = a.call(http.MethodPost, "/api/codes/validate", th.UserDriver, map[string]any{
		"user_id": th.UserRequesterNorth, "code": code.Code,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	var v dto.ValidateCodeResponse
	a.decode(raw, &v)
	assert.True(t, v.Valid)

	status, _, _ = a.call(http.MethodPost, "/api/codes/validate", th.UserRequesterSouth, map[string]any{
		"user_id": th.UserRequesterNorth, "code": code.Code,
	})
	assert.Equal(t, http.StatusForbidden, status)
}
