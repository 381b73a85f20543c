// Package testhelpers arma el entorno de pruebas de los casos de uso:
// store en memoria, directorio sembrado, reloj fijo y generador de códigos diarios.
package testhelpers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/infrastructure/memory"
	"github.com/jhoicas/Despacho-api/pkg/dailycode"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

// Unidades, usuarios e ítems sembrados.
const (
	UnitWarehouse = "unidad-bodega"
	UnitNorth     = "unidad-norte"
	UnitSouth     = "unidad-sur"

	UserAdmin           = "u-admin"
	UserWarehouse       = "u-bodega"
	UserDriver          = "u-conductor"
	UserOtherDriver     = "u-conductor-2"
	UserRequesterNorth  = "u-solicitante-norte"
	UserRequesterNorth2 = "u-solicitante-norte-2"
	UserRequesterSouth  = "u-solicitante-sur"
	UserControllerNorth = "u-controlador-norte"
	UserControllerSouth = "u-controlador-sur"
	UserDesigner        = "u-disenador"

	ItemCement = "item-cemento"
	ItemPaint  = "item-pintura"
	ItemDesk   = "item-escritorio"

	CodeSecret = "secreto-de-pruebas"
)

// Clock reloj controlable.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now hora actual del reloj.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set fija la hora.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance adelanta el reloj d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestHelper componentes compartidos por los tests de casos de uso.
type TestHelper struct {
	T       *testing.T
	Ctx     context.Context
	Store   *memory.Store
	Dir     *memory.Directory
	Clock   *Clock
	Codes   *dailycode.Generator
	Metrics *RecordingMetrics
	Runtime ports.Runtime
}

// New crea un entorno limpio. El reloj arranca el 16/10/2026 a las 10:00 en Bogotá.
func New(t *testing.T) *TestHelper {
	t.Helper()
	codes, err := dailycode.New(CodeSecret, dailycode.DefaultTimezone, 6)
	require.NoError(t, err)

	clock := &Clock{now: time.Date(2026, 10, 16, 10, 0, 0, 0, codes.Location())}
	dir := seedDirectory()
	store := memory.NewStore()
	metrics := &RecordingMetrics{}

	h := &TestHelper{
		T:       t,
		Ctx:     context.Background(),
		Store:   store,
		Dir:     dir,
		Clock:   clock,
		Codes:   codes,
		Metrics: metrics,
	}
	h.Runtime = ports.Runtime{
		Tx:              store,
		Directory:       dir,
		WarehouseUnitID: UnitWarehouse,
		Retry:           ports.RetryPolicy{MaxAttempts: 3},
		Metrics:         metrics,
		Log:             logger.Nop(),
		Now:             clock.Now,
	}.WithDefaults()
	return h
}

func seedDirectory() *memory.Directory {
	d := memory.NewDirectory()
	for _, u := range []entity.Unit{
		{ID: UnitWarehouse, Name: "Bodega central", Active: true},
		{ID: UnitNorth, Name: "Sede norte", Active: true},
		{ID: UnitSouth, Name: "Sede sur", Active: true},
	} {
		d.AddUnit(u)
	}
	for _, u := range []entity.User{
		{ID: UserAdmin, Name: "Admin", UnitID: UnitWarehouse, Role: entity.RoleAdmin, Active: true},
		{ID: UserWarehouse, Name: "Bodeguero", UnitID: UnitWarehouse, Role: entity.RoleWarehouse, Active: true},
		{ID: UserDriver, Name: "Conductor", UnitID: UnitWarehouse, Role: entity.RoleDriver, Active: true},
		{ID: UserOtherDriver, Name: "Conductor 2", UnitID: UnitWarehouse, Role: entity.RoleDriver, Active: true},
		{ID: UserRequesterNorth, Name: "Solicitante norte", UnitID: UnitNorth, Role: entity.RoleRequester, Active: true},
		{ID: UserRequesterNorth2, Name: "Solicitante norte 2", UnitID: UnitNorth, Role: entity.RoleRequester, Active: true},
		{ID: UserRequesterSouth, Name: "Solicitante sur", UnitID: UnitSouth, Role: entity.RoleRequester, Active: true},
		{ID: UserControllerNorth, Name: "Controlador norte", UnitID: UnitNorth, Role: entity.RoleController, Active: true},
		{ID: UserControllerSouth, Name: "Controlador sur", UnitID: UnitSouth, Role: entity.RoleController, Active: true},
		{ID: UserDesigner, Name: "Diseñador", UnitID: UnitWarehouse, Role: entity.RoleDesigner, Active: true},
	} {
		d.AddUser(u)
	}
	for _, i := range []entity.Item{
		{ID: ItemCement, Name: "Cemento gris 50kg", UnitMeasure: "bulto"},
		{ID: ItemPaint, Name: "Pintura blanca", UnitMeasure: "galón"},
		{ID: ItemDesk, Name: "Escritorio en L", UnitMeasure: "unidad", IsFurniture: true},
	} {
		d.AddItem(i)
	}
	return d
}

// Actor identidad de un usuario sembrado, tal como la deja el middleware JWT.
func (h *TestHelper) Actor(userID string) entity.Actor {
	h.T.Helper()
	u, err := h.Dir.GetUser(h.Ctx, userID)
	require.NoError(h.T, err)
	return entity.Actor{UserID: u.ID, UnitID: u.UnitID, Role: u.Role}
}

// Code código diario vigente del usuario según el reloj.
func (h *TestHelper) Code(userID string) string {
	h.T.Helper()
	code, err := h.Codes.Code(userID, h.Clock.Now())
	require.NoError(h.T, err)
	return code
}

var _ ports.Metrics = (*RecordingMetrics)(nil)

// RecordingMetrics cuenta eventos para las aserciones.
type RecordingMetrics struct {
	mu                    sync.Mutex
	Movements             map[string]int
	Transitions           map[string]int
	InsufficientStockN    int
	ProjectionRepairedN   int
	ReconciliationNeededN int
	Retries               int
}

// MovementRecorded cuenta movimientos por tipo.
func (m *RecordingMetrics) MovementRecorded(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Movements == nil {
		m.Movements = map[string]int{}
	}
	m.Movements[t]++
}

// Transition cuenta transiciones por entidad y estado destino.
func (m *RecordingMetrics) Transition(entity, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Transitions == nil {
		m.Transitions = map[string]int{}
	}
	m.Transitions[entity+":"+to]++
}

// InsufficientStock cuenta aprobaciones con advertencia de stock.
func (m *RecordingMetrics) InsufficientStock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsufficientStockN++
}

// ProjectionRepaired cuenta filas reparadas.
func (m *RecordingMetrics) ProjectionRepaired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProjectionRepairedN++
}

// ReconciliationNeeded cuenta fallas de proyección que piden reconciliar.
func (m *RecordingMetrics) ReconciliationNeeded(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReconciliationNeededN++
}

// TxRetry cuenta reintentos de transacción.
func (m *RecordingMetrics) TxRetry(string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Retries++
}

// MetricCounts contadores escalares de RecordingMetrics.
type MetricCounts struct {
	InsufficientStockN   int
	ProjectionRepairedN  int
	ReconciliationNeeded int
	Retries              int
}

// Snapshot copia de los contadores (evita leer mientras otra goroutine escribe).
func (m *RecordingMetrics) Snapshot() MetricCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricCounts{
		InsufficientStockN:   m.InsufficientStockN,
		ProjectionRepairedN:  m.ProjectionRepairedN,
		ReconciliationNeeded: m.ReconciliationNeededN,
		Retries:              m.Retries,
	}
}
