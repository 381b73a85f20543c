package memory_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/infrastructure/memory"
)

func movement(requestID string) *entity.Movement {
	return &entity.Movement{
		Type: entity.MovementOut, ItemID: "i-1", UnitID: "u-1", UserID: "x",
		Quantity: decimal.NewFromInt(2), RequestID: requestID,
	}
}

func TestRun_ErrorDescartaEscrituras(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	err := s.Run(ctx, func(r ports.TxRepos) error {
		require.NoError(t, r.Movements.Append(ctx, movement("")))
		return errors.New("falla después de escribir")
	})
	require.Error(t, err)

	require.NoError(t, s.Run(ctx, func(r ports.TxRepos) error {
		list, err := r.Movements.ListByKey(ctx, entity.StockKey{ItemID: "i-1", UnitID: "u-1"})
		require.NoError(t, err)
		assert.Empty(t, list)
		m := movement("r-1")
		require.NoError(t, r.Movements.Append(ctx, m))
		assert.Equal(t, int64(1), m.ID, "la secuencia también se revierte")
		assert.ErrorIs(t, r.Movements.Append(ctx, movement("r-1")), domain.ErrDuplicate)
		return nil
	}))
}

func TestInjectFault_FallaLasVecesIndicadas(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	boom := errors.New("disco lleno")
	s.InjectFault(memory.OpMovementAppend, 1, boom)

	err := s.Run(ctx, func(r ports.TxRepos) error { return r.Movements.Append(ctx, movement("")) })
	assert.ErrorIs(t, err, boom)
	err = s.Run(ctx, func(r ports.TxRepos) error { return r.Movements.Append(ctx, movement("")) })
	assert.NoError(t, err)
}

func TestUnitStock_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Run(ctx, func(r ports.TxRepos) error {
		st := &entity.UnitStock{ID: "s-1", ItemID: "i-1", UnitID: "u-1", Quantity: decimal.NewFromInt(3)}
		require.NoError(t, r.Stock.Create(ctx, st))
		assert.Equal(t, int64(1), st.RowVersion)

		stale := *st
		st.Quantity = decimal.NewFromInt(4)
		require.NoError(t, r.Stock.Update(ctx, st))
		assert.ErrorIs(t, r.Stock.Update(ctx, &stale), domain.ErrVersionConflict)
		assert.ErrorIs(t, r.Stock.Create(ctx, &entity.UnitStock{ID: "s-2", ItemID: "i-1", UnitID: "u-1"}), domain.ErrDuplicate)
		return nil
	}))
}

func TestIdempotencyStore_ReservaYVencimiento(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	s := memory.NewIdempotencyStore(func() time.Time { return now })

	ok, err := s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = s.Reserve(ctx, "k", time.Minute)
	assert.False(t, ok, "en curso")

	require.NoError(t, s.Save(ctx, "k", ports.StoredResponse{Status: 201, Body: []byte(`{"id":"1"}`)}, time.Hour))
	require.NoError(t, s.Release(ctx, "k"))
	got, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 201, got.Status)

	now = now.Add(2 * time.Hour)
	_, found, _ = s.Get(ctx, "k")
	assert.False(t, found)
}

func TestLoadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directorio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"units": [{"id": "u-1", "name": "Bodega"}, {"id": "u-2", "name": "Sede cerrada", "active": false}],
		"users": [
			{"id": "p-1", "name": "Ana", "unit_id": "u-1", "role": "bodeguero"},
			{"id": "p-2", "name": "Luis", "unit_id": "u-1", "role": "conductor", "active": false}
		],
		"items": [{"id": "i-1", "name": "Cemento", "unit_measure": "bulto"}]
	}`), 0o600))

	d, err := memory.LoadDirectory(path)
	require.NoError(t, err)
	u, err := d.GetUser(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleWarehouse, u.Role)
	assert.True(t, u.Active)

	baja, err := d.GetUser(context.Background(), "p-2")
	require.NoError(t, err)
	assert.False(t, baja.Active)
	unit, err := d.GetUnit(context.Background(), "u-2")
	require.NoError(t, err)
	assert.False(t, unit.Active)
	unit, err = d.GetUnit(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, unit.Active)

	_, err = d.GetItem(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
