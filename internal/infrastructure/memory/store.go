// Package memory implementa el almacenamiento en memoria (STORAGE_DRIVER=memory y tests).
//
// Una transacción toma el candado del Store durante toda su duración; si fn falla el
// estado vuelve a la instantánea tomada al inicio. Las entidades guardadas nunca se
// modifican en sitio: los repositorios guardan y devuelven copias.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

var _ ports.TxRunner = (*Store)(nil)

// Operaciones en las que se puede inyectar una falla.
const (
	OpMovementAppend    = "movements.append"
	OpStockWrite        = "stock.write"
	OpRequestUpdate     = "requests.update"
	OpFurnitureUpdate   = "furniture.update"
	OpBatchWrite        = "batches.write"
	OpConfirmationWrite = "confirmations.write"
)

type state struct {
	seq           int64
	movements     []*entity.Movement
	stock         map[string]*entity.UnitStock
	requests      map[string]*entity.Request
	furniture     map[string]*entity.FurnitureRequest
	batches       map[string]*entity.DeliveryBatch
	confirmations []*entity.DeliveryConfirmation
}

func newState() *state {
	return &state{
		stock:     make(map[string]*entity.UnitStock),
		requests:  make(map[string]*entity.Request),
		furniture: make(map[string]*entity.FurnitureRequest),
		batches:   make(map[string]*entity.DeliveryBatch),
	}
}

// clone es superficial: los valores guardados se reemplazan, nunca se mutan.
func (s *state) clone() *state {
	c := &state{
		seq:           s.seq,
		movements:     append([]*entity.Movement(nil), s.movements...),
		stock:         make(map[string]*entity.UnitStock, len(s.stock)),
		requests:      make(map[string]*entity.Request, len(s.requests)),
		furniture:     make(map[string]*entity.FurnitureRequest, len(s.furniture)),
		batches:       make(map[string]*entity.DeliveryBatch, len(s.batches)),
		confirmations: append([]*entity.DeliveryConfirmation(nil), s.confirmations...),
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.furniture {
		c.furniture[k] = v
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	return c
}

type fault struct {
	remaining int
	err       error
}

// Store base de datos en memoria.
type Store struct {
	mu     sync.Mutex
	data   *state
	faults map[string]*fault
	now    func() time.Time
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{data: newState(), faults: make(map[string]*fault), now: time.Now}
}

// Run ejecuta fn con acceso exclusivo al store; cualquier error descarta lo escrito por fn.
func (s *Store) Run(ctx context.Context, fn func(r ports.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.data.clone()
	if err := fn(s.repos()); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) repos() ports.TxRepos {
	return ports.TxRepos{
		Movements:     &MovementRepo{s: s},
		Stock:         &UnitStockRepo{s: s},
		Requests:      &RequestRepo{s: s},
		Furniture:     &FurnitureRepo{s: s},
		Batches:       &BatchRepo{s: s},
		Confirmations: &ConfirmationRepo{s: s},
	}
}

// InjectFault hace que las próximas `times` llamadas a op fallen con err.
func (s *Store) InjectFault(op string, times int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{remaining: times, err: err}
}

// fail se llama con el candado tomado.
func (s *Store) fail(op string) error {
	f, ok := s.faults[op]
	if !ok || f.remaining <= 0 {
		return nil
	}
	f.remaining--
	return f.err
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
