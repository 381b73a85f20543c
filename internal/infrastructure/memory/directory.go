package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var _ repository.DirectoryRepository = (*Directory)(nil)

// Directory usuarios, unidades e ítems en memoria.
type Directory struct {
	mu    sync.RWMutex
	users map[string]*entity.User
	units map[string]*entity.Unit
	items map[string]*entity.Item
}

// NewDirectory crea un directorio vacío.
func NewDirectory() *Directory {
	return &Directory{
		users: make(map[string]*entity.User),
		units: make(map[string]*entity.Unit),
		items: make(map[string]*entity.Item),
	}
}

func (d *Directory) AddUser(u entity.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = &u
}

func (d *Directory) AddUnit(u entity.Unit) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.units[u.ID] = &u
}

func (d *Directory) AddItem(i entity.Item) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[i.ID] = &i
}

func (d *Directory) GetUser(ctx context.Context, id string) (*entity.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *Directory) GetUnit(ctx context.Context, id string) (*entity.Unit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.units[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *Directory) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

type seedFile struct {
	Users []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		UnitID string `json:"unit_id"`
		Role   string `json:"role"`
		Active *bool  `json:"active"`
	} `json:"users"`
	Units []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Active *bool  `json:"active"`
	} `json:"units"`
	Items []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		UnitMeasure string `json:"unit_measure"`
		IsFurniture bool   `json:"is_furniture"`
	} `json:"items"`
}

// activeOr sin "active" en el archivo el registro queda activo.
func activeOr(v *bool) bool {
	return v == nil || *v
}

// LoadDirectory carga usuarios, unidades e ítems desde un archivo JSON.
func LoadDirectory(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer directorio: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parsear directorio: %w", err)
	}
	d := NewDirectory()
	for _, u := range seed.Users {
		d.AddUser(entity.User{ID: u.ID, Name: u.Name, Email: u.Email, UnitID: u.UnitID, Role: u.Role, Active: activeOr(u.Active)})
	}
	for _, u := range seed.Units {
		d.AddUnit(entity.Unit{ID: u.ID, Name: u.Name, Active: activeOr(u.Active)})
	}
	for _, i := range seed.Items {
		d.AddItem(entity.Item{ID: i.ID, Name: i.Name, UnitMeasure: i.UnitMeasure, IsFurniture: i.IsFurniture})
	}
	return d, nil
}
