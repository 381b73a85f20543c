package entity

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleRequester  = "solicitante"
	RoleWarehouse  = "bodeguero"
	RoleDriver     = "conductor"
	RoleController = "controlador"
	RoleDesigner   = "disenador"
)

// User usuario del directorio. Pertenece a una unidad y tiene un rol.
type User struct {
	ID     string
	Name   string
	Email  string
	UnitID string
	Role   string
	Active bool
}

// Actor quien ejecuta una operación (viene del token). UnitID puede estar vacío.
type Actor struct {
	UserID string
	UnitID string
	Role   string
}

// HasRole indica si el actor tiene alguno de los roles; admin siempre pasa.
func (a Actor) HasRole(roles ...string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
