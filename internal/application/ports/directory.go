package ports

import "github.com/jhoicas/Despacho-api/internal/domain/repository"

// Directory colaboradores externos: getUserById, getUnitById, getItemById.
type Directory = repository.DirectoryRepository
