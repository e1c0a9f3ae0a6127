package repository

import (
	"context"

	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// SupplierRepository define el puerto de persistencia para Supplier.
// GetByID y List devuelven proveedores enriquecidos con sus condiciones vigentes.
type SupplierRepository interface {
	// List lista proveedores; kind nil = todos.
	List(ctx context.Context, kind *entity.SupplierKind) ([]*entity.Supplier, error)
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Supplier, error)
	// Create asigna el ID (contador monótono, nunca reutilizado).
	Create(ctx context.Context, supplier *entity.Supplier) error
	Update(ctx context.Context, supplier *entity.Supplier) error
	// Delete elimina el proveedor y en cascada todas sus condiciones.
	Delete(ctx context.Context, id int64) error
}
