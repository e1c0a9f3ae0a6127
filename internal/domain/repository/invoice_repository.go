package repository

import (
	"context"

	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// InvoiceFilter filtros opcionales de listado.
type InvoiceFilter struct {
	SupplierID *int64
	Status     *entity.InvoiceStatus
}

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
// GetByID y List devuelven facturas enriquecidas (proveedor con condiciones vigentes + líneas).
type InvoiceRepository interface {
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	// Create persiste cabecera y líneas; asigna IDs a ambas.
	Create(ctx context.Context, invoice *entity.Invoice) error
	// Update actualiza solo la cabecera; las líneas son de solo lectura.
	Update(ctx context.Context, invoice *entity.Invoice) error
	// Delete elimina la factura y en cascada sus líneas y anomalías.
	Delete(ctx context.Context, id int64) error
}
