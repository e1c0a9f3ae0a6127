package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// AnomalyFilter filtros opcionales de listado.
type AnomalyFilter struct {
	Type     *entity.AnomalyType
	Resolved *bool
}

// AnomalyRepository define el puerto de persistencia para Anomaly.
// Las anomalías se crean y destruyen por lotes (ReplaceForInvoice); solo los campos de resolución se actualizan.
type AnomalyRepository interface {
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*entity.Anomaly, error)
	List(ctx context.Context, filter AnomalyFilter) ([]*entity.Anomaly, error)
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Anomaly, error)
	// ReplaceForInvoice borra las anomalías previas de la factura, crea las nuevas (asignando IDs)
	// y fija el estado de la factura, todo de forma atómica.
	ReplaceForInvoice(ctx context.Context, invoiceID int64, anomalies []*entity.Anomaly, status entity.InvoiceStatus) error
	// Resolve marca la anomalía como resuelta.
	Resolve(ctx context.Context, id int64, note string, at time.Time) (*entity.Anomaly, error)
}
