package repository

import (
	"context"

	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// ConditionRepository define el puerto de persistencia para Condition.
type ConditionRepository interface {
	// ListBySupplier devuelve todas las condiciones del proveedor (vigentes o no).
	ListBySupplier(ctx context.Context, supplierID int64) ([]*entity.Condition, error)
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Condition, error)
	Create(ctx context.Context, condition *entity.Condition) error
	Update(ctx context.Context, condition *entity.Condition) error
	Delete(ctx context.Context, id int64) error
}
