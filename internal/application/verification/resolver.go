package verification

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// Resolver reúne el conjunto de reglas efectivo de un proveedor: tasas planas + condiciones vigentes.
// Solo lectura.
type Resolver struct {
	suppliers  repository.SupplierRepository
	conditions repository.ConditionRepository
}

// NewResolver construye el resolvedor de condiciones.
func NewResolver(suppliers repository.SupplierRepository, conditions repository.ConditionRepository) *Resolver {
	return &Resolver{suppliers: suppliers, conditions: conditions}
}

// ActiveConditions condiciones activas del proveedor cuya ventana de validez contiene asOf, ordenadas por ID.
func (r *Resolver) ActiveConditions(ctx context.Context, supplierID int64, asOf time.Time) ([]entity.Condition, error) {
	all, err := r.conditions.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Condition, 0, len(all))
	for _, c := range all {
		if c.IsEffective(asOf) {
			out = append(out, *c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Resolve carga el proveedor y le adjunta sus condiciones vigentes en asOf.
// Devuelve domain.ErrNotFound si el proveedor no existe.
func (r *Resolver) Resolve(ctx context.Context, supplierID int64, asOf time.Time) (*entity.Supplier, error) {
	s, err := r.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.NotFound("supplier", supplierID)
	}
	conds, err := r.ActiveConditions(ctx, supplierID, asOf)
	if err != nil {
		return nil, err
	}
	s.Conditions = conds
	return s, nil
}
