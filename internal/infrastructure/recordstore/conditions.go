package recordstore

import (
	"context"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// ConditionRepo implementa repository.ConditionRepository sobre el Store.
type ConditionRepo struct{ s *Store }

var _ repository.ConditionRepository = (*ConditionRepo)(nil)

func (r *ConditionRepo) ListBySupplier(_ context.Context, supplierID int64) ([]*entity.Condition, error) {
	var out []*entity.Condition
	err := r.s.read(func(st *state) error {
		out = []*entity.Condition{}
		for _, id := range st.conditionsBySupplier[supplierID] {
			out = append(out, st.conditions[id].Clone())
		}
		return nil
	})
	return out, err
}

func (r *ConditionRepo) GetByID(_ context.Context, id int64) (*entity.Condition, error) {
	var out *entity.Condition
	err := r.s.read(func(st *state) error {
		if c, ok := st.conditions[id]; ok {
			out = c.Clone()
		}
		return nil
	})
	return out, err
}

func (r *ConditionRepo) Create(ctx context.Context, c *entity.Condition) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.suppliers[c.SupplierID]; !ok {
			return domain.NotFound("supplier", c.SupplierID)
		}
		now := r.s.now()
		rec := c.Clone()
		rec.ID = st.next.Condition
		rec.CreatedAt, rec.UpdatedAt = now, now
		st.next.Condition++
		st.putCondition(rec)

		c.ID, c.CreatedAt, c.UpdatedAt = rec.ID, now, now
		return nil
	})
}

// Update reemplaza la condición. No permite moverla a otro proveedor.
func (r *ConditionRepo) Update(ctx context.Context, c *entity.Condition) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		cur, ok := st.conditions[c.ID]
		if !ok {
			return domain.NotFound("condition", c.ID)
		}
		if cur.SupplierID != c.SupplierID {
			return domain.Invalid("supplier_id", "no se puede cambiar el proveedor de una condición")
		}
		rec := c.Clone()
		rec.CreatedAt = cur.CreatedAt
		rec.UpdatedAt = r.s.now()
		st.putCondition(rec)

		c.CreatedAt, c.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
		return nil
	})
}

func (r *ConditionRepo) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.conditions[id]; !ok {
			return domain.NotFound("condition", id)
		}
		st.dropCondition(id)
		return nil
	})
}
