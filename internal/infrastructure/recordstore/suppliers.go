package recordstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// SupplierRepo implementa repository.SupplierRepository sobre el Store.
type SupplierRepo struct{ s *Store }

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

func (r *SupplierRepo) List(_ context.Context, kind *entity.SupplierKind) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	err := r.s.read(func(st *state) error {
		asOf := r.s.now()
		out = make([]*entity.Supplier, 0, len(st.suppliers))
		for _, id := range sortedKeys(st.suppliers) {
			if kind != nil && st.suppliers[id].Kind != *kind {
				continue
			}
			out = append(out, st.supplierView(id, asOf))
		}
		return nil
	})
	return out, err
}

func (r *SupplierRepo) GetByID(_ context.Context, id int64) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.s.read(func(st *state) error {
		out = st.supplierView(id, r.s.now())
		return nil
	})
	return out, err
}

func (r *SupplierRepo) Create(ctx context.Context, sup *entity.Supplier) error {
	if err := sup.Validate(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		if err := uniqueName(st, sup.Name, 0); err != nil {
			return err
		}
		now := r.s.now()
		rec := sup.Clone()
		rec.Conditions = nil
		rec.ID = st.next.Supplier
		rec.Name = strings.TrimSpace(rec.Name)
		rec.CreatedAt, rec.UpdatedAt = now, now
		st.next.Supplier++
		st.suppliers[rec.ID] = rec

		sup.ID, sup.Name, sup.CreatedAt, sup.UpdatedAt = rec.ID, rec.Name, now, now
		return nil
	})
}

func (r *SupplierRepo) Update(ctx context.Context, sup *entity.Supplier) error {
	if err := sup.Validate(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		cur, ok := st.suppliers[sup.ID]
		if !ok {
			return domain.NotFound("supplier", sup.ID)
		}
		if err := uniqueName(st, sup.Name, sup.ID); err != nil {
			return err
		}
		rec := sup.Clone()
		rec.Conditions = nil
		rec.Name = strings.TrimSpace(rec.Name)
		rec.CreatedAt = cur.CreatedAt
		rec.UpdatedAt = r.s.now()
		st.suppliers[rec.ID] = rec

		sup.Name, sup.CreatedAt, sup.UpdatedAt = rec.Name, rec.CreatedAt, rec.UpdatedAt
		return nil
	})
}

// Delete elimina el proveedor y todas sus condiciones en la misma sección crítica.
// Las facturas que lo referencian se conservan; su verificación fallará con NotFound.
func (r *SupplierRepo) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.suppliers[id]; !ok {
			return domain.NotFound("supplier", id)
		}
		st.dropSupplier(id)
		return nil
	})
}

func uniqueName(st *state, name string, self int64) error {
	n := strings.ToLower(strings.TrimSpace(name))
	for id, s := range st.suppliers {
		if id != self && strings.ToLower(s.Name) == n {
			return fmt.Errorf("%w: ya existe un proveedor llamado %q", domain.ErrDuplicate, s.Name)
		}
	}
	return nil
}
