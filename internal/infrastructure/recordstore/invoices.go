package recordstore

import (
	"context"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// InvoiceRepo implementa repository.InvoiceRepository sobre el Store.
type InvoiceRepo struct{ s *Store }

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

func (r *InvoiceRepo) List(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	err := r.s.read(func(st *state) error {
		asOf := r.s.now()
		out = make([]*entity.Invoice, 0, len(st.invoices))
		for _, id := range sortedKeys(st.invoices) {
			inv := st.invoices[id]
			if f.SupplierID != nil && inv.SupplierID != *f.SupplierID {
				continue
			}
			if f.Status != nil && inv.Status != *f.Status {
				continue
			}
			out = append(out, st.invoiceView(id, asOf))
		}
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) GetByID(_ context.Context, id int64) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.s.read(func(st *state) error {
		out = st.invoiceView(id, r.s.now())
		return nil
	})
	return out, err
}

// Create persiste cabecera y líneas. El estado inicial es siempre unverified si no se indica.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.suppliers[inv.SupplierID]; !ok {
			return domain.NotFound("supplier", inv.SupplierID)
		}
		rec := inv.Clone()
		rec.Lines, rec.Supplier = nil, nil
		rec.ID = st.next.Invoice
		rec.CreatedAt = r.s.now()
		if rec.Status == "" {
			rec.Status = entity.InvoiceStatusUnverified
		}
		st.next.Invoice++
		st.invoices[rec.ID] = rec

		for i := range inv.Lines {
			l := inv.Lines[i]
			l.ID = st.next.Line
			l.InvoiceID = rec.ID
			st.next.Line++
			st.putLine(&l)
			inv.Lines[i].ID, inv.Lines[i].InvoiceID = l.ID, rec.ID
		}

		inv.ID, inv.CreatedAt, inv.Status = rec.ID, rec.CreatedAt, rec.Status
		return nil
	})
}

// Update reemplaza la cabecera. Estado y líneas quedan intactos: el estado solo lo cambia la verificación.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		cur, ok := st.invoices[inv.ID]
		if !ok {
			return domain.NotFound("invoice", inv.ID)
		}
		if _, ok := st.suppliers[inv.SupplierID]; !ok {
			return domain.NotFound("supplier", inv.SupplierID)
		}
		rec := inv.Clone()
		rec.Lines, rec.Supplier = nil, nil
		rec.Status = cur.Status
		rec.CreatedAt = cur.CreatedAt
		st.invoices[rec.ID] = rec

		inv.Status, inv.CreatedAt = rec.Status, rec.CreatedAt
		return nil
	})
}

// Delete elimina la factura con sus líneas y anomalías en la misma sección crítica.
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.invoices[id]; !ok {
			return domain.NotFound("invoice", id)
		}
		st.dropInvoice(id)
		return nil
	})
}
