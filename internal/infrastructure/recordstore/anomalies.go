package recordstore

import (
	"context"
	"time"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// AnomalyRepo implementa repository.AnomalyRepository sobre el Store.
type AnomalyRepo struct{ s *Store }

var _ repository.AnomalyRepository = (*AnomalyRepo)(nil)

func (r *AnomalyRepo) ListByInvoice(_ context.Context, invoiceID int64) ([]*entity.Anomaly, error) {
	var out []*entity.Anomaly
	err := r.s.read(func(st *state) error {
		asOf := r.s.now()
		out = []*entity.Anomaly{}
		for _, id := range st.anomaliesOf(invoiceID) {
			out = append(out, st.anomalyView(id, asOf))
		}
		return nil
	})
	return out, err
}

func (r *AnomalyRepo) List(_ context.Context, f repository.AnomalyFilter) ([]*entity.Anomaly, error) {
	var out []*entity.Anomaly
	err := r.s.read(func(st *state) error {
		asOf := r.s.now()
		out = make([]*entity.Anomaly, 0, len(st.anomalies))
		for _, id := range sortedKeys(st.anomalies) {
			a := st.anomalies[id]
			if f.Type != nil && a.Type != *f.Type {
				continue
			}
			if f.Resolved != nil && a.Resolved != *f.Resolved {
				continue
			}
			out = append(out, st.anomalyView(id, asOf))
		}
		return nil
	})
	return out, err
}

func (r *AnomalyRepo) GetByID(_ context.Context, id int64) (*entity.Anomaly, error) {
	var out *entity.Anomaly
	err := r.s.read(func(st *state) error {
		out = st.anomalyView(id, r.s.now())
		return nil
	})
	return out, err
}

// ReplaceForInvoice borra el lote anterior, inserta el nuevo y fija el estado en una sola mutación.
func (r *AnomalyRepo) ReplaceForInvoice(ctx context.Context, invoiceID int64, anomalies []*entity.Anomaly, status entity.InvoiceStatus) error {
	if !status.Valid() {
		return domain.Invalid("status", "estado desconocido")
	}
	for _, a := range anomalies {
		if !a.Type.Valid() {
			return domain.Invalid("type", "tipo de anomalía desconocido")
		}
		if !a.Severity.Valid() {
			return domain.Invalid("severity", "gravedad desconocida")
		}
	}
	return r.s.write(ctx, func(st *state) error {
		inv, ok := st.invoices[invoiceID]
		if !ok {
			return domain.NotFound("invoice", invoiceID)
		}
		st.dropAnomaliesOf(invoiceID)
		now := r.s.now()
		for _, a := range anomalies {
			rec := a.Clone()
			rec.Invoice = nil
			rec.ID = st.next.Anomaly
			rec.InvoiceID = invoiceID
			rec.CreatedAt = now
			st.next.Anomaly++
			st.putAnomaly(rec)

			a.ID, a.InvoiceID, a.CreatedAt = rec.ID, invoiceID, now
		}
		inv.Status = status
		return nil
	})
}

// Resolve marca la anomalía como resuelta. Resolver de nuevo actualiza nota y fecha.
func (r *AnomalyRepo) Resolve(ctx context.Context, id int64, note string, at time.Time) (*entity.Anomaly, error) {
	var out *entity.Anomaly
	err := r.s.write(ctx, func(st *state) error {
		a, ok := st.anomalies[id]
		if !ok {
			return domain.NotFound("anomaly", id)
		}
		t := at.UTC()
		a.Resolved = true
		a.ResolvedAt = &t
		a.ResolutionNote = note
		out = st.anomalyView(id, r.s.now())
		return nil
	})
	return out, err
}
