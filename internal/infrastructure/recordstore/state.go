package recordstore

import (
	"slices"
	"time"

	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// state estado autoritativo en memoria. Los agregados se guardan normalizados (sin Conditions, Lines
// ni Supplier/Invoice enriquecidos); el enriquecimiento se construye en cada lectura.
// Los índices por padre guardan los ids hijos en orden ascendente; toda alta o baja de condiciones,
// líneas y anomalías pasa por los métodos put/drop; la carga y la migración llaman a reindex.
type state struct {
	suppliers  map[int64]*entity.Supplier
	conditions map[int64]*entity.Condition
	invoices   map[int64]*entity.Invoice
	lines      map[int64]*entity.InvoiceLine
	anomalies  map[int64]*entity.Anomaly
	next       NextIDs

	conditionsBySupplier map[int64][]int64
	linesByInvoice       map[int64][]int64
	anomaliesByInvoice   map[int64][]int64
}

func newState() *state {
	return &state{
		suppliers:  map[int64]*entity.Supplier{},
		conditions: map[int64]*entity.Condition{},
		invoices:   map[int64]*entity.Invoice{},
		lines:      map[int64]*entity.InvoiceLine{},
		anomalies:  map[int64]*entity.Anomaly{},
		next:       freshNextIDs(),

		conditionsBySupplier: map[int64][]int64{},
		linesByInvoice:       map[int64][]int64{},
		anomaliesByInvoice:   map[int64][]int64{},
	}
}

// reindex reconstruye los índices por padre tras cargar o migrar un snapshot.
func (st *state) reindex() {
	st.conditionsBySupplier = map[int64][]int64{}
	st.linesByInvoice = map[int64][]int64{}
	st.anomaliesByInvoice = map[int64][]int64{}
	for _, id := range sortedKeys(st.conditions) {
		c := st.conditions[id]
		st.conditionsBySupplier[c.SupplierID] = append(st.conditionsBySupplier[c.SupplierID], id)
	}
	for _, id := range sortedKeys(st.lines) {
		l := st.lines[id]
		st.linesByInvoice[l.InvoiceID] = append(st.linesByInvoice[l.InvoiceID], id)
	}
	for _, id := range sortedKeys(st.anomalies) {
		a := st.anomalies[id]
		st.anomaliesByInvoice[a.InvoiceID] = append(st.anomaliesByInvoice[a.InvoiceID], id)
	}
}

func (st *state) putCondition(c *entity.Condition) {
	st.conditions[c.ID] = c
	st.conditionsBySupplier[c.SupplierID] = insertID(st.conditionsBySupplier[c.SupplierID], c.ID)
}

func (st *state) dropCondition(id int64) {
	c, ok := st.conditions[id]
	if !ok {
		return
	}
	delete(st.conditions, id)
	st.conditionsBySupplier[c.SupplierID] = removeID(st.conditionsBySupplier[c.SupplierID], id)
	if len(st.conditionsBySupplier[c.SupplierID]) == 0 {
		delete(st.conditionsBySupplier, c.SupplierID)
	}
}

// dropSupplier elimina el proveedor y sus condiciones.
func (st *state) dropSupplier(id int64) {
	delete(st.suppliers, id)
	for _, cid := range st.conditionsBySupplier[id] {
		delete(st.conditions, cid)
	}
	delete(st.conditionsBySupplier, id)
}

func (st *state) putLine(l *entity.InvoiceLine) {
	st.lines[l.ID] = l
	st.linesByInvoice[l.InvoiceID] = insertID(st.linesByInvoice[l.InvoiceID], l.ID)
}

func (st *state) putAnomaly(a *entity.Anomaly) {
	st.anomalies[a.ID] = a
	st.anomaliesByInvoice[a.InvoiceID] = insertID(st.anomaliesByInvoice[a.InvoiceID], a.ID)
}

// dropAnomaliesOf elimina todas las anomalías de la factura.
func (st *state) dropAnomaliesOf(invoiceID int64) {
	for _, aid := range st.anomaliesByInvoice[invoiceID] {
		delete(st.anomalies, aid)
	}
	delete(st.anomaliesByInvoice, invoiceID)
}

// dropInvoice elimina la factura con sus líneas y anomalías.
func (st *state) dropInvoice(id int64) {
	delete(st.invoices, id)
	for _, lid := range st.linesByInvoice[id] {
		delete(st.lines, lid)
	}
	delete(st.linesByInvoice, id)
	st.dropAnomaliesOf(id)
}

func insertID(ids []int64, id int64) []int64 {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

func removeID(ids []int64, id int64) []int64 {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}

// repairCounters garantiza next > max(id) para cada tipo.
func (st *state) repairCounters() {
	st.next.Supplier = above(st.next.Supplier, st.suppliers)
	st.next.Condition = above(st.next.Condition, st.conditions)
	st.next.Invoice = above(st.next.Invoice, st.invoices)
	st.next.Line = above(st.next.Line, st.lines)
	st.next.Anomaly = above(st.next.Anomaly, st.anomalies)
}

func above[V any](next int64, m map[int64]V) int64 {
	if next < 1 {
		next = 1
	}
	for id := range m {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

func (st *state) supplierView(id int64, asOf time.Time) *entity.Supplier {
	s, ok := st.suppliers[id]
	if !ok {
		return nil
	}
	out := s.Clone()
	out.Conditions = []entity.Condition{}
	for _, cid := range st.conditionsBySupplier[id] {
		if c := st.conditions[cid]; c.IsEffective(asOf) {
			out.Conditions = append(out.Conditions, *c.Clone())
		}
	}
	return out
}

func (st *state) invoiceView(id int64, asOf time.Time) *entity.Invoice {
	inv, ok := st.invoices[id]
	if !ok {
		return nil
	}
	out := inv.Clone()
	out.Lines = st.linesOf(id)
	out.Supplier = st.supplierView(inv.SupplierID, asOf)
	return out
}

func (st *state) anomalyView(id int64, asOf time.Time) *entity.Anomaly {
	a, ok := st.anomalies[id]
	if !ok {
		return nil
	}
	out := a.Clone()
	out.Invoice = st.invoiceView(a.InvoiceID, asOf)
	return out
}

func (st *state) linesOf(invoiceID int64) []entity.InvoiceLine {
	ids := st.linesByInvoice[invoiceID]
	out := make([]entity.InvoiceLine, 0, len(ids))
	for _, lid := range ids {
		out = append(out, *st.lines[lid])
	}
	return out
}

func (st *state) anomaliesOf(invoiceID int64) []int64 {
	return st.anomaliesByInvoice[invoiceID]
}
