package recordstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// SchemaVersion versión del layout persistido actual.
const SchemaVersion = 2

// NextIDs contadores monótonos por tipo de entidad: siguiente ID a asignar.
type NextIDs struct {
	Supplier  int64 `json:"supplier"`
	Condition int64 `json:"condition"`
	Invoice   int64 `json:"invoice"`
	Line      int64 `json:"invoice_line"`
	Anomaly   int64 `json:"anomaly"`
}

func freshNextIDs() NextIDs {
	return NextIDs{Supplier: 1, Condition: 1, Invoice: 1, Line: 1, Anomaly: 1}
}

// snapshotV2 representación serializable del estado (clave "<prefix>_db_v2").
type snapshotV2 struct {
	SchemaVersion int               `json:"schema_version"`
	Suppliers     []supplierRecord  `json:"suppliers"`
	Conditions    []conditionRecord `json:"conditions"`
	Invoices      []invoiceRecord   `json:"invoices"`
	Lines         []lineRecord      `json:"invoice_lines"`
	Anomalies     []anomalyRecord   `json:"anomalies"`
	NextIDs       NextIDs           `json:"next_ids"`
}

type supplierRecord struct {
	ID                      int64           `json:"id"`
	Name                    string          `json:"name"`
	Kind                    string          `json:"kind"`
	BaseDiscountRate        decimal.Decimal `json:"base_discount_rate"`
	CooperativeRate         decimal.Decimal `json:"cooperative_rate"`
	CashDiscountRate        decimal.Decimal `json:"cash_discount_rate"`
	FrancoThreshold         decimal.Decimal `json:"franco_threshold"`
	RangeDiscountEnabled    bool            `json:"range_discount_enabled"`
	QuantityDiscountEnabled bool            `json:"quantity_discount_enabled"`
	YearEndRebateEnabled    bool            `json:"year_end_rebate_enabled"`
	Active                  bool            `json:"active"`
	Notes                   string          `json:"notes,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

type conditionRecord struct {
	ID          int64           `json:"id"`
	SupplierID  int64           `json:"supplier_id"`
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Params      json.RawMessage `json:"params"`
	Active      bool            `json:"active"`
	DateStart   *time.Time      `json:"date_start,omitempty"`
	DateEnd     *time.Time      `json:"date_end,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type invoiceRecord struct {
	ID                  int64           `json:"id"`
	Number              string          `json:"numero"`
	Date                time.Time       `json:"date"`
	SupplierID          int64           `json:"supplier_id"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	LineDiscountTotal   decimal.Decimal `json:"line_discount_total"`
	FooterDiscountTotal decimal.Decimal `json:"footer_discount_total"`
	NetAmount           decimal.Decimal `json:"net_amount"`
	Status              string          `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
}

type lineRecord struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"facture_id"`
	Product     string          `json:"product"`
	ProductCode string          `json:"product_code,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

type anomalyRecord struct {
	ID             int64           `json:"id"`
	InvoiceID      int64           `json:"facture_id"`
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Severity       string          `json:"severity"`
	Resolved       bool            `json:"resolved"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	ResolutionNote string          `json:"resolution_note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Formas de parámetros persistidas, una por tipo de condición.
type (
	freeShippingRecord struct {
		Threshold decimal.Decimal `json:"threshold"`
	}
	volumeTierRecord struct {
		MinAmount decimal.Decimal `json:"min_amount"`
		Rate      decimal.Decimal `json:"rate"`
	}
	volumeTiersRecord struct {
		Tiers []volumeTierRecord `json:"tiers"`
	}
	rangeRateRecord struct {
		Range string          `json:"range"`
		Rate  decimal.Decimal `json:"rate"`
	}
	rangeDiscountRecord struct {
		Ranges []rangeRateRecord `json:"ranges"`
	}
	yearEndRebateRecord struct {
		Target decimal.Decimal `json:"target"`
		Rate   decimal.Decimal `json:"rate"`
	}
)

func encodeParams(p entity.ConditionParams) (json.RawMessage, error) {
	var v any
	switch x := p.(type) {
	case entity.FreeShippingParams:
		v = freeShippingRecord{Threshold: x.Threshold}
	case entity.VolumeTiersParams:
		r := volumeTiersRecord{Tiers: make([]volumeTierRecord, 0, len(x.Tiers))}
		for _, t := range x.Tiers {
			r.Tiers = append(r.Tiers, volumeTierRecord{MinAmount: t.MinAmount, Rate: t.Rate})
		}
		v = r
	case entity.RangeDiscountParams:
		r := rangeDiscountRecord{Ranges: make([]rangeRateRecord, 0, len(x.Ranges))}
		for _, rr := range x.Ranges {
			r.Ranges = append(r.Ranges, rangeRateRecord{Range: rr.Range, Rate: rr.Rate})
		}
		v = r
	case entity.YearEndRebateParams:
		v = yearEndRebateRecord{Target: x.Target, Rate: x.Rate}
	default:
		return nil, fmt.Errorf("forma de parámetros desconocida %T", p)
	}
	return json.Marshal(v)
}

// decodeParams decodifica la bolsa de parámetros según el tipo de condición.
func decodeParams(t entity.ConditionType, raw []byte) (entity.ConditionParams, error) {
	switch t {
	case entity.ConditionFreeShipping:
		var r freeShippingRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return entity.FreeShippingParams{Threshold: r.Threshold}, nil
	case entity.ConditionVolumeTiers:
		var r volumeTiersRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		p := entity.VolumeTiersParams{Tiers: make([]entity.VolumeTier, 0, len(r.Tiers))}
		for _, tr := range r.Tiers {
			p.Tiers = append(p.Tiers, entity.VolumeTier{MinAmount: tr.MinAmount, Rate: tr.Rate})
		}
		return p, nil
	case entity.ConditionRangeDiscount:
		var r rangeDiscountRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		p := entity.RangeDiscountParams{Ranges: make([]entity.RangeRate, 0, len(r.Ranges))}
		for _, rr := range r.Ranges {
			p.Ranges = append(p.Ranges, entity.RangeRate{Range: rr.Range, Rate: rr.Rate})
		}
		return p, nil
	case entity.ConditionYearEndRebate:
		var r yearEndRebateRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return entity.YearEndRebateParams{Target: r.Target, Rate: r.Rate}, nil
	default:
		return nil, fmt.Errorf("tipo de condición desconocido %q", t)
	}
}

// encodeSnapshot serializa el estado con colecciones ordenadas por ID.
func encodeSnapshot(st *state) ([]byte, error) {
	snap := snapshotV2{
		SchemaVersion: SchemaVersion,
		Suppliers:     make([]supplierRecord, 0, len(st.suppliers)),
		Conditions:    make([]conditionRecord, 0, len(st.conditions)),
		Invoices:      make([]invoiceRecord, 0, len(st.invoices)),
		Lines:         make([]lineRecord, 0, len(st.lines)),
		Anomalies:     make([]anomalyRecord, 0, len(st.anomalies)),
		NextIDs:       st.next,
	}
	for _, id := range sortedKeys(st.suppliers) {
		s := st.suppliers[id]
		snap.Suppliers = append(snap.Suppliers, supplierRecord{
			ID: s.ID, Name: s.Name, Kind: string(s.Kind),
			BaseDiscountRate: s.BaseDiscountRate, CooperativeRate: s.CooperativeRate,
			CashDiscountRate: s.CashDiscountRate, FrancoThreshold: s.FrancoThreshold,
			RangeDiscountEnabled: s.RangeDiscountEnabled, QuantityDiscountEnabled: s.QuantityDiscountEnabled,
			YearEndRebateEnabled: s.YearEndRebateEnabled, Active: s.Active, Notes: s.Notes,
			CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
		})
	}
	for _, id := range sortedKeys(st.conditions) {
		c := st.conditions[id]
		params, err := encodeParams(c.Params)
		if err != nil {
			return nil, fmt.Errorf("condición %d: %w", c.ID, err)
		}
		snap.Conditions = append(snap.Conditions, conditionRecord{
			ID: c.ID, SupplierID: c.SupplierID, Type: string(c.Type), Name: c.Name,
			Description: c.Description, Params: params, Active: c.Active,
			DateStart: c.DateStart, DateEnd: c.DateEnd, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
		})
	}
	for _, id := range sortedKeys(st.invoices) {
		i := st.invoices[id]
		snap.Invoices = append(snap.Invoices, invoiceRecord{
			ID: i.ID, Number: i.Number, Date: i.Date, SupplierID: i.SupplierID,
			GrossAmount: i.GrossAmount, LineDiscountTotal: i.LineDiscountTotal,
			FooterDiscountTotal: i.FooterDiscountTotal, NetAmount: i.NetAmount,
			Status: string(i.Status), CreatedAt: i.CreatedAt,
		})
	}
	for _, id := range sortedKeys(st.lines) {
		l := st.lines[id]
		snap.Lines = append(snap.Lines, lineRecord{
			ID: l.ID, InvoiceID: l.InvoiceID, Product: l.Product, ProductCode: l.ProductCode,
			Quantity: l.Quantity, UnitPrice: l.UnitPrice, DiscountPct: l.DiscountPct, NetAmount: l.NetAmount,
		})
	}
	for _, id := range sortedKeys(st.anomalies) {
		a := st.anomalies[id]
		snap.Anomalies = append(snap.Anomalies, anomalyRecord{
			ID: a.ID, InvoiceID: a.InvoiceID, Type: string(a.Type), Description: a.Description,
			Amount: a.Amount, Severity: a.Severity.String(), Resolved: a.Resolved,
			ResolvedAt: a.ResolvedAt, ResolutionNote: a.ResolutionNote, CreatedAt: a.CreatedAt,
		})
	}
	return json.Marshal(snap)
}

// decodeSnapshot reconstruye el estado desde un snapshot v2. Cualquier registro incoherente invalida el snapshot.
func decodeSnapshot(raw []byte) (*state, error) {
	var snap snapshotV2
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("snapshot ilegible: %w", err)
	}
	if snap.SchemaVersion < SchemaVersion {
		return nil, fmt.Errorf("schema_version %d en clave v2", snap.SchemaVersion)
	}
	st := newState()
	for _, r := range snap.Suppliers {
		st.suppliers[r.ID] = &entity.Supplier{
			ID: r.ID, Name: r.Name, Kind: entity.SupplierKind(r.Kind),
			BaseDiscountRate: r.BaseDiscountRate, CooperativeRate: r.CooperativeRate,
			CashDiscountRate: r.CashDiscountRate, FrancoThreshold: r.FrancoThreshold,
			RangeDiscountEnabled: r.RangeDiscountEnabled, QuantityDiscountEnabled: r.QuantityDiscountEnabled,
			YearEndRebateEnabled: r.YearEndRebateEnabled, Active: r.Active, Notes: r.Notes,
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		}
	}
	for _, r := range snap.Conditions {
		t := entity.ConditionType(r.Type)
		params, err := decodeParams(t, r.Params)
		if err != nil {
			return nil, fmt.Errorf("condición %d: %w", r.ID, err)
		}
		st.conditions[r.ID] = &entity.Condition{
			ID: r.ID, SupplierID: r.SupplierID, Type: t, Name: r.Name, Description: r.Description,
			Params: params, Active: r.Active, DateStart: r.DateStart, DateEnd: r.DateEnd,
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		}
	}
	for _, r := range snap.Invoices {
		st.invoices[r.ID] = &entity.Invoice{
			ID: r.ID, Number: r.Number, Date: r.Date, SupplierID: r.SupplierID,
			GrossAmount: r.GrossAmount, LineDiscountTotal: r.LineDiscountTotal,
			FooterDiscountTotal: r.FooterDiscountTotal, NetAmount: r.NetAmount,
			Status: entity.InvoiceStatus(r.Status), CreatedAt: r.CreatedAt,
		}
	}
	for _, r := range snap.Lines {
		st.lines[r.ID] = &entity.InvoiceLine{
			ID: r.ID, InvoiceID: r.InvoiceID, Product: r.Product, ProductCode: r.ProductCode,
			Quantity: r.Quantity, UnitPrice: r.UnitPrice, DiscountPct: r.DiscountPct, NetAmount: r.NetAmount,
		}
	}
	for _, r := range snap.Anomalies {
		sev, err := entity.NormalizeSeverity(r.Severity)
		if err != nil {
			return nil, fmt.Errorf("anomalía %d: %w", r.ID, err)
		}
		st.anomalies[r.ID] = &entity.Anomaly{
			ID: r.ID, InvoiceID: r.InvoiceID, Type: entity.AnomalyType(r.Type), Description: r.Description,
			Amount: r.Amount, Severity: sev, Resolved: r.Resolved, ResolvedAt: r.ResolvedAt,
			ResolutionNote: r.ResolutionNote, CreatedAt: r.CreatedAt,
		}
	}
	st.next = snap.NextIDs
	st.repairCounters()
	st.reindex()
	return st, nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
