package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// Layout legado v1: solo mayoristas con cuatro tasas planas, sin condiciones generalizadas.
type legacySnapshot struct {
	Version    *int                 `json:"version"`
	Grossistes []legacyGrossiste    `json:"grossistes"`
	Factures   []legacyFacture      `json:"factures"`
	Lignes     []legacyLigneFacture `json:"lignes_facture"`
	Anomalies  []legacyAnomalie     `json:"anomalies"`
	NextIDs    map[string]int64     `json:"next_ids"`
}

type legacyGrossiste struct {
	ID              int64           `json:"id"`
	Nom             string          `json:"nom"`
	TauxRemiseBase  decimal.Decimal `json:"taux_remise_base"`
	TauxCooperation decimal.Decimal `json:"taux_cooperation"`
	TauxEscompte    decimal.Decimal `json:"taux_escompte"`
	Franco          decimal.Decimal `json:"franco"`
	Notes           string          `json:"notes"`
	CreatedAt       legacyTime      `json:"created_at"`
	UpdatedAt       legacyTime      `json:"updated_at"`
}

type legacyFacture struct {
	ID                  int64           `json:"id"`
	Numero              string          `json:"numero"`
	Date                legacyTime      `json:"date"`
	GrossisteID         int64           `json:"grossiste_id"`
	MontantBrutHT       decimal.Decimal `json:"montant_brut_ht"`
	RemisesLigneALigne  decimal.Decimal `json:"remises_ligne_a_ligne"`
	RemisesPiedFacture  decimal.Decimal `json:"remises_pied_facture"`
	NetAPayer           decimal.Decimal `json:"net_a_payer"`
	StatutVerification  string          `json:"statut_verification"`
	CreatedAt           legacyTime      `json:"created_at"`
}

type legacyLigneFacture struct {
	ID             int64           `json:"id"`
	FactureID      int64           `json:"facture_id"`
	Designation    string          `json:"designation"`
	CIP13          string          `json:"cip13"`
	Quantite       decimal.Decimal `json:"quantite"`
	PrixUnitaireHT decimal.Decimal `json:"prix_unitaire_ht"`
	RemisePct      decimal.Decimal `json:"remise_pct"`
	MontantHT      decimal.Decimal `json:"montant_ht"`
}

type legacyAnomalie struct {
	ID           int64           `json:"id"`
	FactureID    int64           `json:"facture_id"`
	TypeAnomalie string          `json:"type_anomalie"`
	Description  string          `json:"description"`
	MontantEcart decimal.Decimal `json:"montant_ecart"`
	Severite     string          `json:"severite"`
	CreatedAt    legacyTime      `json:"created_at"`
}

// legacyTime acepta fechas "2006-01-02" y RFC 3339; vacío = cero.
type legacyTime struct{ time.Time }

var legacyLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func (t *legacyTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("fecha no textual: %s", string(b))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range legacyLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v.UTC()
			return nil
		}
	}
	return fmt.Errorf("fecha %q no reconocida", s)
}

// Códigos de anomalía legados → taxonomía actual.
var legacyAnomalyTypes = map[string]entity.AnomalyType{
	"remise_manquante":    entity.AnomalyMissingDiscount,
	"remise_insuffisante": entity.AnomalyMissingDiscount,
	"remise_excessive":    entity.AnomalyExcessiveDiscount,
	"erreur_calcul":       entity.AnomalyCalculationMismatch,
	"ecart_calcul":        entity.AnomalyCalculationMismatch,
	"franco_non_respecte": entity.AnomalyShippingFee,
	"frais_port":          entity.AnomalyShippingFee,
	"prix_suspect":        entity.AnomalySuspectPrice,
}

var legacyStatuses = map[string]entity.InvoiceStatus{
	"":            entity.InvoiceStatusUnverified,
	"non_verifie": entity.InvoiceStatusUnverified,
	"en_attente":  entity.InvoiceStatusUnverified,
	"conforme":    entity.InvoiceStatusCompliant,
	"anomalie":    entity.InvoiceStatusAnomalous,
}

func legacyAnomalyType(code string) (entity.AnomalyType, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if t := entity.AnomalyType(code); t.Valid() {
		return t, nil
	}
	if t, ok := legacyAnomalyTypes[code]; ok {
		return t, nil
	}
	return "", fmt.Errorf("tipo de anomalía legado desconocido %q", code)
}

func legacyStatus(code string) (entity.InvoiceStatus, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if s := entity.InvoiceStatus(code); s.Valid() {
		return s, nil
	}
	if s, ok := legacyStatuses[code]; ok {
		return s, nil
	}
	return "", fmt.Errorf("estado legado desconocido %q", code)
}

// MigrationReport resumen de una migración v1 → v2.
type MigrationReport struct {
	Suppliers        int
	Invoices         int
	Lines            int
	Anomalies        int
	DroppedOrphans   int
	LegacyKeyDeleted bool
}

// migrateV1 convierte un payload legado en estado v2. Cualquier dato malformado aborta con *domain.MigrationError
// sin producir estado parcial. Líneas y anomalías huérfanas (factura inexistente) se descartan.
func migrateV1(raw []byte, now time.Time) (*state, MigrationReport, error) {
	var rep MigrationReport
	fail := func(err error) (*state, MigrationReport, error) {
		return nil, MigrationReport{}, &domain.MigrationError{From: 1, Err: err}
	}

	var legacy legacySnapshot
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return fail(fmt.Errorf("payload ilegible: %w", err))
	}
	if legacy.Version != nil && *legacy.Version >= SchemaVersion {
		return fail(fmt.Errorf("versión %d inesperada en la clave legada", *legacy.Version))
	}

	st := newState()
	names := map[string]int64{}
	for _, g := range legacy.Grossistes {
		if g.ID <= 0 {
			return fail(errors.New("mayorista sin id"))
		}
		if _, dup := st.suppliers[g.ID]; dup {
			return fail(fmt.Errorf("mayorista %d duplicado", g.ID))
		}
		key := strings.ToLower(strings.TrimSpace(g.Nom))
		if prev, dup := names[key]; dup {
			return fail(fmt.Errorf("mayoristas %d y %d comparten el nombre %q", prev, g.ID, strings.TrimSpace(g.Nom)))
		}
		names[key] = g.ID
		created := orNow(g.CreatedAt.Time, now)
		s := &entity.Supplier{
			ID:               g.ID,
			Name:             strings.TrimSpace(g.Nom),
			Kind:             entity.SupplierKindWholesaler,
			BaseDiscountRate: g.TauxRemiseBase,
			CooperativeRate:  g.TauxCooperation,
			CashDiscountRate: g.TauxEscompte,
			FrancoThreshold:  g.Franco,
			Active:           true,
			Notes:            g.Notes,
			CreatedAt:        created,
			UpdatedAt:        orNow(g.UpdatedAt.Time, created),
		}
		if err := s.Validate(); err != nil {
			return fail(fmt.Errorf("mayorista %d: %w", g.ID, err))
		}
		st.suppliers[g.ID] = s
	}

	for _, f := range legacy.Factures {
		if f.ID <= 0 {
			return fail(errors.New("factura sin id"))
		}
		if _, dup := st.invoices[f.ID]; dup {
			return fail(fmt.Errorf("factura %d duplicada", f.ID))
		}
		status, err := legacyStatus(f.StatutVerification)
		if err != nil {
			return fail(fmt.Errorf("factura %d: %w", f.ID, err))
		}
		inv := &entity.Invoice{
			ID:                  f.ID,
			Number:              strings.TrimSpace(f.Numero),
			Date:                f.Date.Time,
			SupplierID:          f.GrossisteID,
			GrossAmount:         f.MontantBrutHT,
			LineDiscountTotal:   f.RemisesLigneALigne,
			FooterDiscountTotal: f.RemisesPiedFacture,
			NetAmount:           f.NetAPayer,
			Status:              status,
			CreatedAt:           orNow(f.CreatedAt.Time, now),
		}
		if err := inv.Validate(); err != nil {
			return fail(fmt.Errorf("factura %d: %w", f.ID, err))
		}
		st.invoices[f.ID] = inv
	}

	for _, l := range legacy.Lignes {
		if l.ID <= 0 {
			return fail(errors.New("línea sin id"))
		}
		if _, dup := st.lines[l.ID]; dup {
			return fail(fmt.Errorf("línea %d duplicada", l.ID))
		}
		if _, ok := st.invoices[l.FactureID]; !ok {
			rep.DroppedOrphans++
			continue
		}
		line := &entity.InvoiceLine{
			ID:          l.ID,
			InvoiceID:   l.FactureID,
			Product:     strings.TrimSpace(l.Designation),
			ProductCode: strings.TrimSpace(l.CIP13),
			Quantity:    l.Quantite,
			UnitPrice:   l.PrixUnitaireHT,
			DiscountPct: l.RemisePct,
			NetAmount:   l.MontantHT,
		}
		if err := line.Validate(); err != nil {
			return fail(fmt.Errorf("línea %d: %w", l.ID, err))
		}
		st.lines[l.ID] = line
	}

	for _, a := range legacy.Anomalies {
		if a.ID <= 0 {
			return fail(errors.New("anomalía sin id"))
		}
		if _, dup := st.anomalies[a.ID]; dup {
			return fail(fmt.Errorf("anomalía %d duplicada", a.ID))
		}
		if _, ok := st.invoices[a.FactureID]; !ok {
			rep.DroppedOrphans++
			continue
		}
		t, err := legacyAnomalyType(a.TypeAnomalie)
		if err != nil {
			return fail(fmt.Errorf("anomalía %d: %w", a.ID, err))
		}
		sev := entity.DefaultSeverity
		if strings.TrimSpace(a.Severite) != "" {
			if sev, err = entity.NormalizeSeverity(a.Severite); err != nil {
				return fail(fmt.Errorf("anomalía %d: %w", a.ID, err))
			}
		}
		st.anomalies[a.ID] = &entity.Anomaly{
			ID:          a.ID,
			InvoiceID:   a.FactureID,
			Type:        t,
			Description: a.Description,
			Amount:      a.MontantEcart.Abs(),
			Severity:    sev,
			CreatedAt:   orNow(a.CreatedAt.Time, now),
		}
	}

	st.next = NextIDs{
		Supplier:  legacy.NextIDs["grossistes"],
		Condition: 1,
		Invoice:   legacy.NextIDs["factures"],
		Line:      legacy.NextIDs["lignes_facture"],
		Anomaly:   legacy.NextIDs["anomalies"],
	}
	st.repairCounters()
	st.reindex()

	rep.Suppliers = len(st.suppliers)
	rep.Invoices = len(st.invoices)
	rep.Lines = len(st.lines)
	rep.Anomalies = len(st.anomalies)
	return st, rep, nil
}

func orNow(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}
