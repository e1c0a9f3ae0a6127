package verification

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// Finding anomalía no persistida. CorrelationID es interno al motor; el llamador lo descarta al persistir.
type Finding struct {
	CorrelationID uuid.UUID
	Type          entity.AnomalyType
	Description   string
	Amount        decimal.Decimal
	Severity      entity.Severity
}

// ToAnomaly convierte el hallazgo en una Anomaly sin identidad de almacén.
func (f Finding) ToAnomaly(invoiceID int64) *entity.Anomaly {
	return &entity.Anomaly{
		InvoiceID:   invoiceID,
		Type:        f.Type,
		Description: f.Description,
		Amount:      f.Amount,
		Severity:    f.Severity,
	}
}

// Engine motor de verificación. Sin estado salvo el generador de IDs de correlación.
type Engine struct {
	newID func() uuid.UUID
}

// NewEngine construye el motor.
func NewEngine() *Engine {
	return &Engine{newID: uuid.New}
}

// Verify evalúa la factura contra las condiciones del proveedor y devuelve los hallazgos en el orden
// fijo de las reglas. Supplier debe estar resuelto (no nil). Entradas numéricas fuera de rango
// devuelven domain.ErrValidation.
func (e *Engine) Verify(inv *entity.Invoice, supplier *entity.Supplier) ([]Finding, error) {
	if inv == nil {
		return nil, domain.Invalid("invoice", "requerida")
	}
	if supplier == nil {
		return nil, domain.Invalid("supplier", "requerido")
	}
	if err := checkInputs(inv, supplier); err != nil {
		return nil, err
	}

	var out []Finding
	add := func(t entity.AnomalyType, amount decimal.Decimal, desc string) {
		amount = amount.Round(2)
		out = append(out, Finding{
			CorrelationID: e.newID(),
			Type:          t,
			Description:   desc,
			Amount:        amount,
			Severity:      SeverityFor(t, amount),
		})
	}

	actual := inv.ActualDiscount()

	// 1) Descuento agregado
	rate := supplier.ExpectedRate()
	expected := inv.GrossAmount.Mul(rate).Div(hundred)
	gap := expected.Sub(actual)
	if gap.Abs().GreaterThan(tolerances.DiscountGap) {
		t := entity.AnomalyMissingDiscount
		label := "Descuento insuficiente"
		if gap.IsNegative() {
			t = entity.AnomalyExcessiveDiscount
			label = "Descuento superior al contractual"
		}
		add(t, gap.Abs(), fmt.Sprintf("%s: esperado %s € (tasa %s %%), aplicado %s €",
			label, expected.StringFixed(2), rate.String(), actual.StringFixed(2)))
	}

	// 2) Conciliación del neto
	computedNet := inv.GrossAmount.Sub(actual)
	diff := computedNet.Sub(inv.NetAmount).Abs()
	if diff.GreaterThan(tolerances.NetMismatch) {
		add(entity.AnomalyCalculationMismatch, diff, fmt.Sprintf(
			"Neto a pagar %s € distinto del neto calculado %s € (bruto %s € - descuentos %s €)",
			inv.NetAmount.StringFixed(2), computedNet.StringFixed(2), inv.GrossAmount.StringFixed(2), actual.StringFixed(2)))
	}

	// 3) Franco de portes
	if inv.GrossAmount.GreaterThanOrEqual(supplier.FrancoThreshold) {
		netExpected := inv.GrossAmount.Sub(actual)
		excess := inv.NetAmount.Sub(netExpected)
		if excess.GreaterThan(tolerances.ShippingFee) {
			add(entity.AnomalyShippingFee, excess, fmt.Sprintf(
				"Posibles gastos de envío: bruto %s € ≥ franco %s €, neto facturado %s € frente a %s € esperado",
				inv.GrossAmount.StringFixed(2), supplier.FrancoThreshold.StringFixed(2),
				inv.NetAmount.StringFixed(2), netExpected.StringFixed(2)))
		}
	}

	// 4) Descuento por línea
	floor := supplier.BaseDiscountRate.Sub(tolerances.LineDiscountSlack)
	for _, l := range inv.Lines {
		if !l.DiscountPct.LessThan(floor) {
			continue
		}
		lineGap := l.UnitPrice.Mul(l.Quantity).Mul(supplier.BaseDiscountRate.Sub(l.DiscountPct)).Div(hundred)
		if lineGap.GreaterThan(tolerances.LineGap) {
			add(entity.AnomalySuspectPrice, lineGap, fmt.Sprintf(
				"Descuento de línea %s %% inferior a la tasa base %s %% en %s (código %s)",
				l.DiscountPct.String(), supplier.BaseDiscountRate.String(), l.Product, l.ProductCode))
		}
	}

	return out, nil
}

func checkInputs(inv *entity.Invoice, s *entity.Supplier) error {
	amounts := []struct {
		field string
		v     decimal.Decimal
	}{
		{"gross_amount", inv.GrossAmount},
		{"line_discount_total", inv.LineDiscountTotal},
		{"footer_discount_total", inv.FooterDiscountTotal},
		{"net_amount", inv.NetAmount},
		{"franco_threshold", s.FrancoThreshold},
	}
	for _, a := range amounts {
		if a.v.IsNegative() {
			return domain.Invalid(a.field, "no puede ser negativo")
		}
	}
	rates := []struct {
		field string
		v     decimal.Decimal
	}{
		{"base_discount_rate", s.BaseDiscountRate},
		{"cooperative_rate", s.CooperativeRate},
		{"cash_discount_rate", s.CashDiscountRate},
	}
	for _, r := range rates {
		if r.v.IsNegative() || r.v.GreaterThan(hundred) {
			return domain.Invalid(r.field, "debe estar entre 0 y 100")
		}
	}
	for i := range inv.Lines {
		if err := inv.Lines[i].Validate(); err != nil {
			return fmt.Errorf("línea %d: %w", i, err)
		}
	}
	return nil
}
