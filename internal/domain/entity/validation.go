package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
)

var hundred = decimal.NewFromInt(100)

func checkRate(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return domain.Invalid(field, "debe estar entre 0 y 100")
	}
	return nil
}

func checkNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return domain.Invalid(field, "no puede ser negativo")
	}
	return nil
}

// Validate comprueba campos obligatorios y rangos del proveedor.
func (s *Supplier) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return domain.Invalid("name", "requerido")
	}
	if !s.Kind.Valid() {
		return domain.Invalid("kind", fmt.Sprintf("tipo desconocido %q", s.Kind))
	}
	if err := checkRate("base_discount_rate", s.BaseDiscountRate); err != nil {
		return err
	}
	if err := checkRate("cooperative_rate", s.CooperativeRate); err != nil {
		return err
	}
	if err := checkRate("cash_discount_rate", s.CashDiscountRate); err != nil {
		return err
	}
	return checkNonNegative("franco_threshold", s.FrancoThreshold)
}

// Validate comprueba que los parámetros coincidan con el tipo y sean coherentes.
func (c *Condition) Validate() error {
	if c.SupplierID <= 0 {
		return domain.Invalid("supplier_id", "requerido")
	}
	if !c.Type.Valid() {
		return domain.Invalid("type", fmt.Sprintf("tipo desconocido %q", c.Type))
	}
	if c.Params == nil {
		return domain.Invalid("params", "requerido")
	}
	if c.Params.Type() != c.Type {
		return domain.Invalid("params", fmt.Sprintf("forma %s no corresponde al tipo %s", c.Params.Type(), c.Type))
	}
	if c.DateStart != nil && c.DateEnd != nil && c.DateEnd.Before(*c.DateStart) {
		return domain.Invalid("date_end", "anterior a date_start")
	}
	return ValidateParams(c.Params)
}

// ValidateParams valida cada forma de parámetros.
func ValidateParams(p ConditionParams) error {
	switch v := p.(type) {
	case FreeShippingParams:
		return checkNonNegative("params.threshold", v.Threshold)
	case VolumeTiersParams:
		if len(v.Tiers) == 0 {
			return domain.Invalid("params.tiers", "al menos un escalón")
		}
		for i, t := range v.Tiers {
			if err := checkNonNegative(fmt.Sprintf("params.tiers[%d].min_amount", i), t.MinAmount); err != nil {
				return err
			}
			if err := checkRate(fmt.Sprintf("params.tiers[%d].rate", i), t.Rate); err != nil {
				return err
			}
			if i > 0 && !t.MinAmount.GreaterThan(v.Tiers[i-1].MinAmount) {
				return domain.Invalid("params.tiers", "min_amount debe ser estrictamente creciente")
			}
		}
		return nil
	case RangeDiscountParams:
		if len(v.Ranges) == 0 {
			return domain.Invalid("params.ranges", "al menos una gama")
		}
		for i, r := range v.Ranges {
			if strings.TrimSpace(r.Range) == "" {
				return domain.Invalid(fmt.Sprintf("params.ranges[%d].range", i), "requerido")
			}
			if err := checkRate(fmt.Sprintf("params.ranges[%d].rate", i), r.Rate); err != nil {
				return err
			}
		}
		return nil
	case YearEndRebateParams:
		if !v.Target.IsPositive() {
			return domain.Invalid("params.target", "debe ser positivo")
		}
		return checkRate("params.rate", v.Rate)
	default:
		return domain.Invalid("params", "forma desconocida")
	}
}

// Validate comprueba cabecera y líneas de la factura.
func (i *Invoice) Validate() error {
	if strings.TrimSpace(i.Number) == "" {
		return domain.Invalid("numero", "requerido")
	}
	if i.SupplierID <= 0 {
		return domain.Invalid("supplier_id", "requerido")
	}
	if i.Date.IsZero() {
		return domain.Invalid("date", "requerida")
	}
	amounts := []struct {
		field string
		v     decimal.Decimal
	}{
		{"gross_amount", i.GrossAmount},
		{"line_discount_total", i.LineDiscountTotal},
		{"footer_discount_total", i.FooterDiscountTotal},
		{"net_amount", i.NetAmount},
	}
	for _, a := range amounts {
		if err := checkNonNegative(a.field, a.v); err != nil {
			return err
		}
	}
	if i.Status != "" && !i.Status.Valid() {
		return domain.Invalid("status", fmt.Sprintf("estado desconocido %q", i.Status))
	}
	for idx := range i.Lines {
		if err := i.Lines[idx].Validate(); err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				return domain.Invalid(fmt.Sprintf("lines[%d].%s", idx, ve.Field), ve.Reason)
			}
			return err
		}
	}
	return nil
}

// Validate comprueba cantidades, precios y porcentaje de descuento de la línea.
func (l *InvoiceLine) Validate() error {
	if err := checkNonNegative("quantity", l.Quantity); err != nil {
		return err
	}
	if err := checkNonNegative("unit_price", l.UnitPrice); err != nil {
		return err
	}
	if err := checkNonNegative("net_amount", l.NetAmount); err != nil {
		return err
	}
	return checkRate("discount_pct", l.DiscountPct)
}
