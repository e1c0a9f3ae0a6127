package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConditionType discrimina la forma de los parámetros de una condición comercial.
type ConditionType string

const (
	ConditionFreeShipping  ConditionType = "free_shipping_threshold"
	ConditionVolumeTiers   ConditionType = "volume_discount_tiers"
	ConditionRangeDiscount ConditionType = "range_discount"
	ConditionYearEndRebate ConditionType = "year_end_rebate" // RFA
)

// Valid indica si el tipo pertenece a la taxonomía cerrada.
func (t ConditionType) Valid() bool {
	switch t {
	case ConditionFreeShipping, ConditionVolumeTiers, ConditionRangeDiscount, ConditionYearEndRebate:
		return true
	}
	return false
}

// ConditionParams conjunto cerrado de formas de parámetros, una por ConditionType.
type ConditionParams interface {
	Type() ConditionType
	isConditionParams()
}

// FreeShippingParams franco: umbral bruto por encima del cual el envío debe ser gratuito.
type FreeShippingParams struct {
	Threshold decimal.Decimal
}

// VolumeTier escalón de descuento por volumen.
type VolumeTier struct {
	MinAmount decimal.Decimal
	Rate      decimal.Decimal
}

// VolumeTiersParams escalones ordenados de menor a mayor MinAmount.
type VolumeTiersParams struct {
	Tiers []VolumeTier
}

// RangeRate tasa aplicable a una gama de productos.
type RangeRate struct {
	Range string
	Rate  decimal.Decimal
}

// RangeDiscountParams descuentos por gama.
type RangeDiscountParams struct {
	Ranges []RangeRate
}

// YearEndRebateParams rappel de fin de año sobre el acumulado anual.
type YearEndRebateParams struct {
	Target decimal.Decimal
	Rate   decimal.Decimal
}

func (FreeShippingParams) Type() ConditionType  { return ConditionFreeShipping }
func (VolumeTiersParams) Type() ConditionType   { return ConditionVolumeTiers }
func (RangeDiscountParams) Type() ConditionType { return ConditionRangeDiscount }
func (YearEndRebateParams) Type() ConditionType { return ConditionYearEndRebate }

func (FreeShippingParams) isConditionParams()  {}
func (VolumeTiersParams) isConditionParams()   {}
func (RangeDiscountParams) isConditionParams() {}
func (YearEndRebateParams) isConditionParams() {}

// Condition condición comercial de un proveedor. Params debe coincidir con Type.
type Condition struct {
	ID          int64
	SupplierID  int64
	Type        ConditionType
	Name        string
	Description string
	Params      ConditionParams
	Active      bool
	DateStart   *time.Time // nil = sin inicio
	DateEnd     *time.Time // nil = sin fin; inclusivo (día completo)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsEffective indica si la condición está activa y dentro de su ventana de validez en asOf.
// La comparación se hace por día civil UTC: date_start <= día(asOf) <= date_end.
func (c *Condition) IsEffective(asOf time.Time) bool {
	if !c.Active {
		return false
	}
	day := civilDay(asOf)
	if c.DateStart != nil && civilDay(*c.DateStart).After(day) {
		return false
	}
	if c.DateEnd != nil && civilDay(*c.DateEnd).Before(day) {
		return false
	}
	return true
}

// Clone devuelve una copia profunda.
func (c *Condition) Clone() *Condition {
	out := *c
	out.Params = cloneParams(c.Params)
	if c.DateStart != nil {
		d := *c.DateStart
		out.DateStart = &d
	}
	if c.DateEnd != nil {
		d := *c.DateEnd
		out.DateEnd = &d
	}
	return &out
}

func cloneParams(p ConditionParams) ConditionParams {
	switch v := p.(type) {
	case VolumeTiersParams:
		return VolumeTiersParams{Tiers: append([]VolumeTier(nil), v.Tiers...)}
	case RangeDiscountParams:
		return RangeDiscountParams{Ranges: append([]RangeRate(nil), v.Ranges...)}
	default:
		return p
	}
}

func civilDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
