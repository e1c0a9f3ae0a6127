package verification

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// Tolerances tolerancias de política (unidades monetarias salvo LineDiscountSlack, en puntos porcentuales).
type Tolerances struct {
	DiscountGap       decimal.Decimal
	NetMismatch       decimal.Decimal
	ShippingFee       decimal.Decimal
	LineDiscountSlack decimal.Decimal
	LineGap           decimal.Decimal
}

// DefaultTolerances devuelve una copia de las tolerancias que aplica el motor.
func DefaultTolerances() Tolerances { return tolerances }

var tolerances = Tolerances{
	DiscountGap:       decimal.NewFromInt(5),
	NetMismatch:       decimal.NewFromInt(1),
	ShippingFee:       decimal.NewFromInt(5),
	LineDiscountSlack: decimal.RequireFromString("0.5"),
	LineGap:           decimal.NewFromInt(10),
}

// Umbrales de gravedad por importe.
var (
	severityMediumFrom   = decimal.NewFromInt(50)
	severityHighFrom     = decimal.NewFromInt(200)
	severityCriticalFrom = decimal.NewFromInt(1000)
)

var hundred = decimal.NewFromInt(100)

// SeverityFor asigna la gravedad de un hallazgo. Un descuento excesivo favorece al comprador: info.
func SeverityFor(t entity.AnomalyType, amount decimal.Decimal) entity.Severity {
	if t == entity.AnomalyExcessiveDiscount {
		return entity.SeverityInfo
	}
	switch {
	case amount.GreaterThanOrEqual(severityCriticalFrom):
		return entity.SeverityCritical
	case amount.GreaterThanOrEqual(severityHighFrom):
		return entity.SeverityHigh
	case amount.GreaterThanOrEqual(severityMediumFrom):
		return entity.SeverityMedium
	default:
		return entity.SeverityLow
	}
}
