package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnomalyType taxonomía fija de discrepancias detectadas por el motor.
type AnomalyType string

const (
	AnomalyMissingDiscount     AnomalyType = "missing_discount"
	AnomalyExcessiveDiscount   AnomalyType = "excessive_discount"
	AnomalyCalculationMismatch AnomalyType = "calculation_mismatch"
	AnomalyShippingFee         AnomalyType = "shipping_fee_anomaly"
	AnomalySuspectPrice        AnomalyType = "suspect_price"
)

// AnomalyTypes lista ordenada de la taxonomía (orden de las reglas del motor).
var AnomalyTypes = []AnomalyType{
	AnomalyMissingDiscount,
	AnomalyExcessiveDiscount,
	AnomalyCalculationMismatch,
	AnomalyShippingFee,
	AnomalySuspectPrice,
}

// Valid indica si el tipo pertenece a la taxonomía.
func (t AnomalyType) Valid() bool {
	for _, v := range AnomalyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Recoverable indica si el importe es reclamable al proveedor (un descuento excesivo favorece al comprador).
func (t AnomalyType) Recoverable() bool {
	return t != AnomalyExcessiveDiscount
}

// Anomaly discrepancia entre lo contractual y lo aplicado, con su importe recuperable estimado.
// Invoice se rellena en lectura (enriquecido).
type Anomaly struct {
	ID             int64
	InvoiceID      int64
	Type           AnomalyType
	Description    string
	Amount         decimal.Decimal
	Severity       Severity
	Resolved       bool
	ResolvedAt     *time.Time
	ResolutionNote string
	CreatedAt      time.Time

	Invoice *Invoice
}

// Clone devuelve una copia profunda.
func (a *Anomaly) Clone() *Anomaly {
	if a == nil {
		return nil
	}
	c := *a
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	c.Invoice = a.Invoice.Clone()
	return &c
}
