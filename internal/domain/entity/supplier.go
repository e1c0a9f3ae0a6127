package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierKind tipo de proveedor.
type SupplierKind string

const (
	SupplierKindWholesaler SupplierKind = "wholesaler" // grossiste: cuatro tasas planas
	SupplierKindLaboratory SupplierKind = "laboratory" // laboratorio: condiciones generalizadas
)

// Valid indica si el tipo pertenece a la taxonomía cerrada.
func (k SupplierKind) Valid() bool {
	return k == SupplierKindWholesaler || k == SupplierKindLaboratory
}

// Supplier representa un proveedor (mayorista o laboratorio) con sus condiciones comerciales planas.
// Conditions solo se rellena en lectura (enriquecido) y contiene únicamente las condiciones vigentes.
type Supplier struct {
	ID                      int64
	Name                    string // único en el almacén
	Kind                    SupplierKind
	BaseDiscountRate        decimal.Decimal // % remise de base
	CooperativeRate         decimal.Decimal // % coopération commerciale
	CashDiscountRate        decimal.Decimal // % escompte
	FrancoThreshold         decimal.Decimal // umbral bruto a partir del cual el envío es gratuito
	RangeDiscountEnabled    bool
	QuantityDiscountEnabled bool
	YearEndRebateEnabled    bool
	Active                  bool
	Notes                   string
	CreatedAt               time.Time
	UpdatedAt               time.Time

	Conditions []Condition
}

// ExpectedRate suma de las tres tasas contractuales (base + cooperación + escompte).
func (s *Supplier) ExpectedRate() decimal.Decimal {
	return s.BaseDiscountRate.Add(s.CooperativeRate).Add(s.CashDiscountRate)
}

// Clone devuelve una copia profunda (incluye condiciones).
func (s *Supplier) Clone() *Supplier {
	if s == nil {
		return nil
	}
	c := *s
	if s.Conditions != nil {
		c.Conditions = make([]Condition, len(s.Conditions))
		for i := range s.Conditions {
			c.Conditions[i] = *s.Conditions[i].Clone()
		}
	}
	return &c
}
