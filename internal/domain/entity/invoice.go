package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado de verificación de una factura.
type InvoiceStatus string

const (
	InvoiceStatusUnverified InvoiceStatus = "unverified"
	InvoiceStatusCompliant  InvoiceStatus = "compliant"
	InvoiceStatusAnomalous  InvoiceStatus = "anomalous"
)

// Valid indica si el estado pertenece a la taxonomía cerrada.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusUnverified, InvoiceStatusCompliant, InvoiceStatusAnomalous:
		return true
	}
	return false
}

// Invoice representa la cabecera de una factura de compra.
// Supplier y Lines se rellenan en lectura (enriquecido).
type Invoice struct {
	ID                  int64
	Number              string // numero de negocio
	Date                time.Time
	SupplierID          int64
	GrossAmount         decimal.Decimal // montant brut HT
	LineDiscountTotal   decimal.Decimal // remises ligne à ligne
	FooterDiscountTotal decimal.Decimal // remises pied de facture
	NetAmount           decimal.Decimal // net à payer
	Status              InvoiceStatus
	CreatedAt           time.Time

	Lines    []InvoiceLine
	Supplier *Supplier
}

// ActualDiscount descuento efectivamente aplicado (líneas + pie).
func (i *Invoice) ActualDiscount() decimal.Decimal {
	return i.LineDiscountTotal.Add(i.FooterDiscountTotal)
}

// Clone devuelve una copia profunda (líneas y proveedor enriquecido incluidos).
func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	c := *i
	if i.Lines != nil {
		c.Lines = append([]InvoiceLine(nil), i.Lines...)
	}
	c.Supplier = i.Supplier.Clone()
	return &c
}

// InvoiceLine línea de detalle. Solo lectura una vez creada.
type InvoiceLine struct {
	ID          int64
	InvoiceID   int64
	Product     string
	ProductCode string // CIP13 / EAN
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	NetAmount   decimal.Decimal
}

// GrossAmount precio unitario × cantidad.
func (l InvoiceLine) GrossAmount() decimal.Decimal {
	return l.UnitPrice.Mul(l.Quantity)
}
