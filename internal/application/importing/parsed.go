// Package importing convierte facturas leídas de ficheros de proveedor en entidades Invoice
// y orquesta su importación (creación + verificación opcional).
package importing

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Format metadatos del fichero de origen.
type Format struct {
	Kind     string // "csv" | "xml"
	Encoding string // "utf-8" | "windows-1252" | "iso-8859-1"
	Rows     int    // filas o elementos de línea leídos
}

// ParsedLine línea tal como aparece en el fichero. Los campos nil no estaban presentes.
type ParsedLine struct {
	Product     string
	ProductCode string
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal
	DiscountPct decimal.Decimal
	LineTotal   *decimal.Decimal // importe bruto de la línea (precio × cantidad)
	NetAmount   *decimal.Decimal
}

// ParsedTotals totales de pie de factura. nil = ausente, se deriva de las líneas.
type ParsedTotals struct {
	Gross          *decimal.Decimal
	LineDiscount   *decimal.Decimal
	FooterDiscount *decimal.Decimal
	Net            *decimal.Decimal
}

// ParsedInvoice estructura normalizada que producen los lectores de ficheros.
type ParsedInvoice struct {
	Number       string
	Date         time.Time
	SupplierHint string // nombre del proveedor tal como figura en el fichero
	Lines        []ParsedLine
	Totals       ParsedTotals
	Format       Format
	Warnings     []string
}

// Parser lector de un formato de fichero de proveedor.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (*ParsedInvoice, error)
}
