package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceLineRequest línea de detalle en la creación.
type InvoiceLineRequest struct {
	Product     string          `json:"product" validate:"required"`
	ProductCode string          `json:"product_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

// CreateInvoiceRequest entrada para crear una factura con sus líneas. Date en formato YYYY-MM-DD.
type CreateInvoiceRequest struct {
	Number              string               `json:"number" validate:"required"`
	Date                string               `json:"date" validate:"required"`
	SupplierID          int64                `json:"supplier_id" validate:"required"`
	GrossAmount         decimal.Decimal      `json:"gross_amount"`
	LineDiscountTotal   decimal.Decimal      `json:"line_discount_total"`
	FooterDiscountTotal decimal.Decimal      `json:"footer_discount_total"`
	NetAmount           decimal.Decimal      `json:"net_amount"`
	Lines               []InvoiceLineRequest `json:"lines"`
}

// UpdateInvoiceRequest actualización parcial de la cabecera. Las líneas no se modifican.
type UpdateInvoiceRequest struct {
	Number              *string          `json:"number,omitempty"`
	Date                *string          `json:"date,omitempty"`
	SupplierID          *int64           `json:"supplier_id,omitempty"`
	GrossAmount         *decimal.Decimal `json:"gross_amount,omitempty"`
	LineDiscountTotal   *decimal.Decimal `json:"line_discount_total,omitempty"`
	FooterDiscountTotal *decimal.Decimal `json:"footer_discount_total,omitempty"`
	NetAmount           *decimal.Decimal `json:"net_amount,omitempty"`
}

// InvoiceLineResponse salida de una línea.
type InvoiceLineResponse struct {
	ID          int64           `json:"id"`
	Product     string          `json:"product"`
	ProductCode string          `json:"product_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

// InvoiceResponse salida de una factura enriquecida (proveedor con condiciones vigentes + líneas).
type InvoiceResponse struct {
	ID                  int64                 `json:"id"`
	Number              string                `json:"number"`
	Date                string                `json:"date"`
	SupplierID          int64                 `json:"supplier_id"`
	Supplier            *SupplierResponse     `json:"supplier,omitempty"`
	GrossAmount         decimal.Decimal       `json:"gross_amount"`
	LineDiscountTotal   decimal.Decimal       `json:"line_discount_total"`
	FooterDiscountTotal decimal.Decimal       `json:"footer_discount_total"`
	NetAmount           decimal.Decimal       `json:"net_amount"`
	Status              string                `json:"status"`
	CreatedAt           time.Time             `json:"created_at"`
	Lines               []InvoiceLineResponse `json:"lines"`
}

// InvoiceListResponse listado paginado.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// VerificationResponse resultado de una verificación: factura con su nuevo estado y anomalías persistidas.
type VerificationResponse struct {
	Invoice   InvoiceResponse   `json:"invoice"`
	Anomalies []AnomalyResponse `json:"anomalies"`
}

// VerifyAllResponse resultado de verificar todas las facturas.
type VerifyAllResponse struct {
	Verified  int      `json:"verified"`
	Compliant int      `json:"compliant"`
	Anomalous int      `json:"anomalous"`
	Failed    []string `json:"failed,omitempty"`
}
