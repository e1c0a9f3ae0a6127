package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnomalyResponse salida de una anomalía, con el número de factura y el proveedor de la factura padre.
type AnomalyResponse struct {
	ID             int64           `json:"id"`
	InvoiceID      int64           `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	SupplierName   string          `json:"supplier_name,omitempty"`
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Severity       string          `json:"severity"`
	Resolved       bool            `json:"resolved"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	ResolutionNote string          `json:"resolution_note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AnomalyListResponse listado paginado con el total de importes de la selección.
type AnomalyListResponse struct {
	Items       []AnomalyResponse `json:"items"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Page        PageResponse      `json:"page"`
}

// AnomalyFilterRequest filtros de listado (?type=&resolved=).
type AnomalyFilterRequest struct {
	Type     string `query:"type"`
	Resolved *bool  `query:"resolved"`
}

// ResolveAnomalyRequest nota opcional de resolución.
type ResolveAnomalyRequest struct {
	Note string `json:"note"`
}
