package dto

import "github.com/shopspring/decimal"

// StatsResponse agregados globales.
type StatsResponse struct {
	TotalInvoices       int             `json:"total_invoices"`
	TotalAnomalies      int             `json:"total_anomalies"`
	UnresolvedAnomalies int             `json:"unresolved_anomalies"`
	RecoverableAmount   decimal.Decimal `json:"recoverable_amount"`
	ComplianceRate      decimal.Decimal `json:"compliance_rate"`
	InvoicesByStatus    map[string]int  `json:"invoices_by_status"`
	AnomaliesByType     map[string]int  `json:"anomalies_by_type"`
}
