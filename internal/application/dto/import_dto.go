package dto

// ImportResponse resultado de importar un fichero de factura.
type ImportResponse struct {
	BatchID      string                `json:"batch_id"`
	Filename     string                `json:"filename"`
	Format       string                `json:"format"`
	Invoice      InvoiceResponse       `json:"invoice"`
	Verification *VerificationResponse `json:"verification,omitempty"`
	Warnings     []string              `json:"warnings,omitempty"`
}
