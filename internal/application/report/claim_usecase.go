package report

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// ClaimUseCase genera el PDF de reclamación de una factura verificada.
// Solo consume la superficie pública del almacén: factura enriquecida + anomalías.
type ClaimUseCase struct {
	invoices  repository.InvoiceRepository
	anomalies repository.AnomalyRepository
	generator ClaimPDFGenerator
	now       func() time.Time
}

// NewClaimUseCase construye el caso de uso inyectando todas sus dependencias.
func NewClaimUseCase(
	invoices repository.InvoiceRepository,
	anomalies repository.AnomalyRepository,
	generator ClaimPDFGenerator,
) *ClaimUseCase {
	return &ClaimUseCase{
		invoices:  invoices,
		anomalies: anomalies,
		generator: generator,
		now:       time.Now,
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DownloadClaimPDF recupera la factura y sus anomalías pendientes y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura o su proveedor no existen.
//   - domain.ErrConflict         si la factura aún no fue verificada.
func (uc *ClaimUseCase) DownloadClaimPDF(ctx context.Context, invoiceID int64) (pdfBytes []byte, filename string, err error) {
	// ── 1. Cargar factura ─────────────────────────────────────────────────────
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.NotFound("invoice", invoiceID)
	}

	// ── 2. Validar que ya fue verificada ──────────────────────────────────────
	if inv.Status == entity.InvoiceStatusUnverified {
		return nil, "", fmt.Errorf("%w: la factura %s no ha sido verificada", domain.ErrConflict, inv.Number)
	}
	if inv.Supplier == nil {
		return nil, "", domain.NotFound("supplier", inv.SupplierID)
	}

	// ── 3. Anomalías pendientes ───────────────────────────────────────────────
	all, err := uc.anomalies.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener anomalías: %w", err)
	}
	pending := make([]*entity.Anomaly, 0, len(all))
	recoverable := decimal.Zero
	for _, a := range all {
		if a.Resolved {
			continue
		}
		pending = append(pending, a)
		if a.Type.Recoverable() {
			recoverable = recoverable.Add(a.Amount)
		}
	}

	// ── 4. Generar PDF ────────────────────────────────────────────────────────
	now := uc.now()
	rep := ClaimReport{
		Reference:   fmt.Sprintf("RCL-%d-%s", inv.ID, now.Format("20060102")),
		GeneratedAt: now,
		Invoice:     inv,
		Anomalies:   pending,
		Recoverable: recoverable,
	}
	pdfBytes, err = uc.generator.GenerateClaimPDF(ctx, rep)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar: %w", err)
	}
	filename = "reclamacion_" + unsafeFilename.ReplaceAllString(inv.Number, "_") + ".pdf"
	return pdfBytes, filename, nil
}
