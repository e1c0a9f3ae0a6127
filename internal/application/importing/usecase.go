package importing

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/application/usecase"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/pkg/logger"
)

// ImportUseCase importa un fichero de factura de proveedor: lectura → conversión → creación → verificación opcional.
type ImportUseCase struct {
	parsers   map[string]Parser // por extensión: ".csv", ".xml"
	invoices  *usecase.InvoiceUseCase
	suppliers *usecase.SupplierUseCase
	verifier  *usecase.VerificationUseCase
	log       *logger.Logger
}

// NewImportUseCase construye el caso de uso. parsers se indexa por extensión en minúsculas con punto.
func NewImportUseCase(
	parsers map[string]Parser,
	invoices *usecase.InvoiceUseCase,
	suppliers *usecase.SupplierUseCase,
	verifier *usecase.VerificationUseCase,
	log *logger.Logger,
) *ImportUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ImportUseCase{parsers: parsers, invoices: invoices, suppliers: suppliers, verifier: verifier, log: log}
}

// Import lee filename desde r y crea la factura. supplierID 0 = resolver el proveedor por el nombre que indica el fichero.
func (uc *ImportUseCase) Import(ctx context.Context, supplierID int64, filename string, r io.Reader, verify bool) (*dto.ImportResponse, error) {
	batch := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(filename))
	parser, ok := uc.parsers[ext]
	if !ok {
		return nil, domain.Invalid("file", fmt.Sprintf("formato no soportado %q", ext))
	}

	parsed, err := parser.Parse(ctx, r)
	if err != nil {
		return nil, err
	}
	warnings := append([]string(nil), parsed.Warnings...)

	if supplierID <= 0 {
		if parsed.SupplierHint == "" {
			return nil, domain.Invalid("supplier_id", "requerido: el fichero no indica proveedor")
		}
		s, err := uc.suppliers.FindByName(ctx, parsed.SupplierHint)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, domain.Invalid("supplier_id", fmt.Sprintf("proveedor %q no registrado", parsed.SupplierHint))
		}
		supplierID = s.ID
	}

	inv, err := ToInvoice(parsed, supplierID)
	if err != nil {
		return nil, err
	}
	created, err := uc.invoices.CreateEntity(ctx, inv)
	if err != nil {
		return nil, err
	}
	if created.Supplier != nil && parsed.SupplierHint != "" &&
		!strings.EqualFold(strings.TrimSpace(parsed.SupplierHint), created.Supplier.Name) {
		warnings = append(warnings, fmt.Sprintf("el fichero indica el proveedor %q, importada para %q",
			parsed.SupplierHint, created.Supplier.Name))
	}

	out := &dto.ImportResponse{
		BatchID:  batch,
		Filename: filepath.Base(filename),
		Format:   parsed.Format.Kind,
		Invoice:  *created,
		Warnings: warnings,
	}
	if verify {
		res, err := uc.verifier.Verify(ctx, created.ID)
		if err != nil {
			return nil, fmt.Errorf("verificar factura importada %d: %w", created.ID, err)
		}
		out.Verification = res
		out.Invoice = res.Invoice
	}

	uc.log.Info().
		Str("batch_id", batch).
		Str("file", out.Filename).
		Str("encoding", parsed.Format.Encoding).
		Int64("invoice_id", created.ID).
		Int("lines", len(created.Lines)).
		Bool("verified", verify).
		Msg("factura importada")
	return out, nil
}
