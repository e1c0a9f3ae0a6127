package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// ClaimReport datos de una reclamación al proveedor por las anomalías pendientes de una factura.
type ClaimReport struct {
	Reference   string
	GeneratedAt time.Time
	Invoice     *entity.Invoice   // enriquecida: proveedor + líneas
	Anomalies   []*entity.Anomaly // solo las no resueltas
	Recoverable decimal.Decimal   // suma de las anomalías reclamables
}

// ClaimPDFGenerator puerto de salida: genera el PDF de la reclamación (implementado con Maroto v2).
type ClaimPDFGenerator interface {
	GenerateClaimPDF(ctx context.Context, report ClaimReport) ([]byte, error)
}
