package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// StatsUseCase agregados globales de facturas y anomalías.
type StatsUseCase struct {
	invoices  repository.InvoiceRepository
	anomalies repository.AnomalyRepository
}

// NewStatsUseCase construye el caso de uso.
func NewStatsUseCase(invoices repository.InvoiceRepository, anomalies repository.AnomalyRepository) *StatsUseCase {
	return &StatsUseCase{invoices: invoices, anomalies: anomalies}
}

// Stats calcula:
//   - importe recuperable: suma de anomalías no resueltas, sin contar descuentos excesivos;
//   - tasa de conformidad: conformes / verificadas × 100, redondeada a 2 decimales (0 sin verificadas).
func (uc *StatsUseCase) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	invoices, err := uc.invoices.List(ctx, repository.InvoiceFilter{})
	if err != nil {
		return nil, err
	}
	anomalies, err := uc.anomalies.List(ctx, repository.AnomalyFilter{})
	if err != nil {
		return nil, err
	}

	out := &dto.StatsResponse{
		TotalInvoices:     len(invoices),
		TotalAnomalies:    len(anomalies),
		RecoverableAmount: decimal.Zero,
		ComplianceRate:    decimal.Zero,
		InvoicesByStatus:  map[string]int{},
		AnomaliesByType:   map[string]int{},
	}
	for _, s := range []entity.InvoiceStatus{entity.InvoiceStatusUnverified, entity.InvoiceStatusCompliant, entity.InvoiceStatusAnomalous} {
		out.InvoicesByStatus[string(s)] = 0
	}
	for _, inv := range invoices {
		out.InvoicesByStatus[string(inv.Status)]++
	}
	for _, a := range anomalies {
		out.AnomaliesByType[string(a.Type)]++
		if a.Resolved {
			continue
		}
		out.UnresolvedAnomalies++
		if a.Type.Recoverable() {
			out.RecoverableAmount = out.RecoverableAmount.Add(a.Amount)
		}
	}

	compliant := out.InvoicesByStatus[string(entity.InvoiceStatusCompliant)]
	verified := compliant + out.InvoicesByStatus[string(entity.InvoiceStatusAnomalous)]
	if verified > 0 {
		out.ComplianceRate = decimal.NewFromInt(int64(compliant)).
			Mul(decimal.NewFromInt(100)).
			DivRound(decimal.NewFromInt(int64(verified)), 2)
	}
	return out, nil
}
