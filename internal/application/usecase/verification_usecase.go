package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/application/verification"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// VerificationUseCase expone el orquestador a los adaptadores HTTP y CLI.
type VerificationUseCase struct {
	orch     *verification.Orchestrator
	invoices *InvoiceUseCase
}

// NewVerificationUseCase construye el caso de uso.
func NewVerificationUseCase(orch *verification.Orchestrator, invoices *InvoiceUseCase) *VerificationUseCase {
	return &VerificationUseCase{orch: orch, invoices: invoices}
}

// Verify (re)verifica una factura y devuelve su nuevo estado y las anomalías persistidas.
func (uc *VerificationUseCase) Verify(ctx context.Context, invoiceID int64) (*dto.VerificationResponse, error) {
	res, err := uc.orch.Run(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	items, _ := toAnomalyResponses(res.Anomalies)
	return &dto.VerificationResponse{Invoice: *toInvoiceResponse(res.Invoice), Anomalies: items}, nil
}

// VerifyAll verifica todas las facturas en orden de ID. Un fallo en una factura no detiene el resto.
func (uc *VerificationUseCase) VerifyAll(ctx context.Context) (*dto.VerifyAllResponse, error) {
	ids, err := uc.invoices.IDs(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.VerifyAllResponse{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := uc.orch.Run(ctx, id)
		if err != nil {
			out.Failed = append(out.Failed, fmt.Sprintf("%d: %v", id, err))
			continue
		}
		out.Verified++
		if res.Invoice.Status == entity.InvoiceStatusCompliant {
			out.Compliant++
		} else {
			out.Anomalous++
		}
	}
	return out, nil
}
