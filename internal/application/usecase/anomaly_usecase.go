package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// AnomalyUseCase consulta y resolución de anomalías. La creación es exclusiva del orquestador.
type AnomalyUseCase struct {
	anomalies repository.AnomalyRepository
	invoices  repository.InvoiceRepository
	now       func() time.Time
}

// NewAnomalyUseCase construye el caso de uso.
func NewAnomalyUseCase(anomalies repository.AnomalyRepository, invoices repository.InvoiceRepository) *AnomalyUseCase {
	return &AnomalyUseCase{anomalies: anomalies, invoices: invoices, now: time.Now}
}

// ListByInvoice anomalías de una factura. domain.ErrNotFound si la factura no existe.
func (uc *AnomalyUseCase) ListByInvoice(ctx context.Context, invoiceID int64) (*dto.AnomalyListResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.NotFound("invoice", invoiceID)
	}
	list, err := uc.anomalies.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	items, total := toAnomalyResponses(list)
	return &dto.AnomalyListResponse{
		Items:       items,
		TotalAmount: total,
		Page:        dto.PageResponse{Limit: len(items), Total: len(items)},
	}, nil
}

// List todas las anomalías, con filtros opcionales por tipo y estado de resolución.
func (uc *AnomalyUseCase) List(ctx context.Context, in dto.AnomalyFilterRequest, page dto.PageRequest) (*dto.AnomalyListResponse, error) {
	var f repository.AnomalyFilter
	if in.Type != "" {
		t := entity.AnomalyType(strings.TrimSpace(in.Type))
		if !t.Valid() {
			return nil, domain.Invalid("type", fmt.Sprintf("tipo de anomalía desconocido %q", in.Type))
		}
		f.Type = &t
	}
	f.Resolved = in.Resolved
	list, err := uc.anomalies.List(ctx, f)
	if err != nil {
		return nil, err
	}
	page.DefaultPage()
	from, to := page.Window(len(list))
	items, _ := toAnomalyResponses(list[from:to])
	_, total := toAnomalyResponses(list)
	return &dto.AnomalyListResponse{
		Items:       items,
		TotalAmount: total,
		Page:        dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(list)},
	}, nil
}

// Resolve marca la anomalía como resuelta con una nota opcional. Resolver de nuevo sustituye la nota.
func (uc *AnomalyUseCase) Resolve(ctx context.Context, id int64, in dto.ResolveAnomalyRequest) (*dto.AnomalyResponse, error) {
	a, err := uc.anomalies.Resolve(ctx, id, strings.TrimSpace(in.Note), uc.now())
	if err != nil {
		return nil, err
	}
	out := toAnomalyResponse(a)
	return &out, nil
}
