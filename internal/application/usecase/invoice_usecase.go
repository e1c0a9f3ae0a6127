package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// InvoiceUseCase casos de uso CRUD para facturas de compra.
type InvoiceUseCase struct {
	invoices  repository.InvoiceRepository
	anomalies repository.AnomalyRepository
	locker    repository.AggregateLocker
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(invoices repository.InvoiceRepository, anomalies repository.AnomalyRepository, locker repository.AggregateLocker) *InvoiceUseCase {
	return &InvoiceUseCase{invoices: invoices, anomalies: anomalies, locker: locker}
}

// Create crea la factura con sus líneas en estado unverified.
func (uc *InvoiceUseCase) Create(ctx context.Context, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	inv := &entity.Invoice{
		Number:              strings.TrimSpace(in.Number),
		Date:                date,
		SupplierID:          in.SupplierID,
		GrossAmount:         in.GrossAmount,
		LineDiscountTotal:   in.LineDiscountTotal,
		FooterDiscountTotal: in.FooterDiscountTotal,
		NetAmount:           in.NetAmount,
	}
	for _, l := range in.Lines {
		inv.Lines = append(inv.Lines, entity.InvoiceLine{
			Product:     l.Product,
			ProductCode: l.ProductCode,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			NetAmount:   l.NetAmount,
		})
	}
	return uc.CreateEntity(ctx, inv)
}

// CreateEntity persiste una factura ya construida (importación, datos de demostración) y la devuelve enriquecida.
func (uc *InvoiceUseCase) CreateEntity(ctx context.Context, inv *entity.Invoice) (*dto.InvoiceResponse, error) {
	if err := uc.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, inv.ID)
}

// GetByID obtiene la factura enriquecida.
func (uc *InvoiceUseCase) GetByID(ctx context.Context, id int64) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.NotFound("invoice", id)
	}
	return toInvoiceResponse(inv), nil
}

// Get devuelve la entidad enriquecida (para consumidores internos como el informe PDF).
func (uc *InvoiceUseCase) Get(ctx context.Context, id int64) (*entity.Invoice, []*entity.Anomaly, error) {
	inv, err := uc.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if inv == nil {
		return nil, nil, domain.NotFound("invoice", id)
	}
	anomalies, err := uc.anomalies.ListByInvoice(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return inv, anomalies, nil
}

// Update actualiza la cabecera. El estado y las líneas no cambian: hay que re-verificar.
func (uc *InvoiceUseCase) Update(ctx context.Context, id int64, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	unlock := uc.locker.LockInvoice(id)
	defer unlock()

	inv, err := uc.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.NotFound("invoice", id)
	}
	if in.Number != nil {
		inv.Number = strings.TrimSpace(*in.Number)
	}
	if in.Date != nil {
		if inv.Date, err = parseDate("date", *in.Date); err != nil {
			return nil, err
		}
	}
	if in.SupplierID != nil {
		inv.SupplierID = *in.SupplierID
	}
	if in.GrossAmount != nil {
		inv.GrossAmount = *in.GrossAmount
	}
	if in.LineDiscountTotal != nil {
		inv.LineDiscountTotal = *in.LineDiscountTotal
	}
	if in.FooterDiscountTotal != nil {
		inv.FooterDiscountTotal = *in.FooterDiscountTotal
	}
	if in.NetAmount != nil {
		inv.NetAmount = *in.NetAmount
	}
	if err := uc.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// List lista facturas filtradas por proveedor y/o estado, con paginación.
func (uc *InvoiceUseCase) List(ctx context.Context, supplierID int64, status string, page dto.PageRequest) (*dto.InvoiceListResponse, error) {
	var f repository.InvoiceFilter
	if supplierID > 0 {
		f.SupplierID = &supplierID
	}
	if status != "" {
		st := entity.InvoiceStatus(status)
		if !st.Valid() {
			return nil, domain.Invalid("status", fmt.Sprintf("estado desconocido %q", status))
		}
		f.Status = &st
	}
	list, err := uc.invoices.List(ctx, f)
	if err != nil {
		return nil, err
	}
	page.DefaultPage()
	from, to := page.Window(len(list))
	items := make([]dto.InvoiceResponse, 0, to-from)
	for _, inv := range list[from:to] {
		items = append(items, *toInvoiceResponse(inv))
	}
	return &dto.InvoiceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(list)},
	}, nil
}

// IDs devuelve los IDs de todas las facturas, en orden.
func (uc *InvoiceUseCase) IDs(ctx context.Context) ([]int64, error) {
	list, err := uc.invoices.List(ctx, repository.InvoiceFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(list))
	for _, inv := range list {
		ids = append(ids, inv.ID)
	}
	return ids, nil
}

// Delete elimina la factura y en cascada sus líneas y anomalías.
func (uc *InvoiceUseCase) Delete(ctx context.Context, id int64) error {
	unlock := uc.locker.LockInvoice(id)
	defer unlock()
	return uc.invoices.Delete(ctx, id)
}
