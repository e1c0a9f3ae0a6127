// Package seed genera datos de demostración sobre un almacén vacío usando solo los casos de uso públicos.
package seed

import (
	"context"
	"fmt"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/application/usecase"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/pkg/logger"
)

// Report resumen de una siembra.
type Report struct {
	Skipped      bool                   `json:"skipped"`
	Suppliers    int                    `json:"suppliers"`
	Conditions   int                    `json:"conditions"`
	Invoices     int                    `json:"invoices"`
	Verification *dto.VerifyAllResponse `json:"verification,omitempty"`
}

// Generator crea proveedores, condiciones y facturas y verifica cada factura creada.
type Generator struct {
	suppliers  *usecase.SupplierUseCase
	conditions *usecase.ConditionUseCase
	invoices   *usecase.InvoiceUseCase
	verifier   *usecase.VerificationUseCase
	log        *logger.Logger
}

// NewGenerator construye el generador.
func NewGenerator(
	suppliers *usecase.SupplierUseCase,
	conditions *usecase.ConditionUseCase,
	invoices *usecase.InvoiceUseCase,
	verifier *usecase.VerificationUseCase,
	log *logger.Logger,
) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{suppliers: suppliers, conditions: conditions, invoices: invoices, verifier: verifier, log: log.Component("seed")}
}

// IsEmpty indica si el almacén no tiene ningún proveedor.
func (g *Generator) IsEmpty(ctx context.Context) (bool, error) {
	existing, err := g.suppliers.List(ctx, "", dto.PageRequest{Limit: 1})
	if err != nil {
		return false, err
	}
	return existing.Page.Total == 0, nil
}

// SeedIfEmpty siembra el conjunto embebido solo si no hay ningún proveedor.
func (g *Generator) SeedIfEmpty(ctx context.Context) (*Report, error) {
	empty, err := g.IsEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if !empty {
		g.log.Debug().Msg("almacén con datos, siembra omitida")
		return &Report{Skipped: true}, nil
	}
	ds, err := DemoDataset()
	if err != nil {
		return nil, err
	}
	return g.Seed(ctx, ds)
}

// Seed crea el conjunto completo. Se detiene en el primer error de creación; las verificaciones
// fallidas se acumulan en Report.Verification.Failed.
func (g *Generator) Seed(ctx context.Context, ds *Dataset) (*Report, error) {
	rep := &Report{Verification: &dto.VerifyAllResponse{}}
	var created []int64

	for _, s := range ds.Suppliers {
		sup, err := g.suppliers.Create(ctx, dto.CreateSupplierRequest{
			Name:                    s.Name,
			Kind:                    s.Kind,
			BaseDiscountRate:        s.BaseDiscountRate,
			CooperativeRate:         s.CooperativeRate,
			CashDiscountRate:        s.CashDiscountRate,
			FrancoThreshold:         s.FrancoThreshold,
			RangeDiscountEnabled:    s.RangeDiscountEnabled,
			QuantityDiscountEnabled: s.QuantityDiscountEnabled,
			YearEndRebateEnabled:    s.YearEndRebateEnabled,
			Notes:                   s.Notes,
		})
		if err != nil {
			return rep, fmt.Errorf("seed: proveedor %q: %w", s.Name, err)
		}
		rep.Suppliers++

		for _, c := range s.Conditions {
			if _, err := g.conditions.Create(ctx, sup.ID, toConditionRequest(c)); err != nil {
				return rep, fmt.Errorf("seed: condición %q de %q: %w", c.Name, s.Name, err)
			}
			rep.Conditions++
		}

		for _, inv := range s.Invoices {
			out, err := g.invoices.Create(ctx, toInvoiceRequest(sup.ID, inv))
			if err != nil {
				return rep, fmt.Errorf("seed: factura %q: %w", inv.Number, err)
			}
			rep.Invoices++
			created = append(created, out.ID)
		}
	}

	for _, id := range created {
		res, err := g.verifier.Verify(ctx, id)
		if err != nil {
			rep.Verification.Failed = append(rep.Verification.Failed, fmt.Sprintf("%d: %v", id, err))
			continue
		}
		rep.Verification.Verified++
		if res.Invoice.Status == string(entity.InvoiceStatusCompliant) {
			rep.Verification.Compliant++
		} else {
			rep.Verification.Anomalous++
		}
	}

	g.log.Info().
		Int("suppliers", rep.Suppliers).
		Int("conditions", rep.Conditions).
		Int("invoices", rep.Invoices).
		Int("anomalous", rep.Verification.Anomalous).
		Msg("datos de demostración creados")
	return rep, nil
}

func toConditionRequest(c ConditionSeed) dto.CreateConditionRequest {
	p := dto.ConditionParamsDTO{Threshold: c.Params.Threshold, Target: c.Params.Target, Rate: c.Params.Rate}
	for _, t := range c.Params.Tiers {
		p.Tiers = append(p.Tiers, dto.VolumeTierDTO{MinAmount: t.MinAmount, Rate: t.Rate})
	}
	for _, r := range c.Params.Ranges {
		p.Ranges = append(p.Ranges, dto.RangeRateDTO{Range: r.Range, Rate: r.Rate})
	}
	return dto.CreateConditionRequest{
		Type:        c.Type,
		Name:        c.Name,
		Description: c.Description,
		Params:      p,
		DateStart:   c.DateStart,
		DateEnd:     c.DateEnd,
	}
}

func toInvoiceRequest(supplierID int64, in InvoiceSeed) dto.CreateInvoiceRequest {
	req := dto.CreateInvoiceRequest{
		Number:              in.Number,
		Date:                in.Date,
		SupplierID:          supplierID,
		GrossAmount:         in.GrossAmount,
		LineDiscountTotal:   in.LineDiscountTotal,
		FooterDiscountTotal: in.FooterDiscountTotal,
		NetAmount:           in.NetAmount,
	}
	for _, l := range in.Lines {
		req.Lines = append(req.Lines, dto.InvoiceLineRequest{
			Product:     l.Product,
			ProductCode: l.Code,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			NetAmount:   l.NetAmount,
		})
	}
	return req
}
