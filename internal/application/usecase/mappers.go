package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// parseDate acepta YYYY-MM-DD o RFC3339 y devuelve el día civil en UTC.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, domain.Invalid(field, fmt.Sprintf("fecha inválida %q (YYYY-MM-DD)", s))
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseOptionalDate "" = sin límite.
func parseOptionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func toSupplierResponse(s *entity.Supplier) *dto.SupplierResponse {
	if s == nil {
		return nil
	}
	conds := make([]dto.ConditionResponse, 0, len(s.Conditions))
	for i := range s.Conditions {
		conds = append(conds, *toConditionResponse(&s.Conditions[i]))
	}
	return &dto.SupplierResponse{
		ID:                      s.ID,
		Name:                    s.Name,
		Kind:                    string(s.Kind),
		BaseDiscountRate:        s.BaseDiscountRate,
		CooperativeRate:         s.CooperativeRate,
		CashDiscountRate:        s.CashDiscountRate,
		ExpectedRate:            s.ExpectedRate(),
		FrancoThreshold:         s.FrancoThreshold,
		RangeDiscountEnabled:    s.RangeDiscountEnabled,
		QuantityDiscountEnabled: s.QuantityDiscountEnabled,
		YearEndRebateEnabled:    s.YearEndRebateEnabled,
		Active:                  s.Active,
		Notes:                   s.Notes,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
		Conditions:              conds,
	}
}

func toConditionResponse(c *entity.Condition) *dto.ConditionResponse {
	return &dto.ConditionResponse{
		ID:          c.ID,
		SupplierID:  c.SupplierID,
		Type:        string(c.Type),
		Name:        c.Name,
		Description: c.Description,
		Params:      paramsToDTO(c.Params),
		Active:      c.Active,
		DateStart:   formatDate(c.DateStart),
		DateEnd:     formatDate(c.DateEnd),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func paramsToDTO(p entity.ConditionParams) dto.ConditionParamsDTO {
	var out dto.ConditionParamsDTO
	switch v := p.(type) {
	case entity.FreeShippingParams:
		t := v.Threshold
		out.Threshold = &t
	case entity.VolumeTiersParams:
		for _, tier := range v.Tiers {
			out.Tiers = append(out.Tiers, dto.VolumeTierDTO{MinAmount: tier.MinAmount, Rate: tier.Rate})
		}
	case entity.RangeDiscountParams:
		for _, r := range v.Ranges {
			out.Ranges = append(out.Ranges, dto.RangeRateDTO{Range: r.Range, Rate: r.Rate})
		}
	case entity.YearEndRebateParams:
		target, rate := v.Target, v.Rate
		out.Target, out.Rate = &target, &rate
	}
	return out
}

// paramsFromDTO construye la forma de parámetros que corresponde a t. Los campos requeridos ausentes
// son un ValidationError; los de otros tipos se ignoran.
func paramsFromDTO(t entity.ConditionType, in dto.ConditionParamsDTO) (entity.ConditionParams, error) {
	switch t {
	case entity.ConditionFreeShipping:
		if in.Threshold == nil {
			return nil, domain.Invalid("params.threshold", "requerido")
		}
		return entity.FreeShippingParams{Threshold: *in.Threshold}, nil
	case entity.ConditionVolumeTiers:
		tiers := make([]entity.VolumeTier, 0, len(in.Tiers))
		for _, tier := range in.Tiers {
			tiers = append(tiers, entity.VolumeTier{MinAmount: tier.MinAmount, Rate: tier.Rate})
		}
		return entity.VolumeTiersParams{Tiers: tiers}, nil
	case entity.ConditionRangeDiscount:
		ranges := make([]entity.RangeRate, 0, len(in.Ranges))
		for _, r := range in.Ranges {
			ranges = append(ranges, entity.RangeRate{Range: r.Range, Rate: r.Rate})
		}
		return entity.RangeDiscountParams{Ranges: ranges}, nil
	case entity.ConditionYearEndRebate:
		if in.Target == nil {
			return nil, domain.Invalid("params.target", "requerido")
		}
		if in.Rate == nil {
			return nil, domain.Invalid("params.rate", "requerido")
		}
		return entity.YearEndRebateParams{Target: *in.Target, Rate: *in.Rate}, nil
	default:
		return nil, domain.Invalid("type", fmt.Sprintf("tipo de condición desconocido %q", t))
	}
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	if inv == nil {
		return nil
	}
	lines := make([]dto.InvoiceLineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, dto.InvoiceLineResponse{
			ID:          l.ID,
			Product:     l.Product,
			ProductCode: l.ProductCode,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			NetAmount:   l.NetAmount,
		})
	}
	return &dto.InvoiceResponse{
		ID:                  inv.ID,
		Number:              inv.Number,
		Date:                inv.Date.UTC().Format(dateLayout),
		SupplierID:          inv.SupplierID,
		Supplier:            toSupplierResponse(inv.Supplier),
		GrossAmount:         inv.GrossAmount,
		LineDiscountTotal:   inv.LineDiscountTotal,
		FooterDiscountTotal: inv.FooterDiscountTotal,
		NetAmount:           inv.NetAmount,
		Status:              string(inv.Status),
		CreatedAt:           inv.CreatedAt,
		Lines:               lines,
	}
}

func toAnomalyResponse(a *entity.Anomaly) dto.AnomalyResponse {
	out := dto.AnomalyResponse{
		ID:             a.ID,
		InvoiceID:      a.InvoiceID,
		Type:           string(a.Type),
		Description:    a.Description,
		Amount:         a.Amount,
		Severity:       a.Severity.String(),
		Resolved:       a.Resolved,
		ResolvedAt:     a.ResolvedAt,
		ResolutionNote: a.ResolutionNote,
		CreatedAt:      a.CreatedAt,
	}
	if a.Invoice != nil {
		out.InvoiceNumber = a.Invoice.Number
		if a.Invoice.Supplier != nil {
			out.SupplierName = a.Invoice.Supplier.Name
		}
	}
	return out
}

func toAnomalyResponses(as []*entity.Anomaly) ([]dto.AnomalyResponse, decimal.Decimal) {
	out := make([]dto.AnomalyResponse, 0, len(as))
	total := decimal.Zero
	for _, a := range as {
		out = append(out, toAnomalyResponse(a))
		total = total.Add(a.Amount)
	}
	return out, total
}
