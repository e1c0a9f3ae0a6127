package importing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// ToInvoice convierte la factura leída en una Invoice para supplierID. Función pura.
//   - Precio unitario ausente: importe bruto de línea / cantidad (cantidad 0 = ValidationError).
//   - Neto de línea ausente: bruto × (1 − descuento/100).
//   - Totales ausentes: bruto = Σ bruto de línea, descuento de línea = Σ (bruto − neto), pie = 0,
//     neto = bruto − descuentos.
func ToInvoice(p *ParsedInvoice, supplierID int64) (*entity.Invoice, error) {
	if p == nil {
		return nil, domain.Invalid("invoice", "requerida")
	}
	if strings.TrimSpace(p.Number) == "" {
		return nil, domain.Invalid("numero", "requerido")
	}
	if p.Date.IsZero() {
		return nil, domain.Invalid("date", "requerida")
	}

	inv := &entity.Invoice{
		Number:     strings.TrimSpace(p.Number),
		Date:       p.Date,
		SupplierID: supplierID,
		Lines:      make([]entity.InvoiceLine, 0, len(p.Lines)),
	}
	gross, lineDiscount := decimal.Zero, decimal.Zero
	for i, pl := range p.Lines {
		l, err := toLine(pl)
		if err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				return nil, domain.Invalid(fmt.Sprintf("lines[%d].%s", i, ve.Field), ve.Reason)
			}
			return nil, err
		}
		lg := l.GrossAmount().Round(2)
		gross = gross.Add(lg)
		lineDiscount = lineDiscount.Add(lg.Sub(l.NetAmount))
		inv.Lines = append(inv.Lines, l)
	}

	inv.GrossAmount = orDefault(p.Totals.Gross, gross)
	inv.LineDiscountTotal = orDefault(p.Totals.LineDiscount, lineDiscount)
	inv.FooterDiscountTotal = orDefault(p.Totals.FooterDiscount, decimal.Zero)
	inv.NetAmount = orDefault(p.Totals.Net, inv.GrossAmount.Sub(inv.ActualDiscount()))
	return inv, nil
}

func toLine(pl ParsedLine) (entity.InvoiceLine, error) {
	l := entity.InvoiceLine{
		Product:     strings.TrimSpace(pl.Product),
		ProductCode: strings.TrimSpace(pl.ProductCode),
		Quantity:    pl.Quantity,
		DiscountPct: pl.DiscountPct,
	}
	if l.Product == "" {
		return l, domain.Invalid("product", "requerido")
	}
	switch {
	case pl.UnitPrice != nil:
		l.UnitPrice = *pl.UnitPrice
	case pl.LineTotal != nil:
		if pl.Quantity.IsZero() {
			return l, domain.Invalid("quantity", "cero: no se puede derivar el precio unitario")
		}
		l.UnitPrice = pl.LineTotal.DivRound(pl.Quantity, 4)
	default:
		return l, domain.Invalid("unit_price", "requerido (o importe de línea)")
	}
	if pl.NetAmount != nil {
		l.NetAmount = *pl.NetAmount
	} else {
		l.NetAmount = l.GrossAmount().Mul(hundred.Sub(l.DiscountPct)).Div(hundred).Round(2)
	}
	return l, l.Validate()
}

func orDefault(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v != nil {
		return *v
	}
	return def
}
