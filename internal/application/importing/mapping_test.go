package importing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func dp(s string) *decimal.Decimal { v := d(s); return &v }

var may2 = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

func TestToInvoice_DerivesMissingValues(t *testing.T) {
	p := &ParsedInvoice{
		Number: " BG-5521 ",
		Date:   may2,
		Lines: []ParsedLine{
			{Product: "AMOXICILLINE 1G", Quantity: d("20"), LineTotal: dp("100"), DiscountPct: d("10")},
			{Product: "IBUPROFENE 400", Quantity: d("3"), UnitPrice: dp("2.00"), NetAmount: dp("6.00")},
		},
	}
	inv, err := ToInvoice(p, 7)
	require.NoError(t, err)

	assert.Equal(t, "BG-5521", inv.Number)
	assert.Equal(t, int64(7), inv.SupplierID)
	require.Len(t, inv.Lines, 2)
	assert.True(t, d("5").Equal(inv.Lines[0].UnitPrice))
	assert.True(t, d("90").Equal(inv.Lines[0].NetAmount))
	assert.True(t, d("6").Equal(inv.Lines[1].NetAmount))

	assert.True(t, d("106").Equal(inv.GrossAmount))
	assert.True(t, d("10").Equal(inv.LineDiscountTotal))
	assert.True(t, inv.FooterDiscountTotal.IsZero())
	assert.True(t, d("96").Equal(inv.NetAmount))
}

func TestToInvoice_FileTotalsWin(t *testing.T) {
	p := &ParsedInvoice{
		Number: "FA-1",
		Date:   may2,
		Lines:  []ParsedLine{{Product: "X", Quantity: d("1"), UnitPrice: dp("10")}},
		Totals: ParsedTotals{Gross: dp("10000"), LineDiscount: dp("300"), FooterDiscount: dp("200"), Net: dp("9500")},
	}
	inv, err := ToInvoice(p, 1)
	require.NoError(t, err)
	assert.True(t, d("10000").Equal(inv.GrossAmount))
	assert.True(t, d("500").Equal(inv.ActualDiscount()))
	assert.True(t, d("9500").Equal(inv.NetAmount))
}

func TestToInvoice_Errors(t *testing.T) {
	tests := []struct {
		name  string
		p     *ParsedInvoice
		field string
	}{
		{"sin número", &ParsedInvoice{Date: may2}, "numero"},
		{"sin fecha", &ParsedInvoice{Number: "A"}, "date"},
		{"cantidad cero", &ParsedInvoice{Number: "A", Date: may2,
			Lines: []ParsedLine{{Product: "X", LineTotal: dp("10")}}}, "lines[0].quantity"},
		{"sin precio", &ParsedInvoice{Number: "A", Date: may2,
			Lines: []ParsedLine{{Product: "X", Quantity: d("1")}, {Product: "Y", Quantity: d("1")}}}, "lines[0].unit_price"},
		{"descuento fuera de rango", &ParsedInvoice{Number: "A", Date: may2,
			Lines: []ParsedLine{{Product: "X", Quantity: d("1"), UnitPrice: dp("1")}, {Product: "Y", Quantity: d("1"), UnitPrice: dp("1"), DiscountPct: d("120"), NetAmount: dp("0")}}}, "lines[1].discount_pct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToInvoice(tt.p, 1)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
