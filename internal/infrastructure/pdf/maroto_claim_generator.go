// Package pdf genera la reclamación al proveedor por las anomalías pendientes de una factura.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Proveedor + tipo     │  Referencia + Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FACTURA: Número / Fecha / Estado                            │
//	│  CONDICIONES: tasas contractuales + franco                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Tipo | Descripción | Gravedad | Importe              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Bruto / Descuentos / Neto / TOTAL RECLAMADO        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con la referencia + leyenda                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharmaverif-api/internal/application/report"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 110, Blue: 80}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

var anomalyLabels = map[entity.AnomalyType]string{
	entity.AnomalyMissingDiscount:     "Descuento insuficiente",
	entity.AnomalyExcessiveDiscount:   "Descuento excesivo",
	entity.AnomalyCalculationMismatch: "Error de cálculo",
	entity.AnomalyShippingFee:         "Gastos de envío",
	entity.AnomalySuspectPrice:        "Precio sospechoso",
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ report.ClaimPDFGenerator = (*MarotoClaimGenerator)(nil)

// MarotoClaimGenerator implementa report.ClaimPDFGenerator usando Maroto v2.
type MarotoClaimGenerator struct {
	// Buyer nombre de la farmacia que reclama (autor del documento).
	Buyer string
}

// NewMarotoClaimGenerator construye el generador.
func NewMarotoClaimGenerator(buyer string) *MarotoClaimGenerator {
	return &MarotoClaimGenerator{Buyer: buyer}
}

// GenerateClaimPDF genera el PDF y devuelve sus bytes.
func (g *MarotoClaimGenerator) GenerateClaimPDF(_ context.Context, rep report.ClaimReport) ([]byte, error) {
	if rep.Invoice == nil || rep.Invoice.Supplier == nil {
		return nil, fmt.Errorf("pdf: factura sin proveedor resuelto")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reclamación "+rep.Reference, true).
		WithAuthor(nonEmpty(g.Buyer, "PharmaVerif"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(invoiceRow(rep.Invoice))
	m.AddRows(conditionsRow(rep.Invoice.Supplier))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(rep.Anomalies)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(rep))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(rep)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: proveedor (izq) y referencia + fecha (der).
func headerRow(rep report.ClaimReport) core.Row {
	s := rep.Invoice.Supplier
	kind := "Mayorista"
	if s.Kind == entity.SupplierKindLaboratory {
		kind = "Laboratorio"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(s.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(kind, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("RECLAMACIÓN DE DESCUENTOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(rep.Reference, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+rep.GeneratedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// invoiceRow: datos de la factura reclamada.
func invoiceRow(inv *entity.Invoice) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("N° %s   |   Fecha: %s   |   Líneas: %d   |   Estado: %s",
				inv.Number,
				inv.Date.Format("02/01/2006"),
				len(inv.Lines),
				inv.Status,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// conditionsRow: condiciones contractuales aplicadas por el motor.
func conditionsRow(s *entity.Supplier) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CONDICIONES CONTRACTUALES", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Base %s %%   |   Cooperación %s %%   |   Escompte %s %%   |   Total %s %%   |   Franco %s",
				s.BaseDiscountRate.String(),
				s.CooperativeRate.String(),
				s.CashDiscountRate.String(),
				s.ExpectedRate().String(),
				formatMoney(s.FrancoThreshold),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de anomalías.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Tipo", 2, align.Left),
		h("Descripción", 6, align.Left),
		h("Gravedad", 2, align.Center),
		h("Importe", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por anomalía pendiente.
func tableDetailRows(anomalies []*entity.Anomaly) []core.Row {
	if len(anomalies) == 0 {
		return []core.Row{row.New(8).Add(col.New(12).Add(
			text.New("Sin anomalías pendientes: la factura es conforme a las condiciones.", props.Text{
				Size: 8, Align: align.Center, Top: 2, Color: colorGray,
			}),
		))}
	}
	result := make([]core.Row, 0, len(anomalies))
	for _, a := range anomalies {
		amountColor := colorAlert
		if !a.Type.Recoverable() {
			amountColor = colorGray
		}
		result = append(result, row.New(10).Add(
			col.New(2).Add(text.New(
				nonEmpty(anomalyLabels[a.Type], string(a.Type)),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(6).Add(text.New(
				a.Description,
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				a.Severity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				formatMoney(a.Amount),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1, Color: amountColor},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(rep report.ClaimReport) core.Row {
	inv := rep.Invoice
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := func(s string, right float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: right, Top: 18,
		})
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Bruto:"),
			text.New("Descuentos aplicados:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 6}),
			text.New("Neto facturado:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 12}),
			grand("TOTAL RECLAMADO:", 2),
		),
		col.New(3).Add(
			value(formatMoney(inv.GrossAmount), 0),
			value(formatMoney(inv.ActualDiscount()), 6),
			value(formatMoney(inv.NetAmount), 12),
			grand(formatMoney(rep.Recoverable), 1),
		),
		col.New(3),
	)
}

// footerRows: QR con la referencia + leyenda.
func footerRows(rep report.ClaimReport) []core.Row {
	qr := strings.Join([]string{
		"PHARMAVERIF",
		rep.Reference,
		"factura=" + rep.Invoice.Number,
		"reclamado=" + rep.Recoverable.StringFixed(2),
	}, "|")
	return []core.Row{
		row.New(40).Add(
			col.New(3).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
			col.New(9).Add(
				text.New("Solicitamos la emisión de un abono por el importe reclamado.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("Importes calculados sobre las condiciones comerciales vigentes\na la fecha de verificación.", props.Text{
					Size: 7, Top: 14, Left: 3, Color: colorGray,
				}),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea un importe en euros con puntos de miles y coma decimal.
// Ej: 25000 → "25.000,00 €", -1234.5 → "-1.234,50 €"
func formatMoney(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	sign := ""
	if v.IsNegative() {
		sign = "-"
	}
	return sign + string(buf) + "," + frac + " €"
}
