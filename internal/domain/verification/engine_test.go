package verification_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/verification"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// testSupplier mayorista con base 3 %, cooperación 2 %, escompte 0,5 % (total 5,5 %) y franco 1500.
func testSupplier() *entity.Supplier {
	return &entity.Supplier{
		ID:               1,
		Name:             "OCP Répartition",
		Kind:             entity.SupplierKindWholesaler,
		BaseDiscountRate: d("3"),
		CooperativeRate:  d("2"),
		CashDiscountRate: d("0.5"),
		FrancoThreshold:  d("1500"),
		Active:           true,
	}
}

func testInvoice(gross, lineDisc, footerDisc, net string) *entity.Invoice {
	return &entity.Invoice{
		ID:                  10,
		Number:              "FA-2024-0001",
		Date:                time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		SupplierID:          1,
		GrossAmount:         d(gross),
		LineDiscountTotal:   d(lineDisc),
		FooterDiscountTotal: d(footerDisc),
		NetAmount:           d(net),
		Status:              entity.InvoiceStatusUnverified,
	}
}

type typeAmount struct {
	Type   entity.AnomalyType
	Amount string
}

func pairs(findings []verification.Finding) []typeAmount {
	out := make([]typeAmount, 0, len(findings))
	for _, f := range findings {
		out = append(out, typeAmount{Type: f.Type, Amount: f.Amount.StringFixed(2)})
	}
	return out
}

func render(findings []verification.Finding) string {
	var b strings.Builder
	for i, f := range findings {
		fmt.Fprintf(&b, "%d. %s amount=%s severity=%s\n   %s\n",
			i+1, f.Type, f.Amount.StringFixed(2), f.Severity, f.Description)
	}
	return b.String()
}

func verify(t *testing.T, inv *entity.Invoice, s *entity.Supplier) []verification.Finding {
	t.Helper()
	findings, err := verification.NewEngine().Verify(inv, s)
	require.NoError(t, err)
	return findings
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de referencia
// ──────────────────────────────────────────────────────────────────────────────

// Bruto 10000, descuento aplicado 500 frente a 550 esperado → un único missing_discount de 50.
func TestVerify_MissingDiscountScenario(t *testing.T) {
	findings := verify(t, testInvoice("10000.00", "300.00", "200.00", "9500.00"), testSupplier())

	require.Len(t, findings, 1)
	assert.Equal(t, entity.AnomalyMissingDiscount, findings[0].Type)
	assert.Equal(t, "50.00", findings[0].Amount.StringFixed(2))
	assert.Equal(t, entity.SeverityMedium, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "550.00")
	assert.Contains(t, findings[0].Description, "500.00")
	assert.Contains(t, findings[0].Description, "5.5 %")
}

// Descuento exacto pero neto facturado 10 por encima del esperado con bruto ≥ franco.
// Las reglas son acumulativas: la conciliación del neto también detecta la diferencia.
func TestVerify_ShippingFeeScenario(t *testing.T) {
	findings := verify(t, testInvoice("10000.00", "550.00", "0", "9460.00"), testSupplier())

	assert.Equal(t, []typeAmount{
		{entity.AnomalyCalculationMismatch, "10.00"},
		{entity.AnomalyShippingFee, "10.00"},
	}, pairs(findings))
}

func TestVerify_CompliantInvoice(t *testing.T) {
	findings := verify(t, testInvoice("10000.00", "550.00", "0", "9450.00"), testSupplier())
	assert.Empty(t, findings)
}

func TestVerify_ExcessiveDiscount(t *testing.T) {
	findings := verify(t, testInvoice("10000.00", "600.00", "0", "9400.00"), testSupplier())

	require.Len(t, findings, 1)
	assert.Equal(t, entity.AnomalyExcessiveDiscount, findings[0].Type)
	assert.Equal(t, "50.00", findings[0].Amount.StringFixed(2))
	assert.Equal(t, entity.SeverityInfo, findings[0].Severity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fronteras de tolerancia
// ──────────────────────────────────────────────────────────────────────────────

func TestDefaultTolerances_CopyDoesNotAffectEngine(t *testing.T) {
	tol := verification.DefaultTolerances()
	assert.True(t, d("5").Equal(tol.DiscountGap))
	assert.True(t, d("1").Equal(tol.NetMismatch))
	assert.True(t, d("5").Equal(tol.ShippingFee))
	assert.True(t, d("0.5").Equal(tol.LineDiscountSlack))
	assert.True(t, d("10").Equal(tol.LineGap))

	tol.DiscountGap = d("1000")
	findings := verify(t, testInvoice("10000.00", "544.99", "0", "9455.01"), testSupplier())
	assert.Equal(t, []typeAmount{{entity.AnomalyMissingDiscount, "5.01"}}, pairs(findings))
	assert.True(t, d("5").Equal(verification.DefaultTolerances().DiscountGap))
}

func TestVerify_DiscountGapBoundary(t *testing.T) {
	// Esperado 550: aplicado 545 → gap 5,00 (no dispara); 544,99 → gap 5,01 (dispara).
	assert.Empty(t, verify(t, testInvoice("10000.00", "545.00", "0", "9455.00"), testSupplier()))

	findings := verify(t, testInvoice("10000.00", "544.99", "0", "9455.01"), testSupplier())
	assert.Equal(t, []typeAmount{{entity.AnomalyMissingDiscount, "5.01"}}, pairs(findings))
}

func TestVerify_NetMismatchBoundary(t *testing.T) {
	// Neto calculado 9450. Franco sin efecto: umbral por encima del bruto.
	s := testSupplier()
	s.FrancoThreshold = d("20000")

	assert.Empty(t, verify(t, testInvoice("10000.00", "550.00", "0", "9451.00"), s))

	findings := verify(t, testInvoice("10000.00", "550.00", "0", "9451.01"), s)
	assert.Equal(t, []typeAmount{{entity.AnomalyCalculationMismatch, "1.01"}}, pairs(findings))

	findings = verify(t, testInvoice("10000.00", "550.00", "0", "9448.99"), s)
	assert.Equal(t, []typeAmount{{entity.AnomalyCalculationMismatch, "1.01"}}, pairs(findings))
}

func TestVerify_ShippingBelowFrancoIgnored(t *testing.T) {
	// Bruto 1000 < franco 1500: un neto superior no se interpreta como portes.
	s := testSupplier()
	inv := testInvoice("1000.00", "55.00", "0", "965.00")
	findings := verify(t, inv, s)
	assert.Equal(t, []typeAmount{{entity.AnomalyCalculationMismatch, "20.00"}}, pairs(findings))
}

func TestVerify_ShippingToleranceBoundary(t *testing.T) {
	s := testSupplier()
	s.FrancoThreshold = d("10000.00") // bruto == franco cuenta como alcanzado
	findings := verify(t, testInvoice("10000.00", "550.00", "0", "9455.00"), s)
	// 5,00 de exceso: no dispara portes, pero sí conciliación del neto.
	assert.Equal(t, []typeAmount{{entity.AnomalyCalculationMismatch, "5.00"}}, pairs(findings))

	findings = verify(t, testInvoice("10000.00", "550.00", "0", "9455.01"), s)
	assert.Equal(t, []typeAmount{
		{entity.AnomalyCalculationMismatch, "5.01"},
		{entity.AnomalyShippingFee, "5.01"},
	}, pairs(findings))
}

func TestVerify_LineDiscountRule(t *testing.T) {
	inv := testInvoice("10000.00", "550.00", "0", "9450.00")
	inv.Lines = []entity.InvoiceLine{
		// 2,5 no es < 3 - 0,5: se tolera.
		{Product: "SPASFON LYOC 80MG", ProductCode: "3400932936441", Quantity: d("1000"), UnitPrice: d("3.00"), DiscountPct: d("2.5")},
		// Gap 1,5 × 200 × 3 % = 9: por debajo de 10.
		{Product: "DOLIPRANE 1000MG CPR 8", ProductCode: "3400935955838", Quantity: d("200"), UnitPrice: d("1.50"), DiscountPct: d("0")},
		// Gap 2 × 500 × 2 % = 20.
		{Product: "EFFERALGAN 500MG", ProductCode: "3400934998331", Quantity: d("500"), UnitPrice: d("2.00"), DiscountPct: d("1")},
	}
	findings := verify(t, inv, testSupplier())

	require.Len(t, findings, 1)
	assert.Equal(t, entity.AnomalySuspectPrice, findings[0].Type)
	assert.Equal(t, "20.00", findings[0].Amount.StringFixed(2))
	assert.Contains(t, findings[0].Description, "EFFERALGAN 500MG")
	assert.Contains(t, findings[0].Description, "3400934998331")
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades
// ──────────────────────────────────────────────────────────────────────────────

func TestVerify_Deterministic(t *testing.T) {
	inv := multiRuleInvoice()
	s := testSupplier()
	engine := verification.NewEngine()

	first, err1 := engine.Verify(inv, s)
	second, err2 := engine.Verify(inv, s)
	require.NoError(t, err1)
	require.NoError(t, err2)

	assert.Equal(t, pairs(first), pairs(second), "mismas entradas, mismos (tipo, importe)")
	require.NotEmpty(t, first)
	assert.NotEqual(t, first[0].CorrelationID, second[0].CorrelationID, "los IDs de correlación son internos por ejecución")
}

func TestVerify_DoesNotMutateInputs(t *testing.T) {
	inv := multiRuleInvoice()
	s := testSupplier()
	before := inv.Clone()

	_ = verify(t, inv, s)
	assert.Equal(t, before, inv)
}

func TestVerify_ValidationErrors(t *testing.T) {
	engine := verification.NewEngine()

	_, err := engine.Verify(testInvoice("-1", "0", "0", "0"), testSupplier())
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = engine.Verify(testInvoice("100", "0", "0", "100"), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	s := testSupplier()
	s.BaseDiscountRate = d("101")
	_, err = engine.Verify(testInvoice("100", "0", "0", "100"), s)
	assert.ErrorIs(t, err, domain.ErrValidation)

	inv := testInvoice("100", "0", "0", "100")
	inv.Lines = []entity.InvoiceLine{{Product: "X", Quantity: d("-2"), UnitPrice: d("1")}}
	_, err = engine.Verify(inv, testSupplier())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		amount string
		want   entity.Severity
	}{
		{"0.01", entity.SeverityLow},
		{"49.99", entity.SeverityLow},
		{"50", entity.SeverityMedium},
		{"199.99", entity.SeverityMedium},
		{"200", entity.SeverityHigh},
		{"1000", entity.SeverityCritical},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, verification.SeverityFor(entity.AnomalyMissingDiscount, d(c.amount)), c.amount)
	}
	assert.Equal(t, entity.SeverityInfo, verification.SeverityFor(entity.AnomalyExcessiveDiscount, d("5000")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Golden: las cuatro reglas disparan sobre la misma factura
// ──────────────────────────────────────────────────────────────────────────────

func multiRuleInvoice() *entity.Invoice {
	inv := testInvoice("10000.00", "300.00", "100.00", "9620.00")
	inv.Lines = []entity.InvoiceLine{
		{ID: 1, InvoiceID: 10, Product: "DOLIPRANE 1000MG CPR 8", ProductCode: "3400935955838",
			Quantity: d("200"), UnitPrice: d("1.50"), DiscountPct: d("0"), NetAmount: d("300.00")},
		{ID: 2, InvoiceID: 10, Product: "EFFERALGAN 500MG", ProductCode: "3400934998331",
			Quantity: d("500"), UnitPrice: d("2.00"), DiscountPct: d("1"), NetAmount: d("990.00")},
		{ID: 3, InvoiceID: 10, Product: "SPASFON LYOC 80MG", ProductCode: "3400932936441",
			Quantity: d("100"), UnitPrice: d("4.00"), DiscountPct: d("3"), NetAmount: d("388.00")},
	}
	return inv
}

func TestVerify_Golden(t *testing.T) {
	findings := verify(t, multiRuleInvoice(), testSupplier())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "multi_rule_invoice", []byte(render(findings)))
}
