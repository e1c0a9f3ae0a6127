package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/recordstore"
)

type captureGenerator struct {
	got ClaimReport
	err error
}

func (g *captureGenerator) GenerateClaimPDF(_ context.Context, r ClaimReport) ([]byte, error) {
	g.got = r
	if g.err != nil {
		return nil, g.err
	}
	return []byte("%PDF-1.3"), nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T) (*recordstore.Store, *entity.Invoice) {
	t.Helper()
	ctx := context.Background()
	s := recordstore.New(recordstore.NewMemoryMedium(), recordstore.Options{})
	require.NoError(t, s.Initialize(ctx))
	t.Cleanup(func() { _ = s.Close() })

	sup := &entity.Supplier{Name: "OCP", Kind: entity.SupplierKindWholesaler, BaseDiscountRate: d("3"), Active: true}
	require.NoError(t, s.Suppliers().Create(ctx, sup))
	inv := &entity.Invoice{
		Number: "FA 2024/0042", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), SupplierID: sup.ID,
		GrossAmount: d("10000"), NetAmount: d("10000"),
	}
	require.NoError(t, s.Invoices().Create(ctx, inv))
	return s, inv
}

func TestDownloadClaimPDF(t *testing.T) {
	ctx := context.Background()
	s, inv := setup(t)
	gen := &captureGenerator{}
	uc := NewClaimUseCase(s.Invoices(), s.Anomalies(), gen)
	uc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	_, _, err := uc.DownloadClaimPDF(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "sin verificar")

	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, inv.ID, []*entity.Anomaly{
		{Type: entity.AnomalyMissingDiscount, Amount: d("300"), Severity: entity.SeverityHigh},
		{Type: entity.AnomalyExcessiveDiscount, Amount: d("20"), Severity: entity.SeverityInfo},
		{Type: entity.AnomalySuspectPrice, Amount: d("12.5"), Severity: entity.SeverityLow},
	}, entity.InvoiceStatusAnomalous))
	list, err := s.Anomalies().ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	_, err = s.Anomalies().Resolve(ctx, list[2].ID, "avoir", time.Now())
	require.NoError(t, err)

	pdf, name, err := uc.DownloadClaimPDF(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(pdf))
	assert.Equal(t, "reclamacion_FA_2024_0042.pdf", name)
	assert.Len(t, gen.got.Anomalies, 2, "solo pendientes")
	assert.Equal(t, "300.00", gen.got.Recoverable.StringFixed(2))
	assert.Equal(t, "RCL-1-20240601", gen.got.Reference)
	require.NotNil(t, gen.got.Invoice.Supplier)
	assert.Equal(t, "OCP", gen.got.Invoice.Supplier.Name)
}

func TestDownloadClaimPDF_Errors(t *testing.T) {
	ctx := context.Background()
	s, inv := setup(t)
	gen := &captureGenerator{err: errors.New("fuente ausente")}
	uc := NewClaimUseCase(s.Invoices(), s.Anomalies(), gen)

	_, _, err := uc.DownloadClaimPDF(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, inv.ID, nil, entity.InvoiceStatusCompliant))
	_, _, err = uc.DownloadClaimPDF(ctx, inv.ID)
	assert.ErrorContains(t, err, "fuente ausente")

	require.NoError(t, s.Suppliers().Delete(ctx, inv.SupplierID))
	_, _, err = uc.DownloadClaimPDF(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
