package recordstore

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestStore(t *testing.T, m *MemoryMedium, opts ...func(*Options)) *Store {
	t.Helper()
	o := Options{Now: func() time.Time { return fixedNow }}
	for _, fn := range opts {
		fn(&o)
	}
	s := New(m, o)
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func wholesaler(name string) *entity.Supplier {
	return &entity.Supplier{
		Name:             name,
		Kind:             entity.SupplierKindWholesaler,
		BaseDiscountRate: d("3"),
		CooperativeRate:  d("2"),
		CashDiscountRate: d("0.5"),
		FrancoThreshold:  d("1500"),
		Active:           true,
	}
}

func invoiceFor(supplierID int64, numero string) *entity.Invoice {
	return &entity.Invoice{
		Number:            numero,
		Date:              time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		SupplierID:        supplierID,
		GrossAmount:       d("1000"),
		LineDiscountTotal: d("55"),
		NetAmount:         d("945"),
		Lines: []entity.InvoiceLine{
			{Product: "DOLIPRANE 1000MG", ProductCode: "3400935955838", Quantity: d("100"), UnitPrice: d("5"), DiscountPct: d("5.5"), NetAmount: d("472.50")},
			{Product: "SPASFON 80MG", ProductCode: "3400932936441", Quantity: d("100"), UnitPrice: d("5"), DiscountPct: d("5.5"), NetAmount: d("472.50")},
		},
	}
}

func TestStore_NotInitialized(t *testing.T) {
	s := New(NewMemoryMedium(), Options{})
	_, err := s.Suppliers().List(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)

	require.NoError(t, s.Initialize(context.Background()))
	assert.Error(t, s.Initialize(context.Background()), "doble inicialización")

	require.NoError(t, s.Close())
	_, err = s.Invoices().GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	assert.ErrorIs(t, s.Initialize(context.Background()), ErrClosed)
}

func TestStore_IDsAreNeverReused(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	repo := s.Suppliers()

	a, b := wholesaler("OCP"), wholesaler("CERP")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Delete(ctx, b.ID))

	c := wholesaler("Alliance")
	require.NoError(t, repo.Create(ctx, c))

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, fixedNow, c.CreatedAt)
}

func TestStore_DuplicateSupplierName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	require.NoError(t, s.Suppliers().Create(ctx, wholesaler("OCP Répartition")))

	err := s.Suppliers().Create(ctx, wholesaler("  ocp répartition "))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStore_ValidationRejectedWithoutMutation(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium()
	s := newTestStore(t, m)

	inv := invoiceFor(1, "")
	assert.ErrorIs(t, s.Invoices().Create(ctx, inv), domain.ErrValidation)

	inv = invoiceFor(42, "FA-1")
	assert.ErrorIs(t, s.Invoices().Create(ctx, inv), domain.ErrNotFound)
	assert.Equal(t, 0, m.Writes())
}

func TestStore_SupplierCascadeDeletesConditions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	sup := wholesaler("OCP")
	other := wholesaler("CERP")
	require.NoError(t, s.Suppliers().Create(ctx, sup))
	require.NoError(t, s.Suppliers().Create(ctx, other))

	for _, sid := range []int64{sup.ID, sup.ID, other.ID} {
		c := &entity.Condition{SupplierID: sid, Type: entity.ConditionFreeShipping, Name: "Franco",
			Params: entity.FreeShippingParams{Threshold: d("1500")}, Active: true}
		require.NoError(t, s.Conditions().Create(ctx, c))
	}

	require.NoError(t, s.Suppliers().Delete(ctx, sup.ID))

	left, err := s.Conditions().ListBySupplier(ctx, sup.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	for id := int64(1); id <= 2; id++ {
		c, err := s.Conditions().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, c)
	}
	kept, err := s.Conditions().ListBySupplier(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.ErrorIs(t, s.Suppliers().Delete(ctx, sup.ID), domain.ErrNotFound)
}

func TestStore_InvoiceCascadeDeletesLinesAndAnomalies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	sup := wholesaler("OCP")
	require.NoError(t, s.Suppliers().Create(ctx, sup))
	inv := invoiceFor(sup.ID, "FA-1")
	keep := invoiceFor(sup.ID, "FA-2")
	require.NoError(t, s.Invoices().Create(ctx, inv))
	require.NoError(t, s.Invoices().Create(ctx, keep))

	batch := []*entity.Anomaly{{Type: entity.AnomalyMissingDiscount, Amount: d("10"), Severity: entity.SeverityLow}}
	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, inv.ID, batch, entity.InvoiceStatusAnomalous))
	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, keep.ID,
		[]*entity.Anomaly{{Type: entity.AnomalySuspectPrice, Amount: d("12"), Severity: entity.SeverityLow}},
		entity.InvoiceStatusAnomalous))

	require.NoError(t, s.Invoices().Delete(ctx, inv.ID))

	got, err := s.Invoices().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	anoms, err := s.Anomalies().ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, anoms)
	a, err := s.Anomalies().GetByID(ctx, batch[0].ID)
	require.NoError(t, err)
	assert.Nil(t, a)

	st := s.Status()
	assert.Equal(t, 2, st.Lines, "solo quedan las líneas de FA-2")
	assert.Equal(t, 1, st.Anomalies)
}

func TestStore_EnrichmentAttachesOnlyEffectiveConditions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	sup := wholesaler("OCP")
	require.NoError(t, s.Suppliers().Create(ctx, sup))

	past := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	conds := []*entity.Condition{
		{SupplierID: sup.ID, Type: entity.ConditionFreeShipping, Name: "vigente", Params: entity.FreeShippingParams{Threshold: d("1000")}, Active: true},
		{SupplierID: sup.ID, Type: entity.ConditionFreeShipping, Name: "inactiva", Params: entity.FreeShippingParams{Threshold: d("900")}, Active: false},
		{SupplierID: sup.ID, Type: entity.ConditionYearEndRebate, Name: "caducada", Params: entity.YearEndRebateParams{Target: d("100000"), Rate: d("1")}, Active: true, DateEnd: &past},
	}
	for _, c := range conds {
		require.NoError(t, s.Conditions().Create(ctx, c))
	}
	inv := invoiceFor(sup.ID, "FA-1")
	require.NoError(t, s.Invoices().Create(ctx, inv))

	got, err := s.Invoices().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Supplier)
	require.Len(t, got.Supplier.Conditions, 1)
	assert.Equal(t, "vigente", got.Supplier.Conditions[0].Name)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, inv.ID, got.Lines[0].InvoiceID)
	assert.Equal(t, entity.InvoiceStatusUnverified, got.Status)

	all, err := s.Conditions().ListBySupplier(ctx, sup.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3, "el listado por proveedor incluye las no vigentes")

	// Las lecturas devuelven copias: mutarlas no altera el almacén.
	got.Supplier.Conditions[0].Name = "mutada"
	got.Lines[0].Product = "mutada"
	again, err := s.Invoices().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "vigente", again.Supplier.Conditions[0].Name)
	assert.Equal(t, "DOLIPRANE 1000MG", again.Lines[0].Product)
}

func TestStore_InvoiceUpdateKeepsStatusAndLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	sup := wholesaler("OCP")
	require.NoError(t, s.Suppliers().Create(ctx, sup))
	inv := invoiceFor(sup.ID, "FA-1")
	require.NoError(t, s.Invoices().Create(ctx, inv))
	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, inv.ID, nil, entity.InvoiceStatusCompliant))

	upd := &entity.Invoice{ID: inv.ID, Number: "FA-1-bis", Date: inv.Date, SupplierID: sup.ID,
		GrossAmount: d("2000"), NetAmount: d("2000"), Status: entity.InvoiceStatusUnverified}
	require.NoError(t, s.Invoices().Update(ctx, upd))

	got, err := s.Invoices().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "FA-1-bis", got.Number)
	assert.Equal(t, entity.InvoiceStatusCompliant, got.Status)
	assert.Len(t, got.Lines, 2)
}

func TestStore_ReplaceForInvoice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	sup := wholesaler("OCP")
	require.NoError(t, s.Suppliers().Create(ctx, sup))
	inv := invoiceFor(sup.ID, "FA-1")
	require.NoError(t, s.Invoices().Create(ctx, inv))

	first := []*entity.Anomaly{
		{Type: entity.AnomalyMissingDiscount, Amount: d("50"), Severity: entity.SeverityMedium},
		{Type: entity.AnomalyShippingFee, Amount: d("10"), Severity: entity.SeverityLow},
	}
	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, inv.ID, first, entity.InvoiceStatusAnomalous))
	assert.Equal(t, int64(1), first[0].ID)
	assert.Equal(t, int64(2), first[1].ID)

	second := []*entity.Anomaly{{Type: entity.AnomalyMissingDiscount, Amount: d("50"), Severity: entity.SeverityMedium}}
	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, inv.ID, second, entity.InvoiceStatusAnomalous))

	got, err := s.Anomalies().ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
	require.NotNil(t, got[0].Invoice)
	require.NotNil(t, got[0].Invoice.Supplier)
	assert.Equal(t, "OCP", got[0].Invoice.Supplier.Name)

	err = s.Anomalies().ReplaceForInvoice(ctx, 99, second, entity.InvoiceStatusAnomalous)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ResolveAndFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	sup := wholesaler("OCP")
	require.NoError(t, s.Suppliers().Create(ctx, sup))
	inv := invoiceFor(sup.ID, "FA-1")
	require.NoError(t, s.Invoices().Create(ctx, inv))
	batch := []*entity.Anomaly{
		{Type: entity.AnomalyMissingDiscount, Amount: d("50"), Severity: entity.SeverityMedium},
		{Type: entity.AnomalySuspectPrice, Amount: d("20"), Severity: entity.SeverityLow},
	}
	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, inv.ID, batch, entity.InvoiceStatusAnomalous))

	at := fixedNow.Add(time.Hour)
	res, err := s.Anomalies().Resolve(ctx, batch[0].ID, "abono recibido", at)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Equal(t, at, *res.ResolvedAt)

	res, err = s.Anomalies().Resolve(ctx, batch[0].ID, "abono AV-778", at)
	require.NoError(t, err)
	assert.Equal(t, "abono AV-778", res.ResolutionNote)

	_, err = s.Anomalies().Resolve(ctx, 99, "", at)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	resolved := true
	list, err := s.Anomalies().List(ctx, repository.AnomalyFilter{Resolved: &resolved})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	typ := entity.AnomalySuspectPrice
	list, err = s.Anomalies().List(ctx, repository.AnomalyFilter{Type: &typ})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Resolved)

	status := entity.InvoiceStatusAnomalous
	invs, err := s.Invoices().List(ctx, repository.InvoiceFilter{Status: &status, SupplierID: &sup.ID})
	require.NoError(t, err)
	assert.Len(t, invs, 1)
}

func TestStore_ReloadFromMedium(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium()
	s := newTestStore(t, m)
	sup := wholesaler("OCP")
	require.NoError(t, s.Suppliers().Create(ctx, sup))
	require.NoError(t, s.Conditions().Create(ctx, &entity.Condition{SupplierID: sup.ID, Type: entity.ConditionVolumeTiers, Name: "Paliers",
		Params: entity.VolumeTiersParams{Tiers: []entity.VolumeTier{{MinAmount: d("0"), Rate: d("1")}, {MinAmount: d("5000"), Rate: d("2")}}},
		Active: true}))
	inv := invoiceFor(sup.ID, "FA-1")
	require.NoError(t, s.Invoices().Create(ctx, inv))
	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, inv.ID,
		[]*entity.Anomaly{{Type: entity.AnomalyCalculationMismatch, Amount: d("3.20"), Severity: entity.SeverityLow}},
		entity.InvoiceStatusAnomalous))
	require.NoError(t, s.Suppliers().Delete(ctx, sup.ID))
	sup2 := wholesaler("CERP")
	require.NoError(t, s.Suppliers().Create(ctx, sup2))

	reloaded := New(m, Options{Now: func() time.Time { return fixedNow }})
	require.NoError(t, reloaded.Initialize(ctx))
	assert.Equal(t, LoadedCurrent, reloaded.Status().Source)

	got, err := reloaded.Invoices().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.InvoiceStatusAnomalous, got.Status)
	assert.Nil(t, got.Supplier, "proveedor borrado")
	assert.True(t, d("1000").Equal(got.GrossAmount))
	require.Len(t, got.Lines, 2)

	anoms, err := reloaded.Anomalies().ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, anoms, 1)
	assert.Equal(t, entity.SeverityLow, anoms[0].Severity)

	sup3 := wholesaler("Alliance")
	require.NoError(t, reloaded.Suppliers().Create(ctx, sup3))
	assert.Equal(t, int64(3), sup3.ID, "el contador sobrevive a la recarga")
}

func TestStore_PersistenceFailureIsAWarning(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium()
	var seen []*domain.PersistenceWarning
	s := newTestStore(t, m, func(o *Options) {
		o.OnWarning = func(w *domain.PersistenceWarning) { seen = append(seen, w) }
	})

	m.FailWrites(errors.New("disco lleno"))
	sup := wholesaler("OCP")
	require.NoError(t, s.Suppliers().Create(ctx, sup), "el fallo de escritura no bloquea al llamador")

	got, err := s.Suppliers().GetByID(ctx, sup.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "el efecto en memoria queda aplicado")

	require.Len(t, seen, 1)
	w := s.LastWarning()
	require.NotNil(t, w)
	assert.Equal(t, "write", w.Op)
	assert.Equal(t, "pharmaverif_db_v2", w.Key)
	assert.EqualError(t, errors.Unwrap(w), "disco lleno")

	m.FailWrites(nil)
	require.NoError(t, s.Suppliers().Update(ctx, got))
	raw, ok := m.Raw("pharmaverif_db_v2")
	require.True(t, ok)
	assert.Contains(t, string(raw), `"schema_version":2`)
}

func TestStore_CorruptSnapshotIsQuarantined(t *testing.T) {
	ctx := context.Background()
	corrupt := []byte(`{"schema_version":2,"suppliers":[{"id":"x"}]}`)
	m := NewMemoryMedium()
	m.Put("pharmaverif_db_v2", corrupt)
	s := newTestStore(t, m)

	st := s.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, LoadedFresh, st.Source)
	assert.True(t, st.Quarantined)
	assert.Zero(t, st.Suppliers)
	assert.Equal(t, "pharmaverif_db_v2_corrupt", s.QuarantineKey())

	require.NoError(t, s.Suppliers().Create(ctx, wholesaler("OCP")))

	kept, ok := m.Raw("pharmaverif_db_v2_corrupt")
	require.True(t, ok, "los bytes originales sobreviven a la primera escritura")
	assert.Equal(t, corrupt, kept)
	current, ok := m.Raw("pharmaverif_db_v2")
	require.True(t, ok)
	assert.Contains(t, string(current), "OCP")
}

func TestStore_CorruptSnapshotWithoutQuarantineRefusesToStart(t *testing.T) {
	corrupt := []byte(`{"schema_version":2,"suppliers":[{"id":"x"}]}`)
	m := NewMemoryMedium()
	m.Put("pharmaverif_db_v2", corrupt)
	m.FailWrites(errors.New("solo lectura"))

	s := New(m, Options{Now: func() time.Time { return fixedNow }})
	err := s.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solo lectura")
	assert.False(t, s.Status().Ready)

	_, err = s.Suppliers().List(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	raw, _ := m.Raw("pharmaverif_db_v2")
	assert.Equal(t, corrupt, raw)
}

func TestStore_ReadFailureDoesNotWipeSnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium()
	s := newTestStore(t, m)
	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, s.Suppliers().Create(ctx, wholesaler(name)))
	}

	m.FailReads(errors.New("disco ocupado"))
	reopened := New(m, Options{Now: func() time.Time { return fixedNow }})
	err := reopened.Initialize(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disco ocupado")
	assert.Contains(t, err.Error(), "pharmaverif_db_v2")
	require.NotNil(t, reopened.LastWarning())
	assert.Equal(t, "read", reopened.LastWarning().Op)

	m.FailReads(nil)
	err = reopened.Suppliers().Create(ctx, wholesaler("D"))
	assert.ErrorIs(t, err, domain.ErrNotInitialized, "sin carga no hay escrituras")

	require.NoError(t, reopened.Initialize(ctx), "tras el fallo se puede reintentar")
	require.NoError(t, reopened.Suppliers().Create(ctx, wholesaler("D")))

	again := newTestStore(t, m)
	all, err := again.Suppliers().List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStore_ReadFailureLeavesMediumUntouched(t *testing.T) {
	m := NewMemoryMedium()
	m.FailReads(errors.New("timeout"))
	s := New(m, Options{})
	err := s.Initialize(context.Background())
	require.Error(t, err)
	assert.Zero(t, m.Writes())
}

func TestStore_CustomKeyPrefix(t *testing.T) {
	m := NewMemoryMedium()
	s := newTestStore(t, m, func(o *Options) { o.KeyPrefix = "officine" })
	require.NoError(t, s.Suppliers().Create(context.Background(), wholesaler("OCP")))

	legacy, current := s.Keys()
	assert.Equal(t, "officine_db", legacy)
	_, ok := m.Raw(current)
	assert.True(t, ok)
}

func TestStore_ConcurrentCreatesGetUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	sup := wholesaler("OCP")
	require.NoError(t, s.Suppliers().Create(ctx, sup))

	const n = 40
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv := invoiceFor(sup.ID, "FA-"+strconv.Itoa(i))
			if err := s.Invoices().Create(ctx, inv); err == nil {
				ids <- inv.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "id %d repetido", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestStore_InvoiceLockSerializes(t *testing.T) {
	s := newTestStore(t, NewMemoryMedium())

	unlock := s.LockInvoice(7)
	acquired := make(chan struct{})
	go func() {
		u := s.LockInvoice(7)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("el segundo bloqueo no debía adquirirse")
	case <-time.After(20 * time.Millisecond):
	}

	// Otra clave no se bloquea.
	s.LockSupplier(7)()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("el bloqueo no se liberó")
	}
	unlock() // idempotente
}

// ──────────────────────────────────────────────────────────────────────────────
// Migración v1 → v2
// ──────────────────────────────────────────────────────────────────────────────

func legacyFixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/legacy_v1.json")
	require.NoError(t, err)
	return raw
}

func TestStore_MigratesLegacyPayload(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium()
	m.Put("pharmaverif_db", legacyFixture(t))
	s := newTestStore(t, m)

	st := s.Status()
	assert.Equal(t, LoadedMigrated, st.Source)
	require.NotNil(t, st.Migration)
	assert.Equal(t, 3, st.Suppliers, "un proveedor por mayorista legado")
	assert.Equal(t, 1, st.Migration.DroppedOrphans)
	assert.True(t, st.Migration.LegacyKeyDeleted)
	assert.Greater(t, st.NextIDs.Supplier, int64(9))

	_, legacyLeft := m.Raw("pharmaverif_db")
	assert.False(t, legacyLeft)
	_, current := m.Raw("pharmaverif_db_v2")
	assert.True(t, current)

	sups, err := s.Suppliers().List(ctx, nil)
	require.NoError(t, err)
	for _, sup := range sups {
		assert.Equal(t, entity.SupplierKindWholesaler, sup.Kind)
		assert.True(t, sup.Active)
		assert.False(t, sup.RangeDiscountEnabled || sup.QuantityDiscountEnabled || sup.YearEndRebateEnabled)
		assert.Empty(t, sup.Conditions)
	}
	ocp, err := s.Suppliers().GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "OCP Répartition", ocp.Name)
	assert.True(t, d("5.5").Equal(ocp.ExpectedRate()))

	inv, err := s.Invoices().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inv.SupplierID)
	assert.Equal(t, entity.InvoiceStatusAnomalous, inv.Status)
	require.Len(t, inv.Lines, 1)

	anoms, err := s.Anomalies().ListByInvoice(ctx, 1)
	require.NoError(t, err)
	require.Len(t, anoms, 2)
	assert.Equal(t, entity.AnomalyMissingDiscount, anoms[0].Type)
	assert.Equal(t, entity.DefaultSeverity, anoms[0].Severity)
	assert.Equal(t, entity.AnomalyCalculationMismatch, anoms[1].Type)
	assert.Equal(t, entity.SeverityLow, anoms[1].Severity)

	next := wholesaler("Nouveau grossiste")
	require.NoError(t, s.Suppliers().Create(ctx, next))
	assert.Equal(t, int64(10), next.ID)
}

func TestStore_MigrationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium()
	m.Put("pharmaverif_db", legacyFixture(t))
	first := newTestStore(t, m)
	require.NoError(t, first.Close())

	m2 := NewMemoryMedium()
	raw, _ := m.Raw("pharmaverif_db_v2")
	m2.Put("pharmaverif_db_v2", raw)
	second := newTestStore(t, m2)

	st := second.Status()
	assert.Equal(t, LoadedCurrent, st.Source)
	assert.Nil(t, st.Migration)
	assert.Equal(t, 3, st.Suppliers)

	sups, err := second.Suppliers().List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, sups, 3)
}

func TestStore_MalformedLegacyPayloadFallsBackToFresh(t *testing.T) {
	cases := map[string]string{
		"json roto":         `{"grossistes": [`,
		"tipo desconocido":  `{"grossistes":[{"id":1,"nom":"OCP"}],"factures":[{"id":1,"numero":"F","date":"2023-01-01","grossiste_id":1}],"anomalies":[{"id":1,"facture_id":1,"type_anomalie":"inconnu"}]}`,
		"mayorista sin id":  `{"grossistes":[{"nom":"OCP"}]}`,
		"tasa fuera rango":  `{"grossistes":[{"id":1,"nom":"OCP","taux_remise_base":150}]}`,
		"fecha ilegible":    `{"grossistes":[{"id":1,"nom":"OCP","created_at":"15/03/2023"}]}`,
		"nombre repetido":   `{"grossistes":[{"id":1,"nom":"OCP"},{"id":2,"nom":" ocp "}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := NewMemoryMedium()
			m.Put("pharmaverif_db", []byte(payload))
			s := newTestStore(t, m)

			st := s.Status()
			assert.True(t, st.Ready)
			assert.Equal(t, LoadedFresh, st.Source)
			assert.Zero(t, st.Suppliers)
			_, legacyLeft := m.Raw("pharmaverif_db")
			assert.True(t, legacyLeft, "la clave legada se conserva")

			require.NoError(t, s.Suppliers().Create(ctx, wholesaler("OCP")))
		})
	}
}

func TestMigrateV1_ReturnsMigrationError(t *testing.T) {
	_, _, err := migrateV1([]byte(`{"version":2}`), fixedNow)
	var me *domain.MigrationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.From)
}

func TestMigrateV1_RejectsDuplicateSupplierNames(t *testing.T) {
	raw := []byte(`{"grossistes":[{"id":1,"nom":"CERP Rouen"},{"id":2,"nom":"OCP"},{"id":3,"nom":"cerp rouen"}]}`)
	st, _, err := migrateV1(raw, fixedNow)
	assert.Nil(t, st)
	var me *domain.MigrationError
	require.ErrorAs(t, err, &me)
	assert.Contains(t, err.Error(), "1 y 3")

	ok := []byte(`{"grossistes":[{"id":1,"nom":"CERP Rouen"},{"id":2,"nom":"CERP Rennes"}]}`)
	st, rep, err := migrateV1(ok, fixedNow)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 2, rep.Suppliers)
}

// loadInvoices rellena el estado directamente para no pagar un snapshot por alta.
func loadInvoices(t testing.TB, s *Store, invoices, linesPerInvoice int) {
	t.Helper()
	sup := wholesaler("OCP")
	require.NoError(t, s.Suppliers().Create(context.Background(), sup))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < invoices; i++ {
		inv := invoiceFor(sup.ID, "FA-"+strconv.Itoa(i))
		inv.ID = s.st.next.Invoice
		inv.Status = entity.InvoiceStatusUnverified
		s.st.next.Invoice++
		lines := inv.Lines
		inv.Lines = nil
		s.st.invoices[inv.ID] = inv
		for j := 0; j < linesPerInvoice; j++ {
			l := lines[j%len(lines)]
			l.ID = s.st.next.Line
			l.InvoiceID = inv.ID
			s.st.next.Line++
			s.st.putLine(&l)
		}
	}
}

func TestStore_ListScalesWithLineCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryMedium())
	loadInvoices(t, s, 2000, 10)

	start := time.Now()
	all, err := s.Invoices().List(ctx, repository.InvoiceFilter{})
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Len(t, all, 2000)
	assert.Less(t, elapsed, 2*time.Second)

	for _, inv := range all {
		require.Len(t, inv.Lines, 10)
		for i, l := range inv.Lines {
			assert.Equal(t, inv.ID, l.InvoiceID)
			if i > 0 {
				assert.Less(t, inv.Lines[i-1].ID, l.ID)
			}
		}
	}
}

func BenchmarkInvoiceList(b *testing.B) {
	s := New(NewMemoryMedium(), Options{Now: func() time.Time { return fixedNow }})
	require.NoError(b, s.Initialize(context.Background()))
	loadInvoices(b, s, 2000, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Invoices().List(context.Background(), repository.InvoiceFilter{}); err != nil {
			b.Fatal(err)
		}
	}
}

func TestStore_ChildIndexesMatchReload(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium()
	s := newTestStore(t, m)
	sup := wholesaler("OCP")
	other := wholesaler("CERP")
	require.NoError(t, s.Suppliers().Create(ctx, sup))
	require.NoError(t, s.Suppliers().Create(ctx, other))
	for _, sid := range []int64{sup.ID, other.ID, sup.ID} {
		c := &entity.Condition{SupplierID: sid, Type: entity.ConditionFreeShipping, Name: "Franco",
			Params: entity.FreeShippingParams{Threshold: d("1500")}, Active: true}
		require.NoError(t, s.Conditions().Create(ctx, c))
	}
	require.NoError(t, s.Conditions().Delete(ctx, 1))

	var ids []int64
	for i := 0; i < 4; i++ {
		inv := invoiceFor(sup.ID, "FA-"+strconv.Itoa(i))
		require.NoError(t, s.Invoices().Create(ctx, inv))
		ids = append(ids, inv.ID)
		batch := []*entity.Anomaly{
			{Type: entity.AnomalyMissingDiscount, Amount: d("10"), Severity: entity.SeverityLow},
			{Type: entity.AnomalySuspectPrice, Amount: d("12"), Severity: entity.SeverityLow},
		}
		require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, inv.ID, batch, entity.InvoiceStatusAnomalous))
	}
	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, ids[1],
		[]*entity.Anomaly{{Type: entity.AnomalySuspectPrice, Amount: d("3"), Severity: entity.SeverityLow}},
		entity.InvoiceStatusAnomalous))
	require.NoError(t, s.Anomalies().ReplaceForInvoice(ctx, ids[2], nil, entity.InvoiceStatusCompliant))
	require.NoError(t, s.Invoices().Delete(ctx, ids[0]))
	require.NoError(t, s.Suppliers().Delete(ctx, other.ID))

	raw, ok := m.Raw("pharmaverif_db_v2")
	require.True(t, ok)
	reloaded, err := decodeSnapshot(raw)
	require.NoError(t, err)

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Equal(t, reloaded.linesByInvoice, s.st.linesByInvoice)
	assert.Equal(t, reloaded.anomaliesByInvoice, s.st.anomaliesByInvoice)
	assert.Equal(t, reloaded.conditionsBySupplier, s.st.conditionsBySupplier)
	assert.Equal(t, []int64{3}, s.st.conditionsBySupplier[sup.ID])
	assert.Len(t, s.st.anomaliesByInvoice[ids[1]], 1)
	assert.NotContains(t, s.st.anomaliesByInvoice, ids[2])
	assert.NotContains(t, s.st.linesByInvoice, ids[0])
}
