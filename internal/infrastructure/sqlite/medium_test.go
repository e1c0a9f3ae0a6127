package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/recordstore"
)

func openTemp(t *testing.T) (*Medium, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pharmaverif.db")
	m, err := Open(path)
	require.NoError(t, err)
	return m, path
}

func TestMedium_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	m, _ := openTemp(t)
	defer m.Close()

	_, ok, err := m.Get(ctx, "pharmaverif_db_v2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "pharmaverif_db_v2", []byte(`{"a":1}`)))
	require.NoError(t, m.Set(ctx, "pharmaverif_db_v2", []byte(`{"a":2}`)))
	raw, ok, err := m.Get(ctx, "pharmaverif_db_v2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":2}`, string(raw))

	require.NoError(t, m.Delete(ctx, "pharmaverif_db_v2"))
	_, ok, err = m.Get(ctx, "pharmaverif_db_v2")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := m.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, tableSchemaVersion, v)
}

func TestMedium_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	m, path := openTemp(t)

	s := recordstore.New(m, recordstore.Options{})
	require.NoError(t, s.Initialize(ctx))
	sup := &entity.Supplier{Name: "CERP Rouen", Kind: entity.SupplierKindWholesaler,
		BaseDiscountRate: decimal.RequireFromString("2.8"), Active: true}
	require.NoError(t, s.Suppliers().Create(ctx, sup))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	s2 := recordstore.New(reopened, recordstore.Options{})
	require.NoError(t, s2.Initialize(ctx))
	defer s2.Close()

	got, err := s2.Suppliers().GetByID(ctx, sup.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CERP Rouen", got.Name)
	assert.True(t, decimal.RequireFromString("2.8").Equal(got.BaseDiscountRate))
	assert.Equal(t, recordstore.LoadedCurrent, s2.Status().Source)
}

func TestMedium_MigratesLegacyKey(t *testing.T) {
	ctx := context.Background()
	m, _ := openTemp(t)
	require.NoError(t, m.Set(ctx, "pharmaverif_db",
		[]byte(`{"grossistes":[{"id":3,"nom":"OCP","taux_remise_base":3,"franco":1500}]}`)))

	s := recordstore.New(m, recordstore.Options{})
	require.NoError(t, s.Initialize(ctx))
	defer s.Close()

	_, ok, err := m.Get(ctx, "pharmaverif_db")
	require.NoError(t, err)
	assert.False(t, ok, "clave legada descartada")
	_, ok, err = m.Get(ctx, "pharmaverif_db_v2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), s.Status().NextIDs.Supplier)
}
