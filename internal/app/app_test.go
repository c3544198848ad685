package app

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/openmart/storecore/config"
	"github.com/openmart/storecore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{})
	require.NoError(t, err)

	cfg := new(config.AppConfig)
	*cfg = *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()

	a := NewApplication(cfg)
	a.OverrideDB(db)
	require.NoError(t, a.MigrateDB(false))
	a.initServices()
	t.Cleanup(a.Release)
	return a
}

func TestMigrateAndSeedProducts(t *testing.T) {
	a := newTestApp(t)
	a.checkProducts()

	var count int64
	a.DB().Model(&domain.Product{}).Count(&count)
	assert.EqualValues(t, 3, count)

	// Seeding again does not duplicate.
	a.checkProducts()
	a.DB().Model(&domain.Product{}).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestServiceWiring(t *testing.T) {
	a := newTestApp(t)

	assert.NotNil(t, a.Inventory())
	assert.NotNil(t, a.Carts())
	assert.NotNil(t, a.Demands())
	assert.NotNil(t, a.Checkout())
	assert.NotNil(t, a.Notifier())
}

func TestInitDbResetsSchema(t *testing.T) {
	a := newTestApp(t)
	a.checkProducts()

	a.InitDb()

	var count int64
	a.DB().Model(&domain.Product{}).Count(&count)
	assert.Zero(t, count)
}
