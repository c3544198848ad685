package cart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/openmart/storecore/internal/demand"
	"github.com/openmart/storecore/internal/domain"
	"github.com/openmart/storecore/internal/inventory"
	"github.com/openmart/storecore/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type cartFixture struct {
	db      *gorm.DB
	carts   *Service
	ledger  *inventory.Service
	demands *demand.Service
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	ledger := inventory.NewService(db, inventory.NewGormRepository(db))
	demands, err := demand.NewService(demand.NewGormRepository(db), ledger, notify.NopSink{}, 2)
	require.NoError(t, err)
	carts := NewService(db, NewGormRepository(db), ledger, demands)
	t.Cleanup(demands.Release)

	return &cartFixture{db: db, carts: carts, ledger: ledger, demands: demands}
}

func (f *cartFixture) addProduct(t *testing.T, price float64, qty int) string {
	t.Helper()
	id, err := f.ledger.AddProduct(context.Background(), &domain.Product{
		Name: "widget", Type: "electronics", Price: price, Quantity: qty,
	})
	require.NoError(t, err)
	return id
}

func (f *cartFixture) demandQuantity(t *testing.T, userID, productID string) int {
	t.Helper()
	rows, err := f.demands.ListDemandFor(context.Background(), productID)
	require.NoError(t, err)
	for _, d := range rows {
		if d.UserID == userID {
			return d.Quantity
		}
	}
	return 0
}

func TestAddFullyAvailable(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	pid := f.addProduct(t, 10, 10)

	res, err := f.carts.Add(ctx, "alice@shop.test", pid, 3)
	require.NoError(t, err)
	assert.Equal(t, AddedAll, res.Status)
	assert.Equal(t, 3, res.Added)
	assert.Zero(t, res.Backordered)

	// A second add accumulates on the same line.
	res, err = f.carts.Add(ctx, "alice@shop.test", pid, 2)
	require.NoError(t, err)
	assert.Equal(t, AddedAll, res.Status)

	qty, err := f.carts.ItemQuantity(ctx, "alice@shop.test", pid)
	require.NoError(t, err)
	assert.Equal(t, 5, qty)
	assert.Zero(t, f.demandQuantity(t, "alice@shop.test", pid))
}

func TestAddCapsAtStockAndBackorders(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	pid := f.addProduct(t, 10, 5)

	res, err := f.carts.Add(ctx, "alice@shop.test", pid, 8)
	require.NoError(t, err)
	assert.Equal(t, AddedPartial, res.Status)
	assert.Equal(t, 5, res.Added)
	assert.Equal(t, 3, res.Backordered)
	assert.NotEmpty(t, res.Message)

	qty, err := f.carts.ItemQuantity(ctx, "alice@shop.test", pid)
	require.NoError(t, err)
	assert.Equal(t, 5, qty, "cart line is capped at available stock")
	assert.Equal(t, 3, f.demandQuantity(t, "alice@shop.test", pid))
}

func TestAddWithNoStockBackordersEverything(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	pid := f.addProduct(t, 10, 0)

	res, err := f.carts.Add(ctx, "alice@shop.test", pid, 4)
	require.NoError(t, err)
	assert.Equal(t, AddedPartial, res.Status)
	assert.Zero(t, res.Added)
	assert.Equal(t, 4, res.Backordered)

	qty, err := f.carts.ItemQuantity(ctx, "alice@shop.test", pid)
	require.NoError(t, err)
	assert.Zero(t, qty, "no cart line when nothing is available")
	assert.Equal(t, 4, f.demandQuantity(t, "alice@shop.test", pid))
}

func TestAddRejectsNonPositiveDelta(t *testing.T) {
	f := newCartFixture(t)
	pid := f.addProduct(t, 10, 5)

	_, err := f.carts.Add(context.Background(), "alice@shop.test", pid, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.carts.Add(context.Background(), "alice@shop.test", pid, -2)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSetQuantity(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	pid := f.addProduct(t, 10, 5)

	require.NoError(t, f.carts.SetQuantity(ctx, "alice@shop.test", pid, 4))
	qty, err := f.carts.ItemQuantity(ctx, "alice@shop.test", pid)
	require.NoError(t, err)
	assert.Equal(t, 4, qty)

	// Zero deletes the line, same as RemoveAll.
	require.NoError(t, f.carts.SetQuantity(ctx, "alice@shop.test", pid, 0))
	qty, err = f.carts.ItemQuantity(ctx, "alice@shop.test", pid)
	require.NoError(t, err)
	assert.Zero(t, qty)

	err = f.carts.SetQuantity(ctx, "alice@shop.test", pid, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRemoveOne(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	pid := f.addProduct(t, 10, 5)

	_, err := f.carts.Add(ctx, "alice@shop.test", pid, 2)
	require.NoError(t, err)

	require.NoError(t, f.carts.RemoveOne(ctx, "alice@shop.test", pid))
	qty, err := f.carts.ItemQuantity(ctx, "alice@shop.test", pid)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	// Last unit removes the row entirely.
	require.NoError(t, f.carts.RemoveOne(ctx, "alice@shop.test", pid))
	items, err := f.carts.ListItems(ctx, "alice@shop.test")
	require.NoError(t, err)
	assert.Empty(t, items)

	err = f.carts.RemoveOne(ctx, "alice@shop.test", pid)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveAllIsIdempotent(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	pid := f.addProduct(t, 10, 5)

	_, err := f.carts.Add(ctx, "alice@shop.test", pid, 2)
	require.NoError(t, err)

	ok, err := f.carts.RemoveAll(ctx, "alice@shop.test", pid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.carts.RemoveAll(ctx, "alice@shop.test", pid)
	require.NoError(t, err)
	assert.True(t, ok, "removing an absent line still reports success")
}

func TestAddThenRemoveLeavesNoResidual(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	pid := f.addProduct(t, 10, 5)

	_, err := f.carts.Add(ctx, "alice@shop.test", pid, 3)
	require.NoError(t, err)
	_, err = f.carts.RemoveAll(ctx, "alice@shop.test", pid)
	require.NoError(t, err)

	var count int64
	f.db.Model(&domain.CartItem{}).Where("username = ?", "alice@shop.test").Count(&count)
	assert.Zero(t, count)
}

func TestTotalQuantityAcrossLines(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	p1 := f.addProduct(t, 10, 5)
	p2, err := f.ledger.AddProduct(ctx, &domain.Product{Name: "mug", Type: "kitchen", Price: 3, Quantity: 9})
	require.NoError(t, err)

	_, err = f.carts.Add(ctx, "alice@shop.test", p1, 2)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, "alice@shop.test", p2, 4)
	require.NoError(t, err)

	total, err := f.carts.TotalQuantity(ctx, "alice@shop.test")
	require.NoError(t, err)
	assert.Equal(t, 6, total)

	total, err = f.carts.TotalQuantity(ctx, "nobody@shop.test")
	require.NoError(t, err)
	assert.Zero(t, total)
}
