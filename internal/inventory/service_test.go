package inventory

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/openmart/storecore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewService(db, NewGormRepository(db)), db
}

type recordingListener struct {
	mu       sync.Mutex
	restocks []string
}

func (l *recordingListener) ProductRestocked(ctx context.Context, productID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.restocks = append(l.restocks, productID)
}

func (l *recordingListener) seen() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.restocks...)
}

func addProduct(t *testing.T, svc *Service, price float64, qty int) string {
	t.Helper()
	id, err := svc.AddProduct(context.Background(), &domain.Product{
		Name:     "widget",
		Type:     "electronics",
		Info:     "test widget",
		Price:    price,
		Quantity: qty,
	})
	require.NoError(t, err)
	return id
}

func TestAddProductGeneratesID(t *testing.T) {
	svc, _ := newTestService(t)

	id := addProduct(t, svc, 9.99, 10)
	assert.NotEmpty(t, id)
	assert.Equal(t, byte('P'), id[0])

	p, err := svc.GetProduct(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "widget", p.Name)
	assert.Equal(t, 10, p.Quantity)
}

func TestAddProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, &domain.Product{Name: " ", Price: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.AddProduct(ctx, &domain.Product{Name: "x", Price: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.AddProduct(ctx, &domain.Product{Name: "x", Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDebitNeverOverdraws(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pid := addProduct(t, svc, 5, 5)

	ok, err := svc.Debit(ctx, pid, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	stock, err := svc.GetStock(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)

	// More than remains: rejected, quantity unchanged.
	ok, err = svc.Debit(ctx, pid, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	stock, err = svc.GetStock(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)
}

func TestDebitMissingProduct(t *testing.T) {
	svc, _ := newTestService(t)

	ok, err := svc.Debit(context.Background(), "P-missing", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDebitInvalidQuantity(t *testing.T) {
	svc, _ := newTestService(t)
	pid := addProduct(t, svc, 5, 5)

	_, err := svc.Debit(context.Background(), pid, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestReadsOnMissingProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	stock, err := svc.GetStock(ctx, "P-missing")
	require.NoError(t, err)
	assert.Zero(t, stock)

	price, err := svc.GetPrice(ctx, "P-missing")
	require.NoError(t, err)
	assert.Zero(t, price)

	img, err := svc.GetImage(ctx, "P-missing")
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestRestockTriggersListenerOnlyOnIncrease(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pid := addProduct(t, svc, 5, 10)

	listener := &recordingListener{}
	svc.SetRestockListener(listener)

	require.NoError(t, svc.Restock(ctx, pid, 4))
	assert.Empty(t, listener.seen(), "decrease must not trigger a drain")

	require.NoError(t, svc.Restock(ctx, pid, 12))
	assert.Equal(t, []string{pid}, listener.seen())

	stock, err := svc.GetStock(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 12, stock)
}

func TestRestockValidation(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Restock(context.Background(), "P-missing", 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Restock(context.Background(), "P-any", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

type purgingCartRemover struct {
	purged []string
}

func (p *purgingCartRemover) PurgeProduct(ctx context.Context, tx *gorm.DB, productID string) error {
	p.purged = append(p.purged, productID)
	return tx.Where("prodid = ?", productID).Delete(&domain.CartItem{}).Error
}

func TestRemoveProductCascadesCarts(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	pid := addProduct(t, svc, 5, 10)

	remover := &purgingCartRemover{}
	svc.SetCartRemover(remover)

	require.NoError(t, db.Create(&domain.CartItem{UserID: "u1@shop.test", ProductID: pid, Quantity: 2}).Error)
	require.NoError(t, db.Create(&domain.CartItem{UserID: "u2@shop.test", ProductID: pid, Quantity: 1}).Error)

	require.NoError(t, svc.RemoveProduct(ctx, pid))
	assert.Equal(t, []string{pid}, remover.purged)

	var count int64
	db.Model(&domain.CartItem{}).Where("prodid = ?", pid).Count(&count)
	assert.Zero(t, count)

	_, err := svc.GetProduct(ctx, pid)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Removing again is a successful no-op.
	assert.NoError(t, svc.RemoveProduct(ctx, pid))
}

func TestUpdateProductMismatchedIDs(t *testing.T) {
	svc, _ := newTestService(t)
	pid := addProduct(t, svc, 5, 10)

	err := svc.UpdateProduct(context.Background(), pid, &domain.Product{ID: "P-other", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUpdateProductKeepsImageAndDrainsOnIncrease(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.AddProduct(ctx, &domain.Product{
		Name: "widget", Price: 5, Quantity: 3, Image: []byte{0x1, 0x2},
	})
	require.NoError(t, err)

	listener := &recordingListener{}
	svc.SetRestockListener(listener)

	require.NoError(t, svc.UpdateProduct(ctx, id, &domain.Product{
		ID: id, Name: "widget v2", Type: "electronics", Price: 6, Quantity: 8,
	}))

	p, err := svc.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "widget v2", p.Name)
	assert.Equal(t, []byte{0x1, 0x2}, p.Image, "nil image keeps the stored one")
	assert.Equal(t, []string{id}, listener.seen())
}

func TestUpdateProductPrice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pid := addProduct(t, svc, 5, 10)

	require.NoError(t, svc.UpdateProductPrice(ctx, pid, 7.5))
	price, err := svc.GetPrice(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 7.5, price)

	assert.ErrorIs(t, svc.UpdateProductPrice(ctx, "P-missing", 1), domain.ErrNotFound)
	assert.ErrorIs(t, svc.UpdateProductPrice(ctx, pid, -1), domain.ErrInvalidArgument)
}

func TestSearchAndListByType(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, &domain.Product{Name: "Blue Mug", Type: "Kitchen", Info: "ceramic mug", Price: 3, Quantity: 5})
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, &domain.Product{Name: "Lamp", Type: "Electronics", Info: "desk lamp", Price: 12, Quantity: 2})
	require.NoError(t, err)

	byType, err := svc.ListProductsByType(ctx, "kitchen")
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "Blue Mug", byType[0].Name)

	found, err := svc.SearchProducts(ctx, "LAMP")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Lamp", found[0].Name)

	all, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
