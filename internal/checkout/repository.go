package checkout

import (
	"context"

	"github.com/openmart/storecore/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Repository handles database operations for orders and transactions
type Repository interface {
	// CreateOrder inserts one order row
	CreateOrder(ctx context.Context, o *domain.Order) error

	// CreateTransaction inserts the transaction record
	CreateTransaction(ctx context.Context, t *domain.Transaction) error

	// ListAllOrders retrieves every order
	ListAllOrders(ctx context.Context) ([]domain.Order, error)

	// ListOrdersByUser retrieves a user's orders via their transactions
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// ListOrderDetails retrieves a user's order history joined with product
	// and transaction details
	ListOrderDetails(ctx context.Context, userID string) ([]domain.OrderDetail, error)

	// MarkShipped flips the shipped flag false -> true. Returns false when
	// the order is missing or already shipped.
	MarkShipped(ctx context.Context, orderID, productID string) (bool, error)

	// CountSold sums the ordered quantity of a product
	CountSold(ctx context.Context, productID string) (int, error)

	// TransactionUser returns the user id owning a transaction, "" if unknown
	TransactionUser(ctx context.Context, transID string) (string, error)
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (r *GormRepository) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (r *GormRepository) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	var rows []domain.Order
	err := r.db.WithContext(ctx).Order("orderid, prodid").Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return rows, nil
}

func (r *GormRepository) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var rows []domain.Order
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Joins("inner join transactions t on t.transid = orders.orderid").
		Where("t.username = ?", userID).
		Order("orders.orderid, orders.prodid").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return rows, nil
}

func (r *GormRepository) ListOrderDetails(ctx context.Context, userID string) ([]domain.OrderDetail, error) {
	var rows []domain.OrderDetail
	err := r.db.WithContext(ctx).Raw(`
		select o.orderid as order_id,
		       o.prodid as product_id,
		       p.pname as product_name,
		       p.image as image,
		       o.quantity as quantity,
		       o.amount as amount,
		       t.trans_time as time,
		       o.shipped as shipped
		from orders o
		inner join transactions t on o.orderid = t.transid
		inner join products p on p.pid = o.prodid
		where t.username = ?
		order by t.trans_time, o.prodid`, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return rows, nil
}

// MarkShipped is a conditional update so a second ship request cannot
// succeed and re-trigger the shipped notification.
func (r *GormRepository) MarkShipped(ctx context.Context, orderID, productID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("orderid = ? and prodid = ? and shipped = ?", orderID, productID, false).
		UpdateColumn("shipped", true)
	if result.Error != nil {
		return false, errors.Wrap(domain.ErrStoreUnavailable, result.Error.Error())
	}
	return result.RowsAffected > 0, nil
}

func (r *GormRepository) CountSold(ctx context.Context, productID string) (int, error) {
	var count int
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("prodid = ?", productID).
		Select("coalesce(sum(quantity), 0)").
		Scan(&count).Error
	if err != nil {
		return 0, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return count, nil
}

func (r *GormRepository) TransactionUser(ctx context.Context, transID string) (string, error) {
	var t domain.Transaction
	err := r.db.WithContext(ctx).Where("transid = ?", transID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return t.UserID, nil
}
