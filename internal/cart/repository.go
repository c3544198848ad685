package cart

import (
	"context"

	"github.com/openmart/storecore/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles database operations for cart lines
type Repository interface {
	// Get retrieves one cart line
	Get(ctx context.Context, userID, productID string) (*domain.CartItem, error)

	// List retrieves all cart lines of a user in insertion order
	List(ctx context.Context, userID string) ([]domain.CartItem, error)

	// TotalQuantity sums all line quantities of a user
	TotalQuantity(ctx context.Context, userID string) (int, error)

	// ItemQuantity returns the quantity of one line, 0 when absent
	ItemQuantity(ctx context.Context, userID, productID string) (int, error)

	// Upsert writes a line with an absolute quantity
	Upsert(ctx context.Context, item *domain.CartItem) error

	// AddQuantity upserts a line adding delta to the stored quantity
	AddQuantity(ctx context.Context, userID, productID string, delta int) error

	// Delete removes a line, reporting whether a row existed
	Delete(ctx context.Context, userID, productID string) (bool, error)
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Get(ctx context.Context, userID, productID string) (*domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.WithContext(ctx).
		Where("username = ? and prodid = ?", userID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return &item, nil
}

func (r *GormRepository) List(ctx context.Context, userID string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := r.db.WithContext(ctx).
		Where("username = ?", userID).
		Order("created_at, prodid").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return items, nil
}

func (r *GormRepository) TotalQuantity(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&domain.CartItem{}).
		Where("username = ?", userID).
		Select("coalesce(sum(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return total, nil
}

func (r *GormRepository) ItemQuantity(ctx context.Context, userID, productID string) (int, error) {
	item, err := r.Get(ctx, userID, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

func (r *GormRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}, {Name: "prodid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": item.Quantity}),
		}).
		Create(item).Error
	if err != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return nil
}

// AddQuantity is a single upsert-with-delta so two requests racing on the
// same line cannot lose an update.
func (r *GormRepository) AddQuantity(ctx context.Context, userID, productID string, delta int) error {
	item := domain.CartItem{UserID: userID, ProductID: productID, Quantity: delta}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "username"}, {Name: "prodid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("usercart.quantity + ?", delta),
			}),
		}).
		Create(&item).Error
	if err != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, userID, productID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("username = ? and prodid = ?", userID, productID).
		Delete(&domain.CartItem{})
	if result.Error != nil {
		return false, errors.Wrap(domain.ErrStoreUnavailable, result.Error.Error())
	}
	return result.RowsAffected > 0, nil
}
