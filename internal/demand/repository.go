package demand

import (
	"context"

	"github.com/openmart/storecore/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Repository handles database operations for demand records
type Repository interface {
	// Get retrieves the demand for a (user, product) pair
	Get(ctx context.Context, userID, productID string) (*domain.Demand, error)

	// Create inserts a new demand record
	Create(ctx context.Context, d *domain.Demand) error

	// Delete removes a demand record, reporting whether a row existed
	Delete(ctx context.Context, userID, productID string) (bool, error)

	// ListByProduct retrieves all outstanding demand for a product
	ListByProduct(ctx context.Context, productID string) ([]domain.Demand, error)

	// ListProductsWithDemand returns the distinct product ids that have
	// outstanding demand (used by the periodic drain sweep)
	ListProductsWithDemand(ctx context.Context) ([]string, error)
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Get(ctx context.Context, userID, productID string) (*domain.Demand, error) {
	var d domain.Demand
	err := r.db.WithContext(ctx).
		Where("username = ? and prodid = ?", userID, productID).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return &d, nil
}

func (r *GormRepository) Create(ctx context.Context, d *domain.Demand) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, userID, productID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("username = ? and prodid = ?", userID, productID).
		Delete(&domain.Demand{})
	if result.Error != nil {
		return false, errors.Wrap(domain.ErrStoreUnavailable, result.Error.Error())
	}
	return result.RowsAffected > 0, nil
}

func (r *GormRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Demand, error) {
	var rows []domain.Demand
	err := r.db.WithContext(ctx).
		Where("prodid = ?", productID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return rows, nil
}

func (r *GormRepository) ListProductsWithDemand(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Demand{}).
		Distinct("prodid").
		Pluck("prodid", &ids).Error
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return ids, nil
}
