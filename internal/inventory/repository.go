package inventory

import (
	"context"
	"strings"

	"github.com/openmart/storecore/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Repository handles database operations for the product catalog
type Repository interface {
	// GetByID retrieves a product by id
	GetByID(ctx context.Context, productID string) (*domain.Product, error)

	// List retrieves all products
	List(ctx context.Context) ([]domain.Product, error)

	// ListByType retrieves products whose type contains the given category
	ListByType(ctx context.Context, ptype string) ([]domain.Product, error)

	// Search retrieves products matching the keyword in name, type or info
	Search(ctx context.Context, keyword string) ([]domain.Product, error)

	// Create inserts a new product
	Create(ctx context.Context, p *domain.Product) error

	// Save overwrites an existing product row
	Save(ctx context.Context, p *domain.Product) error

	// SetStock sets the available quantity of a product
	SetStock(ctx context.Context, productID string, quantity int) error

	// DebitStock reduces stock by n only when at least n is available.
	// Returns false when the precondition fails or the product is missing.
	DebitStock(ctx context.Context, productID string, n int) (bool, error)
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Where("pid = ?", productID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return &p, nil
}

func (r *GormRepository) List(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	err := r.db.WithContext(ctx).Order("pid").Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return rows, nil
}

func (r *GormRepository) ListByType(ctx context.Context, ptype string) ([]domain.Product, error) {
	var rows []domain.Product
	err := r.db.WithContext(ctx).
		Where("lower(ptype) like ?", "%"+strings.ToLower(ptype)+"%").
		Order("pid").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return rows, nil
}

func (r *GormRepository) Search(ctx context.Context, keyword string) ([]domain.Product, error) {
	var rows []domain.Product
	pattern := "%" + strings.ToLower(keyword) + "%"
	err := r.db.WithContext(ctx).
		Where("lower(ptype) like ? or lower(pname) like ? or lower(pinfo) like ?",
			pattern, pattern, pattern).
		Order("pid").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return rows, nil
}

func (r *GormRepository) Create(ctx context.Context, p *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (r *GormRepository) Save(ctx context.Context, p *domain.Product) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (r *GormRepository) SetStock(ctx context.Context, productID string, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("pid = ?", productID).
		UpdateColumn("pquantity", quantity)
	if result.Error != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DebitStock relies on a single conditional UPDATE so that concurrent debits
// against the same product serialize on the row and can never drive the
// quantity negative.
func (r *GormRepository) DebitStock(ctx context.Context, productID string, n int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("pid = ? and pquantity >= ?", productID, n).
		UpdateColumn("pquantity", gorm.Expr("pquantity - ?", n))
	if result.Error != nil {
		return false, errors.Wrap(domain.ErrStoreUnavailable, result.Error.Error())
	}
	return result.RowsAffected > 0, nil
}
