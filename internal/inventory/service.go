// Package inventory is the inventory ledger: it owns product rows and their
// available stock, and is the only writer of stock quantities.
package inventory

import (
	"context"
	"strings"

	"github.com/openmart/storecore/internal/domain"
	"github.com/openmart/storecore/pkg/common"
	"github.com/openmart/storecore/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CartRemover purges a deleted product from every cart. The tx handle keeps
// the cascade inside the delete transaction.
type CartRemover interface {
	PurgeProduct(ctx context.Context, tx *gorm.DB, productID string) error
}

// RestockListener is told after a committed stock increase so outstanding
// demand can be drained.
type RestockListener interface {
	ProductRestocked(ctx context.Context, productID string)
}

type Service struct {
	db       *gorm.DB
	repo     Repository
	carts    CartRemover
	listener RestockListener
}

func NewService(db *gorm.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

// SetCartRemover wires the product-delete cascade. The ledger and the cart
// store reference each other, so this cannot be a constructor argument.
func (s *Service) SetCartRemover(c CartRemover) {
	s.carts = c
}

// SetRestockListener wires the restock-drain trigger, see SetCartRemover.
func (s *Service) SetRestockListener(l RestockListener) {
	s.listener = l
}

// GetStock returns the available quantity, 0 when the product is missing.
func (s *Service) GetStock(ctx context.Context, productID string) (int, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.Quantity, nil
}

// GetPrice returns the unit price, 0 when the product is missing.
func (s *Service) GetPrice(ctx context.Context, productID string) (float64, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.Price, nil
}

// GetProduct returns the full product row.
func (s *Service) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetImage returns the product image bytes, nil when the product is missing.
func (s *Service) GetImage(ctx context.Context, productID string) ([]byte, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Image, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListProductsByType(ctx context.Context, ptype string) ([]domain.Product, error) {
	return s.repo.ListByType(ctx, ptype)
}

func (s *Service) SearchProducts(ctx context.Context, keyword string) ([]domain.Product, error) {
	return s.repo.Search(ctx, keyword)
}

// Debit reduces stock by n. Returns false without error when stock is
// insufficient or the product is missing; the caller decides whether that
// becomes a backorder.
func (s *Service) Debit(ctx context.Context, productID string, n int) (bool, error) {
	if n <= 0 {
		return false, errors.Wrap(domain.ErrInvalidArgument, "debit quantity must be positive")
	}
	ok, err := s.repo.DebitStock(ctx, productID, n)
	if err != nil {
		return false, err
	}
	if !ok {
		metrics.IncrCounter("store_stock_debit_rejected", 1)
	}
	return ok, nil
}

// DebitWithin runs the conditional debit inside an enclosing transaction.
func (s *Service) DebitWithin(ctx context.Context, tx *gorm.DB, productID string, n int) (bool, error) {
	if n <= 0 {
		return false, errors.Wrap(domain.ErrInvalidArgument, "debit quantity must be positive")
	}
	return NewGormRepository(tx).DebitStock(ctx, productID, n)
}

// Restock sets the available quantity. A quantity increase triggers the
// backorder drain for the product after the write commits.
func (s *Service) Restock(ctx context.Context, productID string, updatedQuantity int) error {
	if updatedQuantity < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "stock quantity must not be negative")
	}

	var increased bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Product
		if err := tx.Where("pid = ?", productID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
		}
		increased = updatedQuantity > p.Quantity
		if err := tx.Model(&domain.Product{}).
			Where("pid = ?", productID).
			UpdateColumn("pquantity", updatedQuantity).Error; err != nil {
			return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
		}
		return nil
	})
	if err != nil {
		return err
	}

	if increased && s.listener != nil {
		s.listener.ProductRestocked(ctx, productID)
	}
	return nil
}

// AddProduct registers a new catalog item and returns its generated id.
func (s *Service) AddProduct(ctx context.Context, p *domain.Product) (string, error) {
	if strings.TrimSpace(p.Name) == "" {
		return "", errors.Wrap(domain.ErrInvalidArgument, "product name is required")
	}
	if p.Price < 0 {
		return "", errors.Wrap(domain.ErrInvalidArgument, "product price must not be negative")
	}
	if p.Quantity < 0 {
		return "", errors.Wrap(domain.ErrInvalidArgument, "product quantity must not be negative")
	}
	if p.ID == "" {
		p.ID = common.ProductID()
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return "", err
	}
	zap.L().Info("product added", zap.String("pid", p.ID), zap.String("pname", p.Name))
	return p.ID, nil
}

// RemoveProduct deletes a product and cascades the removal into every cart.
// Removing a missing product is a successful no-op.
func (s *Service) RemoveProduct(ctx context.Context, productID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pid = ?", productID).Delete(&domain.Product{}).Error; err != nil {
			return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
		}
		if s.carts == nil {
			return nil
		}
		return s.carts.PurgeProduct(ctx, tx, productID)
	})
	if err != nil {
		return err
	}
	zap.L().Info("product removed", zap.String("pid", productID))
	return nil
}

// UpdateProduct replaces a product's details. The ids must match; a nil image
// keeps the stored one. A quantity increase triggers the backorder drain.
func (s *Service) UpdateProduct(ctx context.Context, prevID string, updated *domain.Product) error {
	if prevID != updated.ID {
		return errors.Wrap(domain.ErrInvalidArgument, "mismatched product ids")
	}
	if strings.TrimSpace(updated.Name) == "" {
		return errors.Wrap(domain.ErrInvalidArgument, "product name is required")
	}
	if updated.Price < 0 || updated.Quantity < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "price and quantity must not be negative")
	}

	var increased bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev domain.Product
		if err := tx.Where("pid = ?", prevID).First(&prev).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
		}
		increased = updated.Quantity > prev.Quantity

		if updated.Image == nil {
			updated.Image = prev.Image
		}
		updated.CreatedAt = prev.CreatedAt
		if err := tx.Save(updated).Error; err != nil {
			return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
		}
		return nil
	})
	if err != nil {
		return err
	}

	if increased && s.listener != nil {
		s.listener.ProductRestocked(ctx, prevID)
	}
	return nil
}

// UpdateProductPrice changes only the unit price. Orders already written keep
// the amount captured at sale time.
func (s *Service) UpdateProductPrice(ctx context.Context, productID string, price float64) error {
	if price < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "product price must not be negative")
	}
	result := s.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("pid = ?", productID).
		UpdateColumn("pprice", price)
	if result.Error != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
