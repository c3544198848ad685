// Package cart is the per-user staging area between browsing and checkout.
// Adding to a cart is capped at available stock, with the shortfall forwarded
// to the backorder queue.
package cart

import (
	"context"
	"fmt"

	"github.com/openmart/storecore/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockReader supplies available stock from the inventory ledger.
type StockReader interface {
	GetStock(ctx context.Context, productID string) (int, error)
}

// DemandRecorder forwards overflow to the backorder queue inside the
// enclosing cart transaction.
type DemandRecorder interface {
	RecordWithin(ctx context.Context, tx *gorm.DB, userID, productID string, quantity int) (bool, error)
}

// AddStatus classifies the outcome of an add-to-cart request.
type AddStatus int

const (
	AddFailed AddStatus = iota
	AddedAll
	AddedPartial
)

// AddResult is the user-visible outcome of Add.
type AddResult struct {
	Status      AddStatus
	Added       int
	Backordered int
	Message     string
}

type Service struct {
	db      *gorm.DB
	repo    Repository
	stocks  StockReader
	demands DemandRecorder
}

func NewService(db *gorm.DB, repo Repository, stocks StockReader, demands DemandRecorder) *Service {
	return &Service{db: db, repo: repo, stocks: stocks, demands: demands}
}

// SetQuantity upserts a line to an absolute quantity. Zero deletes the line,
// a negative quantity is rejected.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if userID == "" || productID == "" {
		return errors.Wrap(domain.ErrInvalidArgument, "user and product are required")
	}
	if quantity < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "cart quantity must not be negative")
	}
	if quantity == 0 {
		_, err := s.repo.Delete(ctx, userID, productID)
		return err
	}
	return s.repo.Upsert(ctx, &domain.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

// Add puts delta more units of a product into the user's cart, capping at
// available stock. The capped write and the backorder record for the
// shortfall commit in one transaction.
func (s *Service) Add(ctx context.Context, userID, productID string, delta int) (*AddResult, error) {
	if userID == "" || productID == "" {
		return nil, errors.Wrap(domain.ErrInvalidArgument, "user and product are required")
	}
	if delta <= 0 {
		return nil, errors.Wrap(domain.ErrInvalidArgument, "added quantity must be positive")
	}

	available, err := s.stocks.GetStock(ctx, productID)
	if err != nil {
		return nil, err
	}

	result := &AddResult{Status: AddFailed}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := NewGormRepository(tx)

		current, err := txRepo.ItemQuantity(ctx, userID, productID)
		if err != nil {
			return err
		}
		requested := current + delta

		if requested <= available {
			if err := txRepo.AddQuantity(ctx, userID, productID, delta); err != nil {
				return err
			}
			result.Status = AddedAll
			result.Added = delta
			result.Message = "product added to cart"
			return nil
		}

		// Cap the line at what exists and backorder the shortfall.
		if available > 0 {
			if err := txRepo.Upsert(ctx, &domain.CartItem{
				UserID:    userID,
				ProductID: productID,
				Quantity:  available,
			}); err != nil {
				return err
			}
		} else if _, err := txRepo.Delete(ctx, userID, productID); err != nil {
			return err
		}

		shortfall := requested - available
		if _, err := s.demands.RecordWithin(ctx, tx, userID, productID, shortfall); err != nil {
			return err
		}

		result.Status = AddedPartial
		result.Added = available - current
		result.Backordered = shortfall
		result.Message = fmt.Sprintf(
			"only %d available, added %d to your cart and backordered %d; we will notify you when the product is back in stock",
			available, available, shortfall)
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("add to cart",
		zap.String("username", userID),
		zap.String("prodid", productID),
		zap.Int("added", result.Added),
		zap.Int("backordered", result.Backordered))
	return result, nil
}

// ListItems returns all cart lines of a user in insertion order.
func (s *Service) ListItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return s.repo.List(ctx, userID)
}

// TotalQuantity sums every line quantity of the user's cart.
func (s *Service) TotalQuantity(ctx context.Context, userID string) (int, error) {
	return s.repo.TotalQuantity(ctx, userID)
}

// ItemQuantity returns a single line's quantity, 0 when the line is absent.
func (s *Service) ItemQuantity(ctx context.Context, userID, productID string) (int, error) {
	return s.repo.ItemQuantity(ctx, userID, productID)
}

// RemoveOne decrements a line by one, deleting it when the quantity reaches
// zero. Reports ErrNotFound when the product is not in the cart.
func (s *Service) RemoveOne(ctx context.Context, userID, productID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := NewGormRepository(tx)

		item, err := txRepo.Get(ctx, userID, productID)
		if errors.Is(err, domain.ErrNotFound) {
			return errors.Wrap(domain.ErrNotFound, "product not in cart")
		}
		if err != nil {
			return err
		}

		if item.Quantity <= 1 {
			_, err := txRepo.Delete(ctx, userID, productID)
			return err
		}
		item.Quantity--
		return txRepo.Upsert(ctx, item)
	})
}

// RemoveAll deletes the line regardless of quantity. Removing an absent line
// also reports success.
func (s *Service) RemoveAll(ctx context.Context, userID, productID string) (bool, error) {
	if _, err := s.repo.Delete(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveAllWithin deletes a line inside an enclosing transaction (used by the
// checkout pipeline so cart, order and stock writes commit together).
func (s *Service) RemoveAllWithin(ctx context.Context, tx *gorm.DB, userID, productID string) (bool, error) {
	if _, err := NewGormRepository(tx).Delete(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

// PurgeProduct removes a deleted product from every cart. Runs inside the
// inventory ledger's delete transaction.
func (s *Service) PurgeProduct(ctx context.Context, tx *gorm.DB, productID string) error {
	if err := tx.WithContext(ctx).
		Where("prodid = ?", productID).
		Delete(&domain.CartItem{}).Error; err != nil {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return nil
}
