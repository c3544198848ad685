// Package demand is the backorder queue: it records unmet demand per
// (user, product) pair and resolves it when stock returns.
package demand

import (
	"context"
	"sync"

	"github.com/openmart/storecore/internal/domain"
	"github.com/openmart/storecore/internal/notify"
	"github.com/openmart/storecore/pkg/metrics"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductReader supplies product details for back-in-stock notifications.
type ProductReader interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

type Service struct {
	repo     Repository
	products ProductReader
	notifier notify.Sink
	pool     *ants.Pool
}

// NewService creates the backorder queue service. workers caps concurrent
// back-in-stock notifications during a drain.
func NewService(repo Repository, products ProductReader, notifier notify.Sink, workers int) (*Service, error) {
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.Wrap(err, "create drain worker pool")
	}
	return &Service{repo: repo, products: products, notifier: notifier, pool: pool}, nil
}

// Record stores unmet demand for a (user, product) pair. A second record for
// an existing pair is a no-op that still reports success (first write wins).
func (s *Service) Record(ctx context.Context, userID, productID string, quantity int) (bool, error) {
	return s.record(ctx, s.repo, userID, productID, quantity)
}

// RecordWithin records demand inside an enclosing transaction, so the cart
// store's cap-and-backorder write and the demand write commit together.
func (s *Service) RecordWithin(ctx context.Context, tx *gorm.DB, userID, productID string, quantity int) (bool, error) {
	return s.record(ctx, NewGormRepository(tx), userID, productID, quantity)
}

func (s *Service) record(ctx context.Context, repo Repository, userID, productID string, quantity int) (bool, error) {
	if userID == "" || productID == "" || quantity <= 0 {
		return false, errors.Wrap(domain.ErrInvalidArgument, "demand requires a user, a product and a positive quantity")
	}

	_, err := repo.Get(ctx, userID, productID)
	switch {
	case err == nil:
		// already recorded, keep the earlier quantity
		return true, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, err
	}

	if err := repo.Create(ctx, &domain.Demand{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}); err != nil {
		return false, err
	}
	metrics.IncrCounter("store_demand_recorded", 1)
	return true, nil
}

// Clear removes the demand for a (user, product) pair. Clearing a missing
// row also reports success.
func (s *Service) Clear(ctx context.Context, userID, productID string) (bool, error) {
	if _, err := s.repo.Delete(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

// ListDemandFor returns all outstanding demand for a product.
func (s *Service) ListDemandFor(ctx context.Context, productID string) ([]domain.Demand, error) {
	return s.repo.ListByProduct(ctx, productID)
}

// ProductsWithDemand returns product ids with outstanding demand.
func (s *Service) ProductsWithDemand(ctx context.Context) ([]string, error) {
	return s.repo.ListProductsWithDemand(ctx)
}

// ProductRestocked is the restock trigger: it drains outstanding demand for
// the product. Implements the inventory ledger's RestockListener.
func (s *Service) ProductRestocked(ctx context.Context, productID string) {
	if err := s.Drain(ctx, productID); err != nil {
		zap.L().Warn("demand drain failed", zap.String("prodid", productID), zap.Error(err))
	}
}

// Drain notifies every user with outstanding demand for the product and then
// clears their demand rows. Notification failures are soft: the row is
// cleared either way and the failure is only logged.
func (s *Service) Drain(ctx context.Context, productID string) error {
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	pname := productID
	if p, err := s.products.GetProduct(ctx, productID); err == nil {
		pname = p.Name
	}

	var wg sync.WaitGroup
	for i := range rows {
		d := rows[i]
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.notifier.Notify(ctx, notify.Event{
				Kind:      notify.KindBackInStock,
				Recipient: d.UserID,
				Payload: map[string]interface{}{
					"prodid":   d.ProductID,
					"pname":    pname,
					"quantity": d.Quantity,
				},
			}); err != nil {
				zap.L().Warn("back-in-stock notification failed",
					zap.String("username", d.UserID),
					zap.String("prodid", d.ProductID),
					zap.Error(err))
			}
			if _, err := s.repo.Delete(ctx, d.UserID, d.ProductID); err != nil {
				zap.L().Error("failed to clear drained demand",
					zap.String("username", d.UserID),
					zap.String("prodid", d.ProductID),
					zap.Error(err))
			}
		})
		if submitErr != nil {
			wg.Done()
			zap.L().Warn("drain task submit failed", zap.Error(submitErr))
		}
	}
	wg.Wait()

	metrics.IncrCounter("store_demand_drained", int64(len(rows)))
	zap.L().Info("demand drained",
		zap.String("prodid", productID),
		zap.Int("count", len(rows)))
	return nil
}

// Release frees the drain worker pool.
func (s *Service) Release() {
	s.pool.Release()
}
