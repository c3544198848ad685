// Package checkout is the fulfillment orchestrator: it converts a user's cart
// into orders and a transaction record, debiting stock along the way. All
// writes of one attempt commit or roll back together.
package checkout

import (
	"context"
	"math"
	"time"

	"github.com/openmart/storecore/internal/domain"
	"github.com/openmart/storecore/internal/notify"
	"github.com/openmart/storecore/pkg/common"
	"github.com/openmart/storecore/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CartStore supplies cart lines and removes them inside the checkout
// transaction.
type CartStore interface {
	ListItems(ctx context.Context, userID string) ([]domain.CartItem, error)
	RemoveAllWithin(ctx context.Context, tx *gorm.DB, userID, productID string) (bool, error)
}

// Ledger supplies captured prices and performs the conditional stock debit
// inside the checkout transaction.
type Ledger interface {
	GetPrice(ctx context.Context, productID string) (float64, error)
	DebitWithin(ctx context.Context, tx *gorm.DB, productID string, n int) (bool, error)
}

type Service struct {
	db       *gorm.DB
	repo     Repository
	carts    CartStore
	ledger   Ledger
	notifier notify.Sink
}

func NewService(db *gorm.DB, repo Repository, carts CartStore, ledger Ledger, notifier notify.Sink) *Service {
	return &Service{db: db, repo: repo, carts: carts, ledger: ledger, notifier: notifier}
}

// Checkout runs the full fulfillment pipeline for a user. paidAmount is the
// amount actually captured by the payment step upstream; it is recorded, not
// recomputed. The returned result is always non-nil and carries the
// user-facing status message.
func (s *Service) Checkout(ctx context.Context, userID string, paidAmount float64) (*Result, error) {
	if userID == "" {
		return &Result{State: StateAborted, Message: msgOrderStepFailed},
			errors.Wrap(domain.ErrInvalidArgument, "user is required")
	}
	if paidAmount < 0 {
		return &Result{State: StateAborted, Message: msgOrderStepFailed},
			errors.Wrap(domain.ErrInvalidArgument, "paid amount must not be negative")
	}

	state := StateStarted
	items, err := s.carts.ListItems(ctx, userID)
	if err != nil {
		return &Result{State: StateAborted, Message: msgOrderStepFailed}, err
	}
	if len(items) == 0 {
		return &Result{State: StateAborted, Message: msgNothingToOrder}, nil
	}

	// Capture prices now; they define each order's immutable amount.
	amounts := make([]float64, len(items))
	var cartTotal float64
	for i, item := range items {
		price, err := s.ledger.GetPrice(ctx, item.ProductID)
		if err != nil {
			return &Result{State: StateAborted, Message: msgOrderStepFailed}, err
		}
		amounts[i] = price * float64(item.Quantity)
		cartTotal += amounts[i]
	}
	if math.Abs(cartTotal-paidAmount) > 0.005 {
		zap.L().Warn("paid amount differs from cart total",
			zap.String("username", userID),
			zap.Float64("paid", paidAmount),
			zap.Float64("cart_total", cartTotal))
	}

	trans := &domain.Transaction{
		ID:     common.TransactionID(),
		UserID: userID,
		Time:   time.Now(),
		Amount: paidAmount,
	}
	state = StateItemsValidated

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := NewGormRepository(tx)

		// Orders are created in cart order; any failure aborts the attempt
		// before stock is touched.
		for i, item := range items {
			if err := txRepo.CreateOrder(ctx, &domain.Order{
				TransactionID: trans.ID,
				ProductID:     item.ProductID,
				Quantity:      item.Quantity,
				Amount:        amounts[i],
				Shipped:       false,
			}); err != nil {
				return err
			}
		}
		state = StateOrdersCreated

		for _, item := range items {
			if _, err := s.carts.RemoveAllWithin(ctx, tx, userID, item.ProductID); err != nil {
				return err
			}
			ok, err := s.ledger.DebitWithin(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Wrapf(domain.ErrConflict,
					"insufficient stock for product %s", item.ProductID)
			}
		}
		state = StateStockDebited

		if err := txRepo.CreateTransaction(ctx, trans); err != nil {
			return err
		}
		state = StateTransactionRecorded
		return nil
	})
	if err != nil {
		msg := msgOrderStepFailed
		if errors.Is(err, domain.ErrConflict) {
			msg = msgDebitFailed
		}
		zap.L().Warn("checkout aborted",
			zap.String("username", userID),
			zap.String("state", state.String()),
			zap.Error(err))
		return &Result{State: StateAborted, Message: msg}, err
	}

	metrics.IncrCounter("store_checkout_completed", 1)
	metrics.SetGauge("store_checkout_last_amount", int64(paidAmount*100))

	// Notification is best-effort; the dispatcher swallows delivery errors.
	_ = s.notifier.Notify(ctx, notify.Event{
		Kind:      notify.KindPaymentSuccess,
		Recipient: userID,
		Payload: map[string]interface{}{
			"transid": trans.ID,
			"amount":  trans.Amount,
		},
	})

	zap.L().Info("checkout completed",
		zap.String("username", userID),
		zap.String("transid", trans.ID),
		zap.Float64("amount", trans.Amount),
		zap.Int("lines", len(items)))
	return &Result{
		State:         StateNotifiedAndDone,
		TransactionID: trans.ID,
		Message:       msgSuccess,
	}, nil
}

// MarkShipped flips one order line's shipped flag. A second call against an
// already-shipped line fails and does not re-notify.
func (s *Service) MarkShipped(ctx context.Context, orderID, productID string) error {
	ok, err := s.repo.MarkShipped(ctx, orderID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(domain.ErrConflict,
			"order %s for product %s is missing or already shipped", orderID, productID)
	}

	recipient, err := s.repo.TransactionUser(ctx, orderID)
	if err != nil || recipient == "" {
		zap.L().Warn("shipped notification skipped, transaction user unknown",
			zap.String("orderid", orderID), zap.Error(err))
		return nil
	}
	_ = s.notifier.Notify(ctx, notify.Event{
		Kind:      notify.KindShipped,
		Recipient: recipient,
		Payload: map[string]interface{}{
			"orderid": orderID,
			"prodid":  productID,
		},
	})
	return nil
}

// ListOrders returns a user's orders.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID)
}

// ListOrderDetails returns a user's order history with product and
// transaction details.
func (s *Service) ListOrderDetails(ctx context.Context, userID string) ([]domain.OrderDetail, error) {
	return s.repo.ListOrderDetails(ctx, userID)
}

// ListAllOrders returns every order in the store.
func (s *Service) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAllOrders(ctx)
}

// CountSold returns how many units of a product have been ordered.
func (s *Service) CountSold(ctx context.Context, productID string) (int, error) {
	return s.repo.CountSold(ctx, productID)
}

// TransactionUser returns the user who owns a transaction.
func (s *Service) TransactionUser(ctx context.Context, transID string) (string, error) {
	return s.repo.TransactionUser(ctx, transID)
}
