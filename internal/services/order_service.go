package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quickthrift/internal/domain"
	applog "quickthrift/internal/log"
	"quickthrift/internal/notify"
	"quickthrift/internal/repos"
)

// OrderService turns the bag into an order record. Payment and shipping
// details are collected by the UI and never reach this package.
type OrderService struct {
	mu      sync.Mutex // guards the order history key
	Cart    *CartManager
	Session *SessionManager
	Orders  *repos.OrderRepo
	Pub     notify.Publisher
	Now     func() time.Time
}

func NewOrderService(cart *CartManager, session *SessionManager, orders *repos.OrderRepo, pub notify.Publisher) *OrderService {
	if pub == nil {
		pub = notify.Discard{}
	}
	return &OrderService{Cart: cart, Session: session, Orders: orders, Pub: pub, Now: time.Now}
}

// Checkout records the current bag as an order and removes the ordered
// quantities from it. Lines added while the order is written stay in the bag.
func (s *OrderService) Checkout(ctx context.Context) (domain.Order, error) {
	u := s.Session.CurrentUser()
	if u == nil {
		return domain.Order{}, ErrNotSignedIn
	}
	snap := s.Cart.SnapshotForCheckout()
	if len(snap.Items) == 0 {
		return domain.Order{}, invalid("your bag is empty")
	}
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	o := domain.Order{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		UserEmail: u.Email,
		Items:     snap.Items,
		Totals:    snap.Totals,
		PlacedAt:  s.Now().UTC(),
	}
	if err := s.append(o); err != nil {
		return domain.Order{}, err
	}
	if err := s.Cart.Settle(snap); err != nil {
		applog.Error(nil, "checkout.settle.fail", err, map[string]any{"order_id": o.ID})
	}
	applog.Audit(nil, "order.place", map[string]any{
		"order_id": o.ID, "user_id": u.ID, "count": o.Totals.Count, "subtotal": o.Totals.Subtotal.StringFixed(2),
	})
	s.Pub.Publish(notify.KindOrder, "Thank you! Your order has been placed.", "/orders/"+o.ID)
	return o, nil
}

func (s *OrderService) append(o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.Orders.Append(o)
	var se *repos.StorageError
	if errors.As(err, &se) {
		applog.Warn("orders.history.reset", err, nil)
		if rerr := s.Orders.Reset(); rerr != nil {
			return fmt.Errorf("reset order history: %w", rerr)
		}
		err = s.Orders.Append(o)
	}
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

// History lists the signed-in user's orders, newest first.
func (s *OrderService) History() ([]domain.Order, error) {
	u := s.Session.CurrentUser()
	if u == nil {
		return nil, ErrNotSignedIn
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	orders, err := s.Orders.ListByUser(u.ID)
	var se *repos.StorageError
	if errors.As(err, &se) {
		applog.Warn("orders.history.reset", err, nil)
		_ = s.Orders.Reset()
		return []domain.Order{}, nil
	}
	return orders, err
}

// Order returns one of the signed-in user's orders.
func (s *OrderService) Order(id string) (domain.Order, bool, error) {
	orders, err := s.History()
	if err != nil {
		return domain.Order{}, false, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, true, nil
		}
	}
	return domain.Order{}, false, nil
}
