package repos

import (
	"sort"

	"quickthrift/internal/domain"
)

// OrderRepo is the local order history written at checkout.
type OrderRepo struct{ s Store }

func NewOrderRepo(s Store) *OrderRepo { return &OrderRepo{s: s} }

func (r *OrderRepo) List() ([]domain.Order, error) {
	var out []domain.Order
	if _, err := getJSON(r.s, KeyOrders, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrderRepo) Append(o domain.Order) error {
	orders, err := r.List()
	if err != nil {
		return err
	}
	return putJSON(r.s, KeyOrders, append(orders, o))
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	orders, err := r.List()
	if err != nil {
		return nil, err
	}
	out := []domain.Order{}
	for _, o := range orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	return out, nil
}

func (r *OrderRepo) Reset() error { return r.s.Remove(KeyOrders) }
