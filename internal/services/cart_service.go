package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"quickthrift/internal/domain"
	applog "quickthrift/internal/log"
	"quickthrift/internal/notify"
	"quickthrift/internal/repos"
)

// CartManager owns the bag. Every mutation rewrites the whole bag in the
// store while holding mu, so writes from this manager never interleave.
type CartManager struct {
	mu    sync.Mutex
	repo  *repos.CartRepo
	pub   notify.Publisher
	items []domain.LineItem
}

func NewCartManager(repo *repos.CartRepo, pub notify.Publisher) *CartManager {
	if pub == nil {
		pub = notify.Discard{}
	}
	return &CartManager{repo: repo, pub: pub}
}

// Load replaces the in-memory bag with the persisted one. A malformed value
// is silently reset to an empty bag; only store I/O errors are returned, and
// the bag is left empty in that case too.
func (m *CartManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.repo.Load()
	var se *repos.StorageError
	switch {
	case errors.As(err, &se):
		applog.Warn("cart.load.reset", err, nil)
		m.items = nil
		return m.persist()
	case err != nil:
		m.items = nil
		return fmt.Errorf("load bag: %w", err)
	}
	m.items = normalize(items)
	return nil
}

// normalize merges duplicate keys and drops lines that break the quantity
// invariant, e.g. after a hand-edited or older store value.
func normalize(in []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(in))
	idx := map[string]int{}
	for _, it := range in {
		if it.Key() == "" || it.Quantity < 1 {
			continue
		}
		if i, ok := idx[it.Key()]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.Key()] = len(out)
		out = append(out, it)
	}
	return out
}

func (m *CartManager) indexOf(key string) int {
	for i := range m.items {
		if m.items[i].Key() == key {
			return i
		}
	}
	return -1
}

func (m *CartManager) persist() error {
	if err := m.repo.Save(m.items); err != nil {
		return fmt.Errorf("save bag: %w", err)
	}
	return nil
}

// AddItem increments an existing line by qty or appends a new one. Callers
// validate price and quantity; qty below 1 is treated as 1.
func (m *CartManager) AddItem(key, displayName string, unitPrice decimal.Decimal, imageRef string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(key); i >= 0 {
		m.items[i].Quantity += qty
	} else {
		m.items = append(m.items, domain.LineItem{
			ProductID:   key,
			DisplayName: displayName,
			UnitPrice:   unitPrice,
			Quantity:    qty,
			ImageRef:    imageRef,
		})
	}
	m.pub.Publish(notify.KindCart, fmt.Sprintf("%s added to your bag", displayName), "")
	return m.persist()
}

// SetQuantity overwrites a line's quantity; n < 1 removes the line.
func (m *CartManager) SetQuantity(key string, n int) error {
	if n < 1 {
		return m.RemoveItem(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(key); i >= 0 {
		m.items[i].Quantity = n
		m.pub.Publish(notify.KindCart, "Bag updated", "")
	}
	return m.persist()
}

// RemoveItem drops the line for key; an unknown key is a no-op.
func (m *CartManager) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(key); i >= 0 {
		name := m.items[i].DisplayName
		m.items = append(m.items[:i:i], m.items[i+1:]...)
		m.pub.Publish(notify.KindCart, fmt.Sprintf("%s removed from your bag", name), "")
	}
	return m.persist()
}

func (m *CartManager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	return m.persist()
}

// Items returns a copy of the bag's lines in insertion order.
func (m *CartManager) Items() []domain.LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LineItem{}, m.items...)
}

func (m *CartManager) Totals() domain.Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return totals(m.items)
}

func totals(items []domain.LineItem) domain.Totals {
	t := domain.Totals{Subtotal: decimal.Zero}
	for _, it := range items {
		t.Count += it.Quantity
		t.Subtotal = t.Subtotal.Add(it.Subtotal())
	}
	return t
}

// SnapshotForCheckout copies the bag and its totals without mutating it.
func (m *CartManager) SnapshotForCheckout() domain.CartSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := append([]domain.LineItem{}, m.items...)
	return domain.CartSnapshot{Items: items, Totals: totals(items), CapturedAt: time.Now().UTC()}
}

// Settle removes the quantities captured in snap, keeping anything added to
// the bag after the snapshot was taken.
func (m *CartManager) Settle(snap domain.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	taken := map[string]int{}
	for _, it := range snap.Items {
		taken[it.Key()] += it.Quantity
	}
	kept := m.items[:0:0]
	for _, it := range m.items {
		it.Quantity -= taken[it.Key()]
		if it.Quantity >= 1 {
			kept = append(kept, it)
		}
	}
	m.items = kept
	return m.persist()
}
