package repos

import "quickthrift/internal/domain"

type CartRepo struct{ s Store }

func NewCartRepo(s Store) *CartRepo { return &CartRepo{s: s} }

// Load returns the persisted bag. A missing key is an empty bag; malformed
// JSON is reported as *StorageError.
func (r *CartRepo) Load() ([]domain.LineItem, error) {
	var items []domain.LineItem
	if _, err := getJSON(r.s, KeyBag, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Save writes the whole bag.
func (r *CartRepo) Save(items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}
	return putJSON(r.s, KeyBag, items)
}
