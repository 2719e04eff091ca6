package repos

import (
	"encoding/json"
	"fmt"
)

// Stable store keys. Each manager owns a disjoint set.
const (
	KeyBag          = "quickthrift.bag"
	KeySessionToken = "quickthrift.session.token"
	KeySessionUser  = "quickthrift.session.user"
	KeyUsers        = "quickthrift.users"
	KeyProducts     = "quickthrift.products"
	KeyOrders       = "quickthrift.orders"
)

// Store is a synchronous string key-value store, the client's only durable
// resource.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// StorageError reports a persisted value that could not be decoded. Callers
// recover by resetting the key to its default.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("malformed value for %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// getJSON decodes key into v. A missing key returns false with no error.
func getJSON(s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, &StorageError{Key: key, Err: err}
	}
	return true, nil
}

// putJSON writes the full serialised value; there are no partial writes.
func putJSON(s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, string(b))
}
