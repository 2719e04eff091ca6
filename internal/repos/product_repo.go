package repos

import (
	"github.com/shopspring/decimal"

	"quickthrift/internal/domain"
)

// ProductRepo is the local product list used when the backend is down.
type ProductRepo struct{ s Store }

func NewProductRepo(s Store) *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) List() ([]domain.Product, error) {
	var out []domain.Product
	if _, err := getJSON(r.s, KeyProducts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Replace overwrites the local list, e.g. after a successful remote fetch.
func (r *ProductRepo) Replace(ps []domain.Product) error {
	if ps == nil {
		ps = []domain.Product{}
	}
	return putJSON(r.s, KeyProducts, ps)
}

func (r *ProductRepo) Add(p domain.Product) error {
	ps, err := r.List()
	if err != nil {
		return err
	}
	return r.Replace(append(ps, p))
}

// DefaultProducts is the demo catalogue shown before any backend fetch.
func DefaultProducts() []domain.Product {
	p := func(id, name, main, sub, price, img string) domain.Product {
		return domain.Product{ID: id, Name: name, MainCategory: main, SubCategory: sub,
			Price: decimal.RequireFromString(price), ImageRef: img}
	}
	return []domain.Product{
		p("shirt-001", "Shirt", "men", "tops", "10.00", "images/products/shirt-001.jpg"),
		p("jeans-001", "Jeans", "men", "bottoms", "25.00", "images/products/jeans-001.jpg"),
		p("dress-001", "Summer Dress", "women", "dresses", "32.50", "images/products/dress-001.jpg"),
		p("jacket-001", "Denim Jacket", "women", "outerwear", "45.00", "images/products/jacket-001.jpg"),
		p("sneaker-001", "Canvas Sneakers", "kids", "shoes", "18.99", "images/products/sneaker-001.jpg"),
	}
}

// SeedIfEmpty installs DefaultProducts when no list has been stored yet.
func (r *ProductRepo) SeedIfEmpty() error {
	_, found, err := r.s.Get(KeyProducts)
	if err != nil || found {
		return err
	}
	return r.Replace(DefaultProducts())
}
