package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quickthrift/internal/domain"
	applog "quickthrift/internal/log"
	"quickthrift/internal/notify"
	"quickthrift/internal/remote"
	"quickthrift/internal/repos"
	"quickthrift/internal/validate"
)

// CatalogService serves products from the backend, keeping a local copy for
// when it is unreachable. Admins add products through it.
type CatalogService struct {
	mu      sync.Mutex // guards the local product key
	Prods   *repos.ProductRepo
	API     RemoteAPI
	Session *SessionManager
	Pub     notify.Publisher
	Timeout time.Duration
}

func NewCatalogService(prods *repos.ProductRepo, api RemoteAPI, session *SessionManager, pub notify.Publisher, timeout time.Duration) *CatalogService {
	if pub == nil {
		pub = notify.Discard{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CatalogService{Prods: prods, API: orOffline(api), Session: session, Pub: pub, Timeout: timeout}
}

type Category struct {
	Name          string   `json:"name"`
	SubCategories []string `json:"subCategories"`
}

// Products returns the backend list, refreshing the local copy, or the local
// copy when the backend fails.
func (s *CatalogService) Products(ctx context.Context) ([]domain.Product, error) {
	rctx, cancel := context.WithTimeout(ctx, s.Timeout)
	ps, err := s.API.FetchProducts(rctx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		if rerr := s.Prods.Replace(ps); rerr != nil {
			applog.Error(nil, "catalog.cache.fail", rerr, nil)
		}
		return ps, nil
	}
	if !errors.Is(err, remote.ErrNotConfigured) {
		applog.Warn("catalog.fetch.fallback", err, nil)
	}
	return s.localProducts()
}

// localProducts reads the local list, resetting it to the demo catalogue if
// it is unreadable. Caller holds mu.
func (s *CatalogService) localProducts() ([]domain.Product, error) {
	ps, err := s.Prods.List()
	var se *repos.StorageError
	if errors.As(err, &se) {
		applog.Warn("catalog.local.reset", err, nil)
		ps = repos.DefaultProducts()
		if rerr := s.Prods.Replace(ps); rerr != nil {
			applog.Error(nil, "catalog.local.reset.fail", rerr, nil)
		}
		return ps, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load local products: %w", err)
	}
	if ps == nil {
		ps = []domain.Product{}
	}
	return ps, nil
}

// Product looks a product up by id.
func (s *CatalogService) Product(ctx context.Context, id string) (domain.Product, bool, error) {
	ps, err := s.Products(ctx)
	if err != nil {
		return domain.Product{}, false, err
	}
	for _, p := range ps {
		if p.ID == id {
			return p, true, nil
		}
	}
	return domain.Product{}, false, nil
}

// Search filters by free text (name) and categories; empty filters match all.
func (s *CatalogService) Search(ctx context.Context, q, mainCategory, subCategory string) ([]domain.Product, error) {
	ps, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	out := []domain.Product{}
	for _, p := range ps {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		if mainCategory != "" && !strings.EqualFold(p.MainCategory, mainCategory) {
			continue
		}
		if subCategory != "" && !strings.EqualFold(p.SubCategory, subCategory) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Categories groups sub-categories under their main category, sorted.
func (s *CatalogService) Categories(ctx context.Context) ([]Category, error) {
	ps, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	subs := map[string]map[string]bool{}
	for _, p := range ps {
		if p.MainCategory == "" {
			continue
		}
		if subs[p.MainCategory] == nil {
			subs[p.MainCategory] = map[string]bool{}
		}
		if p.SubCategory != "" {
			subs[p.MainCategory][p.SubCategory] = true
		}
	}
	out := make([]Category, 0, len(subs))
	for main, set := range subs {
		c := Category{Name: main, SubCategories: []string{}}
		for sub := range set {
			c.SubCategories = append(c.SubCategories, sub)
		}
		sort.Strings(c.SubCategories)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func validateProduct(p domain.Product) (domain.Product, error) {
	var rules []string
	var ok bool
	if p.Name, ok = validate.Name(p.Name, 80); !ok {
		rules = append(rules, "product name is required (max 80 characters)")
	}
	if p.MainCategory, ok = validate.Name(p.MainCategory, 40); !ok {
		rules = append(rules, "main category is required")
	}
	if p.SubCategory, ok = validate.Name(p.SubCategory, 40); !ok {
		rules = append(rules, "sub category is required")
	}
	if p.Price.IsNegative() {
		rules = append(rules, "price must not be negative")
	}
	p.ImageRef = strings.TrimSpace(p.ImageRef)
	if len(rules) > 0 {
		return p, invalid(rules...)
	}
	return p, nil
}

// AddProduct is admin-only. It posts to the backend and falls back to the
// local list when the backend cannot answer.
func (s *CatalogService) AddProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	u := s.Session.CurrentUser()
	if u == nil {
		return domain.Product{}, ErrNotSignedIn
	}
	if !u.IsAdmin() {
		return domain.Product{}, authErr(Forbidden, nil)
	}
	p, err := validateProduct(p)
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = ""

	rctx, cancel := context.WithTimeout(ctx, s.Timeout)
	created, err := s.API.AddProduct(rctx, s.Session.Token(), p)
	cancel()
	source := "remote"
	switch {
	case err == nil:
		p = created
	case remote.IsUnavailable(err):
		applog.Warn("catalog.add.fallback", err, map[string]any{"name": p.Name})
		p.ID = uuid.NewString()
		source = "local"
	default:
		if code := remote.Status(err); code == 401 || code == 403 {
			return domain.Product{}, authErr(Forbidden, err)
		}
		var se *remote.StatusError
		if errors.As(err, &se) && se.Message != "" {
			return domain.Product{}, invalid(se.Message)
		}
		return domain.Product{}, invalid("product was rejected")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, lerr := s.localProducts(); lerr != nil {
		return domain.Product{}, lerr
	}
	if err := s.Prods.Add(p); err != nil {
		if source == "local" {
			return domain.Product{}, fmt.Errorf("save product: %w", err)
		}
		applog.Error(nil, "catalog.cache.fail", err, nil)
	}
	applog.Audit(nil, "admin.product.add", map[string]any{"product_id": p.ID, "source": source, "user_id": u.ID})
	s.Pub.Publish(notify.KindCatalog, fmt.Sprintf("Product %q added", p.Name), "")
	return p, nil
}
