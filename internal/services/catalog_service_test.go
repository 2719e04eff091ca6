package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quickthrift/internal/domain"
	"quickthrift/internal/remote"
	"quickthrift/internal/repos"
	"quickthrift/internal/services"
)

func newCatalog(t *testing.T, store repos.Store, api services.RemoteAPI) (*services.CatalogService, *services.SessionManager) {
	t.Helper()
	prods := repos.NewProductRepo(store)
	if err := prods.SeedIfEmpty(); err != nil {
		t.Fatal(err)
	}
	sess := newSession(t, store, api, nil)
	return services.NewCatalogService(prods, api, sess, nil, time.Second), sess
}

func TestCatalog_FallsBackToLocal(t *testing.T) {
	cat, _ := newCatalog(t, repos.NewMemStore(), &fakeAPI{})
	ps, err := cat.Products(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != len(repos.DefaultProducts()) {
		t.Fatalf("want demo catalogue, got %d products", len(ps))
	}
	p, found, err := cat.Product(context.Background(), "shirt-001")
	if err != nil || !found || !p.Price.Equal(dec("10")) {
		t.Fatalf("lookup shirt: %+v %v %v", p, found, err)
	}
	if _, found, _ := cat.Product(context.Background(), "nope"); found {
		t.Fatal("unknown id found")
	}
}

func TestCatalog_RemoteRefreshesLocalCopy(t *testing.T) {
	store := repos.NewMemStore()
	remoteList := []domain.Product{{ID: "r1", Name: "Remote Hat", MainCategory: "men", SubCategory: "hats", Price: dec("7")}}
	api := &fakeAPI{fetchProducts: func(context.Context) ([]domain.Product, error) { return remoteList, nil }}
	cat, _ := newCatalog(t, store, api)

	ps, err := cat.Products(context.Background())
	if err != nil || len(ps) != 1 || ps[0].ID != "r1" {
		t.Fatalf("remote list: %+v %v", ps, err)
	}

	api.fetchProducts = nil
	ps, err = cat.Products(context.Background())
	if err != nil || len(ps) != 1 || ps[0].ID != "r1" {
		t.Fatalf("fallback should serve the last remote list: %+v %v", ps, err)
	}
}

func TestCatalog_CorruptLocalListResets(t *testing.T) {
	store := repos.NewMemStore()
	cat, _ := newCatalog(t, store, nil)
	_ = store.Set(repos.KeyProducts, "{broken")
	ps, err := cat.Products(context.Background())
	if err != nil || len(ps) != len(repos.DefaultProducts()) {
		t.Fatalf("want reset to demo list: %d %v", len(ps), err)
	}
}

func TestCatalog_SearchAndCategories(t *testing.T) {
	cat, _ := newCatalog(t, repos.NewMemStore(), nil)
	ctx := context.Background()

	got, err := cat.Search(ctx, "jean", "", "")
	if err != nil || len(got) != 1 || got[0].ID != "jeans-001" {
		t.Fatalf("text search: %+v %v", got, err)
	}
	got, _ = cat.Search(ctx, "", "MEN", "")
	if len(got) != 2 {
		t.Fatalf("main category filter: %d", len(got))
	}
	got, _ = cat.Search(ctx, "", "men", "tops")
	if len(got) != 1 || got[0].ID != "shirt-001" {
		t.Fatalf("sub category filter: %+v", got)
	}

	cats, err := cat.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 3 || cats[0].Name != "kids" || cats[1].Name != "men" {
		t.Fatalf("categories: %+v", cats)
	}
	if len(cats[1].SubCategories) != 2 || cats[1].SubCategories[0] != "bottoms" {
		t.Fatalf("men sub categories: %+v", cats[1].SubCategories)
	}
}

func hat() domain.Product {
	return domain.Product{Name: "Hat", MainCategory: "men", SubCategory: "hats", Price: dec("5.00")}
}

func TestCatalog_AddProductRequiresAdmin(t *testing.T) {
	cat, sess := newCatalog(t, repos.NewMemStore(), &fakeAPI{})
	ctx := context.Background()

	if _, err := cat.AddProduct(ctx, hat()); !errors.Is(err, services.ErrNotSignedIn) {
		t.Fatalf("anonymous: %v", err)
	}
	if _, err := sess.SignIn(ctx, "demo@quickthrift.com", "demo123"); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.AddProduct(ctx, hat()); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("plain user: %v", err)
	}
}

func TestCatalog_AddProductLocalFallback(t *testing.T) {
	cat, sess := newCatalog(t, repos.NewMemStore(), &fakeAPI{})
	ctx := context.Background()
	if _, err := sess.SignIn(ctx, "admin@quickthrift.com", "admin123"); err != nil {
		t.Fatal(err)
	}

	bad := hat()
	bad.Name = " "
	bad.Price = dec("-1")
	var ve *services.ValidationError
	if _, err := cat.AddProduct(ctx, bad); !errors.As(err, &ve) || len(ve.Rules) != 2 {
		t.Fatalf("want two rules, got %v", err)
	}

	p, err := cat.AddProduct(ctx, hat())
	if err != nil {
		t.Fatal(err)
	}
	if p.ID == "" {
		t.Fatal("local product has no id")
	}
	got, found, _ := cat.Product(ctx, p.ID)
	if !found || got.Name != "Hat" {
		t.Fatalf("added product not listed: %+v", got)
	}
}

func TestCatalog_AddProductRemote(t *testing.T) {
	var gotToken string
	api := &fakeAPI{addProduct: func(_ context.Context, token string, p domain.Product) (domain.Product, error) {
		gotToken = token
		if p.Name == "Forbidden Hat" {
			return domain.Product{}, &remote.StatusError{Code: 403}
		}
		if p.Name == "Odd Hat" {
			return domain.Product{}, &remote.StatusError{Code: 422, Message: "image is required"}
		}
		p.ID = "srv-1"
		return p, nil
	}}
	cat, sess := newCatalog(t, repos.NewMemStore(), api)
	ctx := context.Background()
	if _, err := sess.SignIn(ctx, "admin@quickthrift.com", "admin123"); err != nil {
		t.Fatal(err)
	}

	p, err := cat.AddProduct(ctx, hat())
	if err != nil || p.ID != "srv-1" {
		t.Fatalf("remote add: %+v %v", p, err)
	}
	if gotToken == "" || gotToken != sess.Token() {
		t.Fatalf("session token not forwarded: %q", gotToken)
	}

	fh := hat()
	fh.Name = "Forbidden Hat"
	if _, err := cat.AddProduct(ctx, fh); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("403: %v", err)
	}
	oh := hat()
	oh.Name = "Odd Hat"
	var ve *services.ValidationError
	if _, err := cat.AddProduct(ctx, oh); !errors.As(err, &ve) || ve.Rules[0] != "image is required" {
		t.Fatalf("422: %v", err)
	}
}
