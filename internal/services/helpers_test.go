package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"quickthrift/internal/domain"
	"quickthrift/internal/notify"
	"quickthrift/internal/remote"
	"quickthrift/internal/repos"
	"quickthrift/internal/services"
)

var errDown = &remote.NetworkError{Op: "test", Err: errors.New("connection refused")}

var adminAccount = repos.SeedAccount{
	ID: "u-admin", Username: "admin", Email: "admin@quickthrift.com", Password: "admin123", Role: domain.RoleAdmin,
}

// fakeAPI stands in for the backend. Unset hooks behave as a backend that
// cannot be reached.
type fakeAPI struct {
	calls         atomic.Int32
	signIn        func(ctx context.Context, email, password string) (remote.AuthResult, error)
	signUp        func(ctx context.Context, p domain.Profile) (remote.AuthResult, error)
	fetchProducts func(ctx context.Context) ([]domain.Product, error)
	addProduct    func(ctx context.Context, token string, p domain.Product) (domain.Product, error)
}

func (f *fakeAPI) SignIn(ctx context.Context, email, password string) (remote.AuthResult, error) {
	f.calls.Add(1)
	if f.signIn == nil {
		return remote.AuthResult{}, errDown
	}
	return f.signIn(ctx, email, password)
}

func (f *fakeAPI) SignUp(ctx context.Context, p domain.Profile) (remote.AuthResult, error) {
	f.calls.Add(1)
	if f.signUp == nil {
		return remote.AuthResult{}, errDown
	}
	return f.signUp(ctx, p)
}

func (f *fakeAPI) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	f.calls.Add(1)
	if f.fetchProducts == nil {
		return nil, errDown
	}
	return f.fetchProducts(ctx)
}

func (f *fakeAPI) AddProduct(ctx context.Context, token string, p domain.Product) (domain.Product, error) {
	f.calls.Add(1)
	if f.addProduct == nil {
		return domain.Product{}, errDown
	}
	return f.addProduct(ctx, token, p)
}

func sessionOpts() services.SessionOptions {
	return services.SessionOptions{
		Timeout:     time.Second,
		TokenSecret: []byte("test-secret"),
		BcryptCost:  bcrypt.MinCost,
		Accounts:    []repos.SeedAccount{repos.DemoAccount, adminAccount},
	}
}

func newSession(t *testing.T, store repos.Store, api services.RemoteAPI, pub notify.Publisher) *services.SessionManager {
	t.Helper()
	m := services.NewSessionManager(repos.NewSessionRepo(store), repos.NewUserRepo(store), api, pub, sessionOpts())
	if err := m.EnsureAccounts(); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
	return m
}
