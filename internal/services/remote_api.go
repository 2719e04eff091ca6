package services

import (
	"context"

	"quickthrift/internal/domain"
	"quickthrift/internal/remote"
)

// RemoteAPI is the backend surface the managers consume. *remote.Client
// implements it; a nil *remote.Client is a permanently unavailable backend.
type RemoteAPI interface {
	SignIn(ctx context.Context, email, password string) (remote.AuthResult, error)
	SignUp(ctx context.Context, p domain.Profile) (remote.AuthResult, error)
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	AddProduct(ctx context.Context, token string, p domain.Product) (domain.Product, error)
}

var _ RemoteAPI = (*remote.Client)(nil)

func orOffline(api RemoteAPI) RemoteAPI {
	if api == nil {
		return (*remote.Client)(nil)
	}
	return api
}
