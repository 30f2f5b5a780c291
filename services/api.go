package services

import (
	"context"

	"github.com/cristopher43/gamer-zeta-frontend/models"
)

// The backend operations each service depends on. clients.BackendClient
// satisfies all of them.

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Profile(ctx context.Context, token string) (*models.UserProfile, error)
}

type CatalogAPI interface {
	ListProducts(ctx context.Context, token string) ([]models.Product, error)
}

type SalesAPI interface {
	CreateSale(ctx context.Context, token string, sale models.PendingSale) (models.SaleResult, error)
}

type AdminAPI interface {
	CatalogAPI
	GetProduct(ctx context.Context, token string, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, token string, req models.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, token string, id int64, req models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, token string, id int64) error

	ListSales(ctx context.Context, token string) ([]models.Sale, error)
	DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error)

	ListUsers(ctx context.Context, token string) ([]models.User, error)
	GetUser(ctx context.Context, token string, id int64) (*models.User, error)
	CreateUser(ctx context.Context, token string, req models.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, token string, id int64, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, token string, id int64) error
}
