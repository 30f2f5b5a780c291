package services

import (
	"context"

	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockAuthAPI struct{ mock.Mock }

func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *MockAuthAPI) Profile(ctx context.Context, token string) (*models.UserProfile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

type MockCatalogAPI struct{ mock.Mock }

func (m *MockCatalogAPI) ListProducts(ctx context.Context, token string) ([]models.Product, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

type MockSalesAPI struct{ mock.Mock }

func (m *MockSalesAPI) CreateSale(ctx context.Context, token string, sale models.PendingSale) (models.SaleResult, error) {
	args := m.Called(ctx, token, sale)
	return args.Get(0).(models.SaleResult), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishSaleCompleted(ctx context.Context, event models.SaleCompletedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error { return nil }

type refreshRecorder struct {
	tokens chan string
}

func newRefreshRecorder() *refreshRecorder {
	return &refreshRecorder{tokens: make(chan string, 4)}
}

func (r *refreshRecorder) RefreshAsync(token string) { r.tokens <- token }

// catalogOf is a fixed ProductLookup.
type catalogOf map[int64]models.Product

func (c catalogOf) Product(id int64) (models.Product, bool) {
	p, ok := c[id]
	return p, ok
}

func product(id int64, name string, price int64, stock int) models.Product {
	return models.Product{ID: id, Name: name, Price: decimal.NewFromInt(price), Stock: stock, Category: "Gaming", Active: true}
}
