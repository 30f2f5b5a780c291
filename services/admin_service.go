package services

import (
	"context"
	"sort"
	"strings"

	"github.com/cristopher43/gamer-zeta-frontend/models"
)

const recentSalesLimit = 10

// AdminService backs the admin console. Product deletions also drop the
// product from the cashier catalog snapshot.
type AdminService struct {
	api     AdminAPI
	catalog *CatalogService
}

func NewAdminService(api AdminAPI, catalog *CatalogService) *AdminService {
	return &AdminService{api: api, catalog: catalog}
}

// Dashboard loads the stats and the most recent sales, newest first.
func (s *AdminService) Dashboard(ctx context.Context, token string) (*models.Dashboard, error) {
	stats, err := s.api.DashboardStats(ctx, token)
	if err != nil {
		return nil, err
	}
	sales, err := s.api.ListSales(ctx, token)
	if err != nil {
		return nil, err
	}
	return &models.Dashboard{Stats: *stats, RecentSales: RecentSales(sales, recentSalesLimit)}, nil
}

// RecentSales returns at most limit sales sorted by date, newest first.
func RecentSales(sales []models.Sale, limit int) []models.Sale {
	out := make([]models.Sale, len(sales))
	copy(out, sales)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Products lists every product, active or not, filtered by search.
func (s *AdminService) Products(ctx context.Context, token, search string) ([]models.Product, error) {
	products, err := s.api.ListProducts(ctx, token)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, search), nil
}

// FilterProducts keeps products whose name or category contains term,
// ignoring case. An empty term keeps everything.
func FilterProducts(products []models.Product, term string) []models.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Category), term) {
			out = append(out, p)
		}
	}
	return out
}

func (s *AdminService) Product(ctx context.Context, token string, id int64) (*models.Product, error) {
	return s.api.GetProduct(ctx, token, id)
}

func (s *AdminService) CreateProduct(ctx context.Context, token string, req models.CreateProductRequest) (*models.Product, error) {
	p, err := s.api.CreateProduct(ctx, token, req)
	if err != nil {
		return nil, err
	}
	s.refresh(token)
	return p, nil
}

func (s *AdminService) UpdateProduct(ctx context.Context, token string, id int64, req models.UpdateProductRequest) (*models.Product, error) {
	p, err := s.api.UpdateProduct(ctx, token, id, req)
	if err != nil {
		return nil, err
	}
	s.refresh(token)
	return p, nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, token string, id int64) error {
	if err := s.api.DeleteProduct(ctx, token, id); err != nil {
		return err
	}
	if s.catalog != nil {
		s.catalog.Forget(id)
	}
	return nil
}

func (s *AdminService) refresh(token string) {
	if s.catalog != nil && s.catalog.Loaded() {
		s.catalog.RefreshAsync(token)
	}
}

func (s *AdminService) Users(ctx context.Context, token string) ([]models.User, error) {
	return s.api.ListUsers(ctx, token)
}

func (s *AdminService) User(ctx context.Context, token string, id int64) (*models.User, error) {
	return s.api.GetUser(ctx, token, id)
}

func (s *AdminService) CreateUser(ctx context.Context, token string, req models.CreateUserRequest) (*models.User, error) {
	return s.api.CreateUser(ctx, token, req)
}

// UpdateUser sends the password only when one was provided; an empty
// password is omitted from the request body.
func (s *AdminService) UpdateUser(ctx context.Context, token string, id int64, req models.UpdateUserRequest) (*models.User, error) {
	return s.api.UpdateUser(ctx, token, id, req)
}

func (s *AdminService) DeleteUser(ctx context.Context, token string, id int64) error {
	return s.api.DeleteUser(ctx, token, id)
}
