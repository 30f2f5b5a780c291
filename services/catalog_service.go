package services

import (
	"context"
	"sync"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/logger"
	"github.com/cristopher43/gamer-zeta-frontend/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogService holds the snapshot of active products the cart validates against.
type CatalogService struct {
	api            CatalogAPI
	refreshTimeout time.Duration

	mu       sync.RWMutex
	products []models.Product
	byID     map[int64]models.Product
	loadedAt time.Time

	group singleflight.Group
	wg    sync.WaitGroup
}

func NewCatalogService(api CatalogAPI, refreshTimeout time.Duration) *CatalogService {
	if refreshTimeout <= 0 {
		refreshTimeout = 10 * time.Second
	}
	return &CatalogService{
		api:            api,
		refreshTimeout: refreshTimeout,
		byID:           make(map[int64]models.Product),
	}
}

// Load fetches the product list and replaces the snapshot with its active
// products. Concurrent loads share one backend call.
func (s *CatalogService) Load(ctx context.Context, token string) ([]models.Product, error) {
	v, err, _ := s.group.Do("products", func() (interface{}, error) {
		products, err := s.api.ListProducts(ctx, token)
		if err != nil {
			return nil, err
		}
		return s.store(products), nil
	})
	if err != nil {
		logger.Error(ctx, "Failed to load products", err)
		return nil, err
	}
	return cloneProducts(v.([]models.Product)), nil
}

// EnsureLoaded loads the catalog only when no snapshot exists yet.
func (s *CatalogService) EnsureLoaded(ctx context.Context, token string) error {
	if s.Loaded() {
		return nil
	}
	_, err := s.Load(ctx, token)
	return err
}

func (s *CatalogService) store(all []models.Product) []models.Product {
	active := make([]models.Product, 0, len(all))
	byID := make(map[int64]models.Product, len(all))
	for _, p := range all {
		if !p.Active {
			continue
		}
		active = append(active, p)
		byID[p.ID] = p
	}

	s.mu.Lock()
	s.products = active
	s.byID = byID
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return active
}

// RefreshAsync reloads the catalog in the background with its own timeout.
func (s *CatalogService) RefreshAsync(token string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		if _, err := s.Load(ctx, token); err != nil {
			logger.Log.Warn("Catalog refresh failed", zap.Error(err))
		}
	}()
}

// Wait blocks until background refreshes have finished.
func (s *CatalogService) Wait() { s.wg.Wait() }

func (s *CatalogService) Product(id int64) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

func (s *CatalogService) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products)
}

func (s *CatalogService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loadedAt.IsZero()
}

// Forget drops a product from the snapshot, e.g. after an admin deleted it.
func (s *CatalogService) Forget(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	kept := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
}

func cloneProducts(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	copy(out, in)
	return out
}
