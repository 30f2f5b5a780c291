package publisher

import (
	"context"

	"github.com/cristopher43/gamer-zeta-frontend/models"
)

// Publisher announces completed sales to downstream consumers.
type Publisher interface {
	PublishSaleCompleted(ctx context.Context, event models.SaleCompletedEvent) error
	Close() error
}

// Noop is used when EVENTS_BACKEND=none.
type Noop struct{}

func (Noop) PublishSaleCompleted(context.Context, models.SaleCompletedEvent) error { return nil }
func (Noop) Close() error                                                          { return nil }
