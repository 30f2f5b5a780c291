package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/logger"
	"github.com/cristopher43/gamer-zeta-frontend/models"
	pkgaws "github.com/cristopher43/gamer-zeta-frontend/pkg/aws"
	"github.com/cristopher43/gamer-zeta-frontend/publisher"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Metrics is satisfied by pkg/aws.MetricsClient.
type Metrics interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

// CatalogRefresher reloads the catalog after a sale changed stock.
type CatalogRefresher interface {
	RefreshAsync(token string)
}

type CheckoutOptions struct {
	// AllowFallbackCashier attributes sales whose session has no usable id
	// to FallbackCashierID. Without it such sales fail.
	AllowFallbackCashier bool
	FallbackCashierID    int64
	// EventTimeout bounds the background SaleCompleted publish.
	EventTimeout time.Duration
}

// CheckoutService turns a workspace cart into a sale on the backend.
type CheckoutService struct {
	sales     SalesAPI
	catalog   CatalogRefresher
	publisher publisher.Publisher
	metrics   Metrics
	opts      CheckoutOptions
	now       func() time.Time

	wg sync.WaitGroup
}

func NewCheckoutService(sales SalesAPI, catalog CatalogRefresher, pub publisher.Publisher, metrics Metrics, opts CheckoutOptions) *CheckoutService {
	if opts.FallbackCashierID <= 0 {
		opts.FallbackCashierID = 2
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = 10 * time.Second
	}
	if pub == nil {
		pub = publisher.Noop{}
	}
	return &CheckoutService{
		sales:     sales,
		catalog:   catalog,
		publisher: pub,
		metrics:   metrics,
		opts:      opts,
		now:       time.Now,
	}
}

// Checkout submits the cart of ws as one sale. Only one submission per
// workspace runs at a time; a second call while one is in flight returns
// ErrCheckoutInProgress and does nothing. On failure the cart and form are
// kept so the cashier can retry.
func (s *CheckoutService) Checkout(ctx context.Context, ws *Workspace, session *models.Session) (*models.ReceiptRecord, error) {
	if session == nil {
		return nil, apperrors.ErrUnauthorized
	}
	lines, form, ok := ws.begin()
	if !ok {
		return nil, apperrors.ErrCheckoutInProgress
	}
	defer ws.end()

	if len(lines) == 0 {
		ws.setNotice(models.NoticeError, apperrors.ErrEmptyCart.Message)
		return nil, apperrors.ErrEmptyCart
	}

	buyerID, err := s.resolveCashier(ctx, session)
	if err != nil {
		ws.setNotice(models.NoticeError, apperrors.From(err).Message)
		return nil, err
	}

	sale := models.PendingSale{
		BuyerID:       buyerID,
		PaymentMethod: form.PaymentMethod,
		Lines:         make([]models.SaleLine, 0, len(lines)),
		CustomerName:  form.CustomerName,
		TaxID:         form.TaxID,
	}
	for _, l := range lines {
		sale.Lines = append(sale.Lines, models.SaleLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	// A submitted sale runs to completion even if the caller goes away.
	submitCtx := context.WithoutCancel(ctx)
	start := s.now()
	result, err := s.sales.CreateSale(submitCtx, session.AccessToken, sale)
	latency := s.now().Sub(start)
	if err != nil {
		return nil, s.fail(submitCtx, ws, form, err)
	}

	receipt := BuildReceipt(result, lines, ReceiptMeta{
		PaymentMethod: form.PaymentMethod,
		CashierName:   session.Name,
		CustomerName:  form.CustomerName,
		TaxID:         form.TaxID,
	}, s.now())
	ws.completeSale(submitCtx, &receipt)

	logger.Info(ctx, "Sale completed",
		zap.Int64("sale_id", receipt.SaleID),
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.Int("lines", len(lines)),
		zap.Duration("latency", latency))
	s.record(submitCtx, true, form.PaymentMethod, latency)

	if s.catalog != nil {
		s.catalog.RefreshAsync(session.AccessToken)
	}
	s.announce(ctx, receipt, buyerID, lines)
	return &receipt, nil
}

func (s *CheckoutService) resolveCashier(ctx context.Context, session *models.Session) (int64, error) {
	if session.ID > 0 {
		return session.ID, nil
	}
	if !s.opts.AllowFallbackCashier {
		return 0, apperrors.ErrCashierUnresolved
	}
	logger.Warn(ctx, "Session has no cashier id, attributing sale to fallback cashier",
		zap.Int64("fallback_cashier_id", s.opts.FallbackCashierID))
	return s.opts.FallbackCashierID, nil
}

func (s *CheckoutService) fail(ctx context.Context, ws *Workspace, form models.CheckoutForm, err error) error {
	logger.Error(ctx, "Sale submission failed", err)
	s.record(ctx, false, form.PaymentMethod, 0)

	if errors.Is(err, apperrors.ErrTokenExpired) {
		ws.setNotice(models.NoticeError, apperrors.ErrTokenExpired.Message)
		return err
	}

	msg := MessageSaleFailed
	if errors.Is(err, apperrors.ErrUpstream) || errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrForbidden) {
		if m := apperrors.From(err).Message; m != "" {
			msg = m
		}
	}
	ws.setNotice(models.NoticeError, msg)
	return apperrors.ErrSubmissionFailed.WithMessage(msg).Wrap(err)
}

func (s *CheckoutService) record(ctx context.Context, ok bool, method models.PaymentMethod, latency time.Duration) {
	if s.metrics == nil {
		return
	}
	dims := map[string]string{"payment_method": string(method)}
	if !ok {
		_ = s.metrics.RecordCount(ctx, pkgaws.MetricSalesFailed, dims)
		return
	}
	_ = s.metrics.RecordCount(ctx, pkgaws.MetricSalesCompleted, dims)
	_ = s.metrics.RecordLatency(ctx, pkgaws.MetricCheckoutLatency, latency, dims)
}

// announce publishes SaleCompleted in the background.
func (s *CheckoutService) announce(ctx context.Context, receipt models.ReceiptRecord, cashierID int64, lines []models.CartLine) {
	units := 0
	for _, l := range lines {
		units += l.Quantity
	}
	event := models.SaleCompletedEvent{
		EventID:       uuid.NewString(),
		Type:          models.EventSaleCompleted,
		SaleID:        receipt.SaleID,
		ReceiptNumber: receipt.ReceiptNumber,
		CashierID:     cashierID,
		PaymentMethod: receipt.PaymentMethod,
		Total:         receipt.Total,
		Lines:         len(lines),
		Units:         units,
		OccurredAt:    receipt.Timestamp,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.EventTimeout)
		defer cancel()
		if err := s.publisher.PublishSaleCompleted(pubCtx, event); err != nil {
			logger.Error(pubCtx, "Failed to publish sale event", err, zap.Int64("sale_id", event.SaleID))
		}
	}()
}

// Wait blocks until background event publishing has finished.
func (s *CheckoutService) Wait() { s.wg.Wait() }
