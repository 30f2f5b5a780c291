package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/database"
	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var cashier = &models.Session{ID: 7, Name: "Ana", Role: models.RoleCashier, AccessToken: "tok"}

type checkoutFixture struct {
	sales     *MockSalesAPI
	publisher *MockPublisher
	refresh   *refreshRecorder
	carts     *database.MemoryCartRepository
	ws        *Workspace
	svc       *CheckoutService
}

func newCheckoutFixture(t *testing.T, opts CheckoutOptions) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		sales:     new(MockSalesAPI),
		publisher: new(MockPublisher),
		refresh:   newRefreshRecorder(),
		carts:     database.NewMemoryCartRepository(),
	}
	f.ws = NewWorkspaceRegistry(testCatalog, f.carts).Get(context.Background(), "sid-1")
	f.svc = NewCheckoutService(f.sales, f.refresh, f.publisher, nil, opts)
	return f
}

func (f *checkoutFixture) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.ws.AddItem(ctx, 1, 2)
	require.NoError(t, err)
	_, err = f.ws.AddItem(ctx, 2, 1)
	require.NoError(t, err)
}

func TestCheckoutEmptyCartNeverCallsBackend(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})

	_, err := f.svc.Checkout(context.Background(), f.ws, cashier)

	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
	f.sales.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, models.NoticeError, f.ws.Notice().Kind)
	assert.False(t, f.ws.Processing())
}

func TestCheckoutSuccessKeepsSubmittedLines(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	f.fill(t)
	_, err := f.ws.SetForm(models.CheckoutFormRequest{PaymentMethod: models.PaymentCash, CustomerName: "Juan Perez", TaxID: "12.345.678-9"})
	require.NoError(t, err)

	expected := models.PendingSale{
		BuyerID:       7,
		PaymentMethod: models.PaymentCash,
		Lines:         []models.SaleLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
		CustomerName:  "Juan Perez",
		TaxID:         "12.345.678-9",
	}
	f.sales.On("CreateSale", mock.Anything, "tok", expected).Return(models.SaleResult{
		Sale:    &models.Sale{ID: 55, Subtotal: decimal.NewFromInt(69180), Tax: decimal.NewFromInt(13144), Total: decimal.NewFromInt(82324)},
		Receipt: &models.Receipt{Number: "B-00055"},
	}, nil)
	f.publisher.On("PublishSaleCompleted", mock.Anything, mock.MatchedBy(func(e models.SaleCompletedEvent) bool {
		return e.SaleID == 55 && e.CashierID == 7 && e.Units == 3 && e.Lines == 2
	})).Return(nil)

	receipt, err := f.svc.Checkout(context.Background(), f.ws, cashier)
	require.NoError(t, err)
	f.svc.Wait()

	require.Len(t, receipt.Lines, 2)
	assert.Equal(t, "Gamer Mouse", receipt.Lines[0].Name)
	assert.True(t, decimal.NewFromInt(15990).Equal(receipt.Lines[0].UnitPrice))
	assert.Equal(t, "Mechanical Keyboard", receipt.Lines[1].Name)
	assert.Equal(t, "B-00055", receipt.ReceiptNumber)
	assert.Equal(t, "Juan Perez", receipt.CustomerName)
	assert.Equal(t, "Ana", receipt.CashierName)
	assert.Equal(t, "82324", receipt.Total.String())

	// cart, form and banner are reset; the receipt is on display
	assert.Empty(t, f.ws.View().Lines)
	assert.Equal(t, models.DefaultCheckoutForm(), f.ws.Form())
	assert.Equal(t, &models.Notice{Kind: models.NoticeSuccess, Message: MessageSaleCompleted}, f.ws.Notice())
	assert.Equal(t, receipt, f.ws.Receipt())
	assert.False(t, f.ws.Processing())

	stored, _ := f.carts.GetCart(context.Background(), "sid-1")
	assert.Empty(t, stored)

	select {
	case tok := <-f.refresh.tokens:
		assert.Equal(t, "tok", tok)
	case <-time.After(time.Second):
		t.Fatal("catalog refresh was not scheduled")
	}
	f.publisher.AssertExpectations(t)
}

func TestCheckoutFailureKeepsCartAndForm(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	f.fill(t)
	_, err := f.ws.SetForm(models.CheckoutFormRequest{PaymentMethod: models.PaymentCard, CustomerName: "Juan"})
	require.NoError(t, err)

	rejected := apperrors.ErrUpstream.WithCode(400).WithMessage("Insufficient stock for Gamer Mouse")
	f.sales.On("CreateSale", mock.Anything, "tok", mock.Anything).Return(models.SaleResult{}, rejected)

	_, err = f.svc.Checkout(context.Background(), f.ws, cashier)

	require.ErrorIs(t, err, apperrors.ErrSubmissionFailed)
	assert.Equal(t, "Insufficient stock for Gamer Mouse", apperrors.From(err).Message)
	assert.Len(t, f.ws.View().Lines, 2)
	assert.Equal(t, models.PaymentCard, f.ws.Form().PaymentMethod)
	assert.Equal(t, "Juan", f.ws.Form().CustomerName)
	assert.Equal(t, &models.Notice{Kind: models.NoticeError, Message: "Insufficient stock for Gamer Mouse"}, f.ws.Notice())
	assert.Nil(t, f.ws.Receipt())
	assert.False(t, f.ws.Processing())
	f.publisher.AssertNotCalled(t, "PublishSaleCompleted", mock.Anything, mock.Anything)
	assert.Empty(t, f.refresh.tokens)
}

func TestCheckoutNetworkFailureUsesGenericMessage(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	f.fill(t)
	f.sales.On("CreateSale", mock.Anything, "tok", mock.Anything).Return(models.SaleResult{}, apperrors.ErrUnreachable)

	_, err := f.svc.Checkout(context.Background(), f.ws, cashier)

	assert.ErrorIs(t, err, apperrors.ErrSubmissionFailed)
	assert.ErrorIs(t, err, apperrors.ErrUnreachable)
	assert.Equal(t, MessageSaleFailed, f.ws.Notice().Message)
}

func TestCheckoutFallbackCashier(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{AllowFallbackCashier: true})
	f.fill(t)
	f.sales.On("CreateSale", mock.Anything, "tok", mock.MatchedBy(func(s models.PendingSale) bool {
		return s.BuyerID == 2
	})).Return(models.SaleResult{}, nil)
	f.publisher.On("PublishSaleCompleted", mock.Anything, mock.Anything).Return(nil)

	anonymous := &models.Session{Name: "", Role: models.RoleCashier, AccessToken: "tok"}
	receipt, err := f.svc.Checkout(context.Background(), f.ws, anonymous)
	require.NoError(t, err)
	f.svc.Wait()

	assert.Equal(t, models.DefaultCashierName, receipt.CashierName)
	assert.True(t, receipt.Total.IsZero())
	assert.Len(t, receipt.Lines, 2)
}

func TestCheckoutRejectsUnresolvedCashier(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	f.fill(t)

	_, err := f.svc.Checkout(context.Background(), f.ws, &models.Session{AccessToken: "tok"})

	assert.ErrorIs(t, err, apperrors.ErrCashierUnresolved)
	assert.Equal(t, apperrors.ErrCashierUnresolved.Message, f.ws.Notice().Message)
	assert.False(t, f.ws.Processing())
	f.sales.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, f.ws.View().Lines, 2)
}

func TestCheckoutSingleInFlight(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	f.fill(t)

	entered := make(chan struct{})
	release := make(chan time.Time)
	f.sales.On("CreateSale", mock.Anything, "tok", mock.Anything).
		Run(func(mock.Arguments) { close(entered) }).
		WaitUntil(release).
		Return(models.SaleResult{Sale: &models.Sale{ID: 1}}, nil).
		Once()
	f.publisher.On("PublishSaleCompleted", mock.Anything, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = f.svc.Checkout(context.Background(), f.ws, cashier)
	}()
	<-entered

	assert.True(t, f.ws.Processing())
	assert.True(t, f.ws.View().Processing)

	_, err := f.svc.Checkout(context.Background(), f.ws, cashier)
	assert.ErrorIs(t, err, apperrors.ErrCheckoutInProgress)

	_, err = f.ws.AddItem(context.Background(), 2, 1)
	assert.ErrorIs(t, err, apperrors.ErrCheckoutInProgress)
	_, err = f.ws.SetForm(models.CheckoutFormRequest{PaymentMethod: models.PaymentTransfer})
	assert.ErrorIs(t, err, apperrors.ErrCheckoutInProgress)

	close(release)
	wg.Wait()
	f.svc.Wait()

	require.NoError(t, firstErr)
	assert.False(t, f.ws.Processing())
	f.sales.AssertNumberOfCalls(t, "CreateSale", 1)
}

func TestCheckoutTokenExpiredPassesThrough(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	f.fill(t)
	f.sales.On("CreateSale", mock.Anything, "tok", mock.Anything).Return(models.SaleResult{}, apperrors.ErrTokenExpired)

	_, err := f.svc.Checkout(context.Background(), f.ws, cashier)

	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
	assert.NotErrorIs(t, err, apperrors.ErrSubmissionFailed)
	assert.Len(t, f.ws.View().Lines, 2)
}

func TestCheckoutRequiresSession(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	_, err := f.svc.Checkout(context.Background(), f.ws, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
