package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/database"
	"github.com/cristopher43/gamer-zeta-frontend/logger"
	"github.com/cristopher43/gamer-zeta-frontend/models"
)

const (
	MessageSaleCompleted = "Sale completed successfully!"
	MessageSaleFailed    = "Error processing sale"
)

// Workspace is the cashier screen state of one session: cart, payment form,
// notice banner and the receipt on display.
type Workspace struct {
	sid   string
	carts database.CartRepository

	mu      sync.Mutex
	cart    *Cart
	form    models.CheckoutForm
	notice  *models.Notice
	receipt *models.ReceiptRecord

	processing atomic.Bool
}

func newWorkspace(sid string, catalog ProductLookup, carts database.CartRepository) *Workspace {
	return &Workspace{
		sid:   sid,
		carts: carts,
		cart:  NewCart(catalog),
		form:  models.DefaultCheckoutForm(),
	}
}

// Processing reports whether a sale submission is in flight.
func (w *Workspace) Processing() bool { return w.processing.Load() }

func (w *Workspace) AddItem(ctx context.Context, productID int64, quantity int) (bool, error) {
	var added bool
	err := w.mutateCart(ctx, func(c *Cart) error {
		var err error
		added, err = c.AddItem(productID, quantity)
		return err
	})
	return added, err
}

func (w *Workspace) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	return w.mutateCart(ctx, func(c *Cart) error {
		return c.UpdateQuantity(productID, quantity)
	})
}

func (w *Workspace) RemoveItem(ctx context.Context, productID int64) error {
	return w.mutateCart(ctx, func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

// ClearCart empties the cart on explicit cancellation.
func (w *Workspace) ClearCart(ctx context.Context) error {
	return w.mutateCart(ctx, func(c *Cart) error {
		c.Clear()
		return nil
	})
}

func (w *Workspace) mutateCart(ctx context.Context, fn func(*Cart) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processing.Load() {
		return apperrors.ErrCheckoutInProgress
	}
	if err := fn(w.cart); err != nil {
		if errors.Is(err, apperrors.ErrInsufficientStock) {
			w.notice = &models.Notice{Kind: models.NoticeError, Message: apperrors.From(err).Message}
		}
		return err
	}

	// written under the lock so the stored cart follows mutation order
	w.persist(ctx, w.cart.Lines())
	return nil
}

func (w *Workspace) persist(ctx context.Context, lines []models.CartLine) {
	if w.carts == nil {
		return
	}
	if err := w.carts.SaveCart(ctx, w.sid, lines); err != nil {
		logger.Error(ctx, "Failed to persist cart", err)
	}
}

func (w *Workspace) View() models.CartView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return models.CartView{
		Lines:      w.cart.Lines(),
		Total:      w.cart.Total(),
		Processing: w.processing.Load(),
	}
}

func (w *Workspace) Form() models.CheckoutForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// SetForm stores the payment form. An empty payment method keeps Cash.
func (w *Workspace) SetForm(req models.CheckoutFormRequest) (models.CheckoutForm, error) {
	form := models.CheckoutForm{
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		TaxID:         req.TaxID,
	}
	if form.PaymentMethod == "" {
		form.PaymentMethod = models.PaymentCash
	}
	if !form.PaymentMethod.Valid() {
		return models.CheckoutForm{}, apperrors.ErrInvalidInput.WithMessage("Unknown payment method")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processing.Load() {
		return models.CheckoutForm{}, apperrors.ErrCheckoutInProgress
	}
	w.form = form
	return form, nil
}

func (w *Workspace) Notice() *models.Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.notice == nil {
		return nil
	}
	n := *w.notice
	return &n
}

func (w *Workspace) setNotice(kind models.NoticeKind, msg string) {
	w.mu.Lock()
	w.notice = &models.Notice{Kind: kind, Message: msg}
	w.mu.Unlock()
}

func (w *Workspace) DismissNotice() {
	w.mu.Lock()
	w.notice = nil
	w.mu.Unlock()
}

// Receipt returns the receipt on display, or nil once it was closed.
func (w *Workspace) Receipt() *models.ReceiptRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.receipt
}

// CloseReceipt discards the receipt; it cannot be shown again from here.
func (w *Workspace) CloseReceipt() {
	w.mu.Lock()
	w.receipt = nil
	w.mu.Unlock()
}

// begin latches the workspace for one submission and copies the cart and
// form it will send. ok is false when a submission is already in flight.
// Mutations check the latch under the same lock, so none can slip in
// between the latch and the copy.
func (w *Workspace) begin() (lines []models.CartLine, form models.CheckoutForm, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.processing.CompareAndSwap(false, true) {
		return nil, models.CheckoutForm{}, false
	}
	return w.cart.Lines(), w.form, true
}

func (w *Workspace) end() { w.processing.Store(false) }

// completeSale runs after the backend accepted a sale: the receipt is stored
// and the cart, form and stale banner are reset.
func (w *Workspace) completeSale(ctx context.Context, receipt *models.ReceiptRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.receipt = receipt
	w.cart.Clear()
	w.form = models.DefaultCheckoutForm()
	w.notice = &models.Notice{Kind: models.NoticeSuccess, Message: MessageSaleCompleted}
	w.persist(ctx, nil)
}

// WorkspaceRegistry hands out one Workspace per session id.
type WorkspaceRegistry struct {
	catalog ProductLookup
	carts   database.CartRepository

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewWorkspaceRegistry(catalog ProductLookup, carts database.CartRepository) *WorkspaceRegistry {
	return &WorkspaceRegistry{
		catalog:    catalog,
		carts:      carts,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace of sid, restoring a persisted cart on first use.
func (r *WorkspaceRegistry) Get(ctx context.Context, sid string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.workspaces[sid]; ok {
		return ws
	}
	ws := newWorkspace(sid, r.catalog, r.carts)
	if r.carts != nil {
		lines, err := r.carts.GetCart(ctx, sid)
		if err != nil {
			logger.Error(ctx, "Failed to restore cart", err)
		}
		ws.cart.Restore(lines)
	}
	r.workspaces[sid] = ws
	return ws
}

// Drop forgets the workspace of sid and its persisted cart.
func (r *WorkspaceRegistry) Drop(sid string) {
	r.mu.Lock()
	delete(r.workspaces, sid)
	r.mu.Unlock()

	if r.carts != nil {
		if err := r.carts.DeleteCart(context.Background(), sid); err != nil {
			logger.Error(context.Background(), "Failed to delete cart", err)
		}
	}
}
