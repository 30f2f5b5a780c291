package controllers

import (
	"bytes"
	"net/http"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/logger"
	"github.com/cristopher43/gamer-zeta-frontend/middleware"
	"github.com/cristopher43/gamer-zeta-frontend/models"
	"github.com/cristopher43/gamer-zeta-frontend/services"
	"github.com/cristopher43/gamer-zeta-frontend/views"

	"github.com/gin-gonic/gin"
)

// CashierController serves the checkout screen of the signed-in cashier.
type CashierController struct {
	sessions   SessionCloser
	catalog    *services.CatalogService
	workspaces *services.WorkspaceRegistry
	checkout   *services.CheckoutService
}

func NewCashierController(sessions SessionCloser, catalog *services.CatalogService, workspaces *services.WorkspaceRegistry, checkout *services.CheckoutService) *CashierController {
	return &CashierController{
		sessions:   sessions,
		catalog:    catalog,
		workspaces: workspaces,
		checkout:   checkout,
	}
}

func (cc *CashierController) workspace(c *gin.Context) *services.Workspace {
	return cc.workspaces.Get(c.Request.Context(), middleware.GetSessionID(c))
}

func screen(ws *services.Workspace) gin.H {
	return gin.H{
		"cart":    ws.View(),
		"form":    ws.Form(),
		"notice":  ws.Notice(),
		"receipt": ws.Receipt(),
	}
}

// Screen answers the whole cashier screen state.
func (cc *CashierController) Screen(c *gin.Context) {
	c.JSON(http.StatusOK, screen(cc.workspace(c)))
}

// Products reloads the catalog, as the screen does whenever it is opened.
func (cc *CashierController) Products(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	products, err := cc.catalog.Load(c.Request.Context(), token)
	if err != nil {
		respondError(c, cc.sessions, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (cc *CashierController) Cart(c *gin.Context) {
	c.JSON(http.StatusOK, cc.workspace(c).View())
}

func (cc *CashierController) AddItem(c *gin.Context) {
	token, ok := mustSession(c)
	if !ok {
		return
	}
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := cc.catalog.EnsureLoaded(c.Request.Context(), token); err != nil {
		respondError(c, cc.sessions, err)
		return
	}

	ws := cc.workspace(c)
	added, err := ws.AddItem(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if !added {
		logger.Debug(c, "Ignoring unknown product")
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "cart": ws.View()})
}

func (cc *CashierController) UpdateQuantity(c *gin.Context) {
	id, err := pathID(c, "product_id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}

	ws := cc.workspace(c)
	if err := ws.UpdateQuantity(c.Request.Context(), id, req.Quantity); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ws.View())
}

func (cc *CashierController) RemoveItem(c *gin.Context) {
	id, err := pathID(c, "product_id")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	ws := cc.workspace(c)
	if err := ws.RemoveItem(c.Request.Context(), id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ws.View())
}

func (cc *CashierController) ClearCart(c *gin.Context) {
	ws := cc.workspace(c)
	if err := ws.ClearCart(c.Request.Context()); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ws.View())
}

func (cc *CashierController) SetForm(c *gin.Context) {
	var req models.CheckoutFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}
	form, err := cc.workspace(c).SetForm(req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

func (cc *CashierController) Checkout(c *gin.Context) {
	session, err := middleware.GetSession(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	ws := cc.workspace(c)
	receipt, err := cc.checkout.Checkout(c.Request.Context(), ws, session)
	if err != nil {
		respondError(c, cc.sessions, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"receipt": receipt, "notice": ws.Notice()})
}

func (cc *CashierController) DismissNotice(c *gin.Context) {
	cc.workspace(c).DismissNotice()
	c.Status(http.StatusNoContent)
}

func (cc *CashierController) Receipt(c *gin.Context) {
	receipt := cc.workspace(c).Receipt()
	if receipt == nil {
		apperrors.Respond(c, apperrors.ErrNotFound.WithMessage("No receipt on display"))
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// PrintReceipt renders the receipt on display as a printable page. The print
// dialog opens on load unless autoprint=false.
func (cc *CashierController) PrintReceipt(c *gin.Context) {
	receipt := cc.workspace(c).Receipt()
	if receipt == nil {
		apperrors.Respond(c, apperrors.ErrNotFound.WithMessage("No receipt on display"))
		return
	}

	var page bytes.Buffer
	if err := views.RenderReceipt(&page, *receipt, c.Query("autoprint") != "false"); err != nil {
		logger.Error(c, "Failed to render receipt", err)
		apperrors.Respond(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

// CloseReceipt discards the receipt on display.
func (cc *CashierController) CloseReceipt(c *gin.Context) {
	cc.workspace(c).CloseReceipt()
	c.Status(http.StatusNoContent)
}
