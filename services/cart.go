package services

import (
	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/shopspring/decimal"
)

// ProductLookup resolves a product from the current catalog snapshot.
type ProductLookup interface {
	Product(id int64) (models.Product, bool)
}

// Cart maps products to requested quantities. Every mutation keeps
// quantity <= stock snapshot for every line; a rejected call changes nothing.
// Cart is not safe for concurrent use; Workspace serializes access.
type Cart struct {
	catalog ProductLookup
	lines   []models.CartLine
}

func NewCart(catalog ProductLookup) *Cart {
	return &Cart{catalog: catalog}
}

func (c *Cart) index(productID int64) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem adds quantity units of a product. It reports false without error
// when the product is not in the catalog.
func (c *Cart) AddItem(productID int64, quantity int) (bool, error) {
	product, ok := c.catalog.Product(productID)
	if !ok {
		return false, nil
	}
	if quantity < 1 {
		return false, apperrors.ErrInvalidInput.WithMessage("Quantity must be at least 1")
	}

	i := c.index(productID)
	current := 0
	if i >= 0 {
		current = c.lines[i].Quantity
	}
	if current+quantity > product.Stock {
		return false, apperrors.InsufficientStock(productID, product.Stock)
	}

	if i >= 0 {
		c.lines[i].Quantity += quantity
		c.lines[i].StockSnapshot = product.Stock
		return true, nil
	}
	c.lines = append(c.lines, models.CartLine{
		ProductID:     product.ID,
		Name:          product.Name,
		UnitPrice:     product.Price,
		Quantity:      quantity,
		StockSnapshot: product.Stock,
	})
	return true, nil
}

// UpdateQuantity replaces the quantity of a line. n <= 0 removes the line.
func (c *Cart) UpdateQuantity(productID int64, n int) error {
	if n <= 0 {
		c.RemoveItem(productID)
		return nil
	}
	i := c.index(productID)
	if i < 0 {
		return nil
	}
	if n > c.lines[i].StockSnapshot {
		return apperrors.InsufficientStock(productID, c.lines[i].StockSnapshot)
	}
	c.lines[i].Quantity = n
	return nil
}

func (c *Cart) RemoveItem(productID int64) {
	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Units() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a copy in insertion order.
func (c *Cart) Lines() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Restore replaces the cart with a persisted snapshot. Lines that do not
// satisfy the cart invariants are dropped.
func (c *Cart) Restore(lines []models.CartLine) {
	c.lines = nil
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > l.StockSnapshot || c.index(l.ProductID) >= 0 {
			continue
		}
		c.lines = append(c.lines, l)
	}
}
