package models

import "github.com/shopspring/decimal"

// CartLine is one product awaiting sale submission. StockSnapshot is the
// stock the catalog reported when the line was last validated.
type CartLine struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	StockSnapshot int             `json:"stock"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type AddItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartView is the cart as answered to the cashier screen.
type CartView struct {
	Lines      []CartLine      `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	Processing bool            `json:"processing"`
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the dismissible banner shown above the cashier screen.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// CheckoutForm holds the payment form between attempts.
type CheckoutForm struct {
	PaymentMethod PaymentMethod `json:"payment_method"`
	CustomerName  string        `json:"customer_name"`
	TaxID         string        `json:"tax_id"`
}

func DefaultCheckoutForm() CheckoutForm {
	return CheckoutForm{PaymentMethod: PaymentCash}
}

type CheckoutFormRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" binding:"omitempty,oneof=Cash Card Transfer"`
	CustomerName  string        `json:"customer_name" binding:"max=120"`
	TaxID         string        `json:"tax_id" binding:"max=20"`
}
