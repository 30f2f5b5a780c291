package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCustomerName = "FINAL CONSUMER"
	DefaultCashierName  = "Zeta Cashier"
)

// ReceiptRecord is a confirmed sale as printed. Lines are the cart contents
// at submission time, not what the backend echoed.
type ReceiptRecord struct {
	SaleID        int64           `json:"sale_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Timestamp     time.Time       `json:"timestamp"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Lines         []CartLine      `json:"lines"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CashierName   string          `json:"cashier_name"`
	CustomerName  string          `json:"customer_name"`
	TaxID         string          `json:"tax_id,omitempty"`
}
