package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventSaleCompleted = "sale.completed"

// SaleCompletedEvent is published after the backend accepted a sale.
type SaleCompletedEvent struct {
	EventID       string          `json:"event_id"`
	Type          string          `json:"type"`
	SaleID        int64           `json:"sale_id"`
	ReceiptNumber string          `json:"receipt_number"`
	CashierID     int64           `json:"cashier_id"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	Lines         int             `json:"lines"`
	Units         int             `json:"units"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
