package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "Cash"
	PaymentCard     PaymentMethod = "Card"
	PaymentTransfer PaymentMethod = "Transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

type SaleLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// PendingSale is the body of POST /sales. It is built per submission and never stored.
type PendingSale struct {
	BuyerID       int64         `json:"buyerId"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Lines         []SaleLine    `json:"lines"`
	CustomerName  string        `json:"customerName,omitempty"`
	TaxID         string        `json:"taxId,omitempty"`
}

type SaleDetail struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleUser struct {
	ID    FlexibleID `json:"id,omitempty"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
}

type Sale struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	Date          time.Time       `json:"date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        string          `json:"status"`
	Details       []SaleDetail    `json:"details,omitempty"`
	User          *SaleUser       `json:"user,omitempty"`
	Receipt       *Receipt        `json:"receipt,omitempty"`
}

type Receipt struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	SaleID       int64           `json:"saleId"`
	Date         time.Time       `json:"date"`
	Total        decimal.Decimal `json:"total"`
	CustomerName string          `json:"customerName,omitempty"`
	TaxID        string          `json:"taxId,omitempty"`
}

// SaleResult is the answer of POST /sales. Either part may be missing.
type SaleResult struct {
	Sale    *Sale
	Receipt *Receipt
}

// ParseSaleResponse decodes {sale, receipt}. When the body is not enveloped
// the whole object is read as both the sale and the receipt, so whichever
// fields the backend did send are kept.
func ParseSaleResponse(body []byte) SaleResult {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return SaleResult{}
	}

	var envelope struct {
		Sale    json.RawMessage `json:"sale"`
		Receipt json.RawMessage `json:"receipt"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return SaleResult{}
	}

	var result SaleResult
	if len(envelope.Sale) == 0 && len(envelope.Receipt) == 0 {
		result.Sale = decodeOrNil[Sale](body)
		result.Receipt = decodeOrNil[Receipt](body)
		return result
	}
	result.Sale = decodeOrNil[Sale](envelope.Sale)
	result.Receipt = decodeOrNil[Receipt](envelope.Receipt)
	return result
}

func decodeOrNil[T any](raw []byte) *T {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}
