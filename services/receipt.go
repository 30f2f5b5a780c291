package services

import (
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/shopspring/decimal"
)

// ReceiptMeta is what the cashier screen knows about a sale regardless of
// what the backend answered.
type ReceiptMeta struct {
	PaymentMethod models.PaymentMethod
	CashierName   string
	CustomerName  string
	TaxID         string
}

// BuildReceipt turns a sale result into a printable record. It never fails:
// missing parts of the result leave zero amounts, and lines always come from
// the cart snapshot taken at submission time.
func BuildReceipt(result models.SaleResult, lines []models.CartLine, meta ReceiptMeta, now time.Time) models.ReceiptRecord {
	rec := models.ReceiptRecord{
		Subtotal:      decimal.Zero,
		Tax:           decimal.Zero,
		Total:         decimal.Zero,
		Lines:         make([]models.CartLine, len(lines)),
		PaymentMethod: meta.PaymentMethod,
		CashierName:   meta.CashierName,
		CustomerName:  meta.CustomerName,
		TaxID:         meta.TaxID,
		Timestamp:     now,
	}
	copy(rec.Lines, lines)

	if sale := result.Sale; sale != nil {
		rec.SaleID = sale.ID
		rec.Subtotal = sale.Subtotal
		rec.Tax = sale.Tax
		rec.Total = sale.Total
		if !sale.Date.IsZero() {
			rec.Timestamp = sale.Date
		}
		if rec.PaymentMethod == "" {
			rec.PaymentMethod = sale.PaymentMethod
		}
	}

	if r := result.Receipt; r != nil {
		rec.ReceiptNumber = r.Number
		if rec.SaleID == 0 {
			rec.SaleID = r.SaleID
		}
		if rec.Total.IsZero() {
			rec.Total = r.Total
		}
		if !r.Date.IsZero() {
			rec.Timestamp = r.Date
		}
		if rec.CustomerName == "" {
			rec.CustomerName = r.CustomerName
		}
		if rec.TaxID == "" {
			rec.TaxID = r.TaxID
		}
	}

	if rec.CustomerName == "" {
		rec.CustomerName = models.DefaultCustomerName
	}
	if rec.CashierName == "" {
		rec.CashierName = models.DefaultCashierName
	}
	if rec.PaymentMethod == "" {
		rec.PaymentMethod = models.PaymentCash
	}
	return rec
}
