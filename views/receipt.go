package views

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var receiptTemplate = template.Must(template.ParseFS(templateFS, "templates/receipt.html"))

type receiptLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	Subtotal  string
}

type receiptPage struct {
	SaleID        int64
	ReceiptNumber string
	Date          string
	CashierName   string
	CustomerName  string
	TaxID         string
	PaymentMethod models.PaymentMethod
	Lines         []receiptLine
	Subtotal      string
	Tax           string
	Total         string
	AutoPrint     bool
}

// RenderReceipt writes r as a printable HTML page. With autoPrint the page
// opens the browser print dialog once loaded.
func RenderReceipt(w io.Writer, r models.ReceiptRecord, autoPrint bool) error {
	page := receiptPage{
		SaleID:        r.SaleID,
		ReceiptNumber: r.ReceiptNumber,
		Date:          formatDate(r.Timestamp),
		CashierName:   r.CashierName,
		CustomerName:  r.CustomerName,
		TaxID:         r.TaxID,
		PaymentMethod: r.PaymentMethod,
		Lines:         make([]receiptLine, 0, len(r.Lines)),
		Subtotal:      FormatMoney(r.Subtotal),
		Tax:           FormatMoney(r.Tax),
		Total:         FormatMoney(r.Total),
		AutoPrint:     autoPrint,
	}
	for _, l := range r.Lines {
		page.Lines = append(page.Lines, receiptLine{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: FormatMoney(l.UnitPrice),
			Subtotal:  FormatMoney(l.Subtotal()),
		})
	}

	return receiptTemplate.Execute(w, page)
}

// FormatMoney renders an amount in whole pesos with dot thousand separators,
// e.g. $15.990.
func FormatMoney(d decimal.Decimal) string {
	digits := d.Round(0).Abs().String()

	var b strings.Builder
	if d.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02-01-2006 15:04")
}
