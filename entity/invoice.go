package entity

import (
	"math"
	"time"
)

// Domestic orders carry GST baked into the item price. The combined rate is
// split into two equal components (CGST + SGST) back-calculated from the
// tax-inclusive price. International orders are zero-tax, price-is-final.
const (
	DomesticTaxRate = 0.05
	subTaxShare     = 2
)

// InvoiceReason selects the email framing.
type InvoiceReason string

const (
	InvoiceReasonConfirmed InvoiceReason = "order_confirmed"
	InvoiceReasonDelivered InvoiceReason = "order_delivered"
)

type Invoice struct {
	Number       string
	OrderID      string
	GroupID      string
	IssuedAt     time.Time
	Domestic     bool
	Reason       InvoiceReason
	Recipient    Address
	Currency     string
	Lines        []InvoiceLine
	TotalNet     float64
	TotalTax     float64
	GrandTotal   float64
	SubTaxRate   float64
	SubTaxATotal float64
	SubTaxBTotal float64
}

// Title is the legal document heading: a tax invoice for domestic sales,
// a plain receipt otherwise.
func (inv *Invoice) Title() string {
	if inv.Domestic {
		return "Tax Invoice"
	}
	return "Receipt"
}

type InvoiceLine struct {
	Title    string
	Quantity int
	Price    float64
	Taxable  float64
	SubTaxA  float64
	SubTaxB  float64
	Total    float64
}

// NewInvoiceLine computes the tax breakdown for one item. For domestic
// sales the unit price is treated as tax-inclusive: taxable = price/1.05,
// each sub-tax = taxable * 0.025, rounded half-up to 2 decimals.
func NewInvoiceLine(item *LineItem, domestic bool) InvoiceLine {
	total := round2(item.Price * float64(item.Quantity))
	line := InvoiceLine{
		Title:    item.Title,
		Quantity: item.Quantity,
		Price:    round2(item.Price),
		Taxable:  total,
		Total:    total,
	}
	if !domestic {
		return line
	}
	taxable := round2(total / (1 + DomesticTaxRate))
	subTax := round2(taxable * DomesticTaxRate / subTaxShare)
	line.Taxable = taxable
	line.SubTaxA = subTax
	line.SubTaxB = subTax
	return line
}

// BuildInvoice assembles the invoice for a primary order plus the flattened
// line items of its whole group.
func BuildInvoice(primary *Order, items []LineItem, domestic bool, reason InvoiceReason) *Invoice {
	inv := &Invoice{
		Number:     "INV-" + primary.ID,
		OrderID:    primary.ID,
		GroupID:    primary.GroupID,
		IssuedAt:   time.Now(),
		Domestic:   domestic,
		Reason:     reason,
		Recipient:  primary.ShippingAddress,
		Currency:   primary.Payment.Currency,
		SubTaxRate: DomesticTaxRate / subTaxShare * 100,
	}
	for i := range items {
		line := NewInvoiceLine(&items[i], domestic)
		inv.Lines = append(inv.Lines, line)
		inv.TotalNet = round2(inv.TotalNet + line.Taxable)
		inv.SubTaxATotal = round2(inv.SubTaxATotal + line.SubTaxA)
		inv.SubTaxBTotal = round2(inv.SubTaxBTotal + line.SubTaxB)
		inv.GrandTotal = round2(inv.GrandTotal + line.Total)
	}
	inv.TotalTax = round2(inv.SubTaxATotal + inv.SubTaxBTotal)
	return inv
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
