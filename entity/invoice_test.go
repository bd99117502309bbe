package entity

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewInvoiceLine_Domestic(t *testing.T) {
	tests := []struct {
		name        string
		price       float64
		quantity    int
		wantTaxable float64
		wantSubTax  float64
		wantTotal   float64
	}{
		{
			name:        "tax inclusive round number",
			price:       105.00,
			quantity:    1,
			wantTaxable: 100.00,
			wantSubTax:  2.50,
			wantTotal:   105.00,
		},
		{
			name:        "quantity multiplies before back-calculation",
			price:       105.00,
			quantity:    2,
			wantTaxable: 200.00,
			wantSubTax:  5.00,
			wantTotal:   210.00,
		},
		{
			name:        "uneven price rounds half up",
			price:       499.00,
			quantity:    1,
			wantTaxable: 475.24,
			wantSubTax:  11.88,
			wantTotal:   499.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := LineItem{Title: "tee", Price: tt.price, Quantity: tt.quantity}
			line := NewInvoiceLine(&item, true)

			if !almostEqual(line.Taxable, tt.wantTaxable) {
				t.Errorf("Taxable = %v, want %v", line.Taxable, tt.wantTaxable)
			}
			if !almostEqual(line.SubTaxA, tt.wantSubTax) {
				t.Errorf("SubTaxA = %v, want %v", line.SubTaxA, tt.wantSubTax)
			}
			if !almostEqual(line.SubTaxB, tt.wantSubTax) {
				t.Errorf("SubTaxB = %v, want %v", line.SubTaxB, tt.wantSubTax)
			}
			if !almostEqual(line.Total, tt.wantTotal) {
				t.Errorf("Total = %v, want %v", line.Total, tt.wantTotal)
			}
		})
	}
}

func TestNewInvoiceLine_International(t *testing.T) {
	item := LineItem{Title: "tee", Price: 29.99, Quantity: 2}
	line := NewInvoiceLine(&item, false)

	if !almostEqual(line.Taxable, 59.98) {
		t.Errorf("Taxable = %v, want 59.98", line.Taxable)
	}
	if line.SubTaxA != 0 || line.SubTaxB != 0 {
		t.Errorf("international line carries tax: %v / %v", line.SubTaxA, line.SubTaxB)
	}
	if !almostEqual(line.Total, 59.98) {
		t.Errorf("Total = %v, want 59.98", line.Total)
	}
}

func TestBuildInvoice_GroupTotals(t *testing.T) {
	primary := &Order{
		ID:      "ord-1",
		GroupID: "grp-1",
		ShippingAddress: Address{
			Name:    "Asha Rao",
			Country: "IN",
		},
		Payment: Payment{Currency: "INR"},
	}
	items := []LineItem{
		{Title: "tee", Price: 105.00, Quantity: 1},
		{Title: "mug", Price: 210.00, Quantity: 1},
	}

	inv := BuildInvoice(primary, items, true, InvoiceReasonConfirmed)

	if inv.Number != "INV-ord-1" {
		t.Errorf("Number = %q", inv.Number)
	}
	if len(inv.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(inv.Lines))
	}
	if !almostEqual(inv.TotalNet, 300.00) {
		t.Errorf("TotalNet = %v, want 300.00", inv.TotalNet)
	}
	if !almostEqual(inv.SubTaxATotal, 7.50) || !almostEqual(inv.SubTaxBTotal, 7.50) {
		t.Errorf("sub-tax totals = %v / %v, want 7.50 each", inv.SubTaxATotal, inv.SubTaxBTotal)
	}
	if !almostEqual(inv.TotalTax, 15.00) {
		t.Errorf("TotalTax = %v, want 15.00", inv.TotalTax)
	}
	if !almostEqual(inv.GrandTotal, 315.00) {
		t.Errorf("GrandTotal = %v, want 315.00", inv.GrandTotal)
	}
	if inv.Title() != "Tax Invoice" {
		t.Errorf("Title = %q, want Tax Invoice", inv.Title())
	}
}

func TestBuildInvoice_InternationalIsReceipt(t *testing.T) {
	primary := &Order{
		ID:              "ord-2",
		ShippingAddress: Address{Name: "Jo Smith", Country: "US"},
		Payment:         Payment{Currency: "USD"},
	}
	items := []LineItem{{Title: "tee", Price: 25.00, Quantity: 1}}

	inv := BuildInvoice(primary, items, false, InvoiceReasonDelivered)

	if inv.Title() != "Receipt" {
		t.Errorf("Title = %q, want Receipt", inv.Title())
	}
	if !almostEqual(inv.TotalTax, 0) {
		t.Errorf("TotalTax = %v, want 0", inv.TotalTax)
	}
	if !almostEqual(inv.GrandTotal, 25.00) {
		t.Errorf("GrandTotal = %v, want 25.00", inv.GrandTotal)
	}
}
