package core

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"printflow/entity"
	"printflow/internal/services"
)

// Invoicing fires twice per order lifecycle at most: once when a prepaid
// order is confirmed, once when a COD order is delivered. The invoice-sent
// flag is claimed group-wide before the mail goes out, so concurrent
// triggers on sibling orders of the same checkout send exactly one email.

// SendOrderInvoice generates the group invoice, stores the PDF and emails
// it to the customer. A second call for the same order or its group is a
// no-op.
func (c *Core) SendOrderInvoice(ctx context.Context, order *entity.Order, reason entity.InvoiceReason) error {
	if order.InvoiceSent {
		c.log.Debug("invoice already sent", slog.String("order", order.ID))
		return nil
	}

	items, err := c.collectGroupItems(order)
	if err != nil {
		return err
	}

	domestic := c.isDomestic(order)
	inv := entity.BuildInvoice(order, items, domestic, reason)

	html, err := c.renderInvoiceHTML(inv)
	if err != nil {
		return fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}

	pdf, err := c.pdf.RenderHTML(ctx, html)
	if err != nil {
		return fmt.Errorf("render invoice pdf %s: %w", inv.Number, err)
	}

	fileURL, err := c.storage.Upload(ctx, services.InvoicePath(invoiceKey(order)), "application/pdf", pdf)
	if err != nil {
		return fmt.Errorf("store invoice %s: %w", inv.Number, err)
	}

	flagged, err := c.repo.MarkInvoiceSent(order.ID, order.GroupID, fileURL)
	if err != nil {
		return fmt.Errorf("flag invoice %s: %w", inv.Number, err)
	}
	if flagged == 0 {
		c.log.Debug("invoice claimed by concurrent trigger", slog.String("order", order.ID))
		return nil
	}

	subject, body := invoiceEmail(inv)
	if err := c.mailer.SendInvoice(order.ShippingAddress.Email, subject, body, inv.Number+".pdf", pdf); err != nil {
		return fmt.Errorf("mail invoice %s: %w", inv.Number, err)
	}

	c.log.Info("invoice sent",
		slog.String("order", order.ID),
		slog.String("invoice", inv.Number),
		slog.Int("orders_flagged", int(flagged)))
	return nil
}

// ResendInvoice re-emails the stored invoice document. It never
// regenerates and never touches the sent flag: the order must already
// carry a generated invoice, any sibling of the group resolves to the
// same stored PDF.
func (c *Core) ResendInvoice(ctx context.Context, orderID string) error {
	order, err := c.repo.GetOrder(orderID)
	if err != nil {
		return err
	}
	if !order.InvoiceSent || order.InvoiceFile == "" {
		return fmt.Errorf("order %s has no invoice to resend", orderID)
	}

	pdf, err := c.storage.Download(ctx, services.InvoicePath(invoiceKey(order)))
	if err != nil {
		return fmt.Errorf("fetch stored invoice for %s: %w", orderID, err)
	}

	items, err := c.collectGroupItems(order)
	if err != nil {
		return err
	}
	reason := entity.InvoiceReasonConfirmed
	if order.Payment.Method == entity.PaymentMethodCOD {
		reason = entity.InvoiceReasonDelivered
	}
	inv := entity.BuildInvoice(order, items, c.isDomestic(order), reason)

	subject, body := invoiceEmail(inv)
	if err := c.mailer.SendInvoice(order.ShippingAddress.Email, subject, body, inv.Number+".pdf", pdf); err != nil {
		return fmt.Errorf("mail invoice %s: %w", inv.Number, err)
	}

	c.log.Info("invoice resent",
		slog.String("order", order.ID),
		slog.String("invoice", inv.Number))
	return nil
}

// invoiceKey is the storage key of a checkout's invoice document: the
// group id when the order has siblings, its own id otherwise.
func invoiceKey(order *entity.Order) string {
	if order.GroupID != "" {
		return order.GroupID
	}
	return order.ID
}

// collectGroupItems flattens the line items of the whole checkout group.
// A group-less order contributes only its own items.
func (c *Core) collectGroupItems(order *entity.Order) ([]entity.LineItem, error) {
	if order.GroupID == "" {
		return order.Items, nil
	}

	siblings, err := c.repo.GetOrdersByGroup(order.GroupID)
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", order.GroupID, err)
	}
	if len(siblings) == 0 {
		return order.Items, nil
	}

	var items []entity.LineItem
	for _, sibling := range siblings {
		items = append(items, sibling.Items...)
	}
	return items, nil
}

func invoiceEmail(inv *entity.Invoice) (subject, body string) {
	switch inv.Reason {
	case entity.InvoiceReasonDelivered:
		subject = fmt.Sprintf("Your order %s has been delivered", inv.OrderID)
		body = fmt.Sprintf("Hi %s,\n\nyour order %s was delivered. The %s is attached.\n\nThank you for your purchase!",
			inv.Recipient.Name, inv.OrderID, inv.Title())
	default:
		subject = fmt.Sprintf("Order %s confirmed", inv.OrderID)
		body = fmt.Sprintf("Hi %s,\n\nyour order %s is confirmed and heading to production. The %s is attached.\n\nThank you for your purchase!",
			inv.Recipient.Name, inv.OrderID, inv.Title())
	}
	return subject, body
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 13px; color: #222; }
h1 { font-size: 20px; margin-bottom: 0; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { border: 1px solid #ccc; padding: 6px 8px; text-align: right; }
th:first-child, td:first-child { text-align: left; }
.meta { margin-top: 8px; color: #555; }
.totals td { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Invoice.Title}}</h1>
<div class="meta">
<p>{{.Invoice.Number}} &middot; issued {{.Invoice.IssuedAt.Format "2006-01-02"}}</p>
<p><strong>{{.Seller.Name}}</strong><br>{{.Seller.Address}}{{if .Seller.TaxId}}<br>Tax ID: {{.Seller.TaxId}}{{end}}</p>
<p><strong>Bill to:</strong><br>{{.Invoice.Recipient.Name}}<br>{{.Invoice.Recipient.Line1}}{{if .Invoice.Recipient.Line2}}, {{.Invoice.Recipient.Line2}}{{end}}<br>{{.Invoice.Recipient.City}} {{.Invoice.Recipient.Zip}}, {{.Invoice.Recipient.Country}}</p>
</div>
<table>
<tr>
<th>Item</th><th>Qty</th><th>Price</th>
{{- if .Invoice.Domestic}}<th>Taxable</th><th>CGST ({{printf "%.1f" .Invoice.SubTaxRate}}%)</th><th>SGST ({{printf "%.1f" .Invoice.SubTaxRate}}%)</th>{{end -}}
<th>Total</th>
</tr>
{{- range .Invoice.Lines}}
<tr>
<td>{{.Title}}</td><td>{{.Quantity}}</td><td>{{printf "%.2f" .Price}}</td>
{{- if $.Invoice.Domestic}}<td>{{printf "%.2f" .Taxable}}</td><td>{{printf "%.2f" .SubTaxA}}</td><td>{{printf "%.2f" .SubTaxB}}</td>{{end -}}
<td>{{printf "%.2f" .Total}}</td>
</tr>
{{- end}}
<tr class="totals">
<td colspan="2">Total</td><td></td>
{{- if .Invoice.Domestic}}<td>{{printf "%.2f" .Invoice.TotalNet}}</td><td>{{printf "%.2f" .Invoice.SubTaxATotal}}</td><td>{{printf "%.2f" .Invoice.SubTaxBTotal}}</td>{{end -}}
<td>{{printf "%.2f" .Invoice.GrandTotal}} {{.Invoice.Currency}}</td>
</tr>
</table>
{{- if not .Invoice.Domestic}}
<p class="meta">Export sale. No tax charged.</p>
{{- end}}
</body>
</html>`))

type invoicePage struct {
	Invoice *entity.Invoice
	Seller  sellerDetails
}

func (c *Core) renderInvoiceHTML(inv *entity.Invoice) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, invoicePage{Invoice: inv, Seller: c.seller}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
