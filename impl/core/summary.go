package core

import (
	"fmt"
	"strings"

	"printflow/entity"
)

// OrderSummary formats a one-message operator view of an order for the
// telegram bot.
func (c *Core) OrderSummary(orderID string) (string, error) {
	order, err := c.repo.GetOrder(orderID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", order.ID)
	fmt.Fprintf(&b, "Status: %s\n", order.Status)
	if order.Provider != "" {
		fmt.Fprintf(&b, "Provider: %s (%s, %s)\n", order.Provider, order.ProviderOrderID, order.ProviderStatus)
	} else {
		fmt.Fprintf(&b, "Provider: not routed yet (%s)\n", orDefault(string(order.ProviderStatus), "pending"))
	}
	for _, item := range order.Items {
		fmt.Fprintf(&b, "Item: %dx %s\n", item.Quantity, item.Describe())
	}
	fmt.Fprintf(&b, "Destination: %s, %s\n", order.ShippingAddress.City, order.ShippingAddress.Country)
	if order.Tracking != nil && order.Tracking.Code != "" {
		fmt.Fprintf(&b, "Tracking: %s %s\n", order.Tracking.Carrier, order.Tracking.Code)
	}
	if order.EstimatedBy != nil {
		fmt.Fprintf(&b, "Estimated by: %s\n", order.EstimatedBy.Format("2006-01-02"))
	}
	if order.DeliveredAt != nil {
		fmt.Fprintf(&b, "Delivered at: %s\n", order.DeliveredAt.Format("2006-01-02"))
	}
	if order.InvoiceSent {
		fmt.Fprintf(&b, "Invoice: sent (%s)\n", order.InvoiceFile)
	}
	if order.ProviderStatus == entity.ProviderStatusError && order.BotError != "" {
		fmt.Fprintf(&b, "Error: %s\n", order.BotError)
	}
	return b.String(), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
