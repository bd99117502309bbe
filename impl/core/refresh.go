package core

import (
	"context"
	"fmt"
	"log/slog"

	"printflow/entity"
	"printflow/internal/lib/sl"
)

// RefreshOrderStatus polls the fulfillment provider for the order's current
// production state and advances the status machine if it moved. Only Qikink
// supports polling; the webhook providers keep themselves current.
func (c *Core) RefreshOrderStatus(ctx context.Context, orderID string) (*entity.RefreshResult, error) {
	order, err := c.repo.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.Provider != entity.ProviderQikink {
		return nil, fmt.Errorf("order %s is fulfilled by %s, which pushes status via webhooks", orderID, order.Provider)
	}
	if order.ProviderOrderID == "" {
		return nil, fmt.Errorf("order %s was never submitted to a provider", orderID)
	}
	if c.statusPoller == nil {
		return nil, fmt.Errorf("status poller not set")
	}

	ev, err := c.statusPoller.GetOrderStatus(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("poll provider status: %w", err)
	}
	if ev == nil {
		return &entity.RefreshResult{Success: true, Updated: false, NewStatus: order.Status}, nil
	}

	advanced, err := c.repo.AdvanceStatus(order.ID, ev)
	if err != nil {
		return nil, err
	}
	if !advanced {
		return &entity.RefreshResult{Success: true, Updated: false, NewStatus: order.Status}, nil
	}

	c.log.Info("order status refreshed",
		slog.String("order", order.ID),
		slog.String("status", string(ev.Status)))

	if ev.Status == entity.OrderStatusDelivered && order.Payment.Method == entity.PaymentMethodCOD {
		if err := c.SendOrderInvoice(ctx, order, entity.InvoiceReasonDelivered); err != nil {
			c.log.With(sl.Err(err)).Warn("invoice after delivery failed", slog.String("order", order.ID))
		}
	}

	return &entity.RefreshResult{Success: true, Updated: true, NewStatus: ev.Status}, nil
}
