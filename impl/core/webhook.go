package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"printflow/entity"
	"printflow/internal/lib/sl"
)

// Webhook reconciliation. Both providers redeliver on non-2xx responses,
// so errors here are logged and swallowed at the handler: a poison payload
// must not retry forever. Status writes go through AdvanceStatus, which
// only ever moves forward; late or duplicated deliveries are no-ops.

// ProcessWebhook dispatches a raw provider callback by source.
func (c *Core) ProcessWebhook(ctx context.Context, source string, body []byte) error {
	switch source {
	case string(entity.ProviderPrintify):
		return c.processPrintifyWebhook(ctx, body)
	case string(entity.ProviderGelato):
		return c.processGelatoWebhook(ctx, body)
	default:
		return fmt.Errorf("unknown webhook source %q", source)
	}
}

func (c *Core) processPrintifyWebhook(ctx context.Context, body []byte) error {
	var payload entity.PrintifyWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode printify webhook: %w", err)
	}
	if payload.Ping() {
		c.log.Debug("printify webhook ping acknowledged")
		return nil
	}

	ev, ok := printifyStatusEvent(&payload)
	if !ok {
		c.log.Warn("unhandled printify webhook event",
			slog.String("type", payload.Type),
			slog.String("resource", payload.Resource.ID))
		return nil
	}

	order, err := c.repo.GetOrderByProviderOrderID(payload.Resource.ID)
	if err != nil {
		return fmt.Errorf("printify webhook for unknown order %s: %w", payload.Resource.ID, err)
	}

	return c.applyStatusEvent(ctx, order, ev)
}

func (c *Core) processGelatoWebhook(ctx context.Context, body []byte) error {
	var payload entity.GelatoWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode gelato webhook: %w", err)
	}
	if payload.Ping() {
		c.log.Debug("gelato webhook ping acknowledged")
		return nil
	}

	ev, ok := gelatoStatusEvent(&payload)
	if !ok {
		c.log.Warn("unhandled gelato webhook status",
			slog.String("status", payload.FulfillmentStatus),
			slog.String("order", payload.OrderReferenceID))
		return nil
	}

	// Gelato echoes our own order id back as the reference.
	order, err := c.repo.GetOrder(payload.OrderReferenceID)
	if err != nil {
		return fmt.Errorf("gelato webhook for unknown order %s: %w", payload.OrderReferenceID, err)
	}

	return c.applyStatusEvent(ctx, order, ev)
}

// applyStatusEvent advances the order and triggers the invoice milestones:
// confirmation for prepaid orders, delivery for COD.
func (c *Core) applyStatusEvent(ctx context.Context, order *entity.Order, ev *entity.StatusEvent) error {
	advanced, err := c.repo.AdvanceStatus(order.ID, ev)
	if err != nil {
		return fmt.Errorf("advance order %s to %s: %w", order.ID, ev.Status, err)
	}
	if !advanced {
		c.log.Debug("stale status event ignored",
			slog.String("order", order.ID),
			slog.String("status", string(ev.Status)),
			slog.String("current", string(order.Status)))
		return nil
	}

	c.log.Info("order status advanced",
		slog.String("order", order.ID),
		slog.String("status", string(ev.Status)))

	if ev.Status == entity.OrderStatusDelivered && order.Payment.Method == entity.PaymentMethodCOD {
		if err := c.SendOrderInvoice(ctx, order, entity.InvoiceReasonDelivered); err != nil {
			c.log.With(sl.Err(err)).Warn("invoice after delivery failed", slog.String("order", order.ID))
		}
	}
	return nil
}

func printifyStatusEvent(p *entity.PrintifyWebhookPayload) (*entity.StatusEvent, bool) {
	switch p.Type {
	case entity.PrintifyEventSentToProduction:
		return &entity.StatusEvent{Status: entity.OrderStatusProduction}, true
	case entity.PrintifyEventShipmentCreated:
		return &entity.StatusEvent{
			Status:   entity.OrderStatusShipped,
			Tracking: printifyTracking(p),
		}, true
	case entity.PrintifyEventShipmentDelivered:
		ev := &entity.StatusEvent{
			Status:   entity.OrderStatusDelivered,
			Tracking: printifyTracking(p),
		}
		if s := printifyShipment(p); s != nil && s.DeliveredAt != nil {
			ev.DeliveredAt = s.DeliveredAt
		} else {
			now := time.Now().UTC()
			ev.DeliveredAt = &now
		}
		return ev, true
	default:
		return nil, false
	}
}

func printifyShipment(p *entity.PrintifyWebhookPayload) *entity.PrintifyShipment {
	if p.Resource == nil || p.Resource.Data == nil {
		return nil
	}
	return p.Resource.Data.Shipment
}

func printifyTracking(p *entity.PrintifyWebhookPayload) *entity.Tracking {
	s := printifyShipment(p)
	if s == nil || s.Number == "" {
		return nil
	}
	return &entity.Tracking{Carrier: s.Carrier, Code: s.Number, URL: s.URL}
}

func gelatoStatusEvent(p *entity.GelatoWebhookPayload) (*entity.StatusEvent, bool) {
	var status entity.OrderStatus
	switch p.FulfillmentStatus {
	case entity.GelatoStatusPrinted, entity.GelatoStatusInProduction:
		status = entity.OrderStatusProduction
	case entity.GelatoStatusShipped:
		status = entity.OrderStatusShipped
	case entity.GelatoStatusDelivered:
		status = entity.OrderStatusDelivered
	default:
		return nil, false
	}

	ev := &entity.StatusEvent{Status: status}
	if f := p.FirstFulfillment(); f != nil && f.TrackingCode != "" {
		ev.Tracking = &entity.Tracking{Carrier: f.Carrier, Code: f.TrackingCode, URL: f.TrackingURL}
	}
	if status == entity.OrderStatusDelivered {
		if p.Timestamp != nil {
			ev.DeliveredAt = p.Timestamp
		} else {
			now := time.Now().UTC()
			ev.DeliveredAt = &now
		}
	}
	return ev, true
}
