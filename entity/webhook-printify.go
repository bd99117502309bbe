package entity

import "time"

// PrintifyWebhookPayload is the event envelope Printify posts. The resource
// id is Printify's own order id; joins happen on providerOrderId.
type PrintifyWebhookPayload struct {
	ID       string                   `json:"id"`
	Type     string                   `json:"type"`
	Resource *PrintifyWebhookResource `json:"resource"`
}

// Printify event types this service reconciles.
const (
	PrintifyEventSentToProduction  = "order:sent-to-production"
	PrintifyEventShipmentCreated   = "order:shipment:created"
	PrintifyEventShipmentDelivered = "order:shipment:delivered"
)

type PrintifyWebhookResource struct {
	ID   string               `json:"id"`
	Type string               `json:"type"`
	Data *PrintifyWebhookData `json:"data,omitempty"`
}

type PrintifyWebhookData struct {
	Shipment *PrintifyShipment `json:"shipment,omitempty"`
}

type PrintifyShipment struct {
	Carrier     string     `json:"carrier"`
	Number      string     `json:"number"`
	URL         string     `json:"url"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// Ping reports whether the payload is a health probe with no resource data.
// Probes are acknowledged without side effects.
func (p *PrintifyWebhookPayload) Ping() bool {
	return p.Resource == nil || p.Resource.ID == ""
}
