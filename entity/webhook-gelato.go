package entity

import "time"

// GelatoWebhookPayload carries the caller-assigned order reference, so
// joins happen on the primary key directly.
type GelatoWebhookPayload struct {
	ID                string              `json:"id"`
	Event             string              `json:"event"`
	OrderID           string              `json:"orderId"`
	OrderReferenceID  string              `json:"orderReferenceId"`
	FulfillmentStatus string              `json:"fulfillmentStatus"`
	Items             []GelatoWebhookItem `json:"items,omitempty"`
	Timestamp         *time.Time          `json:"timestamp,omitempty"`
}

// Gelato fulfillment statuses this service reconciles.
const (
	GelatoStatusPrinted      = "printed"
	GelatoStatusInProduction = "in_production"
	GelatoStatusShipped      = "shipped"
	GelatoStatusDelivered    = "delivered"
)

type GelatoWebhookItem struct {
	ItemReferenceID string              `json:"itemReferenceId"`
	Fulfillments    []GelatoFulfillment `json:"fulfillments,omitempty"`
}

type GelatoFulfillment struct {
	TrackingCode string `json:"trackingCode"`
	TrackingURL  string `json:"trackingUrl"`
	Carrier      string `json:"shipmentMethodName"`
}

// Ping reports whether the payload carries no order reference, which is how
// Gelato's endpoint verification probe looks.
func (p *GelatoWebhookPayload) Ping() bool {
	return p.OrderReferenceID == "" && p.OrderID == ""
}

// FirstFulfillment returns the first tracking record in the payload, if any.
func (p *GelatoWebhookPayload) FirstFulfillment() *GelatoFulfillment {
	for _, item := range p.Items {
		for i := range item.Fulfillments {
			return &item.Fulfillments[i]
		}
	}
	return nil
}
