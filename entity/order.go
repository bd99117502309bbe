package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/biter777/countries"
)

// OrderStatus is the normalized shipping status of an order.
type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "placed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusProduction OrderStatus = "production"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusError      OrderStatus = "error"
)

// statusRank orders the shipping statuses so that updates can be rejected
// when they would move an order backwards. The error status sits outside
// the ordering: it is reachable from anywhere and never blocks a retry.
var statusRank = map[OrderStatus]int{
	OrderStatusPlaced:     0,
	OrderStatusProcessing: 1,
	OrderStatusProduction: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// Rank returns the position of s in the forward status ordering,
// or -1 for statuses outside it (error, unknown).
func (s OrderStatus) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// StatusesBelow returns every ranked status strictly below s. Used to build
// conditional updates that only advance an order forward.
func StatusesBelow(s OrderStatus) []OrderStatus {
	rank, ok := statusRank[s]
	if !ok {
		return nil
	}
	var below []OrderStatus
	for st, r := range statusRank {
		if r < rank {
			below = append(below, st)
		}
	}
	return below
}

// ProviderStatus guards the fulfillment pipeline against duplicate runs.
// It moves strictly forward: unset -> processing -> synced|error.
type ProviderStatus string

const (
	ProviderStatusUnset      ProviderStatus = ""
	ProviderStatusProcessing ProviderStatus = "processing"
	ProviderStatusSynced     ProviderStatus = "synced"
	ProviderStatusError      ProviderStatus = "error"
)

// ProviderName identifies which fulfillment adapter handled an order.
type ProviderName string

const (
	ProviderPrintify ProviderName = "printify"
	ProviderGelato   ProviderName = "gelato"
	ProviderQikink   ProviderName = "qikink"
)

const (
	PaymentMethodCOD     = "cod"
	PaymentMethodPrepaid = "prepaid"
)

type Order struct {
	ID              string                `json:"order_id" bson:"_id"`
	GroupID         string                `json:"group_id,omitempty" bson:"group_id,omitempty"`
	Status          OrderStatus           `json:"status" bson:"status"`
	ProviderStatus  ProviderStatus        `json:"provider_status,omitempty" bson:"provider_status,omitempty"`
	Provider        ProviderName          `json:"provider,omitempty" bson:"provider,omitempty"`
	ProviderOrderID string                `json:"provider_order_id,omitempty" bson:"provider_order_id,omitempty"`
	Items           []LineItem            `json:"items" bson:"items"`
	DesignData      map[string]DesignView `json:"design_data,omitempty" bson:"design_data,omitempty"`
	PrintFiles      map[string]string     `json:"print_files,omitempty" bson:"print_files,omitempty"`
	MockupFiles     map[string]string     `json:"mockup_files,omitempty" bson:"mockup_files,omitempty"`
	ShippingAddress Address               `json:"shipping_address" bson:"shipping_address"`
	Payment         Payment               `json:"payment" bson:"payment"`
	Tracking        *Tracking             `json:"tracking,omitempty" bson:"tracking,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	EstimatedBy     *time.Time            `json:"estimated_by,omitempty" bson:"estimated_by,omitempty"`
	InvoiceSent     bool                  `json:"invoice_sent" bson:"invoice_sent"`
	InvoiceFile     string                `json:"invoice_file,omitempty" bson:"invoice_file,omitempty"`
	BotError        string                `json:"bot_error,omitempty" bson:"bot_error,omitempty"`
	BotLog          string                `json:"bot_log,omitempty" bson:"bot_log,omitempty"`
	Created         time.Time             `json:"created" bson:"created"`
	Updated         time.Time             `json:"updated" bson:"updated"`
}

type LineItem struct {
	ProductID string  `json:"product_id" bson:"product_id"`
	Title     string  `json:"title" bson:"title"`
	Size      string  `json:"size" bson:"size"`
	Color     string  `json:"color" bson:"color"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

func (i *LineItem) Describe() string {
	return fmt.Sprintf("%s (color: %s, size: %s)", i.Title, i.Color, i.Size)
}

type Address struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email,omitempty" bson:"email,omitempty"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Line1   string `json:"line1" bson:"line1"`
	Line2   string `json:"line2,omitempty" bson:"line2,omitempty"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	Zip     string `json:"zip" bson:"zip"`
	Country string `json:"country" bson:"country"`
}

// CountryCode normalizes the destination country to ISO 3166-1 alpha-2.
// Accepts both codes and full names; empty string when unresolvable.
func (a *Address) CountryCode() string {
	raw := strings.TrimSpace(a.Country)
	if raw == "" {
		return ""
	}
	if len(raw) == 2 {
		return strings.ToUpper(raw)
	}
	country := countries.ByName(raw)
	code := country.Alpha2()
	if len(code) == 2 {
		return code
	}
	return ""
}

type Payment struct {
	Method   string `json:"method" bson:"method"`
	Currency string `json:"currency" bson:"currency"`
}

// Tracking holds the shipment details captured from provider webhooks.
type Tracking struct {
	Carrier string `json:"carrier,omitempty" bson:"carrier,omitempty"`
	Code    string `json:"code,omitempty" bson:"code,omitempty"`
	URL     string `json:"url,omitempty" bson:"url,omitempty"`
}

// Validate checks the fields the pipeline cannot proceed without.
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("order has no id")
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("order %s has no line items", o.ID)
	}
	if o.ShippingAddress.Country == "" {
		return fmt.Errorf("order %s has no destination country", o.ID)
	}
	return nil
}

// PrimaryItem returns the first line item. Orders created after checkout
// flattening carry exactly one item; legacy orders may carry several, in
// which case the first decides variant resolution.
func (o *Order) PrimaryItem() *LineItem {
	if len(o.Items) == 0 {
		return nil
	}
	return &o.Items[0]
}

// ProviderOrder is a provider-ready production order: the normalized order
// translated into one adapter's wire payload.
type ProviderOrder struct {
	Provider ProviderName
	Payload  interface{}
}

// Submission is the provider's answer to a production order.
type Submission struct {
	ProviderOrderID   string
	EstimatedDelivery *time.Time
}

// SyncResult carries everything the pipeline persists on success.
type SyncResult struct {
	Provider        ProviderName
	ProviderOrderID string
	PrintFiles      map[string]string
	MockupFiles     map[string]string
	EstimatedBy     *time.Time
	Log             string
}

// StatusEvent is a provider webhook payload normalized onto the order
// status state machine.
type StatusEvent struct {
	Status      OrderStatus
	Tracking    *Tracking
	DeliveredAt *time.Time
}

// RefreshResult is the answer of the manual status-refresh operation.
type RefreshResult struct {
	Success   bool        `json:"success"`
	Updated   bool        `json:"updated"`
	NewStatus OrderStatus `json:"new_status,omitempty"`
}
