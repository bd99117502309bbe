package entity

import (
	"fmt"
	"strings"
)

// Qikink order payloads and the static SKU code tables for the domestic
// network. A Qikink SKU is assembled as {print_code}-{color}-{size}.

type QikinkOrderRequest struct {
	OrderNumber   string           `json:"order_number"`
	Gateway       string           `json:"gateway"`
	TotalOrderVal string           `json:"total_order_value"`
	LineItems     []QikinkLineItem `json:"line_items"`
	ShippingAddr  QikinkAddress    `json:"shipping_address"`
}

type QikinkLineItem struct {
	SearchFromMySKU bool           `json:"search_from_my_products"`
	Quantity        string         `json:"quantity"`
	Price           string         `json:"price"`
	SKU             string         `json:"sku"`
	Designs         []QikinkDesign `json:"designs"`
}

type QikinkDesign struct {
	DesignCode string `json:"design_code"`
	Placement  string `json:"placement_sku"`
	DesignLink string `json:"design_link"`
	MockupLink string `json:"mockup_link,omitempty"`
}

type QikinkAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Province  string `json:"province"`
	Country   string `json:"country_code"`
}

type QikinkOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type QikinkStatusResponse struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Carrier     string `json:"courier_partner,omitempty"`
	AWB         string `json:"awb_number,omitempty"`
	TrackingURL string `json:"tracking_url,omitempty"`
}

var qikinkColorCodes = map[string]string{
	"black":        "Bk",
	"white":        "Wh",
	"navy":         "Nv",
	"navy blue":    "Nv",
	"red":          "Rd",
	"maroon":       "Mr",
	"royal blue":   "Rb",
	"grey":         "Gy",
	"grey melange": "Gm",
	"yellow":       "Yl",
	"green":        "Gn",
	"bottle green": "Bg",
}

var qikinkPrintCodes = map[string]string{
	"tshirt-round-neck": "MRnHs",
	"tshirt-polo":       "MPoHs",
	"hoodie":            "UHdSs",
	"sweatshirt":        "USwSs",
	"mug":               "CWMug",
	"tote-bag":          "ToBag",
}

var qikinkSizes = map[string]string{
	"xs":  "XS",
	"s":   "S",
	"m":   "M",
	"l":   "L",
	"xl":  "XL",
	"xxl": "2XL",
	"2xl": "2XL",
	"3xl": "3XL",
}

// QikinkSKU assembles the provider SKU from the static code tables.
func QikinkSKU(productID, color, size string) (string, error) {
	printCode, ok := qikinkPrintCodes[productID]
	if !ok {
		return "", fmt.Errorf("no qikink print code for product %q", productID)
	}
	colorCode, ok := qikinkColorCodes[strings.ToLower(strings.TrimSpace(color))]
	if !ok {
		return "", fmt.Errorf("no qikink color code for %q", color)
	}
	sizeCode, ok := qikinkSizes[strings.ToLower(strings.TrimSpace(size))]
	if !ok {
		return "", fmt.Errorf("no qikink size code for %q", size)
	}
	return fmt.Sprintf("%s-%s-%s", printCode, colorCode, sizeCode), nil
}
