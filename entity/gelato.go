package entity

import "strings"

// Gelato v4 order payloads.

type GelatoOrderRequest struct {
	OrderType        string        `json:"orderType"`
	OrderReferenceID string        `json:"orderReferenceId"`
	CustomerRefID    string        `json:"customerReferenceId"`
	Currency         string        `json:"currency"`
	Items            []GelatoItem  `json:"items"`
	ShippingAddress  GelatoAddress `json:"shippingAddress"`
}

type GelatoItem struct {
	ItemReferenceID string       `json:"itemReferenceId"`
	ProductUID      string       `json:"productUid"`
	Quantity        int          `json:"quantity"`
	Files           []GelatoFile `json:"files"`
}

type GelatoFile struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type GelatoAddress struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	PostCode     string `json:"postCode"`
	State        string `json:"state,omitempty"`
	Country      string `json:"country"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type GelatoOrderResponse struct {
	ID                string `json:"id"`
	OrderReferenceID  string `json:"orderReferenceId"`
	FulfillmentStatus string `json:"fulfillmentStatus"`
}

// Gelato identifies print products with a templated UID that embeds the
// production parameters. The table carries one template per storefront
// product with {print_code}, {color} and {size} slots.
var gelatoProductUIDs = map[string]string{
	"tshirt-round-neck": "apparel_product_gca_t-shirt_gsp_{print_code}_gcu_{color}_gsi_{size}",
	"tshirt-polo":       "apparel_product_gca_polo-shirt_gsp_{print_code}_gcu_{color}_gsi_{size}",
	"hoodie":            "apparel_product_gca_hoodie_gsp_{print_code}_gcu_{color}_gsi_{size}",
	"sweatshirt":        "apparel_product_gca_sweatshirt_gsp_{print_code}_gcu_{color}_gsi_{size}",
	"mug":               "drinkware_product_gdr_mug_gsp_{print_code}_gcu_{color}_gsi_{size}",
	"tote-bag":          "bag_product_gba_tote_gsp_{print_code}_gcu_{color}_gsi_{size}",
}

// gelatoPrintCodes fills the {print_code} slot of the UID template.
var gelatoPrintCodes = map[string]string{
	"tshirt-round-neck": "crew-neck",
	"tshirt-polo":       "polo",
	"hoodie":            "pullover",
	"sweatshirt":        "crew-sweat",
	"mug":               "11oz-ceramic",
	"tote-bag":          "organic-cotton",
}

// GelatoPrintCode returns the {print_code} value for a storefront product.
func GelatoPrintCode(productID string) (string, bool) {
	code, ok := gelatoPrintCodes[productID]
	return code, ok
}

// GelatoProductUID expands the product's UID template. Empty string when
// the product has no Gelato template.
func GelatoProductUID(productID, printCode, color, size string) string {
	tpl, ok := gelatoProductUIDs[productID]
	if !ok {
		return ""
	}
	r := strings.NewReplacer(
		"{print_code}", printCode,
		"{color}", strings.ToLower(color),
		"{size}", strings.ToLower(size),
	)
	return r.Replace(tpl)
}
