package entity

// Printify API payloads. Only the fields this service reads or writes are
// modeled; the API returns more.

type PrintifyUploadRequest struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

type PrintifyUploadResponse struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
}

type PrintifyVariant struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type PrintifyVariantsResponse struct {
	Variants []PrintifyVariant `json:"variants"`
}

// PrintifyProductRequest creates a (possibly disposable) catalog listing.
type PrintifyProductRequest struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	BlueprintID   int                  `json:"blueprint_id"`
	PrintProvider int                  `json:"print_provider_id"`
	Variants      []PrintifyReqVariant `json:"variants"`
	PrintAreas    []PrintifyPrintArea  `json:"print_areas"`
}

type PrintifyReqVariant struct {
	ID        int  `json:"id"`
	Price     int  `json:"price"`
	IsEnabled bool `json:"is_enabled"`
}

type PrintifyPrintArea struct {
	VariantIDs   []int                 `json:"variant_ids"`
	Placeholders []PrintifyPlaceholder `json:"placeholders"`
}

type PrintifyPlaceholder struct {
	Position string          `json:"position"`
	Images   []PrintifyImage `json:"images"`
}

type PrintifyImage struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
	Angle float64 `json:"angle"`
}

type PrintifyProduct struct {
	ID     string                 `json:"id"`
	Title  string                 `json:"title"`
	Images []PrintifyProductImage `json:"images"`
}

type PrintifyProductImage struct {
	Src       string `json:"src"`
	Position  string `json:"position"`
	IsDefault bool   `json:"is_default"`
}

type PrintifyOrderRequest struct {
	ExternalID               string             `json:"external_id"`
	Label                    string             `json:"label,omitempty"`
	LineItems                []PrintifyLineItem `json:"line_items"`
	AddressTo                PrintifyAddress    `json:"address_to"`
	SendShippingNotification bool               `json:"send_shipping_notification"`
}

type PrintifyLineItem struct {
	BlueprintID   int               `json:"blueprint_id"`
	VariantID     int               `json:"variant_id"`
	PrintProvider int               `json:"print_provider_id"`
	Quantity      int               `json:"quantity"`
	PrintAreas    map[string]string `json:"print_areas"`
}

type PrintifyAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country"`
	Region    string `json:"region,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
}

type PrintifyOrderResponse struct {
	ID string `json:"id"`
}

// PrintifyCatalogEntry maps a storefront product onto Printify's catalog
// coordinates. Variant titles are resolved at runtime against the variants
// endpoint for the pair.
type PrintifyCatalogEntry struct {
	BlueprintID   int
	PrintProvider int
}

var printifyCatalog = map[string]PrintifyCatalogEntry{
	"tshirt-round-neck": {BlueprintID: 6, PrintProvider: 103},
	"tshirt-polo":       {BlueprintID: 12, PrintProvider: 99},
	"hoodie":            {BlueprintID: 77, PrintProvider: 29},
	"sweatshirt":        {BlueprintID: 49, PrintProvider: 29},
	"mug":               {BlueprintID: 68, PrintProvider: 1},
	"tote-bag":          {BlueprintID: 367, PrintProvider: 28},
}

// PrintifyCatalogFor resolves the blueprint/print-provider pair for a
// storefront product. ok is false for products Printify cannot fulfill.
func PrintifyCatalogFor(productID string) (PrintifyCatalogEntry, bool) {
	entry, ok := printifyCatalog[productID]
	return entry, ok
}
