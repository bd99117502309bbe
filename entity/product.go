package entity

// PrintSpec describes how a product's design canvas maps onto the print
// file the providers expect: the renderer multiplies canvas coordinates by
// print/canvas ratios per axis.
type PrintSpec struct {
	CanvasWidth  int
	CanvasHeight int
	PrintWidth   int
	PrintHeight  int
}

func (s PrintSpec) ScaleX() float64 { return float64(s.PrintWidth) / float64(s.CanvasWidth) }
func (s PrintSpec) ScaleY() float64 { return float64(s.PrintHeight) / float64(s.CanvasHeight) }

// DefaultPrintSpec is the fallback for products the table does not know.
var DefaultPrintSpec = PrintSpec{
	CanvasWidth:  500,
	CanvasHeight: 600,
	PrintWidth:   3000,
	PrintHeight:  3600,
}

// printSpecs keys are the storefront product ids. The catalog itself lives
// outside this service; only the canvas-to-print geometry is needed here.
var printSpecs = map[string]PrintSpec{
	"tshirt-round-neck": {CanvasWidth: 500, CanvasHeight: 600, PrintWidth: 3000, PrintHeight: 3600},
	"tshirt-polo":       {CanvasWidth: 500, CanvasHeight: 600, PrintWidth: 3000, PrintHeight: 3600},
	"hoodie":            {CanvasWidth: 500, CanvasHeight: 550, PrintWidth: 3000, PrintHeight: 3300},
	"sweatshirt":        {CanvasWidth: 500, CanvasHeight: 550, PrintWidth: 3000, PrintHeight: 3300},
	"mug":               {CanvasWidth: 600, CanvasHeight: 260, PrintWidth: 2700, PrintHeight: 1170},
	"tote-bag":          {CanvasWidth: 450, CanvasHeight: 500, PrintWidth: 2700, PrintHeight: 3000},
}

// PrintSpecFor returns the print geometry for a product, falling back to
// DefaultPrintSpec for unknown products.
func PrintSpecFor(productID string) PrintSpec {
	if spec, ok := printSpecs[productID]; ok {
		return spec
	}
	return DefaultPrintSpec
}

// IsMug reports whether the product is a mug. Mugs are single-surface: the
// mockup selection never assigns them a back image.
func IsMug(productID string) bool {
	return productID == "mug"
}
