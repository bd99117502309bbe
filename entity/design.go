package entity

// Design object types as stored by the design editor. The core treats the
// per-view description as an ordered list of primitives and renders them
// bottom-up.
const (
	DesignObjectText  = "text"
	DesignObjectImage = "image"
	DesignObjectShape = "shape"

	ShapeRectangle = "rectangle"
	ShapeEllipse   = "ellipse"
)

// Standard view names. Products may carry any subset; single-sided products
// have only a front view.
const (
	ViewFront = "front"
	ViewBack  = "back"
)

type DesignView struct {
	Objects []DesignObject `json:"objects" bson:"objects"`
}

// Empty reports whether the view has nothing to print. Empty views are a
// valid state for single-sided products and produce no file.
func (v *DesignView) Empty() bool {
	return v == nil || len(v.Objects) == 0
}

// DesignObject is one graphical primitive on the design canvas. Coordinates
// and dimensions are in canvas pixels; the renderer scales them to print
// resolution.
type DesignObject struct {
	Type string `json:"type" bson:"type"`

	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
	Angle  float64 `json:"angle,omitempty" bson:"angle,omitempty"`

	// Text primitives.
	Text     string  `json:"text,omitempty" bson:"text,omitempty"`
	FontSize float64 `json:"font_size,omitempty" bson:"font_size,omitempty"`

	// Image primitives.
	URL string `json:"url,omitempty" bson:"url,omitempty"`

	// Shape primitives.
	Shape string `json:"shape,omitempty" bson:"shape,omitempty"`

	// Fill/text color as #rrggbb.
	Color string `json:"color,omitempty" bson:"color,omitempty"`
}
