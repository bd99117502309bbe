package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"printflow/entity"
	"printflow/internal/config"
	"printflow/internal/lib/sl"
)

// RenderService rasterizes a design view into a print-resolution PNG with a
// transparent background. Coordinates arrive in canvas pixels and are scaled
// by the product's print geometry; objects are drawn in list order so later
// objects overlay earlier ones.

type RenderService struct {
	fontPath string
	log      *slog.Logger
}

func NewRenderService(conf *config.Config, log *slog.Logger) (*RenderService, error) {
	if conf.Render.FontPath == "" {
		return nil, fmt.Errorf("render font path is not configured")
	}
	return &RenderService{
		fontPath: conf.Render.FontPath,
		log:      log.With(sl.Module("render")),
	}, nil
}

// RenderView produces the print file for one view. An empty view returns
// (nil, nil): single-sided products legitimately have nothing to print on
// the back, and the pipeline skips the file.
func (s *RenderService) RenderView(ctx context.Context, productID string, view *entity.DesignView) ([]byte, error) {
	if view.Empty() {
		return nil, nil
	}

	spec := entity.PrintSpecFor(productID)
	dc := gg.NewContext(spec.PrintWidth, spec.PrintHeight)
	sx, sy := spec.ScaleX(), spec.ScaleY()

	for i, obj := range view.Objects {
		var err error
		switch obj.Type {
		case entity.DesignObjectText:
			err = s.drawText(dc, &obj, sx, sy)
		case entity.DesignObjectImage:
			err = s.drawImage(ctx, dc, &obj, sx, sy)
		case entity.DesignObjectShape:
			err = s.drawShape(dc, &obj, sx, sy)
		default:
			err = fmt.Errorf("unknown object type %q", obj.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("render object %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *RenderService) drawText(dc *gg.Context, obj *entity.DesignObject, sx, sy float64) error {
	size := obj.FontSize * sy
	if size <= 0 {
		size = 16 * sy
	}
	if err := dc.LoadFontFace(s.fontPath, size); err != nil {
		return fmt.Errorf("load font: %w", err)
	}

	r, g, b, err := parseHexColor(obj.Color)
	if err != nil {
		return err
	}
	dc.SetRGB255(r, g, b)

	dc.Push()
	defer dc.Pop()
	dc.RotateAbout(gg.Radians(obj.Angle), obj.X*sx, obj.Y*sy)
	dc.DrawStringAnchored(obj.Text, obj.X*sx, obj.Y*sy, 0, 0.5)
	return nil
}

func (s *RenderService) drawImage(ctx context.Context, dc *gg.Context, obj *entity.DesignObject, sx, sy float64) error {
	if obj.URL == "" {
		return fmt.Errorf("image object has no url")
	}
	img, err := fetchImage(ctx, obj.URL)
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return fmt.Errorf("image %s is empty", obj.URL)
	}

	w, h := obj.Width*sx, obj.Height*sy
	if w <= 0 || h <= 0 {
		return fmt.Errorf("image object has no dimensions")
	}

	dc.Push()
	defer dc.Pop()
	dc.RotateAbout(gg.Radians(obj.Angle), obj.X*sx, obj.Y*sy)
	dc.ScaleAbout(w/float64(bounds.Dx()), h/float64(bounds.Dy()), obj.X*sx, obj.Y*sy)
	dc.DrawImage(img, int(obj.X*sx), int(obj.Y*sy))
	return nil
}

func (s *RenderService) drawShape(dc *gg.Context, obj *entity.DesignObject, sx, sy float64) error {
	r, g, b, err := parseHexColor(obj.Color)
	if err != nil {
		return err
	}
	dc.SetRGB255(r, g, b)

	x, y := obj.X*sx, obj.Y*sy
	w, h := obj.Width*sx, obj.Height*sy

	dc.Push()
	defer dc.Pop()
	dc.RotateAbout(gg.Radians(obj.Angle), x+w/2, y+h/2)

	switch obj.Shape {
	case entity.ShapeRectangle:
		dc.DrawRectangle(x, y, w, h)
	case entity.ShapeEllipse:
		dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
	default:
		return fmt.Errorf("unknown shape %q", obj.Shape)
	}
	dc.Fill()
	return nil
}

func fetchImage(ctx context.Context, srcURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch image %s: status %d", srcURL, resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", srcURL, err)
	}
	return img, nil
}

// parseHexColor parses #rrggbb; a missing color falls back to black, the
// editor's default.
func parseHexColor(hex string) (r, g, b int, err error) {
	if hex == "" {
		return 0, 0, 0, nil
	}
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("bad color %q", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad color %q", hex)
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), nil
}
