package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"printflow/entity"
	"printflow/internal/config"
	"printflow/internal/lib/sl"
)

// variantFallbackColors is tried in order when the requested color has no
// variant for the blueprint. Black and white exist for almost every garment.
var variantFallbackColors = []string{"Black", "White"}

type PrintifyService struct {
	apiUrl string
	token  string
	shopId string
	log    *slog.Logger

	variantsMu    sync.Mutex
	variantsCache map[string][]entity.PrintifyVariant
}

func NewPrintifyService(conf *config.Config, log *slog.Logger) (*PrintifyService, error) {
	if conf.Printify.Token == "" {
		return nil, fmt.Errorf("printify token is not configured")
	}
	service := &PrintifyService{
		apiUrl:        conf.Printify.ApiUrl,
		token:         conf.Printify.Token,
		shopId:        conf.Printify.ShopId,
		log:           log.With(sl.Module("printify")),
		variantsCache: make(map[string][]entity.PrintifyVariant),
	}
	return service, nil
}

func (s *PrintifyService) do(ctx context.Context, method, fullURL string, payload, target interface{}) error {
	if err := Acquire(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	s.log.With(
		slog.String("url", fullURL),
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		slog.String("response", string(bodyBytes)),
	).Debug("printify response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("printify %s %s: status %d: %s", method, fullURL, resp.StatusCode, string(bodyBytes))
	}

	if target != nil {
		if err := json.Unmarshal(bodyBytes, target); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// UploadArtwork registers an externally hosted image with Printify's media
// library and returns its image id for use in print areas.
func (s *PrintifyService) UploadArtwork(ctx context.Context, fileName, srcURL string) (string, error) {
	fullURL, err := buildURL(s.apiUrl, "uploads", "images.json")
	if err != nil {
		return "", err
	}

	var uploaded entity.PrintifyUploadResponse
	err = s.do(ctx, http.MethodPost, fullURL, entity.PrintifyUploadRequest{
		FileName: fileName,
		URL:      srcURL,
	}, &uploaded)
	if err != nil {
		return "", fmt.Errorf("upload artwork: %w", err)
	}
	if uploaded.ID == "" {
		return "", fmt.Errorf("upload artwork: empty image id in response")
	}
	return uploaded.ID, nil
}

func (s *PrintifyService) variants(ctx context.Context, blueprintID, printProvider int) ([]entity.PrintifyVariant, error) {
	key := fmt.Sprintf("%d/%d", blueprintID, printProvider)

	s.variantsMu.Lock()
	cached, ok := s.variantsCache[key]
	s.variantsMu.Unlock()
	if ok {
		return cached, nil
	}

	fullURL, err := buildURL(s.apiUrl,
		"catalog", "blueprints", fmt.Sprint(blueprintID),
		"print_providers", fmt.Sprint(printProvider), "variants.json")
	if err != nil {
		return nil, err
	}

	var resp entity.PrintifyVariantsResponse
	if err := s.do(ctx, http.MethodGet, fullURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch variants: %w", err)
	}

	s.variantsMu.Lock()
	s.variantsCache[key] = resp.Variants
	s.variantsMu.Unlock()
	return resp.Variants, nil
}

// ResolveVariantID maps a color/size pair onto a concrete catalog variant.
// Resolution order: exact title match, case-insensitive substring match,
// then the Black/White fallback chain with the requested size.
func (s *PrintifyService) ResolveVariantID(ctx context.Context, blueprintID, printProvider int, color, size string) (int, error) {
	variants, err := s.variants(ctx, blueprintID, printProvider)
	if err != nil {
		return 0, err
	}
	if len(variants) == 0 {
		return 0, fmt.Errorf("blueprint %d has no variants at provider %d", blueprintID, printProvider)
	}

	if id, ok := matchVariant(variants, color, size); ok {
		return id, nil
	}
	for _, fallback := range variantFallbackColors {
		if strings.EqualFold(fallback, color) {
			continue
		}
		if id, ok := matchVariant(variants, fallback, size); ok {
			s.log.Warn("variant color fallback",
				slog.String("requested", color),
				slog.String("used", fallback),
				slog.String("size", size))
			return id, nil
		}
	}
	return 0, fmt.Errorf("no variant for color %q size %q on blueprint %d", color, size, blueprintID)
}

func matchVariant(variants []entity.PrintifyVariant, color, size string) (int, bool) {
	exact := fmt.Sprintf("%s / %s", color, size)
	for _, v := range variants {
		if v.Title == exact {
			return v.ID, true
		}
	}
	lc, ls := strings.ToLower(color), strings.ToLower(size)
	for _, v := range variants {
		title := strings.ToLower(v.Title)
		if strings.Contains(title, lc) && containsSizeToken(title, ls) {
			return v.ID, true
		}
	}
	return 0, false
}

// containsSizeToken matches sizes on "/"-separated title segments so that
// "S" does not match inside "XS" or "Small" inside "X-Small".
func containsSizeToken(title, size string) bool {
	for _, part := range strings.Split(title, "/") {
		if strings.TrimSpace(part) == size {
			return true
		}
	}
	return false
}

// CreateProduct creates a catalog listing; the mockup flow uses it for
// disposable listings that exist only to trigger mockup rendering.
func (s *PrintifyService) CreateProduct(ctx context.Context, req *entity.PrintifyProductRequest) (string, error) {
	fullURL, err := buildURL(s.apiUrl, "shops", s.shopId, "products.json")
	if err != nil {
		return "", err
	}

	var product entity.PrintifyProduct
	if err := s.do(ctx, http.MethodPost, fullURL, req, &product); err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	if product.ID == "" {
		return "", fmt.Errorf("create product: empty product id in response")
	}
	return product.ID, nil
}

// GetProduct fetches a listing with its current mockup image set.
func (s *PrintifyService) GetProduct(ctx context.Context, productID string) (*entity.PrintifyProduct, error) {
	fullURL, err := buildURL(s.apiUrl, "shops", s.shopId, "products", productID+".json")
	if err != nil {
		return nil, err
	}

	var product entity.PrintifyProduct
	if err := s.do(ctx, http.MethodGet, fullURL, nil, &product); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &product, nil
}

// DeleteProduct removes a disposable listing. Callers invoke it on both the
// success and the failure path of the mockup stage.
func (s *PrintifyService) DeleteProduct(ctx context.Context, productID string) error {
	fullURL, err := buildURL(s.apiUrl, "shops", s.shopId, "products", productID+".json")
	if err != nil {
		return err
	}
	if err := s.do(ctx, http.MethodDelete, fullURL, nil, nil); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// SubmitOrder places a production order and returns Printify's order id.
func (s *PrintifyService) SubmitOrder(ctx context.Context, req *entity.PrintifyOrderRequest) (string, error) {
	fullURL, err := buildURL(s.apiUrl, "shops", s.shopId, "orders.json")
	if err != nil {
		return "", err
	}

	var resp entity.PrintifyOrderResponse
	if err := s.do(ctx, http.MethodPost, fullURL, req, &resp); err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("submit order: empty order id in response")
	}
	return resp.ID, nil
}
