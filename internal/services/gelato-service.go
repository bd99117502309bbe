package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"printflow/entity"
	"printflow/internal/config"
	"printflow/internal/lib/sl"
)

// GelatoService talks to the Gelato v4 order API. Gelato serves the
// rest-of-world routing branch and needs no variant lookup: the product
// UID template already encodes color and size.

const gelatoDeliveryEstimate = 12 * 24 * time.Hour

type GelatoService struct {
	apiUrl string
	apiKey string
	log    *slog.Logger
}

func NewGelatoService(conf *config.Config, log *slog.Logger) (*GelatoService, error) {
	if conf.Gelato.ApiKey == "" {
		return nil, fmt.Errorf("gelato api key is not configured")
	}
	return &GelatoService{
		apiUrl: conf.Gelato.ApiUrl,
		apiKey: conf.Gelato.ApiKey,
		log:    log.With(sl.Module("gelato")),
	}, nil
}

func (s *GelatoService) do(ctx context.Context, method, fullURL string, payload, target interface{}) error {
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
	req.Header.Set("X-API-KEY", s.apiKey)
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
	).Debug("gelato response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gelato %s %s: status %d: %s", method, fullURL, resp.StatusCode, string(bodyBytes))
	}

	if target != nil {
		if err := json.Unmarshal(bodyBytes, target); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (s *GelatoService) Name() entity.ProviderName {
	return entity.ProviderGelato
}

// ResolveVariant expands the templated product UID. No network round trip;
// the ctx parameter keeps the provider contract uniform.
func (s *GelatoService) ResolveVariant(_ context.Context, item *entity.LineItem) (string, error) {
	printCode, ok := entity.GelatoPrintCode(item.ProductID)
	if !ok {
		return "", fmt.Errorf("gelato has no print code for %s", item.Describe())
	}
	uid := entity.GelatoProductUID(item.ProductID, printCode, item.Color, item.Size)
	if uid == "" {
		return "", fmt.Errorf("gelato has no product template for %s", item.Describe())
	}
	return uid, nil
}

func (s *GelatoService) BuildOrder(_ context.Context, order *entity.Order, variantIDs []string, printFiles map[string]string) (*entity.ProviderOrder, error) {
	if len(variantIDs) != len(order.Items) {
		return nil, fmt.Errorf("got %d variant ids for %d items", len(variantIDs), len(order.Items))
	}

	files := make([]entity.GelatoFile, 0, len(printFiles))
	for view, fileURL := range printFiles {
		files = append(files, entity.GelatoFile{Type: gelatoFileType(view), URL: fileURL})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("order %s has no print files to submit", order.ID)
	}

	items := make([]entity.GelatoItem, 0, len(order.Items))
	for i, item := range order.Items {
		items = append(items, entity.GelatoItem{
			ItemReferenceID: fmt.Sprintf("%s-%d", order.ID, i),
			ProductUID:      variantIDs[i],
			Quantity:        item.Quantity,
			Files:           files,
		})
	}

	first, last := splitName(order.ShippingAddress.Name)
	payload := &entity.GelatoOrderRequest{
		OrderType:        "order",
		OrderReferenceID: order.ID,
		CustomerRefID:    order.ID,
		Currency:         order.Payment.Currency,
		Items:            items,
		ShippingAddress: entity.GelatoAddress{
			FirstName:    first,
			LastName:     last,
			AddressLine1: order.ShippingAddress.Line1,
			AddressLine2: order.ShippingAddress.Line2,
			City:         order.ShippingAddress.City,
			PostCode:     order.ShippingAddress.Zip,
			State:        order.ShippingAddress.State,
			Country:      order.ShippingAddress.Country,
			Email:        order.ShippingAddress.Email,
			Phone:        order.ShippingAddress.Phone,
		},
	}

	return &entity.ProviderOrder{Provider: entity.ProviderGelato, Payload: payload}, nil
}

func (s *GelatoService) Submit(ctx context.Context, po *entity.ProviderOrder) (*entity.Submission, error) {
	payload, ok := po.Payload.(*entity.GelatoOrderRequest)
	if !ok {
		return nil, fmt.Errorf("gelato adapter got %T payload", po.Payload)
	}

	fullURL, err := buildURL(s.apiUrl, "v4", "orders")
	if err != nil {
		return nil, err
	}

	var resp entity.GelatoOrderResponse
	if err := s.do(ctx, http.MethodPost, fullURL, payload, &resp); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("submit order: empty order id in response")
	}

	eta := time.Now().Add(gelatoDeliveryEstimate)
	return &entity.Submission{ProviderOrderID: resp.ID, EstimatedDelivery: &eta}, nil
}

// gelatoFileType maps internal view names onto Gelato file types; the front
// print goes into the "default" slot.
func gelatoFileType(view string) string {
	if view == entity.ViewFront {
		return "default"
	}
	return view
}
