package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"printflow/entity"
	"printflow/internal/config"
	"printflow/internal/lib/sl"
)

// QikinkService talks to the Qikink order API. Qikink fulfills the domestic
// branch and is the only provider without webhooks, so it also backs the
// manual status refresh.

const qikinkDeliveryEstimate = 7 * 24 * time.Hour

type QikinkService struct {
	apiUrl   string
	clientId string
	token    string
	log      *slog.Logger
}

func NewQikinkService(conf *config.Config, log *slog.Logger) (*QikinkService, error) {
	if conf.Qikink.ClientId == "" || conf.Qikink.Token == "" {
		return nil, fmt.Errorf("qikink credentials are not configured")
	}
	return &QikinkService{
		apiUrl:   conf.Qikink.ApiUrl,
		clientId: conf.Qikink.ClientId,
		token:    conf.Qikink.Token,
		log:      log.With(sl.Module("qikink")),
	}, nil
}

func (s *QikinkService) do(ctx context.Context, method, fullURL string, payload, target interface{}) error {
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
	req.Header.Set("ClientId", s.clientId)
	req.Header.Set("AccessToken", s.token)
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
	).Debug("qikink response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("qikink %s %s: status %d: %s", method, fullURL, resp.StatusCode, string(bodyBytes))
	}

	if target != nil {
		if err := json.Unmarshal(bodyBytes, target); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (s *QikinkService) Name() entity.ProviderName {
	return entity.ProviderQikink
}

// ResolveVariant assembles the SKU from the static code tables. No network
// round trip; the ctx parameter keeps the provider contract uniform.
func (s *QikinkService) ResolveVariant(_ context.Context, item *entity.LineItem) (string, error) {
	sku, err := entity.QikinkSKU(item.ProductID, item.Color, item.Size)
	if err != nil {
		return "", fmt.Errorf("resolve qikink sku for %s: %w", item.Describe(), err)
	}
	return sku, nil
}

func (s *QikinkService) BuildOrder(_ context.Context, order *entity.Order, variantIDs []string, printFiles map[string]string) (*entity.ProviderOrder, error) {
	if len(variantIDs) != len(order.Items) {
		return nil, fmt.Errorf("got %d variant ids for %d items", len(variantIDs), len(order.Items))
	}
	if len(printFiles) == 0 {
		return nil, fmt.Errorf("order %s has no print files to submit", order.ID)
	}

	designs := make([]entity.QikinkDesign, 0, len(printFiles))
	for view, fileURL := range printFiles {
		designs = append(designs, entity.QikinkDesign{
			DesignCode: fmt.Sprintf("%s-%s", order.ID, view),
			Placement:  qikinkPlacement(view),
			DesignLink: fileURL,
			MockupLink: order.MockupFiles[view],
		})
	}

	total := 0.0
	lineItems := make([]entity.QikinkLineItem, 0, len(order.Items))
	for i, item := range order.Items {
		total += item.Price * float64(item.Quantity)
		lineItems = append(lineItems, entity.QikinkLineItem{
			SearchFromMySKU: false,
			Quantity:        strconv.Itoa(item.Quantity),
			Price:           fmt.Sprintf("%.2f", item.Price),
			SKU:             variantIDs[i],
			Designs:         designs,
		})
	}

	first, last := splitName(order.ShippingAddress.Name)
	payload := &entity.QikinkOrderRequest{
		OrderNumber:   order.ID,
		Gateway:       qikinkGateway(order.Payment.Method),
		TotalOrderVal: fmt.Sprintf("%.2f", total),
		LineItems:     lineItems,
		ShippingAddr: entity.QikinkAddress{
			FirstName: first,
			LastName:  last,
			Address1:  strings.TrimSpace(order.ShippingAddress.Line1 + " " + order.ShippingAddress.Line2),
			Phone:     order.ShippingAddress.Phone,
			Email:     order.ShippingAddress.Email,
			City:      order.ShippingAddress.City,
			Zip:       order.ShippingAddress.Zip,
			Province:  order.ShippingAddress.State,
			Country:   order.ShippingAddress.Country,
		},
	}

	return &entity.ProviderOrder{Provider: entity.ProviderQikink, Payload: payload}, nil
}

func (s *QikinkService) Submit(ctx context.Context, po *entity.ProviderOrder) (*entity.Submission, error) {
	payload, ok := po.Payload.(*entity.QikinkOrderRequest)
	if !ok {
		return nil, fmt.Errorf("qikink adapter got %T payload", po.Payload)
	}

	fullURL, err := buildURL(s.apiUrl, "order", "create")
	if err != nil {
		return nil, err
	}

	var resp entity.QikinkOrderResponse
	if err := s.do(ctx, http.MethodPost, fullURL, payload, &resp); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	if resp.OrderID == "" {
		return nil, fmt.Errorf("submit order: empty order id in response")
	}

	eta := time.Now().Add(qikinkDeliveryEstimate)
	return &entity.Submission{ProviderOrderID: resp.OrderID, EstimatedDelivery: &eta}, nil
}

// GetOrderStatus polls the current production status. Qikink sends no
// webhooks; the manual refresh endpoint drives this.
func (s *QikinkService) GetOrderStatus(ctx context.Context, orderNumber string) (*entity.StatusEvent, error) {
	fullURL, err := buildURL(s.apiUrl, "order")
	if err != nil {
		return nil, err
	}
	fullURL += "?order_number=" + orderNumber

	var resp entity.QikinkStatusResponse
	if err := s.do(ctx, http.MethodGet, fullURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("get order status: %w", err)
	}

	status, ok := qikinkStatus(resp.Status)
	if !ok {
		s.log.Warn("unknown qikink status", slog.String("status", resp.Status), slog.String("order", orderNumber))
		return nil, nil
	}

	event := &entity.StatusEvent{Status: status}
	if resp.AWB != "" {
		event.Tracking = &entity.Tracking{
			Carrier: resp.Carrier,
			Code:    resp.AWB,
			URL:     resp.TrackingURL,
		}
	}
	if status == entity.OrderStatusDelivered {
		now := time.Now().UTC()
		event.DeliveredAt = &now
	}
	return event, nil
}

func qikinkStatus(raw string) (entity.OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "created", "printing", "printed", "in_production":
		return entity.OrderStatusProduction, true
	case "shipped", "in_transit", "out_for_delivery":
		return entity.OrderStatusShipped, true
	case "delivered":
		return entity.OrderStatusDelivered, true
	default:
		return "", false
	}
}

func qikinkGateway(method string) string {
	if method == entity.PaymentMethodCOD {
		return "COD"
	}
	return "PREPAID"
}

func qikinkPlacement(view string) string {
	if view == entity.ViewBack {
		return "bk"
	}
	return "fr"
}
