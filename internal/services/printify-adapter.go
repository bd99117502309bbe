package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"printflow/entity"
)

// Fulfillment adapter contract on top of the Printify client. Printify
// serves the US/CA routing branch and resolves variants against its
// blueprint catalog.

const printifyDeliveryEstimate = 10 * 24 * time.Hour

func (s *PrintifyService) Name() entity.ProviderName {
	return entity.ProviderPrintify
}

func (s *PrintifyService) ResolveVariant(ctx context.Context, item *entity.LineItem) (string, error) {
	cat, ok := entity.PrintifyCatalogFor(item.ProductID)
	if !ok {
		return "", fmt.Errorf("printify has no catalog entry for %s", item.Describe())
	}
	id, err := s.ResolveVariantID(ctx, cat.BlueprintID, cat.PrintProvider, item.Color, item.Size)
	if err != nil {
		return "", fmt.Errorf("resolve printify variant for %s: %w", item.Describe(), err)
	}
	return strconv.Itoa(id), nil
}

// BuildOrder uploads the print files and assembles the production payload.
// variantIDs is positional with order.Items.
func (s *PrintifyService) BuildOrder(ctx context.Context, order *entity.Order, variantIDs []string, printFiles map[string]string) (*entity.ProviderOrder, error) {
	if len(variantIDs) != len(order.Items) {
		return nil, fmt.Errorf("got %d variant ids for %d items", len(variantIDs), len(order.Items))
	}

	printAreas := make(map[string]string, len(printFiles))
	for view, fileURL := range printFiles {
		imageID, err := s.UploadArtwork(ctx, fmt.Sprintf("%s-%s.png", order.ID, view), fileURL)
		if err != nil {
			return nil, err
		}
		printAreas[view] = imageID
	}
	if len(printAreas) == 0 {
		return nil, fmt.Errorf("order %s has no print files to submit", order.ID)
	}

	lineItems := make([]entity.PrintifyLineItem, 0, len(order.Items))
	for i, item := range order.Items {
		cat, _ := entity.PrintifyCatalogFor(item.ProductID)
		variantID, err := strconv.Atoi(variantIDs[i])
		if err != nil {
			return nil, fmt.Errorf("bad variant id %q for %s", variantIDs[i], item.Describe())
		}
		lineItems = append(lineItems, entity.PrintifyLineItem{
			BlueprintID:   cat.BlueprintID,
			VariantID:     variantID,
			PrintProvider: cat.PrintProvider,
			Quantity:      item.Quantity,
			PrintAreas:    printAreas,
		})
	}

	first, last := splitName(order.ShippingAddress.Name)
	payload := &entity.PrintifyOrderRequest{
		ExternalID: order.ID,
		Label:      "order " + order.ID,
		LineItems:  lineItems,
		AddressTo: entity.PrintifyAddress{
			FirstName: first,
			LastName:  last,
			Email:     order.ShippingAddress.Email,
			Phone:     order.ShippingAddress.Phone,
			Country:   order.ShippingAddress.Country,
			Region:    order.ShippingAddress.State,
			Address1:  order.ShippingAddress.Line1,
			Address2:  order.ShippingAddress.Line2,
			City:      order.ShippingAddress.City,
			Zip:       order.ShippingAddress.Zip,
		},
		SendShippingNotification: true,
	}

	return &entity.ProviderOrder{Provider: entity.ProviderPrintify, Payload: payload}, nil
}

func (s *PrintifyService) Submit(ctx context.Context, po *entity.ProviderOrder) (*entity.Submission, error) {
	payload, ok := po.Payload.(*entity.PrintifyOrderRequest)
	if !ok {
		return nil, fmt.Errorf("printify adapter got %T payload", po.Payload)
	}
	orderID, err := s.SubmitOrder(ctx, payload)
	if err != nil {
		return nil, err
	}
	eta := time.Now().Add(printifyDeliveryEstimate)
	return &entity.Submission{ProviderOrderID: orderID, EstimatedDelivery: &eta}, nil
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
