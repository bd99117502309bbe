package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"printflow/entity"
	"printflow/internal/lib/sl"
	"printflow/internal/services"
)

// ProcessUnhandledOrders sweeps for placed orders the change-stream watcher
// did not pick up and runs each through the pipeline.
func (c *Core) ProcessUnhandledOrders() {
	orders, err := c.repo.GetUnprocessedPlaced()
	if err != nil {
		c.log.With(sl.Err(err)).Error("failed to fetch unprocessed orders")
		return
	}
	if len(orders) == 0 {
		return
	}

	c.log.Info("sweeping unprocessed orders", slog.Int("count", len(orders)))
	for _, order := range orders {
		c.ProcessOrder(context.Background(), order.ID)
	}
}

// ProcessOrder runs one order through render, routing, mockups and provider
// submission. The claim makes the call idempotent: if the order is already
// taken by another worker, or already synced, it returns without touching
// anything.
func (c *Core) ProcessOrder(ctx context.Context, orderID string) {
	claimed, err := c.repo.ClaimForProcessing(orderID)
	if err != nil {
		c.log.With(sl.Err(err)).Error("failed to claim order", slog.String("order", orderID))
		return
	}
	if !claimed {
		c.log.Debug("order already claimed", slog.String("order", orderID))
		return
	}

	order, err := c.repo.GetOrder(orderID)
	if err != nil {
		c.failOrder(orderID, fmt.Errorf("load claimed order: %w", err))
		return
	}

	res, err := c.syncOrder(ctx, order)
	if err != nil {
		c.failOrder(orderID, err)
		return
	}

	if err := c.repo.CompleteSync(orderID, res); err != nil {
		c.log.With(sl.Err(err)).Error("failed to persist sync result", slog.String("order", orderID))
		return
	}

	c.log.Info("order synced",
		slog.String("order", orderID),
		slog.String("provider", string(res.Provider)),
		slog.String("provider_order", res.ProviderOrderID))

	// Prepaid orders get their invoice at confirmation; COD waits for the
	// delivery webhook.
	if order.Payment.Method == entity.PaymentMethodPrepaid {
		order.PrintFiles = res.PrintFiles
		order.MockupFiles = res.MockupFiles
		if err := c.SendOrderInvoice(ctx, order, entity.InvoiceReasonConfirmed); err != nil {
			c.log.With(sl.Err(err)).Warn("invoice after confirmation failed", slog.String("order", orderID))
		}
	}
}

func (c *Core) failOrder(orderID string, cause error) {
	c.log.With(sl.Err(cause)).Error("order sync failed", slog.String("order", orderID))
	if err := c.repo.FailSync(orderID, cause.Error()); err != nil {
		c.log.With(sl.Err(err)).Error("failed to persist sync failure", slog.String("order", orderID))
	}
}

func (c *Core) syncOrder(ctx context.Context, order *entity.Order) (*entity.SyncResult, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	var report strings.Builder

	printFiles, err := c.renderPrintFiles(ctx, order)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&report, "rendered %d print file(s): %s\n", len(printFiles), joinKeys(printFiles))

	provider, err := c.routeOrder(order)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&report, "routed to %s (%s)\n", provider.Name(), order.ShippingAddress.CountryCode())

	variantIDs := make([]string, len(order.Items))
	for i := range order.Items {
		variantID, err := provider.ResolveVariant(ctx, &order.Items[i])
		if err != nil {
			return nil, err
		}
		variantIDs[i] = variantID
	}
	fmt.Fprintf(&report, "resolved variants: %s\n", strings.Join(variantIDs, ", "))

	// Mockup failures do not block fulfillment. The raw print files stand
	// in as previews so the customer-facing gallery never shows nothing.
	mockupFiles, err := c.GenerateMockups(ctx, order, printFiles)
	if err != nil {
		c.log.With(sl.Err(err)).Warn("mockup generation failed", slog.String("order", order.ID))
		fmt.Fprintf(&report, "mockups failed, falling back to print files: %v\n", err)
		mockupFiles = printFiles
	} else {
		fmt.Fprintf(&report, "captured %d mockup(s): %s\n", len(mockupFiles), joinKeys(mockupFiles))
	}
	order.MockupFiles = mockupFiles

	po, err := provider.BuildOrder(ctx, order, variantIDs, printFiles)
	if err != nil {
		return nil, err
	}

	sub, err := provider.Submit(ctx, po)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&report, "submitted as %s", sub.ProviderOrderID)

	return &entity.SyncResult{
		Provider:        provider.Name(),
		ProviderOrderID: sub.ProviderOrderID,
		PrintFiles:      printFiles,
		MockupFiles:     mockupFiles,
		EstimatedBy:     sub.EstimatedDelivery,
		Log:             report.String(),
	}, nil
}

// renderPrintFiles rasterizes every non-empty design view and uploads the
// result under the order's deterministic print path. At least one view must
// produce a file.
func (c *Core) renderPrintFiles(ctx context.Context, order *entity.Order) (map[string]string, error) {
	files := make(map[string]string)
	for view, design := range order.DesignData {
		design := design
		data, err := c.renderer.RenderView(ctx, order.PrimaryItem().ProductID, &design)
		if err != nil {
			return nil, fmt.Errorf("render %s view: %w", view, err)
		}
		if data == nil {
			continue
		}
		url, err := c.storage.Upload(ctx, services.PrintFilePath(order.ID, view), "image/png", data)
		if err != nil {
			return nil, fmt.Errorf("upload %s print file: %w", view, err)
		}
		files[view] = url
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("order %s has no printable design views", order.ID)
	}
	return files, nil
}

func joinKeys(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
