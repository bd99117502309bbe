package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"printflow/entity"
	"printflow/internal/lib/sl"
	"printflow/internal/services"
)

// Mockups come from a disposable Printify listing: creating a product
// triggers Printify's mockup renderer, the poll loop waits for the images
// to appear, and the listing is deleted afterwards whatever happened.

// mockupPollInterval is a variable so tests can shrink it.
var mockupPollInterval = 2 * time.Second

const (
	mockupPollAttempts = 15
	mockupMinImages    = 3
	mockupStablePolls  = 3
	mockupGalleryMax   = 4

	mockupListingPrice = 1999 // cents; never sold, any value works
)

// GenerateMockups renders product mockups for the order's artwork and
// mirrors them into our own storage. The returned map keys are mockup
// roles: front, back, gallery-N.
func (c *Core) GenerateMockups(ctx context.Context, order *entity.Order, printFiles map[string]string) (map[string]string, error) {
	item := order.PrimaryItem()
	cat, ok := entity.PrintifyCatalogFor(item.ProductID)
	if !ok {
		return nil, fmt.Errorf("no mockup blueprint for product %q", item.ProductID)
	}

	variantID, err := c.mockups.ResolveVariantID(ctx, cat.BlueprintID, cat.PrintProvider, item.Color, item.Size)
	if err != nil {
		return nil, fmt.Errorf("resolve mockup variant: %w", err)
	}

	printAreas := make([]entity.PrintifyPrintArea, 0, len(printFiles))
	for view, fileURL := range printFiles {
		imageID, err := c.mockups.UploadArtwork(ctx, fmt.Sprintf("%s-%s-mockup.png", order.ID, view), fileURL)
		if err != nil {
			return nil, fmt.Errorf("upload mockup artwork: %w", err)
		}
		printAreas = append(printAreas, entity.PrintifyPrintArea{
			VariantIDs: []int{variantID},
			Placeholders: []entity.PrintifyPlaceholder{{
				Position: view,
				Images:   []entity.PrintifyImage{{ID: imageID, X: 0.5, Y: 0.5, Scale: 1, Angle: 0}},
			}},
		})
	}

	productID, err := c.mockups.CreateProduct(ctx, &entity.PrintifyProductRequest{
		Title:         "mockup " + order.ID,
		Description:   "disposable mockup listing",
		BlueprintID:   cat.BlueprintID,
		PrintProvider: cat.PrintProvider,
		Variants:      []entity.PrintifyReqVariant{{ID: variantID, Price: mockupListingPrice, IsEnabled: true}},
		PrintAreas:    printAreas,
	})
	if err != nil {
		return nil, fmt.Errorf("create mockup listing: %w", err)
	}
	defer func() {
		if err := c.mockups.DeleteProduct(context.Background(), productID); err != nil {
			c.log.With(sl.Err(err)).Warn("failed to delete mockup listing",
				slog.String("order", order.ID),
				slog.String("product", productID))
		}
	}()

	images, err := c.pollMockups(ctx, productID)
	if err != nil {
		return nil, err
	}

	selected := selectMockups(images, item.ProductID)
	if len(selected) == 0 {
		return nil, fmt.Errorf("listing %s produced no mockup images", productID)
	}

	return c.mirrorMockups(ctx, order.ID, selected)
}

// pollMockups waits for the listing's renderer to finish. Printify gives no
// completion signal, so the loop watches the image count: enough images, or
// a non-zero count that stopped growing, means the renderer is done. On
// timeout whatever the final fetch returns is used.
func (c *Core) pollMockups(ctx context.Context, productID string) ([]entity.PrintifyProductImage, error) {
	state := newMockupPollState()
	ticker := time.NewTicker(mockupPollInterval)
	defer ticker.Stop()

	var images []entity.PrintifyProductImage
	for state.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		product, err := c.mockups.GetProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("poll mockup listing: %w", err)
		}
		images = product.Images
		if state.Observe(len(images)) {
			return images, nil
		}
	}

	product, err := c.mockups.GetProduct(ctx, productID)
	if err != nil {
		return images, nil
	}
	return product.Images, nil
}

// mockupPollState decides when the renderer can be considered done:
// either enough images arrived, or the non-zero count held steady for
// several consecutive polls.
type mockupPollState struct {
	attempt   int
	max       int
	lastCount int
	stableRun int
}

func newMockupPollState() *mockupPollState {
	return &mockupPollState{max: mockupPollAttempts, lastCount: -1}
}

func (s *mockupPollState) Next() bool {
	if s.attempt >= s.max {
		return false
	}
	s.attempt++
	return true
}

func (s *mockupPollState) Observe(count int) bool {
	if count >= mockupMinImages {
		return true
	}
	if count > 0 && count == s.lastCount {
		s.stableRun++
	} else {
		s.stableRun = 1
	}
	s.lastCount = count
	return count > 0 && s.stableRun >= mockupStablePolls
}

// selectMockups picks the images worth keeping: one front, one back for
// two-sided products, and a bounded gallery of the rest.
func selectMockups(images []entity.PrintifyProductImage, productID string) map[string]string {
	selected := make(map[string]string)
	used := make(map[string]bool)

	for _, img := range images {
		if img.IsDefault || img.Position == "front" {
			selected["front"] = img.Src
			used[img.Src] = true
			break
		}
	}
	// Without a default-flagged image the first one stands in for front.
	if selected["front"] == "" && len(images) > 0 {
		selected["front"] = images[0].Src
		used[images[0].Src] = true
	}

	// Printify repeats the same image across variants; a URL already picked
	// for any role never re-enters the gallery.
	gallery := 0
	for _, img := range images {
		if used[img.Src] {
			continue
		}
		switch {
		case selected["back"] == "" && img.Position == "back" && !entity.IsMug(productID):
			selected["back"] = img.Src
		case gallery < mockupGalleryMax:
			gallery++
			selected[fmt.Sprintf("gallery-%d", gallery)] = img.Src
		}
		used[img.Src] = true
	}
	return selected
}

// mirrorMockups copies the provider-hosted images into our bucket; the
// provider URLs expire once the disposable listing is deleted.
func (c *Core) mirrorMockups(ctx context.Context, orderID string, selected map[string]string) (map[string]string, error) {
	var mu sync.Mutex
	mirrored := make(map[string]string, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	for role, src := range selected {
		role, src := role, src
		g.Go(func() error {
			url, err := c.storage.Mirror(gctx, src, services.MockupPath(orderID, role))
			if err != nil {
				return fmt.Errorf("mirror %s mockup: %w", role, err)
			}
			mu.Lock()
			mirrored[role] = url
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mirrored, nil
}
