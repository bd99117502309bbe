package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"printflow/entity"
)

func TestMockupPollState(t *testing.T) {
	t.Run("enough images finishes immediately", func(t *testing.T) {
		s := newMockupPollState()
		if !s.Next() {
			t.Fatal("first attempt refused")
		}
		if !s.Observe(3) {
			t.Error("3 images should finish the poll")
		}
	})

	t.Run("stable non-zero count finishes", func(t *testing.T) {
		s := newMockupPollState()
		counts := []int{0, 1, 2, 2, 2}
		done := false
		for _, n := range counts {
			if !s.Next() {
				t.Fatal("ran out of attempts early")
			}
			done = s.Observe(n)
		}
		if !done {
			t.Error("count stable at 2 for 3 polls should finish")
		}
	})

	t.Run("stable zero never finishes", func(t *testing.T) {
		s := newMockupPollState()
		for s.Next() {
			if s.Observe(0) {
				t.Fatal("zero images reported as done")
			}
		}
	})

	t.Run("attempts are bounded", func(t *testing.T) {
		s := newMockupPollState()
		n := 0
		for s.Next() {
			n++
			s.Observe(1 + n%2) // oscillating, never stable
		}
		if n != mockupPollAttempts {
			t.Errorf("made %d attempts, want %d", n, mockupPollAttempts)
		}
	})
}

func TestSelectMockups(t *testing.T) {
	images := []entity.PrintifyProductImage{
		{Src: "u1", Position: "front", IsDefault: true},
		{Src: "u2", Position: "back"},
		{Src: "u3", Position: "left"},
		{Src: "u4", Position: "right"},
		{Src: "u5", Position: "folded"},
		{Src: "u6", Position: "flat"},
		{Src: "u7", Position: "hanging"},
		{Src: "u8", Position: "context"},
	}

	t.Run("two sided product", func(t *testing.T) {
		selected := selectMockups(images, "tshirt-round-neck")
		if selected["front"] != "u1" {
			t.Errorf("front = %q, want u1", selected["front"])
		}
		if selected["back"] != "u2" {
			t.Errorf("back = %q, want u2", selected["back"])
		}
		gallery := 0
		for role := range selected {
			if role != "front" && role != "back" {
				gallery++
			}
		}
		if gallery > mockupGalleryMax {
			t.Errorf("gallery has %d images, cap is %d", gallery, mockupGalleryMax)
		}
	})

	t.Run("mug gets no back", func(t *testing.T) {
		selected := selectMockups(images, "mug")
		if _, ok := selected["back"]; ok {
			t.Error("mug was assigned a back mockup")
		}
	})

	t.Run("first image stands in for missing front", func(t *testing.T) {
		selected := selectMockups([]entity.PrintifyProductImage{
			{Src: "only", Position: "left"},
		}, "tshirt-round-neck")
		if selected["front"] != "only" {
			t.Errorf("front = %q, want only", selected["front"])
		}
	})

	t.Run("fallback front stays out of the gallery", func(t *testing.T) {
		selected := selectMockups([]entity.PrintifyProductImage{
			{Src: "u1", Position: "left"},
			{Src: "u2", Position: "right"},
		}, "tshirt-round-neck")
		if selected["front"] != "u1" {
			t.Fatalf("front = %q, want u1", selected["front"])
		}
		for role, src := range selected {
			if role != "front" && src == "u1" {
				t.Errorf("front image u1 also selected as %s", role)
			}
		}
		if selected["gallery-1"] != "u2" {
			t.Errorf("gallery-1 = %q, want u2", selected["gallery-1"])
		}
	})

	t.Run("repeated source url selected once", func(t *testing.T) {
		selected := selectMockups([]entity.PrintifyProductImage{
			{Src: "u1", Position: "front", IsDefault: true},
			{Src: "u1", Position: "other"},
			{Src: "u2", Position: "other"},
		}, "tshirt-round-neck")
		if selected["front"] != "u1" {
			t.Fatalf("front = %q, want u1", selected["front"])
		}
		seen := make(map[string]string)
		for role, src := range selected {
			if prev, ok := seen[src]; ok {
				t.Errorf("image %q selected as both %s and %s", src, prev, role)
			}
			seen[src] = role
		}
		if len(selected) != 2 {
			t.Errorf("selected %d roles, want 2: %v", len(selected), selected)
		}
	})

	t.Run("no images no selection", func(t *testing.T) {
		if got := selectMockups(nil, "mug"); len(got) != 0 {
			t.Errorf("empty input produced %v", got)
		}
	})
}

func shortPollInterval(t *testing.T) {
	t.Helper()
	old := mockupPollInterval
	mockupPollInterval = time.Millisecond
	t.Cleanup(func() { mockupPollInterval = old })
}

func TestGenerateMockups_DeletesListing(t *testing.T) {
	shortPollInterval(t)
	images := []entity.PrintifyProductImage{
		{Src: "m1", Position: "front", IsDefault: true},
		{Src: "m2", Position: "back"},
		{Src: "m3", Position: "left"},
	}
	source := &fakeMockupSource{images: [][]entity.PrintifyProductImage{images}}
	storage := newFakeStorage()

	c := testCore(newFakeRepo())
	c.SetMockupSource(source)
	c.SetStorage(storage)

	order := testOrder("ord-1")
	got, err := c.GenerateMockups(context.Background(), order, map[string]string{"front": "https://cdn.test/print.png"})
	if err != nil {
		t.Fatalf("GenerateMockups: %v", err)
	}

	if got["front"] == "" || got["back"] == "" {
		t.Errorf("missing mockup roles: %v", got)
	}
	for role, url := range got {
		want := fmt.Sprintf("https://cdn.test/orders/ord-1/mockups/%s.jpg", role)
		if url != want {
			t.Errorf("role %s mirrored to %q, want %q", role, url, want)
		}
	}

	if len(source.deleted) != 1 {
		t.Fatalf("disposable listing deleted %d times, want 1", len(source.deleted))
	}
}

func TestGenerateMockups_DeletesListingOnEmptyResult(t *testing.T) {
	shortPollInterval(t)
	source := &fakeMockupSource{images: [][]entity.PrintifyProductImage{nil}}
	c := testCore(newFakeRepo())
	c.SetMockupSource(source)
	c.SetStorage(newFakeStorage())

	order := testOrder("ord-1")
	_, err := c.GenerateMockups(context.Background(), order, map[string]string{"front": "https://cdn.test/print.png"})
	if err == nil {
		t.Fatal("expected error for listing with no images")
	}
	if len(source.deleted) != 1 {
		t.Errorf("disposable listing deleted %d times, want 1", len(source.deleted))
	}
}
