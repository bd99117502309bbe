package entity

import (
	"strings"
	"testing"
)

func TestQikinkSKU(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		color     string
		size      string
		want      string
		wantErr   string
	}{
		{
			name:      "round neck black medium",
			productID: "tshirt-round-neck",
			color:     "Black",
			size:      "M",
			want:      "MRnHs-Bk-M",
		},
		{
			name:      "codes are case insensitive",
			productID: "hoodie",
			color:     "NAVY BLUE",
			size:      "xxl",
			want:      "UHdSs-Nv-2XL",
		},
		{
			name:      "whitespace trimmed",
			productID: "mug",
			color:     " White ",
			size:      " L ",
			want:      "CWMug-Wh-L",
		},
		{
			name:      "unknown product",
			productID: "poster",
			color:     "Black",
			size:      "M",
			wantErr:   "print code",
		},
		{
			name:      "unknown color",
			productID: "tote-bag",
			color:     "chartreuse",
			size:      "M",
			wantErr:   "color code",
		},
		{
			name:      "unknown size",
			productID: "sweatshirt",
			color:     "Black",
			size:      "XXXS",
			wantErr:   "size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QikinkSKU(tt.productID, tt.color, tt.size)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got sku %q", tt.wantErr, got)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("QikinkSKU = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGelatoProductUID(t *testing.T) {
	uid := GelatoProductUID("tshirt-round-neck", "crew-neck", "Black", "M")
	want := "apparel_product_gca_t-shirt_gsp_crew-neck_gcu_black_gsi_m"
	if uid != want {
		t.Errorf("GelatoProductUID = %q, want %q", uid, want)
	}

	if uid := GelatoProductUID("poster", "x", "Black", "M"); uid != "" {
		t.Errorf("unknown product returned %q, want empty", uid)
	}

	// Same inputs always resolve to the same UID.
	again := GelatoProductUID("tshirt-round-neck", "crew-neck", "Black", "M")
	if uid == "" || again != GelatoProductUID("tshirt-round-neck", "crew-neck", "Black", "M") {
		t.Error("UID expansion is not deterministic")
	}
}

func TestPrintifyCatalogFor(t *testing.T) {
	entry, ok := PrintifyCatalogFor("tshirt-round-neck")
	if !ok {
		t.Fatal("round neck tee missing from catalog")
	}
	if entry.BlueprintID == 0 || entry.PrintProvider == 0 {
		t.Errorf("catalog entry has zero coordinates: %+v", entry)
	}

	if _, ok := PrintifyCatalogFor("poster"); ok {
		t.Error("unknown product resolved a catalog entry")
	}
}
