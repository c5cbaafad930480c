//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListMerch(t *testing.T) {
	resp := doGet(t, "/api/merch")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	items := decodeJSON[[]merchResponse](t, resp)
	if len(items) != 8 {
		t.Fatalf("expected 8 items, got %d", len(items))
	}
}

func TestListMerch_Fields(t *testing.T) {
	resp := doGet(t, "/api/merch")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	items := decodeJSON[[]merchResponse](t, resp)

	var mug *merchResponse
	for i := range items {
		if items[i].ID == "mug-classic" {
			mug = &items[i]
			break
		}
	}

	if mug == nil {
		t.Fatal("item with ID 'mug-classic' not found")
	}
	if mug.Name != "Metro Mug" {
		t.Errorf("name: got %q, want %q", mug.Name, "Metro Mug")
	}
	if mug.Price != "25.00" {
		t.Errorf("price: got %q, want %q", mug.Price, "25.00")
	}
	if !mug.Active {
		t.Error("mug should be active")
	}
}

func TestListMerch_IncludesInactiveAndSoldOut(t *testing.T) {
	resp := doGet(t, "/api/merch")
	defer resp.Body.Close()

	items := decodeJSON[[]merchResponse](t, resp)

	byID := make(map[string]merchResponse, len(items))
	for _, m := range items {
		byID[m.ID] = m
	}

	if badge, ok := byID["badge-retired"]; !ok {
		t.Error("retired item missing from listing")
	} else if badge.Active {
		t.Error("retired item should be inactive")
	}

	if cap, ok := byID["cap-depot"]; !ok {
		t.Error("sold-out item missing from listing")
	} else if cap.Stock != 0 {
		t.Errorf("sold-out item stock: got %d, want 0", cap.Stock)
	}
}
