//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestRegister_WeakPassword(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "weak@example.com",
		"password": "short",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestLogin_MatchesRegisteredUser(t *testing.T) {
	register(t, "returning@example.com")

	resp := doReq(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "returning@example.com",
		"password": "transit-demo-pass",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	sess := decodeJSON[sessionResponse](t, resp)
	if !uuidPattern.MatchString(sess.UserID) {
		t.Errorf("user ID %q is not a valid UUID", sess.UserID)
	}
}

func TestCart_RequiresAuth(t *testing.T) {
	resp := doGet(t, "/api/cart")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCheckout_RequiresAuth(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/checkout", "", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	token := register(t, "empty-cart@example.com")

	resp := doReq(t, http.MethodPost, "/api/checkout", token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAddItem_ClampedToStock(t *testing.T) {
	token := register(t, "clamp@example.com")

	// Heritage Tram Model has 5 in stock.
	resp := doReq(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"merchandiseId": "model-tram",
		"quantity":      9,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cart := decodeJSON[cartResponse](t, resp)
	if !cart.Limited {
		t.Error("expected limited flag on clamped add")
	}
	if cart.TotalUnits != 5 {
		t.Errorf("total units: got %d, want 5", cart.TotalUnits)
	}
}

func TestAddItem_SoldOut(t *testing.T) {
	token := register(t, "soldout@example.com")

	resp := doReq(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"merchandiseId": "cap-depot",
		"quantity":      1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestAddItem_InactiveItem(t *testing.T) {
	token := register(t, "inactive@example.com")

	resp := doReq(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"merchandiseId": "badge-retired",
		"quantity":      1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCheckout_FullFlow(t *testing.T) {
	token := register(t, "buyer@example.com")

	// 2x Winter Line Scarf at 18.50 = 37.00, from 15 in stock.
	resp := doReq(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"merchandiseId": "scarf-winter",
		"quantity":      2,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d", resp.StatusCode)
	}
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if cart.TotalPrice != "37.00" {
		t.Errorf("cart total: got %q, want %q", cart.TotalPrice, "37.00")
	}

	resp = doReq(t, http.MethodPost, "/api/checkout", token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d", resp.StatusCode)
	}
	receipt := decodeJSON[receiptResponse](t, resp)

	if !uuidPattern.MatchString(receipt.OrderID) {
		t.Errorf("order ID %q is not a valid UUID", receipt.OrderID)
	}
	if receipt.Total != "37.00" {
		t.Errorf("receipt total: got %q, want %q", receipt.Total, "37.00")
	}

	// Stock committed and sold counter bumped.
	listResp := doGet(t, "/api/merch")
	defer listResp.Body.Close()
	for _, m := range decodeJSON[[]merchResponse](t, listResp) {
		if m.ID != "scarf-winter" {
			continue
		}
		if m.Stock != 13 {
			t.Errorf("stock after checkout: got %d, want 13", m.Stock)
		}
		if m.Sold != 2 {
			t.Errorf("sold after checkout: got %d, want 2", m.Sold)
		}
	}

	// Cart is emptied by a successful checkout.
	cartResp := doReq(t, http.MethodGet, "/api/cart", token, nil)
	defer cartResp.Body.Close()
	after := decodeJSON[cartResponse](t, cartResp)
	if after.LineCount != 0 {
		t.Errorf("cart after checkout: got %d lines, want 0", after.LineCount)
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	token := register(t, "leaver@example.com")

	resp := doReq(t, http.MethodPost, "/api/auth/logout", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodGet, "/api/cart", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestFeedback_NoAuthRequired(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/feedback", "", map[string]string{
		"name":    "A Rider",
		"message": "More tram models please",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
}

func TestStaticPage_Served(t *testing.T) {
	resp := doGet(t, "/")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
