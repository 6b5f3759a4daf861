package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCartFlow(t *testing.T) {
	handler := NewCartHandler(newFixedOpener(), newFakeProducts(testProduct("p1"), testProduct("p2")), testLog)

	steps := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantLines  int
		wantCount  int
	}{
		{name: "empty cart", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "add defaults to one", method: http.MethodPost, body: `{"productId":"p1"}`, wantStatus: http.StatusOK, wantLines: 1, wantCount: 1},
		{name: "add accumulates", method: http.MethodPost, body: `{"productId":"p1","quantity":2}`, wantStatus: http.StatusOK, wantLines: 1, wantCount: 3},
		{name: "add second product", method: http.MethodPost, body: `{"productId":"p2","quantity":1}`, wantStatus: http.StatusOK, wantLines: 2, wantCount: 4},
		{name: "add zero quantity", method: http.MethodPost, body: `{"productId":"p2","quantity":0}`, wantStatus: http.StatusBadRequest},
		{name: "add past the quantity cap", method: http.MethodPost, body: `{"productId":"p1","quantity":2147483647}`, wantStatus: http.StatusBadRequest},
		{name: "add unknown product", method: http.MethodPost, body: `{"productId":"nope"}`, wantStatus: http.StatusNotFound},
		{name: "set quantity", method: http.MethodPut, body: `{"productId":"p1","quantity":5}`, wantStatus: http.StatusOK, wantLines: 2, wantCount: 6},
		{name: "set absent line", method: http.MethodPut, body: `{"productId":"nope","quantity":5}`, wantStatus: http.StatusNotFound},
		{name: "set zero removes", method: http.MethodPut, body: `{"productId":"p2","quantity":0}`, wantStatus: http.StatusOK, wantLines: 1, wantCount: 5},
		{name: "remove", method: http.MethodDelete, body: `{"productId":"p1"}`, wantStatus: http.StatusOK},
		{name: "remove absent is a no-op", method: http.MethodDelete, body: `{"productId":"p1"}`, wantStatus: http.StatusOK},
		{name: "missing product id", method: http.MethodDelete, body: `{}`, wantStatus: http.StatusBadRequest},
	}

	routes := map[string]http.HandlerFunc{
		http.MethodGet:    handler.GetCart,
		http.MethodPost:   handler.AddToCart,
		http.MethodPut:    handler.UpdateCart,
		http.MethodDelete: handler.RemoveFromCart,
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			routes[step.method](w, jsonRequest(step.method, "/api/cart", step.body))

			if w.Code != step.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", step.wantStatus, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				return
			}

			var resp cartResponse
			decodeBody(t, w, &resp)
			if len(resp.Items) != step.wantLines {
				t.Errorf("expected %d lines, got %d", step.wantLines, len(resp.Items))
			}
			if resp.Count != step.wantCount {
				t.Errorf("expected count %d, got %d", step.wantCount, resp.Count)
			}
		})
	}
}

func TestCartKeepsLinesForDeletedProducts(t *testing.T) {
	products := newFakeProducts(testProduct("p1"))
	handler := NewCartHandler(newFixedOpener(), products, testLog)

	w := httptest.NewRecorder()
	handler.AddToCart(w, jsonRequest(http.MethodPost, "/api/cart", `{"productId":"p1","quantity":2}`))
	if w.Code != http.StatusOK {
		t.Fatalf("add: expected status 200, got %d", w.Code)
	}

	delete(products.products, "p1")

	w = httptest.NewRecorder()
	handler.GetCart(w, jsonRequest(http.MethodGet, "/api/cart", ""))

	var resp cartResponse
	decodeBody(t, w, &resp)
	if len(resp.Items) != 1 {
		t.Fatalf("expected the line to survive, got %d lines", len(resp.Items))
	}
	if resp.Items[0].Product != nil {
		t.Errorf("expected no product details for a deleted product")
	}
}
