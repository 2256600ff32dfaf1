package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %s, want /translate", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["q"] != "hello" || req["target"] != "de" || req["source"] != "auto" {
			t.Errorf("unexpected payload: %v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{"translatedText": " hallo "})
	}))
	defer srv.Close()

	c := New(srv.URL, 2)
	got, err := c.Translate(context.Background(), "hello", "", "de")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "hallo" {
		t.Fatalf("Translate() = %q, want %q", got, "hallo")
	}
}

func TestTranslateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, 2)
	if _, err := c.Translate(context.Background(), "hello", "en", "de"); err == nil {
		t.Fatal("Translate() succeeded on 502, want error")
	}
}

func TestTranslateShortCircuits(t *testing.T) {
	c := New("", 1)
	got, err := c.Translate(context.Background(), "text", "en", "de")
	if err != nil || got != "" {
		t.Fatalf("Translate() with empty base = (%q, %v), want empty no-op", got, err)
	}
	c = New("http://unused.invalid", 1)
	if got, err := c.Translate(context.Background(), "  ", "en", "de"); err != nil || got != "" {
		t.Fatalf("Translate() with blank text = (%q, %v), want empty no-op", got, err)
	}
}
