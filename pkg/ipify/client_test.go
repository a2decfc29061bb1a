package ipify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elida-shop/storefront-backend/pkg/config"
)

func TestLookupReturnsEchoedIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("expected format=json, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"ip":"198.51.100.4"}`))
	}))
	defer srv.Close()

	client := NewClient(config.IPLookupConfig{URL: srv.URL})
	ip, err := client.Lookup(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ip != "198.51.100.4" {
		t.Fatalf("unexpected ip %q", ip)
	}
}

func TestLookupFailsOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(config.IPLookupConfig{URL: srv.URL})
	if _, err := client.Lookup(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestLookupFailsOnEmptyAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(config.IPLookupConfig{URL: srv.URL})
	if _, err := client.Lookup(context.Background()); err == nil {
		t.Fatal("expected error on empty ip")
	}
}
