package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCityFactsToolFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/page/summary/Paris"):
			w.Write([]byte(`{"title":"Paris","extract":"Paris is the capital of France."}`))
		case strings.HasSuffix(r.URL.Path, "/page/summary/Flaky"):
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tool := newCityFactsTool(srv.Client(), srv.URL)

	tests := []struct {
		name     string
		city     string
		contains string
	}{
		{name: "success returns summary", city: "Paris", contains: "capital of France"},
		{name: "missing page", city: "Atlantis", contains: "City 'Atlantis' not found in Wikipedia"},
		{name: "missing page names single-word guidance", city: "Atlantis", contains: "single word"},
		{name: "server error", city: "Flaky", contains: "HTTP Error: 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tool.Fn(context.Background(), map[string]any{"city": tt.city})
			if err != nil {
				t.Fatalf("Fn() error = %v", err)
			}
			if !strings.Contains(out, tt.contains) {
				t.Errorf("output = %q, want substring %q", out, tt.contains)
			}
		})
	}
}
