package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWeatherToolCannedData(t *testing.T) {
	tool := NewWeatherTool("")

	out, err := tool.Fn(context.Background(), map[string]any{"city": "Tokyo"})
	if err != nil {
		t.Fatalf("Fn() error = %v", err)
	}

	var report weatherReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if report.City != "Tokyo" || report.TemperatureC != 25 {
		t.Errorf("canned report = %+v", report)
	}
}

func TestWeatherToolCannedDataCountryCode(t *testing.T) {
	tool := NewWeatherTool("")

	out, err := tool.Fn(context.Background(), map[string]any{"city": "Kyoto,JP"})
	if err != nil {
		t.Fatalf("Fn() error = %v", err)
	}
	if !strings.Contains(out, "Kyoto") {
		t.Errorf("output = %q, want Kyoto data", out)
	}
}

func TestWeatherToolFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "Paris":
			w.Write([]byte(`{"name":"Paris","main":{"temp":18.5,"humidity":72},"weather":[{"description":"overcast clouds"}]}`))
		case "Nowhereville":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	tool := newWeatherTool(srv.Client(), srv.URL, "test-key")

	tests := []struct {
		name     string
		city     string
		contains string
	}{
		{name: "success", city: "Paris", contains: `"temperature_c":18.5`},
		{name: "not found", city: "Nowhereville", contains: "not found"},
		{name: "server error", city: "Brokenton", contains: "HTTP Error: 500"},
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

func TestWeatherToolValidatesCityArg(t *testing.T) {
	tool := NewWeatherTool("")
	if _, err := tool.Fn(context.Background(), map[string]any{}); err == nil {
		t.Error("Fn() accepted missing city")
	}
	if err := tool.ValidateArgs(map[string]any{}); err == nil {
		t.Error("ValidateArgs() accepted missing city")
	}
}
