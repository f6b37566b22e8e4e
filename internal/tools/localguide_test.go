package tools

import (
	"context"
	"strings"
	"testing"
)

func TestLocalGuideToolSearch(t *testing.T) {
	tool, err := NewLocalGuideTool()
	if err != nil {
		t.Fatalf("NewLocalGuideTool() error = %v", err)
	}

	t.Run("city hit", func(t *testing.T) {
		out, err := tool.Fn(context.Background(), map[string]any{"city": "Tokyo"})
		if err != nil {
			t.Fatalf("Fn() error = %v", err)
		}
		if !strings.Contains(out, "Curated notes for Tokyo") {
			t.Errorf("output = %q, want Tokyo notes header", out)
		}
	})

	t.Run("topic filter", func(t *testing.T) {
		out, err := tool.Fn(context.Background(), map[string]any{"city": "Tokyo", "topic": "food"})
		if err != nil {
			t.Fatalf("Fn() error = %v", err)
		}
		if !strings.Contains(out, "[food]") {
			t.Errorf("output = %q, want food notes", out)
		}
		if strings.Contains(out, "[etiquette]") {
			t.Errorf("output = %q, topic filter leaked other topics", out)
		}
	})

	t.Run("uncovered city", func(t *testing.T) {
		out, err := tool.Fn(context.Background(), map[string]any{"city": "Ulaanbaatar"})
		if err != nil {
			t.Fatalf("Fn() error = %v", err)
		}
		if !strings.Contains(out, "Error: no local guide notes") {
			t.Errorf("output = %q, want classifiable miss text", out)
		}
	})
}

func TestLocalGuideToolRegistered(t *testing.T) {
	reg, err := NewToolRegistry(Settings{Set: DefaultToolSet()})
	if err != nil {
		t.Fatalf("NewToolRegistry() error = %v", err)
	}
	want := []string{"get_city_facts", "get_local_time", "get_weather", "local_guide"}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestToolRegistryHonorsToolSet(t *testing.T) {
	reg, err := NewToolRegistry(Settings{Set: ToolSet{Weather: true, CityFacts: true}})
	if err != nil {
		t.Fatalf("NewToolRegistry() error = %v", err)
	}
	if _, ok := reg["get_local_time"]; ok {
		t.Error("disabled tool present in registry")
	}
	if _, ok := reg["get_weather"]; !ok {
		t.Error("enabled tool missing from registry")
	}
}
