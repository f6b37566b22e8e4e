package prompts

import (
	"strings"
	"testing"
)

func TestRegistryGetLatestPrefersNonDeprecated(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(&Prompt{ID: "greet", Version: "1.0.0", Content: "v1"})
	r.Register(&Prompt{ID: "greet", Version: "2.0.0", Content: "v2", Deprecated: true})

	p, err := r.GetLatest("greet")
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if p.Content != "v1" {
		t.Errorf("GetLatest() content = %q, want non-deprecated v1", p.Content)
	}
}

func TestRegistryGetLatestAllDeprecated(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(&Prompt{ID: "greet", Version: "1.0.0", Content: "v1", Deprecated: true})
	r.Register(&Prompt{ID: "greet", Version: "2.0.0", Content: "v2", Deprecated: true})

	p, err := r.GetLatest("greet")
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if p.Content != "v2" {
		t.Errorf("GetLatest() content = %q, want most recent version", p.Content)
	}
}

func TestRegistryGetSpecificVersion(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(&Prompt{ID: "greet", Version: "1.0.0", Content: "v1"})

	if _, err := r.Get("greet", "1.0.0"); err != nil {
		t.Errorf("Get(existing) error = %v", err)
	}
	if _, err := r.Get("greet", "9.9.9"); err == nil {
		t.Error("Get(missing version) error = nil, want error")
	}
	if _, err := r.Get("unknown", "1.0.0"); err == nil {
		t.Error("Get(missing id) error = nil, want error")
	}
}

func TestBuiltinPromptsRegistered(t *testing.T) {
	for _, id := range []string{AnalyzeID, GatherID, ComposeID} {
		p := MustLatest(id)
		if p.Content == "" {
			t.Errorf("MustLatest(%q) has empty content", id)
		}
	}

	analyze := MustLatest(AnalyzeID)
	if !strings.Contains(analyze.Content, `"needs_info"`) {
		t.Errorf("analyze prompt does not ask for the JSON shape the parser expects")
	}
}
