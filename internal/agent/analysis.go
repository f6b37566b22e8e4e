package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Analysis is the structured reading of the analyze node's model output.
type Analysis struct {
	City      string // Empty when the model could not name one
	NeedsInfo bool   // True iff the question requires tool-sourced data
	Confirmed bool   // True iff the model was certain about the city
	Raw       string // The unmodified model text
}

// analysisPayload matches the JSON shape we ask the model to emit.
// Alternate field names tolerate drift in model output.
type analysisPayload struct {
	City       string `json:"city"`
	TargetCity string `json:"target_city"`
	NeedsInfo  *bool  `json:"needs_info"`
	NeedsTools *bool  `json:"needs_external_info"`
	Confirmed  *bool  `json:"confirmed"`
}

var (
	jsonBlockRe = regexp.MustCompile(`(?s)\{.*?\}`)
	cityLineRe  = regexp.MustCompile(`(?im)^\s*(?:city|target city|entity)\s*[:=]\s*"?([^"\n]+)"?\s*$`)
)

// ParseAnalysis extracts city/intent signals from free model text.
// JSON extraction is preferred; a keyword fallback handles prose. It never
// fails: unparseable output degrades to "city unknown, info not needed",
// which routes the turn to a plain compose.
func ParseAnalysis(raw string) Analysis {
	a := Analysis{Raw: raw}

	if payload, ok := parseAnalysisJSON(raw); ok {
		city := payload.City
		if city == "" {
			city = payload.TargetCity
		}
		a.City = normalizeCity(city)
		if payload.NeedsInfo != nil {
			a.NeedsInfo = *payload.NeedsInfo
		} else if payload.NeedsTools != nil {
			a.NeedsInfo = *payload.NeedsTools
		}
		if payload.Confirmed != nil {
			a.Confirmed = *payload.Confirmed
		} else {
			a.Confirmed = a.City != ""
		}
	} else {
		a = parseAnalysisKeywords(raw)
		a.Raw = raw
	}

	// Invariant: no city means no confirmation.
	if a.City == "" {
		a.Confirmed = false
	}
	return a
}

// parseAnalysisJSON tries each {...} block in the text until one unmarshals.
// Models often wrap JSON in prose or markdown fences.
func parseAnalysisJSON(raw string) (analysisPayload, bool) {
	for _, block := range jsonBlockRe.FindAllString(raw, -1) {
		var payload analysisPayload
		if err := json.Unmarshal([]byte(block), &payload); err != nil {
			continue
		}
		if payload.City == "" && payload.TargetCity == "" &&
			payload.NeedsInfo == nil && payload.NeedsTools == nil && payload.Confirmed == nil {
			// Valid JSON but not our shape
			continue
		}
		return payload, true
	}
	return analysisPayload{}, false
}

// parseAnalysisKeywords is the prose fallback: a "city: X" line plus
// yes/true markers near the known field names.
func parseAnalysisKeywords(raw string) Analysis {
	var a Analysis
	if m := cityLineRe.FindStringSubmatch(raw); m != nil {
		a.City = normalizeCity(strings.TrimSpace(m[1]))
	}
	lowered := strings.ToLower(raw)
	a.NeedsInfo = keywordTrue(lowered, "needs_info") || keywordTrue(lowered, "needs external info")
	a.Confirmed = a.City != "" && (keywordTrue(lowered, "confirmed") || !strings.Contains(lowered, "confirmed"))
	return a
}

// keywordTrue reports whether "<field> ... true/yes" appears in the text.
func keywordTrue(lowered, field string) bool {
	idx := strings.Index(lowered, field)
	if idx < 0 {
		return false
	}
	tail := lowered[idx+len(field):]
	if len(tail) > 16 {
		tail = tail[:16]
	}
	return strings.Contains(tail, "true") || strings.Contains(tail, "yes")
}

// normalizeCity treats the model's "unknown" placeholders as unset.
func normalizeCity(city string) string {
	city = strings.TrimSpace(city)
	switch strings.ToLower(city) {
	case "", "unknown", "none", "n/a", "null", "不明":
		return ""
	}
	return city
}
