package research

import (
	"encoding/json"
	"testing"
)

func parse(t *testing.T, raw string) any {
	t.Helper()
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return payload
}

func TestOrganicCandidates_KnownShapes(t *testing.T) {
	cases := map[string]string{
		"organic":              `{"organic": [{"title": "t"}]}`,
		"organic_results":      `{"organic_results": [{"title": "t"}]}`,
		"results.organic":      `{"results": {"organic": [{"title": "t"}]}}`,
		"body.organic":         `{"body": {"organic": [{"title": "t"}]}}`,
		"body.results.organic": `{"body": {"results": {"organic": [{"title": "t"}]}}}`,
		"search_results":       `{"search_results": {"organic": [{"title": "t"}]}}`,
		"response.organic":     `{"response": {"organic": [{"title": "t"}]}}`,
		"bare array":           `[{"title": "t"}]`,
	}
	for name, raw := range cases {
		if items := organicCandidates(parse(t, raw)); len(items) != 1 {
			t.Errorf("%s: expected 1 item, got %d", name, len(items))
		}
	}
}

func TestOrganicCandidates_FirstNonEmptyWins(t *testing.T) {
	payload := parse(t, `{"organic": [], "organic_results": [{"title": "fallback"}]}`)
	items := organicCandidates(payload)
	if len(items) != 1 {
		t.Fatalf("expected fallback shape to win, got %d items", len(items))
	}
}

func TestOrganicCandidates_NoMatch(t *testing.T) {
	cases := map[string]string{
		"empty object":  `{}`,
		"wrong type":    `{"organic": "not an array"}`,
		"scalar":        `42`,
		"unknown shape": `{"raw": "<html></html>"}`,
	}
	for name, raw := range cases {
		if items := organicCandidates(parse(t, raw)); items != nil {
			t.Errorf("%s: expected nil, got %v", name, items)
		}
	}
}

func TestDig_MistypedIntermediate(t *testing.T) {
	payload := parse(t, `{"body": "string, not object"}`)
	if items := dig(payload, "body", "organic"); items != nil {
		t.Errorf("expected nil for mistyped path, got %v", items)
	}
}
