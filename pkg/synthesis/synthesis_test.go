package synthesis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/troubleonmonday/forum-bot/pkg/types"
)

type fakeGenerator struct {
	reply  string
	err    error
	system string
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.system = system
	f.prompt = prompt
	return f.reply, f.err
}

const candidateArray = `[
  {
    "id": "weekly-automation-tips",
    "title": "Weekly automation tips",
    "category": "Automations",
    "tags": ["automation"],
    "question": "What are good weekly automations?",
    "answers": [{"author": "sam", "content": "Recurring items.", "isAccepted": true}]
  }
]`

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"unfenced", `[1, 2]`, `[1, 2]`},
		{"fenced", "```json\n[1, 2]\n```", `[1, 2]`},
		{"fenced upper", "```JSON\n[1, 2]\n```", `[1, 2]`},
		{"fenced with prose outside", "```json\n[1]\n```", `[1]`},
		{"surrounding whitespace", "\n\n  [1]  \n", `[1]`},
	}
	for _, c := range cases {
		if got := ExtractJSON(c.in); got != c.want {
			t.Errorf("%s: ExtractJSON = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestParseCandidates_Array(t *testing.T) {
	candidates, skips, err := ParseCandidates(candidateArray)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(skips) != 0 {
		t.Fatalf("unexpected skips: %+v", skips)
	}
	if len(candidates) != 1 || candidates[0].Title != "Weekly automation tips" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
	if len(candidates[0].Answers) != 1 || !candidates[0].Answers[0].IsAccepted {
		t.Fatalf("answers not parsed: %+v", candidates[0].Answers)
	}
}

func TestParseCandidates_Fenced(t *testing.T) {
	fenced := "Here you go:\n```json\n" + candidateArray + "\n```"
	candidates, _, err := ParseCandidates(fenced)
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
}

func TestParseCandidates_Rejects(t *testing.T) {
	cases := map[string]string{
		"prose":  "I could not find any good topics this week.",
		"object": `{"threads": []}`,
		"null":   `null`,
		"broken": `[{"title": "x"`,
	}
	for name, raw := range cases {
		if _, _, err := ParseCandidates(raw); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}
}

func TestParseCandidates_DropsNonObjectElements(t *testing.T) {
	mixed := `[
	  {"title": "Kept thread", "question": "q", "answers": [{"author": "a", "content": "c"}]},
	  42,
	  "not a thread"
	]`
	candidates, skips, err := ParseCandidates(mixed)
	if err != nil {
		t.Fatalf("a stray array element must not fail the reply: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Kept thread" {
		t.Fatalf("valid candidate lost: %+v", candidates)
	}
	if len(skips) != 2 || skips[0].Index != 1 || skips[1].Index != 2 {
		t.Fatalf("unexpected skips: %+v", skips)
	}
}

func TestParseCandidates_MistypedFieldsTolerated(t *testing.T) {
	raw := `[{
	  "title": "Loose fields",
	  "tags": "not-an-array",
	  "votes": "12",
	  "views": null,
	  "question": "q",
	  "answers": [{"author": "a", "content": "c", "votes": "many"}, 7]
	}]`
	candidates, skips, err := ParseCandidates(raw)
	if err != nil {
		t.Fatalf("mis-typed fields must not fail the reply: %v", err)
	}
	if len(skips) != 0 {
		t.Fatalf("unexpected skips: %+v", skips)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.Tags != nil || c.Votes != nil || c.Views != nil {
		t.Errorf("mis-typed fields must decode as absent: %+v", c)
	}
	if len(c.Answers) != 1 || c.Answers[0].Votes != nil || c.Answers[0].Content != "c" {
		t.Errorf("answers not decoded leniently: %+v", c.Answers)
	}
}

func TestParseCandidates_NonArrayAnswersDecodesAsAbsent(t *testing.T) {
	raw := `[{"title": "No answers", "question": "q", "answers": {"author": "a"}}]`
	candidates, skips, err := ParseCandidates(raw)
	if err != nil || len(skips) != 0 {
		t.Fatalf("parse: %v, skips %+v", err, skips)
	}
	if len(candidates) != 1 || candidates[0].Answers != nil {
		t.Fatalf("non-array answers must decode as absent: %+v", candidates)
	}
}

func TestParseCandidates_ErrorExcerptTruncated(t *testing.T) {
	long := strings.Repeat("prose ", 200)
	_, _, err := ParseCandidates(long)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Error()) > 400 {
		t.Errorf("error should carry a truncated excerpt, got %d bytes", len(err.Error()))
	}
}

func TestSynthesize(t *testing.T) {
	gen := &fakeGenerator{reply: candidateArray}
	candidates, _, err := NewClient(gen).Synthesize(context.Background(), "prompt text")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if gen.system != SystemInstruction {
		t.Errorf("system instruction not passed through: %q", gen.system)
	}
	if gen.prompt != "prompt text" {
		t.Errorf("prompt not passed through: %q", gen.prompt)
	}
}

func TestSynthesize_EmptyReplyFatal(t *testing.T) {
	gen := &fakeGenerator{reply: "   \n"}
	if _, _, err := NewClient(gen).Synthesize(context.Background(), "p"); err == nil {
		t.Fatal("expected error for empty reply")
	}
}

func TestSynthesize_BackendError(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("rate limited")}
	if _, _, err := NewClient(gen).Synthesize(context.Background(), "p"); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	evidence := []types.EvidenceSet{
		{Query: "q1", Items: []types.EvidenceItem{{Title: "t", URL: "u", Snippet: "s"}}, RawShape: []string{"organic"}},
		{Query: "q2", Items: []types.EvidenceItem{}, RawShape: []string{"unavailable"}},
	}
	categories := map[string]bool{"Features": true, "Automations": true}
	existing := []types.Thread{{ID: "a-thread", Title: "A Thread"}}

	first := BuildPrompt(evidence, categories, 3, existing)
	second := BuildPrompt(evidence, categories, 3, existing)
	if first != second {
		t.Fatal("prompt must be deterministic for identical inputs")
	}
}

func TestBuildPrompt_Contents(t *testing.T) {
	evidence := []types.EvidenceSet{
		{Query: "monday crm setup", Items: []types.EvidenceItem{{Title: "CRM guide", URL: "https://example.com", Snippet: "setup"}}, RawShape: []string{"organic"}},
	}
	categories := map[string]bool{"Features": true, "Automations": true}
	existing := []types.Thread{{ID: "crm-tips", Title: "CRM Tips"}}

	prompt := BuildPrompt(evidence, categories, 4, existing)

	for _, want := range []string{
		"an array with 4 to 6 thread objects",
		`["Automations","Features"]`,
		"crm-tips :: CRM Tips",
		"monday crm setup",
		"CRM guide",
		`"isAccepted": true`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
