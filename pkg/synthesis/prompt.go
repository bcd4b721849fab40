package synthesis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/troubleonmonday/forum-bot/pkg/types"
)

// SystemInstruction pins the synthesizer to a bare JSON array. Any prose or
// markdown wrapper around the array is a model failure the client has to
// recover from or reject.
const SystemInstruction = "You generate strictly valid JSON arrays only. Never output markdown or commentary."

// Temperature is the sampling temperature for synthesis runs. Low on
// purpose: candidates should stay grounded in the supplied evidence.
const Temperature float32 = 0.4

// threadSchema is the exact output shape the synthesizer must return,
// embedded literally in the prompt.
const threadSchema = `{
  "id": "slug-id",
  "title": "string",
  "category": "string",
  "tags": ["string"],
  "author": "string",
  "timestamp": "string",
  "votes": 0,
  "views": 0,
  "excerpt": "string",
  "question": "string",
  "answers": [
    {
      "author": "string",
      "timestamp": "string",
      "votes": 0,
      "isAccepted": true,
      "content": "string"
    }
  ]
}`

// BuildPrompt assembles the synthesis instruction document. It is a pure
// function: given the same evidence, categories, target and corpus it
// produces byte-identical output, which keeps dry runs reproducible.
func BuildPrompt(evidence []types.EvidenceSet, allowedCategories map[string]bool, targetCount int, existing []types.Thread) string {
	categories := make([]string, 0, len(allowedCategories))
	for c := range allowedCategories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	categoriesJSON, _ := json.Marshal(categories)

	titleAndID := make([]string, 0, len(existing))
	for _, t := range existing {
		titleAndID = append(titleAndID, fmt.Sprintf("%s :: %s", t.ID, t.Title))
	}
	existingJSON, _ := json.MarshalIndent(titleAndID, "", "  ")

	if evidence == nil {
		evidence = []types.EvidenceSet{}
	}
	evidenceJSON, _ := json.MarshalIndent(evidence, "", "  ")

	var sb strings.Builder
	sb.WriteString("Generate SEO-focused community thread objects about monday.com based on SERP source data.\n")
	fmt.Fprintf(&sb, "Return ONLY JSON: an array with %d to %d thread objects.\n", targetCount, targetCount+2)
	sb.WriteString("Schema must exactly match this shape:\n")
	sb.WriteString(threadSchema)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Allowed categories only: %s\n", categoriesJSON)
	sb.WriteString("Output requirements:\n")
	sb.WriteString("- Focus on high-intent monday.com topics that could rank.\n")
	sb.WriteString("- Keep titles unique and not duplicates of existing titles or IDs.\n")
	sb.WriteString("- Each thread needs 1-3 realistic answers with one accepted answer.\n")
	sb.WriteString("- Keep tone practical and specific (not generic fluff).\n")
	sb.WriteString("- Use keyword-aware tags.\n")
	sb.WriteString("Existing threads (do not duplicate title/id):\n")
	sb.Write(existingJSON)
	sb.WriteString("\nSERP findings:\n")
	sb.Write(evidenceJSON)
	return sb.String()
}
