// Package synthesis turns gathered evidence into candidate thread objects
// through a single-turn text-generation call.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/troubleonmonday/forum-bot/pkg/types"
)

// Generator is the text-generation backend. Implemented by llm.GeminiProvider;
// tests supply a fake.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Client sends the synthesis prompt and parses the reply into raw
// candidates. Reply-level failures (transport errors, empty or non-array
// output) are fatal for the run; a single malformed array element only
// drops that element.
type Client struct {
	gen Generator
}

// NewClient creates a synthesis client on the given backend.
func NewClient(gen Generator) *Client {
	return &Client{gen: gen}
}

// Skip records one reply array element that was not a usable candidate
// object and was dropped during decoding. Index is the element's position
// in the model's array.
type Skip struct {
	Index  int
	Reason string
}

// Synthesize runs the prompt and returns the decoded candidates plus the
// array elements that were dropped.
func (c *Client) Synthesize(ctx context.Context, prompt string) ([]types.RawCandidate, []Skip, error) {
	reply, err := c.gen.Generate(ctx, SystemInstruction, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("synthesis request: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, nil, fmt.Errorf("synthesis returned no content")
	}
	return ParseCandidates(reply)
}

var fencedJSON = regexp.MustCompile("(?is)```json\\s*(.*?)```")

// ExtractJSON strips an optional markdown code fence from a model reply and
// returns the payload expected to be JSON.
func ExtractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := fencedJSON.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// ParseCandidates parses a (possibly fenced) model reply as a JSON array of
// candidate threads. A reply that is not a well-formed array is an error
// carrying a truncated excerpt of the raw text. Elements that are not
// candidate objects are decoded individually and dropped one by one, so a
// single stray number or mis-typed field never costs the whole batch.
func ParseCandidates(raw string) ([]types.RawCandidate, []Skip, error) {
	payload := ExtractJSON(raw)
	if !strings.HasPrefix(payload, "[") {
		return nil, nil, fmt.Errorf("synthesis reply is not a JSON array: %s", excerpt(payload, 200))
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &elems); err != nil {
		return nil, nil, fmt.Errorf("parse synthesis reply: %w (reply: %s)", err, excerpt(payload, 200))
	}

	candidates := make([]types.RawCandidate, 0, len(elems))
	var skips []Skip
	for i, elem := range elems {
		var c types.RawCandidate
		if err := json.Unmarshal(elem, &c); err != nil {
			skips = append(skips, Skip{Index: i, Reason: fmt.Sprintf("not a thread object: %v", err)})
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, skips, nil
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
