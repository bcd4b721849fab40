// Package sanitize normalizes synthesizer candidates and enforces the
// corpus-wide identity and size invariants before anything is persisted.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/troubleonmonday/forum-bot/pkg/types"
)

const (
	maxSlugLen   = 64
	slugFallback = "monday-thread"
)

var nonSlugRuns = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeWhitespace collapses all whitespace runs to single spaces and
// trims the result.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Clip normalizes whitespace and truncates to max runes, replacing the final
// rune with an ellipsis when truncation happens.
func Clip(s string, max int) string {
	text := NormalizeWhitespace(s)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max < 1 {
		return ""
	}
	return strings.TrimRight(string(runes[:max-1]), " ") + "…"
}

// Slug derives a lowercase hyphenated identifier from free text. Returns ""
// when nothing slug-like remains.
func Slug(s string) string {
	slug := nonSlugRuns.ReplaceAllString(strings.ToLower(NormalizeWhitespace(s)), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	return slug
}

// Rejection records one dropped candidate and why.
type Rejection struct {
	Index  int
	Title  string
	Reason string
}

// Sanitizer validates candidates against the pre-run corpus identities and
// against earlier acceptances in the same batch. Accepted ids and titles are
// registered immediately, so it is not safe for concurrent use.
type Sanitizer struct {
	allowedCategories map[string]bool
	usedIDs           map[string]bool
	usedTitles        map[string]bool
}

// New builds a Sanitizer seeded with the corpus identity indices. The input
// sets are copied; the caller's indices are never mutated.
func New(categories, ids, lowerTitles map[string]bool) *Sanitizer {
	return &Sanitizer{
		allowedCategories: copySet(categories),
		usedIDs:           copySet(ids),
		usedTitles:        copySet(lowerTitles),
	}
}

func copySet(src map[string]bool) map[string]bool {
	dst := make(map[string]bool, len(src))
	for k := range src {
		dst[k] = true
	}
	return dst
}

// Sanitize validates one candidate. On success the returned thread satisfies
// every corpus invariant and its id and title are registered so later
// candidates in the batch see them. On failure the error states the drop
// reason and nothing is registered.
func (s *Sanitizer) Sanitize(raw types.RawCandidate) (*types.Thread, error) {
	title := Clip(raw.Title, types.MaxTitleLen)
	if title == "" {
		return nil, fmt.Errorf("empty title")
	}

	lowerTitle := strings.ToLower(title)
	if s.usedTitles[lowerTitle] {
		return nil, fmt.Errorf("duplicate title %q", title)
	}

	base := Slug(raw.ID)
	if base == "" {
		base = Slug(title)
	}
	if base == "" {
		base = slugFallback
	}
	id := s.uniqueSlug(base)

	category := NormalizeWhitespace(raw.Category)
	if !s.allowedCategories[category] {
		category = types.FallbackCategory
	}

	tags := normalizeTags(raw.Tags)

	question := Clip(firstNonEmpty(raw.Question, raw.Excerpt, title), types.MaxQuestionLen)
	excerpt := Clip(firstNonEmpty(raw.Excerpt, question), types.MaxExcerptLen)
	if question == "" || excerpt == "" {
		return nil, fmt.Errorf("empty question or excerpt")
	}

	answers := sanitizeAnswers(raw.Answers)
	if len(answers) == 0 {
		return nil, fmt.Errorf("no valid answers")
	}

	s.usedIDs[id] = true
	s.usedTitles[lowerTitle] = true

	return &types.Thread{
		ID:        id,
		Title:     title,
		Category:  category,
		Tags:      tags,
		Author:    valueOr(NormalizeWhitespace(raw.Author), types.DefaultAuthor),
		Timestamp: valueOr(NormalizeWhitespace(raw.Timestamp), types.DefaultTimestamp),
		Votes:     nonNegativeInt(raw.Votes),
		Views:     nonNegativeInt(raw.Views),
		Excerpt:   excerpt,
		Question:  question,
		Answers:   answers,
	}, nil
}

// Batch sanitizes candidates in order and truncates the accepted list to
// target, preserving the synthesizer's presentation order.
func (s *Sanitizer) Batch(raws []types.RawCandidate, target int) ([]types.Thread, []Rejection) {
	var accepted []types.Thread
	var rejected []Rejection

	for i, raw := range raws {
		thread, err := s.Sanitize(raw)
		if err != nil {
			rejected = append(rejected, Rejection{
				Index:  i,
				Title:  NormalizeWhitespace(raw.Title),
				Reason: err.Error(),
			})
			continue
		}
		accepted = append(accepted, *thread)
	}

	if target >= 0 && len(accepted) > target {
		accepted = accepted[:target]
	}
	return accepted, rejected
}

// uniqueSlug resolves collisions against the running id set by appending
// -2, -3, ... until unique. The result is not registered; Sanitize registers
// it only when the whole candidate is accepted.
func (s *Sanitizer) uniqueSlug(base string) string {
	if !s.usedIDs[base] {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !s.usedIDs[candidate] {
			return candidate
		}
	}
}

func normalizeTags(raw []any) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, t := range raw {
		tag := Slug(fmt.Sprint(t))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == types.MaxTags {
			break
		}
	}
	if len(tags) == 0 {
		return append([]string(nil), types.DefaultTags...)
	}
	return tags
}

func sanitizeAnswers(raw []types.RawAnswer) []types.Answer {
	var answers []types.Answer
	for i, a := range raw {
		content := Clip(a.Content, types.MaxAnswerContentLen)
		if content == "" {
			continue
		}
		answers = append(answers, types.Answer{
			Author:     valueOr(NormalizeWhitespace(a.Author), fmt.Sprintf("community_member_%d", i+1)),
			Timestamp:  valueOr(NormalizeWhitespace(a.Timestamp), types.DefaultTimestamp),
			Votes:      nonNegativeInt(a.Votes),
			IsAccepted: a.IsAccepted,
			Content:    content,
		})
		if len(answers) == types.MaxAnswers {
			break
		}
	}
	return ensureAcceptedAnswer(answers)
}

// ensureAcceptedAnswer promotes the first answer when the synthesizer marked
// none as accepted. A non-empty answer list always carries an accepted entry.
func ensureAcceptedAnswer(answers []types.Answer) []types.Answer {
	if len(answers) == 0 {
		return answers
	}
	for _, a := range answers {
		if a.IsAccepted {
			return answers
		}
	}
	answers[0].IsAccepted = true
	return answers
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if NormalizeWhitespace(v) != "" {
			return v
		}
	}
	return ""
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func nonNegativeInt(v *float64) int {
	if v == nil || *v < 0 {
		return 0
	}
	return int(*v)
}
