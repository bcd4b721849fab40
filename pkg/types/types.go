// Package types defines core types for the forum content pipeline.
package types

import "encoding/json"

// Field limits enforced by the sanitizer. Oversized values are clipped,
// never rejected, except where a required field ends up empty.
const (
	MaxTitleLen         = 120
	MaxExcerptLen       = 220
	MaxQuestionLen      = 3500
	MaxAnswerContentLen = 3000
	MaxTags             = 8
	MaxAnswers          = 3
)

// FallbackCategory is assigned when a candidate names a category that is not
// part of the corpus at load time. Distinct from the submission-side default
// ("General") so uncategorized synthesized threads stay recognizable.
const FallbackCategory = "Features"

// DefaultAuthor is the display author for synthesized threads.
const DefaultAuthor = "forum_editor_bot"

// DefaultTimestamp is the display timestamp used when the synthesizer omits one.
const DefaultTimestamp = "just now"

// DefaultTags is the tag set applied when a candidate has no usable tags.
var DefaultTags = []string{"monday-com", "workflow"}

// Answer is one reply inside a thread.
type Answer struct {
	Author     string `json:"author"`
	Timestamp  string `json:"timestamp"`
	Votes      int    `json:"votes"`
	IsAccepted bool   `json:"isAccepted"`
	Content    string `json:"content"`
}

// Thread is one discussion unit: a question plus zero or more answers.
// ID is a corpus-unique slug and Title is unique case-insensitively;
// both are immutable once the thread is persisted.
type Thread struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Author    string   `json:"author"`
	Timestamp string   `json:"timestamp"`
	Votes     int      `json:"votes"`
	Views     int      `json:"views"`
	Excerpt   string   `json:"excerpt"`
	Question  string   `json:"question"`
	Answers   []Answer `json:"answers"`
}

// RawAnswer is an answer as proposed by the synthesizer, before sanitization.
// Votes is a float pointer because models emit fractional or missing numbers.
type RawAnswer struct {
	Author     string   `json:"author"`
	Timestamp  string   `json:"timestamp"`
	Votes      *float64 `json:"votes"`
	IsAccepted bool     `json:"isAccepted"`
	Content    string   `json:"content"`
}

// UnmarshalJSON decodes an answer object, treating a mis-typed votes value
// as absent instead of failing the element.
func (a *RawAnswer) UnmarshalJSON(data []byte) error {
	type loose struct {
		Author     string          `json:"author"`
		Timestamp  string          `json:"timestamp"`
		Votes      json.RawMessage `json:"votes"`
		IsAccepted bool            `json:"isAccepted"`
		Content    string          `json:"content"`
	}
	var l loose
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	*a = RawAnswer{
		Author:     l.Author,
		Timestamp:  l.Timestamp,
		Votes:      looseNumber(l.Votes),
		IsAccepted: l.IsAccepted,
		Content:    l.Content,
	}
	return nil
}

// RawCandidate is a synthesizer-proposed thread prior to sanitization.
// Every field is optional and untrusted.
type RawCandidate struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Category  string      `json:"category"`
	Tags      []any       `json:"tags"`
	Author    string      `json:"author"`
	Timestamp string      `json:"timestamp"`
	Votes     *float64    `json:"votes"`
	Views     *float64    `json:"views"`
	Excerpt   string      `json:"excerpt"`
	Question  string      `json:"question"`
	Answers   []RawAnswer `json:"answers"`
}

// UnmarshalJSON decodes a candidate object. Tags, votes, views and answers
// that carry the wrong JSON type are treated as absent rather than failing
// the candidate; the sanitizer applies the usual defaults and drop rules.
// Non-object payloads and mis-typed string fields still fail, which drops
// only the one array element.
func (c *RawCandidate) UnmarshalJSON(data []byte) error {
	type loose struct {
		ID        string          `json:"id"`
		Title     string          `json:"title"`
		Category  string          `json:"category"`
		Tags      json.RawMessage `json:"tags"`
		Author    string          `json:"author"`
		Timestamp string          `json:"timestamp"`
		Votes     json.RawMessage `json:"votes"`
		Views     json.RawMessage `json:"views"`
		Excerpt   string          `json:"excerpt"`
		Question  string          `json:"question"`
		Answers   json.RawMessage `json:"answers"`
	}
	var l loose
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	*c = RawCandidate{
		ID:        l.ID,
		Title:     l.Title,
		Category:  l.Category,
		Tags:      looseList(l.Tags),
		Author:    l.Author,
		Timestamp: l.Timestamp,
		Votes:     looseNumber(l.Votes),
		Views:     looseNumber(l.Views),
		Excerpt:   l.Excerpt,
		Question:  l.Question,
		Answers:   looseAnswers(l.Answers),
	}
	return nil
}

func looseNumber(raw json.RawMessage) *float64 {
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func looseList(raw json.RawMessage) []any {
	var v []any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// looseAnswers decodes the answer array element by element, skipping entries
// that are not answer objects.
func looseAnswers(raw json.RawMessage) []RawAnswer {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	answers := make([]RawAnswer, 0, len(elems))
	for _, elem := range elems {
		var a RawAnswer
		if err := json.Unmarshal(elem, &a); err != nil {
			continue
		}
		answers = append(answers, a)
	}
	return answers
}

// EvidenceItem is one normalized search result.
type EvidenceItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// EvidenceSet holds the normalized results gathered for one seed query.
// RawShape records the top-level keys of the vendor payload, or
// ["unavailable"] when the query failed, for debugging shape drift.
type EvidenceSet struct {
	Query    string         `json:"query"`
	Items    []EvidenceItem `json:"topResults"`
	RawShape []string       `json:"rawShape"`
}
