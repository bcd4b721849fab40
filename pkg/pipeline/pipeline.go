// Package pipeline runs the scheduled content-synthesis batch: research,
// synthesis, sanitization, and the final corpus merge.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/troubleonmonday/forum-bot/pkg/corpus"
	"github.com/troubleonmonday/forum-bot/pkg/runlog"
	"github.com/troubleonmonday/forum-bot/pkg/sanitize"
	"github.com/troubleonmonday/forum-bot/pkg/synthesis"
	"github.com/troubleonmonday/forum-bot/pkg/types"
)

// seedQueries is the fixed research topic pool. The planner takes a prefix
// sized to the run target; ordering encodes priority.
var seedQueries = []string{
	"monday.com best practices for project management teams",
	"monday.com automations examples for marketing workflows",
	"monday.com templates for operations and agency teams",
	"monday.com integrations with Slack and Google Workspace",
	"monday.com pricing and ROI for small business",
	"monday crm setup tips and common mistakes",
}

// minSeedQueries guarantees independent evidence sources even for small runs.
const minSeedQueries = 4

// SeedQueries returns the research queries for a run of the given size:
// max(4, targetCount+1), capped to the pool.
func SeedQueries(targetCount int) []string {
	n := targetCount + 1
	if n < minSeedQueries {
		n = minSeedQueries
	}
	if n > len(seedQueries) {
		n = len(seedQueries)
	}
	return seedQueries[:n]
}

// ThreadStore is the persisted thread collection.
type ThreadStore interface {
	Load() ([]types.Thread, error)
	Save([]types.Thread) error
}

// SettingsStore exposes the administrator run-size override.
type SettingsStore interface {
	WeeklyPostCountOverride() (int, bool, error)
}

// Searcher gathers evidence for the seed queries.
type Searcher interface {
	FetchAll(ctx context.Context, queries []string) []types.EvidenceSet
}

// Synthesizer turns the prompt into raw candidates plus the reply array
// elements that could not be decoded.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) ([]types.RawCandidate, []synthesis.Skip, error)
}

// Notifier reports a completed persisting run.
type Notifier interface {
	RunSummary(titles []string) error
}

// Pipeline wires the run's collaborators. Zero-value optional fields
// (Logger, Notifier) disable the corresponding side channel.
type Pipeline struct {
	Store    ThreadStore
	Settings SettingsStore
	Search   Searcher
	Synth    Synthesizer

	Logger   runlog.Logger
	Notifier Notifier

	// DefaultCount is the environment-level run size used when the admin
	// override is absent.
	DefaultCount int
	DryRun       bool
}

// Result reports one run's outcome.
type Result struct {
	RunID       string
	TargetCount int
	Accepted    []types.Thread
	Rejected    []sanitize.Rejection
	Written     bool
}

// Run executes one strictly sequential pipeline pass. Configuration and
// synthesis failures return an error and leave the store untouched;
// per-query and per-candidate failures are absorbed. A run that accepts
// zero candidates is a success.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := runlog.NewRunID()
	mode := runlog.ModeWrite
	if p.DryRun {
		mode = runlog.ModeDryRun
	}
	logger := p.Logger
	if logger == nil {
		logger = runlog.Nop{}
	}

	// Load the corpus and derive identities before any external call.
	threads, err := p.Store.Load()
	if err != nil {
		return nil, err
	}
	idx := corpus.BuildIndices(threads)

	target := p.DefaultCount
	override, ok, err := p.Settings.WeeklyPostCountOverride()
	if err != nil {
		return nil, err
	}
	if ok {
		target = override
	}

	queries := SeedQueries(target)
	log.Printf("Run %s (%s): target %d thread(s), %d seed queries", runID, mode, target, len(queries))

	evidence := p.Search.FetchAll(ctx, queries)
	for _, set := range evidence {
		p.logEvent(logger, runlog.Event{
			RunID: runID, Mode: mode, Stage: "research",
			Query: set.Query, Items: len(set.Items), Detail: fmt.Sprint(set.RawShape),
		})
	}

	prompt := synthesis.BuildPrompt(evidence, idx.Categories, target, threads)

	candidates, skips, err := p.Synth.Synthesize(ctx, prompt)
	if err != nil {
		p.logEvent(logger, runlog.Event{
			RunID: runID, Mode: mode, Stage: "synthesis", Error: err.Error(),
		})
		return nil, err
	}
	p.logEvent(logger, runlog.Event{
		RunID: runID, Mode: mode, Stage: "synthesis", Candidates: len(candidates),
	})

	s := sanitize.New(idx.Categories, idx.IDs, idx.Titles)
	accepted, rejected := s.Batch(candidates, target)
	for _, skip := range skips {
		rejected = append(rejected, sanitize.Rejection{Index: skip.Index, Reason: skip.Reason})
	}
	for _, r := range rejected {
		log.Printf("Dropped candidate %d (%q): %s", r.Index, r.Title, r.Reason)
	}

	result := &Result{
		RunID:       runID,
		TargetCount: target,
		Accepted:    accepted,
		Rejected:    rejected,
	}

	summary := runlog.Event{
		RunID: runID, Mode: mode, Stage: "summary",
		Candidates: len(candidates), Accepted: len(accepted), Rejected: len(rejected),
		Titles: result.Titles(),
	}

	if len(accepted) == 0 {
		log.Printf("No new threads were added (all candidates were invalid or duplicates).")
		p.logEvent(logger, summary)
		if !p.DryRun {
			p.notify(nil)
		}
		return result, nil
	}

	if p.DryRun {
		if dump, err := json.MarshalIndent(accepted, "", "  "); err == nil {
			log.Printf("Dry run complete. %d candidate thread(s):\n%s", len(accepted), dump)
		}
		p.logEvent(logger, summary)
		return result, nil
	}

	updated := make([]types.Thread, 0, len(threads)+len(accepted))
	updated = append(updated, threads...)
	updated = append(updated, accepted...)
	if err := p.Store.Save(updated); err != nil {
		summary.Error = err.Error()
		p.logEvent(logger, summary)
		return nil, err
	}
	result.Written = true

	log.Printf("Added %d thread(s) to the corpus", len(accepted))
	for i, thread := range accepted {
		log.Printf("%d. %s", i+1, thread.Title)
	}
	p.logEvent(logger, summary)

	p.notify(result.Titles())

	return result, nil
}

// notify posts the run summary when a notifier is configured. Notification
// failures are logged and never affect the run outcome.
func (p *Pipeline) notify(titles []string) {
	if p.Notifier == nil {
		return
	}
	if err := p.Notifier.RunSummary(titles); err != nil {
		log.Printf("Slack summary failed: %v", err)
	}
}

// Titles returns the accepted thread titles in merge order.
func (r *Result) Titles() []string {
	titles := make([]string, 0, len(r.Accepted))
	for _, t := range r.Accepted {
		titles = append(titles, t.Title)
	}
	return titles
}

func (p *Pipeline) logEvent(logger runlog.Logger, ev runlog.Event) {
	ev.Timestamp = time.Now()
	if err := logger.LogEvent(ev); err != nil {
		log.Printf("runlog write failed: %v", err)
	}
}
