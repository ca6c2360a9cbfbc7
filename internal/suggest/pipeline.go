package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pauljones0/swapThemes/internal/logger"
	"github.com/pauljones0/swapThemes/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Run outcomes. Only OutcomeCompleted means the filter ran.
const (
	OutcomeCompleted          = "completed"
	OutcomeSkipped            = "skipped"
	OutcomeGenerationFailed   = "generation_failed"
	OutcomeGenerationTimeout  = "generation_timeout"
	OutcomeInvalidResponse    = "invalid_response"
	OutcomeHistoryUnavailable = "history_unavailable"
)

// DefaultLookback is the dedup history window.
const DefaultLookback = 12 * 7 * 24 * time.Hour

// TextGenerator turns a prompt into raw model text. Implementations own timeouts and
// retries. Available is false for the variant used when no credential is configured.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
	Available() bool
}

// HistoryEntry is the identity part of a previously accepted suggestion.
type HistoryEntry struct {
	Name     string
	Country  string
	Era      string
	Category string
}

// HistorySource lists suggestions accepted since a point in time, across all themes.
type HistorySource interface {
	SuggestionsSince(ctx context.Context, since time.Time) ([]HistoryEntry, error)
}

// RunRecord is the audit trail of one generation attempt.
type RunRecord struct {
	ID         string
	ThemeID    string
	Provenance Provenance
	Outcome    string
	Stats      Stats
	CreatedAt  time.Time
}

// Sink persists accepted suggestions and run audit records.
type Sink interface {
	SaveGenerationRun(ctx context.Context, run RunRecord) error
	SaveSuggestion(ctx context.Context, themeID, runID string, c Candidate, p Provenance) (string, error)
}

// Options tunes a Pipeline. Zero values take the defaults.
type Options struct {
	Quotas   Quotas
	Lookback time.Duration
}

// Result describes one pipeline run.
type Result struct {
	ThemeID        string         `json:"themeId"`
	RunID          string         `json:"runId,omitempty"`
	Outcome        string         `json:"outcome"`
	Stats          Stats          `json:"stats"`
	SuggestionIDs  []string       `json:"suggestionIds"`
	CategoryCounts map[string]int `json:"categoryCounts,omitempty"`
}

// Pipeline runs prompt -> generation -> validation -> filter -> persistence for a theme.
type Pipeline struct {
	gen      TextGenerator
	history  HistorySource
	sink     Sink
	quotas   Quotas
	lookback time.Duration
	now      func() time.Time
	group    singleflight.Group
}

// NewPipeline wires a pipeline. gen should be an unavailable variant rather than nil when
// generation is not configured.
func NewPipeline(gen TextGenerator, history HistorySource, sink Sink, opts Options) *Pipeline {
	if opts.Quotas == (Quotas{}) {
		opts.Quotas = DefaultQuotas
	}
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	return &Pipeline{
		gen:      gen,
		history:  history,
		sink:     sink,
		quotas:   opts.Quotas,
		lookback: opts.Lookback,
		now:      time.Now,
	}
}

// Run generates and stores suggestions for theme. Generation, validation and history
// failures are logged and reported through Result.Outcome with a nil error; only invalid
// input is returned as an error.
//
// Overlapping calls for the same theme share a single run. Runs for different themes are
// not serialized against each other.
func (p *Pipeline) Run(ctx context.Context, theme Theme) (Result, error) {
	if strings.TrimSpace(theme.ID) == "" {
		return Result{}, fmt.Errorf("%w: theme id is empty", ErrInvalidArgument)
	}
	v, err, shared := p.group.Do(theme.ID, func() (any, error) {
		return p.run(ctx, theme)
	})
	if shared {
		logger.Debug(ctx, "Joined in-flight suggestion run", "theme_id", theme.ID)
	}
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (p *Pipeline) run(ctx context.Context, theme Theme) (Result, error) {
	ctx = logger.WithThemeID(ctx, theme.ID)
	start := p.now()
	res := Result{ThemeID: theme.ID, RunID: uuid.NewString(), SuggestionIDs: []string{}}

	prompt, err := BuildPrompt(theme.Title, theme.Countries)
	if err != nil {
		return Result{}, err
	}

	if !p.gen.Available() {
		logger.Warn(ctx, "Text generation not configured, skipping suggestions", "stage", "generate", "theme_title", theme.Title)
		res.Outcome = OutcomeSkipped
		res.RunID = ""
		p.observe(res, start)
		return res, nil
	}

	prov := Provenance{
		Model:      p.gen.ModelName(),
		PromptHash: PromptHash(prompt),
		Prompt:     prompt,
	}

	// 1. Generate
	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		res.Outcome = OutcomeGenerationFailed
		if errors.Is(err, context.DeadlineExceeded) {
			res.Outcome = OutcomeGenerationTimeout
		}
		logger.Error(ctx, "Suggestion generation failed", "stage", "generate", "theme_title", theme.Title, "error", err)
		p.finish(ctx, &res, prov, start)
		return res, nil
	}
	prov.Response = raw

	// 2. Validate
	items, err := Validate(raw)
	if err != nil {
		res.Outcome = OutcomeInvalidResponse
		logger.Error(ctx, "Model returned an invalid suggestion batch", "stage", "validate", "theme_title", theme.Title, "error", err, "raw", raw)
		p.finish(ctx, &res, prov, start)
		return res, nil
	}

	// 3. Dedup baseline
	history, err := p.loadHistory(ctx)
	if err != nil {
		res.Outcome = OutcomeHistoryUnavailable
		logger.Error(ctx, "Could not load suggestion history", "stage", "history", "theme_title", theme.Title, "error", err)
		p.finish(ctx, &res, prov, start)
		return res, nil
	}

	// 4. Filter
	filtered := Filter(items, history, p.quotas)
	res.Outcome = OutcomeCompleted
	res.Stats = filtered.Stats
	res.CategoryCounts = filtered.CategoryCounts

	// 5. Persist item by item; one failure never aborts the rest
	for _, c := range filtered.Accepted {
		id, err := p.sink.SaveSuggestion(ctx, theme.ID, res.RunID, c, prov)
		if err != nil {
			res.Stats.Created--
			res.Stats.Errors++
			logger.Error(ctx, "Failed to save suggestion", "stage", "persist", "name", c.Name, "country", c.Country, "error", err)
			continue
		}
		res.SuggestionIDs = append(res.SuggestionIDs, id)
	}

	p.saveRun(ctx, res, prov)
	logger.Info(ctx, "Suggestion run complete",
		"theme_title", theme.Title,
		"candidates", len(items),
		"created", res.Stats.Created,
		"duplicates", res.Stats.Duplicates,
		"diversity_filtered", res.Stats.DiversityFiltered,
		"errors", res.Stats.Errors,
	)
	p.observe(res, start)
	return res, nil
}

func (p *Pipeline) loadHistory(ctx context.Context) (KeySet, error) {
	entries, err := p.history.SuggestionsSince(ctx, p.now().Add(-p.lookback))
	if err != nil {
		return nil, err
	}
	set := make(KeySet, len(entries))
	for _, e := range entries {
		set.Add(CanonicalKey(e.Name, e.Country, e.Era, e.Category))
	}
	return set, nil
}

// finish records a run that ended before the filter.
func (p *Pipeline) finish(ctx context.Context, res *Result, prov Provenance, start time.Time) {
	p.saveRun(ctx, *res, prov)
	p.observe(*res, start)
}

func (p *Pipeline) saveRun(ctx context.Context, res Result, prov Provenance) {
	err := p.sink.SaveGenerationRun(ctx, RunRecord{
		ID:         res.RunID,
		ThemeID:    res.ThemeID,
		Provenance: prov,
		Outcome:    res.Outcome,
		Stats:      res.Stats,
		CreatedAt:  p.now(),
	})
	if err != nil {
		logger.Error(ctx, "Failed to save generation run", "stage", "audit", "run_id", res.RunID, "error", err)
	}
}

func (p *Pipeline) observe(res Result, start time.Time) {
	s := res.Stats
	metrics.ObserveRun(res.Outcome, s.Created, s.Duplicates, s.DiversityFiltered, s.Errors, p.now().Sub(start))
}
