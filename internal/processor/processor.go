package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pauljones0/swapThemes/internal/ai"
	"github.com/pauljones0/swapThemes/internal/imagestore"
	"github.com/pauljones0/swapThemes/internal/logger"
	"github.com/pauljones0/swapThemes/internal/notify"
	"github.com/pauljones0/swapThemes/internal/photo"
	"github.com/pauljones0/swapThemes/internal/store"
	"github.com/pauljones0/swapThemes/internal/suggest"
)

const (
	themeLength       = 7 * 24 * time.Hour
	recentThemeWindow = 12
)

// ThemeStore is the persistence the weekly cycle and the HTTP handlers need.
type ThemeStore interface {
	CreateTheme(ctx context.Context, t store.Theme) (string, error)
	GetTheme(ctx context.Context, themeID string) (*store.Theme, error)
	GetActiveTheme(ctx context.Context) (*store.Theme, error)
	ActivateTheme(ctx context.Context, themeID string) error
	RecentThemeTitles(ctx context.Context, limit int) ([]string, error)
	ListThemeSuggestions(ctx context.Context, themeID string, limit int, cursor string) ([]store.Suggestion, string, error)
	DeleteSuggestion(ctx context.Context, suggestionID string) error
	TrimOldRuns(ctx context.Context) (int, error)
}

// IdeaGenerator proposes the weekly theme.
type IdeaGenerator interface {
	GenerateThemeIdea(ctx context.Context, recentTitles []string) (*ai.ThemeIdea, error)
}

// SuggestionRunner runs the suggestion pipeline for one theme.
type SuggestionRunner interface {
	Run(ctx context.Context, theme suggest.Theme) (suggest.Result, error)
}

// CycleReport is what one weekly cycle produced.
type CycleReport struct {
	Theme         store.Theme    `json:"theme"`
	FallbackTheme bool           `json:"fallbackTheme"`
	Result        suggest.Result `json:"result"`
}

// Cycle creates and activates the weekly theme, then fills it with suggestions.
type Cycle struct {
	store     ThemeStore
	ideas     IdeaGenerator
	photos    photo.Searcher
	images    imagestore.ImageStore
	runner    SuggestionRunner
	notifier  notify.Notifier
	countries []string
	now       func() time.Time
}

func NewCycle(st ThemeStore, ideas IdeaGenerator, photos photo.Searcher, images imagestore.ImageStore, runner SuggestionRunner, notifier notify.Notifier, countries []string) *Cycle {
	return &Cycle{
		store:     st,
		ideas:     ideas,
		photos:    photos,
		images:    images,
		runner:    runner,
		notifier:  notifier,
		countries: countries,
		now:       time.Now,
	}
}

// Run executes one weekly cycle. Only theme persistence and invalid input fail the cycle; idea,
// photo, suggestion, report and trim problems are logged and the cycle carries on.
func (c *Cycle) Run(ctx context.Context) (*CycleReport, error) {
	start := c.now()
	themeID := uuid.NewString()
	ctx = logger.WithThemeID(ctx, themeID)
	logger.Info(ctx, "Starting weekly theme cycle")

	// 1. Theme idea
	idea, fallback := c.themeIdea(ctx)

	// 2-3. Cover photo
	photoID, photoURL := c.coverPhoto(ctx, themeID, idea.PhotoQuery)

	// 4. Create and activate
	theme := store.Theme{
		ID:          themeID,
		Title:       idea.Title,
		Description: idea.Description,
		Countries:   c.countries,
		PhotoID:     photoID,
		PhotoURL:    photoURL,
		StartsAt:    start,
		EndsAt:      start.Add(themeLength),
		CreatedAt:   start,
	}
	if _, err := c.store.CreateTheme(ctx, theme); err != nil {
		return nil, fmt.Errorf("failed to create theme: %w", err)
	}
	if err := c.store.ActivateTheme(ctx, themeID); err != nil {
		return nil, fmt.Errorf("failed to activate theme: %w", err)
	}
	theme.Active = true

	// 5. Suggestions
	res, err := c.runner.Run(ctx, suggest.Theme{ID: theme.ID, Title: theme.Title, Countries: theme.Countries})
	if err != nil {
		return nil, fmt.Errorf("suggestion run: %w", err)
	}

	// 6. Operator report
	report := notify.RunReport{
		ThemeID:       theme.ID,
		ThemeTitle:    theme.Title,
		PhotoURL:      theme.PhotoURL,
		FallbackTheme: fallback,
		Result:        res,
		Took:          c.now().Sub(start),
		FinishedAt:    c.now(),
	}
	if err := c.notifier.NotifyRun(ctx, report); err != nil {
		logger.Warn(ctx, "Failed to send run report", "stage", "report", "error", err)
	}

	// 7. Keep the audit collection lean
	if _, err := c.store.TrimOldRuns(ctx); err != nil {
		logger.Warn(ctx, "Non-fatal: failed to trim old generation runs", "stage", "trim", "error", err)
	}

	logger.Info(ctx, "Weekly theme cycle complete", "theme_title", theme.Title, "outcome", res.Outcome, "created", res.Stats.Created)
	return &CycleReport{Theme: theme, FallbackTheme: fallback, Result: res}, nil
}

func (c *Cycle) themeIdea(ctx context.Context) (ai.ThemeIdea, bool) {
	recent, err := c.store.RecentThemeTitles(ctx, recentThemeWindow)
	if err != nil {
		logger.Warn(ctx, "Could not load recent themes", "stage", "theme_idea", "error", err)
	}

	idea, err := c.ideas.GenerateThemeIdea(ctx, recent)
	switch {
	case errors.Is(err, ai.ErrGeneratorUnavailable):
		logger.Warn(ctx, "Text generation not configured, using default theme", "stage", "theme_idea")
		return ai.FallbackThemeIdea, true
	case err != nil:
		logger.Error(ctx, "Theme idea generation failed, using default theme", "stage", "theme_idea", "error", err)
		return ai.FallbackThemeIdea, true
	}
	return *idea, false
}

// coverPhoto returns the photo ID and the URL to show, preferring our mirrored copy.
func (c *Cycle) coverPhoto(ctx context.Context, themeID, query string) (string, string) {
	p, err := c.photos.Search(ctx, query)
	switch {
	case errors.Is(err, photo.ErrSearcherUnavailable):
		logger.Debug(ctx, "Photo search not configured", "stage", "photo")
		return "", ""
	case err != nil:
		logger.Warn(ctx, "Photo search failed", "stage", "photo", "query", query, "error", err)
		return "", ""
	case p == nil:
		logger.Info(ctx, "No cover photo found", "stage", "photo", "query", query)
		return "", ""
	}

	mirrored, err := c.images.Mirror(ctx, themeID, p.ID, p.URL)
	switch {
	case errors.Is(err, imagestore.ErrStoreUnavailable):
		return p.ID, p.URL
	case err != nil:
		logger.Warn(ctx, "Failed to mirror cover photo, using original URL", "stage", "image", "photo_id", p.ID, "error", err)
		return p.ID, p.URL
	}
	return p.ID, mirrored
}
