package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/pauljones0/swapThemes/internal/store"
	"github.com/pauljones0/swapThemes/internal/suggest"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service backs the manual and listing endpoints.
type Service struct {
	store     ThemeStore
	runner    SuggestionRunner
	countries []string
}

func NewService(st ThemeStore, runner SuggestionRunner, defaultCountries []string) *Service {
	return &Service{store: st, runner: runner, countries: defaultCountries}
}

// GenerateForTheme runs the suggestion pipeline for an existing theme.
func (s *Service) GenerateForTheme(ctx context.Context, themeID string) (suggest.Result, error) {
	themeID = strings.TrimSpace(themeID)
	if themeID == "" {
		return suggest.Result{}, fmt.Errorf("%w: theme id is empty", suggest.ErrInvalidArgument)
	}
	theme, err := s.store.GetTheme(ctx, themeID)
	if err != nil {
		return suggest.Result{}, err
	}
	countries := theme.Countries
	if len(countries) == 0 {
		countries = s.countries
	}
	return s.runner.Run(ctx, suggest.Theme{ID: theme.ID, Title: theme.Title, Countries: countries})
}

// SuggestionPage is one page of a theme's suggestions.
type SuggestionPage struct {
	Items      []store.Suggestion `json:"items"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

// ListSuggestions pages through a theme's suggestions. limit 0 means DefaultPageSize.
func (s *Service) ListSuggestions(ctx context.Context, themeID string, limit int, cursor string) (*SuggestionPage, error) {
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 1 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", suggest.ErrInvalidArgument, MaxPageSize)
	}
	if _, err := s.store.GetTheme(ctx, themeID); err != nil {
		return nil, err
	}
	items, next, err := s.store.ListThemeSuggestions(ctx, themeID, limit, cursor)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.Suggestion{}
	}
	return &SuggestionPage{Items: items, NextCursor: next}, nil
}

func (s *Service) DeleteSuggestion(ctx context.Context, suggestionID string) error {
	return s.store.DeleteSuggestion(ctx, suggestionID)
}
