package testutils

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pauljones0/swapThemes/internal/ai"
	"github.com/pauljones0/swapThemes/internal/notify"
	"github.com/pauljones0/swapThemes/internal/photo"
	"github.com/pauljones0/swapThemes/internal/store"
	"github.com/pauljones0/swapThemes/internal/suggest"
	"github.com/stretchr/testify/mock"
)

// FixturePath returns the absolute path of a file in the test/fixtures directory.
func FixturePath(filename string) string {
	_, b, _, _ := runtime.Caller(0)
	// runtime.Caller(0) gives the path to this file: internal/testutils/testutils.go
	// So we go up 2 levels to reach the root.
	basepath := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	return filepath.Join(basepath, "test", "fixtures", filename)
}

// LoadFixture loads a JSON file from the test/fixtures directory relative to the project root.
func LoadFixture(filename string, v any) error {
	data, err := os.ReadFile(FixturePath(filename))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// LoadRawFixture returns a fixture file as a string, e.g. a raw model response.
func LoadRawFixture(filename string) (string, error) {
	data, err := os.ReadFile(FixturePath(filename))
	return string(data), err
}

// MockThemeStore implements processor.ThemeStore using testify/mock
type MockThemeStore struct {
	mock.Mock
}

func (m *MockThemeStore) CreateTheme(ctx context.Context, t store.Theme) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}
func (m *MockThemeStore) GetTheme(ctx context.Context, themeID string) (*store.Theme, error) {
	args := m.Called(ctx, themeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Theme), args.Error(1)
}
func (m *MockThemeStore) GetActiveTheme(ctx context.Context) (*store.Theme, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Theme), args.Error(1)
}
func (m *MockThemeStore) ActivateTheme(ctx context.Context, themeID string) error {
	return m.Called(ctx, themeID).Error(0)
}
func (m *MockThemeStore) RecentThemeTitles(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockThemeStore) ListThemeSuggestions(ctx context.Context, themeID string, limit int, cursor string) ([]store.Suggestion, string, error) {
	args := m.Called(ctx, themeID, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]store.Suggestion), args.String(1), args.Error(2)
}
func (m *MockThemeStore) DeleteSuggestion(ctx context.Context, suggestionID string) error {
	return m.Called(ctx, suggestionID).Error(0)
}
func (m *MockThemeStore) TrimOldRuns(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockIdeaGenerator implements processor.IdeaGenerator using testify/mock
type MockIdeaGenerator struct {
	mock.Mock
}

func (m *MockIdeaGenerator) GenerateThemeIdea(ctx context.Context, recentTitles []string) (*ai.ThemeIdea, error) {
	args := m.Called(ctx, recentTitles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.ThemeIdea), args.Error(1)
}

// MockPhotoSearcher implements photo.Searcher using testify/mock
type MockPhotoSearcher struct {
	mock.Mock
}

func (m *MockPhotoSearcher) Search(ctx context.Context, query string) (*photo.Photo, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*photo.Photo), args.Error(1)
}

// MockImageStore implements imagestore.ImageStore using testify/mock
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Mirror(ctx context.Context, themeID, photoID, sourceURL string) (string, error) {
	args := m.Called(ctx, themeID, photoID, sourceURL)
	return args.String(0), args.Error(1)
}

// MockRunner implements processor.SuggestionRunner using testify/mock
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, theme suggest.Theme) (suggest.Result, error) {
	args := m.Called(ctx, theme)
	return args.Get(0).(suggest.Result), args.Error(1)
}

// MockNotifier implements notify.Notifier using testify/mock
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRun(ctx context.Context, r notify.RunReport) error {
	return m.Called(ctx, r).Error(0)
}

// MockTextGenerator implements suggest.TextGenerator using testify/mock
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
func (m *MockTextGenerator) ModelName() string {
	return m.Called().String(0)
}
func (m *MockTextGenerator) Available() bool {
	return m.Called().Bool(0)
}

// MockSuggestionStore implements suggest.HistorySource and suggest.Sink using testify/mock
type MockSuggestionStore struct {
	mock.Mock
}

func (m *MockSuggestionStore) SuggestionsSince(ctx context.Context, since time.Time) ([]suggest.HistoryEntry, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]suggest.HistoryEntry), args.Error(1)
}
func (m *MockSuggestionStore) SaveGenerationRun(ctx context.Context, run suggest.RunRecord) error {
	return m.Called(ctx, run).Error(0)
}
func (m *MockSuggestionStore) SaveSuggestion(ctx context.Context, themeID, runID string, c suggest.Candidate, p suggest.Provenance) (string, error) {
	args := m.Called(ctx, themeID, runID, c, p)
	return args.String(0), args.Error(1)
}
