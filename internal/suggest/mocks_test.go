package suggest

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockGenerator implements TextGenerator using testify/mock
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
func (m *MockGenerator) ModelName() string {
	return m.Called().String(0)
}
func (m *MockGenerator) Available() bool {
	return m.Called().Bool(0)
}

// MockHistory implements HistorySource using testify/mock
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) SuggestionsSince(ctx context.Context, since time.Time) ([]HistoryEntry, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]HistoryEntry), args.Error(1)
}

// MockSink implements Sink using testify/mock
type MockSink struct {
	mock.Mock
}

func (m *MockSink) SaveGenerationRun(ctx context.Context, run RunRecord) error {
	return m.Called(ctx, run).Error(0)
}
func (m *MockSink) SaveSuggestion(ctx context.Context, themeID, runID string, c Candidate, p Provenance) (string, error) {
	args := m.Called(ctx, themeID, runID, c, p)
	return args.String(0), args.Error(1)
}
