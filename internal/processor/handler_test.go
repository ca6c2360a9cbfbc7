package processor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pauljones0/swapThemes/internal/store"
	"github.com/pauljones0/swapThemes/internal/suggest"
	"github.com/pauljones0/swapThemes/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCycle struct {
	mock.Mock
}

func (m *MockCycle) Run(ctx context.Context) (*CycleReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CycleReport), args.Error(1)
}

type handlerDeps struct {
	cycle  *MockCycle
	store  *testutils.MockThemeStore
	runner *testutils.MockRunner
}

func newTestRouter(d handlerDeps, secret string) http.Handler {
	svc := NewService(d.store, d.runner, []string{"FR"})
	h := NewHandler(d.cycle, svc, NewActiveThemeCache(d.store, time.Minute), NewThemeLimiter(30*time.Second, 1), secret)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func newHandlerDeps() handlerDeps {
	return handlerDeps{
		cycle:  new(MockCycle),
		store:  new(testutils.MockThemeStore),
		runner: new(testutils.MockRunner),
	}
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleCronWeekly(t *testing.T) {
	t.Run("Rejects missing secret", func(t *testing.T) {
		d := newHandlerDeps()
		rec := do(t, newTestRouter(d, "s3cret"), http.MethodPost, "/cron/weekly", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
		d.cycle.AssertNotCalled(t, "Run", mock.Anything)
	})

	t.Run("Runs cycle", func(t *testing.T) {
		d := newHandlerDeps()
		d.cycle.On("Run", mock.Anything).Return(&CycleReport{
			Theme:  store.Theme{ID: "t1", Title: "Lamps", Active: true},
			Result: suggest.Result{ThemeID: "t1", Outcome: suggest.OutcomeCompleted, Stats: suggest.Stats{Created: 2}},
		}, nil)

		rec := do(t, newTestRouter(d, "s3cret"), http.MethodPost, "/cron/weekly", http.Header{"X-Cron-Secret": {"s3cret"}})

		require.Equal(t, http.StatusCreated, rec.Code)
		var report CycleReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "t1", report.Theme.ID)
		assert.Equal(t, 2, report.Result.Stats.Created)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("Cycle failure", func(t *testing.T) {
		d := newHandlerDeps()
		d.cycle.On("Run", mock.Anything).Return(nil, errors.New("failed to create theme: quota"))

		rec := do(t, newTestRouter(d, ""), http.MethodPost, "/cron/weekly", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "internal", body.Code)
		assert.NotContains(t, body.Error, "quota")
	})
}

func TestHandleActiveTheme(t *testing.T) {
	d := newHandlerDeps()
	d.store.On("GetActiveTheme", mock.Anything).Return(nil, store.ErrNotFound).Once()
	d.store.On("GetActiveTheme", mock.Anything).Return(&store.Theme{ID: "t1", Title: "Lamps"}, nil).Once()
	r := newTestRouter(d, "")

	rec := do(t, r, http.MethodGet, "/themes/active", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/themes/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var th store.Theme
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &th))
	assert.Equal(t, "Lamps", th.Title)
}

func TestHandleGenerate(t *testing.T) {
	d := newHandlerDeps()
	d.store.On("GetTheme", mock.Anything, "t1").Return(&store.Theme{ID: "t1", Title: "Lamps", Countries: []string{"SE"}}, nil)
	d.store.On("GetTheme", mock.Anything, "missing").Return(nil, store.ErrNotFound)
	d.runner.On("Run", mock.Anything, mock.Anything).Return(suggest.Result{ThemeID: "t1", Outcome: suggest.OutcomeCompleted, SuggestionIDs: []string{"s1"}}, nil)
	r := newTestRouter(d, "")

	rec := do(t, r, http.MethodPost, "/themes/t1/suggestions/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res suggest.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{"s1"}, res.SuggestionIDs)

	rec = do(t, r, http.MethodPost, "/themes/t1/suggestions/generate", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	d.runner.AssertNumberOfCalls(t, "Run", 1)

	rec = do(t, r, http.MethodPost, "/themes/missing/suggestions/generate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListSuggestions(t *testing.T) {
	d := newHandlerDeps()
	d.store.On("GetTheme", mock.Anything, "t1").Return(&store.Theme{ID: "t1"}, nil)
	d.store.On("ListThemeSuggestions", mock.Anything, "t1", 2, "c0").
		Return([]store.Suggestion{{ID: "s1", Name: "Lamp"}, {ID: "s2", Name: "Vase"}}, "s2", nil)
	r := newTestRouter(d, "")

	rec := do(t, r, http.MethodGet, "/themes/t1/suggestions?limit=2&cursor=c0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page SuggestionPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "s2", page.NextCursor)

	for _, bad := range []string{"0", "-1", "abc", "101"} {
		rec = do(t, r, http.MethodGet, "/themes/t1/suggestions?limit="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", bad)
	}
}

func TestHandleDeleteSuggestion(t *testing.T) {
	d := newHandlerDeps()
	d.store.On("DeleteSuggestion", mock.Anything, "s1").Return(nil)
	d.store.On("DeleteSuggestion", mock.Anything, "gone").Return(store.ErrNotFound)
	r := newTestRouter(d, "")

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/suggestions/s1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/suggestions/gone", nil).Code)
}
