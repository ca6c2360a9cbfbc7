package processor

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pauljones0/swapThemes/internal/logger"
)

// CycleRunner runs one weekly cycle.
type CycleRunner interface {
	Run(ctx context.Context) (*CycleReport, error)
}

// Handler serves the cron, manual trigger and listing endpoints.
type Handler struct {
	cycle      CycleRunner
	service    *Service
	active     *ActiveThemeCache
	limiter    *ThemeLimiter
	cronSecret string
}

func NewHandler(cycle CycleRunner, service *Service, active *ActiveThemeCache, limiter *ThemeLimiter, cronSecret string) *Handler {
	return &Handler{
		cycle:      cycle,
		service:    service,
		active:     active,
		limiter:    limiter,
		cronSecret: cronSecret,
	}
}

// Routes mounts the handlers on r.
func (h *Handler) Routes(r chi.Router) {
	r.Use(requestID)
	r.Post("/cron/weekly", h.HandleCronWeekly)
	r.Get("/themes/active", h.HandleActiveTheme)
	r.Post("/themes/{themeID}/suggestions/generate", h.HandleGenerate)
	r.Get("/themes/{themeID}/suggestions", h.HandleListSuggestions)
	r.Delete("/suggestions/{suggestionID}", h.HandleDeleteSuggestion)
}

// requestID tags the request context with X-Request-ID, generating one when absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// HandleCronWeekly is the endpoint struck by Cloud Scheduler once a week.
func (h *Handler) HandleCronWeekly(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Cron-Secret")), []byte(h.cronSecret)) != 1 {
		writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "missing or invalid cron secret")
		return
	}

	report, err := h.cycle.Run(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.active.Invalidate()
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) HandleActiveTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.active.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

// HandleGenerate manually triggers a suggestion run for one theme.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	themeID := chi.URLParam(r, "themeID")
	if !h.limiter.Allow(themeID) {
		w.Header().Set("Retry-After", strconv.Itoa(int(h.limiter.every.Seconds())))
		writeStatus(w, r, http.StatusTooManyRequests, "rate_limited", "a run for this theme was triggered recently")
		return
	}

	ctx := logger.WithThemeID(r.Context(), themeID)
	res, err := h.service.GenerateForTheme(ctx, themeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleListSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeStatus(w, r, http.StatusBadRequest, "invalid_argument", fmt.Sprintf("limit must be between 1 and %d", MaxPageSize))
			return
		}
		limit = n
	}

	page, err := h.service.ListSuggestions(r.Context(), chi.URLParam(r, "themeID"), limit, q.Get("cursor"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) HandleDeleteSuggestion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSuggestion(r.Context(), chi.URLParam(r, "suggestionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
