// Package app wires configuration into the store, providers and HTTP handlers.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pauljones0/swapThemes/internal/ai"
	"github.com/pauljones0/swapThemes/internal/config"
	"github.com/pauljones0/swapThemes/internal/imagestore"
	"github.com/pauljones0/swapThemes/internal/logger"
	"github.com/pauljones0/swapThemes/internal/metrics"
	"github.com/pauljones0/swapThemes/internal/notify"
	"github.com/pauljones0/swapThemes/internal/photo"
	"github.com/pauljones0/swapThemes/internal/processor"
	"github.com/pauljones0/swapThemes/internal/store"
	"github.com/pauljones0/swapThemes/internal/suggest"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	activeThemeTTL = time.Minute
	manualRunEvery = 30 * time.Second
	manualRunBurst = 1
)

// textGenerator is what the Gemini client and its unavailable variant both provide.
type textGenerator interface {
	suggest.TextGenerator
	processor.IdeaGenerator
}

// App holds the wired dependencies for one process.
type App struct {
	Config   *config.Config
	Store    *store.Store
	Pipeline *suggest.Pipeline
	Cycle    *processor.Cycle
	Service  *processor.Service
	Handler  *processor.Handler

	gemini *ai.Client
}

// New connects to Firestore and picks a real or unavailable variant for every optional provider.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.NewStore(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	a := &App{Config: cfg, Store: st}

	var gen textGenerator = ai.Unavailable{}
	if cfg.GenerationEnabled() {
		client, err := ai.NewClient(ctx, cfg.GeminiAPIKey, ai.Options{
			Model:           cfg.GeminiModel,
			Timeout:         cfg.GenerationTimeout,
			MaxAttempts:     cfg.GenerationMaxAttempts,
			Temperature:     cfg.GenerationTemperature,
			MaxOutputTokens: cfg.GenerationMaxTokens,
		})
		if err != nil {
			st.Close()
			return nil, err
		}
		a.gemini = client
		gen = client
	} else {
		logger.Warn(ctx, "GEMINI_API_KEY not set, suggestion runs will be skipped")
	}

	var photos photo.Searcher = photo.Unavailable{}
	if cfg.PhotoSearchEnabled() {
		photos = photo.NewClient(cfg.UnsplashAccessKey, "")
	}

	var images imagestore.ImageStore = imagestore.Unavailable{}
	if cfg.ImageStoreEnabled() {
		s3, err := imagestore.NewS3Store(imagestore.S3Config{
			Endpoint:      cfg.ImageS3Endpoint,
			Region:        cfg.ImageS3Region,
			AccessKey:     cfg.ImageS3AccessKey,
			SecretKey:     cfg.ImageS3SecretKey,
			Bucket:        cfg.ImageS3Bucket,
			UseSSL:        cfg.ImageS3UseSSL,
			PublicBaseURL: cfg.ImageS3PublicURL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create image store: %w", err)
		}
		images = s3
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.ReportsEnabled() {
		notifier = notify.NewDiscord(notify.NewClient(cfg.DiscordBotToken), cfg.DiscordReportChannelID)
	}

	a.Pipeline = suggest.NewPipeline(gen, st, st, suggest.Options{
		Quotas:   cfg.Quotas(),
		Lookback: cfg.HistoryLookback,
	})
	a.Cycle = processor.NewCycle(st, gen, photos, images, a.Pipeline, notifier, cfg.Countries)
	a.Service = processor.NewService(st, a.Pipeline, cfg.Countries)
	a.Handler = processor.NewHandler(
		a.Cycle,
		a.Service,
		processor.NewActiveThemeCache(st, activeThemeTTL),
		processor.NewThemeLimiter(manualRunEvery, manualRunBurst),
		cfg.CronSecret,
	)
	return a, nil
}

// Router builds the HTTP surface: API routes, health check and Prometheus metrics.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Group(a.Handler.Routes)
	return r
}

// Close releases the Gemini and Firestore clients.
func (a *App) Close() {
	if a.gemini != nil {
		a.gemini.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			logger.Warn(context.Background(), "Failed to close store", "error", err)
		}
	}
}
