// Package metrics holds the Prometheus collectors for suggestion generation.
//
// Label values are drawn from small fixed sets (outcomes, stat kinds, HTTP routes) so
// cardinality stays bounded.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// pipelineRuns counts suggestion pipeline runs by outcome.
	pipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_pipeline_runs_total",
			Help: "Suggestion pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)

	// candidates counts candidates by what happened to them.
	candidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_candidates_total",
			Help: "Suggestion candidates by result (created, duplicate, diversity_filtered, error).",
		},
		[]string{"result"},
	)

	pipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "suggestion_pipeline_duration_seconds",
			Help:    "Wall time of one suggestion pipeline run.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(pipelineRuns, candidates, pipelineDuration, httpReqs, httpLat)
}

// ObserveRun records one finished pipeline run.
func ObserveRun(outcome string, created, duplicates, diversityFiltered, errs int, took time.Duration) {
	pipelineRuns.WithLabelValues(outcome).Inc()
	candidates.WithLabelValues("created").Add(float64(created))
	candidates.WithLabelValues("duplicate").Add(float64(duplicates))
	candidates.WithLabelValues("diversity_filtered").Add(float64(diversityFiltered))
	candidates.WithLabelValues("error").Add(float64(errs))
	pipelineDuration.Observe(took.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests and latency per chi route pattern. Unmatched paths are
// reported as "unmatched" to avoid unbounded labels.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		httpReqs.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpLat.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
