package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pauljones0/swapThemes/internal/logger"
	"github.com/pauljones0/swapThemes/internal/suggest"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	themesCollection      = "themes"
	suggestionsCollection = "suggestions"
	runsCollection        = "generation_runs"

	// KeepRuns is how many generation run records TrimOldRuns leaves behind.
	KeepRuns = 500
	// Firestore batches are limited to 500 operations.
	maxBatchOps = 500
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// Store represents a connection to the Firestore database.
type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// Theme is the weekly theme suggestions are generated for. At most one theme is active.
type Theme struct {
	ID          string    `firestore:"-" json:"id"`
	Title       string    `firestore:"title" json:"title"`
	Description string    `firestore:"description" json:"description"`
	Countries   []string  `firestore:"countries" json:"countries"`
	PhotoID     string    `firestore:"photo_id,omitempty" json:"photoId,omitempty"`
	PhotoURL    string    `firestore:"photo_url,omitempty" json:"photoUrl,omitempty"`
	Active      bool      `firestore:"active" json:"active"`
	StartsAt    time.Time `firestore:"starts_at" json:"startsAt"`
	EndsAt      time.Time `firestore:"ends_at" json:"endsAt"`
	CreatedAt   time.Time `firestore:"created_at" json:"createdAt"`
}

// Suggestion is an accepted candidate as persisted, without the raw prompt and response.
type Suggestion struct {
	ID               string    `firestore:"-" json:"id"`
	ThemeID          string    `firestore:"theme_id" json:"themeId"`
	RunID            string    `firestore:"run_id" json:"runId"`
	Name             string    `firestore:"name" json:"name"`
	Category         string    `firestore:"category" json:"category"`
	Country          string    `firestore:"country" json:"country"`
	Era              string    `firestore:"era,omitempty" json:"era,omitempty"`
	Materials        string    `firestore:"materials,omitempty" json:"materials,omitempty"`
	EcoReason        string    `firestore:"eco_reason" json:"ecoReason"`
	RepairDifficulty string    `firestore:"repair_difficulty" json:"repairDifficulty"`
	Popularity       int       `firestore:"popularity" json:"popularity"`
	Tags             []string  `firestore:"tags" json:"tags"`
	PhotoRef         string    `firestore:"photo_ref,omitempty" json:"photoRef,omitempty"`
	CanonicalHash    string    `firestore:"canonical_hash" json:"canonicalHash"`
	Model            string    `firestore:"model" json:"model"`
	PromptHash       string    `firestore:"prompt_hash" json:"promptHash"`
	CreatedAt        time.Time `firestore:"created_at" json:"createdAt"`
}

// GenerationRun is the audit record of one pipeline run, including the raw prompt/response pair.
type GenerationRun struct {
	ID                string    `firestore:"-"`
	ThemeID           string    `firestore:"theme_id"`
	Model             string    `firestore:"model"`
	PromptHash        string    `firestore:"prompt_hash"`
	Prompt            string    `firestore:"prompt"`
	Response          string    `firestore:"response"`
	Outcome           string    `firestore:"outcome"`
	Created           int       `firestore:"created"`
	Duplicates        int       `firestore:"duplicates"`
	DiversityFiltered int       `firestore:"diversity_filtered"`
	Errors            int       `firestore:"errors"`
	CreatedAt         time.Time `firestore:"created_at"`
}

// NewStore initializes a new Firestore client using application default credentials.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Store{client: client, now: time.Now}, nil
}

// Close closes the Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}

func notFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

// --- Themes ---

// CreateTheme stores a new inactive theme and returns its document ID, which is t.ID when set.
// Use ActivateTheme to publish it.
func (s *Store) CreateTheme(ctx context.Context, t Theme) (string, error) {
	t.Active = false
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.ID == "" {
		ref, _, err := s.client.Collection(themesCollection).Add(ctx, t)
		if err != nil {
			return "", err
		}
		return ref.ID, nil
	}
	if _, err := s.client.Collection(themesCollection).Doc(t.ID).Create(ctx, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

// GetTheme retrieves a theme by ID.
func (s *Store) GetTheme(ctx context.Context, themeID string) (*Theme, error) {
	doc, err := s.client.Collection(themesCollection).Doc(themeID).Get(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	var t Theme
	if err := doc.DataTo(&t); err != nil {
		return nil, err
	}
	t.ID = doc.Ref.ID
	return &t, nil
}

// GetActiveTheme retrieves the currently active theme.
func (s *Store) GetActiveTheme(ctx context.Context) (*Theme, error) {
	iter := s.client.Collection(themesCollection).
		Where("active", "==", true).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var t Theme
	if err := doc.DataTo(&t); err != nil {
		return nil, err
	}
	t.ID = doc.Ref.ID
	return &t, nil
}

// RecentThemeTitles returns the titles of the newest themes, newest first.
func (s *Store) RecentThemeTitles(ctx context.Context, limit int) ([]string, error) {
	iter := s.client.Collection(themesCollection).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)

	var titles []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var t Theme
		if err := doc.DataTo(&t); err != nil {
			continue // skip malformed
		}
		titles = append(titles, t.Title)
	}
	return titles, nil
}

// ActivateTheme makes themeID the only active theme. Reading the active themes, clearing them and
// setting the target all happen in one transaction so concurrent activations cannot leave two active.
func (s *Store) ActivateTheme(ctx context.Context, themeID string) error {
	target := s.client.Collection(themesCollection).Doc(themeID)
	active := s.client.Collection(themesCollection).Where("active", "==", true)

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(target); err != nil {
			return notFound(err)
		}

		docs, err := tx.Documents(active).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if doc.Ref.ID == themeID {
				continue
			}
			if err := tx.Update(doc.Ref, []firestore.Update{{Path: "active", Value: false}}); err != nil {
				return err
			}
		}
		return tx.Update(target, []firestore.Update{{Path: "active", Value: true}})
	})
}

// --- Suggestions ---

// SaveSuggestion stores one accepted candidate for a theme and returns its document ID.
func (s *Store) SaveSuggestion(ctx context.Context, themeID, runID string, c suggest.Candidate, p suggest.Provenance) (string, error) {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	ref, _, err := s.client.Collection(suggestionsCollection).Add(ctx, Suggestion{
		ThemeID:          themeID,
		RunID:            runID,
		Name:             c.Name,
		Category:         c.Category,
		Country:          c.Country,
		Era:              c.Era,
		Materials:        c.Materials,
		EcoReason:        c.EcoReason,
		RepairDifficulty: c.RepairDifficulty,
		Popularity:       c.Popularity,
		Tags:             tags,
		PhotoRef:         c.PhotoRef,
		CanonicalHash:    c.Key().Hash(),
		Model:            p.Model,
		PromptHash:       p.PromptHash,
		CreatedAt:        s.now(),
	})
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

// SuggestionsSince lists the identity fields of every suggestion created at or after since, across all themes.
func (s *Store) SuggestionsSince(ctx context.Context, since time.Time) ([]suggest.HistoryEntry, error) {
	iter := s.client.Collection(suggestionsCollection).
		Where("created_at", ">=", since).
		Select("name", "country", "era", "category").
		Documents(ctx)

	var entries []suggest.HistoryEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var sg Suggestion
		if err := doc.DataTo(&sg); err != nil {
			return nil, err
		}
		entries = append(entries, suggest.HistoryEntry{
			Name:     sg.Name,
			Country:  sg.Country,
			Era:      sg.Era,
			Category: sg.Category,
		})
	}
	return entries, nil
}

// ListThemeSuggestions returns up to limit suggestions for a theme, oldest first, starting after the
// suggestion ID in cursor. The returned cursor is empty on the last page.
func (s *Store) ListThemeSuggestions(ctx context.Context, themeID string, limit int, cursor string) ([]Suggestion, string, error) {
	q := s.client.Collection(suggestionsCollection).
		Where("theme_id", "==", themeID).
		OrderBy("created_at", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	if cursor != "" {
		snap, err := s.client.Collection(suggestionsCollection).Doc(cursor).Get(ctx)
		if err != nil {
			return nil, "", notFound(err)
		}
		q = q.StartAfter(snap)
	}

	// One extra document tells us whether another page exists.
	iter := q.Limit(limit + 1).Documents(ctx)
	var out []Suggestion
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, "", err
		}
		var sg Suggestion
		if err := doc.DataTo(&sg); err != nil {
			return nil, "", err
		}
		sg.ID = doc.Ref.ID
		out = append(out, sg)
	}

	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[limit-1].ID
	}
	return out, next, nil
}

// DeleteSuggestion removes a suggestion by its document ID.
func (s *Store) DeleteSuggestion(ctx context.Context, suggestionID string) error {
	ref := s.client.Collection(suggestionsCollection).Doc(suggestionID)
	_, err := ref.Delete(ctx, firestore.Exists)
	return notFound(err)
}

// --- Generation runs ---

// SaveGenerationRun stores the audit record of a pipeline run under its run ID.
func (s *Store) SaveGenerationRun(ctx context.Context, run suggest.RunRecord) error {
	rec := GenerationRun{
		ThemeID:           run.ThemeID,
		Model:             run.Provenance.Model,
		PromptHash:        run.Provenance.PromptHash,
		Prompt:            run.Provenance.Prompt,
		Response:          run.Provenance.Response,
		Outcome:           run.Outcome,
		Created:           run.Stats.Created,
		Duplicates:        run.Stats.Duplicates,
		DiversityFiltered: run.Stats.DiversityFiltered,
		Errors:            run.Stats.Errors,
		CreatedAt:         run.CreatedAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if run.ID == "" {
		_, _, err := s.client.Collection(runsCollection).Add(ctx, rec)
		return err
	}
	_, err := s.client.Collection(runsCollection).Doc(run.ID).Set(ctx, rec)
	return err
}

// TrimOldRuns hard-deletes generation runs older than the KeepRuns most recent ones.
// Raw model responses are large; only recent ones are worth keeping for debugging.
func (s *Store) TrimOldRuns(ctx context.Context) (int, error) {
	iter := s.client.Collection(runsCollection).
		OrderBy("created_at", firestore.Desc).
		Offset(KeepRuns).
		Select().
		Documents(ctx)

	deleted := 0
	batch := s.client.Batch()
	pending := 0

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			// Trimming isn't critical, it'll just try again next cycle.
			logger.Error(ctx, "Error iterating generation runs during trim", "error", err)
			return deleted, err
		}

		batch.Delete(doc.Ref)
		pending++
		if pending == maxBatchOps {
			if _, err := batch.Commit(ctx); err != nil {
				logger.Error(ctx, "Error committing chunked batch delete during trim", "error", err)
				return deleted, err
			}
			deleted += pending
			batch = s.client.Batch()
			pending = 0
		}
	}

	if pending > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			logger.Error(ctx, "Error committing final batch delete during trim", "error", err)
			return deleted, err
		}
		deleted += pending
	}
	if deleted > 0 {
		logger.Info(ctx, "Trimmed old generation runs", "deleted", deleted, "kept", KeepRuns)
	}
	return deleted, nil
}
