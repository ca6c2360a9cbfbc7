package suggest

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cand(name, country, era, category string) Candidate {
	return Candidate{
		Name:             name,
		Category:         category,
		Country:          country,
		Era:              era,
		EcoReason:        "reuse",
		RepairDifficulty: RepairLow,
		Popularity:       3,
	}
}

func names(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestFilter_CountryAndEraQuota(t *testing.T) {
	batch := []Candidate{
		cand("Radio", "FR", "1980s", "ELECTRONICS"),
		cand("Walkman", "FR", "1980s", "ELECTRONICS"),
		cand("Minitel", "FR", "1980s", "ELECTRONICS"),
	}

	res := Filter(batch, KeySet{}, Quotas{MaxPerCountry: 2, MaxPerEra: 2})

	assert.Equal(t, []string{"Radio", "Walkman"}, names(res.Accepted))
	assert.Equal(t, Stats{Created: 2, DiversityFiltered: 1}, res.Stats)
}

func TestFilter_WithinBatchDuplicate(t *testing.T) {
	batch := []Candidate{
		cand("Radio", "FR", "1980s", "ELECTRONICS"),
		cand("Radio", "FR", "1980s", "ELECTRONICS"),
	}

	res := Filter(batch, KeySet{}, DefaultQuotas)

	assert.Len(t, res.Accepted, 1)
	assert.Equal(t, Stats{Created: 1, Duplicates: 1}, res.Stats)
}

func TestFilter_WithinBatchDuplicateDiffersOnlyInCase(t *testing.T) {
	batch := []Candidate{
		cand("Radio", "FR", "1980s", "ELECTRONICS"),
		cand(" radio ", "fr", "1980S", "electronics"),
	}

	res := Filter(batch, KeySet{}, Quotas{MaxPerCountry: 5, MaxPerEra: 5})

	assert.Equal(t, []string{"Radio"}, names(res.Accepted))
	assert.Equal(t, 1, res.Stats.Duplicates)
}

func TestFilter_HistoryDuplicate(t *testing.T) {
	history := KeySet{}
	history.Add(CanonicalKey("Radio", "FR", "1980s", "ELECTRONICS"))

	batch := []Candidate{
		cand("RADIO", "FR", "1980s", "ELECTRONICS"),
		cand("Walkman", "JP", "1980s", "ELECTRONICS"),
	}

	res := Filter(batch, history, DefaultQuotas)

	assert.Equal(t, []string{"Walkman"}, names(res.Accepted))
	assert.Equal(t, Stats{Created: 1, Duplicates: 1}, res.Stats)
	assert.Len(t, history, 1, "history must not be mutated")
}

func TestFilter_DuplicateCheckedBeforeQuota(t *testing.T) {
	history := KeySet{}
	history.Add(CanonicalKey("Minitel", "FR", "1980s", "ELECTRONICS"))

	batch := []Candidate{
		cand("Radio", "FR", "1980s", "ELECTRONICS"),
		cand("Walkman", "FR", "1990s", "ELECTRONICS"),
		cand("Minitel", "FR", "1980s", "ELECTRONICS"),
	}

	res := Filter(batch, history, Quotas{MaxPerCountry: 2, MaxPerEra: 2})

	assert.Equal(t, Stats{Created: 2, Duplicates: 1}, res.Stats)
}

func TestFilter_AbsentEraOnlyCountsCountry(t *testing.T) {
	batch := []Candidate{
		cand("Teapot", "JP", "", "KITCHEN"),
		cand("Kettle", "JP", "", "KITCHEN"),
		cand("Wok", "JP", "", "KITCHEN"),
		cand("Grill", "US", "", "KITCHEN"),
	}

	res := Filter(batch, KeySet{}, Quotas{MaxPerCountry: 2, MaxPerEra: 1})

	assert.Equal(t, []string{"Teapot", "Kettle", "Grill"}, names(res.Accepted))
	assert.Equal(t, 1, res.Stats.DiversityFiltered)
}

func TestFilter_EraQuotaAcrossCountries(t *testing.T) {
	batch := []Candidate{
		cand("Radio", "FR", "1980s", "ELECTRONICS"),
		cand("Walkman", "JP", "1980s", "ELECTRONICS"),
		cand("Boombox", "US", "1980s", "ELECTRONICS"),
		cand("Gramophone", "US", "1920s", "ELECTRONICS"),
	}

	res := Filter(batch, KeySet{}, Quotas{MaxPerCountry: 2, MaxPerEra: 2})

	assert.Equal(t, []string{"Radio", "Walkman", "Gramophone"}, names(res.Accepted))
	assert.Equal(t, 1, res.Stats.DiversityFiltered)
}

func TestFilter_CategoryIsNotLimited(t *testing.T) {
	batch := []Candidate{
		cand("Radio", "FR", "1980s", "ELECTRONICS"),
		cand("Walkman", "JP", "1990s", "ELECTRONICS"),
		cand("Boombox", "US", "1970s", "ELECTRONICS"),
	}

	res := Filter(batch, KeySet{}, Quotas{MaxPerCountry: 1, MaxPerEra: 1})

	assert.Len(t, res.Accepted, 3)
	assert.Equal(t, map[string]int{"electronics": 3}, res.CategoryCounts)
}

func TestFilter_FirstSeenWins(t *testing.T) {
	popular := cand("Vespa", "IT", "1960s", "VEHICLES")
	popular.Popularity = 5
	batch := []Candidate{
		cand("Moka pot", "IT", "1960s", "KITCHEN"),
		cand("Typewriter", "IT", "1960s", "OFFICE"),
		popular,
	}

	res := Filter(batch, KeySet{}, Quotas{MaxPerCountry: 2, MaxPerEra: 2})

	assert.Equal(t, []string{"Moka pot", "Typewriter"}, names(res.Accepted))
}

func TestFilter_EmptyBatch(t *testing.T) {
	res := Filter(nil, KeySet{}, DefaultQuotas)
	assert.Empty(t, res.Accepted)
	assert.Equal(t, Stats{}, res.Stats)
}

// Randomized batches must keep the quota and stats invariants regardless of order.
func TestFilter_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	countries := []string{"FR", "IT", "JP", "US"}
	eras := []string{"", "1960s", "1970s", "1980s"}
	categories := []string{"KITCHEN", "TOYS", "ELECTRONICS"}

	for run := 0; run < 200; run++ {
		n := rng.Intn(40)
		batch := make([]Candidate, n)
		history := KeySet{}
		for i := range batch {
			batch[i] = cand(
				fmt.Sprintf("item-%d", rng.Intn(15)),
				countries[rng.Intn(len(countries))],
				eras[rng.Intn(len(eras))],
				categories[rng.Intn(len(categories))],
			)
			if rng.Intn(5) == 0 {
				history.Add(batch[i].Key())
			}
		}
		q := Quotas{MaxPerCountry: 1 + rng.Intn(3), MaxPerEra: 1 + rng.Intn(3)}

		res := Filter(batch, history, q)

		s := res.Stats
		require.Equal(t, n, len(res.Accepted)+s.Duplicates+s.DiversityFiltered, "stats must cover every candidate")
		require.Equal(t, len(res.Accepted), s.Created)

		perCountry := map[string]int{}
		perEra := map[string]int{}
		keys := KeySet{}
		for _, c := range res.Accepted {
			require.False(t, history.Has(c.Key()), "history duplicate accepted: %+v", c)
			require.False(t, keys.Has(c.Key()), "within-batch duplicate accepted: %+v", c)
			keys.Add(c.Key())
			perCountry[c.Country]++
			if c.Era != "" {
				perEra[c.Era]++
			}
		}
		for country, count := range perCountry {
			require.LessOrEqual(t, count, q.MaxPerCountry, "country %s over quota", country)
		}
		for era, count := range perEra {
			require.LessOrEqual(t, count, q.MaxPerEra, "era %s over quota", era)
		}
	}
}
