package suggest

// FilterResult is the outcome of one Filter pass.
type FilterResult struct {
	Accepted []Candidate
	Stats    Stats
	// CategoryCounts is bookkeeping only; category never gates acceptance.
	CategoryCounts map[string]int
}

// Filter applies dedup and per-country/per-era quotas in a single greedy pass over the
// candidates, in the order given. The first candidate to reach a quota wins.
//
// Keys of accepted candidates join the lookup set as the pass goes, so the same object
// emitted twice in one response is accepted once. history itself is left untouched.
//
// Stats.Created is len(Accepted); callers adjust it once persistence has run.
func Filter(candidates []Candidate, history KeySet, q Quotas) FilterResult {
	seen := make(KeySet, len(history)+len(candidates))
	for k := range history {
		seen.Add(k)
	}

	countryCount := make(map[string]int)
	eraCount := make(map[string]int)
	res := FilterResult{
		Accepted:       make([]Candidate, 0, len(candidates)),
		CategoryCounts: make(map[string]int),
	}

	for _, c := range candidates {
		key := c.Key()
		if seen.Has(key) {
			res.Stats.Duplicates++
			continue
		}

		country := Normalize(c.Country)
		era := Normalize(c.Era)
		if countryCount[country] >= q.MaxPerCountry {
			res.Stats.DiversityFiltered++
			continue
		}
		if era != "" && eraCount[era] >= q.MaxPerEra {
			res.Stats.DiversityFiltered++
			continue
		}

		res.Accepted = append(res.Accepted, c)
		seen.Add(key)
		countryCount[country]++
		if era != "" {
			eraCount[era]++
		}
		res.CategoryCounts[Normalize(c.Category)]++
	}

	res.Stats.Created = len(res.Accepted)
	return res
}
