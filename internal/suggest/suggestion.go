package suggest

// Repair difficulty values accepted from the model.
const (
	RepairLow    = "low"
	RepairMedium = "medium"
	RepairHigh   = "high"
)

// Candidate is one AI-proposed item idea for a theme. Once returned by Validate it is
// never modified; the filter only decides whether it is kept.
type Candidate struct {
	Name             string   `json:"name" validate:"required,max=120"`
	Category         string   `json:"category" validate:"required,max=50"`
	Country          string   `json:"country" validate:"required,max=50"`
	Era              string   `json:"era,omitempty" validate:"max=50"`
	Materials        string   `json:"materials,omitempty" validate:"max=200"`
	EcoReason        string   `json:"ecoReason" validate:"required,max=240"`
	RepairDifficulty string   `json:"repairDifficulty" validate:"required,oneof=low medium high"`
	Popularity       int      `json:"popularity" validate:"min=1,max=5"`
	Tags             []string `json:"tags,omitempty" validate:"max=8,dive,max=30"`
	PhotoRef         string   `json:"photoRef,omitempty" validate:"max=200"`
}

// Key returns the candidate's canonical dedup key.
func (c Candidate) Key() Key {
	return CanonicalKey(c.Name, c.Country, c.Era, c.Category)
}

// Provenance records where a batch of candidates came from. The raw prompt and
// response are kept for auditing only.
type Provenance struct {
	Model      string
	PromptHash string
	Prompt     string
	Response   string
}

// Theme is the subset of a theme the pipeline needs.
type Theme struct {
	ID        string
	Title     string
	Countries []string
}

// Quotas bounds how many accepted suggestions may share a country or an era in one run.
// Category is deliberately not limited.
type Quotas struct {
	MaxPerCountry int
	MaxPerEra     int
}

// DefaultQuotas matches the limits the prompt asks the model to respect.
var DefaultQuotas = Quotas{MaxPerCountry: 2, MaxPerEra: 2}

// Stats summarises one filter/persist pass.
type Stats struct {
	Created           int `json:"created"`
	Duplicates        int `json:"duplicates"`
	DiversityFiltered int `json:"diversityFiltered"`
	Errors            int `json:"errors"`
}
