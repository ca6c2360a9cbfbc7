package suggest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxTags is the number of tags kept per candidate. Longer lists are cut, not rejected.
const MaxTags = 8

var schema = validator.New(validator.WithRequiredStructEnabled())

type responseEnvelope struct {
	Items *[]Candidate `json:"items"`
}

// Validate parses raw model output into candidates. The batch is fail-closed: a single bad
// item rejects the whole response. The only correction applied is truncating tags.
func Validate(raw string) ([]Candidate, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, invalidResponse(raw, "empty response", nil)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var env responseEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, invalidResponse(raw, "json parse error", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, invalidResponse(raw, "trailing data after json object", nil)
	}

	if env.Items == nil {
		return nil, invalidResponse(raw, `missing "items" array`, nil)
	}
	items := *env.Items
	if len(items) > MaxItems {
		return nil, invalidResponse(raw, fmt.Sprintf("%d items exceeds the limit of %d", len(items), MaxItems), nil)
	}

	out := make([]Candidate, 0, len(items))
	for i, item := range items {
		item = clean(item)
		if err := schema.Struct(item); err != nil {
			return nil, invalidResponse(raw, fmt.Sprintf("items[%d]: %s", i, describe(err)), err)
		}
		out = append(out, item)
	}
	return out, nil
}

// clean trims every text field and cuts tags to MaxTags.
func clean(c Candidate) Candidate {
	c.Name = strings.TrimSpace(c.Name)
	c.Category = strings.TrimSpace(c.Category)
	c.Country = strings.TrimSpace(c.Country)
	c.Era = strings.TrimSpace(c.Era)
	c.Materials = strings.TrimSpace(c.Materials)
	c.EcoReason = strings.TrimSpace(c.EcoReason)
	c.RepairDifficulty = strings.TrimSpace(c.RepairDifficulty)
	c.PhotoRef = strings.TrimSpace(c.PhotoRef)

	if len(c.Tags) > 0 {
		n := min(len(c.Tags), MaxTags)
		tags := make([]string, n)
		for i := range n {
			tags[i] = strings.TrimSpace(c.Tags[i])
		}
		c.Tags = tags
	}
	return c
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// stripCodeFence removes a ```json ... ``` or ``` ... ``` wrapper. Some models add one
// even when asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		tag := strings.TrimSpace(s[:i])
		if tag == "" || strings.EqualFold(tag, "json") {
			s = s[i+1:]
		}
	} else if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Marshal renders candidates in the response schema Validate accepts.
func Marshal(items []Candidate) ([]byte, error) {
	if items == nil {
		items = []Candidate{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(responseEnvelope{Items: &items}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
