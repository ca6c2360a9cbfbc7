package suggest

import (
	"fmt"
	"strings"
)

// MaxItems is the largest batch the model may return.
const MaxItems = 20

const suggestionPromptTemplate = `You are a curator for a second-hand goods exchange platform.
This week's theme is: "%s".

Propose second-hand objects that fit the theme and that people in these countries are likely to own and swap: %s.

Instructions:
1. Return at most %d objects.
2. Include no more than 2 objects per country and per era/decade.
3. Prefer durable, repairable objects that can realistically change hands between neighbours.
4. "ecoReason" explains in one sentence why reusing the object is better than buying new.
5. "repairDifficulty" is one of "low", "medium", "high".
6. "popularity" is an integer from 1 (rare) to 5 (very common).
7. At most 8 tags, each a single short lowercase word.

Respond ONLY with a valid JSON object matching this schema:
{
  "items": [
    {
      "name": "string (max 120 chars)",
      "category": "string (max 50 chars)",
      "country": "string (max 50 chars)",
      "era": "string (max 50 chars, optional)",
      "materials": "string (max 200 chars, optional)",
      "ecoReason": "string (max 240 chars)",
      "repairDifficulty": "low | medium | high",
      "popularity": 1,
      "tags": ["string (max 30 chars)"],
      "photoRef": "string (max 200 chars, optional)"
    }
  ]
}
`

// BuildPrompt renders the generation prompt for a theme. The output depends only on its
// inputs so that prompt hashes are stable between runs.
func BuildPrompt(themeTitle string, countries []string) (string, error) {
	title := strings.TrimSpace(themeTitle)
	if title == "" {
		return "", fmt.Errorf("%w: theme title is empty", ErrInvalidArgument)
	}

	cleaned := make([]string, 0, len(countries))
	for _, c := range countries {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return "", fmt.Errorf("%w: no countries given", ErrInvalidArgument)
	}

	return fmt.Sprintf(suggestionPromptTemplate, title, strings.Join(cleaned, ", "), MaxItems), nil
}
