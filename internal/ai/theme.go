package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pauljones0/swapThemes/internal/logger"
)

const (
	maxThemeTitle       = 60
	maxThemeDescription = 280
)

// ThemeIdea is the structured response we want from Gemini when proposing a weekly theme.
type ThemeIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PhotoQuery  string `json:"photoQuery"`
}

// FallbackThemeIdea is used whenever no usable idea comes back from the model.
var FallbackThemeIdea = ThemeIdea{
	Title:       "Everyday objects worth a second life",
	Description: "Bring the things you no longer use and find something that deserves a new home.",
	PhotoQuery:  "vintage objects",
}

// GenerateThemeIdea asks the model for this week's theme, avoiding the recent titles.
func (c *Client) GenerateThemeIdea(ctx context.Context, recentTitles []string) (*ThemeIdea, error) {
	recent := "- (none)"
	if len(recentTitles) > 0 {
		recent = "- " + strings.Join(recentTitles, "\n- ")
	}
	prompt := fmt.Sprintf(ThemeIdeaPromptTemplate, ThemeIdeaSystemInstruction, recent)

	raw, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseThemeIdea(ctx, raw)
}

func parseThemeIdea(ctx context.Context, raw string) (*ThemeIdea, error) {
	str := strings.TrimSpace(raw)
	// Some models still wrap JSON in markdown despite the MIME type.
	str = strings.TrimPrefix(str, "```json")
	str = strings.TrimPrefix(str, "```")
	str = strings.TrimSuffix(str, "```")

	var idea ThemeIdea
	if err := json.Unmarshal([]byte(str), &idea); err != nil {
		logger.Warn(ctx, "Failed to unmarshal theme idea", "raw", raw)
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}

	idea.Title = strings.TrimSpace(idea.Title)
	idea.Description = strings.TrimSpace(idea.Description)
	idea.PhotoQuery = strings.TrimSpace(idea.PhotoQuery)
	if idea.Title == "" {
		return nil, fmt.Errorf("theme idea has no title")
	}
	if utf8.RuneCountInString(idea.Title) > maxThemeTitle {
		return nil, fmt.Errorf("theme title longer than %d characters", maxThemeTitle)
	}
	if utf8.RuneCountInString(idea.Description) > maxThemeDescription {
		return nil, fmt.Errorf("theme description longer than %d characters", maxThemeDescription)
	}
	if idea.PhotoQuery == "" {
		idea.PhotoQuery = idea.Title
	}
	return &idea, nil
}
