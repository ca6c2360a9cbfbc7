package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/swapThemes/internal/suggest"
)

// RunReport summarizes one weekly cycle for operators.
type RunReport struct {
	ThemeID       string
	ThemeTitle    string
	PhotoURL      string
	FallbackTheme bool
	Result        suggest.Result
	Took          time.Duration
	FinishedAt    time.Time
}

// Notifier delivers run reports.
type Notifier interface {
	NotifyRun(ctx context.Context, r RunReport) error
}

// EmbedSender is the part of Client the Discord notifier needs.
type EmbedSender interface {
	SendEmbed(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (string, error)
}

// Discord posts run reports to a single operator channel.
type Discord struct {
	sender    EmbedSender
	channelID string
}

func NewDiscord(sender EmbedSender, channelID string) *Discord {
	return &Discord{sender: sender, channelID: channelID}
}

func (d *Discord) NotifyRun(ctx context.Context, r RunReport) error {
	_, err := d.sender.SendEmbed(ctx, d.channelID, "", BuildRunEmbed(r))
	return err
}

// Noop drops reports; used when no Discord channel is configured.
type Noop struct{}

func (Noop) NotifyRun(context.Context, RunReport) error { return nil }

// BuildRunEmbed crafts the operator embed for a finished cycle.
func BuildRunEmbed(r RunReport) *discordgo.MessageEmbed {
	s := r.Result.Stats
	embed := &discordgo.MessageEmbed{
		Title:       "🗓️ " + r.ThemeTitle,
		Description: fmt.Sprintf("Suggestion run **%s**", r.Result.Outcome),
		Color:       outcomeColor(r.Result.Outcome, s),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "✅ Created", Value: fmt.Sprint(s.Created), Inline: true},
			{Name: "♻️ Duplicates", Value: fmt.Sprint(s.Duplicates), Inline: true},
			{Name: "🌍 Diversity filtered", Value: fmt.Sprint(s.DiversityFiltered), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("theme %s • took %s", r.ThemeID, r.Took.Round(time.Millisecond)),
		},
	}
	if !r.FinishedAt.IsZero() {
		embed.Timestamp = r.FinishedAt.Format(time.RFC3339)
	}

	if s.Errors > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "⚠️ Save errors",
			Value:  fmt.Sprint(s.Errors),
			Inline: true,
		})
	}
	if cats := formatCategories(r.Result.CategoryCounts); cats != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🏷️ Categories",
			Value: cats,
		})
	}
	if r.FallbackTheme {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "ℹ️ Theme",
			Value: "Default theme used, idea generation failed.",
		})
	}
	if r.PhotoURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: r.PhotoURL}
	}
	return embed
}

func formatCategories(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}

// outcomeColor returns a Discord hex color for the run outcome.
func outcomeColor(outcome string, s suggest.Stats) int {
	switch {
	case outcome == suggest.OutcomeCompleted && s.Errors == 0 && s.Created > 0:
		return 0x2ECC71 // Green
	case outcome == suggest.OutcomeCompleted:
		return 0xFFA500 // Orange
	case outcome == suggest.OutcomeSkipped:
		return 0x808080 // Grey
	default:
		return 0xFF0000 // Red
	}
}
