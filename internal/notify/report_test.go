package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/swapThemes/internal/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendEmbed(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (string, error) {
	args := m.Called(ctx, channelID, content, embed)
	return args.String(0), args.Error(1)
}

func TestBuildRunEmbed(t *testing.T) {
	tests := []struct {
		name       string
		report     RunReport
		wantColor  int
		wantFields int
	}{
		{
			name: "Clean run",
			report: RunReport{
				ThemeTitle: "Garden tools",
				Result: suggest.Result{
					Outcome:        suggest.OutcomeCompleted,
					Stats:          suggest.Stats{Created: 4, Duplicates: 1},
					CategoryCounts: map[string]int{"tools": 3, "garden": 1},
				},
				PhotoURL: "https://img.example/cover.jpg",
			},
			wantColor:  0x2ECC71,
			wantFields: 4,
		},
		{
			name: "Completed with save errors and fallback theme",
			report: RunReport{
				ThemeTitle:    "Everyday objects",
				FallbackTheme: true,
				Result: suggest.Result{
					Outcome: suggest.OutcomeCompleted,
					Stats:   suggest.Stats{Created: 1, Errors: 2},
				},
			},
			wantColor:  0xFFA500,
			wantFields: 5,
		},
		{
			name:       "Skipped",
			report:     RunReport{ThemeTitle: "Radios", Result: suggest.Result{Outcome: suggest.OutcomeSkipped}},
			wantColor:  0x808080,
			wantFields: 3,
		},
		{
			name:       "Invalid response",
			report:     RunReport{ThemeTitle: "Radios", Result: suggest.Result{Outcome: suggest.OutcomeInvalidResponse}},
			wantColor:  0xFF0000,
			wantFields: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildRunEmbed(tt.report)
			assert.Equal(t, "🗓️ "+tt.report.ThemeTitle, got.Title)
			assert.Equal(t, tt.wantColor, got.Color)
			assert.Len(t, got.Fields, tt.wantFields)
			assert.Contains(t, got.Description, tt.report.Result.Outcome)
			if tt.report.PhotoURL != "" {
				require.NotNil(t, got.Thumbnail)
				assert.Equal(t, tt.report.PhotoURL, got.Thumbnail.URL)
			}
		})
	}

	t.Run("Categories are sorted", func(t *testing.T) {
		got := BuildRunEmbed(RunReport{Result: suggest.Result{
			Outcome:        suggest.OutcomeCompleted,
			CategoryCounts: map[string]int{"toys": 1, "kitchen": 2},
		}})
		assert.Equal(t, "kitchen: 2, toys: 1", got.Fields[len(got.Fields)-1].Value)
	})
}

func TestDiscordNotifyRun(t *testing.T) {
	sender := new(MockSender)
	sender.On("SendEmbed", mock.Anything, "chan-1", "", mock.AnythingOfType("*discordgo.MessageEmbed")).Return("msg-1", nil).Once()

	err := NewDiscord(sender, "chan-1").NotifyRun(context.Background(), RunReport{ThemeTitle: "Radios"})
	require.NoError(t, err)
	sender.AssertExpectations(t)

	failing := new(MockSender)
	failing.On("SendEmbed", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("discord down"))
	assert.Error(t, NewDiscord(failing, "chan-1").NotifyRun(context.Background(), RunReport{}))

	assert.NoError(t, Noop{}.NotifyRun(context.Background(), RunReport{}))
}

func TestClientSendEmbed(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/channels/chan-1/messages", r.URL.Path)
			assert.Equal(t, "Bot token-1", r.Header.Get("Authorization"))

			body, _ := io.ReadAll(r.Body)
			var msg discordgo.MessageSend
			require.NoError(t, json.Unmarshal(body, &msg))
			require.Len(t, msg.Embeds, 1)
			assert.Equal(t, "Report", msg.Embeds[0].Title)

			w.Write([]byte(`{"id":"msg-42"}`))
		}))
		defer srv.Close()

		c := NewClient("token-1")
		c.baseURL = srv.URL
		id, err := c.SendEmbed(context.Background(), "chan-1", "", &discordgo.MessageEmbed{Title: "Report"})
		require.NoError(t, err)
		assert.Equal(t, "msg-42", id)
	})

	t.Run("API error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"Missing Access"}`))
		}))
		defer srv.Close()

		c := NewClient("token-1")
		c.baseURL = srv.URL
		_, err := c.SendEmbed(context.Background(), "chan-1", "", &discordgo.MessageEmbed{Title: "Report"})
		assert.ErrorContains(t, err, "403")
	})

	t.Run("Honors context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		_, err := NewClient("token-1").SendEmbed(ctx, "chan-1", "", &discordgo.MessageEmbed{})
		assert.Error(t, err)
	})
}
