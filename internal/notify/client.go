package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

const discordAPI = "https://discord.com/api/v10"

// Client is a minimal wrapper around the Discord REST API for posting operator reports.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient initializes a new Discord REST client.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    discordAPI,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "DiscordBot (https://github.com/pauljones0/swapThemes, 1.0.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("discord API error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// SendEmbed sends a message with an Embed to a channel and returns the created Message ID.
func (c *Client) SendEmbed(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (string, error) {
	payload := discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/channels/"+channelID+"/messages", payload)
	if err != nil {
		return "", err
	}

	var msg discordgo.Message
	if err := json.Unmarshal(resp, &msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}
