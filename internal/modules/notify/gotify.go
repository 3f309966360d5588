// Package notify pushes portfolio movement alerts to a Gotify server.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GotifyClient sends messages to a self-hosted Gotify instance.
type GotifyClient struct {
	client *http.Client
	log    zerolog.Logger
}

// NewGotifyClient creates a new Gotify push client.
func NewGotifyClient(log zerolog.Logger) *GotifyClient {
	return &GotifyClient{
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("client", "gotify").Logger(),
	}
}

// Send pushes one message. serverURL is the Gotify base URL; token is an
// application token.
func (c *GotifyClient) Send(serverURL, token, title, message string, priority int) error {
	if serverURL == "" || token == "" {
		return fmt.Errorf("gotify server URL and token are required")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title":    title,
		"message":  message,
		"priority": priority,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal gotify payload: %w", err)
	}

	url := strings.TrimRight(serverURL, "/") + "/message?token=" + token
	resp, err := c.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gotify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gotify returned status %d", resp.StatusCode)
	}

	c.log.Debug().Str("title", title).Msg("Notification sent")
	return nil
}
