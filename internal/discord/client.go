// internal/discord/client.go
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/adosevents/notify-backend/internal/errors"
)

// Client is the Discord surface the dispatch service depends on: resolving a
// user's display name and delivering a direct message.
type Client interface {
	GetUser(ctx context.Context, discordID string) (string, error)
	SendDM(ctx context.Context, discordID, content string) error
}

// APIClient talks to the Discord REST API with a bot token. A client built
// with an empty token never touches the network; every call fails with the
// corresponding unavailable error so dispatch degrades instead of crashing.
type APIClient struct {
	token   string
	baseURL string
	httpc   *http.Client
	log     *logrus.Logger
}

func NewAPIClient(token, baseURL string, log *logrus.Logger) *APIClient {
	return &APIClient{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

type userResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

type dmChannelResponse struct {
	ID string `json:"id"`
}

// GetUser fetches a user's display name, preferring the global display name
// over the username.
func (c *APIClient) GetUser(ctx context.Context, discordID string) (string, error) {
	if c.token == "" {
		return "", appErrors.NewIdentityUnavailable("not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+discordID, nil)
	if err != nil {
		return "", appErrors.NewIdentityUnavailable(err.Error())
	}
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.WithField("discord_id", discordID).Errorf("Discord user fetch error: %v", err)
		return "", appErrors.NewIdentityUnavailable(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		c.log.WithFields(logrus.Fields{
			"discord_id": discordID,
			"status":     resp.StatusCode,
		}).Errorf("Failed to fetch Discord user: %s", string(body))
		return "", appErrors.NewIdentityUnavailable("lookup failed")
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", appErrors.NewIdentityUnavailable(err.Error())
	}

	if user.GlobalName != "" {
		return user.GlobalName, nil
	}
	return user.Username, nil
}

// SendDM opens a DM channel with the recipient and posts one message into it.
func (c *APIClient) SendDM(ctx context.Context, discordID, content string) error {
	if c.token == "" {
		c.log.Warn("Discord bot token not configured, skipping Discord notification")
		return appErrors.NewDeliveryUnavailable()
	}

	channelID, err := c.createDMChannel(ctx, discordID)
	if err != nil {
		return err
	}

	payload, _ := json.Marshal(map[string]string{"content": content})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/channels/"+channelID+"/messages", bytes.NewReader(payload))
	if err != nil {
		return appErrors.NewTransmission(err.Error())
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.WithField("discord_id", discordID).Errorf("Discord DM error: %v", err)
		return appErrors.NewTransmission(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		c.log.WithFields(logrus.Fields{
			"discord_id": discordID,
			"status":     resp.StatusCode,
		}).Errorf("Failed to send Discord message: %s", string(body))
		return appErrors.NewTransmission(string(body))
	}
	return nil
}

func (c *APIClient) createDMChannel(ctx context.Context, discordID string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"recipient_id": discordID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/@me/channels", bytes.NewReader(payload))
	if err != nil {
		return "", appErrors.NewChannelCreation(err.Error())
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.WithField("discord_id", discordID).Errorf("Discord DM channel error: %v", err)
		return "", appErrors.NewChannelCreation(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		c.log.WithFields(logrus.Fields{
			"discord_id": discordID,
			"status":     resp.StatusCode,
		}).Errorf("Failed to create DM channel: %s", string(body))
		return "", appErrors.NewChannelCreation(string(body))
	}

	var channel dmChannelResponse
	if err := json.NewDecoder(resp.Body).Decode(&channel); err != nil {
		return "", appErrors.NewChannelCreation(err.Error())
	}
	if channel.ID == "" {
		return "", appErrors.NewChannelCreation("channel response missing id")
	}
	return channel.ID, nil
}

var _ Client = (*APIClient)(nil)
