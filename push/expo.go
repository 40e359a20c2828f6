// Package push delivers notifications to a user's devices through the Expo push
// service and keeps the device token set clean.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/linesmerrill/drynks-api/models"
)

const (
	// ExpoPushURL is the Expo push send endpoint.
	ExpoPushURL = "https://exp.host/--/api/v2/push/send"
	// ExpoBatchLimit is the most messages Expo accepts in one request.
	ExpoBatchLimit = 100
)

// Ticket errors that mean the token will never work again.
const (
	ErrorDeviceNotRegistered = "DeviceNotRegistered"
	ErrorInvalidCredentials  = "InvalidCredentials"
)

const ticketStatusOK = "ok"

// Sender sends one batch and returns one ticket per message, in order.
type Sender interface {
	SendBatch(ctx context.Context, messages []models.ExpoPushMessage) ([]models.PushTicket, error)
}

// ExpoClient is a Sender for the Expo push API.
type ExpoClient struct {
	URL         string
	AccessToken string
	HTTPClient  *http.Client
}

// NewExpoClient returns a client for url, or the public Expo endpoint when url is
// empty. accessToken is only needed when enhanced push security is enabled.
func NewExpoClient(url, accessToken string) *ExpoClient {
	if url == "" {
		url = ExpoPushURL
	}
	return &ExpoClient{
		URL:         url,
		AccessToken: accessToken,
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

type expoResponse struct {
	Data   []models.PushTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *ExpoClient) SendBatch(ctx context.Context, messages []models.ExpoPushMessage) ([]models.PushTicket, error) {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo push API returned status %d", resp.StatusCode)
	}

	var out expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("expo push API error %s: %s", out.Errors[0].Code, out.Errors[0].Message)
	}
	return out.Data, nil
}

// IsPermanent reports whether the ticket says its token can never receive a push
// again. Every other failure is treated as transient.
func IsPermanent(t models.PushTicket) bool {
	if t.Status == ticketStatusOK {
		return false
	}
	switch t.ErrorCode() {
	case ErrorDeviceNotRegistered, ErrorInvalidCredentials:
		return true
	}
	return false
}
