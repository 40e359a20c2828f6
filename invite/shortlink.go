package invite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/deeplink"
	"github.com/linesmerrill/drynks-api/logging"
)

const branchURL = "https://api2.branch.io/v1/url"

// ShortLinkRequest describes the link to wrap.
type ShortLinkRequest struct {
	Code       string
	ResourceID string
	// FallbackURL is where the short link lands when the app is not installed.
	FallbackURL string
}

// ShortLinkProvider wraps an invite in a branded short link. A nil provider is a
// normal configuration: the issuer shares the fallback URL instead.
type ShortLinkProvider interface {
	ShortLink(ctx context.Context, req ShortLinkRequest) (string, error)
}

// ShareURL returns the URL to share for code: a short link when provider mints
// one, the universal link on host otherwise.
func ShareURL(ctx context.Context, log *zap.SugaredLogger, provider ShortLinkProvider, host, code, resourceID string) string {
	url := deeplink.UniversalURL(host, code, resourceID)
	if provider == nil {
		return url
	}
	short, err := provider.ShortLink(ctx, ShortLinkRequest{Code: code, ResourceID: resourceID, FallbackURL: url})
	if err != nil {
		logging.Or(log).Infow("short link unavailable, sharing fallback url", "error", err)
		return url
	}
	return short
}

// BranchProvider creates short links through the Branch deep linking API.
type BranchProvider struct {
	Key        string
	Endpoint   string
	HTTPClient *http.Client
}

// NewBranchProvider returns a provider for key, or nil when key is empty so the
// result can be assigned straight to Issuer.ShortLinks.
func NewBranchProvider(key string) ShortLinkProvider {
	if key == "" {
		return nil
	}
	return &BranchProvider{Key: key}
}

type branchRequest struct {
	BranchKey string                 `json:"branch_key"`
	Channel   string                 `json:"channel,omitempty"`
	Feature   string                 `json:"feature,omitempty"`
	Data      map[string]interface{} `json:"data"`
}

type branchResponse struct {
	URL string `json:"url"`
}

func (b *BranchProvider) ShortLink(ctx context.Context, req ShortLinkRequest) (string, error) {
	payload, err := json.Marshal(branchRequest{
		BranchKey: b.Key,
		Channel:   "share",
		Feature:   "invite",
		Data: map[string]interface{}{
			"$canonical_identifier": "invite/" + req.Code,
			"$fallback_url":         req.FallbackURL,
			"$deeplink_path":        "invite/" + req.Code,
			"code":                  req.Code,
			"d":                     req.ResourceID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal branch request: %w", err)
	}

	endpoint := b.Endpoint
	if endpoint == "" {
		endpoint = branchURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create branch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	client := b.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send branch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("branch API returned status %d", resp.StatusCode)
	}
	var out branchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode branch response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("branch API returned no url")
	}
	return out.URL, nil
}
