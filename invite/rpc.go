package invite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/linesmerrill/drynks-api/models"
)

const (
	createShareInvitePath = "/api/v1/rpc/create_share_invite"
	claimInviteCodePath   = "/api/v1/rpc/claim_invite_code"
)

// CreateShareInviteRequest is the body of the create_share_invite procedure.
type CreateShareInviteRequest struct {
	ResourceID string `json:"resource_id"`
}

// CreateShareInviteResponse is returned by create_share_invite.
type CreateShareInviteResponse struct {
	Code string `json:"code"`
	URL  string `json:"url,omitempty"`
}

// ClaimInviteCodeRequest is the body of the claim_invite_code procedure. The
// server claims for the authenticated caller, never for a user named in the body.
type ClaimInviteCodeRequest struct {
	Code string `json:"code"`
}

// StatusError is returned for any non 200 response.
type StatusError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Path, e.StatusCode, e.Message)
}

func statusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// APIClient calls the invite procedures of the drynks API as the signed in user.
type APIClient struct {
	BaseURL    string
	HTTPClient *http.Client
	// Token returns the caller's access token.
	Token func(ctx context.Context) (string, error)
}

// CreateShareInvite asks the server to mint a code for resourceID under the
// caller's identity.
func (c *APIClient) CreateShareInvite(ctx context.Context, resourceID string) (string, error) {
	var out CreateShareInviteResponse
	if err := c.call(ctx, createShareInvitePath, CreateShareInviteRequest{ResourceID: resourceID}, &out); err != nil {
		switch statusOf(err) {
		case http.StatusNotFound:
			return "", fmt.Errorf("%w: %v", ErrEventNotFound, err)
		case http.StatusForbidden:
			return "", fmt.Errorf("%w: %v", ErrNotEventOwner, err)
		}
		return "", err
	}
	if out.Code == "" {
		return "", fmt.Errorf("create_share_invite returned no code")
	}
	return out.Code, nil
}

// ClaimInviteCode claims code for the caller. A 409 maps to ErrAlreadyClaimed and
// a 404 to ErrInviteNotFound.
func (c *APIClient) ClaimInviteCode(ctx context.Context, code string) (ClaimResult, error) {
	var out ClaimResult
	if err := c.call(ctx, claimInviteCodePath, ClaimInviteCodeRequest{Code: code}, &out); err != nil {
		switch statusOf(err) {
		case http.StatusConflict:
			return ClaimResult{}, fmt.Errorf("%w: %v", ErrAlreadyClaimed, err)
		case http.StatusNotFound:
			return ClaimResult{}, fmt.Errorf("%w: %v", ErrInviteNotFound, err)
		}
		return ClaimResult{}, err
	}
	if out.ResourceID == "" {
		return ClaimResult{}, fmt.Errorf("claim_invite_code returned no resource")
	}
	return out, nil
}

func (c *APIClient) call(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Token != nil {
		token, err := c.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var msg models.ErrorMessageResponse
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Message: msg.Response.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
