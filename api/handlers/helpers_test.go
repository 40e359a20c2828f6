package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/linesmerrill/drynks-api/api"
	"github.com/linesmerrill/drynks-api/invite"
	"github.com/linesmerrill/drynks-api/models"
	"github.com/linesmerrill/drynks-api/push"
)

type fakeNotifier struct {
	mu       sync.Mutex
	requests []push.Request
	result   push.Result
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, req push.Request) (push.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result, f.err
}

func (f *fakeNotifier) sent() []push.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]push.Request(nil), f.requests...)
}

type fakeInviteService struct {
	link      models.InviteLink
	createErr error
	claim     invite.ClaimResult
	claimErr  error

	createdFor []string
	claimedBy  []string
}

func (f *fakeInviteService) CreateShareInvite(_ context.Context, resourceID, callerID string) (models.InviteLink, error) {
	f.createdFor = append(f.createdFor, resourceID+"/"+callerID)
	return f.link, f.createErr
}

func (f *fakeInviteService) ClaimInviteCode(_ context.Context, code, callerID string) (invite.ClaimResult, error) {
	f.claimedBy = append(f.claimedBy, code+"/"+callerID)
	return f.claim, f.claimErr
}

type fakeShortLinks struct {
	url string
	err error
}

func (f fakeShortLinks) ShortLink(_ context.Context, _ invite.ShortLinkRequest) (string, error) {
	return f.url, f.err
}

// authedRequest builds a request as if the auth middleware had admitted userID
func authedRequest(method, target, userID string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if userID != "" {
		req = req.WithContext(api.WithUserID(req.Context(), userID))
	}
	return req
}
