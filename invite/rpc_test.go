package invite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestInfo struct {
	method string
	path   string
	auth   string
	body   map[string]string
}

type recordedRequest struct {
	mu   sync.Mutex
	last requestInfo
}

func (r *recordedRequest) get() requestInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func newRPCServer(t *testing.T, status int, body interface{}) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		rec.mu.Lock()
		rec.last = requestInfo{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: in}
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func tokenFunc(token string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return token, nil }
}

func TestAPIClientCreateShareInvite(t *testing.T) {
	srv, got := newRPCServer(t, http.StatusOK, CreateShareInviteResponse{Code: "ABC12345"})
	client := &APIClient{BaseURL: srv.URL + "/", Token: tokenFunc("jwt")}

	code, err := client.CreateShareInvite(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "ABC12345", code)
	req := got.get()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, createShareInvitePath, req.path)
	assert.Equal(t, "Bearer jwt", req.auth)
	assert.Equal(t, "R1", req.body["resource_id"])
}

func TestAPIClientCreateShareInviteUnknownEvent(t *testing.T) {
	srv, _ := newRPCServer(t, http.StatusNotFound, nil)
	client := &APIClient{BaseURL: srv.URL}

	_, err := client.CreateShareInvite(context.Background(), "R404")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestAPIClientCreateShareInviteNotOwner(t *testing.T) {
	srv, _ := newRPCServer(t, http.StatusForbidden, nil)
	client := &APIClient{BaseURL: srv.URL}

	_, err := client.CreateShareInvite(context.Background(), "R1")
	assert.ErrorIs(t, err, ErrNotEventOwner)
}

func TestAPIClientClaimInviteCode(t *testing.T) {
	srv, got := newRPCServer(t, http.StatusOK, ClaimResult{ResourceID: "R1", Created: true})
	client := &APIClient{BaseURL: srv.URL, Token: tokenFunc("jwt")}

	res, err := client.ClaimInviteCode(context.Background(), "ABC12345")
	require.NoError(t, err)
	assert.Equal(t, ClaimResult{ResourceID: "R1", Created: true}, res)
	req := got.get()
	assert.Equal(t, claimInviteCodePath, req.path)
	assert.Equal(t, "ABC12345", req.body["code"])
}

func TestAPIClientClaimInviteCodeStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "conflict", status: http.StatusConflict, want: ErrAlreadyClaimed},
		{name: "not found", status: http.StatusNotFound, want: ErrInviteNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newRPCServer(t, tt.status, nil)
			_, err := (&APIClient{BaseURL: srv.URL}).ClaimInviteCode(context.Background(), "ABC12345")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("server error is not definitive", func(t *testing.T) {
		srv, _ := newRPCServer(t, http.StatusInternalServerError, map[string]interface{}{
			"Response": map[string]string{"Message": "boom"},
		})
		_, err := (&APIClient{BaseURL: srv.URL}).ClaimInviteCode(context.Background(), "ABC12345")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrAlreadyClaimed)
		assert.NotErrorIs(t, err, ErrInviteNotFound)
		assert.Contains(t, err.Error(), "status 500: boom")
	})

	t.Run("unreachable", func(t *testing.T) {
		srv, _ := newRPCServer(t, http.StatusOK, nil)
		srv.Close()
		_, err := (&APIClient{BaseURL: srv.URL}).ClaimInviteCode(context.Background(), "ABC12345")
		assert.Error(t, err)
	})
}
