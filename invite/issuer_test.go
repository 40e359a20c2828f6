package invite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	code  string
	err   error
	calls int
}

func (f *fakeCreator) CreateShareInvite(context.Context, string) (string, error) {
	f.calls++
	return f.code, f.err
}

type fakeShortLinks struct {
	url string
	err error
	got ShortLinkRequest
}

func (f *fakeShortLinks) ShortLink(_ context.Context, req ShortLinkRequest) (string, error) {
	f.got = req
	return f.url, f.err
}

func fixedNow() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestIssuerUsesServerCode(t *testing.T) {
	backend := newMemoryBackend()
	rpc := &fakeCreator{code: "SRV12345"}
	issuer := &Issuer{RPC: rpc, Links: backend, Host: "dr-ynks.app.link"}

	link, err := issuer.Issue(context.Background(), "R1", "U1")
	require.NoError(t, err)
	assert.Equal(t, Link{Code: "SRV12345", URL: "https://dr-ynks.app.link/invite/SRV12345?d=R1"}, link)
	assert.Empty(t, backend.links)
}

func TestIssuerFallsBackToInsert(t *testing.T) {
	backend := newMemoryBackend()
	issuer := &Issuer{
		RPC:      &fakeCreator{err: errors.New("connection refused")},
		Links:    backend,
		Host:     "dr-ynks.app.link",
		TTL:      time.Hour,
		now:      fixedNow,
		generate: func() (string, error) { return "ABC12345", nil },
	}

	link, err := issuer.Issue(context.Background(), "R1", "U1")
	require.NoError(t, err)
	assert.Equal(t, "ABC12345", link.Code)
	assert.Equal(t, "https://dr-ynks.app.link/invite/ABC12345?d=R1", link.URL)

	row := backend.links["ABC12345"]
	assert.Equal(t, "R1", row.ResourceID)
	assert.Equal(t, "U1", row.InviterID)
	assert.Equal(t, fixedNow().Add(time.Hour), row.ExpiresAt)
	assert.False(t, row.Claimed())
}

func TestIssuerBothTiersFail(t *testing.T) {
	backend := newMemoryBackend()
	backend.insertErr = errors.New("permission denied")
	issuer := &Issuer{RPC: &fakeCreator{err: errors.New("timeout")}, Links: backend, Host: "h"}

	_, err := issuer.Issue(context.Background(), "R1", "U1")
	assert.ErrorIs(t, err, ErrLinkCreationFailed)
	assert.Contains(t, err.Error(), "rpc: timeout")
	assert.Contains(t, err.Error(), "insert: permission denied")
}

func TestIssuerWithoutTiers(t *testing.T) {
	_, err := (&Issuer{Host: "h"}).Issue(context.Background(), "R1", "U1")
	assert.ErrorIs(t, err, ErrLinkCreationFailed)
}

func TestIssuerRequiresResource(t *testing.T) {
	rpc := &fakeCreator{code: "X"}
	_, err := (&Issuer{RPC: rpc}).Issue(context.Background(), " ", "U1")
	assert.ErrorIs(t, err, ErrLinkCreationFailed)
	assert.Equal(t, 0, rpc.calls)
}

func TestIssuerShortLinks(t *testing.T) {
	t.Run("short link replaces the fallback", func(t *testing.T) {
		short := &fakeShortLinks{url: "https://dr-ynks.app.link/aBcD"}
		issuer := &Issuer{RPC: &fakeCreator{code: "ABC12345"}, ShortLinks: short, Host: "dr-ynks.app.link"}

		link, err := issuer.Issue(context.Background(), "R1", "U1")
		require.NoError(t, err)
		assert.Equal(t, "https://dr-ynks.app.link/aBcD", link.URL)
		assert.Equal(t, ShortLinkRequest{
			Code:        "ABC12345",
			ResourceID:  "R1",
			FallbackURL: "https://dr-ynks.app.link/invite/ABC12345?d=R1",
		}, short.got)
	})

	t.Run("failing provider still shares", func(t *testing.T) {
		short := &fakeShortLinks{err: errors.New("quota")}
		issuer := &Issuer{RPC: &fakeCreator{code: "ABC12345"}, ShortLinks: short, Host: "dr-ynks.app.link"}

		link, err := issuer.Issue(context.Background(), "R1", "U1")
		require.NoError(t, err)
		assert.Equal(t, "https://dr-ynks.app.link/invite/ABC12345?d=R1", link.URL)
	})

	t.Run("no provider configured", func(t *testing.T) {
		issuer := &Issuer{RPC: &fakeCreator{code: "ABC12345"}, ShortLinks: NewBranchProvider(""), Host: "dr-ynks.app.link"}

		link, err := issuer.Issue(context.Background(), "R1", "U1")
		require.NoError(t, err)
		assert.Equal(t, "https://dr-ynks.app.link/invite/ABC12345?d=R1", link.URL)
	})
}
