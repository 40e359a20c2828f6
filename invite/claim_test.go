package invite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/drynks-api/deeplink"
)

type failingClaimer struct {
	err   error
	calls int
}

func (f *failingClaimer) ClaimInviteCode(context.Context, string) (ClaimResult, error) {
	f.calls++
	return ClaimResult{}, f.err
}

func seededBackend() *memoryBackend {
	backend := newMemoryBackend()
	backend.owners["R1"] = "U1"
	backend.addLink("ABC12345", "R1", "U1", fixedNow().Add(24*time.Hour))
	return backend
}

func capturedStore(t *testing.T, raw string) *deeplink.MemoryStore {
	t.Helper()
	store := deeplink.NewMemoryStore()
	stop := deeplink.NewCapture(deeplink.NewChannelSource(raw, nil), store, nil).Start(context.Background())
	stop()
	return store
}

func assertCleared(t *testing.T, store deeplink.KeyValueStore) {
	t.Helper()
	_, ok, err := store.Get(context.Background(), deeplink.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok, "pending invite should be cleared")
}

func directCoordinator(store deeplink.KeyValueStore, backend *memoryBackend) *ClaimCoordinator {
	return &ClaimCoordinator{
		Pending:     store,
		Links:       backend,
		Events:      backend,
		Memberships: backend,
		now:         fixedNow,
	}
}

func TestConsumeWithoutPendingInvite(t *testing.T) {
	rpc := &failingClaimer{}
	c := &ClaimCoordinator{Pending: deeplink.NewMemoryStore(), RPC: rpc}

	resourceID, ok := c.ConsumePendingInviteAfterLogin(context.Background(), "U2")
	assert.False(t, ok)
	assert.Empty(t, resourceID)
	assert.Equal(t, 0, rpc.calls)
}

func TestConsumeMalformedPendingInvite(t *testing.T) {
	store := deeplink.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), deeplink.StorageKey, "not json"))
	rpc := &failingClaimer{}

	_, ok := (&ClaimCoordinator{Pending: store, RPC: rpc}).ConsumePendingInviteAfterLogin(context.Background(), "U2")
	assert.False(t, ok)
	assert.Equal(t, 0, rpc.calls)
}

func TestConsumeSharedLinkScenario(t *testing.T) {
	backend := seededBackend()
	store := capturedStore(t, "https://dr-ynks.app.link/invite/ABC12345?d=R1")

	p, ok, err := deeplink.LoadPending(context.Background(), store)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, deeplink.Payload{Code: "ABC12345", ResourceID: "R1"}, p)

	svc := NewService(backend, backend, backend, &lockingTx{}, 0)
	svc.now = fixedNow
	c := &ClaimCoordinator{Pending: store, RPC: &serviceClaimer{svc: svc, userID: "U2"}}

	resourceID, ok := c.ConsumePendingInviteAfterLogin(context.Background(), "U2")
	assert.True(t, ok)
	assert.Equal(t, "R1", resourceID)

	req := backend.memberships[[2]string{"R1", "U2"}]
	assert.Equal(t, "R1", req.ResourceID)
	assert.Equal(t, "U2", req.RequesterID)
	assert.Equal(t, "U1", req.RecipientID)
	assert.Equal(t, "pending", req.Status)
	assertCleared(t, store)
}

func TestConsumeFallsBackToDirectClaim(t *testing.T) {
	backend := seededBackend()
	store := capturedStore(t, "drynks://invite/ABC12345")
	rpc := &failingClaimer{err: errors.New("dial tcp: connection refused")}

	c := directCoordinator(store, backend)
	c.RPC = rpc

	resourceID, ok := c.ConsumePendingInviteAfterLogin(context.Background(), "U2")
	assert.True(t, ok)
	assert.Equal(t, "R1", resourceID)
	assert.Equal(t, 1, rpc.calls)
	assert.Equal(t, 1, backend.membershipCount())
	assert.Equal(t, "U2", *backend.links["ABC12345"].ClaimedBy)
	assertCleared(t, store)
}

func TestConsumeDefinitiveServerAnswerSkipsFallback(t *testing.T) {
	for _, serverErr := range []error{ErrAlreadyClaimed, ErrInviteNotFound} {
		t.Run(serverErr.Error(), func(t *testing.T) {
			backend := seededBackend()
			store := capturedStore(t, "drynks://invite/ABC12345")
			c := directCoordinator(store, backend)
			c.RPC = &failingClaimer{err: serverErr}

			_, ok := c.ConsumePendingInviteAfterLogin(context.Background(), "U2")
			assert.False(t, ok)
			assert.Equal(t, 0, backend.membershipCount())
			assert.False(t, backend.links["ABC12345"].Claimed())
			assertCleared(t, store)
		})
	}
}

func TestConsumeTwiceBySameUserCreatesOneRequest(t *testing.T) {
	backend := seededBackend()

	for i := 0; i < 2; i++ {
		store := capturedStore(t, "drynks://invite/ABC12345")
		resourceID, ok := directCoordinator(store, backend).ConsumePendingInviteAfterLogin(context.Background(), "U2")
		assert.True(t, ok)
		assert.Equal(t, "R1", resourceID)
		assertCleared(t, store)
	}
	assert.Equal(t, 1, backend.membershipCount())
}

func TestConsumeConcurrentSessionsSameUser(t *testing.T) {
	backend := seededBackend()
	svc := NewService(backend, backend, backend, &lockingTx{}, 0)
	svc.now = fixedNow

	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store := capturedStore(t, "drynks://invite/ABC12345")
			c := &ClaimCoordinator{Pending: store, RPC: &serviceClaimer{svc: svc, userID: "U2"}}
			_, results[i] = c.ConsumePendingInviteAfterLogin(context.Background(), "U2")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []bool{true, true, true, true}, results)
	assert.Equal(t, 1, backend.membershipCount())
}

func TestConsumeSecondUserLosesRace(t *testing.T) {
	backend := seededBackend()

	first := capturedStore(t, "drynks://invite/ABC12345")
	_, ok := directCoordinator(first, backend).ConsumePendingInviteAfterLogin(context.Background(), "U2")
	require.True(t, ok)

	second := capturedStore(t, "drynks://invite/ABC12345")
	resourceID, ok := directCoordinator(second, backend).ConsumePendingInviteAfterLogin(context.Background(), "U3")
	assert.False(t, ok)
	assert.Empty(t, resourceID)
	assert.Equal(t, 1, backend.membershipCount())
	assertCleared(t, second)
}

func TestConsumeExpiredInvite(t *testing.T) {
	backend := newMemoryBackend()
	backend.owners["R1"] = "U1"
	backend.addLink("OLD00001", "R1", "U1", fixedNow().Add(-time.Minute))
	store := capturedStore(t, "drynks://invite/OLD00001")

	_, ok := directCoordinator(store, backend).ConsumePendingInviteAfterLogin(context.Background(), "U2")
	assert.False(t, ok)
	assert.Equal(t, 0, backend.membershipCount())
	assertCleared(t, store)
}

func TestConsumeClearsAfterEveryTierFails(t *testing.T) {
	backend := seededBackend()
	backend.markErr = errors.New("write conflict")
	store := capturedStore(t, "drynks://invite/ABC12345")
	c := directCoordinator(store, backend)
	c.RPC = &failingClaimer{err: errors.New("timeout")}

	_, ok := c.ConsumePendingInviteAfterLogin(context.Background(), "U2")
	assert.False(t, ok)
	assert.Equal(t, 0, backend.membershipCount())
	assertCleared(t, store)
}

type panickingClaimer struct{}

func (panickingClaimer) ClaimInviteCode(context.Context, string) (ClaimResult, error) {
	panic("nil session")
}

func TestConsumeNeverPanics(t *testing.T) {
	store := capturedStore(t, "drynks://invite/ABC12345")
	c := &ClaimCoordinator{Pending: store, RPC: panickingClaimer{}}

	assert.NotPanics(t, func() {
		_, ok := c.ConsumePendingInviteAfterLogin(context.Background(), "U2")
		assert.False(t, ok)
	})
	assertCleared(t, store)
}
