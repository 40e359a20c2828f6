package invite

import (
	"context"
	"sync"
	"time"

	"github.com/linesmerrill/drynks-api/databases"
	"github.com/linesmerrill/drynks-api/models"
)

// memoryBackend is an in-memory stand in for the invite link, event and
// membership request collections with the same conditional semantics.
type memoryBackend struct {
	mu          sync.Mutex
	links       map[string]models.InviteLink
	owners      map[string]string
	memberships map[[2]string]models.MembershipRequest
	insertErr   error
	markErr     error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		links:       make(map[string]models.InviteLink),
		owners:      make(map[string]string),
		memberships: make(map[[2]string]models.MembershipRequest),
	}
}

func (m *memoryBackend) InsertOne(_ context.Context, link models.InviteLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.links[link.Code] = link
	return nil
}

func (m *memoryBackend) FindByCode(_ context.Context, code string) (*models.InviteLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[code]
	if !ok {
		return nil, databases.ErrNotFound
	}
	return &link, nil
}

func (m *memoryBackend) FindClaimable(_ context.Context, code, userID string, now time.Time) (*models.InviteLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[code]
	if !ok || link.Expired(now) || (link.Claimed() && *link.ClaimedBy != userID) {
		return nil, databases.ErrNotFound
	}
	return &link, nil
}

func (m *memoryBackend) MarkClaimed(_ context.Context, code, userID string, now time.Time) (*models.InviteLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return nil, m.markErr
	}
	link, ok := m.links[code]
	if !ok || link.Expired(now) || link.Claimed() {
		return nil, databases.ErrNotFound
	}
	by, at := userID, now
	link.ClaimedBy, link.ClaimedAt = &by, &at
	m.links[code] = link
	return &link, nil
}

func (m *memoryBackend) FindByID(_ context.Context, eventID string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[eventID]
	if !ok {
		return nil, databases.ErrNotFound
	}
	return &models.Event{ID: eventID, Details: models.EventDetails{Creator: owner}}, nil
}

func (m *memoryBackend) OwnerOf(ctx context.Context, eventID string) (string, error) {
	event, err := m.FindByID(ctx, eventID)
	if err != nil {
		return "", err
	}
	return event.Details.Creator, nil
}

func (m *memoryBackend) InsertIfAbsent(_ context.Context, req models.MembershipRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{req.ResourceID, req.RequesterID}
	if _, ok := m.memberships[key]; ok {
		return false, nil
	}
	m.memberships[key] = req
	return true, nil
}

func (m *memoryBackend) membershipCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.memberships)
}

func (m *memoryBackend) addLink(code, resourceID, inviterID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[code] = models.InviteLink{Code: code, ResourceID: resourceID, InviterID: inviterID, ExpiresAt: expiresAt}
}

// serviceClaimer plays the server for one signed in user.
type serviceClaimer struct {
	svc    *Service
	userID string
	calls  int
}

func (s *serviceClaimer) ClaimInviteCode(ctx context.Context, code string) (ClaimResult, error) {
	s.calls++
	return s.svc.ClaimInviteCode(ctx, code, s.userID)
}

// lockingTx serializes transactions the way the database would for conflicting
// writes on one document.
type lockingTx struct {
	mu    sync.Mutex
	calls int
}

func (l *lockingTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return fn(ctx)
}
