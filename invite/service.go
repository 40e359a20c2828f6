package invite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/drynks-api/databases"
	"github.com/linesmerrill/drynks-api/models"
)

// maxCodeAttempts bounds retries on a code collision.
const maxCodeAttempts = 3

// EventFinder looks events up by id.
type EventFinder interface {
	FindByID(ctx context.Context, eventID string) (*models.Event, error)
	OwnerOf(ctx context.Context, eventID string) (string, error)
}

// ServiceLinkStore is what the service needs from the invite link store.
type ServiceLinkStore interface {
	InsertOne(ctx context.Context, link models.InviteLink) error
	FindByCode(ctx context.Context, code string) (*models.InviteLink, error)
	MarkClaimed(ctx context.Context, code, userID string, now time.Time) (*models.InviteLink, error)
}

// Service implements the create_share_invite and claim_invite_code procedures.
// Claims are first wins: the first user to claim a code owns it, a repeat claim
// by that user returns the same resource, and everyone else gets
// ErrAlreadyClaimed.
type Service struct {
	links       ServiceLinkStore
	events      EventFinder
	memberships MembershipStore
	tx          databases.TxRunner
	ttl         time.Duration

	generate func() (string, error)
	now      func() time.Time
}

// NewService wires a Service. A nil tx runs claims without a transaction.
func NewService(links ServiceLinkStore, events EventFinder, memberships MembershipStore, tx databases.TxRunner, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		links:       links,
		events:      events,
		memberships: memberships,
		tx:          tx,
		ttl:         ttl,
		generate:    GenerateCode,
		now:         time.Now,
	}
}

// CreateShareInvite mints a code for resourceID owned by callerID.
func (s *Service) CreateShareInvite(ctx context.Context, resourceID, callerID string) (models.InviteLink, error) {
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" || callerID == "" {
		return models.InviteLink{}, ErrInvalidInput
	}
	event, err := s.events.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return models.InviteLink{}, ErrEventNotFound
		}
		return models.InviteLink{}, fmt.Errorf("find event: %w", err)
	}
	if event.Details.Creator != callerID {
		return models.InviteLink{}, ErrNotEventOwner
	}

	now := s.now().UTC()
	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return models.InviteLink{}, err
		}
		link := models.InviteLink{
			Code:       code,
			ResourceID: resourceID,
			InviterID:  callerID,
			ExpiresAt:  now.Add(s.ttl),
			CreatedAt:  now,
		}
		err = s.links.InsertOne(ctx, link)
		if err == nil {
			return link, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return models.InviteLink{}, fmt.Errorf("insert invite link: %w", err)
		}
		lastErr = err
	}
	return models.InviteLink{}, fmt.Errorf("insert invite link: %w", lastErr)
}

// ClaimInviteCode claims code for callerID and creates the membership request to
// the event owner, in one transaction.
func (s *Service) ClaimInviteCode(ctx context.Context, code, callerID string) (ClaimResult, error) {
	code = strings.TrimSpace(code)
	if code == "" || callerID == "" {
		return ClaimResult{}, ErrInvalidInput
	}

	var res ClaimResult
	claim := func(ctx context.Context) error {
		var err error
		res, err = s.claim(ctx, code, callerID)
		return err
	}
	if s.tx == nil {
		return res, claim(ctx)
	}
	if err := s.tx.WithTransaction(ctx, claim); err != nil {
		return ClaimResult{}, err
	}
	return res, nil
}

func (s *Service) claim(ctx context.Context, code, callerID string) (ClaimResult, error) {
	now := s.now().UTC()

	link, err := s.links.MarkClaimed(ctx, code, callerID, now)
	if errors.Is(err, databases.ErrNotFound) {
		link, err = s.existingClaim(ctx, code, callerID, now)
	}
	if err != nil {
		return ClaimResult{}, err
	}

	owner, err := s.events.OwnerOf(ctx, link.ResourceID)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return ClaimResult{}, ErrEventNotFound
		}
		return ClaimResult{}, fmt.Errorf("find event owner: %w", err)
	}

	res := ClaimResult{ResourceID: link.ResourceID, OwnerID: owner}
	if owner == callerID {
		return res, nil
	}
	res.Created, err = s.memberships.InsertIfAbsent(ctx, newMembershipRequest(link.ResourceID, callerID, owner, code, now))
	if err != nil {
		return ClaimResult{}, fmt.Errorf("insert membership request: %w", err)
	}
	return res, nil
}

// existingClaim explains why the conditional claim matched nothing.
func (s *Service) existingClaim(ctx context.Context, code, callerID string, now time.Time) (*models.InviteLink, error) {
	link, err := s.links.FindByCode(ctx, code)
	if errors.Is(err, databases.ErrNotFound) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find invite link: %w", err)
	}
	switch {
	case link.Claimed() && *link.ClaimedBy == callerID:
		return link, nil
	case link.Claimed():
		return nil, ErrAlreadyClaimed
	case link.Expired(now):
		return nil, ErrInviteNotFound
	}
	// unclaimed and unexpired, yet the conditional update missed it
	return nil, fmt.Errorf("invite link %s changed during claim", code)
}
