package invite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/databases"
	"github.com/linesmerrill/drynks-api/deeplink"
	"github.com/linesmerrill/drynks-api/logging"
	"github.com/linesmerrill/drynks-api/models"
)

// InviteClaimer is the server side claim procedure.
type InviteClaimer interface {
	ClaimInviteCode(ctx context.Context, code string) (ClaimResult, error)
}

// ClaimCoordinator redeems the pending invite captured before sign in.
//
// RPC is tried first. The direct tier (Links, Events and Memberships) only runs
// when the server could not be reached or failed; a definitive server answer
// such as ErrAlreadyClaimed ends the attempt.
type ClaimCoordinator struct {
	Pending     deeplink.KeyValueStore
	RPC         InviteClaimer
	Links       LinkStore
	Events      OwnerLookup
	Memberships MembershipStore
	Log         *zap.SugaredLogger

	now func() time.Time
}

// ConsumePendingInviteAfterLogin claims the pending invite for userID and returns
// the invited resource. It reports false when there was nothing to claim or the
// claim did not succeed. The pending payload is removed after every attempt, and
// no failure escapes to the caller.
func (c *ClaimCoordinator) ConsumePendingInviteAfterLogin(ctx context.Context, userID string) (resourceID string, ok bool) {
	log := logging.Or(c.Log)
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("invite claim panicked", "panic", r)
			resourceID, ok = "", false
		}
	}()

	if c.Pending == nil || userID == "" {
		return "", false
	}
	payload, found, err := deeplink.LoadPending(ctx, c.Pending)
	if err != nil {
		log.Warnw("ignoring pending invite", "error", err)
		return "", false
	}
	if !found {
		return "", false
	}

	defer func() {
		if err := deeplink.ClearPending(ctx, c.Pending); err != nil {
			log.Warnw("failed to clear pending invite", "error", err)
		}
	}()

	res, tier, err := RunStrategies(ctx, log, c.strategies(payload.Code, userID))
	switch {
	case err == nil:
		log.Infow("claimed invite", "resourceId", res.ResourceID, "tier", tier, "created", res.Created)
		return res.ResourceID, true
	case errors.Is(err, ErrAlreadyClaimed):
		log.Infow("invite was claimed by someone else", "tier", tier)
	default:
		log.Warnw("failed to claim invite", "error", err)
	}
	return "", false
}

func (c *ClaimCoordinator) strategies(code, userID string) []Strategy[ClaimResult] {
	var tiers []Strategy[ClaimResult]
	if c.RPC != nil {
		tiers = append(tiers, Strategy[ClaimResult]{
			Name: "rpc",
			Attempt: func(ctx context.Context) (ClaimResult, error) {
				res, err := c.RPC.ClaimInviteCode(ctx, code)
				if errors.Is(err, ErrAlreadyClaimed) || errors.Is(err, ErrInviteNotFound) {
					return ClaimResult{}, Halt(err)
				}
				return res, err
			},
		})
	}
	if c.Links != nil && c.Events != nil && c.Memberships != nil {
		tiers = append(tiers, Strategy[ClaimResult]{
			Name: "direct",
			Attempt: func(ctx context.Context) (ClaimResult, error) {
				return c.claimDirect(ctx, code, userID)
			},
		})
	}
	return tiers
}

// claimDirect claims the row with a conditional update before writing the
// membership request, so a user who loses the race never gets one.
func (c *ClaimCoordinator) claimDirect(ctx context.Context, code, userID string) (ClaimResult, error) {
	now := time.Now().UTC()
	if c.now != nil {
		now = c.now()
	}

	link, err := c.Links.FindClaimable(ctx, code, userID, now)
	if errors.Is(err, databases.ErrNotFound) {
		return ClaimResult{}, ErrInviteNotFound
	}
	if err != nil {
		return ClaimResult{}, fmt.Errorf("find invite link: %w", err)
	}
	owner, err := c.Events.OwnerOf(ctx, link.ResourceID)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("find event owner: %w", err)
	}
	if !link.Claimed() {
		_, err := c.Links.MarkClaimed(ctx, code, userID, now)
		if errors.Is(err, databases.ErrNotFound) {
			return ClaimResult{}, ErrAlreadyClaimed
		}
		if err != nil {
			return ClaimResult{}, fmt.Errorf("mark invite claimed: %w", err)
		}
	}

	res := ClaimResult{ResourceID: link.ResourceID, OwnerID: owner}
	if owner == userID {
		return res, nil
	}
	res.Created, err = c.Memberships.InsertIfAbsent(ctx, newMembershipRequest(link.ResourceID, userID, owner, code, now))
	if err != nil {
		return ClaimResult{}, fmt.Errorf("insert membership request: %w", err)
	}
	return res, nil
}

func newMembershipRequest(resourceID, requesterID, ownerID, code string, now time.Time) models.MembershipRequest {
	return models.MembershipRequest{
		ResourceID:  resourceID,
		RequesterID: requesterID,
		RecipientID: ownerID,
		Status:      models.MembershipRequestStatusPending,
		Source:      MembershipSource,
		InviteCode:  code,
		CreatedAt:   now,
	}
}
