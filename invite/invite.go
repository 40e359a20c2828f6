// Package invite issues single-use invite links for events and claims them for
// the user who opened one.
package invite

import (
	"context"
	"errors"
	"time"

	"github.com/linesmerrill/drynks-api/models"
)

var (
	// ErrLinkCreationFailed means no tier could mint an invite code.
	ErrLinkCreationFailed = errors.New("invite link creation failed")
	// ErrAlreadyClaimed means another user redeemed the code first.
	ErrAlreadyClaimed = errors.New("invite already claimed")
	// ErrInviteNotFound covers unknown and expired codes.
	ErrInviteNotFound = errors.New("invite not found or expired")
	// ErrEventNotFound means the invite points at an event that does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrNotEventOwner means the caller tried to share an event created by someone else.
	ErrNotEventOwner = errors.New("caller does not own the event")
	// ErrInvalidInput means a required argument was empty.
	ErrInvalidInput = errors.New("invalid input")
)

// MembershipSource marks membership requests created from an invite link.
const MembershipSource = "invite"

// ClaimResult is the outcome of a successful claim.
type ClaimResult struct {
	ResourceID string `json:"resource_id"`
	// Created is false when the membership request already existed.
	Created bool   `json:"created"`
	OwnerID string `json:"-"`
}

// LinkStore is the subset of the invite link store the issuer and the claim
// fallback use. databases.InviteLinkDatabase satisfies it.
type LinkStore interface {
	InsertOne(ctx context.Context, link models.InviteLink) error
	FindClaimable(ctx context.Context, code, userID string, now time.Time) (*models.InviteLink, error)
	MarkClaimed(ctx context.Context, code, userID string, now time.Time) (*models.InviteLink, error)
}

// OwnerLookup resolves the owner of an event.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, eventID string) (string, error)
}

// MembershipStore creates membership requests without duplicating them.
type MembershipStore interface {
	InsertIfAbsent(ctx context.Context, req models.MembershipRequest) (bool, error)
}
