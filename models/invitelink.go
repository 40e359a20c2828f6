package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InviteLink represents the structure of an invite link document in MongoDB.
// A link moves from unclaimed to claimed at most once and is never deleted;
// expiry is enforced when the link is read.
type InviteLink struct {
	ID         primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Code       string             `json:"code" bson:"code" index:"unique"`
	ResourceID string             `json:"resourceId" bson:"resourceId"`
	InviterID  string             `json:"inviterId" bson:"inviterId"`
	ClaimedBy  *string            `json:"claimedBy" bson:"claimedBy"`
	ClaimedAt  *time.Time         `json:"claimedAt" bson:"claimedAt"`
	ExpiresAt  time.Time          `json:"expiresAt" bson:"expiresAt"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// Claimed reports whether the link has been redeemed.
func (l InviteLink) Claimed() bool {
	return l.ClaimedBy != nil && *l.ClaimedBy != ""
}

// Expired reports whether the link can no longer be claimed at now.
func (l InviteLink) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && !l.ExpiresAt.After(now)
}
