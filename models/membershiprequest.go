package models

import "time"

// MembershipRequestStatusPending is the only status the invite pipeline writes.
const MembershipRequestStatusPending = "pending"

// MembershipRequest links a requester to the owner of an event. There is at most
// one request per (resourceId, requesterId).
type MembershipRequest struct {
	ID          string    `json:"_id" bson:"_id"`
	ResourceID  string    `json:"resourceId" bson:"resourceId"`
	RequesterID string    `json:"requesterId" bson:"requesterId"`
	RecipientID string    `json:"recipientId" bson:"recipientId"`
	Status      string    `json:"status" bson:"status"`
	Source      string    `json:"source,omitempty" bson:"source,omitempty"`
	InviteCode  string    `json:"inviteCode,omitempty" bson:"inviteCode,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
