package models

import "time"

// PushToken holds the structure for the pushtokens collection in mongo
type PushToken struct {
	UserID    string     `json:"userId" bson:"userId"`
	Token     string     `json:"token" bson:"token"`       // Expo push token (e.g., "ExponentPushToken[xxx]")
	Platform  string     `json:"platform" bson:"platform"` // "ios" or "android"
	RevokedAt *time.Time `json:"revokedAt,omitempty" bson:"revokedAt"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Active reports whether the token may still receive pushes.
func (p PushToken) Active() bool {
	return p.RevokedAt == nil
}
