package models

import "time"

// Notification is an in-app bell record
type Notification struct {
	ID        string                 `json:"_id" bson:"_id"`
	UserID    string                 `json:"userId" bson:"userId"`
	Type      string                 `json:"type" bson:"type"`
	Data      map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	Read      bool                   `json:"read" bson:"read"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
}
