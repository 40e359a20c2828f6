package models

import "time"

// Event holds the structure for the events collection in mongo. Events are the
// resources invite links point at.
type Event struct {
	ID      string       `json:"_id" bson:"_id"`
	Details EventDetails `json:"event" bson:"event"`
}

// EventDetails holds the inner event structure
type EventDetails struct {
	Title    string    `json:"title" bson:"title"`
	Creator  string    `json:"creator" bson:"creator"`
	StartsAt time.Time `json:"startsAt" bson:"startsAt"`
}
