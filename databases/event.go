package databases

// go generate: mockery --name EventDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/drynks-api/models"
)

const eventName = "events"

// EventDatabase contains the methods to use with the event database
type EventDatabase interface {
	FindByID(ctx context.Context, eventID string) (*models.Event, error)
	OwnerOf(ctx context.Context, eventID string) (string, error)
}

type eventDatabase struct {
	db DatabaseHelper
}

// NewEventDatabase initializes a new instance of event database with the provided db connection
func NewEventDatabase(db DatabaseHelper) EventDatabase {
	return &eventDatabase{
		db: db,
	}
}

func (e *eventDatabase) FindByID(ctx context.Context, eventID string) (*models.Event, error) {
	event := &models.Event{}
	err := e.db.Collection(eventName).FindOne(ctx, bson.M{"_id": eventID}).Decode(event)
	if err != nil {
		return nil, notFound(err)
	}
	return event, nil
}

func (e *eventDatabase) OwnerOf(ctx context.Context, eventID string) (string, error) {
	event, err := e.FindByID(ctx, eventID)
	if err != nil {
		return "", err
	}
	if event.Details.Creator == "" {
		return "", errors.New("event has no creator")
	}
	return event.Details.Creator, nil
}
