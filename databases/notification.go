package databases

// go generate: mockery --name NotificationDatabase

import (
	"context"

	"github.com/linesmerrill/drynks-api/models"
)

const notificationName = "notifications"

// NotificationDatabase contains the methods to use with the in-app notification database
type NotificationDatabase interface {
	InsertOne(ctx context.Context, n models.Notification) error
}

type notificationDatabase struct {
	db DatabaseHelper
}

// NewNotificationDatabase initializes a new instance of notification database with the provided db connection
func NewNotificationDatabase(db DatabaseHelper) NotificationDatabase {
	return &notificationDatabase{
		db: db,
	}
}

func (n *notificationDatabase) InsertOne(ctx context.Context, notification models.Notification) error {
	_, err := n.db.Collection(notificationName).InsertOne(ctx, notification)
	return err
}
