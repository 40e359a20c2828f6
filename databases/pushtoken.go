package databases

// go generate: mockery --name PushTokenDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/drynks-api/models"
)

const pushTokenCollectionName = "pushtokens"

// PushTokenDatabase contains the methods to use with the push token database.
// It is implemented on mongo and on postgres.
type PushTokenDatabase interface {
	FindActive(ctx context.Context, userID string) ([]models.PushToken, error)
	FindByToken(ctx context.Context, token string) (*models.PushToken, error)
	Register(ctx context.Context, token models.PushToken) error
	Revoke(ctx context.Context, token string, at time.Time) error
	Delete(ctx context.Context, token string) error
	RevokeForUser(ctx context.Context, userID, token string, at time.Time) (bool, error)
	DeleteForUser(ctx context.Context, userID, token string) (bool, error)
	DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type pushTokenDatabase struct {
	db DatabaseHelper
}

// NewPushTokenDatabase initializes a new instance of push token database with the provided db connection
func NewPushTokenDatabase(db DatabaseHelper) PushTokenDatabase {
	return &pushTokenDatabase{
		db: db,
	}
}

func (pt *pushTokenDatabase) FindActive(ctx context.Context, userID string) ([]models.PushToken, error) {
	var tokens []models.PushToken
	cur, err := pt.db.Collection(pushTokenCollectionName).Find(ctx, bson.M{"userId": userID, "revokedAt": nil})
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&tokens)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// FindByToken returns the row for token whatever its state, or ErrNotFound
func (pt *pushTokenDatabase) FindByToken(ctx context.Context, token string) (*models.PushToken, error) {
	row := &models.PushToken{}
	err := pt.db.Collection(pushTokenCollectionName).FindOne(ctx, bson.M{"token": token}).Decode(row)
	if err != nil {
		return nil, notFound(err)
	}
	return row, nil
}

// Register upserts the device token for its user and reactivates it if it was revoked
func (pt *pushTokenDatabase) Register(ctx context.Context, token models.PushToken) error {
	now := token.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	update := bson.M{
		"$set": bson.M{
			"userId":    token.UserID,
			"platform":  token.Platform,
			"revokedAt": nil,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := pt.db.Collection(pushTokenCollectionName).UpdateOne(ctx,
		bson.M{"token": token.Token}, update, options.Update().SetUpsert(true))
	return err
}

func (pt *pushTokenDatabase) Revoke(ctx context.Context, token string, at time.Time) error {
	_, err := pt.db.Collection(pushTokenCollectionName).UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$set": bson.M{"revokedAt": at, "updatedAt": at}},
	)
	return err
}

func (pt *pushTokenDatabase) Delete(ctx context.Context, token string) error {
	_, err := pt.db.Collection(pushTokenCollectionName).DeleteOne(ctx, bson.M{"token": token})
	return err
}

// RevokeForUser revokes token only while it belongs to userID. It reports
// whether a row matched.
func (pt *pushTokenDatabase) RevokeForUser(ctx context.Context, userID, token string, at time.Time) (bool, error) {
	res, err := pt.db.Collection(pushTokenCollectionName).UpdateOne(ctx,
		bson.M{"userId": userID, "token": token},
		bson.M{"$set": bson.M{"revokedAt": at, "updatedAt": at}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (pt *pushTokenDatabase) DeleteForUser(ctx context.Context, userID, token string) (bool, error) {
	n, err := pt.db.Collection(pushTokenCollectionName).DeleteOne(ctx, bson.M{"userId": userID, "token": token})
	return n > 0, err
}

func (pt *pushTokenDatabase) DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return pt.db.Collection(pushTokenCollectionName).DeleteMany(ctx, bson.M{"revokedAt": bson.M{"$ne": nil, "$lt": cutoff}})
}

// EnsureIndexes creates the unique token index and the per user lookup index
func (pt *pushTokenDatabase) EnsureIndexes(ctx context.Context) error {
	return pt.db.Collection(pushTokenCollectionName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "revokedAt", Value: 1}}},
	})
}
