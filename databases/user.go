package databases

// go generate: mockery --name UserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/drynks-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	SetLegacyPushToken(ctx context.Context, userID, token string) error
	ClearLegacyPushToken(ctx context.Context, userID, token string) error
	ReleaseLegacyPushToken(ctx context.Context, token string) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindByID(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, bson.M{"_id": userID}).Decode(user)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// SetLegacyPushToken mirrors the latest registered device token onto the profile.
// A device belongs to one user, so the token is unset on every other profile.
func (u *userDatabase) SetLegacyPushToken(ctx context.Context, userID, token string) error {
	_, err := u.db.Collection(userName).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"user.pushToken": token}},
	)
	if err != nil {
		return err
	}
	_, err = u.db.Collection(userName).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$ne": userID}, "user.pushToken": token},
		bson.M{"$unset": bson.M{"user.pushToken": ""}},
	)
	return err
}

// ClearLegacyPushToken removes the profile mirror, but only while it still holds token
func (u *userDatabase) ClearLegacyPushToken(ctx context.Context, userID, token string) error {
	_, err := u.db.Collection(userName).UpdateOne(ctx,
		bson.M{"_id": userID, "user.pushToken": token},
		bson.M{"$unset": bson.M{"user.pushToken": ""}},
	)
	return err
}

// ReleaseLegacyPushToken removes token from every profile that mirrors it
func (u *userDatabase) ReleaseLegacyPushToken(ctx context.Context, token string) error {
	_, err := u.db.Collection(userName).UpdateMany(ctx,
		bson.M{"user.pushToken": token},
		bson.M{"$unset": bson.M{"user.pushToken": ""}},
	)
	return err
}
