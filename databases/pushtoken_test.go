package databases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/drynks-api/databases"
	"github.com/linesmerrill/drynks-api/databases/mocks"
	"github.com/linesmerrill/drynks-api/models"
)

func TestPushTokenDatabase_FindActiveExcludesRevoked(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.PushToken)
		*arg = []models.PushToken{{UserID: "U1", Token: "ExponentPushToken[a]"}}
	})
	collectionHelper.
		On("Find", context.Background(), bson.M{"userId": "U1", "revokedAt": nil}).
		Return(cursor, nil)
	dbHelper.On("Collection", "pushtokens").Return(collectionHelper)

	tokens, err := databases.NewPushTokenDatabase(dbHelper).FindActive(context.Background(), "U1")
	assert.NoError(t, err)
	assert.Len(t, tokens, 1)
	assert.True(t, tokens[0].Active())
}

func TestPushTokenDatabase_RevokeSurfacesValidationFailure(t *testing.T) {
	at := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	drift := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121, Message: "Document failed validation"}}}
	collectionHelper.
		On("UpdateOne", context.Background(),
			bson.M{"token": "tok"},
			bson.M{"$set": bson.M{"revokedAt": at, "updatedAt": at}}).
		Return(nil, drift)
	dbHelper.On("Collection", "pushtokens").Return(collectionHelper)

	err := databases.NewPushTokenDatabase(dbHelper).Revoke(context.Background(), "tok", at)
	assert.Error(t, err)
	assert.True(t, databases.IsMissingColumnError(err))
}

func TestPushTokenDatabase_Delete(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("DeleteOne", context.Background(), bson.M{"token": "tok"}).Return(int64(1), nil)
	dbHelper.On("Collection", "pushtokens").Return(collectionHelper)

	assert.NoError(t, databases.NewPushTokenDatabase(dbHelper).Delete(context.Background(), "tok"))
	collectionHelper.AssertExpectations(t)
}

func TestPushTokenDatabase_DeleteRevokedBefore(t *testing.T) {
	cutoff := time.Date(2026, 7, 21, 0, 0, 0, 0, time.UTC)
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("DeleteMany", context.Background(), bson.M{"revokedAt": bson.M{"$ne": nil, "$lt": cutoff}}).
		Return(int64(4), nil)
	dbHelper.On("Collection", "pushtokens").Return(collectionHelper)

	n, err := databases.NewPushTokenDatabase(dbHelper).DeleteRevokedBefore(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestPushTokenDatabase_FindByToken(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srMissing := &mocks.SingleResultHelper{}
	srFound := &mocks.SingleResultHelper{}

	srMissing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	srFound.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.PushToken)
		arg.UserID = "U2"
		arg.Token = "tok"
	})
	collectionHelper.On("FindOne", context.Background(), bson.M{"token": "missing"}).Return(srMissing)
	collectionHelper.On("FindOne", context.Background(), bson.M{"token": "tok"}).Return(srFound)
	dbHelper.On("Collection", "pushtokens").Return(collectionHelper)

	store := databases.NewPushTokenDatabase(dbHelper)
	row, err := store.FindByToken(context.Background(), "missing")
	assert.Nil(t, row)
	assert.ErrorIs(t, err, databases.ErrNotFound)

	row, err = store.FindByToken(context.Background(), "tok")
	assert.NoError(t, err)
	assert.Equal(t, "U2", row.UserID)
}

func TestPushTokenDatabase_RevokeForUserIsScoped(t *testing.T) {
	at := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	update := bson.M{"$set": bson.M{"revokedAt": at, "updatedAt": at}}
	collectionHelper.
		On("UpdateOne", context.Background(), bson.M{"userId": "U1", "token": "tok"}, update).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	collectionHelper.
		On("UpdateOne", context.Background(), bson.M{"userId": "U1", "token": "tok-of-u2"}, update).
		Return(&mongo.UpdateResult{}, nil)
	dbHelper.On("Collection", "pushtokens").Return(collectionHelper)

	store := databases.NewPushTokenDatabase(dbHelper)
	owned, err := store.RevokeForUser(context.Background(), "U1", "tok", at)
	assert.NoError(t, err)
	assert.True(t, owned)

	owned, err = store.RevokeForUser(context.Background(), "U1", "tok-of-u2", at)
	assert.NoError(t, err)
	assert.False(t, owned)
	collectionHelper.AssertNotCalled(t, "UpdateOne", mock.Anything, bson.M{"token": "tok-of-u2"}, mock.Anything)
}

func TestPushTokenDatabase_DeleteForUserIsScoped(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("DeleteOne", context.Background(), bson.M{"userId": "U1", "token": "tok-of-u2"}).Return(int64(0), nil)
	dbHelper.On("Collection", "pushtokens").Return(collectionHelper)

	owned, err := databases.NewPushTokenDatabase(dbHelper).DeleteForUser(context.Background(), "U1", "tok-of-u2")
	assert.NoError(t, err)
	assert.False(t, owned)
	collectionHelper.AssertExpectations(t)
}
