package databases

// go generate: mockery --name InviteLinkDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/drynks-api/models"
)

const inviteLinkName = "inviteLinks"

// InviteLinkDatabase contains the methods to use with the inviteLink database
type InviteLinkDatabase interface {
	InsertOne(ctx context.Context, link models.InviteLink) error
	FindByCode(ctx context.Context, code string) (*models.InviteLink, error)
	FindClaimable(ctx context.Context, code, userID string, now time.Time) (*models.InviteLink, error)
	MarkClaimed(ctx context.Context, code, userID string, now time.Time) (*models.InviteLink, error)
	EnsureIndexes(ctx context.Context) error
}

type inviteLinkDatabase struct {
	db DatabaseHelper
}

// NewInviteLinkDatabase initializes a new instance of inviteLink database with the provided db connection
func NewInviteLinkDatabase(db DatabaseHelper) InviteLinkDatabase {
	return &inviteLinkDatabase{
		db: db,
	}
}

func (c *inviteLinkDatabase) InsertOne(ctx context.Context, link models.InviteLink) error {
	_, err := c.db.Collection(inviteLinkName).InsertOne(ctx, link)
	return err
}

func (c *inviteLinkDatabase) FindByCode(ctx context.Context, code string) (*models.InviteLink, error) {
	link := &models.InviteLink{}
	err := c.db.Collection(inviteLinkName).FindOne(ctx, bson.M{"code": code}).Decode(link)
	if err != nil {
		return nil, notFound(err)
	}
	return link, nil
}

// FindClaimable returns the link for code when it is unexpired at now and either
// unclaimed or already claimed by userID.
func (c *inviteLinkDatabase) FindClaimable(ctx context.Context, code, userID string, now time.Time) (*models.InviteLink, error) {
	filter := bson.M{
		"code":      code,
		"expiresAt": bson.M{"$gt": now},
		"$or": bson.A{
			bson.M{"claimedBy": nil},
			bson.M{"claimedBy": userID},
		},
	}
	link := &models.InviteLink{}
	err := c.db.Collection(inviteLinkName).FindOne(ctx, filter).Decode(link)
	if err != nil {
		return nil, notFound(err)
	}
	return link, nil
}

// MarkClaimed claims an unclaimed, unexpired link for userID in a single
// conditional update and returns the claimed link. ErrNotFound means the code does
// not exist, has expired or was claimed first by someone else.
func (c *inviteLinkDatabase) MarkClaimed(ctx context.Context, code, userID string, now time.Time) (*models.InviteLink, error) {
	filter := bson.M{
		"code":      code,
		"claimedBy": nil,
		"expiresAt": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{"claimedBy": userID, "claimedAt": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	link := &models.InviteLink{}
	err := c.db.Collection(inviteLinkName).FindOneAndUpdate(ctx, filter, update, opts).Decode(link)
	if err != nil {
		return nil, notFound(err)
	}
	return link, nil
}

func (c *inviteLinkDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(inviteLinkName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "resourceId", Value: 1}}},
	})
}
