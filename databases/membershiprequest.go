package databases

// go generate: mockery --name MembershipRequestDatabase

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/drynks-api/models"
)

const membershipRequestName = "membershipRequests"

// MembershipRequestDatabase contains the methods to use with the membershipRequests database
type MembershipRequestDatabase interface {
	InsertIfAbsent(ctx context.Context, req models.MembershipRequest) (bool, error)
	FindOne(ctx context.Context, resourceID, requesterID string) (*models.MembershipRequest, error)
	EnsureIndexes(ctx context.Context) error
}

type membershipRequestDatabase struct {
	db DatabaseHelper
}

// NewMembershipRequestDatabase initializes a new instance of membership request database with the provided db connection
func NewMembershipRequestDatabase(db DatabaseHelper) MembershipRequestDatabase {
	return &membershipRequestDatabase{
		db: db,
	}
}

// InsertIfAbsent creates req unless a request for the same (resourceId,
// requesterId) already exists. It reports whether a new document was written.
func (m *membershipRequestDatabase) InsertIfAbsent(ctx context.Context, req models.MembershipRequest) (bool, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	filter := bson.M{"resourceId": req.ResourceID, "requesterId": req.RequesterID}
	update := bson.M{"$setOnInsert": req}
	opts := options.Update().SetUpsert(true)

	res, err := m.db.Collection(membershipRequestName).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		// two upserts racing on the unique index: the other one won
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (m *membershipRequestDatabase) FindOne(ctx context.Context, resourceID, requesterID string) (*models.MembershipRequest, error) {
	req := &models.MembershipRequest{}
	err := m.db.Collection(membershipRequestName).
		FindOne(ctx, bson.M{"resourceId": resourceID, "requesterId": requesterID}).
		Decode(req)
	if err != nil {
		return nil, notFound(err)
	}
	return req, nil
}

func (m *membershipRequestDatabase) EnsureIndexes(ctx context.Context) error {
	return m.db.Collection(membershipRequestName).CreateIndexes(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "resourceId", Value: 1}, {Key: "requesterId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "status", Value: 1}}},
	})
}
