package mocks

import (
	context "context"
	time "time"

	mock "github.com/stretchr/testify/mock"

	models "github.com/linesmerrill/drynks-api/models"
)

// InviteLinkDatabase is a mock type for the InviteLinkDatabase type
type InviteLinkDatabase struct {
	mock.Mock
}

// InsertOne provides a mock function with given fields: ctx, link
func (_m *InviteLinkDatabase) InsertOne(ctx context.Context, link models.InviteLink) error {
	ret := _m.Called(ctx, link)
	return ret.Error(0)
}

// FindByCode provides a mock function with given fields: ctx, code
func (_m *InviteLinkDatabase) FindByCode(ctx context.Context, code string) (*models.InviteLink, error) {
	ret := _m.Called(ctx, code)

	var r0 *models.InviteLink
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.InviteLink)
	}
	return r0, ret.Error(1)
}

// FindClaimable provides a mock function with given fields: ctx, code, userID, now
func (_m *InviteLinkDatabase) FindClaimable(ctx context.Context, code, userID string, now time.Time) (*models.InviteLink, error) {
	ret := _m.Called(ctx, code, userID, now)

	var r0 *models.InviteLink
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.InviteLink)
	}
	return r0, ret.Error(1)
}

// MarkClaimed provides a mock function with given fields: ctx, code, userID, now
func (_m *InviteLinkDatabase) MarkClaimed(ctx context.Context, code, userID string, now time.Time) (*models.InviteLink, error) {
	ret := _m.Called(ctx, code, userID, now)

	var r0 *models.InviteLink
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.InviteLink)
	}
	return r0, ret.Error(1)
}

// EnsureIndexes provides a mock function with given fields: ctx
func (_m *InviteLinkDatabase) EnsureIndexes(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// MembershipRequestDatabase is a mock type for the MembershipRequestDatabase type
type MembershipRequestDatabase struct {
	mock.Mock
}

// InsertIfAbsent provides a mock function with given fields: ctx, req
func (_m *MembershipRequestDatabase) InsertIfAbsent(ctx context.Context, req models.MembershipRequest) (bool, error) {
	ret := _m.Called(ctx, req)
	return ret.Bool(0), ret.Error(1)
}

// FindOne provides a mock function with given fields: ctx, resourceID, requesterID
func (_m *MembershipRequestDatabase) FindOne(ctx context.Context, resourceID, requesterID string) (*models.MembershipRequest, error) {
	ret := _m.Called(ctx, resourceID, requesterID)

	var r0 *models.MembershipRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.MembershipRequest)
	}
	return r0, ret.Error(1)
}

// EnsureIndexes provides a mock function with given fields: ctx
func (_m *MembershipRequestDatabase) EnsureIndexes(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// PushTokenDatabase is a mock type for the PushTokenDatabase type
type PushTokenDatabase struct {
	mock.Mock
}

// FindActive provides a mock function with given fields: ctx, userID
func (_m *PushTokenDatabase) FindActive(ctx context.Context, userID string) ([]models.PushToken, error) {
	ret := _m.Called(ctx, userID)

	var r0 []models.PushToken
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.PushToken)
	}
	return r0, ret.Error(1)
}

// FindByToken provides a mock function with given fields: ctx, token
func (_m *PushTokenDatabase) FindByToken(ctx context.Context, token string) (*models.PushToken, error) {
	ret := _m.Called(ctx, token)

	var r0 *models.PushToken
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.PushToken)
	}
	return r0, ret.Error(1)
}

// Register provides a mock function with given fields: ctx, token
func (_m *PushTokenDatabase) Register(ctx context.Context, token models.PushToken) error {
	ret := _m.Called(ctx, token)
	return ret.Error(0)
}

// Revoke provides a mock function with given fields: ctx, token, at
func (_m *PushTokenDatabase) Revoke(ctx context.Context, token string, at time.Time) error {
	ret := _m.Called(ctx, token, at)
	return ret.Error(0)
}

// Delete provides a mock function with given fields: ctx, token
func (_m *PushTokenDatabase) Delete(ctx context.Context, token string) error {
	ret := _m.Called(ctx, token)
	return ret.Error(0)
}

// RevokeForUser provides a mock function with given fields: ctx, userID, token, at
func (_m *PushTokenDatabase) RevokeForUser(ctx context.Context, userID, token string, at time.Time) (bool, error) {
	ret := _m.Called(ctx, userID, token, at)
	return ret.Bool(0), ret.Error(1)
}

// DeleteForUser provides a mock function with given fields: ctx, userID, token
func (_m *PushTokenDatabase) DeleteForUser(ctx context.Context, userID, token string) (bool, error) {
	ret := _m.Called(ctx, userID, token)
	return ret.Bool(0), ret.Error(1)
}

// DeleteRevokedBefore provides a mock function with given fields: ctx, cutoff
func (_m *PushTokenDatabase) DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ret := _m.Called(ctx, cutoff)
	return ret.Get(0).(int64), ret.Error(1)
}

// UserDatabase is a mock type for the UserDatabase type
type UserDatabase struct {
	mock.Mock
}

// FindByID provides a mock function with given fields: ctx, userID
func (_m *UserDatabase) FindByID(ctx context.Context, userID string) (*models.User, error) {
	ret := _m.Called(ctx, userID)

	var r0 *models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}
	return r0, ret.Error(1)
}

// SetLegacyPushToken provides a mock function with given fields: ctx, userID, token
func (_m *UserDatabase) SetLegacyPushToken(ctx context.Context, userID, token string) error {
	ret := _m.Called(ctx, userID, token)
	return ret.Error(0)
}

// ClearLegacyPushToken provides a mock function with given fields: ctx, userID, token
func (_m *UserDatabase) ClearLegacyPushToken(ctx context.Context, userID, token string) error {
	ret := _m.Called(ctx, userID, token)
	return ret.Error(0)
}

// ReleaseLegacyPushToken provides a mock function with given fields: ctx, token
func (_m *UserDatabase) ReleaseLegacyPushToken(ctx context.Context, token string) error {
	ret := _m.Called(ctx, token)
	return ret.Error(0)
}

// EventDatabase is a mock type for the EventDatabase type
type EventDatabase struct {
	mock.Mock
}

// FindByID provides a mock function with given fields: ctx, eventID
func (_m *EventDatabase) FindByID(ctx context.Context, eventID string) (*models.Event, error) {
	ret := _m.Called(ctx, eventID)

	var r0 *models.Event
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Event)
	}
	return r0, ret.Error(1)
}

// OwnerOf provides a mock function with given fields: ctx, eventID
func (_m *EventDatabase) OwnerOf(ctx context.Context, eventID string) (string, error) {
	ret := _m.Called(ctx, eventID)
	return ret.String(0), ret.Error(1)
}

// NotificationDatabase is a mock type for the NotificationDatabase type
type NotificationDatabase struct {
	mock.Mock
}

// InsertOne provides a mock function with given fields: ctx, n
func (_m *NotificationDatabase) InsertOne(ctx context.Context, n models.Notification) error {
	ret := _m.Called(ctx, n)
	return ret.Error(0)
}
