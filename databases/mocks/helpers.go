package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
	mongo "go.mongodb.org/mongo-driver/mongo"
	options "go.mongodb.org/mongo-driver/mongo/options"

	databases "github.com/linesmerrill/drynks-api/databases"
)

// DatabaseHelper is a mock type for the DatabaseHelper type
type DatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function with given fields:
func (_m *DatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.ClientHelper)
	}

	return r0
}

// Collection provides a mock function with given fields: name
func (_m *DatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.CollectionHelper)
	}

	return r0
}

// CollectionHelper is a mock type for the CollectionHelper type
type CollectionHelper struct {
	mock.Mock
}

func withOpts[T any](head []interface{}, opts []T) []interface{} {
	for _, o := range opts {
		head = append(head, o)
	}
	return head
}

// FindOne provides a mock function with given fields: ctx, filter, opts
func (_m *CollectionHelper) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) databases.SingleResultHelper {
	ret := _m.Called(withOpts([]interface{}{ctx, filter}, opts)...)

	var r0 databases.SingleResultHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.SingleResultHelper)
	}
	return r0
}

// Find provides a mock function with given fields: ctx, filter, opts
func (_m *CollectionHelper) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (databases.CursorHelper, error) {
	ret := _m.Called(withOpts([]interface{}{ctx, filter}, opts)...)

	var r0 databases.CursorHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.CursorHelper)
	}
	return r0, ret.Error(1)
}

// InsertOne provides a mock function with given fields: ctx, document, opts
func (_m *CollectionHelper) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (databases.InsertOneResultHelper, error) {
	ret := _m.Called(withOpts([]interface{}{ctx, document}, opts)...)

	var r0 databases.InsertOneResultHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.InsertOneResultHelper)
	}
	return r0, ret.Error(1)
}

// UpdateOne provides a mock function with given fields: ctx, filter, update, opts
func (_m *CollectionHelper) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	ret := _m.Called(withOpts([]interface{}{ctx, filter, update}, opts)...)

	var r0 *mongo.UpdateResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*mongo.UpdateResult)
	}
	return r0, ret.Error(1)
}

// UpdateMany provides a mock function with given fields: ctx, filter, update, opts
func (_m *CollectionHelper) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	ret := _m.Called(withOpts([]interface{}{ctx, filter, update}, opts)...)

	var r0 *mongo.UpdateResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*mongo.UpdateResult)
	}
	return r0, ret.Error(1)
}

// FindOneAndUpdate provides a mock function with given fields: ctx, filter, update, opts
func (_m *CollectionHelper) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) databases.SingleResultHelper {
	ret := _m.Called(withOpts([]interface{}{ctx, filter, update}, opts)...)

	var r0 databases.SingleResultHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.SingleResultHelper)
	}
	return r0
}

// DeleteOne provides a mock function with given fields: ctx, filter, opts
func (_m *CollectionHelper) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	ret := _m.Called(withOpts([]interface{}{ctx, filter}, opts)...)
	return ret.Get(0).(int64), ret.Error(1)
}

// DeleteMany provides a mock function with given fields: ctx, filter, opts
func (_m *CollectionHelper) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	ret := _m.Called(withOpts([]interface{}{ctx, filter}, opts)...)
	return ret.Get(0).(int64), ret.Error(1)
}

// CreateIndexes provides a mock function with given fields: ctx, indexes
func (_m *CollectionHelper) CreateIndexes(ctx context.Context, indexes []mongo.IndexModel) error {
	ret := _m.Called(ctx, indexes)
	return ret.Error(0)
}

// SingleResultHelper is a mock type for the SingleResultHelper type
type SingleResultHelper struct {
	mock.Mock
}

// Decode provides a mock function with given fields: v
func (_m *SingleResultHelper) Decode(v interface{}) error {
	ret := _m.Called(v)
	return ret.Error(0)
}

// CursorHelper is a mock type for the CursorHelper type
type CursorHelper struct {
	mock.Mock
}

// Decode provides a mock function with given fields: v
func (_m *CursorHelper) Decode(v interface{}) error {
	ret := _m.Called(v)
	return ret.Error(0)
}

// InsertOneResultHelper is a mock type for the InsertOneResultHelper type
type InsertOneResultHelper struct {
	mock.Mock
}

// Decode provides a mock function with given fields:
func (_m *InsertOneResultHelper) Decode() interface{} {
	ret := _m.Called()
	return ret.Get(0)
}

// ClientHelper is a mock type for the ClientHelper type
type ClientHelper struct {
	mock.Mock
}

// Database provides a mock function with given fields: name
func (_m *ClientHelper) Database(name string) databases.DatabaseHelper {
	ret := _m.Called(name)

	var r0 databases.DatabaseHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.DatabaseHelper)
	}
	return r0
}

// Connect provides a mock function with given fields: ctx
func (_m *ClientHelper) Connect(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// Disconnect provides a mock function with given fields: ctx
func (_m *ClientHelper) Disconnect(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// StartSession provides a mock function with given fields:
func (_m *ClientHelper) StartSession() (mongo.Session, error) {
	ret := _m.Called()

	var r0 mongo.Session
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(mongo.Session)
	}
	return r0, ret.Error(1)
}
