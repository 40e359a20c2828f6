package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/linesmerrill/drynks-api/api/handlers"
	"github.com/linesmerrill/drynks-api/databases/mocks"
	"github.com/linesmerrill/drynks-api/models"
)

func TestRegisterPushTokenHandler(t *testing.T) {
	tokens := &mocks.PushTokenDatabase{}
	tokens.On("Register", mock.Anything, mock.MatchedBy(func(pt models.PushToken) bool {
		return pt.UserID == "u1" && pt.Token == "ExponentPushToken[abc]" && pt.Platform == "ios"
	})).Return(nil)
	users := &mocks.UserDatabase{}
	users.On("SetLegacyPushToken", mock.Anything, "u1", "ExponentPushToken[abc]").Return(nil)
	p := handlers.PushToken{DB: tokens, UDB: users}

	rr := httptest.NewRecorder()
	p.RegisterPushTokenHandler(rr, authedRequest(http.MethodPost, "/api/v1/push-tokens", "u1", `{"token":" ExponentPushToken[abc] ","platform":"ios"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	tokens.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestRegisterPushTokenHandlerMirrorFailureIsIgnored(t *testing.T) {
	tokens := &mocks.PushTokenDatabase{}
	tokens.On("Register", mock.Anything, mock.Anything).Return(nil)
	users := &mocks.UserDatabase{}
	users.On("SetLegacyPushToken", mock.Anything, "u1", "tok").Return(errors.New("profile locked"))
	p := handlers.PushToken{DB: tokens, UDB: users}

	rr := httptest.NewRecorder()
	p.RegisterPushTokenHandler(rr, authedRequest(http.MethodPost, "/", "u1", `{"token":"tok"}`))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRegisterPushTokenHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		body   string
		regErr error
		status int
	}{
		{name: "no session", body: `{"token":"tok"}`, status: http.StatusUnauthorized},
		{name: "malformed json", userID: "u1", body: "{", status: http.StatusBadRequest},
		{name: "blank token", userID: "u1", body: `{"token":"   "}`, status: http.StatusBadRequest},
		{name: "store failure", userID: "u1", body: `{"token":"tok"}`, regErr: errors.New("connection reset"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &mocks.PushTokenDatabase{}
			tokens.On("Register", mock.Anything, mock.Anything).Return(tt.regErr)
			p := handlers.PushToken{DB: tokens}

			rr := httptest.NewRecorder()
			p.RegisterPushTokenHandler(rr, authedRequest(http.MethodPost, "/", tt.userID, tt.body))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func revokeRequest(userID, token string) *http.Request {
	req := authedRequest(http.MethodDelete, "/", userID, nil)
	return mux.SetURLVars(req, map[string]string{"token": token})
}

func TestRevokePushTokenHandler(t *testing.T) {
	tokens := &mocks.PushTokenDatabase{}
	tokens.On("RevokeForUser", mock.Anything, "u1", "tok", mock.Anything).Return(true, nil)
	users := &mocks.UserDatabase{}
	users.On("ClearLegacyPushToken", mock.Anything, "u1", "tok").Return(nil)
	p := handlers.PushToken{DB: tokens, UDB: users}

	rr := httptest.NewRecorder()
	p.RevokePushTokenHandler(rr, revokeRequest("u1", "tok"))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	tokens.AssertExpectations(t)
	tokens.AssertNotCalled(t, "DeleteForUser", mock.Anything, mock.Anything, mock.Anything)
	users.AssertExpectations(t)
}

func TestRevokePushTokenHandlerLeavesOtherUsersTokens(t *testing.T) {
	tokens := &mocks.PushTokenDatabase{}
	tokens.On("RevokeForUser", mock.Anything, "u1", "tok-of-u2", mock.Anything).Return(false, nil)
	users := &mocks.UserDatabase{}
	users.On("ClearLegacyPushToken", mock.Anything, "u1", "tok-of-u2").Return(nil)
	p := handlers.PushToken{DB: tokens, UDB: users}

	rr := httptest.NewRecorder()
	p.RevokePushTokenHandler(rr, revokeRequest("u1", "tok-of-u2"))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	tokens.AssertExpectations(t)
	tokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
	tokens.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "ReleaseLegacyPushToken", mock.Anything, mock.Anything)
}

func TestRevokePushTokenHandlerDeletesOnSchemaDrift(t *testing.T) {
	tokens := &mocks.PushTokenDatabase{}
	tokens.On("RevokeForUser", mock.Anything, "u1", "tok", mock.Anything).
		Return(false, &pgconn.PgError{Code: "42703", Message: `column "revoked_at" does not exist`})
	tokens.On("DeleteForUser", mock.Anything, "u1", "tok").Return(true, nil)
	p := handlers.PushToken{DB: tokens}

	rr := httptest.NewRecorder()
	p.RevokePushTokenHandler(rr, revokeRequest("u1", "tok"))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	tokens.AssertExpectations(t)
	tokens.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRevokePushTokenHandlerErrors(t *testing.T) {
	tokens := &mocks.PushTokenDatabase{}
	tokens.On("RevokeForUser", mock.Anything, "u1", "tok", mock.Anything).Return(false, errors.New("connection reset"))
	p := handlers.PushToken{DB: tokens}

	rr := httptest.NewRecorder()
	p.RevokePushTokenHandler(rr, revokeRequest("u1", "tok"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = httptest.NewRecorder()
	p.RevokePushTokenHandler(rr, revokeRequest("", "tok"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	p.RevokePushTokenHandler(rr, revokeRequest("u1", " "))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	tokens.AssertNumberOfCalls(t, "RevokeForUser", 1)
}
