package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/api"
	"github.com/linesmerrill/drynks-api/config"
	"github.com/linesmerrill/drynks-api/databases"
	"github.com/linesmerrill/drynks-api/models"
)

// PushToken exported for testing purposes
type PushToken struct {
	DB  databases.PushTokenDatabase
	UDB databases.UserDatabase
}

type registerPushTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterPushTokenHandler stores the caller's device token, reactivating it if it
// was revoked, and mirrors it on the profile for older readers
func (p PushToken) RegisterPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
		return
	}
	var body registerPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	body.Token = strings.TrimSpace(body.Token)
	if body.Token == "" {
		config.ErrorStatus("token is required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now().UTC()
	err := p.DB.Register(ctx, models.PushToken{
		UserID:    userID,
		Token:     body.Token,
		Platform:  body.Platform,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		config.ErrorStatus("failed to register push token", http.StatusInternalServerError, w, err)
		return
	}
	if p.UDB != nil {
		if err := p.UDB.SetLegacyPushToken(ctx, userID, body.Token); err != nil {
			zap.S().Warnw("failed to mirror push token on profile", "userId", userID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// RevokePushTokenHandler stops pushes to one of the caller's devices, typically on
// logout. Tokens held by other users are left alone and the answer is the same.
func (p PushToken) RevokePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
		return
	}
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		config.ErrorStatus("token is required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	owned, err := p.DB.RevokeForUser(ctx, userID, token, time.Now().UTC())
	if databases.IsMissingColumnError(err) {
		owned, err = p.DB.DeleteForUser(ctx, userID, token)
	}
	if err != nil {
		config.ErrorStatus("failed to revoke push token", http.StatusInternalServerError, w, err)
		return
	}
	if !owned {
		zap.S().Debugw("revoke matched no device of the caller", "userId", userID)
	}
	if p.UDB != nil {
		if err := p.UDB.ClearLegacyPushToken(ctx, userID, token); err != nil {
			zap.S().Warnw("failed to clear profile push token", "userId", userID, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
