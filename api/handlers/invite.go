package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/api"
	"github.com/linesmerrill/drynks-api/config"
	"github.com/linesmerrill/drynks-api/databases"
	"github.com/linesmerrill/drynks-api/invite"
	"github.com/linesmerrill/drynks-api/models"
	"github.com/linesmerrill/drynks-api/push"
)

// InviteService is the server side of the invite procedures
type InviteService interface {
	CreateShareInvite(ctx context.Context, resourceID, callerID string) (models.InviteLink, error)
	ClaimInviteCode(ctx context.Context, code, callerID string) (invite.ClaimResult, error)
}

// Invite exported for testing purposes
type Invite struct {
	Service    InviteService
	DB         databases.InviteLinkDatabase
	UDB        databases.UserDatabase
	Notifier   Notifier
	ShortLinks invite.ShortLinkProvider
	LinkHost   string
}

// CreateShareInviteHandler mints an invite code for an event created by the caller
func (i Invite) CreateShareInviteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
		return
	}
	var body invite.CreateShareInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	link, err := i.Service.CreateShareInvite(r.Context(), body.ResourceID, userID)
	switch {
	case errors.Is(err, invite.ErrInvalidInput):
		config.ErrorStatus("resource_id is required", http.StatusBadRequest, w, err)
		return
	case errors.Is(err, invite.ErrEventNotFound):
		config.ErrorStatus("event not found", http.StatusNotFound, w, err)
		return
	case errors.Is(err, invite.ErrNotEventOwner):
		config.ErrorStatus("only the event creator can share it", http.StatusForbidden, w, err)
		return
	case err != nil:
		config.ErrorStatus("failed to create invite", http.StatusInternalServerError, w, err)
		return
	}

	url := invite.ShareURL(r.Context(), zap.S(), i.ShortLinks, i.LinkHost, link.Code, link.ResourceID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(invite.CreateShareInviteResponse{Code: link.Code, URL: url})
}

// ClaimInviteCodeHandler claims an invite code for the caller and asks the event
// owner to approve the new member
func (i Invite) ClaimInviteCodeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
		return
	}
	var body invite.ClaimInviteCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	res, err := i.Service.ClaimInviteCode(r.Context(), body.Code, userID)
	switch {
	case errors.Is(err, invite.ErrInvalidInput):
		config.ErrorStatus("code is required", http.StatusBadRequest, w, err)
		return
	case errors.Is(err, invite.ErrAlreadyClaimed):
		config.ErrorStatus("invite already claimed", http.StatusConflict, w, err)
		return
	case errors.Is(err, invite.ErrInviteNotFound), errors.Is(err, invite.ErrEventNotFound):
		config.ErrorStatus("invite not found", http.StatusNotFound, w, err)
		return
	case err != nil:
		config.ErrorStatus("failed to claim invite", http.StatusInternalServerError, w, err)
		return
	}

	if res.Created {
		i.notifyOwner(r.Context(), res, userID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(res)
}

func (i Invite) notifyOwner(ctx context.Context, res invite.ClaimResult, requesterID string) {
	if i.Notifier == nil || res.OwnerID == "" {
		return
	}
	name := models.User{}.DisplayName()
	if i.UDB != nil {
		if requester, err := i.UDB.FindByID(ctx, requesterID); err == nil {
			name = requester.DisplayName()
		}
	}

	data := map[string]interface{}{"eventId": res.ResourceID, "requesterId": requesterID}
	_, err := i.Notifier.Notify(ctx, push.Request{
		UserID: res.OwnerID,
		Title:  "New join request",
		Body:   name + " wants to join your event",
		Data:   data,
		Bell:   &push.Bell{Type: "membership_request", Data: data},
	})
	if err != nil {
		zap.S().Warnw("failed to notify event owner", "ownerId", res.OwnerID, "error", err)
	}
}

// InviteByCodeHandler returns an invite link by its code
func (i Invite) InviteByCodeHandler(w http.ResponseWriter, r *http.Request) {
	inviteCode := r.URL.Query().Get("code")
	if inviteCode == "" {
		config.ErrorStatus("invite code is required", http.StatusBadRequest, w, nil)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	link, err := i.DB.FindByCode(ctx, inviteCode)
	if err != nil {
		config.ErrorStatus("failed to find invite code", http.StatusNotFound, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(link)
}
