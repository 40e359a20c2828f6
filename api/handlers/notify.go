package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/config"
	"github.com/linesmerrill/drynks-api/push"
)

const (
	notifyAction = "notify"

	legacyNotifyTitle = "New activity on your event"
	legacyNotifyBody  = "Open Drynks to see what changed."
)

// Notifier dispatches a notification to every device of one user
type Notifier interface {
	Notify(ctx context.Context, req push.Request) (push.Result, error)
}

// OwnerFinder resolves the owner of an event
type OwnerFinder interface {
	OwnerOf(ctx context.Context, eventID string) (string, error)
}

// Notify exported for testing purposes
type Notify struct {
	Dispatcher Notifier
	Events     OwnerFinder
}

// notifyRequest accepts both the notify body and the legacy record body
type notifyRequest struct {
	Action string                 `json:"action"`
	UserID string                 `json:"userId"`
	Title  string                 `json:"title"`
	Body   string                 `json:"body"`
	Data   map[string]interface{} `json:"data"`
	Bell   *push.Bell             `json:"bell"`
	Record *legacyRecord          `json:"record"`
}

// legacyRecord is the row older database triggers post when an event changes
type legacyRecord struct {
	ID      string `json:"id"`
	Creator string `json:"creator"`
	Title   string `json:"title"`
}

type notifyResponse struct {
	OK     bool `json:"ok"`
	Sent   int  `json:"sent"`
	Pruned int  `json:"pruned"`
}

// NotifyHandler sends a push notification to every active device of a user
func (n Notify) NotifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		config.ErrorStatus("method not allowed", http.StatusMethodNotAllowed, w, nil)
		return
	}

	var body notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	var req push.Request
	if body.Record != nil {
		var err error
		req, err = n.legacyRequest(r.Context(), *body.Record)
		if err != nil {
			config.ErrorStatus("invalid record", http.StatusBadRequest, w, err)
			return
		}
	} else {
		if body.Action != "" && body.Action != notifyAction {
			config.ErrorStatus("unsupported action", http.StatusBadRequest, w, nil)
			return
		}
		req = push.Request{UserID: body.UserID, Title: body.Title, Body: body.Body, Data: body.Data, Bell: body.Bell}
	}
	if err := req.Validate(); err != nil {
		config.ErrorStatus("missing required fields", http.StatusBadRequest, w, err)
		return
	}

	res, err := n.Dispatcher.Notify(r.Context(), req)
	if err != nil {
		if errors.Is(err, push.ErrInvalidRequest) {
			config.ErrorStatus("missing required fields", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to send notification", http.StatusInternalServerError, w, err)
		return
	}
	if res.NoTokens {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(notifyResponse{OK: true, Sent: res.Sent, Pruned: res.Pruned})
}

// legacyRequest targets the owner of the record's event, falling back to the
// creator named in the record when the event cannot be read
func (n Notify) legacyRequest(ctx context.Context, record legacyRecord) (push.Request, error) {
	eventID := strings.TrimSpace(record.ID)
	owner := ""
	if eventID != "" && n.Events != nil {
		var err error
		owner, err = n.Events.OwnerOf(ctx, eventID)
		if err != nil {
			zap.S().Warnw("failed to find event owner, using record creator", "eventId", eventID, "error", err)
		}
	}
	if owner == "" {
		owner = strings.TrimSpace(record.Creator)
	}
	if owner == "" {
		return push.Request{}, errors.New("record has no resolvable owner")
	}

	body := legacyNotifyBody
	if record.Title != "" {
		body = record.Title + ": " + legacyNotifyBody
	}
	return push.Request{
		UserID: owner,
		Title:  legacyNotifyTitle,
		Body:   body,
		Data:   map[string]interface{}{"eventId": eventID},
	}, nil
}
