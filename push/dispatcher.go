package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/databases"
	"github.com/linesmerrill/drynks-api/logging"
	"github.com/linesmerrill/drynks-api/models"
)

// ErrInvalidRequest is returned when a request lacks a user, title or body.
var ErrInvalidRequest = errors.New("userId, title and body are required")

// Bell asks for an in-app notification row next to the push.
type Bell struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// Request is one notify intent for one user.
type Request struct {
	UserID string                 `json:"userId"`
	Title  string                 `json:"title"`
	Body   string                 `json:"body"`
	Data   map[string]interface{} `json:"data,omitempty"`
	Bell   *Bell                  `json:"bell,omitempty"`
}

// Validate checks the required fields.
func (r Request) Validate() error {
	if strings.TrimSpace(r.UserID) == "" || strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Body) == "" {
		return ErrInvalidRequest
	}
	return nil
}

// Result reports what a dispatch did.
type Result struct {
	Sent   int `json:"sent"`
	Pruned int `json:"pruned"`
	// NoTokens is set when the user had no active device.
	NoTokens bool `json:"-"`
	// Batches is the number of send requests issued.
	Batches int `json:"-"`
}

// TokenStore is the device token store. databases.PushTokenDatabase satisfies it.
type TokenStore interface {
	FindActive(ctx context.Context, userID string) ([]models.PushToken, error)
	FindByToken(ctx context.Context, token string) (*models.PushToken, error)
	Revoke(ctx context.Context, token string, at time.Time) error
	Delete(ctx context.Context, token string) error
}

// ProfileStore reads the single token mirrored on the user profile and drops
// a token from every profile mirroring it.
type ProfileStore interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	ReleaseLegacyPushToken(ctx context.Context, token string) error
}

// BellStore records in-app notifications.
type BellStore interface {
	InsertOne(ctx context.Context, n models.Notification) error
}

// Broadcaster pushes a bell row to the user's open app sessions.
type Broadcaster interface {
	Broadcast(userID string, n models.Notification)
}

// Dispatcher sends a notification to every active device of a user. Profiles,
// Bells and Live are optional.
type Dispatcher struct {
	Tokens   TokenStore
	Profiles ProfileStore
	Bells    BellStore
	Live     Broadcaster
	Sender   Sender
	Log      *zap.SugaredLogger
	// BatchLimit defaults to ExpoBatchLimit.
	BatchLimit int

	now   func() time.Time
	idGen func() string
}

// Notify delivers req. Only a missing required field or a failure to read the
// token store is returned as an error; send, prune and bell failures are logged
// and reflected in the counts.
func (d *Dispatcher) Notify(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	log := logging.Or(d.Log).With("userId", req.UserID)

	tokens, err := d.collectTokens(ctx, log, req.UserID)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if len(tokens) == 0 {
		log.Infow("no active push tokens, skipping send")
		res.NoTokens = true
	} else {
		res = d.send(ctx, log, req, tokens)
	}

	if req.Bell != nil {
		d.ring(ctx, log, req.UserID, *req.Bell)
	}
	return res, nil
}

// collectTokens returns the union of the profile mirror and the active device
// rows, without duplicates. The mirror is skipped when the device store holds
// it revoked or under another user.
func (d *Dispatcher) collectTokens(ctx context.Context, log *zap.SugaredLogger, userID string) ([]string, error) {
	seen := make(map[string]bool)
	var tokens []string
	add := func(token string) {
		token = strings.TrimSpace(token)
		if token == "" || seen[token] {
			return
		}
		seen[token] = true
		tokens = append(tokens, token)
	}

	var mirror string
	if d.Profiles != nil {
		user, err := d.Profiles.FindByID(ctx, userID)
		switch {
		case err == nil:
			mirror = strings.TrimSpace(user.Details.PushToken)
		case errors.Is(err, databases.ErrNotFound):
		default:
			log.Warnw("failed to read profile push token", "error", err)
		}
	}

	rows, err := d.Tokens.FindActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find active push tokens: %w", err)
	}
	for _, row := range rows {
		if row.Active() {
			add(row.Token)
		}
	}

	if mirror != "" && !seen[mirror] && d.mirrorUsable(ctx, log, userID, mirror) {
		add(mirror)
	}
	return tokens, nil
}

// mirrorUsable reports whether a profile token missing from the user's active
// rows may still be sent to. Tokens the device store never saw are legacy
// registrations and stay usable.
func (d *Dispatcher) mirrorUsable(ctx context.Context, log *zap.SugaredLogger, userID, token string) bool {
	row, err := d.Tokens.FindByToken(ctx, token)
	switch {
	case errors.Is(err, databases.ErrNotFound):
		return true
	case err != nil:
		log.Warnw("failed to look up profile push token, skipping it", "error", err)
		return false
	case row.UserID != userID:
		log.Infow("profile push token now belongs to another user, skipping it")
		return false
	case !row.Active():
		log.Infow("profile push token is revoked, skipping it")
		return false
	}
	return true
}

func (d *Dispatcher) send(ctx context.Context, log *zap.SugaredLogger, req Request, tokens []string) Result {
	limit := d.BatchLimit
	if limit <= 0 || limit > ExpoBatchLimit {
		limit = ExpoBatchLimit
	}

	var res Result
	var prune []string
	for i := 0; i < len(tokens); i += limit {
		end := i + limit
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[i:end]

		res.Batches++
		tickets, err := d.Sender.SendBatch(ctx, buildMessages(req, batch))
		if err != nil {
			log.Errorw("failed to send push batch", "from", i, "to", end-1, "error", err)
			// continue with remaining batches even if one fails
			continue
		}

		for j, ticket := range tickets {
			if j >= len(batch) {
				break
			}
			switch {
			case ticket.Status == ticketStatusOK:
				res.Sent++
			case IsPermanent(ticket):
				prune = append(prune, batch[j])
			default:
				log.Warnw("push ticket error", "error", ticket.ErrorCode(), "message", ticket.Message)
			}
		}
	}

	for _, token := range prune {
		if d.prune(ctx, log, token) {
			res.Pruned++
		}
	}
	log.Infow("push dispatch finished", "tokens", len(tokens), "sent", res.Sent, "pruned", res.Pruned)
	return res
}

func buildMessages(req Request, tokens []string) []models.ExpoPushMessage {
	messages := make([]models.ExpoPushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, models.ExpoPushMessage{
			To:        token,
			Title:     req.Title,
			Body:      req.Body,
			Sound:     "default",
			Data:      req.Data,
			Priority:  "high",
			ChannelID: "default",
		})
	}
	return messages
}

// prune revokes token, or deletes it when the store has no revocation column,
// and drops it from every profile mirror.
func (d *Dispatcher) prune(ctx context.Context, log *zap.SugaredLogger, token string) bool {
	err := d.Tokens.Revoke(ctx, token, d.clock())
	if databases.IsMissingColumnError(err) {
		log.Infow("token store cannot revoke, deleting token instead")
		err = d.Tokens.Delete(ctx, token)
	}
	if err != nil {
		log.Errorw("failed to prune push token", "error", err)
		return false
	}

	if d.Profiles != nil {
		if err := d.Profiles.ReleaseLegacyPushToken(ctx, token); err != nil {
			log.Warnw("failed to clear profile push token", "error", err)
		}
	}
	return true
}

func (d *Dispatcher) ring(ctx context.Context, log *zap.SugaredLogger, userID string, bell Bell) {
	if d.Bells == nil {
		return
	}
	id := uuid.NewString
	if d.idGen != nil {
		id = d.idGen
	}
	n := models.Notification{
		ID:        id(),
		UserID:    userID,
		Type:      bell.Type,
		Data:      bell.Data,
		CreatedAt: d.clock(),
	}
	if err := d.Bells.InsertOne(ctx, n); err != nil {
		log.Errorw("failed to insert bell notification", "type", bell.Type, "error", err)
		return
	}
	if d.Live != nil {
		d.Live.Broadcast(userID, n)
	}
}

func (d *Dispatcher) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now().UTC()
}
