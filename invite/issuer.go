package invite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/logging"
	"github.com/linesmerrill/drynks-api/models"
)

// DefaultTTL is how long an issued invite can be claimed.
const DefaultTTL = 14 * 24 * time.Hour

// Link is a shareable invite.
type Link struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

// CodeCreator mints a code on the server under the caller's identity.
type CodeCreator interface {
	CreateShareInvite(ctx context.Context, resourceID string) (string, error)
}

// LinkInserter writes a new invite link row.
type LinkInserter interface {
	InsertOne(ctx context.Context, link models.InviteLink) error
}

// Issuer mints invite codes and turns them into share URLs. RPC and Links are
// tried in that order; either may be nil. ShortLinks is optional.
type Issuer struct {
	RPC        CodeCreator
	Links      LinkInserter
	ShortLinks ShortLinkProvider
	// Host is the universal link host of the fallback URL.
	Host string
	TTL  time.Duration
	Log  *zap.SugaredLogger

	now      func() time.Time
	generate func() (string, error)
}

// Issue returns a share link for resourceID. It fails only with
// ErrLinkCreationFailed; once a code exists the URL is always built.
func (i *Issuer) Issue(ctx context.Context, resourceID, inviterID string) (Link, error) {
	log := logging.Or(i.Log)
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return Link{}, fmt.Errorf("%w: %w", ErrLinkCreationFailed, ErrInvalidInput)
	}

	var tiers []Strategy[string]
	if i.RPC != nil {
		tiers = append(tiers, Strategy[string]{
			Name: "rpc",
			Attempt: func(ctx context.Context) (string, error) {
				return i.RPC.CreateShareInvite(ctx, resourceID)
			},
		})
	}
	if i.Links != nil {
		tiers = append(tiers, Strategy[string]{
			Name: "insert",
			Attempt: func(ctx context.Context) (string, error) {
				return i.insert(ctx, resourceID, inviterID)
			},
		})
	}

	code, tier, err := RunStrategies(ctx, log, tiers)
	if err != nil {
		log.Warnw("failed to create invite link", "resourceId", resourceID, "error", err)
		return Link{}, fmt.Errorf("%w: %w", ErrLinkCreationFailed, err)
	}

	link := Link{Code: code, URL: ShareURL(ctx, log, i.ShortLinks, i.Host, code, resourceID)}
	log.Debugw("issued invite link", "resourceId", resourceID, "tier", tier)
	return link, nil
}

func (i *Issuer) insert(ctx context.Context, resourceID, inviterID string) (string, error) {
	generate := i.generate
	if generate == nil {
		generate = GenerateCode
	}
	code, err := generate()
	if err != nil {
		return "", err
	}

	now := time.Now
	if i.now != nil {
		now = i.now
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	created := now().UTC()
	err = i.Links.InsertOne(ctx, models.InviteLink{
		Code:       code,
		ResourceID: resourceID,
		InviterID:  inviterID,
		ExpiresAt:  created.Add(ttl),
		CreatedAt:  created,
	})
	if err != nil {
		return "", err
	}
	return code, nil
}
