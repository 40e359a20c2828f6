package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/api"
	"github.com/linesmerrill/drynks-api/config"
	"github.com/linesmerrill/drynks-api/databases"
	"github.com/linesmerrill/drynks-api/invite"
	"github.com/linesmerrill/drynks-api/push"
)

const connectTimeout = 10 * time.Second

// App stores the router and db connection, so it can be reused
type App struct {
	Router *mux.Router
	Config config.Config
	// Tokens is the device token store picked by PUSH_TOKEN_STORE
	Tokens databases.PushTokenDatabase

	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper
	postgres *databases.PostgresPushTokenDatabase
	hub      *NotificationHub
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	authn := api.NewAuth(a.Config.JWTSecret)
	if a.hub == nil {
		a.hub = NewNotificationHub()
	}

	users := databases.NewUserDatabase(a.dbHelper)
	events := databases.NewEventDatabase(a.dbHelper)
	links := databases.NewInviteLinkDatabase(a.dbHelper)

	dispatcher := &push.Dispatcher{
		Tokens:   a.Tokens,
		Profiles: users,
		Bells:    databases.NewNotificationDatabase(a.dbHelper),
		Live:     a.hub,
		Sender:   push.NewExpoClient(a.Config.ExpoPushURL, a.Config.ExpoAccessToken),
	}
	var tx databases.TxRunner
	if a.client != nil {
		tx = databases.NewTxRunner(a.client)
	}
	service := invite.NewService(links, events, databases.NewMembershipRequestDatabase(a.dbHelper), tx, a.Config.InviteTTL)

	n := Notify{Dispatcher: dispatcher, Events: events}
	i := Invite{
		Service:    service,
		DB:         links,
		UDB:        users,
		Notifier:   dispatcher,
		ShortLinks: invite.NewBranchProvider(a.Config.BranchKey),
		LinkHost:   a.Config.LinkHost,
	}
	p := PushToken{DB: a.Tokens, UDB: users}

	r := mux.NewRouter()
	r.Use(api.RequestLogMiddleware)

	// healthchex
	r.HandleFunc("/health", api.HealthCheckHandler)

	// websockets hijack the connection, so they stay outside the timeout
	r.Handle("/ws/notifications", a.hub.HandleNotificationsWebSocket(authn)).Methods("GET")

	timeout := api.TimeoutMiddleware(a.Config.RequestTimeout)
	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(mux.MiddlewareFunc(timeout))

	// a wrong method is answered with 405 before the service key is checked
	apiCreate.Handle("/notify", api.MethodMiddleware(http.MethodPost)(
		api.ServiceKeyMiddleware(a.Config.ServiceKey)(http.HandlerFunc(n.NotifyHandler))))

	apiCreate.Handle("/auth/logout", authn.Middleware(http.HandlerFunc(authn.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/rpc/create_share_invite", authn.Middleware(http.HandlerFunc(i.CreateShareInviteHandler))).Methods("POST")
	apiCreate.Handle("/rpc/claim_invite_code", authn.Middleware(http.HandlerFunc(i.ClaimInviteCodeHandler))).Methods("POST")
	apiCreate.Handle("/invite", authn.Middleware(http.HandlerFunc(i.InviteByCodeHandler))).Methods("GET")

	apiCreate.Handle("/push-tokens", authn.Middleware(http.HandlerFunc(p.RegisterPushTokenHandler))).Methods("POST")
	apiCreate.Handle("/push-tokens/{token}", authn.Middleware(http.HandlerFunc(p.RevokePushTokenHandler))).Methods("DELETE")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	zap.S().Info("drynks-api has connected to the database")

	if err := a.initTokenStore(ctx); err != nil {
		return err
	}
	a.ensureIndexes(ctx)

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initTokenStore(ctx context.Context) error {
	switch a.Config.PushTokenStore {
	case "postgres":
		pg, err := databases.NewPostgresPushTokenDatabase(ctx, a.Config.PostgresURL)
		if err != nil {
			zap.S().Errorw("failed to connect to postgres", "error", err)
			return err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		a.postgres = pg
		a.Tokens = pg
		zap.S().Info("push tokens are stored in postgres")
	case "mongo", "":
		a.Tokens = databases.NewPushTokenDatabase(a.dbHelper)
	default:
		return fmt.Errorf("unknown push token store %q", a.Config.PushTokenStore)
	}
	return nil
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// ensureIndexes creates the unique indexes the claim and dispatch paths rely on.
// Failures are logged: the indexes usually exist already.
func (a *App) ensureIndexes(ctx context.Context) {
	stores := map[string]interface{}{
		"inviteLinks":        databases.NewInviteLinkDatabase(a.dbHelper),
		"membershipRequests": databases.NewMembershipRequestDatabase(a.dbHelper),
		"pushtokens":         a.Tokens,
	}
	for name, store := range stores {
		ix, ok := store.(indexer)
		if !ok {
			continue
		}
		if err := ix.EnsureIndexes(ctx); err != nil {
			zap.S().Warnw("failed to ensure indexes", "collection", name, "error", err)
		}
	}
}

// Close releases the database connections
func (a *App) Close(ctx context.Context) {
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			zap.S().Warnw("failed to close postgres", "error", err)
		}
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}
