package config

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/logging"
	"github.com/linesmerrill/drynks-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string `env:"DB_URI"`
	DatabaseName string `env:"DB_NAME"`
	BaseURL      string `env:"BASE_URL"`
	Port         string `env:"PORT" envDefault:"8080"`
	Env          string `env:"ENV" envDefault:"production"`

	// JWTSecret verifies the access tokens the mobile app sends as bearer tokens.
	JWTSecret string `env:"JWT_SECRET"`
	// ServiceKey guards the notify endpoint, which is only called by trusted backends.
	ServiceKey string `env:"SERVICE_KEY"`

	LinkHost  string        `env:"LINK_HOST" envDefault:"dr-ynks.app.link"`
	AppScheme string        `env:"APP_SCHEME" envDefault:"drynks"`
	InviteTTL time.Duration `env:"INVITE_TTL" envDefault:"336h"`
	BranchKey string        `env:"BRANCH_KEY"`

	ExpoAccessToken string `env:"EXPO_ACCESS_TOKEN"`
	ExpoPushURL     string `env:"EXPO_PUSH_URL" envDefault:"https://exp.host/--/api/v2/push/send"`

	PushTokenStore        string        `env:"PUSH_TOKEN_STORE" envDefault:"mongo"`
	PostgresURL           string        `env:"POSTGRES_URL"`
	RevokedTokenRetention time.Duration `env:"REVOKED_TOKEN_RETENTION" envDefault:"2160h"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// New sets up all config related services
func New() *Config {
	conf := &Config{}
	parseErr := env.Parse(conf)
	if parseErr != nil {
		// keep whatever parsed and fill the rest with defaults below
		applyDefaults(conf)
	}

	//setup zap logger and replace default logger
	logger, err := setLogger(conf.Env)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	if parseErr != nil {
		zap.S().Warnw("failed to parse environment, using defaults", "error", parseErr)
	}
	return conf
}

func setLogger(environment string) (*zap.Logger, error) {
	return logging.New(environment)
}

func applyDefaults(conf *Config) {
	if conf.Port == "" {
		conf.Port = "8080"
	}
	if conf.Env == "" {
		conf.Env = "production"
	}
	if conf.LinkHost == "" {
		conf.LinkHost = "dr-ynks.app.link"
	}
	if conf.AppScheme == "" {
		conf.AppScheme = "drynks"
	}
	if conf.InviteTTL <= 0 {
		conf.InviteTTL = 14 * 24 * time.Hour
	}
	if conf.ExpoPushURL == "" {
		conf.ExpoPushURL = "https://exp.host/--/api/v2/push/send"
	}
	if conf.PushTokenStore == "" {
		conf.PushTokenStore = "mongo"
	}
	if conf.RevokedTokenRetention <= 0 {
		conf.RevokedTokenRetention = 90 * 24 * time.Hour
	}
	if conf.RequestTimeout <= 0 {
		conf.RequestTimeout = 30 * time.Second
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	zap.S().Errorw(message, "status", httpStatusCode, "error", errText)

	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: message, Error: errText}})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	w.Write(b)
}
