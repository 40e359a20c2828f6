package databases

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrMissingColumn is returned by stores that detect schema drift themselves
var ErrMissingColumn = errors.New("column does not exist")

const (
	// postgres undefined_column
	pgUndefinedColumn = "42703"
	// mongo DocumentValidationFailure, raised when a collection validator
	// rejects a field it does not know about
	mongoDocumentValidationFailure = 121
)

// IsMissingColumnError reports whether err means the store has no column (or
// validated field) for a value being written. It is the only place that knows how
// each backend reports schema drift.
func IsMissingColumnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingColumn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedColumn
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorCode(mongoDocumentValidationFailure)
	}

	// REST gateways in front of postgres only hand back the message text
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "column") &&
		(strings.Contains(msg, "does not exist") || strings.Contains(msg, "could not find"))
}
