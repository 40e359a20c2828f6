package databases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/linesmerrill/drynks-api/models"
)

const createDeviceTokensTable = `CREATE TABLE IF NOT EXISTS device_tokens (
	token      TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	platform   TEXT NOT NULL DEFAULT '',
	revoked_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS device_tokens_user_id_idx ON device_tokens (user_id);`

// PostgresPushTokenDatabase stores device tokens in the device_tokens table.
// Older deployments of that table have no revoked_at column; reads and
// registrations degrade to treating every row as active there, and revocation
// reports the drift so callers can fall back to deleting the row.
type PostgresPushTokenDatabase struct {
	db *sql.DB
}

// NewPostgresPushTokenDatabase opens and pings the postgres database at dbURL
func NewPostgresPushTokenDatabase(ctx context.Context, dbURL string) (*PostgresPushTokenDatabase, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("db url is required")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &PostgresPushTokenDatabase{db: db}, nil
}

// Close closes the underlying pool
func (s *PostgresPushTokenDatabase) Close() error {
	return s.db.Close()
}

// Migrate creates the device_tokens table when it does not exist yet
func (s *PostgresPushTokenDatabase) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createDeviceTokensTable); err != nil {
		return fmt.Errorf("migrate device_tokens: %w", err)
	}
	return nil
}

func (s *PostgresPushTokenDatabase) FindActive(ctx context.Context, userID string) ([]models.PushToken, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, token, platform, created_at, updated_at
		   FROM device_tokens
		  WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if IsMissingColumnError(err) {
		rows, err = s.db.QueryContext(ctx,
			`SELECT user_id, token, platform, created_at, updated_at
			   FROM device_tokens
			  WHERE user_id = $1`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.PushToken
	for rows.Next() {
		var t models.PushToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate device tokens: %w", err)
	}
	return tokens, nil
}

// FindByToken returns the row for token whatever its state, or ErrNotFound.
// Without a revoked_at column every row reads as active.
func (s *PostgresPushTokenDatabase) FindByToken(ctx context.Context, token string) (*models.PushToken, error) {
	var t models.PushToken
	var revokedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, token, platform, revoked_at, created_at, updated_at
		   FROM device_tokens
		  WHERE token = $1`, token).
		Scan(&t.UserID, &t.Token, &t.Platform, &revokedAt, &t.CreatedAt, &t.UpdatedAt)
	if IsMissingColumnError(err) {
		err = s.db.QueryRowContext(ctx,
			`SELECT user_id, token, platform, created_at, updated_at
			   FROM device_tokens
			  WHERE token = $1`, token).
			Scan(&t.UserID, &t.Token, &t.Platform, &t.CreatedAt, &t.UpdatedAt)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find device token: %w", err)
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	return &t, nil
}

func (s *PostgresPushTokenDatabase) Register(ctx context.Context, token models.PushToken) error {
	now := token.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO device_tokens (token, user_id, platform, revoked_at, created_at, updated_at)
		 VALUES ($1, $2, $3, NULL, $4, $4)
		 ON CONFLICT (token) DO UPDATE
		    SET user_id = EXCLUDED.user_id,
		        platform = EXCLUDED.platform,
		        revoked_at = NULL,
		        updated_at = EXCLUDED.updated_at`,
		token.Token, token.UserID, token.Platform, now)
	if IsMissingColumnError(err) {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO device_tokens (token, user_id, platform, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $4)
			 ON CONFLICT (token) DO UPDATE
			    SET user_id = EXCLUDED.user_id,
			        platform = EXCLUDED.platform,
			        updated_at = EXCLUDED.updated_at`,
			token.Token, token.UserID, token.Platform, now)
	}
	if err != nil {
		return fmt.Errorf("register device token: %w", err)
	}
	return nil
}

// Revoke soft deletes the token. On a table without revoked_at the returned
// error satisfies IsMissingColumnError.
func (s *PostgresPushTokenDatabase) Revoke(ctx context.Context, token string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE device_tokens SET revoked_at = $2, updated_at = $2 WHERE token = $1`,
		token, at)
	if err != nil {
		return fmt.Errorf("revoke device token: %w", err)
	}
	return nil
}

func (s *PostgresPushTokenDatabase) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete device token: %w", err)
	}
	return nil
}

// RevokeForUser revokes token only while it belongs to userID and reports
// whether a row matched. Schema drift surfaces as in Revoke.
func (s *PostgresPushTokenDatabase) RevokeForUser(ctx context.Context, userID, token string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE device_tokens SET revoked_at = $3, updated_at = $3 WHERE user_id = $1 AND token = $2`,
		userID, token, at)
	if err != nil {
		return false, fmt.Errorf("revoke device token: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *PostgresPushTokenDatabase) DeleteForUser(ctx context.Context, userID, token string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return false, fmt.Errorf("delete device token: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *PostgresPushTokenDatabase) DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM device_tokens WHERE revoked_at IS NOT NULL AND revoked_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete revoked device tokens: %w", err)
	}
	return res.RowsAffected()
}
