package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

const settingSigningKey = "session_signing_key"

// SigningKey returns the persisted session signing key, creating it on first
// use. Concurrent first calls all read back the same winner.
func SigningKey(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating signing key: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		settingSigningKey, hex.EncodeToString(buf),
	); err != nil {
		return "", fmt.Errorf("storing signing key: %w", err)
	}

	var key string
	if err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingSigningKey,
	).Scan(&key); err != nil {
		return "", fmt.Errorf("reading signing key: %w", err)
	}
	return key, nil
}

// RevokeSession blocks a session token id until it would have expired anyway.
func RevokeSession(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return PurgeRevokedSessions(ctx, db, time.Now().UTC())
}

// PurgeRevokedSessions drops revocations whose tokens expired before now.
func PurgeRevokedSessions(ctx context.Context, db *sql.DB, now time.Time) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC()); err != nil {
		return fmt.Errorf("purging revoked sessions: %w", err)
	}
	return nil
}

// SessionRevoked reports whether jti was revoked.
func SessionRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&n); err != nil {
		return false, fmt.Errorf("checking session revocation: %w", err)
	}
	return n > 0, nil
}
