package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PutEvidence stores a photo payload under key.
func PutEvidence(ctx context.Context, db *sql.DB, key string, data []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO evidence (ref, data, mime) VALUES (?, ?, ?)`,
		key, data, mime,
	)
	if err != nil {
		return fmt.Errorf("storing evidence: %w", err)
	}
	return nil
}

// GetEvidence returns the payload and MIME type stored under key. A missing key
// returns nil data and no error.
func GetEvidence(ctx context.Context, db *sql.DB, key string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM evidence WHERE ref = ?`, key,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting evidence: %w", err)
	}
	return data, mime, nil
}
