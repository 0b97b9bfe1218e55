package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/RCarmona53/amazon-word-cloud/models"
)

// InsertURL parses and inserts a URL, returning the url_id.
// If the URL already exists, returns the existing url_id.
func (db *DB) InsertURL(ctx context.Context, rawURL string) (int64, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	var existingID int64
	err = db.QueryRowContext(ctx, "SELECT url_id FROM urls WHERE original_url = ?", rawURL).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing URL: %w", err)
	}

	// Canonical URL is scheme + host + path, no query/fragment
	canonicalURL := fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO urls (original_url, canonical_url, scheme, domain, path)
		VALUES (?, ?, ?, ?, ?)
	`, rawURL, canonicalURL, parsed.Scheme, parsed.Host, parsed.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to insert URL: %w", err)
	}

	urlID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}

	if parsed.RawQuery != "" {
		params, err := url.ParseQuery(parsed.RawQuery)
		if err == nil {
			for key, values := range params {
				for _, value := range values {
					_, err = tx.ExecContext(ctx, `
						INSERT INTO url_query_params (url_id, key, value)
						VALUES (?, ?, ?)
					`, urlID, key, value)
					if err != nil {
						return 0, fmt.Errorf("failed to insert query param: %w", err)
					}
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit URL: %w", err)
	}
	return urlID, nil
}

// RecordAccess stores one request outcome, inserting the URL on first sight.
func (db *DB) RecordAccess(ctx context.Context, access models.Access) error {
	urlID, err := db.InsertURL(ctx, access.URL)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO url_accesses (url_id, outcome, error_type, word_count, language)
		VALUES (?, ?, ?, ?, ?)
	`, urlID, access.Outcome, NewNullString(access.ErrorType), access.WordCount, NewNullString(access.Language))
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	return nil
}

// RecentAccesses returns up to limit outcomes, newest first. An empty
// rawURL lists every URL.
func (db *DB) RecentAccesses(ctx context.Context, rawURL string, limit int) ([]models.Access, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT u.original_url, a.outcome, a.error_type, a.word_count, a.language, a.accessed_at
		FROM url_accesses a
		JOIN urls u ON u.url_id = a.url_id
	`
	args := []any{}
	if rawURL != "" {
		query += " WHERE u.original_url = ?"
		args = append(args, rawURL)
	}
	query += " ORDER BY a.access_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accesses: %w", err)
	}
	defer rows.Close()

	var accesses []models.Access
	for rows.Next() {
		var a models.Access
		var errorType, language sql.NullString
		if err := rows.Scan(&a.URL, &a.Outcome, &errorType, &a.WordCount, &language, &a.AccessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan access: %w", err)
		}
		a.ErrorType = errorType.String
		a.Language = language.String
		accesses = append(accesses, a)
	}
	return accesses, rows.Err()
}

// NewNullString returns a sql.NullString that is NULL for "".
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
