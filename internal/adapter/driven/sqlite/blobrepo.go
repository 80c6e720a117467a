package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mfrayne/bitpane/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BlobStore = (*BlobRepo)(nil)

// BlobRepo is the SQLite implementation of the BlobStore port. Entries are
// keyed by (commit hash, path); since commits are immutable the cache needs
// no invalidation, only bounded growth (Prune).
type BlobRepo struct {
	db *DB
}

// NewBlobRepo creates a new BlobRepo.
func NewBlobRepo(db *DB) *BlobRepo {
	return &BlobRepo{db: db}
}

// Get returns the cached content for (commitHash, path) and true, or
// ("", false) on a miss.
func (r *BlobRepo) Get(ctx context.Context, commitHash, path string) (string, bool, error) {
	const query = `SELECT content FROM blobs WHERE commit_hash = ? AND path = ?`

	var content string
	err := r.db.Reader.QueryRowContext(ctx, query, commitHash, path).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get blob %s:%s: %w", commitHash, path, err)
	}
	return content, true, nil
}

// Put stores or replaces the content for (commitHash, path).
func (r *BlobRepo) Put(ctx context.Context, commitHash, path, content string) error {
	const query = `INSERT OR REPLACE INTO blobs (commit_hash, path, content, cached_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`

	_, err := r.db.Writer.ExecContext(ctx, query, commitHash, path, content)
	if err != nil {
		return fmt.Errorf("put blob %s:%s: %w", commitHash, path, err)
	}
	return nil
}

// Prune deletes cached blobs beyond the most recent keep entries.
func (r *BlobRepo) Prune(ctx context.Context, keep int) error {
	const query = `DELETE FROM blobs WHERE rowid NOT IN (SELECT rowid FROM blobs ORDER BY cached_at DESC LIMIT ?)`

	_, err := r.db.Writer.ExecContext(ctx, query, keep)
	if err != nil {
		return fmt.Errorf("prune blobs: %w", err)
	}
	return nil
}
