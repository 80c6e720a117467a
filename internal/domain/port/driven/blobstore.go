package driven

import "context"

// BlobStore defines the driven port for the persistent file-content cache.
// Entries are keyed by (commit hash, path); commits are immutable, so cached
// content never goes stale.
type BlobStore interface {
	// Get returns the cached content and true, or ("", false) on a miss.
	Get(ctx context.Context, commitHash, path string) (string, bool, error)
	Put(ctx context.Context, commitHash, path, content string) error
}
