package driven

import "context"

// VCS defines the driven port for the local version-control engine, bound to
// a single working tree.
type VCS interface {
	// MergeBase returns the most recent common ancestor of the two refs.
	MergeBase(ctx context.Context, ref1, ref2 string) (string, error)
	// Show returns the contents of path at the given commit. It fails when
	// the object is absent from the local object store.
	Show(ctx context.Context, commitHash, path string) (string, error)
	// Fetch updates the named remote, optionally restricted to one ref.
	Fetch(ctx context.Context, remote, ref string) error
}
