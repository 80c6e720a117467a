package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mfrayne/bitpane/internal/domain/model"
	"github.com/mfrayne/bitpane/internal/domain/port/driven"
)

// ErrContentUnavailable reports that a file could not be materialized at the
// requested commit from any source. The usual cause is a force-push that
// rewrote the commit out of the remote's indexed history.
var ErrContentUnavailable = errors.New("could not find file at this commit, possibly due to history rewrite")

// ContentService materializes file contents for diff views. It races a local
// object-store lookup against a remote API fetch and takes the first source
// to succeed: a reviewer's clone may hold commits the remote has rewritten
// away, and the remote holds commits a stale clone has never fetched.
type ContentService struct {
	vcs        driven.VCS // Nil when no local clone is bound.
	remoteName string
	client     driven.RemotePRClient
	blobs      driven.BlobStore // Optional persistent cache; may be nil.
}

// NewContentService creates a ContentService. vcs and blobs may be nil;
// remoteName is the bound workspace's remote and is only used for the
// fetch-and-retry path.
func NewContentService(vcs driven.VCS, remoteName string, client driven.RemotePRClient, blobs driven.BlobStore) *ContentService {
	return &ContentService{vcs: vcs, remoteName: remoteName, client: client, blobs: blobs}
}

type contentResult struct {
	text string
	err  error
}

// Resolve returns the contents of path at commitHash. The blob cache is
// consulted first; on a miss the local and remote lookups run concurrently
// and the first success wins. A losing lookup is not cancelled; its result is
// discarded. When every source fails the result is empty content and
// ErrContentUnavailable.
func (s *ContentService) Resolve(ctx context.Context, site model.SiteRef, path, commitHash, branch string) (string, error) {
	if s.blobs != nil && commitHash != "" {
		text, ok, err := s.blobs.Get(ctx, commitHash, path)
		if err != nil {
			slog.Debug("blob cache read failed", "commit", commitHash, "path", path, "error", err)
		} else if ok {
			return text, nil
		}
	}

	results := make(chan contentResult, 2)
	sources := 1

	go func() {
		text, err := s.client.GetFileContent(ctx, site, commitHash, path)
		results <- contentResult{text: text, err: err}
	}()

	if s.vcs != nil {
		sources++
		go func() {
			text, err := s.localLookup(ctx, commitHash, path, branch)
			results <- contentResult{text: text, err: err}
		}()
	}

	var lastErr error
	for i := 0; i < sources; i++ {
		r := <-results
		if r.err == nil {
			s.cache(ctx, commitHash, path, r.text)
			return r.text, nil
		}
		lastErr = r.err
	}

	slog.Warn("content resolution exhausted all sources",
		"commit", commitHash,
		"path", path,
		"error", lastErr,
	)
	return "", ErrContentUnavailable
}

// localLookup reads the blob from the bound clone, fetching once and retrying
// when the object is missing locally.
func (s *ContentService) localLookup(ctx context.Context, commitHash, path, branch string) (string, error) {
	text, err := s.vcs.Show(ctx, commitHash, path)
	if err == nil {
		return text, nil
	}

	slog.Debug("local blob missing, fetching before retry",
		"commit", commitHash,
		"path", path,
		"error", err,
	)
	if fetchErr := s.vcs.Fetch(ctx, s.remoteName, branch); fetchErr != nil {
		return "", fetchErr
	}
	return s.vcs.Show(ctx, commitHash, path)
}

func (s *ContentService) cache(ctx context.Context, commitHash, path, text string) {
	if s.blobs == nil || commitHash == "" {
		return
	}
	if err := s.blobs.Put(ctx, commitHash, path, text); err != nil {
		slog.Debug("blob cache write failed", "commit", commitHash, "path", path, "error", err)
	}
}
