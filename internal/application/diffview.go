package application

import (
	"context"
	"log/slog"

	"github.com/mfrayne/bitpane/internal/domain/model"
	"github.com/mfrayne/bitpane/internal/domain/port/driven"
)

// conflictMarker prefixes the display name of files carrying merge conflicts.
const conflictMarker = "⚠️ "

// FileIdentity pins down exactly which blob version one side of a diff view
// renders, along with the line metadata needed to place comment anchors. It
// crosses the host's view boundary and therefore must round-trip through JSON
// (see the panel codec).
type FileIdentity struct {
	Host         string      `json:"host"`
	Repo         string      `json:"repo"`
	RepoURI      string      `json:"repoUri,omitempty"` // Local clone dir when a workspace is bound.
	Branch       string      `json:"branchName"`
	CommitHash   string      `json:"commitHash"`
	Path         string      `json:"path"`
	PRID         string      `json:"prId"`
	CommitLevel  bool        `json:"commitLevel"` // Commit-level (vs PR-level) diff.
	AddedLines   []int       `json:"addedLines,omitempty"`
	DeletedLines []int       `json:"deletedLines,omitempty"`
	LineContext  map[int]int `json:"lineContext,omitempty"`
}

// SideView is one half of a two-sided diff: the blob identity plus the
// comment threads anchored to that side. Each thread is its root comment with
// replies nested beneath it.
type SideView struct {
	Identity FileIdentity    `json:"identity"`
	Threads  []model.Comment `json:"threads,omitempty"`
}

// DiffViewArgs is the full descriptor for opening one changed file: the left
// (pre-image) and right (post-image) sides and display metadata.
type DiffViewArgs struct {
	DisplayPath   string   `json:"displayPath"`
	Left          SideView `json:"left"`
	Right         SideView `json:"right"`
	TotalComments int      `json:"totalComments"`
}

// CommitRange narrows a diff view to a single commit range for commit-level
// review instead of the whole pull request.
type CommitRange struct {
	Base string
	Tip  string
}

// DiffViewService computes diff view descriptors. vcs is the engine bound to
// the pull request's local workspace, or nil when no clone is bound.
type DiffViewService struct {
	vcs driven.VCS
}

// NewDiffViewService creates a DiffViewService. vcs may be nil.
func NewDiffViewService(vcs driven.VCS) *DiffViewService {
	return &DiffViewService{vcs: vcs}
}

// Build computes the two-sided view descriptor for one changed file.
//
// The left side is anchored at the merge base of the PR's destination and
// source so the diff shows only the PR's own changes, not unrelated commits
// that landed on the destination afterwards. When the merge base cannot be
// resolved the PR's recorded destination commit is used instead; that
// fallback is logged, never surfaced. comments is the PR's nested comment
// forest; only threads inline to this file are bucketed into the sides.
func (s *DiffViewService) Build(ctx context.Context, comments []model.Comment, fd model.FileDiff, pr model.PullRequest, commitRange *CommitRange) *DiffViewArgs {
	destRef := pr.Destination.Branch
	sourceRef := pr.Source.Branch
	if pr.Workspace != nil {
		destRef = pr.Workspace.RemoteName + "/" + destRef
		sourceRef = pr.Workspace.RemoteName + "/" + sourceRef
	}

	leftCommit := s.resolveMergeBase(ctx, pr, destRef, sourceRef)
	rightCommit := pr.Source.CommitHash
	commitLevel := false
	if commitRange != nil {
		leftCommit = commitRange.Base
		rightCommit = commitRange.Tip
		commitLevel = true
	}

	displayPath := displayName(fd)

	leftThreads, rightThreads := partitionThreads(comments, fd)

	total := 0
	for _, t := range leftThreads {
		total += t.CountWithReplies()
	}
	for _, t := range rightThreads {
		total += t.CountWithReplies()
	}

	repoURI := ""
	if pr.Workspace != nil {
		repoURI = pr.Workspace.Dir
	}

	identity := FileIdentity{
		Host:         pr.Site.Host,
		Repo:         pr.Site.FullName(),
		RepoURI:      repoURI,
		PRID:         pr.ID,
		CommitLevel:  commitLevel,
		AddedLines:   fd.AddedLines,
		DeletedLines: fd.DeletedLines,
		LineContext:  fd.LineContext,
	}

	left := identity
	left.Branch = destRef
	left.CommitHash = leftCommit
	left.Path = fd.OldPath

	right := identity
	right.Branch = sourceRef
	right.CommitHash = rightCommit
	right.Path = fd.NewPath

	return &DiffViewArgs{
		DisplayPath:   displayPath,
		Left:          SideView{Identity: left, Threads: leftThreads},
		Right:         SideView{Identity: right, Threads: rightThreads},
		TotalComments: total,
	}
}

func (s *DiffViewService) resolveMergeBase(ctx context.Context, pr model.PullRequest, destRef, sourceRef string) string {
	if pr.Workspace == nil || s.vcs == nil {
		return pr.Destination.CommitHash
	}
	base, err := s.vcs.MergeBase(ctx, destRef, sourceRef)
	if err != nil {
		slog.Warn("merge base lookup failed, falling back to destination commit",
			"pr", pr.ID,
			"destination", destRef,
			"source", sourceRef,
			"error", err,
		)
		return pr.Destination.CommitHash
	}
	return base
}

func displayName(fd model.FileDiff) string {
	var name string
	switch {
	case fd.OldPath != "" && fd.NewPath != "":
		name = MergePaths(fd.OldPath, fd.NewPath)
	case fd.NewPath != "":
		name = fd.NewPath
	default:
		name = fd.OldPath
	}
	if fd.Status == model.FileStatusConflict {
		return conflictMarker + name
	}
	return name
}

// partitionThreads buckets the file's inline threads by side: a thread whose
// root is anchored by a "from" line predates the change and belongs to the
// left side, one anchored by "to" belongs to the right.
func partitionThreads(comments []model.Comment, fd model.FileDiff) (left, right []model.Comment) {
	for _, c := range comments {
		if !c.IsInline() {
			continue
		}
		if c.Inline.Path != fd.OldPath && c.Inline.Path != fd.NewPath {
			continue
		}
		if c.Inline.Side() == model.SideLeft {
			left = append(left, c)
		} else {
			right = append(right, c)
		}
	}
	return left, right
}
