package model

// PRState represents the state of a pull request.
type PRState string

const (
	PRStateOpen       PRState = "OPEN"
	PRStateMerged     PRState = "MERGED"
	PRStateSuperseded PRState = "SUPERSEDED"
	PRStateDeclined   PRState = "DECLINED"
)

// FileStatus represents the kind of change a FileDiff describes.
type FileStatus string

const (
	FileStatusAdded    FileStatus = "added"
	FileStatusDeleted  FileStatus = "deleted"
	FileStatusCopied   FileStatus = "copied"
	FileStatusModified FileStatus = "modified"
	FileStatusRenamed  FileStatus = "renamed"
	FileStatusConflict FileStatus = "conflict"
	FileStatusUnknown  FileStatus = "unknown"
)

// DiffSide identifies which side of a two-sided diff an inline anchor targets.
type DiffSide string

const (
	SideLeft  DiffSide = "left"  // Pre-image; anchored by the "from" line.
	SideRight DiffSide = "right" // Post-image; anchored by the "to" line.
)

// LineType classifies the diff line an inline comment lands on.
type LineType string

const (
	LineTypeAdded   LineType = "ADDED"
	LineTypeRemoved LineType = "REMOVED"
	LineTypeContext LineType = "CONTEXT"
)

// BuildState represents the outcome of a CI build attached to a pull request.
type BuildState string

const (
	BuildStateSuccessful BuildState = "SUCCESSFUL"
	BuildStateFailed     BuildState = "FAILED"
	BuildStateInProgress BuildState = "INPROGRESS"
	BuildStateStopped    BuildState = "STOPPED"
)
