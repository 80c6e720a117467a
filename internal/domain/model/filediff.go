package model

// FileDiff describes one changed file between two refs.
//
// At least one of OldPath and NewPath is set. When both are set and differ,
// Status is FileStatusRenamed or FileStatusCopied.
type FileDiff struct {
	OldPath      string // Empty for added files.
	NewPath      string // Empty for deleted files.
	Status       FileStatus
	LinesAdded   int
	LinesRemoved int
	Similarity   int // Rename similarity percentage; 0 unless renamed/copied.

	// AddedLines and DeletedLines are the line numbers occupied by additions
	// (new side) and deletions (old side). LineContext translates a displayed
	// new-side line number to its old-side counterpart for context lines, so
	// comment anchors can be positioned on either side.
	AddedLines   []int
	DeletedLines []int
	LineContext  map[int]int

	HasConflicts bool
}

// Path returns the file's current path: the new path when present, otherwise
// the old path.
func (fd FileDiff) Path() string {
	if fd.NewPath != "" {
		return fd.NewPath
	}
	return fd.OldPath
}
