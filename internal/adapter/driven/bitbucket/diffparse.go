package bitbucket

import (
	"strconv"
	"strings"
)

// lineMaps holds the per-side line numbers extracted from one file's hunks:
// the new-side numbers of added lines, the old-side numbers of deleted lines,
// and the new-to-old translation for context lines, which is what lets a
// comment anchored on one side be positioned on the other.
type lineMaps struct {
	added   []int
	deleted []int
	context map[int]int
}

// parseDiffLineMaps walks a raw unified diff and produces line maps keyed by
// each file's current path (the b-side path, or the a-side for deletions).
func parseDiffLineMaps(diff string) map[string]lineMaps {
	out := make(map[string]lineMaps)

	var (
		path    string
		current lineMaps
		oldLine int
		newLine int
		inHunk  bool
	)

	flush := func() {
		if path != "" {
			out[path] = current
		}
		path = ""
		current = lineMaps{context: make(map[int]int)}
		inHunk = false
	}
	current = lineMaps{context: make(map[int]int)}

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git"):
			flush()
		case strings.HasPrefix(line, "+++ b/"):
			path = strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "--- a/"):
			if path == "" {
				path = strings.TrimPrefix(line, "--- a/")
			}
		case strings.HasPrefix(line, "@@"):
			oldLine, newLine = parseHunkHeader(line)
			inHunk = oldLine > 0 || newLine > 0
		case !inHunk:
			// Header noise between files (index lines, mode changes).
		case strings.HasPrefix(line, "+"):
			current.added = append(current.added, newLine)
			newLine++
		case strings.HasPrefix(line, "-"):
			current.deleted = append(current.deleted, oldLine)
			oldLine++
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file" advances neither side.
		default:
			current.context[newLine] = oldLine
			oldLine++
			newLine++
		}
	}
	flush()

	return out
}

// parseHunkHeader extracts the starting line numbers from a header of the
// form "@@ -oldStart,oldCount +newStart,newCount @@". Returns (0, 0) when the
// header is malformed.
func parseHunkHeader(header string) (oldStart, newStart int) {
	fields := strings.Fields(header)
	if len(fields) < 3 {
		return 0, 0
	}
	oldStart = parseHunkField(fields[1], "-")
	newStart = parseHunkField(fields[2], "+")
	return oldStart, newStart
}

func parseHunkField(field, prefix string) int {
	field = strings.TrimPrefix(field, prefix)
	if i := strings.Index(field, ","); i >= 0 {
		field = field[:i]
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0
	}
	return n
}
