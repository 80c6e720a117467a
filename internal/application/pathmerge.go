// Package application contains the diff and comment reconciliation services.
package application

import "strings"

// MergePaths merges a file's old and new paths into a single display path,
// following the usual version-control rename convention: the shared prefix is
// kept outside braces and the diverging suffixes go inside, so
// "A/B/C/D/f" + "A/B/E/D/f" becomes "A/B/{C/D/f → E/D/f}". Paths with no
// shared prefix render as "{old → new}". Identical paths are returned as-is.
func MergePaths(oldPath, newPath string) string {
	if oldPath == newPath {
		return oldPath
	}

	oldParts := strings.Split(oldPath, "/")
	newParts := strings.Split(newPath, "/")

	i := 0
	for i < len(oldParts) && i < len(newParts) && oldParts[i] == newParts[i] {
		i++
	}

	oldSuffix := strings.Join(oldParts[i:], "/")
	newSuffix := strings.Join(newParts[i:], "/")

	if i == 0 {
		return "{" + oldSuffix + " → " + newSuffix + "}"
	}

	prefix := strings.Join(oldParts[:i], "/")
	return prefix + "/{" + oldSuffix + " → " + newSuffix + "}"
}
