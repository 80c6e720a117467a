// Package git implements the VCS port by shelling out to the git CLI of a
// local clone.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mfrayne/bitpane/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.VCS = (*Engine)(nil)

// Engine runs git commands against one working tree.
type Engine struct {
	dir string
}

// NewEngine creates an Engine bound to the given working tree directory.
func NewEngine(dir string) *Engine {
	return &Engine{dir: dir}
}

// MergeBase returns the most recent common ancestor of the two refs.
func (e *Engine) MergeBase(ctx context.Context, ref1, ref2 string) (string, error) {
	out, err := e.run(ctx, "merge-base", ref1, ref2)
	if err != nil {
		return "", fmt.Errorf("merge-base %s %s: %w", ref1, ref2, err)
	}
	return strings.TrimSpace(out), nil
}

// Show returns the contents of path at the given commit. It fails when the
// object is not in the local object store.
func (e *Engine) Show(ctx context.Context, commitHash, path string) (string, error) {
	out, err := e.run(ctx, "show", commitHash+":"+path)
	if err != nil {
		return "", fmt.Errorf("show %s:%s: %w", commitHash, path, err)
	}
	return out, nil
}

// Fetch updates the named remote; ref restricts the fetch to one ref when
// non-empty.
func (e *Engine) Fetch(ctx context.Context, remote, ref string) error {
	args := []string{"fetch"}
	if remote != "" {
		args = append(args, remote)
		if ref != "" {
			args = append(args, ref)
		}
	}
	if _, err := e.run(ctx, args...); err != nil {
		return fmt.Errorf("fetch %s %s: %w", remote, ref, err)
	}
	return nil
}

func (e *Engine) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %s: %w", args[0], msg, err)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}
