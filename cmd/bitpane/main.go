// Command bitpane wires the diff and comment reconciliation engine against a
// Bitbucket repository. Given a pull request id it loads the PR's details and
// prints the changed-file tree, exercising the full adapter stack.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for static binaries.

	"github.com/mfrayne/bitpane/internal/adapter/driven/bitbucket"
	gitadapter "github.com/mfrayne/bitpane/internal/adapter/driven/git"
	sqliteadapter "github.com/mfrayne/bitpane/internal/adapter/driven/sqlite"
	"github.com/mfrayne/bitpane/internal/application"
	"github.com/mfrayne/bitpane/internal/config"
	"github.com/mfrayne/bitpane/internal/domain/model"
	"github.com/mfrayne/bitpane/internal/domain/port/driven"
)

// maxCachedBlobs bounds the blob cache; entries beyond the most recently
// cached are pruned on exit.
const maxCachedBlobs = 512

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"workspace", cfg.Workspace,
		"repo", cfg.RepoSlug,
		"db_path", cfg.DBPath,
		"nest_files", cfg.NestFiles,
	)

	if !cfg.HasBitbucketCredentials() {
		return fmt.Errorf("bitbucket credentials not configured: set BITPANE_BB_USERNAME and BITPANE_BB_APP_PASSWORD")
	}

	prID := os.Getenv("BITPANE_PR_ID")
	if prID == "" {
		return fmt.Errorf("BITPANE_PR_ID is required")
	}

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	blobs := sqliteadapter.NewBlobRepo(db)
	slog.Info("blob cache ready", "path", cfg.DBPath)

	client := bitbucket.NewClient(cfg.BitbucketUsername, cfg.BitbucketAppPassword)

	pr := model.PullRequest{
		Site: model.SiteRef{Host: "bitbucket.org", Workspace: cfg.Workspace, RepoSlug: cfg.RepoSlug},
		ID:   prID,
		Source: model.RefSpec{
			Branch:     os.Getenv("BITPANE_SOURCE_BRANCH"),
			CommitHash: os.Getenv("BITPANE_SOURCE_COMMIT"),
		},
		Destination: model.RefSpec{
			Branch:     os.Getenv("BITPANE_DEST_BRANCH"),
			CommitHash: os.Getenv("BITPANE_DEST_COMMIT"),
		},
		State: model.PRStateOpen,
	}

	var vcs driven.VCS
	if cfg.LocalRepoDir != "" {
		vcs = gitadapter.NewEngine(cfg.LocalRepoDir)
		pr.Workspace = &model.Workspace{Dir: cfg.LocalRepoDir, RemoteName: cfg.RemoteName}
		slog.Info("local clone bound", "dir", cfg.LocalRepoDir, "remote", cfg.RemoteName)
	}

	ctx := context.Background()
	controller := application.NewThreadController(pr, client, logPublisher{})
	details, err := controller.LoadPRDetails(ctx)
	if err != nil {
		return err
	}
	slog.Info("pull request loaded",
		"pr", prID,
		"files", len(details.Files),
		"threads", len(details.Comments),
		"tasks", len(details.Tasks),
	)

	diffViews := application.NewDiffViewService(vcs)
	nodes := make([]*application.FileNode, 0, len(details.Files))
	for _, fd := range details.Files {
		args := diffViews.Build(ctx, details.Comments, fd, pr, nil)
		nodes = append(nodes, &application.FileNode{DisplayPath: args.DisplayPath, Args: args})
	}

	contents := application.NewContentService(vcs, cfg.RemoteName, client, blobs)
	if len(nodes) > 0 {
		previewContent(ctx, contents, pr.Site, nodes[0].Args)
	}

	printTree(application.BuildFileTree(nodes, cfg.NestFiles), 0)

	if err := blobs.Prune(ctx, maxCachedBlobs); err != nil {
		slog.Warn("blob cache prune failed", "error", err)
	}
	return nil
}

// previewContent resolves both sides of one changed file, warming the blob
// cache and proving the resolution chain (cache, local clone, remote API) end
// to end.
func previewContent(ctx context.Context, contents *application.ContentService, site model.SiteRef, args *application.DiffViewArgs) {
	for _, side := range []application.FileIdentity{args.Left.Identity, args.Right.Identity} {
		if side.Path == "" || side.CommitHash == "" {
			continue
		}
		text, err := contents.Resolve(ctx, site, side.Path, side.CommitHash, side.Branch)
		if err != nil {
			slog.Warn("content unavailable", "path", side.Path, "commit", side.CommitHash, "error", err)
			continue
		}
		slog.Info("content resolved", "path", side.Path, "commit", side.CommitHash, "bytes", len(text))
	}
}

// logPublisher satisfies the thread publisher port for CLI runs, where no
// editor surface exists to host the threads.
type logPublisher struct{}

func (logPublisher) Publish(view driven.ThreadView) {
	slog.Debug("thread published", "thread", view.ID, "entries", len(view.Entries))
}

func (logPublisher) Dispose(threadID string) {
	slog.Debug("thread disposed", "thread", threadID)
}

func printTree(nodes []application.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch node := n.(type) {
		case *application.FileNode:
			marker := ""
			if node.Args != nil && node.Args.TotalComments > 0 {
				marker = fmt.Sprintf(" (%d comments)", node.Args.TotalComments)
			}
			fmt.Printf("%s%s%s\n", indent, node.DisplayPath, marker)
		case *application.DirNode:
			fmt.Printf("%s%s/\n", indent, node.Name)
			printDir(node, depth+1)
		}
	}
}

func printDir(dir *application.DirNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range dir.Files {
		fmt.Printf("%s%s\n", indent, f.DisplayPath)
	}
	for _, name := range dir.SubdirNames() {
		sub := dir.Subdirs[name]
		fmt.Printf("%s%s/\n", indent, sub.Name)
		printDir(sub, depth+1)
	}
}
