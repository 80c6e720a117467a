// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	BitbucketUsername    string
	BitbucketAppPassword string
	Workspace            string
	RepoSlug             string
	NestFiles            bool   // Nest changed files into a directory tree.
	DBPath               string // Blob cache database.
	LocalRepoDir         string // Optional bound clone; empty disables local resolution.
	RemoteName           string
}

// HasBitbucketCredentials returns true when both username and app password
// are present. Without them the composition root starts with no remote client
// wired.
func (c *Config) HasBitbucketCredentials() bool {
	return c.BitbucketUsername != "" && c.BitbucketAppPassword != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. BITPANE_WORKSPACE and BITPANE_REPO_SLUG are required. Credentials
// (BITPANE_BB_USERNAME, BITPANE_BB_APP_PASSWORD) are optional. Optional
// variables with defaults: BITPANE_NEST_FILES (true), BITPANE_DB_PATH
// (bitpane.db), BITPANE_REMOTE_NAME (origin); BITPANE_LOCAL_REPO has no
// default.
func Load() (*Config, error) {
	workspace := os.Getenv("BITPANE_WORKSPACE")
	if workspace == "" {
		return nil, fmt.Errorf("BITPANE_WORKSPACE is required")
	}
	repoSlug := os.Getenv("BITPANE_REPO_SLUG")
	if repoSlug == "" {
		return nil, fmt.Errorf("BITPANE_REPO_SLUG is required")
	}

	nestFiles := true
	if v, ok := os.LookupEnv("BITPANE_NEST_FILES"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("BITPANE_NEST_FILES has invalid boolean %q: %w", v, err)
		}
		nestFiles = parsed
	}

	dbPath := "bitpane.db"
	if v, ok := os.LookupEnv("BITPANE_DB_PATH"); ok {
		dbPath = v
	}

	remoteName := "origin"
	if v, ok := os.LookupEnv("BITPANE_REMOTE_NAME"); ok {
		remoteName = v
	}

	return &Config{
		BitbucketUsername:    os.Getenv("BITPANE_BB_USERNAME"),
		BitbucketAppPassword: os.Getenv("BITPANE_BB_APP_PASSWORD"),
		Workspace:            workspace,
		RepoSlug:             repoSlug,
		NestFiles:            nestFiles,
		DBPath:               dbPath,
		LocalRepoDir:         os.Getenv("BITPANE_LOCAL_REPO"),
		RemoteName:           remoteName,
	}, nil
}
