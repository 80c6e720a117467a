package model

import "time"

// SiteRef identifies the Bitbucket site a pull request belongs to.
type SiteRef struct {
	Host      string // e.g. "bitbucket.org"
	Workspace string
	RepoSlug  string
}

// FullName returns the workspace-qualified repository name, e.g. "acme/widgets".
func (s SiteRef) FullName() string {
	return s.Workspace + "/" + s.RepoSlug
}

// RefSpec names one side of a pull request: a branch in a repository at a
// specific commit.
type RefSpec struct {
	Branch       string
	RepoFullName string
	CommitHash   string
}

// Participant is a user attached to a pull request with their approval state.
type Participant struct {
	User     User
	Role     string // "PARTICIPANT" or "REVIEWER"
	Approved bool
}

// BuildStatus is a CI result reported against the pull request's source commit.
type BuildStatus struct {
	Name      string
	State     BuildState
	URL       string
	UpdatedAt time.Time
}

// Workspace binds a pull request to a local clone of its repository.
// When present, merge-base resolution and blob lookups can be answered
// locally instead of through the remote API.
type Workspace struct {
	Dir        string // Absolute path to the clone's working tree.
	RemoteName string // Remote tracking the PR's repository, usually "origin".
}

// PullRequest is the root aggregate. FileDiffs, Comments, and Tasks are
// fetched per pull request and live only in the session cache.
type PullRequest struct {
	Site          SiteRef
	ID            string
	Title         string
	Author        User
	Source        RefSpec
	Destination   RefSpec
	State         PRState
	TaskCount     int
	Participants  []Participant
	BuildStatuses []BuildStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Workspace is nil when no local clone is bound.
	Workspace *Workspace
}

// Key returns the identity under which this pull request's session caches are
// addressed.
func (pr PullRequest) Key() PullRequestKey {
	return PullRequestKey{Site: pr.Site.Host, Repo: pr.Site.FullName(), ID: pr.ID}
}

// PullRequestKey is the strongly-typed cache identity of a pull request.
type PullRequestKey struct {
	Site string
	Repo string
	ID   string
}

// User identifies a comment author or participant.
type User struct {
	AccountID   string
	DisplayName string
	AvatarURL   string
}
