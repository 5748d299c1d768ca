package domain

import (
	"sort"
	"strings"
	"time"
)

const (
	// MaxMessageLength is the longest first line rendered without truncation.
	MaxMessageLength = 60
	ellipsis         = "..."
)

// Identity is a forge account. A nil *Identity means the account is unknown.
type Identity struct {
	Login string
	Name  string
	Email string
}

// Commit is a commit as seen by the forge.
type Commit struct {
	SHA        string
	Message    string
	Author     *Identity
	Committer  *Identity
	AuthoredAt time.Time
	Parents    []string
}

// FirstLine returns the subject line of the commit message.
func (c Commit) FirstLine() string {
	line, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimRight(line, "\r")
}

// IsMergeArtifact reports whether the commit was produced by the forge's merge identity.
func (c Commit) IsMergeArtifact(mergeLogin string) bool {
	return c.Committer != nil && c.Committer.Login == mergeLogin && len(c.Parents) > 1
}

// ChangeRequest is a pull request that introduced one or more commits.
type ChangeRequest struct {
	Number         int
	Title          string
	MergeCommitSHA string
	Author         *Identity
	Merger         *Identity
	// Commits holds the SHAs of the collected commits attributed to this request.
	Commits []string
}

// Attribution partitions a commit set into pull requests and commits without one.
type Attribution struct {
	ChangeRequests []ChangeRequest
	Unattributed   []Commit
}

// Sort orders pull requests by number and unattributed commits by author date.
func (a *Attribution) Sort() {
	sort.SliceStable(a.ChangeRequests, func(i, j int) bool {
		return a.ChangeRequests[i].Number < a.ChangeRequests[j].Number
	})
	sort.SliceStable(a.Unattributed, func(i, j int) bool {
		return a.Unattributed[i].AuthoredAt.Before(a.Unattributed[j].AuthoredAt)
	})
}

// Conductor picks who drives the release PR: the merger of the highest-numbered pull
// request, otherwise the author of the most recent unattributed commit. Both lists must
// already be sorted.
func Conductor(a *Attribution) (string, error) {
	for i := len(a.ChangeRequests) - 1; i >= 0; i-- {
		if m := a.ChangeRequests[i].Merger; m != nil && m.Login != "" {
			return m.Login, nil
		}
	}
	for i := len(a.Unattributed) - 1; i >= 0; i-- {
		if au := a.Unattributed[i].Author; au != nil && au.Login != "" {
			return au.Login, nil
		}
	}
	return "", ErrNoConductorAvailable
}

// TruncateMessage keeps the first line and shortens it to MaxMessageLength.
func TruncateMessage(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	line = strings.TrimRight(line, "\r")
	runes := []rune(line)
	if len(runes) <= MaxMessageLength {
		return line
	}
	return string(runes[:MaxMessageLength-len(ellipsis)]) + ellipsis
}
