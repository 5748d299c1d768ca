package domain

import (
	"time"
)

// RunStatus represents the overall status of an update-release-branch run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusSkipped   RunStatus = "skipped"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the journal of one invocation.
type RunRecord struct {
	RunID           string            `json:"run_id"`
	StartedAt       time.Time         `json:"started_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	SourceBranch    string            `json:"source_branch"`
	TargetBranch    string            `json:"target_branch"`
	Kind            string            `json:"kind"`
	Version         string            `json:"version,omitempty"`
	BranchName      string            `json:"branch_name,omitempty"`
	State           StagingState      `json:"state"`
	Transitions     []StateTransition `json:"transitions"`
	ConflictedFiles []string          `json:"conflicted_files,omitempty"`
	PullRequest     int               `json:"pull_request,omitempty"`
	Status          RunStatus         `json:"status"`
	Error           string            `json:"error,omitempty"`
}

// StateTransition records when a staging state was reached.
type StateTransition struct {
	State StagingState `json:"state"`
	At    time.Time    `json:"at"`
}

// NewRunRecord creates a running record in StagingStart.
func NewRunRecord(runID string, release Release) *RunRecord {
	now := time.Now()
	rec := &RunRecord{
		RunID:        runID,
		StartedAt:    now,
		UpdatedAt:    now,
		SourceBranch: release.SourceBranch,
		TargetBranch: release.TargetBranch,
		State:        StagingStart,
		Transitions:  []StateTransition{{State: StagingStart, At: now}},
		Status:       RunStatusRunning,
	}
	if release.Kind != nil {
		rec.Kind = release.Kind.String()
	}
	if release.Version != nil {
		rec.Version = release.Version.String()
	}
	return rec
}

// RecordTransition appends a staging transition.
func (r *RunRecord) RecordTransition(state StagingState) {
	now := time.Now()
	r.State = state
	r.Transitions = append(r.Transitions, StateTransition{State: state, At: now})
	r.UpdatedAt = now
}

// MarkCompleted closes the record with status.
func (r *RunRecord) MarkCompleted(status RunStatus) {
	r.Status = status
	r.UpdatedAt = time.Now()
}

// MarkFailed closes the record with the failure.
func (r *RunRecord) MarkFailed(err error) {
	r.Status = RunStatusFailed
	r.Error = err.Error()
	r.UpdatedAt = time.Now()
}
