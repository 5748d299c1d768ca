package domain

import "fmt"

// StagingState is a step of staging branch construction.
type StagingState string

const (
	StagingStart            StagingState = "start"
	StagingSkipped          StagingState = "skipped"
	StagingBranchCreated    StagingState = "branch_created"
	StagingConflictPending  StagingState = "conflict_pending"
	StagingClean            StagingState = "clean"
	StagingVersionUpdated   StagingState = "version_updated"
	StagingChangelogUpdated StagingState = "changelog_updated"
	StagingCommitted        StagingState = "committed"
	StagingPushed           StagingState = "pushed"
	StagingDone             StagingState = "done"
)

var stagingTransitions = map[StagingState][]StagingState{
	StagingStart:           {StagingBranchCreated, StagingSkipped},
	StagingBranchCreated:   {StagingConflictPending, StagingClean},
	StagingConflictPending: {StagingVersionUpdated},
	// primary releases carry no manifest rewrite
	StagingClean:            {StagingVersionUpdated, StagingChangelogUpdated},
	StagingVersionUpdated:   {StagingChangelogUpdated},
	StagingChangelogUpdated: {StagingCommitted},
	StagingCommitted:        {StagingPushed},
	StagingPushed:           {StagingDone},
}

// StagingMachine tracks the current state and reports each accepted transition.
type StagingMachine struct {
	state    StagingState
	observer func(StagingState)
}

// NewStagingMachine starts in StagingStart. observer may be nil.
func NewStagingMachine(observer func(StagingState)) *StagingMachine {
	return &StagingMachine{state: StagingStart, observer: observer}
}

// State returns the current state.
func (m *StagingMachine) State() StagingState {
	return m.state
}

// Advance moves to next or fails if the transition is not allowed.
func (m *StagingMachine) Advance(next StagingState) error {
	for _, allowed := range stagingTransitions[m.state] {
		if allowed == next {
			m.state = next
			if m.observer != nil {
				m.observer(next)
			}
			return nil
		}
	}
	return fmt.Errorf("invalid staging transition %s -> %s", m.state, next)
}

// PullRequestDraft is everything needed to open the release pull request.
type PullRequestDraft struct {
	Title     string
	Body      string
	Head      string
	Base      string
	Draft     bool
	Labels    []string
	Assignees []string
}
