package orchestrator

// Keys of the key=value lines printed with --ci-output.
const (
	OutputRunID      = "run_id"
	OutputVersion    = "version"
	OutputHasChanges = "has_changes"
	OutputBranch     = "branch"
	OutputConflicts  = "conflicts"
	OutputPRNumber   = "pr_number"
)
