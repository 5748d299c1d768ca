package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoConductorAvailable is returned when neither pull requests nor commits name a person.
var ErrNoConductorAvailable = errors.New("no conductor available")

// GitOperationError is a failed git invocation. ExitCode is -1 when the failure did not
// come from a subprocess.
type GitOperationError struct {
	Command  []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *GitOperationError) Error() string {
	msg := fmt.Sprintf("git %s failed (exit %d)", strings.Join(e.Command, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GitOperationError) Unwrap() error { return e.Err }

// ForgeAPIError is a failed forge REST call.
type ForgeAPIError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *ForgeAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("forge %s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("forge %s failed: %v", e.Operation, e.Err)
}

func (e *ForgeAPIError) Unwrap() error { return e.Err }

// RevertError is a revert that could not be applied cleanly.
type RevertError struct {
	SHA string
	Err error
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("failed to revert %s: %v", e.SHA, e.Err)
}

func (e *RevertError) Unwrap() error { return e.Err }
