package commandmanager

import (
	"context"
	"errors"
	"time"
)

// ErrPermissionDenied indicates the command needed privileges the invoking
// user does not have (missing sudo rights, wrong sudo password).
var ErrPermissionDenied = errors.New("permission denied")

// CommandConfig describes a single command invocation.
type CommandConfig struct {
	Command string
	Args    []string
	Sudo    bool
	Env     []string
	// Stdin, when non-empty, is fed to the command's standard input.
	Stdin string
}

// CommandResult encapsulates the results from a command execution.
type CommandResult struct {
	Command   string
	STDOUT    string
	STDERR    string
	ExitCode  int
	Duration  time.Duration
	Timestamp time.Time
}

// CommandManager executes commands on the target host, local or remote.
type CommandManager interface {
	Run(ctx context.Context, config CommandConfig) (CommandResult, error)
}
