package executor

import (
	"context"
	"errors"
	"io/fs"
)

// ErrExecutableNotFound means a required external binary is absent. This is
// fatal for the whole run.
var ErrExecutableNotFound = errors.New("executable not found")

// Result is the captured outcome of one completed command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// An Executor is something that can run the external tools (usually the local
// machine, but could be a remote driver host reached over SSH).
type Executor interface {
	// Runs the command and captures its output. Cancelling ctx terminates the
	// process; the returned error is then the ctx error. A non-zero exit is
	// not an error, it is reported through Result.ExitCode.
	Run(ctx context.Context, name string, args ...string) (*Result, error)

	// Reports where the executable lives, or ErrExecutableNotFound.
	LookPath(name string) (string, error)

	// Places a file where commands run by this executor can read it, creating
	// parent directories as needed.
	WriteFile(path string, data []byte, perm fs.FileMode) error
}
