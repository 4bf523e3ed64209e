package workload

import (
	"fmt"
	"time"

	"github.com/fionet/fionet/config"
	"github.com/fionet/fionet/executor"
	"github.com/fionet/fionet/metrics"
)

// Role says what a workload measures.
type Role string

const (
	RoleWrite   Role = "write"
	RoleRead    Role = "read"
	RoleNetwork Role = "network"
)

// Context is everything a workload needs besides its own input. Shared
// read-only across all concurrent workloads.
type Context struct {
	Exec   executor.Executor
	Config *config.Config
	OutDir string
}

type Workload interface {
	// Verify the external binary exists and is usable. A failure here is
	// fatal for the whole run; nothing launches.
	Check(ctx *Context) error

	// Prepare any files the command needs (e.g. generated job files).
	SetUp(ctx *Context) error

	// The executable and arguments to launch.
	Command(ctx *Context) (string, []string, error)

	// How long the command may run before it is terminated.
	Timeout() time.Duration

	// The parser that normalizes this workload's result document.
	Parser() metrics.Parser

	// A human-friendly name. Also keys the persisted raw artifact.
	Name() string

	Role() Role
}

type workloadType string

type Factory func(map[string]any) (Workload, error)

var factories map[workloadType]Factory

// All workloads must register themselves at module load time so that suite
// files can create a workload of that type.
func Register(wtype string, f Factory) {
	if factories == nil {
		factories = map[workloadType]Factory{}
	}
	factories[workloadType(wtype)] = f
}

type SerializedWorkload struct {
	Type  workloadType
	Input map[string]any
}

// SuiteFile is an optional JSON file overriding the default workload set.
type SuiteFile []SerializedWorkload

func Deserialize(sw *SerializedWorkload) (Workload, error) {
	f, ok := factories[sw.Type]
	if !ok {
		return nil, fmt.Errorf("unknown workload type: %s", sw.Type)
	}
	return f(sw.Input)
}
