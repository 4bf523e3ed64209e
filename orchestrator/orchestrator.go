package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fionet/fionet/config"
	"github.com/fionet/fionet/executor"
	"github.com/fionet/fionet/metrics"
	"github.com/fionet/fionet/report"
	"github.com/fionet/fionet/runner"
	"github.com/fionet/fionet/sysmon"
	"github.com/fionet/fionet/workload"
	"github.com/fionet/fionet/workload/fio"
)

// ErrTotalFailure means every load profile failed to produce usable metrics.
// No report is rendered in that case.
var ErrTotalFailure = errors.New("no load profile produced usable metrics")

// State is the orchestrator's position in its run pipeline. States only ever
// advance; a run that reaches Failed stays there.
type State string

const (
	StateInit            State = "INIT"
	StateResolveEnv      State = "RESOLVE_ENV"
	StateLaunch          State = "LAUNCH"
	StateAwaitCompletion State = "AWAIT_COMPLETION"
	StateParse           State = "PARSE"
	StateAggregate       State = "AGGREGATE"
	StateRender          State = "RENDER"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

// Preparer readies the storage side before anything launches.
type Preparer interface {
	CheckEndpoint(ctx context.Context) error
	EnsureBucket(ctx context.Context) error
	PrepareReadObjects(ctx context.Context, keyFormat string, count int) error
}

// Orchestrator drives one complete run: prepare, launch everything
// concurrently, join, parse, aggregate, render.
type Orchestrator struct {
	cfg       *config.Config
	exec      executor.Executor
	prep      Preparer
	runner    *runner.Runner
	workloads []workload.Workload
	out       io.Writer

	state State
	now   func() time.Time
}

func New(cfg *config.Config, exec executor.Executor, prep Preparer, r *runner.Runner, ws []workload.Workload, out io.Writer) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		exec:      exec,
		prep:      prep,
		runner:    r,
		workloads: ws,
		out:       out,
		state:     StateInit,
		now:       time.Now,
	}
}

func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(s State) {
	slog.Debug("orchestrator state", slog.String("from", string(o.state)), slog.String("to", string(s)))
	o.state = s
}

func (o *Orchestrator) fail(err error) error {
	o.transition(StateFailed)
	return err
}

// Run executes the whole pipeline. A single workload failing is not fatal;
// its report slot is marked unavailable and everything else proceeds. Only
// pre-launch problems and a total failure of all load profiles abort the run.
func (o *Orchestrator) Run(ctx context.Context) (*report.Report, error) {
	o.transition(StateResolveEnv)

	if o.prep != nil {
		if err := o.prep.CheckEndpoint(ctx); err != nil {
			return nil, o.fail(err)
		}
		if err := o.prep.EnsureBucket(ctx); err != nil {
			return nil, o.fail(fmt.Errorf("preparing bucket failed: %w", err))
		}
		if o.hasRole(workload.RoleRead) {
			if err := o.prep.PrepareReadObjects(ctx, fio.ReadKeyFormat, fio.ReadObjectCount); err != nil {
				return nil, o.fail(fmt.Errorf("preparing read objects failed: %w", err))
			}
		}
	}

	wctx := &workload.Context{Exec: o.exec, Config: o.cfg, OutDir: o.cfg.OutDir}
	if err := o.runner.CheckAll(wctx, o.workloads); err != nil {
		return nil, o.fail(err)
	}

	var mon *sysmon.Monitor
	if o.cfg.SysmonEnabled {
		mon = sysmon.New(o.exec)
		mon.Start()
	}

	o.transition(StateLaunch)
	pending := o.runner.Launch(wctx, o.workloads)

	o.transition(StateAwaitCompletion)
	results := pending.Wait()

	var client *sysmon.Samples
	if mon != nil {
		mon.Stop()
		mon.Wait()
		client = mon.Samples()
	}

	// raw documents are persisted before any parsing, so even a run that
	// produces no usable metrics can be reanalyzed offline
	o.saveArtifacts(results)

	o.transition(StateParse)
	profiles, network, notes := o.parseResults(results)

	o.transition(StateAggregate)
	o.applyCacheHeuristic(profiles, network)

	if !report.AnyAvailable(profiles) {
		return nil, o.fail(ErrTotalFailure)
	}

	o.transition(StateRender)
	r := report.Build(report.Header{
		Endpoint:   o.cfg.Endpoint,
		Bucket:     o.cfg.Bucket,
		ObjectSize: o.cfg.ObjectSize,
		WriteJobs:  o.cfg.NumJobsA,
		ReadJobs:   o.cfg.NumJobsB,
	}, profiles, network, client, notes)
	report.Render(o.out, r)

	o.transition(StateDone)
	return r, nil
}

// parseResults normalizes each raw result. Failures never abort; a load
// profile that produced nothing keeps its slot marked unavailable, and a
// failed network baseline just drops out of the report with a note.
func (o *Orchestrator) parseResults(results []*runner.RawResult) ([]report.ProfileSlot, *metrics.NetworkMetrics, []string) {
	parsers := map[string]metrics.Parser{}
	for _, w := range o.workloads {
		parsers[w.Name()] = w.Parser()
	}

	var profiles []report.ProfileSlot
	var network *metrics.NetworkMetrics
	var notes []string

	for _, res := range results {
		rec, reason := o.parseOne(parsers[res.Name], res)

		if res.Role == workload.RoleNetwork {
			if rec != nil && rec.Network != nil {
				network = rec.Network
			} else {
				notes = append(notes, fmt.Sprintf("network baseline %s unavailable: %s", res.Name, reason))
			}
			continue
		}

		slot := report.ProfileSlot{
			Name:   res.Name,
			Role:   string(res.Role),
			Method: methodFor(res.Role),
		}
		if rec != nil && rec.Profile != nil {
			slot.Available = true
			slot.Metrics = rec.Profile
		} else {
			slot.Reason = reason
			notes = append(notes, fmt.Sprintf("%s produced no usable metrics: %s", res.Name, reason))
		}
		profiles = append(profiles, slot)
	}
	return profiles, network, notes
}

func (o *Orchestrator) parseOne(p metrics.Parser, res *runner.RawResult) (*metrics.Record, string) {
	switch {
	case res.Err != nil:
		return nil, res.Err.Error()
	case res.ExitCode != 0:
		return nil, fmt.Sprintf("exited with code %d", res.ExitCode)
	case p == nil:
		return nil, "no parser registered"
	}

	rec, err := p.Parse(res.Doc)
	if err != nil {
		slog.Error("failed to parse result document",
			slog.String("name", res.Name),
			slog.String("error", err.Error()),
		)
		return nil, err.Error()
	}
	return rec, ""
}

// applyCacheHeuristic flags cache-inflated read throughput, using the write
// profile and the network baseline as references when available.
func (o *Orchestrator) applyCacheHeuristic(profiles []report.ProfileSlot, network *metrics.NetworkMetrics) {
	var write *metrics.ProfileMetrics
	for _, p := range profiles {
		if p.Role == string(workload.RoleWrite) && p.Available {
			write = p.Metrics
		}
	}
	for _, p := range profiles {
		if p.Role == string(workload.RoleRead) && p.Available {
			metrics.ApplyCacheHeuristic(p.Metrics, write, network)
		}
	}
}

// saveArtifacts persists every raw result document that exists. Best effort;
// a failed write is logged and the run continues.
func (o *Orchestrator) saveArtifacts(results []*runner.RawResult) {
	ts := o.now().Unix()
	for _, res := range results {
		if len(res.Doc) == 0 {
			continue
		}
		p, err := report.SaveRaw(o.cfg.OutDir, ts, res.Name, res.Doc)
		if err != nil {
			slog.Error("failed to save raw artifact", slog.String("name", res.Name), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("saved raw artifact", slog.String("path", p))
	}
}

func (o *Orchestrator) hasRole(role workload.Role) bool {
	for _, w := range o.workloads {
		if w.Role() == role {
			return true
		}
	}
	return false
}

func methodFor(role workload.Role) string {
	if role == workload.RoleWrite {
		return "PUT"
	}
	return "GET"
}
