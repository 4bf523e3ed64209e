package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alitto/pond"
	"github.com/fionet/fionet/workload"
)

// ErrProcessTimeout means an operation exceeded its bounded wait and was
// terminated.
var ErrProcessTimeout = errors.New("process timed out")

// RawResult is one workload's captured result document and exit status,
// immutable once captured.
type RawResult struct {
	Name     string
	Role     workload.Role
	Doc      []byte // stdout, the structured result document
	Stderr   []byte
	ExitCode int
	// Launch or timeout error. nil when the process ran to completion,
	// whatever its exit status.
	Err error
}

// OK reports whether the result document is worth parsing.
func (r *RawResult) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner launches workloads as genuinely concurrent child processes and
// joins on all of them. concurrency 0 means unlimited.
type Runner struct {
	concurrency int
}

func New(concurrency int) *Runner {
	return &Runner{concurrency: concurrency}
}

// CheckAll verifies every workload's external binary before anything
// launches. Any failure is fatal; no partial execution is attempted.
func (r *Runner) CheckAll(wctx *workload.Context, ws []workload.Workload) error {
	for _, w := range ws {
		if err := w.Check(wctx); err != nil {
			return fmt.Errorf("workload %s: %w", w.Name(), err)
		}
	}
	return nil
}

// Pending is a set of launched operations that has not been joined yet.
type Pending struct {
	resultCh chan *RawResult
	join     func()
	n        int
	order    []string
}

// Launch starts every workload without sequencing dependencies between them.
// Each operation owns its own output exclusively; a timeout terminates only
// the operation that exceeded it.
func (r *Runner) Launch(wctx *workload.Context, ws []workload.Workload) *Pending {
	p := &Pending{
		resultCh: make(chan *RawResult, len(ws)),
		n:        len(ws),
	}
	for _, w := range ws {
		p.order = append(p.order, w.Name())
	}

	if r.concurrency == 0 {
		wg := &sync.WaitGroup{}
		for _, w := range ws {
			w := w
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.resultCh <- runOne(wctx, w)
			}()
		}
		p.join = wg.Wait
	} else {
		pool := pond.New(r.concurrency, 0, pond.MinWorkers(r.concurrency))
		for _, w := range ws {
			w := w
			pool.Submit(func() {
				p.resultCh <- runOne(wctx, w)
			})
		}
		p.join = pool.StopAndWait
	}
	return p
}

// Wait blocks until every launched operation has completed or timed out,
// then returns all results in launch order. This is the orchestrator's only
// suspension point.
func (p *Pending) Wait() []*RawResult {
	p.join()
	close(p.resultCh)

	byName := make(map[string]*RawResult, p.n)
	for res := range p.resultCh {
		byName[res.Name] = res
	}

	out := make([]*RawResult, 0, p.n)
	for _, name := range p.order {
		if res, ok := byName[name]; ok {
			out = append(out, res)
		}
	}
	return out
}

func runOne(wctx *workload.Context, w workload.Workload) *RawResult {
	res := &RawResult{Name: w.Name(), Role: w.Role()}

	if err := w.SetUp(wctx); err != nil {
		res.Err = fmt.Errorf("setting up workload failed: %w", err)
		return res
	}

	name, args, err := w.Command(wctx)
	if err != nil {
		res.Err = fmt.Errorf("getting workload command failed: %w", err)
		return res
	}

	timeout := w.Timeout()
	slog.Info("starting workload",
		slog.String("name", w.Name()),
		slog.String("command", name),
		slog.Duration("timeout", timeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := wctx.Exec.Run(ctx, name, args...)
	if out != nil {
		res.Doc = out.Stdout
		res.Stderr = out.Stderr
		res.ExitCode = out.ExitCode
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		res.Err = fmt.Errorf("%w after %s", ErrProcessTimeout, timeout)
		slog.Error("workload timed out", slog.String("name", w.Name()), slog.Duration("timeout", timeout))
	case err != nil:
		res.Err = err
		slog.Error("workload failed to run", slog.String("name", w.Name()), slog.String("error", err.Error()))
	case res.ExitCode != 0:
		slog.Error("workload exited non-zero",
			slog.String("name", w.Name()),
			slog.Int("exitCode", res.ExitCode),
			slog.String("stderr", string(res.Stderr)),
		)
	default:
		slog.Info("workload finished", slog.String("name", w.Name()))
	}
	return res
}
