package iperf3

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fionet/fionet/metrics"
	"github.com/fionet/fionet/workload"
	"github.com/mitchellh/mapstructure"
)

// Extra wall time the client gets beyond the test duration.
const launchMarginSec = 30

type Input struct {
	Name        string
	Server      string
	DurationSec int
}

type iperf3Workload struct {
	input *Input
}

func init() {
	workload.Register("iperf3", func(a map[string]any) (workload.Workload, error) {
		input := &Input{}
		if err := mapstructure.Decode(a, input); err != nil {
			return nil, fmt.Errorf("can't convert input to iperf3 Input: %w", err)
		}
		return New(input)
	})
}

func New(input *Input) (workload.Workload, error) {
	if input.Server == "" {
		return nil, fmt.Errorf("iperf3 workload needs a server address")
	}
	if input.DurationSec <= 0 {
		return nil, fmt.Errorf("iperf3 workload needs a positive duration, got %d", input.DurationSec)
	}
	return &iperf3Workload{input: input}, nil
}

func (w *iperf3Workload) Check(ctx *workload.Context) error {
	if _, err := ctx.Exec.LookPath("iperf3"); err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := ctx.Exec.Run(cctx, "iperf3", "--version")
	if err != nil || res.ExitCode != 0 {
		return fmt.Errorf("iperf3 --version failed: %v", err)
	}
	return nil
}

func (w *iperf3Workload) SetUp(ctx *workload.Context) error {
	return nil
}

func (w *iperf3Workload) Command(ctx *workload.Context) (string, []string, error) {
	return "iperf3", []string{
		"-c", w.input.Server,
		"-t", strconv.Itoa(w.input.DurationSec),
		"-J",
	}, nil
}

func (w *iperf3Workload) Timeout() time.Duration {
	return time.Duration(w.input.DurationSec+launchMarginSec) * time.Second
}

func (w *iperf3Workload) Parser() metrics.Parser {
	return metrics.NewIperf3Parser()
}

func (w *iperf3Workload) Name() string {
	return w.input.Name
}

func (w *iperf3Workload) Role() workload.Role {
	return workload.RoleNetwork
}
