package metrics

import (
	"encoding/json"
	"fmt"
)

type fioParser struct {
	operation string // "write" or "read"
}

// NewFioParser returns a parser for fio JSON output. The operation selects
// which per-job section to read; jobs that only ran the other operation fall
// back to it, matching fio's mixed-profile output.
func NewFioParser(operation string) Parser {
	return &fioParser{operation: operation}
}

type fioDocument struct {
	Jobs []fioJob `json:"jobs"`
}

type fioJob struct {
	Read  fioOpStats `json:"read"`
	Write fioOpStats `json:"write"`
}

type fioOpStats struct {
	TotalIOs  int64   `json:"total_ios"`
	RuntimeMs int64   `json:"runtime"`
	IOBytes   int64   `json:"io_bytes"`
	ClatNs    fioClat `json:"clat_ns"`
}

type fioClat struct {
	Percentile map[string]float64 `json:"percentile"`
}

const (
	fioP95Key = "95.000000"
	fioP99Key = "99.000000"
)

func (p *fioParser) Parse(doc []byte) (*Record, error) {
	var d fioDocument
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if len(d.Jobs) == 0 {
		return nil, fmt.Errorf("%w: no jobs in fio output", ErrMalformedOutput)
	}

	var (
		totalIOs   int64
		totalBytes int64
		maxRuntime int64
		maxP95Ns   float64
		maxP99Ns   float64
	)
	for _, job := range d.Jobs {
		stats := job.opStats(p.operation)

		totalIOs += stats.TotalIOs
		totalBytes += stats.IOBytes
		if stats.RuntimeMs > maxRuntime {
			maxRuntime = stats.RuntimeMs
		}
		if p95 := stats.ClatNs.Percentile[fioP95Key]; p95 > maxP95Ns {
			maxP95Ns = p95
		}
		if p99 := stats.ClatNs.Percentile[fioP99Key]; p99 > maxP99Ns {
			maxP99Ns = p99
		}
	}

	if maxRuntime <= 0 {
		return nil, fmt.Errorf("%w: fio output has no measured runtime", ErrMalformedOutput)
	}

	seconds := float64(maxRuntime) / 1000
	m := &ProfileMetrics{
		Requests:       totalIOs,
		Bytes:          totalBytes,
		RuntimeMs:      maxRuntime,
		ThroughputMBps: float64(totalBytes) / 1024 / 1024 / seconds,
		IOPS:           float64(totalIOs) / seconds,
		LatencyP95Ms:   maxP95Ns / 1e6,
		LatencyP99Ms:   maxP99Ns / 1e6,
	}
	return &Record{Profile: m}, nil
}

func (j *fioJob) opStats(operation string) fioOpStats {
	primary, other := j.Write, j.Read
	if operation == "read" {
		primary, other = j.Read, j.Write
	}
	if primary.TotalIOs == 0 && primary.RuntimeMs == 0 {
		return other
	}
	return primary
}
