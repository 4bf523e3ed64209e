package metrics

import "errors"

// ErrMalformedOutput means a result document could not be interpreted.
var ErrMalformedOutput = errors.New("malformed result document")

// ProfileMetrics is the normalized outcome of one load profile, accumulated
// across all of its parallel jobs.
type ProfileMetrics struct {
	Requests  int64
	Bytes     int64
	RuntimeMs int64

	// Bytes / runtime, in MiB-based MB/s (fio reports io_bytes).
	ThroughputMBps float64
	// Requests / runtime.
	IOPS float64

	LatencyP95Ms float64
	LatencyP99Ms float64

	// Set by the cache heuristic when the reported throughput cannot be real
	// storage I/O. The raw figure above is never replaced; the estimate is
	// attached alongside it.
	CacheSuspected          bool
	EstimatedThroughputMBps *float64
}

// NetworkMetrics is the normalized outcome of the network baseline test.
type NetworkMetrics struct {
	SendMbps    float64 // megabits/s, decimal, as iperf3 reports
	ReceiveMbps float64
	SendBytes   int64
	RecvBytes   int64
	DurationSec float64
}

// CapacityMBps is the raw network capacity in MB/s, comparable with storage
// throughput.
func (n *NetworkMetrics) CapacityMBps() float64 {
	return n.SendMbps / 8
}

// Record is the output of parsing one raw result document. Exactly one of
// the two fields is set.
type Record struct {
	Profile *ProfileMetrics
	Network *NetworkMetrics
}

// A Parser normalizes one tool's raw result document. The structural
// differences between the load generator's and the network tool's documents
// stay behind this interface.
type Parser interface {
	Parse(doc []byte) (*Record, error)
}
