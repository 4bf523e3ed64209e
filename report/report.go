package report

import (
	"github.com/fionet/fionet/metrics"
	"github.com/fionet/fionet/sysmon"
)

// ProfileSlot is one configured load profile's place in the report. Profiles
// that failed to produce usable metrics keep their slot, marked unavailable.
type ProfileSlot struct {
	Name   string
	Role   string // "write" or "read"
	Method string // HTTP method the profile exercises

	Available bool
	// Why the profile is unavailable (timeout, non-zero exit, malformed
	// output). Empty when available.
	Reason string

	Metrics *metrics.ProfileMetrics // nil when unavailable
}

// Summary holds the derived aggregates. Totals cover available profiles
// only; worst-case latency takes the maximum across profiles.
type Summary struct {
	TotalRequests int64
	TotalBytes    int64
	TotalIOPS     float64
	WorstP95Ms    float64
	WorstP99Ms    float64

	// Write throughput as a percentage of raw network capacity. nil when
	// either operand is missing; the renderer shows "not measured", never 0.
	EfficiencyPct *float64
}

// Report is the complete analytical outcome of one run. Immutable after
// construction; rendering is a pure projection of these fields.
type Report struct {
	Endpoint   string
	Bucket     string
	ObjectSize string
	WriteJobs  int
	ReadJobs   int

	Profiles []ProfileSlot
	Network  *metrics.NetworkMetrics
	Client   *sysmon.Samples
	Notes    []string

	Summary Summary
}

// Header describes the run parameters shown at the top of the report.
type Header struct {
	Endpoint   string
	Bucket     string
	ObjectSize string
	WriteJobs  int
	ReadJobs   int
}

// Build combines parsed metrics into a Report, deriving the summary.
func Build(h Header, profiles []ProfileSlot, network *metrics.NetworkMetrics, client *sysmon.Samples, notes []string) *Report {
	r := &Report{
		Endpoint:   h.Endpoint,
		Bucket:     h.Bucket,
		ObjectSize: h.ObjectSize,
		WriteJobs:  h.WriteJobs,
		ReadJobs:   h.ReadJobs,
		Profiles:   profiles,
		Network:    network,
		Client:     client,
		Notes:      notes,
	}

	var writeThroughput *float64
	for _, p := range r.Profiles {
		if !p.Available || p.Metrics == nil {
			continue
		}
		m := p.Metrics
		r.Summary.TotalRequests += m.Requests
		r.Summary.TotalBytes += m.Bytes
		r.Summary.TotalIOPS += m.IOPS
		if m.LatencyP95Ms > r.Summary.WorstP95Ms {
			r.Summary.WorstP95Ms = m.LatencyP95Ms
		}
		if m.LatencyP99Ms > r.Summary.WorstP99Ms {
			r.Summary.WorstP99Ms = m.LatencyP99Ms
		}
		if p.Role == "write" {
			t := m.ThroughputMBps
			writeThroughput = &t
		}
	}

	if writeThroughput != nil && network != nil && network.CapacityMBps() > 0 {
		pct := *writeThroughput / network.CapacityMBps() * 100
		r.Summary.EfficiencyPct = &pct
	}

	return r
}

// AnyAvailable reports whether at least one profile produced metrics. When
// false the run is a total failure and no report should be rendered.
func AnyAvailable(profiles []ProfileSlot) bool {
	for _, p := range profiles {
		if p.Available {
			return true
		}
	}
	return false
}
