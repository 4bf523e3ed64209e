package report

import (
	"fmt"
	"io"
	"strings"
)

const rule = "============================================================"

// Render writes the report in its fixed section layout. It never mutates the
// report; the same Report always renders the same text.
func Render(w io.Writer, r *Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "=== S3 Load Testing + Network Bandwidth Report ===")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Endpoint: %s\n", r.Endpoint)
	fmt.Fprintf(w, "Bucket: %s\n", r.Bucket)
	fmt.Fprintf(w, "Block Size: %s\n", r.ObjectSize)
	fmt.Fprintf(w, "Jobs: write=%d, read=%d\n", r.WriteJobs, r.ReadJobs)

	if n := r.Network; n != nil {
		fmt.Fprintf(w, "\n[Network Baseline - iperf3]\n")
		fmt.Fprintf(w, "  Bandwidth (send): %.2f Mbps (%.1f MB/s)\n", n.SendMbps, n.SendMbps/8)
		fmt.Fprintf(w, "  Bandwidth (receive): %.2f Mbps (%.1f MB/s)\n", n.ReceiveMbps, n.ReceiveMbps/8)
		fmt.Fprintf(w, "  Test duration: %.0fs\n", n.DurationSec)
		fmt.Fprintf(w, "  Data transferred: %.1f MB\n", float64(n.SendBytes)/1024/1024)
	}

	labels := []string{"Profile A", "Profile B"}
	for i, p := range r.Profiles {
		label := fmt.Sprintf("Profile %d", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		renderProfile(w, label, p)
	}

	fmt.Fprintf(w, "\n[Summary]\n")
	if n := r.Network; n != nil {
		fmt.Fprintf(w, "  Network capacity: %.1f MB/s\n", n.CapacityMBps())
	}
	if r.Summary.EfficiencyPct != nil {
		fmt.Fprintf(w, "  S3 write efficiency: %.1f%% of network capacity\n", *r.Summary.EfficiencyPct)
	} else {
		fmt.Fprintf(w, "  S3 write efficiency: not measured\n")
	}
	fmt.Fprintf(w, "  Total HTTP requests: %d\n", r.Summary.TotalRequests)
	fmt.Fprintf(w, "  Total data: %.1f MB\n", float64(r.Summary.TotalBytes)/1024/1024)
	fmt.Fprintf(w, "  Total IOPS: %.2f\n", r.Summary.TotalIOPS)
	for _, p := range r.Profiles {
		if !p.Available {
			continue
		}
		switch p.Role {
		case "write":
			fmt.Fprintf(w, "  Write throughput: %.2f MB/s\n", p.Metrics.ThroughputMBps)
		case "read":
			if p.Metrics.CacheSuspected {
				fmt.Fprintf(w, "  Read throughput: CACHED (see note below)\n")
			} else {
				fmt.Fprintf(w, "  Read throughput: %.2f MB/s\n", p.Metrics.ThroughputMBps)
			}
		}
	}
	fmt.Fprintf(w, "  Latency P95 (worst): %.2f ms\n", r.Summary.WorstP95Ms)
	fmt.Fprintf(w, "  Latency P99 (worst): %.2f ms\n", r.Summary.WorstP99Ms)

	if c := r.Client; c != nil {
		fmt.Fprintf(w, "\n[Client Load]\n")
		if peak, ok := c.PeakCPUBusyPct(); ok {
			fmt.Fprintf(w, "  CPU busy (peak): %.1f%%\n", peak)
		}
		sent, recv := c.NetDeltaBytes()
		fmt.Fprintf(w, "  Net sent during run: %.1f MB\n", float64(sent)/1024/1024)
		fmt.Fprintf(w, "  Net received during run: %.1f MB\n", float64(recv)/1024/1024)
	}

	fmt.Fprintln(w, rule)

	if anyCacheSuspected(r.Profiles) {
		fmt.Fprintln(w, "\nNOTE: fio HTTP engine caches read data in memory.")
		fmt.Fprintln(w, "Read throughput shows memory speed, not S3 speed.")
		fmt.Fprintln(w, "Write results ARE accurate - each PUT is a real HTTP request.")
		fmt.Fprintln(w, "\nFor accurate S3 read benchmarks, use:")
		fmt.Fprintln(w, "  - minio/warp: https://github.com/minio/warp")
		fmt.Fprintln(w, "  - s3-benchmark: https://github.com/wasabi-tech/s3-benchmark")
	}

	for _, note := range r.Notes {
		fmt.Fprintf(w, "\nNOTE: %s\n", note)
	}
}

func anyCacheSuspected(profiles []ProfileSlot) bool {
	for _, p := range profiles {
		if p.Available && p.Metrics.CacheSuspected {
			return true
		}
	}
	return false
}

func renderProfile(w io.Writer, label string, p ProfileSlot) {
	tag := "Real S3 traffic"
	if !p.Available {
		tag = "UNAVAILABLE"
	} else if p.Metrics.CacheSuspected {
		tag = "CACHED - not real S3 traffic"
	}
	fmt.Fprintf(w, "\n[%s: %s] %s\n", label, p.Role, tag)

	if !p.Available {
		fmt.Fprintf(w, "  Reason: %s\n", p.Reason)
		return
	}

	m := p.Metrics
	fmt.Fprintf(w, "  HTTP %s requests: %d\n", strings.ToUpper(p.Method), m.Requests)
	fmt.Fprintf(w, "  Data transferred: %.1f MB\n", float64(m.Bytes)/1024/1024)
	fmt.Fprintf(w, "  Runtime: %d ms\n", m.RuntimeMs)
	if m.CacheSuspected {
		fmt.Fprintf(w, "  Throughput: %.2f MB/s (FROM MEMORY CACHE)\n", m.ThroughputMBps)
		if m.EstimatedThroughputMBps != nil {
			fmt.Fprintf(w, "  Estimated real throughput: ~%.0f MB/s\n", *m.EstimatedThroughputMBps)
		}
	} else {
		fmt.Fprintf(w, "  Throughput: %.2f MB/s\n", m.ThroughputMBps)
	}
	fmt.Fprintf(w, "  IOPS: %.2f\n", m.IOPS)
	fmt.Fprintf(w, "  Latency P95: %.2f ms\n", m.LatencyP95Ms)
	fmt.Fprintf(w, "  Latency P99: %.2f ms\n", m.LatencyP99Ms)
}
