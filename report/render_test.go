package report

import (
	"bytes"
	"os"
	"testing"

	"github.com/fionet/fionet/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(r *Report) string {
	var buf bytes.Buffer
	Render(&buf, r)
	return buf.String()
}

func TestRenderFullReport(t *testing.T) {
	network := &metrics.NetworkMetrics{
		SendMbps: 9420.5, ReceiveMbps: 9380, SendBytes: 11775625000, RecvBytes: 11725000000, DurationSec: 10,
	}
	r := Build(header(), []ProfileSlot{writeSlot(), readSlot()}, network, nil, nil)
	out := render(r)

	assert.Contains(t, out, "=== S3 Load Testing + Network Bandwidth Report ===")
	assert.Contains(t, out, "Endpoint: http://minio:9000")
	assert.Contains(t, out, "Bucket: fio-bench")
	assert.Contains(t, out, "Block Size: 4M")
	assert.Contains(t, out, "Jobs: write=4, read=4")

	assert.Contains(t, out, "[Network Baseline - iperf3]")
	assert.Contains(t, out, "Bandwidth (send): 9420.50 Mbps (1177.6 MB/s)")

	assert.Contains(t, out, "[Profile A: write] Real S3 traffic")
	assert.Contains(t, out, "HTTP PUT requests: 200")
	assert.Contains(t, out, "[Profile B: read] Real S3 traffic")
	assert.Contains(t, out, "HTTP GET requests: 300")

	assert.Contains(t, out, "[Summary]")
	assert.Contains(t, out, "Network capacity: 1177.6 MB/s")
	assert.Contains(t, out, "S3 write efficiency: 43.2% of network capacity")
	assert.Contains(t, out, "Total HTTP requests: 500")
	assert.Contains(t, out, "Write throughput: 508.58 MB/s")
	assert.Contains(t, out, "Read throughput: 600.00 MB/s")
	assert.Contains(t, out, "Latency P95 (worst): 80.00 ms")
	assert.NotContains(t, out, "see note below")
}

func TestRenderCacheSuspectedProfile(t *testing.T) {
	read := readSlot()
	est := 762.87
	read.Metrics.CacheSuspected = true
	read.Metrics.ThroughputMBps = 9123.45
	read.Metrics.EstimatedThroughputMBps = &est

	r := Build(header(), []ProfileSlot{writeSlot(), read}, nil, nil, nil)
	out := render(r)

	assert.Contains(t, out, "[Profile B: read] CACHED - not real S3 traffic")
	assert.Contains(t, out, "Throughput: 9123.45 MB/s (FROM MEMORY CACHE)")
	assert.Contains(t, out, "Estimated real throughput: ~763 MB/s")

	// the summary names the cached read and points at the note
	assert.Contains(t, out, "Write throughput: 508.58 MB/s")
	assert.Contains(t, out, "Read throughput: CACHED (see note below)")
	assert.Contains(t, out, "NOTE: fio HTTP engine caches read data in memory.")
	assert.Contains(t, out, "minio/warp")
}

func TestRenderPartialFailure(t *testing.T) {
	bad := ProfileSlot{Name: "profile_b_read", Role: "read", Method: "GET", Reason: "malformed output: no jobs"}
	r := Build(header(), []ProfileSlot{writeSlot(), bad}, nil, nil, []string{"profile_b_read produced no usable metrics"})
	out := render(r)

	// profile A renders fully
	assert.Contains(t, out, "[Profile A: write] Real S3 traffic")
	assert.Contains(t, out, "Throughput: 508.58 MB/s")

	// profile B keeps its slot, marked unavailable
	assert.Contains(t, out, "[Profile B: read] UNAVAILABLE")
	assert.Contains(t, out, "Reason: malformed output: no jobs")

	assert.Contains(t, out, "S3 write efficiency: not measured")
	assert.Contains(t, out, "NOTE: profile_b_read produced no usable metrics")
}

func TestRenderIsDeterministic(t *testing.T) {
	r := Build(header(), []ProfileSlot{writeSlot(), readSlot()}, nil, nil, nil)
	assert.Equal(t, render(r), render(r))
}

func TestSaveRawRoundTrip(t *testing.T) {
	dir := t.TempDir()
	doc := []byte(`{"jobs": [{"write": {"total_ios": 200, "io_bytes": 838860800, "runtime": 1573,
		"clat_ns": {"percentile": {"95.000000": 45000000, "99.000000": 61000000}}}}]}`)

	p, err := SaveRaw(dir, 1700000000, "profile_a_write", doc)
	require.NoError(t, err)
	assert.Contains(t, p, "1700000000_profile_a_write.json")

	// the persisted document re-parses to identical metrics
	saved, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, doc, saved)

	orig, err := metrics.NewFioParser("write").Parse(doc)
	require.NoError(t, err)
	reparsed, err := metrics.NewFioParser("write").Parse(saved)
	require.NoError(t, err)
	assert.Equal(t, orig, reparsed)
}
