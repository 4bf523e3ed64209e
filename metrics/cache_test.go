package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHeuristicFlagsImplausibleThroughput(t *testing.T) {
	write := &ProfileMetrics{ThroughputMBps: 500}
	read := &ProfileMetrics{ThroughputMBps: 9000, RuntimeMs: 5000, Requests: 100}

	ApplyCacheHeuristic(read, write, nil)

	assert.True(t, read.CacheSuspected)
	require.NotNil(t, read.EstimatedThroughputMBps)
	assert.InDelta(t, 750.0, *read.EstimatedThroughputMBps, 0.001)
	// the raw figure is reported as measured
	assert.InDelta(t, 9000.0, read.ThroughputMBps, 0.001)
}

func TestCacheHeuristicUsesNetworkCeilingWhenAvailable(t *testing.T) {
	network := &NetworkMetrics{SendMbps: 9420.5} // ~1177 MB/s capacity
	read := &ProfileMetrics{ThroughputMBps: 15000, RuntimeMs: 5000, Requests: 100}

	ApplyCacheHeuristic(read, nil, network)

	assert.True(t, read.CacheSuspected)
	require.NotNil(t, read.EstimatedThroughputMBps)
	assert.InDelta(t, network.CapacityMBps(), *read.EstimatedThroughputMBps, 0.001)
}

func TestCacheHeuristicShortRuntimeSignature(t *testing.T) {
	// the whole read phase finished in under 100 ms yet claims real requests
	write := &ProfileMetrics{ThroughputMBps: 500}
	read := &ProfileMetrics{ThroughputMBps: 400, RuntimeMs: 40, Requests: 100}

	ApplyCacheHeuristic(read, write, nil)

	assert.True(t, read.CacheSuspected)
	require.NotNil(t, read.EstimatedThroughputMBps)
}

func TestCacheHeuristicLeavesPlausibleReadsAlone(t *testing.T) {
	write := &ProfileMetrics{ThroughputMBps: 500}
	read := &ProfileMetrics{ThroughputMBps: 650, RuntimeMs: 60000, Requests: 900}

	ApplyCacheHeuristic(read, write, nil)

	assert.False(t, read.CacheSuspected)
	assert.Nil(t, read.EstimatedThroughputMBps)
}

func TestCacheHeuristicAbsoluteCeiling(t *testing.T) {
	// no write or network reference at all
	read := &ProfileMetrics{ThroughputMBps: 20000, RuntimeMs: 5000, Requests: 100}

	ApplyCacheHeuristic(read, nil, nil)

	assert.True(t, read.CacheSuspected)
	require.NotNil(t, read.EstimatedThroughputMBps)
	assert.Greater(t, *read.EstimatedThroughputMBps, 0.0)
}

func TestCacheHeuristicNilRead(t *testing.T) {
	assert.NotPanics(t, func() {
		ApplyCacheHeuristic(nil, &ProfileMetrics{}, nil)
	})
}
