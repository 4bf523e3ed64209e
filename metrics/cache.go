package metrics

// The cache heuristic is an approximation, not a measurement. fio's http
// engine serves repeated reads from client memory, which shows up as
// throughput no real network/storage path could sustain. We flag it and
// attach a corrected estimate; the raw figure is left untouched.
const (
	// A read profile is suspect when it beats the best available reference
	// (network capacity, else write throughput) by this factor.
	cacheCeilingFactor = 10.0

	// Used when neither reference exists. No single-client path we benchmark
	// sustains 8 GiB/s of real storage reads.
	cacheAbsoluteCeilingMBps = 8192.0

	// Reads finishing this fast while still reporting work did not leave the
	// client.
	cacheShortRuntimeMs       = 100
	cacheShortRuntimeMinIOs   = 10

	// Reads are typically somewhat faster than writes on the same path.
	readOverWriteEstimateFactor = 1.5
)

// ApplyCacheHeuristic inspects a read profile's metrics and flags
// cache-inflated throughput. write and network may be nil when those results
// are unavailable.
func ApplyCacheHeuristic(read, write *ProfileMetrics, network *NetworkMetrics) {
	if read == nil {
		return
	}

	ceiling := cacheAbsoluteCeilingMBps
	switch {
	case network != nil && network.CapacityMBps() > 0:
		ceiling = cacheCeilingFactor * network.CapacityMBps()
	case write != nil && write.ThroughputMBps > 0:
		ceiling = cacheCeilingFactor * write.ThroughputMBps
	}

	tooFast := read.ThroughputMBps > ceiling
	tooShort := read.RuntimeMs < cacheShortRuntimeMs && read.Requests > cacheShortRuntimeMinIOs
	if !tooFast && !tooShort {
		return
	}

	read.CacheSuspected = true
	read.EstimatedThroughputMBps = estimateReadThroughput(write, network)
}

func estimateReadThroughput(write *ProfileMetrics, network *NetworkMetrics) *float64 {
	var est float64
	switch {
	case write != nil && write.ThroughputMBps > 0:
		est = write.ThroughputMBps * readOverWriteEstimateFactor
	case network != nil && network.CapacityMBps() > 0:
		est = network.CapacityMBps()
	default:
		est = cacheAbsoluteCeilingMBps / cacheCeilingFactor
	}
	return &est
}
