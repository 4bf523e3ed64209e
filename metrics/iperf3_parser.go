package metrics

import (
	"encoding/json"
	"fmt"
)

type iperf3Parser struct{}

// NewIperf3Parser returns a parser for iperf3 -J output. Bandwidth is read
// in bits/second and converted so it is comparable with storage throughput.
func NewIperf3Parser() Parser {
	return &iperf3Parser{}
}

type iperf3Document struct {
	End iperf3End `json:"end"`
}

type iperf3End struct {
	SumSent     iperf3Sum `json:"sum_sent"`
	SumReceived iperf3Sum `json:"sum_received"`
}

type iperf3Sum struct {
	BitsPerSecond float64 `json:"bits_per_second"`
	Bytes         int64   `json:"bytes"`
	Seconds       float64 `json:"seconds"`
}

func (p *iperf3Parser) Parse(doc []byte) (*Record, error) {
	var d iperf3Document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if d.End.SumSent.BitsPerSecond <= 0 {
		return nil, fmt.Errorf("%w: iperf3 output has no send bandwidth", ErrMalformedOutput)
	}

	m := &NetworkMetrics{
		SendMbps:    d.End.SumSent.BitsPerSecond / 1e6,
		ReceiveMbps: d.End.SumReceived.BitsPerSecond / 1e6,
		SendBytes:   d.End.SumSent.Bytes,
		RecvBytes:   d.End.SumReceived.Bytes,
		DurationSec: d.End.SumSent.Seconds,
	}
	return &Record{Network: m}, nil
}
