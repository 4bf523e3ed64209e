package sysmon

import (
	"strconv"
	"strings"
	"time"
)

// appendNetSamples reads per-interface byte counters from /proc/net/dev.
func (m *Monitor) appendNetSamples(now time.Time, buf []byte) {
	for _, line := range strings.Split(string(buf), "\n") {
		parts := strings.Fields(line)
		if len(parts) != 17 {
			continue
		}

		iface := strings.TrimSuffix(parts[0], ":")
		recvBytes, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		sentBytes, err := strconv.ParseInt(parts[9], 10, 64)
		if err != nil {
			continue
		}

		m.samples.NetSentBytes = append(m.samples.NetSentBytes, DeviceMeasurement{
			Device:      iface,
			Measurement: Measurement{Time: now.Unix(), Value: float64(sentBytes)},
		})
		m.samples.NetRecvBytes = append(m.samples.NetRecvBytes, DeviceMeasurement{
			Device:      iface,
			Measurement: Measurement{Time: now.Unix(), Value: float64(recvBytes)},
		})
	}
}
