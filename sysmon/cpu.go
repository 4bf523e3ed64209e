package sysmon

import (
	"strconv"
	"strings"
)

type cpuTimes struct {
	user, nice, system, idle, iowait, irq, softirq, steal int64
}

func (t *cpuTimes) total() int64 {
	return t.user + t.nice + t.system + t.idle + t.iowait + t.irq + t.softirq + t.steal
}

func (t *cpuTimes) busy() int64 {
	return t.total() - t.idle - t.iowait
}

// parseCPUStat reads the aggregate "cpu" line of /proc/stat.
func parseCPUStat(buf []byte) *cpuTimes {
	for _, line := range strings.Split(string(buf), "\n") {
		parts := strings.Fields(line)
		if len(parts) < 9 || parts[0] != "cpu" {
			continue
		}
		n := make([]int64, 8)
		for i := range n {
			v, err := strconv.ParseInt(parts[i+1], 10, 64)
			if err != nil {
				return nil
			}
			n[i] = v
		}
		return &cpuTimes{
			user: n[0], nice: n[1], system: n[2], idle: n[3],
			iowait: n[4], irq: n[5], softirq: n[6], steal: n[7],
		}
	}
	return nil
}

func busyPct(prev, curr *cpuTimes) (float64, bool) {
	dTotal := curr.total() - prev.total()
	if dTotal <= 0 {
		return 0, false
	}
	return float64(curr.busy()-prev.busy()) / float64(dTotal) * 100, true
}
