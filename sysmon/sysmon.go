package sysmon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fionet/fionet/executor"
)

// Samples are client-side load observations taken while the workloads ran.
// Advisory only; they help tell a saturated client apart from a slow server.
type Samples struct {
	CPUBusyPct   []Measurement
	NetSentBytes []DeviceMeasurement
	NetRecvBytes []DeviceMeasurement
}

type Measurement struct {
	Time  int64
	Value float64
}

type DeviceMeasurement struct {
	Device      string
	Measurement Measurement
}

// PeakCPUBusyPct returns the highest observed CPU busy percentage.
func (s *Samples) PeakCPUBusyPct() (float64, bool) {
	if len(s.CPUBusyPct) == 0 {
		return 0, false
	}
	peak := s.CPUBusyPct[0].Value
	for _, m := range s.CPUBusyPct[1:] {
		if m.Value > peak {
			peak = m.Value
		}
	}
	return peak, true
}

// NetDeltaBytes returns the total bytes that crossed all interfaces between
// the first and last sample.
func (s *Samples) NetDeltaBytes() (sent, recv int64) {
	sent = counterDelta(s.NetSentBytes)
	recv = counterDelta(s.NetRecvBytes)
	return sent, recv
}

func counterDelta(ms []DeviceMeasurement) int64 {
	first := map[string]float64{}
	last := map[string]float64{}
	for _, m := range ms {
		if _, ok := first[m.Device]; !ok {
			first[m.Device] = m.Measurement.Value
		}
		last[m.Device] = m.Measurement.Value
	}
	var total int64
	for dev, v := range last {
		total += int64(v - first[dev])
	}
	return total
}

// Monitor samples /proc through the executor once a second until stopped.
type Monitor struct {
	exec    executor.Executor
	stop    *atomic.Bool
	wg      *sync.WaitGroup
	samples *Samples
}

func New(exec executor.Executor) *Monitor {
	return &Monitor{
		exec:    exec,
		stop:    &atomic.Bool{},
		wg:      &sync.WaitGroup{},
		samples: &Samples{},
	}
}

var loopTime = 1 * time.Second

func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.run()
}

func (m *Monitor) Stop() {
	m.stop.Store(true)
}

func (m *Monitor) Wait() {
	m.wg.Wait()
}

// Samples must not be called until Wait has returned.
func (m *Monitor) Samples() *Samples {
	return m.samples
}

func (m *Monitor) run() {
	defer m.wg.Done()
	var prev *cpuTimes
	for !m.stop.Load() {
		buf := m.catFile("/proc/stat")
		now := time.Now()
		curr := parseCPUStat(buf)
		if prev != nil && curr != nil {
			if pct, ok := busyPct(prev, curr); ok {
				m.samples.CPUBusyPct = append(m.samples.CPUBusyPct, Measurement{Time: now.Unix(), Value: pct})
			}
		}
		prev = curr

		buf = m.catFile("/proc/net/dev")
		m.appendNetSamples(time.Now(), buf)

		time.Sleep(loopTime)
	}
	slog.Debug("sysmon: stopped")
}

func (m *Monitor) catFile(path string) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := m.exec.Run(ctx, "cat", path)
	if err != nil || res.ExitCode != 0 {
		slog.Warn("sysmon: failed to sample", slog.String("path", path))
		return nil
	}
	return res.Stdout
}
