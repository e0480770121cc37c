package sampler

import (
	"os"
	"runtime"
	"strings"

	"github.com/nsolari/procwatch/model"
	"github.com/nsolari/procwatch/util"
)

func (s *Sampler) collectSystemMetrics() (model.SystemMetrics, error) {
	var m model.SystemMetrics

	kv, err := util.ParseKeyValueFile("/proc/meminfo")
	if err != nil {
		return m, err
	}
	m.TotalMemoryKB = util.ParseUint64(kv["MemTotal"])
	available := util.ParseUint64(kv["MemAvailable"])
	if available == 0 {
		// Older kernels lack MemAvailable; approximate with free+buffers+cached.
		available = util.ParseUint64(kv["MemFree"]) + util.ParseUint64(kv["Buffers"]) + util.ParseUint64(kv["Cached"])
	}
	if m.TotalMemoryKB > available {
		m.UsedMemoryKB = m.TotalMemoryKB - available
	}
	m.TotalSwapKB = util.ParseUint64(kv["SwapTotal"])
	swapFree := util.ParseUint64(kv["SwapFree"])
	if m.TotalSwapKB > swapFree {
		m.UsedSwapKB = m.TotalSwapKB - swapFree
	}

	m.CPUCount = runtime.NumCPU()

	if loadavg, err := util.ReadFileString("/proc/loadavg"); err == nil {
		fields := strings.Fields(loadavg)
		if len(fields) >= 3 {
			m.Load1 = util.ParseFloat64(fields[0])
			m.Load5 = util.ParseFloat64(fields[1])
			m.Load15 = util.ParseFloat64(fields[2])
		}
	}

	if uptime, err := util.ReadFileString("/proc/uptime"); err == nil {
		fields := strings.Fields(uptime)
		if len(fields) >= 1 {
			m.UptimeSeconds = uint64(util.ParseFloat64(fields[0]))
		}
	}

	if hostname, err := os.Hostname(); err == nil {
		m.Hostname = hostname
	}

	return m, nil
}
