package synth

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rcliao/desk-memory/internal/clock"
)

// SystemResources is a best-effort host snapshot. Any field may be nil.
type SystemResources struct {
	BatteryPercent    *float64 `json:"battery_percent,omitempty"`
	Charging          *bool    `json:"charging,omitempty"`
	CPULoad           *float64 `json:"cpu_load,omitempty"`
	MemoryUsedPercent *float64 `json:"memory_used_percent,omitempty"`
	ObservedMS        int64    `json:"observed_ms"`
}

func (r *SystemResources) clone() *SystemResources {
	if r == nil {
		return nil
	}
	c := *r
	c.BatteryPercent = clonePtr(r.BatteryPercent)
	c.Charging = clonePtr(r.Charging)
	c.CPULoad = clonePtr(r.CPULoad)
	c.MemoryUsedPercent = clonePtr(r.MemoryUsedPercent)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Probe reads host resource levels.
type Probe interface {
	Probe(ctx context.Context) (SystemResources, error)
}

// ResourceMonitor caches the latest probe result. Readers never wait on the
// probe; they see the previous snapshot, or nil before the first one lands.
type ResourceMonitor struct {
	probe Probe
	clock clock.Clock
	log   *slog.Logger

	mu       sync.Mutex
	last     *SystemResources
	inFlight bool
}

// NewResourceMonitor wraps p. A nil probe yields a monitor that never
// reports anything.
func NewResourceMonitor(p Probe, c clock.Clock, log *slog.Logger) *ResourceMonitor {
	if log == nil {
		log = slog.Default()
	}
	return &ResourceMonitor{probe: p, clock: clock.OrReal(c), log: log}
}

// Snapshot returns a copy of the latest result.
func (m *ResourceMonitor) Snapshot() *SystemResources {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.clone()
}

// Refresh probes synchronously and stores the result.
func (m *ResourceMonitor) Refresh(ctx context.Context) error {
	if m.probe == nil {
		return nil
	}
	res, err := m.probe.Probe(ctx)
	if err != nil {
		return fmt.Errorf("probe resources: %w", err)
	}
	res.ObservedMS = m.clock.Now().UnixMilli()

	m.mu.Lock()
	m.last = &res
	m.mu.Unlock()
	return nil
}

// Trigger starts a background refresh unless one is already running.
func (m *ResourceMonitor) Trigger() {
	if m.probe == nil {
		return
	}
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return
	}
	m.inFlight = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			m.inFlight = false
			m.mu.Unlock()
		}()
		if err := m.Refresh(context.Background()); err != nil {
			m.log.Debug("resource probe failed", "error", err)
		}
	}()
}

// SysfsProbe reads battery state from power_supply, load from loadavg and
// memory from meminfo. Files that are missing leave their fields nil.
type SysfsProbe struct {
	FS fs.FS
}

// NewSysfsProbe returns a probe over the live root filesystem.
func NewSysfsProbe() *SysfsProbe {
	return &SysfsProbe{FS: os.DirFS("/")}
}

func (p *SysfsProbe) Probe(ctx context.Context) (SystemResources, error) {
	var res SystemResources
	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.BatteryPercent, res.Charging = p.battery()
	res.CPULoad = p.loadAverage()
	res.MemoryUsedPercent = p.memoryUsed()
	return res, nil
}

func (p *SysfsProbe) battery() (*float64, *bool) {
	entries, err := fs.ReadDir(p.FS, "sys/class/power_supply")
	if err != nil {
		return nil, nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		dir := path.Join("sys/class/power_supply", name)
		if typ, err := readTrimmed(p.FS, path.Join(dir, "type")); err != nil || typ != "Battery" {
			continue
		}
		raw, err := readTrimmed(p.FS, path.Join(dir, "capacity"))
		if err != nil {
			continue
		}
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		var charging *bool
		if status, err := readTrimmed(p.FS, path.Join(dir, "status")); err == nil {
			c := status == "Charging" || status == "Full"
			charging = &c
		}
		return &pct, charging
	}
	return nil, nil
}

func (p *SysfsProbe) loadAverage() *float64 {
	raw, err := readTrimmed(p.FS, "proc/loadavg")
	if err != nil {
		return nil
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil
	}
	return &load
}

func (p *SysfsProbe) memoryUsed() *float64 {
	data, err := fs.ReadFile(p.FS, "proc/meminfo")
	if err != nil {
		return nil
	}
	var total, avail float64
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = v
		case "MemAvailable:":
			avail = v
		}
	}
	if total <= 0 {
		return nil
	}
	used := (total - avail) / total * 100
	return &used
}

func readTrimmed(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
