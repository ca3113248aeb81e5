//go:build linux

package proc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const statPath = "/proc/stat"

// ClockTicks returns the number of jiffies (clock ticks) per second.
// It first checks the env var CLK_TCK (useful for testing), otherwise
// falls back to 100 (common default).
//
// Note: On real systems, the authoritative way is `sysconf(_SC_CLK_TCK)`,
// but calling that requires cgo. For portability in a pure-Go tool,
// this simplified approach is acceptable.
func ClockTicks() int {
	v, _ := strconv.Atoi(os.Getenv("CLK_TCK"))
	if v > 0 {
		return v
	}
	return 100
}

// PageSize returns the system memory page size in bytes.
// Like ClockTicks, it first checks an env override (PAGE_SIZE)
// to ease testing, then falls back to os.Getpagesize().
func PageSize() int {
	if ps := os.Getenv("PAGE_SIZE"); ps != "" {
		if v, _ := strconv.Atoi(ps); v > 0 {
			return v
		}
	}
	return os.Getpagesize()
}

// TotalCPUTime reads the host-wide cumulative CPU tick counter from the
// aggregate line of /proc/stat. It is the denominator for per-process
// CPU usage percentages.
func TotalCPUTime() (uint64, error) {
	f, err := os.Open(statPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return TotalCPUTimeFrom(f)
}

// TotalCPUTimeFrom parses the first line of a /proc/stat style stream
// and returns the sum of every numeric field of the aggregate "cpu"
// record (user, nice, system, idle, iowait, irq, softirq, steal, guest,
// guest_nice as present). Fields missing on older kernels are simply
// absent from the split and do not error; a field that fails to parse
// does.
func TotalCPUTimeFrom(r io.Reader) (uint64, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, err
		}
		return 0, ErrNoCPU
	}
	fields := strings.Fields(sc.Text())
	// The aggregate record is labeled exactly "cpu"; per-core records
	// are "cpu0", "cpu1", ...
	if len(fields) < 2 || fields[0] != "cpu" {
		return 0, ErrNoCPU
	}
	var total uint64
	for _, field := range fields[1:] {
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadCPUField, field)
		}
		total += v
	}
	return total, nil
}

// ReadTracerPID returns the pid of the process tracing pid, 0 if it is
// not being traced. prometheus/procfs does not surface this field, so
// it is scanned from /proc/<pid>/status directly.
func ReadTracerPID(pid int) (int, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "TracerPid:") {
			v := strings.TrimSpace(strings.TrimPrefix(line, "TracerPid:"))
			return strconv.Atoi(v)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, ErrNoTracerPID
}
