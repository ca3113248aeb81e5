package collector

import (
	"fmt"

	"github.com/nohupped/procshot/pkg/snapshot"
)

// CPUKind selects which raw tick counter Usage diffs.
type CPUKind uint8

const (
	// UserCPU diffs user-mode ticks (utime).
	UserCPU CPUKind = iota
	// SystemCPU diffs kernel-mode ticks (stime).
	SystemCPU
)

// Usage computes a process' instantaneous utilization percentage since
// the previous sample:
//
//	100 * (cur - prev) / (curTotal - prevTotal)
//
// where prev is looked up for pid in the previous cycle's map. The
// first cycle ever (nil map) and a pid not seen before both yield 0.
//
// The division is deliberately left raw: a zero or negative total-tick
// delta produces ±Inf/NaN, which propagates into the stored snapshot
// unchanged.
func Usage(kind CPUKind, pid int32, prev map[int32]snapshot.ProcessStatus, cur, curTotal, prevTotal uint64) (float64, error) {
	var prevTicks uint64
	p, ok := prev[pid]
	switch kind {
	case UserCPU:
		prevTicks = p.UTime
	case SystemCPU:
		prevTicks = p.STime
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownCPUKind, kind)
	}
	if prev == nil || !ok {
		return 0, nil
	}
	return 100 * (float64(cur) - float64(prevTicks)) / (float64(curTotal) - float64(prevTotal)), nil
}
