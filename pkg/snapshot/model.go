package snapshot

import "github.com/nohupped/procshot/pkg/types"

// ProcessStatus is one process' state as observed at sample time.
// VmPeakKB, VmSizeKB and CPU are nil when the kernel did not expose the
// field (kernel threads have no Vm* lines in /proc/<pid>/status).
type ProcessStatus struct {
	// Identity.
	PID       int32
	PPID      int32
	TracerPID int32 // 0 when untraced

	// The process name from /proc/<pid>/status and the executable
	// basename from /proc/<pid>/stat (comm, in parens there).
	Name     string
	CmdShort string
	// Full argument vector; a single placeholder element when the
	// cmdline could not be read, empty (but never nil, so the codec
	// round-trips field-for-field) for reaped processes and kernel
	// threads.
	CmdLong []string

	// Effective uid.
	EUID uint32

	// Number of file descriptor slots currently allocated.
	FDSize uint32
	// Single-character lifecycle code (R, S, D, Z, ...).
	State string

	// Peak and current virtual memory size in kB.
	VmPeakKB *uint64
	VmSizeKB *uint64

	// Resident set size, in pages and in bytes, and the soft RSS limit.
	RSSPages int64
	RSSBytes types.Bytes
	RSSLimit uint64

	// CPU index the process last executed on.
	CPU *int32

	// Cumulative user/kernel mode clock ticks.
	UTime uint64
	STime uint64

	// Utilization percentages since the previous sample. Zero when no
	// previous sample exists for this pid.
	UserCPUUsage float64
	SysCPUUsage  float64
}

// Included reports whether the process qualifies for a snapshot:
// VmPeak known, non-zero RSS and a non-negative pid. This filters out
// kernel threads, already-exited processes and unreadable entries.
func (p *ProcessStatus) Included() bool {
	return p.VmPeakKB != nil && p.RSSPages != 0 && p.PID >= 0
}

// Snapshot is one sampling cycle's complete result. It is never mutated
// after construction; each cycle builds a fresh one.
type Snapshot struct {
	// Hostname identifies the collecting host, stable for the
	// collector's lifetime.
	Hostname string
	// Procs maps pid to its status for this cycle.
	Procs map[int32]ProcessStatus
	// CapturedAt is the capture time in seconds since the epoch.
	CapturedAt int64
	// DelaySec is the configured inter-cycle delay, carried for
	// readers of the snapshot file.
	DelaySec uint64
	// TotalCPUTime is the aggregate host CPU tick counter at capture
	// time, the denominator for the usage percentages.
	TotalCPUTime uint64
}
