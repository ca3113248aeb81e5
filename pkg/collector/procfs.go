//go:build linux

package collector

import (
	"fmt"

	"github.com/prometheus/procfs"

	sysproc "github.com/nohupped/procshot/pkg/system/proc"
)

// ProcfsSource enumerates processes from a mounted proc filesystem via
// prometheus/procfs.
type ProcfsSource struct {
	fs procfs.FS
}

// NewProcfsSource opens the proc filesystem at mountPoint, normally
// "/proc".
func NewProcfsSource(mountPoint string) (*ProcfsSource, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("collector: open procfs: %w", err)
	}
	return &ProcfsSource{fs: fs}, nil
}

// Processes lists all pids visible in the proc filesystem right now.
// Individual records are read lazily; a process that exits before its
// accessors run fails at the accessor, not here.
func (s *ProcfsSource) Processes() ([]Record, error) {
	procs, err := s.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("collector: list processes: %w", err)
	}
	out := make([]Record, 0, len(procs))
	for _, p := range procs {
		out = append(out, &procfsRecord{proc: p})
	}
	return out, nil
}

type procfsRecord struct {
	proc procfs.Proc
}

func (r *procfsRecord) PID() int { return r.proc.PID }

func (r *procfsRecord) Info() (Info, error) {
	stat, err := r.proc.Stat()
	if err != nil {
		return Info{}, err
	}
	status, err := r.proc.NewStatus()
	if err != nil {
		return Info{}, err
	}

	info := Info{
		PID:      int32(r.proc.PID),
		PPID:     int32(stat.PPID),
		Name:     status.Name,
		CmdShort: stat.Comm,
		EUID:     uint32(status.UIDs[1]),
		State:    stat.State,
		RSSPages: int64(stat.RSS),
		RSSBytes: int64(stat.RSS) * int64(sysproc.PageSize()),
		RSSLimit: stat.RSSLimit,
		UTime:    uint64(stat.UTime),
		STime:    uint64(stat.STime),
	}

	// procfs reports Vm* in bytes; snapshots carry kB the way
	// /proc/<pid>/status prints them. Zero means the kernel did not
	// expose the field (kernel threads).
	if status.VmPeak > 0 {
		kb := status.VmPeak / 1024
		info.VmPeakKB = &kb
	}
	if status.VmSize > 0 {
		kb := status.VmSize / 1024
		info.VmSizeKB = &kb
	}
	cpu := int32(stat.Processor)
	info.CPU = &cpu

	// Best-effort fields: failure degrades the field, not the record.
	if n, err := r.proc.FileDescriptorsLen(); err == nil {
		info.FDSize = uint32(n)
	}
	if tracer, err := sysproc.ReadTracerPID(r.proc.PID); err == nil {
		info.TracerPID = int32(tracer)
	}

	return info, nil
}

func (r *procfsRecord) CmdLine() ([]string, error) { return r.proc.CmdLine() }
