package collector

import (
	"github.com/nohupped/procshot/pkg/snapshot"
	"github.com/nohupped/procshot/pkg/types"
)

// cmdlinePlaceholder stands in for an argument vector that could not
// be read, so the record itself still makes it into the snapshot.
const cmdlinePlaceholder = "no cmdline available"

// adapt converts one process record into a ProcessStatus. ok is false
// when the status accessor failed (the process exited mid-scan or
// denied access); such records are excluded from the cycle instead of
// failing it. A failed cmdline read only degrades to a placeholder.
func adapt(r Record) (snapshot.ProcessStatus, bool) {
	info, err := r.Info()
	if err != nil {
		return snapshot.ProcessStatus{}, false
	}

	cmd, err := r.CmdLine()
	if err != nil {
		cmd = []string{cmdlinePlaceholder}
	} else if cmd == nil {
		// Empty is legitimate (reaped processes, kernel threads), but
		// snapshots carry it as a non-nil empty vector.
		cmd = []string{}
	}

	return snapshot.ProcessStatus{
		PID:       info.PID,
		PPID:      info.PPID,
		TracerPID: info.TracerPID,
		Name:      info.Name,
		CmdShort:  info.CmdShort,
		CmdLong:   cmd,
		EUID:      info.EUID,
		FDSize:    info.FDSize,
		State:     info.State,
		VmPeakKB:  info.VmPeakKB,
		VmSizeKB:  info.VmSizeKB,
		RSSPages:  info.RSSPages,
		RSSBytes:  types.Bytes(info.RSSBytes),
		RSSLimit:  info.RSSLimit,
		CPU:       info.CPU,
		UTime:     info.UTime,
		STime:     info.STime,
	}, true
}
