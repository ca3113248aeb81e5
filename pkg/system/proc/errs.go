package proc

import "errors"

var (
	// ErrNoCPU indicates that /proc/stat had no aggregate CPU line.
	ErrNoCPU = errors.New("proc: no aggregate cpu line")

	// ErrBadCPUField indicates a tick field in the aggregate CPU line
	// failed to parse as a number.
	ErrBadCPUField = errors.New("proc: malformed cpu tick field")

	// ErrNoTracerPID indicates that /proc/<pid>/status carried no
	// TracerPid line.
	ErrNoTracerPID = errors.New("proc: no TracerPid line")
)
