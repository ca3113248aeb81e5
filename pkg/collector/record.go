package collector

// Info carries the fields a process record exposes from the process
// table's stat/status files. Pointer fields are nil when the kernel
// does not expose them for the process (kernel threads carry no Vm*
// lines).
type Info struct {
	PID       int32
	PPID      int32
	TracerPID int32
	Name      string
	CmdShort  string
	EUID      uint32
	FDSize    uint32
	State     string
	VmPeakKB  *uint64
	VmSizeKB  *uint64
	RSSPages  int64
	RSSBytes  int64
	RSSLimit  uint64
	CPU       *int32
	UTime     uint64
	STime     uint64
}

// Record is one process as exposed by the OS process table. Accessors
// may fail independently: a process can exit between enumeration and
// the status read, or deny access to parts of its /proc entry.
type Record interface {
	PID() int
	Info() (Info, error)
	CmdLine() ([]string, error)
}

// Source enumerates the processes visible at call time.
type Source interface {
	Processes() ([]Record, error)
}
