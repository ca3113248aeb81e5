package collector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nohupped/procshot/pkg/types"
)

type fakeRecord struct {
	pid     int
	info    Info
	infoErr error
	cmd     []string
	cmdErr  error
}

func (f *fakeRecord) PID() int                   { return f.pid }
func (f *fakeRecord) Info() (Info, error)        { return f.info, f.infoErr }
func (f *fakeRecord) CmdLine() ([]string, error) { return f.cmd, f.cmdErr }

func u64p(v uint64) *uint64 { return &v }
func i32p(v int32) *int32   { return &v }

func healthyInfo(pid int32) Info {
	return Info{
		PID:       pid,
		PPID:      1,
		TracerPID: 0,
		Name:      "procshot",
		CmdShort:  "procshot",
		EUID:      1000,
		FDSize:    16,
		State:     "S",
		VmPeakKB:  u64p(20480),
		VmSizeKB:  u64p(10240),
		RSSPages:  512,
		RSSBytes:  512 * 4096,
		RSSLimit:  ^uint64(0),
		CPU:       i32p(3),
		UTime:     150,
		STime:     90,
	}
}

func TestAdapt_MapsAllFields(t *testing.T) {
	rec := &fakeRecord{
		pid:  42,
		info: healthyInfo(42),
		cmd:  []string{"/usr/bin/procshot", "server", "-d", "60"},
	}

	ps, ok := adapt(rec)
	require.True(t, ok)

	assert.Equal(t, int32(42), ps.PID)
	assert.Equal(t, int32(1), ps.PPID)
	assert.Equal(t, int32(0), ps.TracerPID)
	assert.Equal(t, "procshot", ps.Name)
	assert.Equal(t, "procshot", ps.CmdShort)
	assert.Equal(t, []string{"/usr/bin/procshot", "server", "-d", "60"}, ps.CmdLong)
	assert.Equal(t, uint32(1000), ps.EUID)
	assert.Equal(t, uint32(16), ps.FDSize)
	assert.Equal(t, "S", ps.State)
	require.NotNil(t, ps.VmPeakKB)
	assert.Equal(t, uint64(20480), *ps.VmPeakKB)
	require.NotNil(t, ps.VmSizeKB)
	assert.Equal(t, uint64(10240), *ps.VmSizeKB)
	assert.Equal(t, int64(512), ps.RSSPages)
	assert.Equal(t, types.Bytes(512*4096), ps.RSSBytes)
	require.NotNil(t, ps.CPU)
	assert.Equal(t, int32(3), *ps.CPU)
	assert.Equal(t, uint64(150), ps.UTime)
	assert.Equal(t, uint64(90), ps.STime)

	// Derived percentages are left for the estimator.
	assert.Equal(t, 0.0, ps.UserCPUUsage)
	assert.Equal(t, 0.0, ps.SysCPUUsage)

	assert.True(t, ps.Included())
}

func TestAdapt_StatusFailureIsExcluded(t *testing.T) {
	// The process exited between enumeration and the status read.
	rec := &fakeRecord{
		pid:     42,
		infoErr: errors.New("open /proc/42/stat: no such file or directory"),
		cmd:     []string{"ignored"},
	}
	_, ok := adapt(rec)
	assert.False(t, ok)
}

func TestAdapt_CmdlineFailureDegradesToPlaceholder(t *testing.T) {
	rec := &fakeRecord{
		pid:    42,
		info:   healthyInfo(42),
		cmdErr: errors.New("permission denied"),
	}
	ps, ok := adapt(rec)
	require.True(t, ok)
	assert.Equal(t, []string{cmdlinePlaceholder}, ps.CmdLong)
}

func TestAdapt_EmptyCmdlineStaysEmpty(t *testing.T) {
	// Kernel threads read back an empty cmdline without error; that is
	// not the same as unreadable.
	rec := &fakeRecord{pid: 42, info: healthyInfo(42)}
	ps, ok := adapt(rec)
	require.True(t, ok)
	require.NotNil(t, ps.CmdLong, "empty argv is carried non-nil so snapshots round-trip")
	assert.Empty(t, ps.CmdLong)
}
