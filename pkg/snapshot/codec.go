package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/nohupped/procshot/pkg/types"
)

// On-disk layout (all integers little-endian):
//
//	magic "PSHT" | version u8 | hostname str | captured_at i64 |
//	delay u64 | total_cpu_time u64 | count u32 |
//	count * (pid i32, status)
//
// status:
//
//	ppid i32 | tracerpid i32 | name str | cmd_short str |
//	cmd_long strs | euid u32 | fdsize u32 | state str |
//	vmpeak opt u64 | vmsize opt u64 | rss_pages i64 | rss_bytes u64 |
//	rsslim u64 | cpu opt i32 | utime u64 | stime u64 |
//	user_cpu_usage f64 | sys_cpu_usage f64
//
// str is u32 length + raw bytes, strs is u32 count + str*, opt is a
// presence byte (0/1) followed by the value when present.

var magic = [4]byte{'P', 'S', 'H', 'T'}

const version = 1

var (
	// ErrBadMagic indicates the input is not a procshot snapshot file.
	ErrBadMagic = errors.New("snapshot: bad magic")

	// ErrBadVersion indicates a snapshot written by an incompatible
	// version of procshot.
	ErrBadVersion = errors.New("snapshot: unsupported version")

	// ErrTruncated indicates the input ended before the structure was
	// complete, e.g. an interrupted write.
	ErrTruncated = errors.New("snapshot: truncated input")

	// ErrTrailingData indicates bytes left over after a full decode.
	ErrTrailingData = errors.New("snapshot: trailing data")
)

// Encode serializes a snapshot into the canonical binary form.
func Encode(s *Snapshot) []byte {
	var e encoder
	e.raw(magic[:])
	e.u8(version)
	e.str(s.Hostname)
	e.u64(uint64(s.CapturedAt))
	e.u64(s.DelaySec)
	e.u64(s.TotalCPUTime)
	e.u32(uint32(len(s.Procs)))
	for pid, p := range s.Procs {
		e.u32(uint32(pid))
		e.status(&p)
	}
	return e.buf.Bytes()
}

// Decode parses the canonical binary form back into a snapshot.
// Corrupt or foreign input fails with one of the sentinel errors above.
func Decode(b []byte) (*Snapshot, error) {
	d := decoder{b: b}
	if !bytes.Equal(d.raw(4), magic[:]) {
		if d.err != nil {
			return nil, d.err
		}
		return nil, ErrBadMagic
	}
	if v := d.u8(); d.err == nil && v != version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}

	s := &Snapshot{
		Hostname:     d.str(),
		CapturedAt:   int64(d.u64()),
		DelaySec:     d.u64(),
		TotalCPUTime: d.u64(),
	}
	n := d.u32()
	// The count is untrusted input; cap the allocation hint so a
	// corrupt field cannot force a huge up-front allocation. The loop
	// below fails with ErrTruncated long before a hostile count is
	// reached.
	s.Procs = make(map[int32]ProcessStatus, min(int(n), 4096))
	for i := uint32(0); i < n && d.err == nil; i++ {
		pid := int32(d.u32())
		ps := d.status()
		ps.PID = pid
		s.Procs[pid] = ps
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(d.b) {
		return nil, ErrTrailingData
	}
	return s, nil
}

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) raw(b []byte)  { e.buf.Write(b) }
func (e *encoder) u8(v uint8)    { e.buf.WriteByte(v) }
func (e *encoder) u32(v uint32)  { e.raw(binary.LittleEndian.AppendUint32(nil, v)) }
func (e *encoder) u64(v uint64)  { e.raw(binary.LittleEndian.AppendUint64(nil, v)) }
func (e *encoder) i32(v int32)   { e.u32(uint32(v)) }
func (e *encoder) i64(v int64)   { e.u64(uint64(v)) }
func (e *encoder) f64(v float64) { e.u64(math.Float64bits(v)) }

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf.WriteString(s)
}

func (e *encoder) strs(ss []string) {
	e.u32(uint32(len(ss)))
	for _, s := range ss {
		e.str(s)
	}
}

func (e *encoder) optU64(v *uint64) {
	if v == nil {
		e.u8(0)
		return
	}
	e.u8(1)
	e.u64(*v)
}

func (e *encoder) optI32(v *int32) {
	if v == nil {
		e.u8(0)
		return
	}
	e.u8(1)
	e.i32(*v)
}

func (e *encoder) status(p *ProcessStatus) {
	e.i32(p.PPID)
	e.i32(p.TracerPID)
	e.str(p.Name)
	e.str(p.CmdShort)
	e.strs(p.CmdLong)
	e.u32(p.EUID)
	e.u32(p.FDSize)
	e.str(p.State)
	e.optU64(p.VmPeakKB)
	e.optU64(p.VmSizeKB)
	e.i64(p.RSSPages)
	e.u64(uint64(p.RSSBytes))
	e.u64(p.RSSLimit)
	e.optI32(p.CPU)
	e.u64(p.UTime)
	e.u64(p.STime)
	e.f64(p.UserCPUUsage)
	e.f64(p.SysCPUUsage)
}

type decoder struct {
	b   []byte
	off int
	err error
}

func (d *decoder) raw(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.b) {
		d.err = ErrTruncated
		return nil
	}
	out := d.b[d.off : d.off+n]
	d.off += n
	return out
}

func (d *decoder) u8() uint8 {
	b := d.raw(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u32() uint32 {
	b := d.raw(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.raw(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) i32() int32   { return int32(d.u32()) }
func (d *decoder) i64() int64   { return int64(d.u64()) }
func (d *decoder) f64() float64 { return math.Float64frombits(d.u64()) }

func (d *decoder) str() string {
	n := int(d.u32())
	if d.err == nil && d.off+n > len(d.b) {
		d.err = ErrTruncated
		return ""
	}
	return string(d.raw(n))
}

func (d *decoder) strs() []string {
	n := int(d.u32())
	if d.err != nil {
		return nil
	}
	out := make([]string, 0, min(n, 64))
	for i := 0; i < n && d.err == nil; i++ {
		out = append(out, d.str())
	}
	if d.err != nil {
		return nil
	}
	return out
}

func (d *decoder) optU64() *uint64 {
	if d.u8() == 0 {
		return nil
	}
	v := d.u64()
	if d.err != nil {
		return nil
	}
	return &v
}

func (d *decoder) optI32() *int32 {
	if d.u8() == 0 {
		return nil
	}
	v := d.i32()
	if d.err != nil {
		return nil
	}
	return &v
}

func (d *decoder) status() ProcessStatus {
	return ProcessStatus{
		PPID:         d.i32(),
		TracerPID:    d.i32(),
		Name:         d.str(),
		CmdShort:     d.str(),
		CmdLong:      d.strs(),
		EUID:         d.u32(),
		FDSize:       d.u32(),
		State:        d.str(),
		VmPeakKB:     d.optU64(),
		VmSizeKB:     d.optU64(),
		RSSPages:     d.i64(),
		RSSBytes:     types.Bytes(d.u64()),
		RSSLimit:     d.u64(),
		CPU:          d.optI32(),
		UTime:        d.u64(),
		STime:        d.u64(),
		UserCPUUsage: d.f64(),
		SysCPUUsage:  d.f64(),
	}
}
