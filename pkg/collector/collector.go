package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nohupped/procshot/pkg/snapshot"
)

// Config is the already-parsed run configuration the collector
// consumes. Parsing and defaulting happen in the CLI.
type Config struct {
	// Hostname is carried verbatim into every snapshot.
	Hostname string
	// Delay is the pause between sampling cycles.
	Delay time.Duration
}

// TotalCPUFunc reads the host-wide cumulative CPU tick counter used as
// the usage denominator.
type TotalCPUFunc func() (uint64, error)

// Collector runs the continuous sample, derive, write loop. It owns
// exactly one piece of cross-cycle state: the previous cycle's process
// map and aggregate CPU time, threaded through cycle as a value.
type Collector struct {
	cfg      Config
	source   Source
	totalCPU TotalCPUFunc
	writer   *snapshot.Writer
	clock    Clock
	log      logrus.FieldLogger
}

// Option adjusts optional collector dependencies.
type Option func(*Collector)

// WithClock replaces the wall clock, for tests.
func WithClock(clk Clock) Option {
	return func(c *Collector) { c.clock = clk }
}

// WithLogger replaces the default standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Collector) { c.log = log }
}

// New builds a collector from its collaborators: the process table
// source, the aggregate CPU time reader and the snapshot writer.
func New(cfg Config, src Source, totalCPU TotalCPUFunc, w *snapshot.Writer, opts ...Option) (*Collector, error) {
	if cfg.Hostname == "" {
		return nil, errors.New("collector: hostname must not be empty")
	}
	if cfg.Delay <= 0 {
		return nil, errors.New("collector: delay must be > 0")
	}
	if src == nil || totalCPU == nil || w == nil {
		return nil, errors.New("collector: nil collaborator")
	}
	c := &Collector{
		cfg:      cfg,
		source:   src,
		totalCPU: totalCPU,
		writer:   w,
		clock:    systemClock{},
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// cycleState is the previous cycle's result retained for usage diffs.
// The zero value means "no previous sample" and makes every usage
// estimate come out 0.
type cycleState struct {
	procs    map[int32]snapshot.ProcessStatus
	totalCPU uint64
}

// cycle runs one sampling pass: read the aggregate CPU counter,
// enumerate and adapt all processes, estimate per-process usage against
// prev, and assemble the snapshot. On error the input state is returned
// untouched, so the next successful cycle still diffs against the last
// good sample.
func (c *Collector) cycle(prev cycleState) (cycleState, *snapshot.Snapshot, error) {
	capturedAt := c.clock.Now().Unix()

	total, err := c.totalCPU()
	if err != nil {
		return prev, nil, fmt.Errorf("read aggregate cpu time: %w", err)
	}

	records, err := c.source.Processes()
	if err != nil {
		return prev, nil, fmt.Errorf("enumerate processes: %w", err)
	}

	procs := make(map[int32]snapshot.ProcessStatus, len(records))
	for _, r := range records {
		ps, ok := adapt(r)
		if !ok || !ps.Included() {
			continue
		}
		// Usage cannot fail for the two known kinds.
		ps.UserCPUUsage, _ = Usage(UserCPU, ps.PID, prev.procs, ps.UTime, total, prev.totalCPU)
		ps.SysCPUUsage, _ = Usage(SystemCPU, ps.PID, prev.procs, ps.STime, total, prev.totalCPU)
		procs[ps.PID] = ps
	}

	snap := &snapshot.Snapshot{
		Hostname:     c.cfg.Hostname,
		Procs:        procs,
		CapturedAt:   capturedAt,
		DelaySec:     uint64(c.cfg.Delay / time.Second),
		TotalCPUTime: total,
	}
	return cycleState{procs: procs, totalCPU: total}, snap, nil
}

// Run executes sampling cycles until ctx is canceled. No cycle failure
// terminates the loop: a failed aggregate read or enumeration skips the
// cycle, a failed write drops the snapshot, and both are retried on the
// next schedule.
func (c *Collector) Run(ctx context.Context) error {
	c.log.WithFields(logrus.Fields{
		"host":  c.cfg.Hostname,
		"delay": c.cfg.Delay,
	}).Info("starting scan loop")

	st := cycleState{}
	for {
		next, snap, err := c.cycle(st)
		if err != nil {
			c.log.WithError(err).Warn("sampling cycle skipped")
		} else {
			st = next
			if path, err := c.writer.Write(snap); err != nil {
				c.log.WithError(err).Error("snapshot write dropped")
			} else {
				c.log.WithFields(logrus.Fields{
					"path":      path,
					"processes": len(snap.Procs),
				}).Debug("snapshot written")
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(c.cfg.Delay):
		}
	}
}
