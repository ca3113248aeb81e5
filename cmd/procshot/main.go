//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nohupped/procshot/pkg/collector"
	"github.com/nohupped/procshot/pkg/snapshot"
	sysproc "github.com/nohupped/procshot/pkg/system/proc"
	"github.com/nohupped/procshot/pkg/system/util"
)

type opts struct {
	delay    int
	datadir  string
	hostname string
	verbose  bool

	// read options
	sortBy string
	top    int
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "procshot",
		Short: "Snapshots proc periodically",
		Long: `procshot periodically scans /proc, derives per-process memory and
CPU-usage metrics, and records every scan as an immutable binary
snapshot file for offline analysis.

Examples:
  sudo procshot server -d 60 --datadir /var/lib/procshot
  procshot read /var/lib/procshot/1700000000.snapshot -o cpu --top 20`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")

	server := &cobra.Command{
		Use:   "server",
		Short: "Run as server and record snapshots until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), o)
		},
	}
	server.Flags().IntVarP(&o.delay, "delay", "d", 60, "seconds to sleep between scans of /proc")
	server.Flags().StringVar(&o.datadir, "datadir", "/tmp/procshot_data", "directory snapshot files are written to")
	server.Flags().StringVar(&o.hostname, "hostname", util.Hostname(), "host identifier carried in every snapshot")

	read := &cobra.Command{
		Use:   "read <file>",
		Short: "Decode one snapshot file and print its process table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(o, args[0])
		},
	}
	read.Flags().StringVarP(&o.sortBy, "sort-by", "o", "mem", "sort processes by mem or cpu")
	read.Flags().IntVar(&o.top, "top", 0, "print only the first N processes (0 = all)")

	root.AddCommand(server, read)

	if err := root.Execute(); err != nil {
		logrus.Error(err.Error())
		os.Exit(1)
	}
}

func runServer(ctx context.Context, o opts) error {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if o.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if o.delay <= 0 {
		return fmt.Errorf("delay must be > 0, got %d", o.delay)
	}
	if err := util.CheckSudo(os.Geteuid()); err != nil {
		return err
	}

	src, err := collector.NewProcfsSource("/proc")
	if err != nil {
		return err
	}
	w, err := snapshot.NewWriter(afero.NewOsFs(), o.datadir)
	if err != nil {
		return err
	}

	cfg := collector.Config{
		Hostname: o.hostname,
		Delay:    time.Duration(o.delay) * time.Second,
	}
	col, err := collector.New(cfg, src, sysproc.TotalCPUTime, w)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := col.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logrus.Info("interrupted")
	return nil
}

func runRead(o opts, path string) error {
	snap, err := snapshot.ReadFile(afero.NewOsFs(), path)
	if err != nil {
		return err
	}

	procs := make([]snapshot.ProcessStatus, 0, len(snap.Procs))
	for _, p := range snap.Procs {
		procs = append(procs, p)
	}
	switch o.sortBy {
	case "mem":
		slices.SortFunc(procs, func(a, b snapshot.ProcessStatus) int {
			switch {
			case a.RSSBytes > b.RSSBytes:
				return -1
			case a.RSSBytes < b.RSSBytes:
				return 1
			default:
				return int(a.PID - b.PID)
			}
		})
	case "cpu":
		slices.SortFunc(procs, func(a, b snapshot.ProcessStatus) int {
			au, bu := a.UserCPUUsage+a.SysCPUUsage, b.UserCPUUsage+b.SysCPUUsage
			switch {
			case au > bu:
				return -1
			case au < bu:
				return 1
			default:
				return int(a.PID - b.PID)
			}
		})
	default:
		return fmt.Errorf("unknown sort key %q (want mem or cpu)", o.sortBy)
	}
	if o.top > 0 && len(procs) > o.top {
		procs = procs[:o.top]
	}

	fmt.Printf("host: %s  captured: %s  delay: %ds  total cpu ticks: %d  processes: %d\n\n",
		snap.Hostname,
		time.Unix(snap.CapturedAt, 0).Format("2006-01-02 15:04:05"),
		snap.DelaySec, snap.TotalCPUTime, len(snap.Procs))

	clk := float64(sysproc.ClockTicks())
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tNAME\tSTATE\tEUID\tRSS\tVMPEAK (kB)\tCPU (s)\tUSER%\tSYS%\tCMD")
	for _, p := range procs {
		vmpeak := "-"
		if p.VmPeakKB != nil {
			vmpeak = strconv.FormatUint(*p.VmPeakKB, 10)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%s\n",
			p.PID, p.Name, p.State, p.EUID,
			p.RSSBytes.Humanized(), vmpeak,
			float64(p.UTime+p.STime)/clk,
			p.UserCPUUsage, p.SysCPUUsage,
			strings.Join(p.CmdLong, " "))
	}
	return tw.Flush()
}
