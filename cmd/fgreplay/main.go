// cmd/fgreplay/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// fgreplay flies scripted scenarios and recorded traces through the
// flight-guidance mode manager. For example:
//
//	fgreplay -trace out -journal runs.db scenarios/
//
// Each argument is a scenario (.yaml), a trace (.afr), or a directory of
// them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/mmp/autoflight/config"
	"github.com/mmp/autoflight/journal"
	"github.com/mmp/autoflight/log"
	"github.com/mmp/autoflight/util"

	"github.com/apenwarr/fixconsole"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
)

var errChecksFailed = errors.New("Replay checks failed")

var (
	profile     = flag.String("profile", "", "aircraft profile: A380, A320, or a JSON profile file (overrides the inputs' profile)")
	logDir      = flag.String("log", "", "log file directory")
	logLevel    = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	journalPath = flag.String("journal", "", "sqlite database to journal sessions and mode transitions to")
	recordDir   = flag.String("record", "", "directory to write a trace of each replay to")
	traceDir    = flag.String("trace", "", "directory to write a JSONL FMA trace of each replay to")
	dumpState   = flag.Bool("dump", false, "print the final output of each replay")
	parallel    = flag.Int("parallel", runtime.NumCPU(), "maximum number of replays to run at once")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: fgreplay [flags] scenario.yaml|trace.afr|dir...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	lg := log.New(true, *logLevel, *logDir)
	defer lg.CatchAndReportCrash()
	logHost(lg)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), lg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logHost(lg *log.Logger) {
	info, err := cpu.Info()
	if err != nil || len(info) == 0 {
		lg.Warnf("cpu.Info: %v", err)
		return
	}
	logical, _ := cpu.Counts(true)
	lg.Info("host", slog.String("cpu", info[0].ModelName), slog.Int("logical_cpus", logical),
		slog.Float64("mhz", info[0].Mhz))
}

// inputFiles expands directories in args to the scenarios and traces
// they hold.
func inputFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			files = append(files, arg)
			continue
		}
		for _, pat := range []string{"*.yaml", "*.yml", "*.afr"} {
			m, err := filepath.Glob(filepath.Join(arg, pat))
			if err != nil {
				return nil, err
			}
			files = append(files, m...)
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func run(ctx context.Context, lg *log.Logger, args []string) error {
	files, err := inputFiles(args)
	if err != nil {
		return err
	}

	rp := &replayer{lg: lg, traceDir: *traceDir, recordDir: *recordDir}
	for _, dir := range []string{*traceDir, *recordDir} {
		if dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
	}
	if *journalPath != "" {
		if rp.journal, err = journal.Open(*journalPath, lg); err != nil {
			return err
		}
		defer rp.journal.Close()
	}

	var dumpMu sync.Mutex
	dump := &lockedWriter{mu: &dumpMu, w: os.Stdout}
	if *dumpState {
		rp.dump = dump
	}

	results, err := replayAll(ctx, rp, config.NewLoader(lg), *profile, files, *parallel)
	for _, res := range results {
		if res.Name != "" {
			fmt.Fprintln(dump, res)
		}
	}
	if err != nil {
		return err
	}

	var e util.ErrorLogger
	for _, res := range results {
		e.Push(res.Name)
		for _, f := range res.Failures {
			e.ErrorString("%s", f)
		}
		e.Pop()
	}
	e.LogErrors(lg)
	return e.Err(errChecksFailed)
}

// replayAll runs the replays with at most parallel of them at once.
// results is indexed like files.
func replayAll(ctx context.Context, rp *replayer, loader *config.Loader, profile string, files []string,
	parallel int) ([]result, error) {
	results := make([]result, len(files))

	var eg errgroup.Group
	eg.SetLimit(max(parallel, 1))
	for i, path := range files {
		eg.Go(func() error {
			src, err := loadSource(path, profile, loader)
			if err != nil {
				return err
			}
			results[i], err = rp.replay(ctx, src)
			return err
		})
	}
	return results, eg.Wait()
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *os.File
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}
