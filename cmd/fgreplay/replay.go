// cmd/fgreplay/replay.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmp/autoflight/autopilot"
	"github.com/mmp/autoflight/config"
	"github.com/mmp/autoflight/journal"
	"github.com/mmp/autoflight/log"
	"github.com/mmp/autoflight/recorder"
	"github.com/mmp/autoflight/scenario"

	"github.com/goforj/godump"
	"github.com/google/uuid"
	"github.com/iancoleman/orderedmap"
)

var ErrDiverged = errors.New("Replay diverges from recording")

// source is a sequence of inputs to fly through a session: either a
// scripted scenario or a recorded trace.
type source struct {
	Name    string
	Path    string
	Profile autopilot.AircraftProfile
	DT      float64
	Frames  []scenario.Frame
	// Recorded holds the outputs stored with a trace; it is nil for
	// scenarios.
	Recorded []autopilot.Output
}

func isScenario(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// loadSource reads a scenario or trace. If profile is non-empty, it
// overrides the profile named by the file.
func loadSource(path, profile string, loader *config.Loader) (*source, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if isScenario(path) {
		sc, err := scenario.LoadFile(path)
		if err != nil {
			return nil, err
		}
		frames, err := sc.Frames()
		if err != nil {
			return nil, err
		}
		if profile == "" {
			profile = sc.Profile
		}
		if profile == "" {
			profile = "A380"
		}
		p, err := loader.Load(profile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if sc.Name != "" {
			name = sc.Name
		}
		return &source{Name: name, Path: path, Profile: p, DT: sc.DT, Frames: frames}, nil
	}

	r, err := recorder.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	src := &source{Name: name, Path: path, Profile: r.Header().Profile, DT: r.Header().DT}
	if profile != "" {
		if src.Profile, err = loader.Load(profile); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	for {
		f, err := r.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		src.Frames = append(src.Frames, scenario.Frame{Time: f.Time, Aircraft: f.Aircraft, Request: f.Request})
		src.Recorded = append(src.Recorded, f.Output)
	}
	return src, nil
}

type replayer struct {
	lg        *log.Logger
	journal   *journal.Store
	traceDir  string
	recordDir string
	dump      io.Writer
}

type result struct {
	Name        string
	Ticks       int
	Transitions int
	Checked     int
	Failures    []string
	Final       autopilot.Output
}

func (res result) String() string {
	s := fmt.Sprintf("%s: %d ticks, %d transitions", res.Name, res.Ticks, res.Transitions)
	if res.Checked > 0 {
		s += fmt.Sprintf(", %d/%d checks passed", res.Checked-len(res.Failures), res.Checked)
	}
	return s
}

// fmaEvents are the one-shot annunciations journaled on their rising edge.
var fmaEvents = []struct {
	name string
	get  func(o *autopilot.Output) bool
}{
	{"triple_click", func(o *autopilot.Output) bool { return o.TripleClick }},
	{"fma_reversion", func(o *autopilot.Output) bool { return o.FMAReversion }},
	{"tcas_disarm", func(o *autopilot.Output) bool { return o.TCASDisarm }},
	{"tcas_ra_inhibit", func(o *autopilot.Output) bool { return o.TCASRAInhibit }},
	{"tcas_trk_fpa_deselection", func(o *autopilot.Output) bool { return o.TCASTrkFpaDeselection }},
}

// replay flies src through a new session. Expectation failures and
// divergences from a recording are returned in the result; the error is
// only for things that kept the replay from running.
func (rp *replayer) replay(ctx context.Context, src *source) (res result, err error) {
	res.Name = src.Name
	lg := rp.lg.With(slog.String("source", src.Name))

	var transitions []autopilot.Transition
	s, err := autopilot.New(src.Profile, autopilot.WithLogger(lg), autopilot.WithName(src.Name),
		autopilot.WithTransitionFunc(func(tr autopilot.Transition) {
			transitions = append(transitions, tr)
		}))
	if err != nil {
		return res, fmt.Errorf("%s: %w", src.Path, err)
	}

	// CatchAndReportCrash recovers a panic, leaving crashed set.
	crashed := true
	defer func() {
		if crashed && err == nil {
			err = fmt.Errorf("%s: replay crashed at t=%.2f", src.Path, res.Final.Time)
		}
	}()
	defer lg.CatchAndReportCrash(func() string { return godump.DumpStr(s.State) })

	var session uuid.UUID
	if rp.journal != nil {
		if session, err = rp.journal.Begin(ctx, src.Name, src.Profile.Name, src.Path); err != nil {
			return res, err
		}
	}

	var trace *json.Encoder
	if rp.traceDir != "" {
		f, err := os.Create(filepath.Join(rp.traceDir, src.Name+".jsonl"))
		if err != nil {
			return res, err
		}
		defer f.Close()
		trace = json.NewEncoder(f)
	}

	var rec *recorder.Writer
	if rp.recordDir != "" {
		rec, err = recorder.Create(filepath.Join(rp.recordDir, src.Name+".afr"), recorder.Header{
			Session: session.String(),
			Source:  src.Path,
			Created: time.Now(),
			DT:      src.DT,
			Profile: src.Profile,
		})
		if err != nil {
			return res, err
		}
		defer func() {
			if cerr := rec.Close(); err == nil {
				err = cerr
			}
		}()
	}

	var prev autopilot.Output
	prevTime := 0.
	for i := range src.Frames {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		f := &src.Frames[i]
		dt := src.DT
		if src.Recorded != nil && i > 0 {
			// Traces may have been recorded with a variable step.
			dt = f.Time - prevTime
		}
		prevTime = f.Time

		o, err := s.Tick(autopilot.Time{Now: f.Time, DT: dt}, &f.Aircraft, &f.Request)
		if err != nil {
			return res, fmt.Errorf("%s: t=%.2f: %w", src.Path, f.Time, err)
		}
		res.Ticks++
		res.Final = o

		if f.Expect != nil {
			res.Checked++
			if err := f.Expect.Check(o); err != nil {
				lg.Warn("expectation failed", slog.Any("error", err))
				res.Failures = append(res.Failures, err.Error())
			}
		}
		if src.Recorded != nil {
			res.Checked++
			if err := compareRecorded(&src.Recorded[i], &o); err != nil {
				res.Failures = append(res.Failures, err.Error())
			}
		}

		if rp.journal != nil {
			for _, tr := range transitions {
				if err := rp.journal.RecordTransition(ctx, session, tr); err != nil {
					return res, err
				}
			}
			for _, ev := range fmaEvents {
				if ev.get(&o) && !ev.get(&prev) {
					if err := rp.journal.RecordFMAEvent(ctx, session, o.Time, ev.name); err != nil {
						return res, err
					}
				}
			}
		}
		res.Transitions += len(transitions)
		transitions = transitions[:0]

		if trace != nil {
			if err := trace.Encode(traceRow(&o)); err != nil {
				return res, err
			}
		}
		if rec != nil {
			if err := rec.Write(&recorder.Frame{Time: f.Time, Aircraft: f.Aircraft, Request: f.Request, Output: o}); err != nil {
				return res, err
			}
		}
		prev = o
	}

	if rp.dump != nil {
		fmt.Fprintf(rp.dump, "%s final state:\n%s\n", src.Name, godump.DumpStr(res.Final))
	}
	lg.Info("replay finished", slog.Int("ticks", res.Ticks), slog.Int("transitions", res.Transitions),
		slog.Int("failures", len(res.Failures)))

	crashed = false
	return res, nil
}

func compareRecorded(rec, o *autopilot.Output) error {
	var diffs []string
	if rec.Lateral.Output.Mode != o.Lateral.Output.Mode {
		diffs = append(diffs, fmt.Sprintf("lateral %s, recorded %s", o.Lateral.Output.Mode, rec.Lateral.Output.Mode))
	}
	if rec.Vertical.Output.Mode != o.Vertical.Output.Mode {
		diffs = append(diffs, fmt.Sprintf("vertical %s, recorded %s", o.Vertical.Output.Mode, rec.Vertical.Output.Mode))
	}
	if rec.Vertical.Output.Autothrust != o.Vertical.Output.Autothrust {
		diffs = append(diffs, fmt.Sprintf("autothrust %s, recorded %s", o.Vertical.Output.Autothrust, rec.Vertical.Output.Autothrust))
	}
	if rec.AP1 != o.AP1 || rec.AP2 != o.AP2 {
		diffs = append(diffs, fmt.Sprintf("AP %v/%v, recorded %v/%v", o.AP1, o.AP2, rec.AP1, rec.AP2))
	}
	if rec.LateralArmed != o.LateralArmed || rec.VerticalArmed != o.VerticalArmed {
		diffs = append(diffs, fmt.Sprintf("armed %q/%q, recorded %q/%q", o.LateralArmed, o.VerticalArmed,
			rec.LateralArmed, rec.VerticalArmed))
	}
	if len(diffs) == 0 {
		return nil
	}
	return fmt.Errorf("t=%.2f: %s: %w", o.Time, strings.Join(diffs, "; "), ErrDiverged)
}

// traceRow returns one JSONL trace line, with the keys in FMA order.
func traceRow(o *autopilot.Output) *orderedmap.OrderedMap {
	row := orderedmap.New()
	row.SetEscapeHTML(false)
	row.Set("t", o.Time)

	ap := []string{}
	if o.AP1 {
		ap = append(ap, "AP1")
	}
	if o.AP2 {
		ap = append(ap, "AP2")
	}
	row.Set("ap", ap)

	v, l := &o.Vertical.Output, &o.Lateral.Output
	row.Set("athr", v.Autothrust)
	row.Set("vertical", v.Mode)
	row.Set("vertical_armed", o.VerticalArmed.String())
	row.Set("lateral", l.Mode)
	row.Set("lateral_armed", o.LateralArmed.String())
	row.Set("vertical_law", v.Law)
	row.Set("lateral_law", l.Law)
	row.Set("psi_c", l.PsiCommand)
	row.Set("h_c", v.HCommand)
	row.Set("h_dot_c", v.HDotCommand)
	row.Set("fpa_c", v.FPACommand)
	row.Set("v_c", v.VCommand)
	if v.Mode == autopilot.VerticalTCAS {
		row.Set("tcas", v.TCASSubMode)
	}

	flags := []string{}
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"lateral_reversion", o.LateralReversion},
		{"vertical_reversion", o.VerticalReversion},
		{"reversion_trk_fpa", o.ReversionTrkFpa},
		{"triple_click", o.TripleClick},
		{"fma_reversion", o.FMAReversion},
		{"speed_protection", v.SpeedProtection},
		{"exped", v.EXPEDActive},
	} {
		if f.set {
			flags = append(flags, f.name)
		}
	}
	row.Set("flags", flags)
	return row
}
