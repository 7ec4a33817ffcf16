// cmd/fgreplay/replay_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/mmp/autoflight/autopilot"
	"github.com/mmp/autoflight/config"
	"github.com/mmp/autoflight/journal"

	"github.com/iancoleman/orderedmap"
)

const liftoff = `
name: liftoff
profile: A380
dt: 1
duration: 9
aircraft:
  h_ind: 1000
  h_radio: 1000
  v_ias: 250
  vls: 140
  vmax: 340
  engine_operative: [true, true, true, true]
request:
  fd_active: true
  h_fcu: 10000
  h_dot_fcu: 1000
  v_fcu: 250
steps:
  - at: 5
    expect: {lateral: HDG, vertical: NONE}
  - at: 6
    expect: {lateral: HDG, vertical: VS, vertical_armed: ALT}
  - at: 7
    set: {trk_fpa_mode: true}
    expect: {lateral: TRACK, vertical: FPA}
`

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplayScenarioAndRecording(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeScenario(t, dir, "liftoff.yaml", liftoff)

	j, err := journal.Open(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	var dump bytes.Buffer
	rp := &replayer{journal: j, traceDir: dir, recordDir: dir, dump: &dump}
	loader := config.NewLoader(nil)

	src, err := loadSource(path, "", loader)
	if err != nil {
		t.Fatal(err)
	}
	if src.Name != "liftoff" || src.Profile.Name != "A380" || len(src.Frames) != 10 || src.Recorded != nil {
		t.Fatalf("unexpected source %s profile %s with %d frames", src.Name, src.Profile.Name, len(src.Frames))
	}

	res, err := rp.replay(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	if res.Ticks != 10 || res.Checked != 3 || len(res.Failures) != 0 {
		t.Errorf("result %s, failures %v", res, res.Failures)
	}
	if res.Transitions < 2 {
		t.Errorf("%d transitions, expected at least 2", res.Transitions)
	}
	if !strings.Contains(dump.String(), "liftoff final state") {
		t.Errorf("no final state dump in %q", dump.String())
	}

	// Journal
	sessions, err := j.Sessions(ctx)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("sessions %v, %v", sessions, err)
	}
	trs, err := j.Transitions(ctx, sessions[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) != res.Transitions {
		t.Errorf("journaled %d transitions, replay reported %d", len(trs), res.Transitions)
	}
	if len(trs) > 0 && (trs[0].Name != "OFF_TO_HDG" || trs[0].Time != 5) {
		t.Errorf("first transition %+v, expected OFF_TO_HDG at 5", trs[0])
	}

	// JSONL trace
	f, err := os.Open(filepath.Join(dir, "liftoff.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var rows []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row map[string]any
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatalf("trace line %q: %v", sc.Text(), err)
		}
		rows = append(rows, row)
	}
	if len(rows) != 10 {
		t.Fatalf("%d trace rows, expected 10", len(rows))
	}
	if rows[6]["vertical"] != "VS" || rows[6]["lateral"] != "HDG" || rows[6]["vertical_armed"] != "ALT" {
		t.Errorf("row at t=6: %v", rows[6])
	}

	// The recording replays to the same outputs.
	rsrc, err := loadSource(filepath.Join(dir, "liftoff.afr"), "", loader)
	if err != nil {
		t.Fatal(err)
	}
	if len(rsrc.Recorded) != 10 || rsrc.Profile != src.Profile {
		t.Fatalf("recording has %d outputs, profile %s", len(rsrc.Recorded), rsrc.Profile.Name)
	}
	rres, err := (&replayer{}).replay(ctx, rsrc)
	if err != nil {
		t.Fatal(err)
	}
	if rres.Checked != 10 || len(rres.Failures) != 0 {
		t.Errorf("replay of recording: %s, failures %v", rres, rres.Failures)
	}
}

func TestReplayExpectationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "wrong.yaml", `
dt: 1
duration: 6
request: {fd_active: true}
aircraft: {h_radio: 1000, engine_operative: [true, true, true, true]}
steps:
  - at: 6
    expect: {lateral: LOC_TRACK}
`)
	src, err := loadSource(path, "A320", config.NewLoader(nil))
	if err != nil {
		t.Fatal(err)
	}
	if src.Name != "wrong" || src.Profile.Name != "A320" {
		t.Errorf("source %q profile %q", src.Name, src.Profile.Name)
	}
	res, err := (&replayer{}).replay(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if res.Checked != 1 || len(res.Failures) != 1 {
		t.Errorf("result %s, failures %v", res, res.Failures)
	}
}

func TestReplayAll(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", liftoff)
	writeScenario(t, dir, "b.yml", strings.Replace(liftoff, "name: liftoff", "name: b", 1))
	writeScenario(t, dir, "notes.txt", "ignored")

	files, err := inputFiles([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("input files %v", files)
	}

	results, err := replayAll(context.Background(), &replayer{}, config.NewLoader(nil), "", files, 2)
	if err != nil {
		t.Fatal(err)
	}
	names := []string{results[0].Name, results[1].Name}
	if !slices.Equal(names, []string{"liftoff", "b"}) {
		t.Errorf("result names %v", names)
	}

	_, err = replayAll(context.Background(), &replayer{}, config.NewLoader(nil), "B747", files, 1)
	if !errors.Is(err, autopilot.ErrUnknownProfile) {
		t.Errorf("unknown profile: got %v, expected ErrUnknownProfile", err)
	}
}

func TestCompareRecorded(t *testing.T) {
	var rec, o autopilot.Output
	rec.Lateral.Output.Mode = autopilot.LateralHDG
	o.Lateral.Output.Mode = autopilot.LateralHDG
	if err := compareRecorded(&rec, &o); err != nil {
		t.Errorf("identical outputs: %v", err)
	}

	o.Vertical.Output.Mode = autopilot.VerticalVS
	o.AP1 = true
	err := compareRecorded(&rec, &o)
	if !errors.Is(err, ErrDiverged) {
		t.Fatalf("got %v, expected ErrDiverged", err)
	}
	if !strings.Contains(err.Error(), "vertical VS, recorded NONE") || !strings.Contains(err.Error(), "AP true/false") {
		t.Errorf("unexpected message %q", err)
	}
}

func TestTraceRowOrder(t *testing.T) {
	var o autopilot.Output
	o.Time = 3
	o.AP1 = true
	o.TripleClick = true
	row := traceRow(&o)

	expected := []string{"t", "ap", "athr", "vertical", "vertical_armed", "lateral", "lateral_armed",
		"vertical_law", "lateral_law", "psi_c", "h_c", "h_dot_c", "fpa_c", "v_c", "flags"}
	if !slices.Equal(row.Keys(), expected) {
		t.Errorf("keys %v, expected %v", row.Keys(), expected)
	}

	b, err := json.Marshal(row)
	if err != nil {
		t.Fatal(err)
	}
	back := orderedmap.New()
	if err := json.Unmarshal(b, back); err != nil {
		t.Fatal(err)
	}
	if flags, _ := back.Get("flags"); len(flags.([]any)) != 1 {
		t.Errorf("flags %v, expected [triple_click]", flags)
	}
	if !strings.HasPrefix(string(b), `{"t":3,"ap":["AP1"],"athr":"NONE"`) {
		t.Errorf("unexpected encoding %s", b)
	}
}
