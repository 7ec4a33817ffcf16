// recorder/recorder_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package recorder

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmp/autoflight/autopilot"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

func testFrames() []Frame {
	var frames []Frame
	for i := range 5 {
		var f Frame
		f.Time = float64(i) * 0.1
		f.Aircraft.HInd = 1000 + float64(i)*10
		f.Aircraft.ThrottleLever = [4]float64{45, 45, 0, 0}
		f.Request.FDActive = true
		f.Request.FMVerticalMode = autopilot.FMVerticalVPathSpeed
		f.Output.Time = f.Time
		f.Output.Lateral.Output.Mode = autopilot.LateralNAV
		f.Output.Vertical.Output.Mode = autopilot.VerticalFINALDES
		f.Output.Vertical.Output.Autothrust = autopilot.AutothrustSpeed
		f.Output.VerticalArmed = autopilot.VerticalArmedALT | autopilot.VerticalArmedGS
		f.Output.TripleClick = i == 3
		frames = append(frames, f)
	}
	return frames
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	w, err := NewWriter(&buf, Header{Session: "s1", Source: "test", Created: created, DT: 0.1,
		Profile: autopilot.A320()})
	if err != nil {
		t.Fatal(err)
	}
	frames := testFrames()
	for i := range frames {
		if err := w.Write(&frames[i]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	h, got, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if h.Magic != Magic || h.Version != Version || h.Session != "s1" || h.DT != 0.1 || !h.Created.Equal(created) {
		t.Errorf("header %+v", h)
	}
	if h.Profile != autopilot.A320() {
		t.Errorf("profile %+v, expected A320", h.Profile)
	}
	if len(got) != len(frames) {
		t.Fatalf("read %d frames, expected %d", len(got), len(frames))
	}
	for i := range frames {
		if got[i] != frames[i] {
			t.Errorf("frame %d:\n%+v\nexpected\n%+v", i, got[i], frames[i])
		}
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.afr")
	w, err := Create(path, Header{Session: "file"})
	if err != nil {
		t.Fatal(err)
	}
	frames := testFrames()
	if err := w.Write(&frames[0]); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Header().Session != "file" {
		t.Errorf("session %q, expected \"file\"", r.Header().Session)
	}
	if f, err := r.Next(); err != nil || f != frames[0] {
		t.Errorf("Next = %+v, %v", f, err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next after last frame: %v, expected io.EOF", err)
	}
}

func TestBadHeader(t *testing.T) {
	encode := func(v any) *bytes.Buffer {
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatal(err)
		}
		enc := msgpack.NewEncoder(zw)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(v); err != nil {
			t.Fatal(err)
		}
		zw.Close()
		return &buf
	}

	tests := []struct {
		name string
		in   io.Reader
		err  error
	}{
		{"not zstd", bytes.NewReader([]byte("hello, world")), ErrNotTrace},
		{"empty", bytes.NewReader(nil), ErrNotTrace},
		{"wrong magic", encode(Header{Magic: "something-else", Version: Version}), ErrNotTrace},
		{"future version", encode(Header{Magic: Magic, Version: Version + 1}), ErrUnsupportedVersion},
		{"not a header", encode([]int{1, 2, 3}), ErrNotTrace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ReadAll(tt.in); !errors.Is(err, tt.err) {
				t.Errorf("got error %v, expected %v", err, tt.err)
			}
		})
	}
}
