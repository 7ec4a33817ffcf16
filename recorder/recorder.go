// recorder/recorder.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package recorder stores flight-guidance traces: the inputs and outputs
// of every tick of a session. A trace is a zstd stream holding a msgpack
// Header followed by one msgpack Frame per tick.
package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mmp/autoflight/autopilot"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	Magic = "autoflight-trace"
	// Version is bumped whenever Frame or Header change incompatibly.
	Version = 1
)

var (
	ErrNotTrace           = errors.New("Not an autoflight trace")
	ErrUnsupportedVersion = errors.New("Unsupported trace version")
)

type Header struct {
	Magic   string                    `json:"magic"`
	Version int                       `json:"version"`
	Session string                    `json:"session"`
	Source  string                    `json:"source"`
	Created time.Time                 `json:"created"`
	DT      float64                   `json:"dt"`
	Profile autopilot.AircraftProfile `json:"profile"`
}

type Frame struct {
	Time     float64            `json:"time"`
	Aircraft autopilot.Aircraft `json:"aircraft"`
	Request  autopilot.Request  `json:"request"`
	Output   autopilot.Output   `json:"output"`
}

///////////////////////////////////////////////////////////////////////////
// Writer

type Writer struct {
	zw  *zstd.Encoder
	enc *msgpack.Encoder
	f   *os.File
}

// NewWriter writes the header to w and returns a Writer for the frames.
// Magic and Version are filled in.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	enc := msgpack.NewEncoder(zw)
	enc.SetCustomStructTag("json")

	h.Magic, h.Version = Magic, Version
	if err := enc.Encode(&h); err != nil {
		zw.Close()
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return &Writer{zw: zw, enc: enc}, nil
}

// Create creates the file at path and writes a trace to it.
func Create(path string, h Header) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, h)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.f = f
	return w, nil
}

func (w *Writer) Write(f *Frame) error {
	if err := w.enc.Encode(f); err != nil {
		return fmt.Errorf("msgpack encode: %w", err)
	}
	return nil
}

// Close flushes the compressed stream and closes the file if the Writer
// created it.
func (w *Writer) Close() error {
	err := w.zw.Close()
	if w.f != nil {
		err = errors.Join(err, w.f.Close())
	}
	return err
}

///////////////////////////////////////////////////////////////////////////
// Reader

type Reader struct {
	hdr Header
	zr  *zstd.Decoder
	dec *msgpack.Decoder
	f   *os.File
}

// NewReader reads and checks the header of the trace in r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(bufio.NewReader(r), zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, err
	}
	dec := msgpack.NewDecoder(zr)
	dec.SetCustomStructTag("json")

	var h Header
	if err := dec.Decode(&h); err != nil {
		zr.Close()
		return nil, fmt.Errorf("%w: %w", ErrNotTrace, err)
	}
	if h.Magic != Magic {
		zr.Close()
		return nil, ErrNotTrace
	}
	if h.Version != Version {
		zr.Close()
		return nil, fmt.Errorf("version %d: %w", h.Version, ErrUnsupportedVersion)
	}
	return &Reader{hdr: h, zr: zr, dec: dec}, nil
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.f = f
	return r, nil
}

func (r *Reader) Header() Header { return r.hdr }

// Next returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (Frame, error) {
	var f Frame
	if err := r.dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("msgpack decode: %w", err)
	}
	return f, nil
}

func (r *Reader) Close() error {
	r.zr.Close()
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}

// ReadAll reads a whole trace.
func ReadAll(rd io.Reader) (Header, []Frame, error) {
	r, err := NewReader(rd)
	if err != nil {
		return Header{}, nil, err
	}
	defer r.Close()

	var frames []Frame
	for {
		f, err := r.Next()
		if err == io.EOF {
			return r.Header(), frames, nil
		} else if err != nil {
			return r.Header(), frames, err
		}
		frames = append(frames, f)
	}
}
