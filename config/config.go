// config/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config loads aircraft profiles: the built-in ones by name, or
// JSON files that either give every parameter or start from a built-in
// profile named by "base" and override some of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmp/autoflight/autopilot"
	"github.com/mmp/autoflight/log"
	"github.com/mmp/autoflight/util"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrProfileFile = errors.New("Invalid aircraft profile file")

type profileFile struct {
	Base string `json:"base,omitempty"`
	autopilot.AircraftProfile
}

// Parse decodes and validates a profile file; source is used in error
// messages.
func Parse(b []byte, source string) (autopilot.AircraftProfile, error) {
	var pf profileFile
	if err := util.UnmarshalJSONBytes(b, &pf); err != nil {
		return autopilot.AircraftProfile{}, fmt.Errorf("%s: %w: %w", source, ErrProfileFile, err)
	}

	if pf.Base != "" {
		base, ok := autopilot.LookupProfile(pf.Base)
		if !ok {
			return autopilot.AircraftProfile{}, fmt.Errorf("%s: base %q: %w", source, pf.Base,
				autopilot.ErrUnknownProfile)
		}
		// Decode again on top of the base so that only the fields given
		// in the file change.
		pf = profileFile{AircraftProfile: base}
		if err := util.UnmarshalJSONBytes(b, &pf); err != nil {
			return autopilot.AircraftProfile{}, fmt.Errorf("%s: %w: %w", source, ErrProfileFile, err)
		}
	}

	var e util.ErrorLogger
	e.Push(source)
	pf.AircraftProfile.Validate(&e)
	e.Pop()
	if err := e.Err(autopilot.ErrInvalidProfile); err != nil {
		return autopilot.AircraftProfile{}, err
	}
	return pf.AircraftProfile, nil
}

// LoadFile reads and parses the profile file at path.
func LoadFile(path string) (autopilot.AircraftProfile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return autopilot.AircraftProfile{}, err
	}
	return Parse(b, path)
}

// Loader resolves profile names for the command-line tools, caching the
// parsed files. It is safe for concurrent use.
type Loader struct {
	lg    *log.Logger
	cache *expirable.LRU[string, autopilot.AircraftProfile]
}

func NewLoader(lg *log.Logger) *Loader {
	return &Loader{
		lg:    lg,
		cache: expirable.NewLRU[string, autopilot.AircraftProfile](32, nil, time.Hour),
	}
}

// Load returns the built-in profile with the given name or, if name ends
// in .json, the profile in that file. Files are re-read when they change.
func (l *Loader) Load(name string) (autopilot.AircraftProfile, error) {
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		if p, ok := autopilot.LookupProfile(name); ok {
			return p, nil
		}
		return autopilot.AircraftProfile{}, fmt.Errorf("%q: %w (built-in profiles: %s)", name,
			autopilot.ErrUnknownProfile, strings.Join(autopilot.BuiltinProfiles(), ", "))
	}

	fi, err := os.Stat(name)
	if err != nil {
		return autopilot.AircraftProfile{}, err
	}
	key := fmt.Sprintf("%s@%d", name, fi.ModTime().UnixNano())
	if p, ok := l.cache.Get(key); ok {
		return p, nil
	}

	p, err := LoadFile(name)
	if err != nil {
		return autopilot.AircraftProfile{}, err
	}
	l.lg.Infof("%s: loaded aircraft profile %q", name, p.Name)
	l.cache.Add(key, p)
	return p, nil
}

// Cached returns the number of profile files in the cache.
func (l *Loader) Cached() int {
	return l.cache.Len()
}
