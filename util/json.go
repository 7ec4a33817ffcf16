// util/json.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// JSON

// DuplicateJSONKey represents a duplicate key found in JSON.
type DuplicateJSONKey struct {
	Path string // JSON path to the object holding the duplicate (e.g., "thresholds.alt")
	Key  string // The duplicate key name
}

// FindDuplicateJSONKeys walks the token stream of data and returns every
// object key that appears more than once in the same object. Malformed
// JSON ends the walk early; the caller finds out about it when it
// unmarshals.
func FindDuplicateJSONKeys(data []byte) []DuplicateJSONKey {
	dec := json.NewDecoder(bytes.NewReader(data))
	var dups []DuplicateJSONKey

	var walk func(path []string) error
	walk = func(path []string) error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		d, ok := tok.(json.Delim)
		if !ok {
			return nil
		}

		switch d {
		case '{':
			seen := make(map[string]bool)
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return err
				}
				k, _ := kt.(string)
				if seen[k] {
					dups = append(dups, DuplicateJSONKey{Path: strings.Join(path, "."), Key: k})
				}
				seen[k] = true
				if err := walk(append(path, k)); err != nil {
					return err
				}
			}
		case '[':
			for dec.More() {
				if err := walk(path); err != nil {
					return err
				}
			}
		}
		_, err = dec.Token() // closing delimiter
		return err
	}
	_ = walk(nil)

	return dups
}

var ErrDuplicateJSONKey = errors.New("duplicate JSON key")

// UnmarshalJSONBytes decodes b into out, rejecting unknown fields and
// duplicate keys. Syntax and type errors are reported with the line and
// character where they occurred.
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	if dups := FindDuplicateJSONKeys(b); len(dups) > 0 {
		var s []string
		for _, d := range dups {
			if d.Path == "" {
				s = append(s, d.Key)
			} else {
				s = append(s, d.Path+"."+d.Key)
			}
		}
		return fmt.Errorf("%w: %s", ErrDuplicateJSONKey, strings.Join(s, ", "))
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	err := dec.Decode(out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	var serr *json.SyntaxError
	var terr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &serr):
		line, char := decodeOffset(serr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %w", line, char, err)

	case errors.As(err, &terr):
		line, char := decodeOffset(terr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, terr.Value, terr.Struct, terr.Field, terr.Type.String())

	default:
		return err
	}
}
