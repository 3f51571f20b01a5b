// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metadata holds the free-form key/value metadata attached to
// runs, tables and projections.
//
// Metadata values are scalars, slices or nested map[string]any values,
// as produced by decoding YAML or JSON. Values handed out by this
// package are shallow copies: mutating a returned map or slice never
// changes the stored metadata.
package metadata

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/kevinabrown/boxfish/errors"
)

// Metadata maps keys to values.
type Metadata map[string]any

// Has reports whether m defines key.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Get returns the value of key and whether m defines it. Map and slice
// values are returned as shallow copies.
func (m Metadata) Get(key string) (any, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return Copy(v), true
}

// Clone returns a shallow copy of m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a new Metadata holding the keys of every m in order.
// Later values override earlier ones.
func Merge(ms ...Metadata) Metadata {
	out := make(Metadata)
	for _, m := range ms {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Copy returns a shallow copy of v if it is a map or slice, and v
// itself otherwise.
func Copy(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = x
		}
		return out
	case Metadata:
		return v.Clone()
	case map[any]any:
		out := make(map[any]any, len(v))
		for k, x := range v {
			out[k] = x
		}
		return out
	case []any:
		return append([]any(nil), v...)
	case []string:
		return append([]string(nil), v...)
	case []int:
		return append([]int(nil), v...)
	case []float64:
		return append([]float64(nil), v...)
	}
	return v
}

// Decode decodes a metadata value into out, which must be a pointer to
// a struct, map or slice. Struct fields are matched using "mapstructure"
// tags, and numeric strings are converted where needed.
func Decode(v any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "metadata decoder")
	}
	if err := dec.Decode(v); err != nil {
		return errors.Wrapf(err, "decode %s", describe(v))
	}
	return nil
}

func describe(v any) string {
	switch v.(type) {
	case map[string]any, Metadata, map[any]any:
		return "mapping"
	case []any:
		return "sequence"
	}
	return fmt.Sprintf("%T", v)
}
