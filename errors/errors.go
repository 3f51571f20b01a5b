// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors re-exports github.com/cockroachdb/errors and defines
// the sentinel errors shared by the boxfish packages.
//
// Callers match failures with Is:
//
//	if errors.Is(err, errors.ErrUnknownDomain) {
//	    // skip this item
//	}
//
// Errors returned by boxfish packages wrap one of the sentinels below
// with context describing the item that failed.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	WithDetailf = crdb.WithDetailf

	Is = crdb.Is
)

var (
	// ErrUnknownDomain indicates a type string that is not in the
	// domain registry. Loaders skip the affected item.
	ErrUnknownDomain = New("unknown domain")

	// ErrDomainExists indicates a second registration of a type string.
	ErrDomainExists = New("domain already registered")

	// ErrDomainMismatch indicates that a projection or table was
	// constructed over domains that do not fit together.
	ErrDomainMismatch = New("domain mismatch")

	// ErrDuplicateIdentifier indicates a repeated value in a table's
	// key column.
	ErrDuplicateIdentifier = New("duplicate identifier")

	// ErrMissingIdentifier indicates an identifier that is not in a
	// table.
	ErrMissingIdentifier = New("missing identifier")

	// ErrUnknownAttribute indicates a column name that a table does
	// not have.
	ErrUnknownAttribute = New("unknown attribute")

	// ErrNotNumeric indicates an attempt to reduce a non-numeric column.
	ErrNotNumeric = New("attribute is not numeric")

	// ErrUnknownAggregator indicates an aggregator name that is not
	// registered.
	ErrUnknownAggregator = New("unknown aggregator")

	// ErrUnknownStrategy indicates a computed projection type that is
	// not one of the known strategies.
	ErrUnknownStrategy = New("unknown projection strategy")

	// ErrInsufficientDomains indicates a projection spec that resolved
	// fewer than two usable domains.
	ErrInsufficientDomains = New("insufficient domains for projection")

	// ErrInvalidHandle indicates a stale, foreign or zero handle.
	ErrInvalidHandle = New("invalid handle")

	// ErrWrongKind indicates a handle to a node of an unexpected kind.
	ErrWrongKind = New("wrong node kind")

	// ErrUnknownRequirement indicates a requirement name that an agent
	// never declared.
	ErrUnknownRequirement = New("unknown requirement")
)
