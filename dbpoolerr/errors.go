// YSM - Yandere SQL Manager
// Copyright (C) 2025 blubskye
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Source code: https://github.com/blubskye/dbpool

// Package dbpoolerr defines the discriminated error kinds the lifecycle and
// pool layers surface to callers, per spec.md §7.
package dbpoolerr

import (
	"errors"
	"fmt"
)

// Kind discriminates why an operation failed.
type Kind int

const (
	// Build indicates the restricted pool could not be constructed (bad
	// config, unreachable server at pool-build time).
	Build Kind = iota
	// Pool indicates a pooled connection could not be acquired (pool
	// exhausted, timed out, server dropped).
	Pool
	// Connection indicates a direct, non-pooled connection attempt
	// failed.
	Connection
	// Query indicates an administrative SQL statement failed.
	Query
)

func (k Kind) String() string {
	switch k {
	case Build:
		return "build"
	case Pool:
		return "pool"
	case Connection:
		return "connection"
	case Query:
		return "query"
	default:
		return "unknown"
	}
}

// Error is the concrete error type every package in this module returns for
// lifecycle/pool failures. It wraps the underlying driver error so
// errors.Is/errors.As still reach it.
type Error struct {
	Kind Kind
	Op   string // e.g. "create", "clean", "drop", "init", "pull"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dbpool: %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
