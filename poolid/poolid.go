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

// Package poolid generates and validates the database identifiers that
// back every ephemeral database this library provisions.
package poolid

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Prefix is the load-bearing marker a lifecycle's init reap step looks for.
// Anything on the server carrying this prefix is assumed to be a prior-run
// remnant.
const Prefix = "db_pool_"

// nameRe matches the on-disk contract: db_pool_ followed by 32 hex digits
// with underscores standing in for the UUID's dashes.
var nameRe = regexp.MustCompile(`^db_pool_[0-9a-f_]{36}$`)

// ID is a 128-bit identifier for one ephemeral database. The zero value is
// not a valid ID; use New.
type ID struct {
	raw uuid.UUID
}

// New generates a fresh random identifier.
func New() ID {
	return ID{raw: uuid.New()}
}

// String renders the identifier as db_pool_<hex_with_underscores>, which is
// simultaneously the database name, the scoped role/user name, and that
// role's password.
func (id ID) String() string {
	return Prefix + strings.ReplaceAll(id.raw.String(), "-", "_")
}

// IsPoolName reports whether name is the db_pool_ prefix followed by exactly
// 36 lowercase hex digits or underscores, the shape New produces (the check
// does not require the underscores to sit at the UUID separator positions).
// The lifecycle's init step uses this to decide which
// catalog entries are prior-run remnants versus unrelated databases.
func IsPoolName(name string) bool {
	return nameRe.MatchString(name)
}
