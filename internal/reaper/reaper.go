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

// Package reaper parallelizes the per-database drop work that init performs
// against every db_pool_ remnant found on the server, adapted from the
// worker package's semaphore-bounded ParallelExecute.
package reaper

import (
	"github.com/blubskye/dbpool/internal/worker"
)

// DropAll runs one drop closure per name concurrently, bounded by
// concurrency workers (0 defaults to runtime.NumCPU). A failure on one name
// does not stop the others from running — every closure always runs — but
// per spec.md §4.1 ("the current design surfaces the first error"), DropAll
// returns only the first non-nil error encountered, by name order.
func DropAll(concurrency int, names []string, drop func(name string) error) error {
	if len(names) == 0 {
		return nil
	}

	tasks := make([]worker.Task, len(names))
	for i, name := range names {
		n := name
		tasks[i] = func() error { return drop(n) }
	}

	errs := worker.ParallelExecute(concurrency, tasks...)
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
