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

// Package worker provides a semaphore-bounded fan-out primitive used to
// parallelize independent drop operations across many databases at once.
package worker

import (
	"runtime"
	"sync"
)

// Task represents a unit of work to be processed.
type Task func() error

// ParallelExecute runs every task concurrently, bounded by workers
// (0 defaults to runtime.NumCPU, capped at len(tasks)), and returns one
// error per task in the original order.
func ParallelExecute(workers int, tasks ...Task) []error {
	if len(tasks) == 0 {
		return nil
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	errors := make([]error, len(tasks))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for i, task := range tasks {
		wg.Add(1)
		sem <- struct{}{} // Acquire semaphore

		go func(idx int, t Task) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore

			errors[idx] = t()
		}(i, task)
	}

	wg.Wait()
	return errors
}
