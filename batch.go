/*
Copyright © 2019 the ChangeMap authors.
This file is part of ChangeMap.

ChangeMap is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ChangeMap is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ChangeMap.  If not, see <http://www.gnu.org/licenses/>.
*/

package changemap

import (
	"runtime"
	"sync"
)

// eachPixel concurrently applies f to every pixel index in [0, n),
// distributing the work across nprocs workers; nprocs <= 0 means use
// all available processors. Worker pp handles indices pp, pp+nprocs,
// pp+2*nprocs, ..., so workers only ever touch disjoint pixels and f
// needs no locking as long as it writes only to the slot for its own
// index. If any invocation of f returns an error, eachPixel waits for
// the remaining workers and returns one of the errors: a failed pixel
// fails the whole batch, since partially-complete output rasters are
// worse than none.
func eachPixel(n, nprocs int, f func(i int) error) error {
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	var wg sync.WaitGroup
	errCh := make(chan error, nprocs)
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < n; i += nprocs {
				if err := f(i); err != nil {
					errCh <- err
					return
				}
			}
		}(pp)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}
