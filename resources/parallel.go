package resources

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum cell×plant count to split a step across workers.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 1 << 15

// workerCount resolves a configured worker count; zero means one per CPU.
func workerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	return runtime.GOMAXPROCS(0)
}

// parallelFor calls fn over [0, n) in contiguous chunks, one goroutine per
// chunk, and returns when all chunks are done. Chunks never overlap, so fn
// may write to per-index slots without locking.
func parallelFor(n, workers int, fn func(lo, hi int)) {
	if workers <= 1 || n < 2 {
		fn(0, n)
		return
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
