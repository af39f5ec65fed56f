package evolution

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// Map applies fn to every input on at most workers goroutines and returns
// the results in input order: output i is fn(i, inputs[i]). A panic inside
// fn is re-raised on the calling goroutine once all tasks have finished.
// workers < 1 means GOMAXPROCS.
func Map[In, Out any](inputs []In, workers int, fn func(i int, in In) Out) []Out {
	out := make([]Out, len(inputs))
	if len(inputs) == 0 {
		return out
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Single-threaded for tiny batches, goroutine overhead dominates.
	if workers == 1 || len(inputs) == 1 {
		for i, in := range inputs {
			out[i] = fn(i, in)
		}
		return out
	}

	p := pool.New().WithMaxGoroutines(workers)
	for i, in := range inputs {
		p.Go(func() {
			out[i] = fn(i, in)
		})
	}
	p.Wait()
	return out
}
