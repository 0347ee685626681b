package main

import (
	"time"

	"github.com/gwmath/gwcore/gwnum"
)

// benchResult summarizes one gwbench run.
type benchResult struct {
	Iterations int
	Elapsed    time.Duration
	MaxErr     float64
}

// SquaringsPerSec reports throughput for the run.
func (r benchResult) SquaringsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Iterations) / r.Elapsed.Seconds()
}

// runBenchmark repeatedly squares a seed Value under h, matching the
// "N squarings, report throughput + MAXERR" shape the CLI surface requires.
func runBenchmark(h *gwnum.Handle, iters int) (benchResult, error) {
	v, err := h.NewValue()
	if err != nil {
		return benchResult{}, err
	}
	if err := v.SetInt64(3); err != nil {
		return benchResult{}, err
	}

	start := time.Now()
	for i := 0; i < iters; i++ {
		v, err = h.Mul3(v, v, gwnum.OptStartNextFFT)
		if err != nil {
			return benchResult{}, err
		}
	}
	elapsed := time.Since(start)

	return benchResult{Iterations: iters, Elapsed: elapsed, MaxErr: h.MaxErr()}, nil
}
