// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Command gwbench drives gwnum's Handle/Value arithmetic from the command line:
// set up either a special-form (k*b^n+c) or general-form modulus, run a
// configured number of squarings, and report throughput and MAXERR.
package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/gwmath/gwcore/gwnum"
)

// VERSION is injected by buildflags, following kcptun's own SELFBUILD convention.
var VERSION = "SELFBUILD"

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(-1)
	}
}

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "gwbench"
	myApp.Usage = "benchmark and sanity-check the gwnum IBDWT arithmetic engine"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.Float64Flag{
			Name:  "k",
			Value: 1,
			Usage: "special-form modulus coefficient k in k*b^n+c",
		},
		cli.IntFlag{
			Name:  "b",
			Value: 2,
			Usage: "special-form modulus base b in k*b^n+c",
		},
		cli.IntFlag{
			Name:  "n",
			Value: 9689,
			Usage: "special-form modulus exponent n in k*b^n+c",
		},
		cli.IntFlag{
			Name:  "c",
			Value: -1,
			Usage: "special-form modulus additive term c in k*b^n+c",
		},
		cli.StringFlag{
			Name:  "modulus",
			Usage: "decimal or 0x-prefixed general-form modulus; overrides -k/-b/-n/-c",
		},
		cli.StringFlag{
			Name:  "reducer",
			Value: "barrett",
			Usage: "general-form reducer to use: barrett or mmgw",
		},
		cli.IntFlag{
			Name:  "threads",
			Value: 1,
			Usage: "worker threads the scheduler spreads the carry/normalize pass across",
		},
		cli.IntFlag{
			Name:  "fft-len-override",
			Value: 0,
			Usage: "step the chosen FFT length up this many shape-table entries",
		},
		cli.Float64Flag{
			Name:  "safety-margin",
			Value: 0,
			Usage: "additional roundoff-bit headroom subtracted from the shape selector's ceiling",
		},
		cli.IntFlag{
			Name:  "iters",
			Value: 1000,
			Usage: "number of squarings to run",
		},
		cli.StringFlag{
			Name:  "c-config",
			Usage: "load benchmark parameters from this JSON config file, overriding the shell flags",
		},
	}

	myApp.Action = func(c *cli.Context) error {
		cfg := Config{
			K:              c.Float64("k"),
			B:              c.Int("b"),
			N:              c.Int("n"),
			C:              c.Int("c"),
			Modulus:        c.String("modulus"),
			Reducer:        c.String("reducer"),
			Threads:        c.Int("threads"),
			FFTLenOverride: c.Int("fft-len-override"),
			SafetyMargin:   c.Float64("safety-margin"),
			Iters:          c.Int("iters"),
		}
		if path := c.String("c-config"); path != "" {
			checkError(parseJSONConfig(&cfg, path))
		}

		log.Println("version:", VERSION)
		h, err := setupHandle(cfg)
		checkError(err)
		defer h.Done()

		log.Println(h.String())
		result, err := runBenchmark(h, cfg.Iters)
		checkError(err)

		log.Printf("iterations: %d", result.Iterations)
		log.Printf("elapsed: %s", result.Elapsed)
		log.Printf("squarings/sec: %.1f", result.SquaringsPerSec())
		log.Printf("maxerr: %.6f", result.MaxErr)
		return nil
	}

	if err := myApp.Run(os.Args); err != nil {
		checkError(errors.Wrap(err, "run"))
	}
}

// setupHandle builds a *gwnum.Handle from cfg, choosing special-form or
// general-form setup the way the library's two top-level configuration paths
// (SetupSpecial vs SetupGeneralMod) are meant to be selected by a caller.
func setupHandle(cfg Config) (*gwnum.Handle, error) {
	h := gwnum.New()
	if err := h.SetThreads(cfg.Threads); err != nil {
		return nil, err
	}

	opts := []gwnum.ShapeOption{gwnum.WithSafetyMargin(cfg.SafetyMargin)}
	if cfg.FFTLenOverride > 0 {
		opts = append(opts, gwnum.WithLargerFFT(cfg.FFTLenOverride))
	}

	if cfg.Modulus != "" {
		g, err := gwnum.GiantFromString(cfg.Modulus)
		if err != nil {
			return nil, errors.Wrap(err, "parse -modulus")
		}
		kind := gwnum.ReducerBarrett
		if cfg.Reducer == "mmgw" {
			kind = gwnum.ReducerMMGW
		}
		if err := h.SetupGeneralMod(g, kind, uint64(g.BitLen())); err != nil {
			return nil, errors.Wrap(err, "SetupGeneralMod")
		}
		return h, nil
	}

	if err := h.SetupSpecial(uint64(cfg.K), uint64(cfg.B), uint64(cfg.N), int64(cfg.C), opts...); err != nil {
		return nil, errors.Wrap(err, "SetupSpecial")
	}
	return h, nil
}
