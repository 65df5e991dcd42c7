// Copyright 2014 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package batch drives batched regression runs through the external
// build tool and scrapes per-test misprediction rates out of the live
// output. The build tool prints a test's rate before its completion
// marker, so the scanner holds the most recent rate and attributes it
// to the next test that finishes.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/RayZh-hs/chisel-boom/internal/plugin"
	"github.com/RayZh-hs/chisel-boom/pkg/logutil"
)

// A Batch is one invocation of the test tool: a suite and the tests
// selected from it. Test order is preserved into the summary table.
type Batch struct {
	Suite string
	Tests []string
}

// Result is the outcome for one requested test. Found reports whether
// a rate was observed for it; tests that crash or never print a rate
// stay in the table as N/A.
type Result struct {
	Test  string
	Rate  float64
	Found bool
}

// DefaultBatches is the standard regression set.
func DefaultBatches() []Batch {
	return []Batch{
		{Suite: "e2e.E2ETests", Tests: []string{"fibonacci", "matmul_8x8"}},
		{Suite: "e2e.E2ESimTests", Tests: []string{"superloop", "hanoi", "bulgarian", "queens"}},
	}
}

// A Runner executes batches. CommandContext builds the external
// command for a batch; tests substitute their own to avoid invoking
// the build tool.
type Runner struct {
	CommandContext func(ctx context.Context, suite string, tests []string) *exec.Cmd
	UI             plugin.UI
}

// NewRunner returns a runner invoking the given mill executable.
func NewRunner(mill string, ui plugin.UI) *Runner {
	return &Runner{
		CommandContext: func(ctx context.Context, suite string, tests []string) *exec.Cmd {
			args := []string{"-Dreport=true", "test.testOnly", suite, "--"}
			for _, t := range tests {
				args = append(args, "-z", t)
			}
			return exec.CommandContext(ctx, mill, args...)
		},
		UI: ui,
	}
}

// Run executes the batches in order and returns one result per
// requested test, in request order. A batch that fails to start or
// exits nonzero is reported; its missing tests show up as N/A and the
// remaining batches still run.
func (r *Runner) Run(ctx context.Context, batches []Batch) ([]Result, error) {
	logger := logutil.GetLogger()
	var results []Result
	for _, b := range batches {
		r.UI.Print(fmt.Sprintf("\n>>> Batch: %s", b.Suite))
		rates, err := r.runBatch(ctx, b)
		if err != nil {
			r.UI.PrintErr(fmt.Sprintf("Error: Batch %s: %v", b.Suite, err))
			logger.Warn("batch failed", zap.String("suite", b.Suite), zap.Error(err))
		}
		for _, name := range b.Tests {
			rate, ok := rates[name]
			results = append(results, Result{Test: name, Rate: rate, Found: ok})
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (r *Runner) runBatch(ctx context.Context, b Batch) (map[string]float64, error) {
	cmd := r.CommandContext(ctx, b.Suite, b.Tests)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		done <- err
	}()

	rates := scanOutput(pr, func(kind, name string, rate float64, found bool) {
		status := "DONE (No rate found)"
		if found {
			status = fmt.Sprintf("DONE (Rate: %v%%)", rate)
		}
		r.UI.Print(fmt.Sprintf("Running %s test: %s... %s", kind, name, status))
	})
	return rates, <-done
}

var (
	rateRE = regexp.MustCompile(`Misprediction Rate:\s+([0-9.]+)%`)
	taskRE = regexp.MustCompile(`- (Sim|C) test: (\S+)`)
)

// scanOutput consumes the merged output stream. Each completion
// marker closes the test with the rate most recently seen, then the
// pending rate resets for the next test. report, if non-nil, is
// called once per completed test.
func scanOutput(r io.Reader, report func(kind, name string, rate float64, found bool)) map[string]float64 {
	rates := make(map[string]float64)
	var pending float64
	havePending := false

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		line := s.Text()

		if m := rateRE.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				pending = v
				havePending = true
			}
		}

		if m := taskRE.FindStringSubmatch(line); m != nil {
			kind, name := m[1], m[2]
			// Color resets ride on the test name in live output.
			if i := strings.IndexByte(name, '\x1b'); i >= 0 {
				name = name[:i]
			}
			if havePending {
				rates[name] = pending
			}
			if report != nil {
				report(kind, name, pending, havePending)
			}
			pending, havePending = 0, false
		}
	}
	return rates
}

// Summarize writes the results table with the average over the tests
// that produced a rate.
func Summarize(w io.Writer, results []Result) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "%-30s | %-20s\n", "Test Case", "Misprediction Rate")
	fmt.Fprintln(w, strings.Repeat("-", 60))

	var sum float64
	valid := 0
	for _, res := range results {
		display := "N/A"
		if res.Found {
			display = fmt.Sprintf("%.2f%%", res.Rate)
			sum += res.Rate
			valid++
		}
		fmt.Fprintf(w, "%-30s | %18s\n", res.Test, display)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))

	if valid > 0 {
		fmt.Fprintf(w, "%-30s | %17.2f%%\n", "AVERAGE", sum/float64(valid))
	} else {
		fmt.Fprintln(w, "No valid results collected.")
	}
	fmt.Fprintln(w, rule)
}
