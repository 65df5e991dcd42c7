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

// Package report renders an aggregated profile as the master text
// report. Rendering is a pure function of the aggregate: it never
// mutates it, and repeated rendering produces identical bytes.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/RayZh-hs/chisel-boom/profile"
)

const separator = "========================================================="

// Options controls the details of the generated report.
type Options struct {
	// Title is centered between the top separators. Defaults to
	// "MASTER PROFILING REPORT".
	Title string

	// EchoStages are utilization-tree labels repeated inside the
	// speculation block, matching the per-run report layout. Stages
	// the aggregate never saw are omitted.
	EchoStages []string
}

// Report wraps a finished aggregate with rendering options.
type Report struct {
	agg  *profile.Aggregate
	opts Options
}

// New builds a report for the given aggregate. A nil options pointer
// selects the defaults.
func New(agg *profile.Aggregate, o *Options) *Report {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.Title == "" {
		opts.Title = "MASTER PROFILING REPORT"
	}
	if opts.EchoStages == nil {
		opts.EchoStages = []string{"Writeback", "ROB-Commit"}
	}
	return &Report{agg: agg, opts: opts}
}

// Generate writes the rendered report to w.
func Generate(w io.Writer, rpt *Report) error {
	_, err := io.WriteString(w, rpt.String())
	return err
}

// String renders the report.
func (rpt *Report) String() string {
	a := rpt.agg
	c := a.Counters
	var b strings.Builder

	fmt.Fprintln(&b, separator)
	fmt.Fprintln(&b, centered(rpt.opts.Title, len(separator)))
	fmt.Fprintln(&b, separator)

	fmt.Fprintln(&b, "Branch Misprediction Rate:")
	fmt.Fprintf(&b, "  Total Branches:       %d\n", c.TotalBranches)
	fmt.Fprintf(&b, "  Total Mispredictions: %d\n", c.TotalMispredictions)
	fmt.Fprintf(&b, "  Misprediction Rate:   %.2f%%\n", ratio(c.TotalMispredictions, c.TotalBranches)*100)

	fmt.Fprintln(&b, "IPC Performance:")
	fmt.Fprintf(&b, "  Total Instructions:   %d\n", c.TotalInstructions)
	fmt.Fprintf(&b, "  Total PCS Cycles:     %d\n", c.TotalPCSCycles)
	fmt.Fprintf(&b, "  IPC:                  %.4f\n", ratio(c.TotalInstructions, c.TotalPCSCycles))

	fmt.Fprintln(&b, "Rollback Performance:")
	fmt.Fprintf(&b, "  Total Rollback Events: %d\n", c.TotalRollbackEvents)
	fmt.Fprintf(&b, "  Total Rollback Cycles: %d\n", c.TotalRollbackCycles)
	fmt.Fprintf(&b, "  Average Rollback Time: %.2f cycles\n", ratio(c.TotalRollbackCycles, c.TotalRollbackEvents))

	fmt.Fprintln(&b, "Stage Utilization:")
	for _, st := range a.Stages() {
		extra := ""
		if tp := st.WeightedTP(); tp > 0 {
			extra = fmt.Sprintf(" [TP: %.2f instr/busy-cycle]", tp)
		}
		fmt.Fprintf(&b, "  %-10s: %8d / %8d (%.2f%%) [Avg Util: %.2f%%]%s\n",
			st.Label, st.Busy, st.Total, st.WeightedPercent(), st.MeanPercent(), extra)

		for _, ss := range st.Subs() {
			extra := ""
			if lat := ss.WeightedLatency(); lat > 0 {
				extra = fmt.Sprintf(" [Avg Dep Latency: %.2f cycles/instr]", lat)
			}
			fmt.Fprintf(&b, "    %-16s: %8d / %8d (%.2f%%)%s\n",
				ss.Label, ss.Busy, ss.Total, ss.WeightedPercent(), extra)
		}
	}

	fmt.Fprintln(&b, "Average Queue/Buffer Depth:")
	for _, q := range a.Queues() {
		fmt.Fprintf(&b, "  %-12s: %.2f\n", q.Label, q.Average())
	}

	fmt.Fprintln(&b, "Speculation Stats:")
	fmt.Fprintf(&b, "  Total Dispatched    : %d\n", c.SpecDispatched)
	fmt.Fprintf(&b, "  Total Retired       : %d\n", c.SpecRetired)
	fmt.Fprintf(&b, "  Squashed Instructions: %d\n", c.SpecSquashed)

	// Echoed utilization lines, sourced from the tree so their numbers
	// can never diverge from the Stage Utilization block.
	for _, label := range rpt.opts.EchoStages {
		st := a.Stage(label)
		if st == nil {
			continue
		}
		fmt.Fprintf(&b, "  %-12s: %8d / %8d (%.2f%%)\n",
			st.Label, st.Busy, st.Total, st.WeightedPercent())
	}

	fmt.Fprintln(&b, separator)
	return b.String()
}

func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func centered(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad/2) + s
}
