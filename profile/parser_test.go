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

package profile

import (
	"strings"
	"testing"
)

const sampleReport = `[42] =========================================================
[42]                    PIPELINE PROFILE: fibonacci
[42] =========================================================
[42] Branch Misprediction Rate:
[42]   Total Branches:       1000
[42]   Total Mispredictions: 53
[42]   Misprediction Rate:   5.30%
[42] IPC Performance:
[42]   Total Instructions:   4000
[42]   Total PCS Cycles:     5000
[42]   IPC:                  0.8000
[42] Rollback Performance:
[42]   Total Rollback Events: 12
[42]   Total Rollback Cycles: 480
[42]   Average Rollback Time: 40.00 cycles
[42] Stage Utilization:
[42]   Fetch     :      800 /     5000 (16.00%) [TP: 1.10 instr/busy-cycle]
[42]   Issue-ALU :       40 /      100 (40.00%)
[42]     Stall-Operands  :       10 /      100 (10.00%) Avg Dep Latency : 3.50
[42]     Stall-Port      :        5 /      100 (5.00%)
[42]   Writeback :      750 /     5000 (15.00%)
[42] Average Queue/Buffer Depth:
[42]   ROB         : 12.50
[42]   LSQ         : 4.25
[42] Speculation Stats:
[42]   Total Dispatched    : 4400 (incl. wrong path)
[42]   Total Retired       : 4000
[42]   Squashed Instructions: 400
[42]   Writeback   :      750 /     5000 (15.00%)
[42] =========================================================
`

func TestParseReport(t *testing.T) {
	rep := ParseData([]byte(sampleReport))

	want := Counters{
		TotalBranches:       1000,
		TotalMispredictions: 53,
		TotalInstructions:   4000,
		TotalPCSCycles:      5000,
		TotalRollbackEvents: 12,
		TotalRollbackCycles: 480,
		SpecDispatched:      4400,
		SpecRetired:         4000,
		SpecSquashed:        400,
	}
	if rep.Counters != want {
		t.Errorf("counters = %+v, want %+v", rep.Counters, want)
	}

	if got := len(rep.Stages); got != 3 {
		t.Fatalf("got %d stages, want 3", got)
	}
	fetch := rep.Stages[0]
	if fetch.Label != "Fetch" || fetch.Busy != 800 || fetch.Total != 5000 {
		t.Errorf("stage[0] = %+v, want Fetch 800/5000", fetch)
	}
	if fetch.TP != 1.10 {
		t.Errorf("Fetch TP = %v, want 1.10", fetch.TP)
	}

	alu := rep.Stages[1]
	if alu.Label != "Issue-ALU" || len(alu.Subs) != 2 {
		t.Fatalf("stage[1] = %+v, want Issue-ALU with 2 subs", alu)
	}
	if s := alu.Subs[0]; s.Label != "Stall-Operands" || s.Busy != 10 || s.AvgDep != 3.5 {
		t.Errorf("sub[0] = %+v, want Stall-Operands 10/100 dep 3.5", s)
	}
	if s := alu.Subs[1]; s.Label != "Stall-Port" || s.AvgDep != 0 {
		t.Errorf("sub[1] = %+v, want Stall-Port without latency", s)
	}

	// The Writeback line in the speculation block is an echo of the
	// utilization tree, it must not create a fourth stage.
	if rep.Stages[2].Label != "Writeback" || rep.Stages[2].Busy != 750 {
		t.Errorf("stage[2] = %+v, want Writeback 750/5000", rep.Stages[2])
	}

	if got := len(rep.Queues); got != 2 {
		t.Fatalf("got %d queue samples, want 2", got)
	}
	for i, want := range []QueueSample{
		{Label: "ROB", Depth: 12.5, Weight: 5000},
		{Label: "LSQ", Depth: 4.25, Weight: 5000},
	} {
		if rep.Queues[i] != want {
			t.Errorf("queue[%d] = %+v, want %+v", i, rep.Queues[i], want)
		}
	}
}

func TestParseLineAnomalies(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		lines []string
	}{
		{
			desc: "garbage inside branch section",
			lines: []string{
				"Branch Misprediction Rate:",
				"  Total Branches are unknown today",
				"  ::::",
			},
		},
		{
			desc: "fraction without numbers",
			lines: []string{
				"Stage Utilization:",
				"  Fetch : n/a",
			},
		},
		{
			desc: "queue value not a number",
			lines: []string{
				"Average Queue/Buffer Depth:",
				"  ROB : deep",
			},
		},
		{
			desc: "sub-entry before any stage",
			lines: []string{
				"Stage Utilization:",
				"      Stall-Orphan :  1 / 10 (10.00%)",
			},
		},
		{
			desc: "data before any header",
			lines: []string{
				"  Total Branches: 999",
			},
		},
	} {
		p := NewParser()
		for _, line := range tc.lines {
			p.ParseLine(line)
		}
		rep := p.Report()
		if rep.Counters != (Counters{}) {
			t.Errorf("%s: counters = %+v, want all zero", tc.desc, rep.Counters)
		}
		for _, st := range rep.Stages {
			if st.Busy != 0 || st.Total != 0 || len(st.Subs) != 0 {
				t.Errorf("%s: stage %+v, want zero contribution", tc.desc, st)
			}
		}
		if len(rep.Queues) != 0 {
			t.Errorf("%s: queues = %+v, want none", tc.desc, rep.Queues)
		}
	}
}

func TestQueueWeightFallback(t *testing.T) {
	p := NewParser()
	for _, line := range []string{
		"Average Queue/Buffer Depth:",
		"  ROB : 8.00",
		"IPC Performance:",
		"  Total PCS Cycles: 200",
		"Average Queue/Buffer Depth:",
		"  LSQ : 2.00",
	} {
		p.ParseLine(line)
	}
	rep := p.Report()
	if len(rep.Queues) != 2 {
		t.Fatalf("got %d queue samples, want 2", len(rep.Queues))
	}
	if rep.Queues[0].Weight != 1 {
		t.Errorf("queue seen before cycle count got weight %d, want fallback 1", rep.Queues[0].Weight)
	}
	if rep.Queues[1].Weight != 200 {
		t.Errorf("queue seen after cycle count got weight %d, want 200", rep.Queues[1].Weight)
	}
}

func TestNormalizeLabel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"Issue-ALU", "Issue-ALU"},
		{"  Issue-ALU  ", "Issue-ALU"},
		{"Issue-\x1b[1mALU\x1b[0m", "Issue-ALU"},
		{"Issue-ALU\x07", "Issue-ALU"},
		{"Issue\tALU", "IssueALU"},
		{"\x01\x02", ""},
	} {
		if got := NormalizeLabel(tc.in); got != tc.want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestControlCharacterLabelsMerge(t *testing.T) {
	a := NewAggregate()
	p := NewParser()
	p.ParseLine("Stage Utilization:")
	p.ParseLine("  Fetch : 10 / 100")
	p.ParseLine("  Fet\x1b[0mch : 20 / 100")
	a.Absorb(p.Report())

	stages := a.Stages()
	if len(stages) != 1 {
		t.Fatalf("got %d stages %v, want 1", len(stages), stages)
	}
	if st := stages[0]; st.Busy != 30 || st.Total != 200 {
		t.Errorf("merged stage = %+v, want 30/200", st)
	}
}

func TestCustomHeaderTable(t *testing.T) {
	p := NewParserWithHeaders(map[string]Section{
		"Speculative Execution:": SectionSpec,
	})
	p.ParseLine("Speculative Execution:")
	p.ParseLine("  Total Dispatched : 7")
	if got := p.Report().Counters.SpecDispatched; got != 7 {
		t.Errorf("SpecDispatched = %d, want 7", got)
	}
	// The default headers must not be recognized by a custom table.
	p.ParseLine("IPC Performance:")
	p.ParseLine("  Total Instructions: 5")
	if got := p.Report().Counters.TotalInstructions; got != 0 {
		t.Errorf("TotalInstructions = %d, want 0 with custom table", got)
	}
}

func TestParseStreaming(t *testing.T) {
	// Feeding lines one at a time must match parsing the whole file.
	p := NewParser()
	for _, line := range strings.Split(sampleReport, "\n") {
		p.ParseLine(line)
	}
	streamed := NewAggregate()
	streamed.Absorb(p.Report())

	whole := NewAggregate()
	whole.Absorb(ParseData([]byte(sampleReport)))

	if streamed.Counters != whole.Counters {
		t.Errorf("streamed counters %+v != whole-file counters %+v", streamed.Counters, whole.Counters)
	}
	if len(streamed.Stages()) != len(whole.Stages()) {
		t.Errorf("streamed stages %d != whole-file stages %d", len(streamed.Stages()), len(whole.Stages()))
	}
}
