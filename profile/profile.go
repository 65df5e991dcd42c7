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

// Package profile provides the data model for per-run pipeline
// performance reports (.profile files), a streaming parser for their
// section-oriented text format, and an aggregate that merges any number
// of reports into one statistically consistent summary.
package profile

// Section identifies which block of a report a line belongs to. A line
// belongs to the section opened by the most recent header line.
type Section int

const (
	// SectionNone is the state before any header has been seen.
	SectionNone Section = iota
	SectionBranch
	SectionIPC
	SectionRollback
	SectionUtil
	SectionQueue
	SectionSpec
)

// String returns the section name used in diagnostics.
func (s Section) String() string {
	switch s {
	case SectionBranch:
		return "branch"
	case SectionIPC:
		return "ipc"
	case SectionRollback:
		return "rollback"
	case SectionUtil:
		return "util"
	case SectionQueue:
		return "queue"
	case SectionSpec:
		return "spec"
	}
	return "none"
}

// Counters holds the raw event counts of a report, or the sum of such
// counts across reports. All fields are strictly additive.
type Counters struct {
	TotalBranches       int64
	TotalMispredictions int64
	TotalInstructions   int64
	TotalPCSCycles      int64
	TotalRollbackEvents int64
	TotalRollbackCycles int64
	SpecDispatched      int64
	SpecRetired         int64
	SpecSquashed        int64
}

func (c *Counters) add(o Counters) {
	c.TotalBranches += o.TotalBranches
	c.TotalMispredictions += o.TotalMispredictions
	c.TotalInstructions += o.TotalInstructions
	c.TotalPCSCycles += o.TotalPCSCycles
	c.TotalRollbackEvents += o.TotalRollbackEvents
	c.TotalRollbackCycles += o.TotalRollbackCycles
	c.SpecDispatched += o.SpecDispatched
	c.SpecRetired += o.SpecRetired
	c.SpecSquashed += o.SpecSquashed
}

// Report is the parse result for a single input file. Stage and queue
// samples appear in the order their lines occurred; duplicate labels
// within one file produce one sample per line, the aggregate folds them
// under one key.
type Report struct {
	Counters Counters
	Stages   []*StageSample
	Queues   []QueueSample
}

// StageSample is one parent line of the Stage Utilization block:
// busy/total cycles for a pipeline stage, plus an optional throughput
// figure in instructions per busy cycle.
type StageSample struct {
	Label string
	Busy  int64
	Total int64
	TP    float64
	Subs  []*SubSample
}

// SubSample is one indented line under a stage: the busy fraction of a
// stall cause, plus an optional average dependency latency.
type SubSample struct {
	Label  string
	Busy   int64
	Total  int64
	AvgDep float64
}

// QueueSample is one line of the Average Queue/Buffer Depth block. The
// weight is the report's own Total PCS Cycles, resolved when the line
// is parsed; reports that never stated a cycle count weigh 1 so their
// data is not silently dropped.
type QueueSample struct {
	Label  string
	Depth  float64
	Weight int64
}
