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

// Aggregate folds any number of reports into one summary. All numeric
// state is additive, so absorbing reports one at a time, or merging
// independently built partial aggregates, yields the same totals in any
// order. Label order is the one observable exception: stages, their
// sub-entries and queue labels render in first-seen order across the
// sequence of Absorb and Merge calls actually performed.
type Aggregate struct {
	Counters Counters

	stages     map[string]*Stage
	stageOrder []string

	queues     map[string]*QueueStat
	queueOrder []string
}

// Stage is the accumulated utilization of one pipeline stage. Busy and
// Total sum the per-report fractions; RatioSum and ReportCount carry
// the unweighted mean of per-report percentages alongside; TPWeighted
// accumulates throughput scaled by busy cycles so the merged
// throughput is busy-cycle weighted.
type Stage struct {
	Label       string
	Busy        int64
	Total       int64
	RatioSum    float64
	ReportCount int64
	TPWeighted  float64

	subs     map[string]*SubStage
	subOrder []string
}

// SubStage is the accumulated busy fraction of one stall cause under a
// stage, with dependency latency weighted by busy cycles.
type SubStage struct {
	Label       string
	Busy        int64
	Total       int64
	LatWeighted float64
}

// QueueStat is the cycle-weighted occupancy of one queue or buffer.
type QueueStat struct {
	Label       string
	WeightedSum float64
	TotalWeight int64
}

// NewAggregate returns an empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		stages: make(map[string]*Stage),
		queues: make(map[string]*QueueStat),
	}
}

func (a *Aggregate) stage(label string) *Stage {
	st, ok := a.stages[label]
	if !ok {
		st = &Stage{Label: label, subs: make(map[string]*SubStage)}
		a.stages[label] = st
		a.stageOrder = append(a.stageOrder, label)
	}
	return st
}

func (st *Stage) sub(label string) *SubStage {
	ss, ok := st.subs[label]
	if !ok {
		ss = &SubStage{Label: label}
		st.subs[label] = ss
		st.subOrder = append(st.subOrder, label)
	}
	return ss
}

func (a *Aggregate) queue(label string) *QueueStat {
	q, ok := a.queues[label]
	if !ok {
		q = &QueueStat{Label: label}
		a.queues[label] = q
		a.queueOrder = append(a.queueOrder, label)
	}
	return q
}

// Absorb folds one report into the aggregate. Each stage line of the
// report is one observation: its fraction adds, its ratio (zero when
// the denominator is zero) feeds the unweighted mean, and throughput
// and latency figures add scaled by the line's busy cycles.
func (a *Aggregate) Absorb(r *Report) {
	a.Counters.add(r.Counters)

	for _, s := range r.Stages {
		st := a.stage(s.Label)
		st.Busy += s.Busy
		st.Total += s.Total
		if s.Total > 0 {
			st.RatioSum += float64(s.Busy) / float64(s.Total)
		}
		st.ReportCount++
		st.TPWeighted += s.TP * float64(s.Busy)

		for _, c := range s.Subs {
			ss := st.sub(c.Label)
			ss.Busy += c.Busy
			ss.Total += c.Total
			ss.LatWeighted += c.AvgDep * float64(c.Busy)
		}
	}

	for _, qs := range r.Queues {
		q := a.queue(qs.Label)
		q.WeightedSum += qs.Depth * float64(qs.Weight)
		q.TotalWeight += qs.Weight
	}
}

// Merge folds another aggregate into a. Labels unseen by a are
// appended in other's order, so merging partial aggregates in the
// order their inputs were discovered reproduces the label order of a
// sequential fold.
func (a *Aggregate) Merge(other *Aggregate) {
	a.Counters.add(other.Counters)

	for _, label := range other.stageOrder {
		o := other.stages[label]
		st := a.stage(label)
		st.Busy += o.Busy
		st.Total += o.Total
		st.RatioSum += o.RatioSum
		st.ReportCount += o.ReportCount
		st.TPWeighted += o.TPWeighted
		for _, subLabel := range o.subOrder {
			os := o.subs[subLabel]
			ss := st.sub(subLabel)
			ss.Busy += os.Busy
			ss.Total += os.Total
			ss.LatWeighted += os.LatWeighted
		}
	}

	for _, label := range other.queueOrder {
		o := other.queues[label]
		q := a.queue(label)
		q.WeightedSum += o.WeightedSum
		q.TotalWeight += o.TotalWeight
	}
}

// Merge combines the given aggregates into a new one, in order.
func Merge(aggs []*Aggregate) *Aggregate {
	m := NewAggregate()
	for _, a := range aggs {
		if a != nil {
			m.Merge(a)
		}
	}
	return m
}

// Stages returns the accumulated stages in first-seen order.
func (a *Aggregate) Stages() []*Stage {
	out := make([]*Stage, len(a.stageOrder))
	for i, label := range a.stageOrder {
		out[i] = a.stages[label]
	}
	return out
}

// Stage returns the accumulated stage with the given label, or nil.
func (a *Aggregate) Stage(label string) *Stage {
	return a.stages[label]
}

// Subs returns the stage's sub-entries in first-seen order.
func (st *Stage) Subs() []*SubStage {
	out := make([]*SubStage, len(st.subOrder))
	for i, label := range st.subOrder {
		out[i] = st.subs[label]
	}
	return out
}

// Queues returns the accumulated queue stats in first-seen order.
func (a *Aggregate) Queues() []*QueueStat {
	out := make([]*QueueStat, len(a.queueOrder))
	for i, label := range a.queueOrder {
		out[i] = a.queues[label]
	}
	return out
}

// WeightedPercent is the cycle-weighted utilization: summed busy over
// summed total, as a percentage. Zero when no cycles were recorded.
func (st *Stage) WeightedPercent() float64 {
	return percent(st.Busy, st.Total)
}

// MeanPercent is the unweighted mean of per-report utilization
// percentages. Zero when no reports contributed.
func (st *Stage) MeanPercent() float64 {
	if st.ReportCount == 0 {
		return 0
	}
	return st.RatioSum / float64(st.ReportCount) * 100
}

// WeightedTP is the busy-cycle-weighted throughput in instructions per
// busy cycle. Zero when the stage was never busy.
func (st *Stage) WeightedTP() float64 {
	if st.Busy == 0 {
		return 0
	}
	return st.TPWeighted / float64(st.Busy)
}

// WeightedPercent is the cycle-weighted busy percentage of the stall
// cause.
func (ss *SubStage) WeightedPercent() float64 {
	return percent(ss.Busy, ss.Total)
}

// WeightedLatency is the busy-cycle-weighted average dependency
// latency. Zero when the cause never fired.
func (ss *SubStage) WeightedLatency() float64 {
	if ss.Busy == 0 {
		return 0
	}
	return ss.LatWeighted / float64(ss.Busy)
}

// Average is the cycle-weighted mean occupancy. Zero when no weight
// accumulated.
func (q *QueueStat) Average() float64 {
	if q.TotalWeight == 0 {
		return 0
	}
	return q.WeightedSum / float64(q.TotalWeight)
}

func percent(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}
