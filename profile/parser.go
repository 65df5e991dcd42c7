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

// This file implements parsing of the section-oriented text format the
// simulation harness emits after each run. The format is not
// self-describing: a fixed set of literal header lines opens sections,
// and every other line is matched against the shape its section
// expects. Lines that do not match contribute nothing; they never fail
// the parse.

package profile

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// DefaultHeaders maps the literal header prefixes of the report format
// to sections. The driver may substitute its own table when the
// upstream format drifts.
var DefaultHeaders = map[string]Section{
	"Branch Misprediction Rate:":  SectionBranch,
	"IPC Performance:":            SectionIPC,
	"Rollback Performance:":       SectionRollback,
	"Stage Utilization:":          SectionUtil,
	"Average Queue/Buffer Depth:": SectionQueue,
	"Speculation Stats:":          SectionSpec,
}

// Indentation beyond this many spaces marks a utilization line as a
// sub-entry of the preceding stage.
const subIndent = 3

var (
	runTagRE   = regexp.MustCompile(`^\[[^\]]*\]`)
	valueRE    = regexp.MustCompile(`:\s*([0-9.]+)`)
	fractionRE = regexp.MustCompile(`:\s*(\d+)\s*/\s*(\d+)`)
	tpRE       = regexp.MustCompile(`\[TP:\s*([0-9.]+)`)
	avgDepRE   = regexp.MustCompile(`Avg Dep Latency\s*:\s*([0-9.]+)`)
	ansiRE     = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
)

// A Parser consumes the decoded lines of one report and produces a
// Report. It holds the line-to-line state the format requires: the
// active section, the stage that owns subsequent sub-entries, and the
// cycle count that weighs queue depths.
type Parser struct {
	headers map[string]Section

	rep       *Report
	section   Section
	stage     *StageSample
	pcsCycles int64
}

// NewParser returns a parser using the default section header table.
func NewParser() *Parser {
	return NewParserWithHeaders(DefaultHeaders)
}

// NewParserWithHeaders returns a parser that recognizes the given
// header-prefix table instead of DefaultHeaders.
func NewParserWithHeaders(headers map[string]Section) *Parser {
	return &Parser{
		headers: headers,
		rep:     &Report{},
	}
}

// Parse reads one report from r, line by line. Read errors are
// returned; malformed content is not an error.
func (p *Parser) Parse(r io.Reader) (*Report, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		p.ParseLine(s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return p.Report(), nil
}

// ParseData parses one in-memory report.
func ParseData(data []byte) *Report {
	p := NewParser()
	rep, _ := p.Parse(bytes.NewReader(data))
	return rep
}

// Report returns the report accumulated so far. The parser remains
// usable; callers that stream a file hand the parser one line at a time
// and call Report once at end of file.
func (p *Parser) Report() *Report {
	return p.rep
}

// ParseLine folds one decoded text line into the report under
// construction. It never fails: lines that match nothing are ignored.
func (p *Parser) ParseLine(raw string) {
	// Strip the bracketed run tag the test harness prefixes to every
	// line, but keep the whitespace that follows it: utilization
	// hierarchy is encoded in the indentation after the tag.
	untrimmed := raw
	if loc := runTagRE.FindStringIndex(raw); loc != nil {
		untrimmed = raw[loc[1]:]
	}
	line := strings.TrimSpace(untrimmed)

	if line == "" || strings.HasPrefix(line, "=") {
		return
	}

	for prefix, sec := range p.headers {
		if strings.HasPrefix(line, prefix) {
			p.section = sec
			return
		}
	}

	switch p.section {
	case SectionBranch:
		switch {
		case strings.Contains(line, "Total Branches:"):
			p.rep.Counters.TotalBranches += lineValue(line)
		case strings.Contains(line, "Total Mispredictions:"):
			p.rep.Counters.TotalMispredictions += lineValue(line)
		}

	case SectionIPC:
		switch {
		case strings.Contains(line, "Total Instructions:"):
			p.rep.Counters.TotalInstructions += lineValue(line)
		case strings.Contains(line, "Total PCS Cycles:"):
			v := lineValue(line)
			p.rep.Counters.TotalPCSCycles += v
			p.pcsCycles = v
		}

	case SectionRollback:
		switch {
		case strings.Contains(line, "Total Rollback Events:"):
			p.rep.Counters.TotalRollbackEvents += lineValue(line)
		case strings.Contains(line, "Total Rollback Cycles:"):
			p.rep.Counters.TotalRollbackCycles += lineValue(line)
		}

	case SectionSpec:
		// Substring matches: trailing annotations on these lines vary
		// between harness versions. Writeback / ROB-Commit echo lines
		// also show up here; the utilization tree is authoritative for
		// those, so they fall through unmatched.
		switch {
		case strings.Contains(line, "Total Dispatched"):
			p.rep.Counters.SpecDispatched += lineValue(line)
		case strings.Contains(line, "Total Retired"):
			p.rep.Counters.SpecRetired += lineValue(line)
		case strings.Contains(line, "Squashed Instructions"):
			p.rep.Counters.SpecSquashed += lineValue(line)
		}

	case SectionUtil:
		p.parseUtilLine(untrimmed, line)

	case SectionQueue:
		p.parseQueueLine(line)
	}
}

func (p *Parser) parseUtilLine(untrimmed, line string) {
	label, rest, ok := splitLabel(line)
	if !ok || label == "" {
		return
	}
	busy, total := fraction(rest)

	if indentOf(untrimmed) <= subIndent {
		st := &StageSample{Label: label, Busy: busy, Total: total}
		if m := tpRE.FindStringSubmatch(line); m != nil {
			st.TP, _ = strconv.ParseFloat(m[1], 64)
		}
		p.rep.Stages = append(p.rep.Stages, st)
		p.stage = st
		return
	}

	// Sub-entries before any stage line have no owner and are dropped.
	if p.stage == nil {
		return
	}
	sub := &SubSample{Label: label, Busy: busy, Total: total}
	if m := avgDepRE.FindStringSubmatch(line); m != nil {
		sub.AvgDep, _ = strconv.ParseFloat(m[1], 64)
	}
	p.stage.Subs = append(p.stage.Subs, sub)
}

func (p *Parser) parseQueueLine(line string) {
	label, rest, ok := splitLabel(line)
	if !ok || label == "" {
		return
	}
	depth, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return
	}
	weight := p.pcsCycles
	if weight <= 0 {
		weight = 1
	}
	p.rep.Queues = append(p.rep.Queues, QueueSample{
		Label:  label,
		Depth:  depth,
		Weight: weight,
	})
}

// lineValue extracts the first decimal number following a colon, as an
// integer count. Missing or malformed values count zero.
func lineValue(line string) int64 {
	m := valueRE.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return int64(v)
}

// fraction extracts a "num / den" pair following a colon. Lines without
// one yield (0, 0), a zero contribution.
func fraction(s string) (num, den int64) {
	m := fractionRE.FindStringSubmatch(":" + s)
	if m == nil {
		return 0, 0
	}
	num, _ = strconv.ParseInt(m[1], 10, 64)
	den, _ = strconv.ParseInt(m[2], 10, 64)
	return num, den
}

// splitLabel separates "label : rest" and normalizes the label.
func splitLabel(line string) (label, rest string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	return NormalizeLabel(line[:i]), line[i+1:], true
}

// NormalizeLabel strips terminal escape sequences, embedded control
// characters and surrounding space from a captured label, so two
// cosmetically different renderings of the same label land on one key.
func NormalizeLabel(s string) string {
	s = ansiRE.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// indentOf counts the leading spaces of a tag-stripped line; tabs count
// as one level of the sub-entry threshold.
func indentOf(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += subIndent + 1
		default:
			return n
		}
	}
	return n
}
