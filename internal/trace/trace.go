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

// Package trace extracts committed-instruction PC traces from the two
// sources the project produces them in: the core's own commit log, and
// the instruction trace of the reference instruction-set simulator.
// Both yield the same artifact, one normalized PC per line, so a core
// trace can be diffed against the reference run.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	commitRE = regexp.MustCompile(`ROB: Commit .* pc=(0x[0-9a-fA-F]+)`)
	insnRE   = regexp.MustCompile(`^\s*insn:\s+(0x[0-9a-fA-F]+)\s+`)
)

// FromCommitLog scans a core simulation log and returns the PC of
// every ROB commit, in order.
func FromCommitLog(r io.Reader) ([]uint64, error) {
	var pcs []uint64
	s := newLineScanner(r)
	for s.Scan() {
		if m := commitRE.FindStringSubmatch(s.Text()); m != nil {
			pc, err := strconv.ParseUint(m[1], 0, 64)
			if err == nil {
				pcs = append(pcs, pc)
			}
		}
	}
	return pcs, s.Err()
}

// FromISS scans the instruction trace of the reference simulator. The
// trace ends at the program's exit write, a store to the top-of-memory
// sentinel address; instructions after it belong to simulator
// shutdown, not the program.
func FromISS(r io.Reader) ([]uint64, error) {
	var pcs []uint64
	s := newLineScanner(r)
	for s.Scan() {
		line := s.Text()
		lower := strings.ToLower(line)
		if strings.Contains(lower, "0xffffffff") && strings.Contains(lower, "write") {
			break
		}
		if m := insnRE.FindStringSubmatch(line); m != nil {
			pc, err := strconv.ParseUint(m[1], 0, 64)
			if err == nil {
				pcs = append(pcs, pc)
			}
		}
	}
	return pcs, s.Err()
}

// WriteTrace writes one zero-padded PC per line.
func WriteTrace(w io.Writer, pcs []uint64) error {
	bw := bufio.NewWriter(w)
	for _, pc := range pcs {
		fmt.Fprintf(bw, "0x%08x\n", pc)
	}
	return bw.Flush()
}

// Annotate writes one PC per line followed by the name of the function
// containing it, per the symbol table.
func Annotate(w io.Writer, pcs []uint64, syms *SymTable) error {
	bw := bufio.NewWriter(w)
	for _, pc := range pcs {
		fmt.Fprintf(bw, "0x%08x %s\n", pc, syms.Lookup(pc))
	}
	return bw.Flush()
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return s
}
