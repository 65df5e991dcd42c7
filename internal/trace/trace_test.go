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

package trace

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestFromCommitLog(t *testing.T) {
	log := strings.Join([]string{
		"[1200] Fetch: pc=0x80000000",
		"[1204] ROB: Commit rob_idx= 3 pc=0x80000000 wb=x1",
		"[1205] ROB: Flush due to mispredict",
		"[1206] ROB: Commit rob_idx= 4 pc=0x80000004 wb=x2",
		"noise line",
		"[1210] ROB: Commit rob_idx= 5 pc=0x8000038c",
	}, "\n")

	pcs, err := FromCommitLog(strings.NewReader(log))
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{0x80000000, 0x80000004, 0x8000038c}
	if !reflect.DeepEqual(pcs, want) {
		t.Errorf("FromCommitLog = %#x, want %#x", pcs, want)
	}
}

func TestFromISS(t *testing.T) {
	out := strings.Join([]string{
		"insn:     0x000380                       -addi r1, r0, 1",
		"  insn:   0x000384                       -add r2, r1, r1",
		"memory: 0x80000000 write 0x41",
		"insn:     0x000388                       -sw r2, 0(r3)",
		"memory: 0xFFFFFFFF write 0x0", // exit sentinel, trace stops here
		"insn:     0x00038c                       -nop",
	}, "\n")

	pcs, err := FromISS(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{0x380, 0x384, 0x388}
	if !reflect.DeepEqual(pcs, want) {
		t.Errorf("FromISS = %#x, want %#x", pcs, want)
	}
}

func TestWriteTrace(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTrace(&buf, []uint64{0x380, 0x8000038c}); err != nil {
		t.Fatal(err)
	}
	want := "0x00000380\n0x8000038c\n"
	if buf.String() != want {
		t.Errorf("WriteTrace wrote %q, want %q", buf.String(), want)
	}
}

func TestSymTableLookup(t *testing.T) {
	syms := NewSymTable([]Symbol{
		{Name: "main", Start: 0x100, End: 0x140},
		{Name: "fib", Start: 0x140}, // no size, extends to next symbol
		{Name: "put", Start: 0x200, End: 0x210},
	})

	for _, tc := range []struct {
		pc   uint64
		want string
	}{
		{0x0ff, "?"},
		{0x100, "main"},
		{0x13c, "main"},
		{0x140, "fib"},
		{0x1fc, "fib"},
		{0x200, "put"},
		{0x210, "?"},
	} {
		if got := syms.Lookup(tc.pc); got != tc.want {
			t.Errorf("Lookup(%#x) = %q, want %q", tc.pc, got, tc.want)
		}
	}
}

func TestAnnotate(t *testing.T) {
	syms := NewSymTable([]Symbol{{Name: "main", Start: 0x100, End: 0x200}})
	var buf bytes.Buffer
	if err := Annotate(&buf, []uint64{0x104, 0x300}, syms); err != nil {
		t.Fatal(err)
	}
	want := "0x00000104 main\n0x00000300 ?\n"
	if buf.String() != want {
		t.Errorf("Annotate wrote %q, want %q", buf.String(), want)
	}
}
