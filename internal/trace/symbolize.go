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
	"debug/elf"
	"fmt"
	"sort"

	"github.com/ianlancetaylor/demangle"
)

// Symbol is one function of the traced binary.
type Symbol struct {
	Name  string
	Start uint64
	End   uint64
}

// SymTable maps PCs to the functions containing them.
type SymTable struct {
	syms []Symbol
}

// NewSymTable builds a table from the given symbols. Symbols without
// a size extend to the start of the next symbol.
func NewSymTable(syms []Symbol) *SymTable {
	sorted := make([]Symbol, len(syms))
	copy(sorted, syms)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := range sorted {
		if sorted[i].End <= sorted[i].Start {
			if i+1 < len(sorted) {
				sorted[i].End = sorted[i+1].Start
			} else {
				sorted[i].End = ^uint64(0)
			}
		}
	}
	return &SymTable{syms: sorted}
}

// LoadELFSymbols reads the function symbols of the given ELF binary,
// demangling C++ names. The bare-metal test binaries are statically
// linked, so symbol values are final addresses.
func LoadELFSymbols(path string) (*SymTable, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ELF %s: %v", path, err)
	}
	defer f.Close()

	elfSyms, err := f.Symbols()
	if err != nil {
		return nil, fmt.Errorf("read symbols of %s: %v", path, err)
	}

	var syms []Symbol
	for _, s := range elfSyms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Name == "" {
			continue
		}
		syms = append(syms, Symbol{
			Name:  demangle.Filter(s.Name),
			Start: s.Value,
			End:   s.Value + s.Size,
		})
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("no function symbols in %s", path)
	}
	return NewSymTable(syms), nil
}

// Lookup returns the name of the function containing pc, or "?" when
// no symbol covers it.
func (t *SymTable) Lookup(pc uint64) string {
	if t == nil {
		return "?"
	}
	i := sort.Search(len(t.syms), func(i int) bool { return t.syms[i].Start > pc })
	if i == 0 {
		return "?"
	}
	s := t.syms[i-1]
	if pc >= s.End {
		return "?"
	}
	return s.Name
}
