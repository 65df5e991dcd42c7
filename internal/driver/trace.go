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

package driver

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/RayZh-hs/chisel-boom/internal/plugin"
	"github.com/RayZh-hs/chisel-boom/internal/trace"
	"github.com/RayZh-hs/chisel-boom/pkg/logutil"
)

// Trace extracts a committed-PC trace from a core commit log or an
// instruction-set-simulator trace, optionally annotating PCs with
// function names from an ELF binary. Input is the single positional
// argument, or stdin when absent.
func Trace(eo *plugin.Options) error {
	o := setDefaults(eo)

	format := o.Flagset.String("format", "log", `input format: "log" (core commit log) or "iss" (simulator instruction trace)`)
	output := o.Flagset.String("o", "", "output file for the trace (default: stdout)")
	elfPath := o.Flagset.String("elf", "", "annotate PCs with function names from this ELF binary")

	args := o.Flagset.Parse(func() {
		o.UI.PrintErr("usage: boomprof trace [-format log|iss] [-elf binary] [-o out] [input-file]")
	})
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments: %v", args[1:])
	}

	var in io.ReadCloser = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		in = f
	}
	defer in.Close()

	var pcs []uint64
	var err error
	switch *format {
	case "log":
		pcs, err = trace.FromCommitLog(in)
	case "iss":
		pcs, err = trace.FromISS(in)
	default:
		return fmt.Errorf("unknown trace format %q", *format)
	}
	if err != nil {
		return err
	}
	if len(pcs) == 0 {
		o.UI.PrintErr("Warning: no PCs found in trace input")
	}

	var syms *trace.SymTable
	if *elfPath != "" {
		syms, err = trace.LoadELFSymbols(*elfPath)
		if err != nil {
			// Annotation is best effort: keep the raw trace usable.
			o.UI.PrintErr(err.Error())
			logutil.GetLogger().Warn("symbolization unavailable", zap.Error(err))
			syms = nil
		}
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := o.Writer.Open(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if syms != nil {
		err = trace.Annotate(w, pcs, syms)
	} else {
		err = trace.WriteTrace(w, pcs)
	}
	if err != nil {
		return err
	}
	if *output != "" {
		o.UI.PrintErr(fmt.Sprintf("Trace written to %s (%d PCs)", *output, len(pcs)))
	}
	return nil
}
