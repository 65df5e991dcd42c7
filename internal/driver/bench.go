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
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/RayZh-hs/chisel-boom/internal/batch"
	"github.com/RayZh-hs/chisel-boom/internal/plugin"
)

// Bench runs the batched regression suites through mill and prints the
// per-test misprediction rate table.
func Bench(eo *plugin.Options) error {
	o := setDefaults(eo)

	mill := o.Flagset.String("mill", "mill", "mill executable to invoke")
	runs := o.Flagset.StringList("run", nil,
		"batch as suite=test1,test2 (repeatable; default: the built-in regression set)")

	args := o.Flagset.Parse(func() {
		o.UI.PrintErr("usage: boomprof bench [-mill path] [-run suite=t1,t2]...")
	})
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	batches, err := parseBatches(*runs)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		batches = batch.DefaultBatches()
	}

	total := 0
	for _, b := range batches {
		total += len(b.Tests)
	}
	o.UI.Print(fmt.Sprintf("Starting performance analysis for %d tests...", total))
	o.UI.Print(strings.Repeat("=", 60))

	runner := batch.NewRunner(*mill, o.UI)
	results, err := runner.Run(context.Background(), batches)
	if err != nil {
		return err
	}

	batch.Summarize(os.Stdout, results)
	return nil
}

func parseBatches(defs []string) ([]batch.Batch, error) {
	var batches []batch.Batch
	for _, def := range defs {
		suite, tests, ok := strings.Cut(def, "=")
		if !ok || suite == "" || tests == "" {
			return nil, fmt.Errorf("malformed -run value %q, want suite=test1,test2", def)
		}
		b := batch.Batch{Suite: suite}
		for _, t := range strings.Split(tests, ",") {
			if t = strings.TrimSpace(t); t != "" {
				b.Tests = append(b.Tests, t)
			}
		}
		batches = append(batches, b)
	}
	return batches, nil
}
