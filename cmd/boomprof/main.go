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

// boomprof is the profiling companion of the chisel-boom core: it
// merges per-run performance reports into a master report, extracts
// committed-PC traces, and drives batched regression runs.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/RayZh-hs/chisel-boom/internal/driver"
	"github.com/RayZh-hs/chisel-boom/internal/plugin"
	"github.com/RayZh-hs/chisel-boom/pkg/logutil"
)

const usage = `usage: boomprof <command> [flags]

Commands:
  merge   aggregate .profile reports into a master report (default)
  trace   extract a committed-PC trace from a log or simulator output
  bench   run regression batches and tabulate misprediction rates

Run "boomprof <command> -h" for command flags.`

func main() {
	logutil.InitLogger()
	defer logutil.GetLogger().Sync()

	cmd, args := "merge", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	opts := &plugin.Options{Flagset: driver.NewGoFlags(cmd, args)}

	var err error
	switch cmd {
	case "merge":
		err = driver.Merge(opts)
	case "trace":
		err = driver.Trace(opts)
	case "bench":
		err = driver.Bench(opts)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "boomprof: "+err.Error())
		os.Exit(1)
	}
}
