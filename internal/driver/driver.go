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

// Package driver implements the master-profile aggregation command. It
// can be parameterized with a flag implementation, an output writer
// and an operator UI.
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/RayZh-hs/chisel-boom/internal/plugin"
	"github.com/RayZh-hs/chisel-boom/internal/report"
	"github.com/RayZh-hs/chisel-boom/pkg/logutil"
	"github.com/RayZh-hs/chisel-boom/profile"
)

const profileSuffix = ".profile"

// Merge discovers the per-run reports of the configured directory,
// folds them into one aggregate, and writes the rendered master report
// both to the UI and to a file inside the same directory. It merges
// every report it is able to read, even if there are some failures,
// and returns an error only when configuration is unusable or no
// report could be read at all.
func Merge(eo *plugin.Options) error {
	o := setDefaults(eo)

	cfg, err := parseFlags(o)
	if err != nil {
		return err
	}
	headers, err := cfg.headerTable()
	if err != nil {
		return err
	}

	files, err := discover(cfg.Dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		o.UI.Print("No profile files found.")
		return nil
	}
	o.UI.Print("Merging data from: ", strings.Join(files, ", "))

	agg, err := fold(cfg, files, headers, o.UI)
	if err != nil {
		return err
	}

	rpt := report.New(agg, &report.Options{Title: cfg.Title})
	text := rpt.String()
	o.UI.Print(text)

	outPath := filepath.Join(cfg.Dir, cfg.Output)
	f, err := o.Writer.Open(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %v", outPath, err)
	}
	if _, err := f.Write([]byte(text)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %v", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %v", outPath, err)
	}
	logutil.GetLogger().Info("master report written",
		zap.String("path", outPath), zap.Int("reports", len(files)))
	o.UI.Print("\nSaved to ", outPath)
	return nil
}

func parseFlags(o *plugin.Options) (Config, error) {
	flagDir := o.Flagset.String("dir", "", "directory containing .profile reports")
	flagOut := o.Flagset.String("out", "", "master report filename, created inside the report directory")
	flagTitle := o.Flagset.String("title", "", "report title")
	flagParallel := o.Flagset.Bool("parallel", false, "aggregate input files concurrently")
	flagConfig := o.Flagset.String("config", "", "YAML file with directory, output and header-table settings")

	args := o.Flagset.Parse(func() {
		o.UI.PrintErr("usage: boomprof merge [-dir profiling] [-out Master.profile] [-parallel] [-config file.yaml]")
	})
	if len(args) > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", args)
	}

	cfg := defaultConfig()
	if *flagConfig != "" {
		var err error
		if cfg, err = loadConfig(*flagConfig); err != nil {
			return Config{}, err
		}
	}
	if *flagDir != "" {
		cfg.Dir = *flagDir
	}
	if *flagOut != "" {
		cfg.Output = *flagOut
	}
	if *flagTitle != "" {
		cfg.Title = *flagTitle
	}
	if *flagParallel {
		cfg.Parallel = true
	}
	return cfg, nil
}

// discover lists the eligible report files of dir in a stable order.
// Files whose name contains "master" (case-insensitive) are the output
// of previous runs and are excluded, so re-running is idempotent at
// the file-selection level. A missing directory is a configuration
// error: nothing is processed.
func discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("profiling directory not found: %s", dir)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, profileSuffix) {
			continue
		}
		if strings.Contains(strings.ToLower(name), "master") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// fold parses every file and accumulates it, sequentially or in
// parallel. Unreadable files are reported and skipped; the fold fails
// only when no file could be read.
func fold(cfg Config, files []string, headers map[string]profile.Section, ui plugin.UI) (*profile.Aggregate, error) {
	if cfg.Parallel {
		return foldParallel(cfg, files, headers, ui)
	}

	agg := profile.NewAggregate()
	var errs error
	ok := 0
	for _, name := range files {
		rep, err := parseFile(filepath.Join(cfg.Dir, name), headers)
		if err != nil {
			ui.PrintErr(name + ": " + err.Error())
			logutil.GetLogger().Warn("skipping report", zap.String("file", name), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		agg.Absorb(rep)
		ok++
	}
	return finishFold(agg, ok, len(files), errs, ui)
}

// foldParallel builds one partial aggregate per input file
// concurrently. The partials are merged in discovery order, so label
// order matches the sequential fold. The numeric totals match in any
// case: the fold is commutative and associative.
func foldParallel(cfg Config, files []string, headers map[string]profile.Section, ui plugin.UI) (*profile.Aggregate, error) {
	wg := sync.WaitGroup{}
	partials := make([]*profile.Aggregate, len(files))
	errs := make([]error, len(files))
	for i, name := range files {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			rep, err := parseFile(filepath.Join(cfg.Dir, name), headers)
			if err != nil {
				errs[i] = err
				return
			}
			partials[i] = profile.NewAggregate()
			partials[i].Absorb(rep)
		}(i, name)
	}
	wg.Wait()

	var combined error
	ok := 0
	for i, name := range files {
		if errs[i] != nil {
			ui.PrintErr(name + ": " + errs[i].Error())
			logutil.GetLogger().Warn("skipping report", zap.String("file", name), zap.Error(errs[i]))
			combined = multierr.Append(combined, errs[i])
			continue
		}
		ok++
	}
	return finishFold(profile.Merge(partials), ok, len(files), combined, ui)
}

func finishFold(agg *profile.Aggregate, ok, total int, errs error, ui plugin.UI) (*profile.Aggregate, error) {
	if ok == 0 {
		return nil, fmt.Errorf("failed to read any profiles: %v", errs)
	}
	if ok < total {
		ui.PrintErr(fmt.Sprintf("merged %d profiles out of %d", ok, total))
	}
	return agg, nil
}

func parseFile(path string, headers map[string]profile.Section) (*profile.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return profile.NewParserWithHeaders(headers).Parse(f)
}
