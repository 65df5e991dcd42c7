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
	"os"

	"gopkg.in/yaml.v3"

	"github.com/RayZh-hs/chisel-boom/profile"
)

// Config is the merge driver configuration. A YAML file can override
// any field, including the section header table, so the aggregation
// math survives drift in the upstream report format.
type Config struct {
	// Dir is the directory scanned for .profile reports.
	Dir string `yaml:"dir"`

	// Output is the master report filename, created inside Dir.
	Output string `yaml:"output"`

	// Title overrides the report heading.
	Title string `yaml:"title"`

	// Parallel folds one partial aggregate per input file
	// concurrently and merges them in discovery order.
	Parallel bool `yaml:"parallel"`

	// Headers maps literal header prefixes to section names (branch,
	// ipc, rollback, util, queue, spec). Empty means the built-in
	// table.
	Headers map[string]string `yaml:"headers"`
}

func defaultConfig() Config {
	return Config{
		Dir:    "profiling",
		Output: "Master.profile",
	}
}

// loadConfig reads a YAML config file over the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %v", path, err)
	}
	return cfg, nil
}

var sectionNames = map[string]profile.Section{
	"branch":   profile.SectionBranch,
	"ipc":      profile.SectionIPC,
	"rollback": profile.SectionRollback,
	"util":     profile.SectionUtil,
	"queue":    profile.SectionQueue,
	"spec":     profile.SectionSpec,
}

// headerTable converts the configured header map into the parser's
// table, or returns the default table when none is configured.
func (c *Config) headerTable() (map[string]profile.Section, error) {
	if len(c.Headers) == 0 {
		return profile.DefaultHeaders, nil
	}
	table := make(map[string]profile.Section, len(c.Headers))
	for prefix, name := range c.Headers {
		sec, ok := sectionNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown section %q for header %q", name, prefix)
		}
		table[prefix] = sec
	}
	return table, nil
}
