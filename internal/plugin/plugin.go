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

// Package plugin defines the plugin implementations that the main
// driver requires, so callers (and tests) can substitute their own file
// output and operator channel.
package plugin

import (
	"io"
)

// Options groups the optional plugin implementations of the driver.
type Options struct {
	Writer  Writer
	Flagset FlagSet
	UI      UI
}

// Writer provides a mechanism to write data under a certain path.
type Writer interface {
	Open(name string) (io.WriteCloser, error)
}

// A FlagSet creates and parses command-line flags. It is similar to
// the standard flag.FlagSet.
type FlagSet interface {
	// Bool, Int, and String define new flags, like the functions of
	// the same name in package flag.
	Bool(name string, def bool, usage string) *bool
	Int(name string, def int, usage string) *int
	String(name string, def string, usage string) *string

	// StringList is similar to String but allows multiple values for
	// a single flag.
	StringList(name string, def []string, usage string) *[]string

	// Parse initializes the flags with their values for this run and
	// returns the non-flag command line arguments. If an unknown flag
	// is encountered, Parse should call usage and return nil.
	Parse(usage func()) []string
}

// A UI manages user interactions. Regular output (the rendered master
// report, trace lines) goes to stdout through Print; diagnostics go to
// stderr through PrintErr.
type UI interface {
	// Print shows a message to the user, on the default output
	// channel.
	Print(args ...interface{})

	// PrintErr shows an error message to the user.
	PrintErr(args ...interface{})

	// IsTerminal returns whether the UI is known to be tied to an
	// interactive terminal (as opposed to being redirected to a file).
	IsTerminal() bool
}
