//  Copyright 2018 Google Inc. All Rights Reserved.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package driver

import (
	"flag"
)

// GoFlags implements the plugin.FlagSet interface on top of a standard
// flag.FlagSet, so each subcommand parses its own arguments.
type GoFlags struct {
	fs   *flag.FlagSet
	args []string
}

// NewGoFlags returns a flag set for the named subcommand over the
// given arguments.
func NewGoFlags(name string, args []string) *GoFlags {
	return &GoFlags{
		fs:   flag.NewFlagSet(name, flag.ExitOnError),
		args: args,
	}
}

// Bool implements the plugin.FlagSet interface.
func (f *GoFlags) Bool(o string, d bool, c string) *bool {
	return f.fs.Bool(o, d, c)
}

// Int implements the plugin.FlagSet interface.
func (f *GoFlags) Int(o string, d int, c string) *int {
	return f.fs.Int(o, d, c)
}

// String implements the plugin.FlagSet interface.
func (f *GoFlags) String(o, d, c string) *string {
	return f.fs.String(o, d, c)
}

// StringList implements the plugin.FlagSet interface.
func (f *GoFlags) StringList(name string, def []string, usage string) *[]string {
	s := new([]string)
	f.fs.Var(newStringList(def, s), name, usage)
	return s
}

// Parse implements the plugin.FlagSet interface.
func (f *GoFlags) Parse(usage func()) []string {
	f.fs.Usage = usage
	f.fs.Parse(f.args)
	return f.fs.Args()
}

type stringList []string

func newStringList(val []string, p *[]string) *stringList {
	*p = val
	return (*stringList)(p)
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func (s *stringList) String() string {
	return "unused"
}
