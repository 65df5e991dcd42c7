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
	"reflect"
	"testing"
)

func TestGoFlagsParse(t *testing.T) {
	f := NewGoFlags("merge", []string{"-dir", "runs", "-parallel", "extra"})
	dir := f.String("dir", "profiling", "")
	parallel := f.Bool("parallel", false, "")
	out := f.String("out", "Master.profile", "")

	args := f.Parse(func() {})
	if *dir != "runs" || !*parallel || *out != "Master.profile" {
		t.Errorf("parsed dir=%q parallel=%v out=%q", *dir, *parallel, *out)
	}
	if !reflect.DeepEqual(args, []string{"extra"}) {
		t.Errorf("args = %v, want [extra]", args)
	}
}

func TestGoFlagsStringList(t *testing.T) {
	f := NewGoFlags("bench", []string{"-run", "a=x", "-run", "b=y,z"})
	runs := f.StringList("run", nil, "")
	f.Parse(func() {})

	want := []string{"a=x", "b=y,z"}
	if !reflect.DeepEqual(*runs, want) {
		t.Errorf("runs = %v, want %v", *runs, want)
	}
}

func TestStringListSet(t *testing.T) {
	var sl []string
	l := newStringList([]string{"seed"}, &sl)
	if err := l.Set("next"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sl, []string{"seed", "next"}) {
		t.Errorf("list = %v", sl)
	}
}
