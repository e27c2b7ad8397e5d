// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ssaflow_test

import (
	"go/ast"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/awslabs/argot-flow/analysis/ssaflow"
	"github.com/awslabs/argot-flow/internal/analysistest"
	"golang.org/x/exp/slices"
)

func TestAnnotatedProgram(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(filename), "testdata", "src", "flow")
	prog, cfg := analysistest.LoadTest(t, dir, []string{})
	if !cfg.UsePathCompression() || cfg.NumRoutines != 2 {
		t.Fatalf("unexpected config %+v", cfg.Options)
	}

	var files []*ast.File
	for _, pkg := range prog.Packages {
		files = append(files, pkg.Syntax...)
	}
	fset := prog.Program.Fset
	live := analysistest.GetAnnotations(fset, files, "Live")
	loops := analysistest.GetAnnotations(fset, files, "Loops")
	cycles := analysistest.GetAnnotations(fset, files, "Cycles")

	funcs := ssaflow.Functions(prog, cfg)
	var names []string
	for _, fn := range funcs {
		names = append(names, fn.Name())
	}
	if !slices.Equal(names, []string{"choose", "first", "main", "nested", "sum"}) {
		t.Fatalf("unexpected functions %v", names)
	}

	checked := 0
	for _, res := range ssaflow.AnalyzeAll(funcs, cfg, nil) {
		if res.Err != nil {
			t.Fatalf("%s: %v", res.Function, res.Err)
		}
		pos := analysistest.FunctionPos(res.Function)
		expectedLive, ok := live[pos]
		if !ok {
			continue
		}
		checked++
		entryIn := res.Liveness.NodeLiveness(res.Graph.EntryPoint()).In()
		for _, p := range res.Function.Params {
			if entryIn.Contains(p) != slices.Contains(expectedLive, p.Name()) {
				t.Errorf("%s: unexpected liveness of %s at entry, live-in is %s", res.Function, p.Name(), entryIn)
			}
		}
		expectCount(t, res, "loops", loops[pos], len(res.Graph.Loops()))
		expectCount(t, res, "cycles", cycles[pos], len(res.Graph.Cycles()))
	}
	if checked != 4 {
		t.Errorf("expected 4 annotated functions, checked %d", checked)
	}
}

func expectCount(t *testing.T, res ssaflow.Result, what string, annotation []string, got int) {
	if len(annotation) != 1 {
		t.Errorf("%s: expected one %s annotation, got %v", res.Function, what, annotation)
		return
	}
	expected, err := strconv.Atoi(annotation[0])
	if err != nil {
		t.Fatalf("%s: invalid %s annotation %q", res.Function, what, annotation[0])
	}
	if got != expected {
		t.Errorf("%s: expected %d %s, got %d", res.Function, expected, what, got)
	}
}
