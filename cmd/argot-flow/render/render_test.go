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

package render

import (
	"go/types"
	"strings"
	"testing"

	"github.com/awslabs/argot-flow/analysis/config"
	"github.com/awslabs/argot-flow/analysis/ssaflow"
	"github.com/awslabs/argot-flow/internal/analysistest"
)

const source = `package p

type S struct{}

func (s *S) max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
`

func TestGraphs(t *testing.T) {
	pkg := analysistest.BuildSource(t, source).Package
	fn := pkg.Prog.LookupMethod(types.NewPointer(pkg.Type("S").Type()), pkg.Pkg, "max")
	res := ssaflow.AnalyzeFunction(fn, config.NewDefault(), nil)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	for _, kind := range AllGraphs {
		b, err := Graph(res, kind)
		if err != nil {
			t.Fatalf("could not render %s: %v", kind, err)
		}
		out := string(b)
		if kind == GraphInterference {
			if !strings.HasPrefix(out, "strict graph max {") && !strings.HasPrefix(out, "graph max {") {
				t.Errorf("expected an undirected graph, got:\n%s", out)
			}
		} else if !strings.Contains(out, "digraph max {") {
			t.Errorf("expected a directed graph for %s, got:\n%s", kind, out)
		}
	}
	if _, err := Graph(res, "callgraph"); err == nil {
		t.Errorf("expected an error for an unknown graph")
	}
	if name := FileName(fn, GraphCFG); name != "_p.S_.max.cfg.dot" {
		t.Errorf("unexpected file name %q", name)
	}
}

func TestNewFlags(t *testing.T) {
	flags, err := NewFlags([]string{"-func", "max", "-graphs", "cfg,interference", "./..."})
	if err != nil {
		t.Fatal(err)
	}
	if flags.function != "max" || len(flags.graphs) != 2 || flags.graphs[1] != GraphInterference {
		t.Errorf("unexpected flags %+v", flags)
	}
	if _, err := NewFlags([]string{"-graphs", "cfg,callgraph"}); err == nil {
		t.Errorf("expected an error for an unknown graph")
	}
}
