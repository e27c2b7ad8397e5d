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

package analysistest

import (
	"go/ast"
	"testing"

	"golang.org/x/exp/slices"
)

const annotated = `package p

// @Live(a, b) @Loops(0)
func f(a, b int) int { return a + b }

// @Live() @Loops(1)
func g() {
	for {
	}
}
`

func TestGetAnnotations(t *testing.T) {
	src := BuildSource(t, annotated)
	live := GetAnnotations(src.Fset, []*ast.File{src.File}, "Live")
	loops := GetAnnotations(src.Fset, []*ast.File{src.File}, "Loops")
	f := FunctionPos(src.Package.Func("f"))
	g := FunctionPos(src.Package.Func("g"))
	if !slices.Equal(live[f], []string{"a", "b"}) {
		t.Errorf("expected a and b live in f, got %v", live[f])
	}
	if args, ok := live[g]; !ok || len(args) != 0 {
		t.Errorf("expected an empty annotation on g, got %v", args)
	}
	if !slices.Equal(loops[g], []string{"1"}) || !slices.Equal(loops[f], []string{"0"}) {
		t.Errorf("unexpected loops annotations %v", loops)
	}
	if f.String() != "p.go:4" {
		t.Errorf("unexpected position of f: %s", f)
	}
}
