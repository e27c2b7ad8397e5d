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

package interference

import (
	"errors"
	"fmt"
	"testing"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"github.com/awslabs/argot-flow/analysis/liveness"
	"github.com/awslabs/argot-flow/internal/flowtest"
	"github.com/awslabs/argot-flow/internal/graphutil"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/topo"
)

func buildFrom(t *testing.T, p *flowtest.Program) (*liveness.Analysis[*flowtest.Instruction], *Graph) {
	a, err := liveness.NewAnalyzer[*flowtest.Instruction](flowtest.Architecture{}).AnalyzeGraph(p.Graph)
	if err != nil {
		t.Fatalf("liveness failed: %v", err)
	}
	g, err := FromLiveness(a)
	if err != nil {
		t.Fatalf("failed to build interference graph: %v", err)
	}
	checkSymmetric(t, g)
	return a, g
}

func checkSymmetric(t *testing.T, g *Graph) {
	t.Helper()
	for _, a := range g.Nodes() {
		if a.Graph() != g {
			t.Errorf("%v does not belong to its graph", a)
		}
		for _, b := range a.Interference() {
			if !slices.Contains(b.Interference(), a) {
				t.Errorf("%v interferes with %v but not the other way", a, b)
			}
			if a == b {
				t.Errorf("%v interferes with itself", a)
			}
		}
	}
}

func names(nodes []*Node) []string {
	res := make([]string, len(nodes))
	for i, n := range nodes {
		res[i] = n.String()
	}
	return res
}

func mustNode(t *testing.T, g *Graph, v flowgraph.Variable) *Node {
	t.Helper()
	n, ok := g.Node(v)
	if !ok {
		t.Fatalf("no node for %s", v.Name())
	}
	return n
}

func TestTwoVariablesInterfering(t *testing.T) {
	p := flowtest.NewProgram()
	p.MustBlock(0, "push; set v1; push; set v2; get v1; get v2; push; set v3; get v3; ret")
	_, g := buildFrom(t, p)
	if g.Len() != 3 || g.EdgeCount() != 1 {
		t.Fatalf("expected 3 nodes and 1 edge, got %d nodes and %d edges", g.Len(), g.EdgeCount())
	}
	v1 := mustNode(t, g, p.Var("v1"))
	v2 := mustNode(t, g, p.Var("v2"))
	v3 := mustNode(t, g, p.Var("v3"))
	if !v1.Interferes(v2) || !v2.Interferes(v1) {
		t.Errorf("expected v1 and v2 to interfere")
	}
	if v3.Degree() != 0 {
		t.Errorf("v3 should not interfere, got %v", names(v3.Interference()))
	}

	u, err := graphutil.NewUndirected(g)
	if err != nil {
		t.Fatal(err)
	}
	components := topo.ConnectedComponents(u)
	var sizes []int
	for _, c := range components {
		sizes = append(sizes, len(c))
	}
	slices.Sort(sizes)
	if !slices.Equal(sizes, []int{1, 2}) {
		t.Errorf("unexpected components: %v", components)
	}
}

func TestDiamond(t *testing.T) {
	diamond := func(left, right, exit string) *flowtest.Program {
		p := flowtest.NewProgram()
		p.MustBlock(0, "brif")
		p.MustBlock(1, left)
		p.MustBlock(2, right)
		p.MustBlock(3, exit)
		p.MustConnect(0, 1, flowgraph.FallThrough)
		p.MustConnect(0, 2, flowgraph.Conditional)
		p.MustConnect(1, 3, flowgraph.FallThrough)
		p.MustConnect(2, 3, flowgraph.FallThrough)
		return p
	}

	t.Run("join reads both", func(t *testing.T) {
		p := diamond("set v1", "set v2", "get v1; get v2; ret")
		a, g := buildFrom(t, p)
		out := a.NodeLiveness(p.Graph.EntryPoint()).Out()
		if !out.Equal(p.Vars("v1", "v2")) {
			t.Errorf("expected both variables live out of the entry, got %s", out)
		}
		// each branch writes its variable while the other one is live
		if !mustNode(t, g, p.Var("v1")).Interferes(mustNode(t, g, p.Var("v2"))) {
			t.Errorf("expected v1 and v2 to interfere")
		}
	})

	t.Run("branches consume their variable", func(t *testing.T) {
		p := diamond("set v1; get v1", "set v2; get v2", "ret")
		a, g := buildFrom(t, p)
		if out := a.NodeLiveness(p.Graph.EntryPoint()).Out(); !out.IsEmpty() {
			t.Errorf("expected nothing live out of the entry, got %s", out)
		}
		if g.Len() != 2 || g.EdgeCount() != 0 {
			t.Errorf("expected no interference, got %d edges", g.EdgeCount())
		}
	})

	t.Run("join reads without writes", func(t *testing.T) {
		p := diamond("get v1", "get v2", "get v1; get v2; ret")
		a, g := buildFrom(t, p)
		out := a.NodeLiveness(p.Graph.EntryPoint()).Out()
		if !out.Equal(p.Vars("v1", "v2")) {
			t.Errorf("expected both variables live out of the entry, got %s", out)
		}
		if g.EdgeCount() != 0 {
			t.Errorf("expected no interference, got %d edges", g.EdgeCount())
		}
	})
}

func TestCopyInterferes(t *testing.T) {
	p := flowtest.NewProgram()
	p.MustBlock(0, "set y; mov x y; get x; get y; ret")
	_, g := buildFrom(t, p)
	if !mustNode(t, g, p.Var("x")).Interferes(mustNode(t, g, p.Var("y"))) {
		t.Errorf("a copy whose source stays live must interfere")
	}
}

func TestAddErrors(t *testing.T) {
	p := flowtest.NewProgram()
	g := NewGraph()
	a, err := g.AddVariable(p.Var("a"))
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() != 0 || a.Graph() != g || a.Variable() != p.Var("a") {
		t.Errorf("unexpected node state: id %d", a.ID())
	}
	if err := g.Add(a); !errors.Is(err, ErrNodeOwned) {
		t.Errorf("expected ErrNodeOwned, got %v", err)
	}
	other := NewGraph()
	if err := other.Add(a); !errors.Is(err, ErrNodeOwned) || other.Len() != 0 {
		t.Errorf("expected ErrNodeOwned, got %v", err)
	}
	if _, err := g.AddVariable(p.Var("a")); !errors.Is(err, ErrDuplicateVariable) {
		t.Errorf("expected ErrDuplicateVariable, got %v", err)
	}
	if g.Len() != 1 {
		t.Errorf("failed additions must not change the graph")
	}

	loose := NewNode(p.Var("b"))
	if loose.ID() != -1 || loose.Graph() != nil {
		t.Errorf("a new node belongs to no graph")
	}
	if err := a.AddInterference(loose); !errors.Is(err, ErrNotInGraph) {
		t.Errorf("expected ErrNotInGraph, got %v", err)
	}
	if err := loose.AddInterference(a); !errors.Is(err, ErrNotInGraph) {
		t.Errorf("expected ErrNotInGraph, got %v", err)
	}
	if a.Degree() != 0 || loose.Degree() != 0 {
		t.Errorf("failed interference must not be recorded on either side")
	}
	foreign, err := other.AddVariable(p.Var("c"))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.AddInterference(foreign); !errors.Is(err, ErrForeignNode) {
		t.Errorf("expected ErrForeignNode, got %v", err)
	}
	if a.Degree() != 0 || foreign.Degree() != 0 {
		t.Errorf("failed interference must not be recorded on either side")
	}
	if err := a.AddInterference(a); err != nil || a.Degree() != 0 {
		t.Errorf("self interference must be a no-op, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	p := flowtest.NewProgram()
	g := NewGraph()
	var nodes []*Node
	for i := 0; i < 4; i++ {
		n, err := g.AddVariable(p.Var(fmt.Sprintf("v%d", i)))
		if err != nil {
			t.Fatal(err)
		}
		nodes = append(nodes, n)
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if err := nodes[i].AddInterference(nodes[j]); err != nil {
				t.Fatal(err)
			}
		}
	}
	if g.EdgeCount() != 6 || nodes[0].Degree() != 3 {
		t.Fatalf("expected a complete graph")
	}
	if !nodes[0].RemoveInterference(nodes[1]) || nodes[1].Interferes(nodes[0]) {
		t.Errorf("RemoveInterference must update both nodes")
	}
	if nodes[0].RemoveInterference(nodes[1]) {
		t.Errorf("removing a missing interference returns false")
	}

	if !g.Remove(nodes[2]) {
		t.Fatalf("expected node to be removed")
	}
	for _, n := range g.Nodes() {
		if n.Interferes(nodes[2]) || slices.Contains(n.Interference(), nodes[2]) {
			t.Errorf("%v still interferes with a removed node", n)
		}
	}
	checkSymmetric(t, g)
	if g.Len() != 3 || g.EdgeCount() != 2 || nodes[2].Graph() != nil || nodes[2].Degree() != 0 {
		t.Errorf("unexpected state after removal: %d nodes, %d edges", g.Len(), g.EdgeCount())
	}
	if _, ok := g.Node(p.Var("v2")); ok {
		t.Errorf("removed variable still in the graph")
	}
	if g.Remove(nodes[2]) {
		t.Errorf("removing a node twice returns false")
	}
	if err := g.Add(nodes[2]); err != nil {
		t.Errorf("a removed node can be added again: %v", err)
	}
	if got := names(g.Nodes()); !slices.Equal(got, []string{"v0", "v1", "v3", "v2"}) {
		t.Errorf("unexpected node order %v", got)
	}
}

func TestRandomPrograms(t *testing.T) {
	arch := flowtest.Architecture{}
	for seed := int64(0); seed < 30; seed++ {
		p := flowtest.RandomProgram(25, 6, seed)
		a, g := buildFrom(t, p)
		if g.Len() != a.Variables().Len() {
			t.Errorf("seed %d: expected one node per variable", seed)
		}
		expected := map[[2]string]bool{}
		for _, instr := range p.Instructions() {
			for _, x := range flowgraph.WrittenSet[*flowtest.Instruction](arch, instr).Names() {
				for _, y := range a.Get(instr).Out().Names() {
					if x < y {
						expected[[2]string{x, y}] = true
					} else if y < x {
						expected[[2]string{y, x}] = true
					}
				}
			}
		}
		if g.EdgeCount() != len(expected) {
			t.Errorf("seed %d: expected %d edges, got %d", seed, len(expected), g.EdgeCount())
		}
		for pair := range expected {
			if !mustNode(t, g, p.Var(pair[0])).Interferes(mustNode(t, g, p.Var(pair[1]))) {
				t.Errorf("seed %d: expected %s and %s to interfere", seed, pair[0], pair[1])
			}
		}
	}
}
