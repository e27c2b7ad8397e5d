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

package dominance_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/awslabs/argot-flow/analysis/dominance"
	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"github.com/awslabs/argot-flow/internal/flowtest"
	"github.com/awslabs/argot-flow/internal/graphutil"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/flow"
)

type node = flowgraph.Node[*flowtest.Instruction]
type tree = dominance.Tree[*flowtest.Instruction]

// programOf builds a program with one empty block per key of edges. The first edge of each node is a
// fall-through edge, the others are conditional edges. Node 0 is the entrypoint.
func programOf(size int, edges map[int][]int) *flowtest.Program {
	p := flowtest.NewProgram()
	for i := 0; i < size; i++ {
		p.MustBlock(int64(i), "")
	}
	for i := 0; i < size; i++ {
		for j, succ := range edges[i] {
			kind := flowgraph.Conditional
			if j == 0 {
				kind = flowgraph.FallThrough
			}
			p.MustConnect(int64(i), int64(succ), kind)
		}
	}
	return p
}

func mustNode(t *testing.T, p *flowtest.Program, id int64) *node {
	n, ok := p.Graph.Node(id)
	if !ok {
		t.Fatalf("no node %d", id)
	}
	return n
}

func idsOf(nodes []*node) []int64 {
	res := make([]int64, len(nodes))
	for i, n := range nodes {
		res[i] = n.ID()
	}
	return res
}

func buildBoth(t *testing.T, p *flowtest.Program) []*tree {
	simple, err := dominance.Build(p.Graph)
	if err != nil {
		t.Fatalf("failed to build dominator tree: %v", err)
	}
	compressed, err := dominance.BuildWithPathCompression(p.Graph)
	if err != nil {
		t.Fatalf("failed to build dominator tree: %v", err)
	}
	return []*tree{simple, compressed}
}

func TestBuildWithoutEntryPoint(t *testing.T) {
	g := flowgraph.NewGraph[*flowtest.Instruction]()
	if _, err := g.AddNode(0); err != nil {
		t.Fatal(err)
	}
	if _, err := dominance.Build(g); !errors.Is(err, dominance.ErrNoEntryPoint) {
		t.Errorf("expected ErrNoEntryPoint, got %v", err)
	}
	if _, err := dominance.BuildWithPathCompression(g); !errors.Is(err, dominance.ErrNoEntryPoint) {
		t.Errorf("expected ErrNoEntryPoint, got %v", err)
	}
}

// The example graph of Lengauer and Tarjan's paper, with R=0, A=1, ... L=12
func TestLengauerTarjanExample(t *testing.T) {
	p := programOf(13, map[int][]int{
		0:  {1, 2, 3},
		1:  {4},
		2:  {1, 4, 5},
		3:  {6, 7},
		4:  {12},
		5:  {8},
		6:  {9},
		7:  {9, 10},
		8:  {5, 11},
		9:  {11},
		10: {9},
		11: {9, 0},
		12: {8},
	})
	expected := map[int64]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0, 6: 3, 7: 3, 8: 0, 9: 0, 10: 7, 11: 0, 12: 4}
	for _, tr := range buildBoth(t, p) {
		if tr.Len() != 13 {
			t.Fatalf("expected 13 nodes in the tree, got %d", tr.Len())
		}
		if tr.Root().Original() != p.Graph.EntryPoint() || tr.Root().Parent() != nil {
			t.Errorf("root must be the entrypoint")
		}
		for id, idom := range expected {
			n := mustNode(t, p, id)
			if got := tr.ImmediateDominator(n); got == nil || got.ID() != idom {
				t.Errorf("idom(%d): expected %d, got %v", id, idom, got)
			}
		}
		if tr.ImmediateDominator(p.Graph.EntryPoint()) != nil {
			t.Errorf("entrypoint has no immediate dominator")
		}
		c := mustNode(t, p, 3)
		got := idsOf(tr.DominatedNodes(c))
		if got[0] != 3 {
			t.Errorf("DominatedNodes must start with the node itself, got %v", got)
		}
		slices.Sort(got)
		if !slices.Equal(got, []int64{3, 6, 7, 10}) {
			t.Errorf("unexpected nodes dominated by 3: %v", got)
		}
	}
}

func TestUnreachableNodes(t *testing.T) {
	p := programOf(4, map[int][]int{
		0: {1},
		1: {2},
		3: {2}, // 3 is unreachable
	})
	tr, err := dominance.Build(p.Graph)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Len() != 3 {
		t.Errorf("expected unreachable node to be left out, got %d nodes", tr.Len())
	}
	n2 := mustNode(t, p, 2)
	if idom := tr.ImmediateDominator(n2); idom.ID() != 1 {
		t.Errorf("unreachable predecessor must not change dominators, got idom %v", idom)
	}
	if df := tr.DominanceFrontier(mustNode(t, p, 1)); len(df) != 0 {
		t.Errorf("unexpected frontier %v", df)
	}
	n3 := mustNode(t, p, 3)
	if _, ok := tr.Node(n3); ok {
		t.Errorf("unreachable node in tree")
	}
	defer func() {
		if recover() == nil {
			t.Errorf("expected querying an unreachable node to panic")
		}
	}()
	tr.Dominates(n3, n2)
}

func TestDominanceFrontiers(t *testing.T) {
	// 0 -> 1 -> 2 -> 1, 2 -> 3 -> 5, 0 -> 4 -> 5
	p := programOf(6, map[int][]int{
		0: {1, 4},
		1: {2},
		2: {3, 1},
		3: {5},
		4: {5},
	})
	expected := map[int64][]int64{
		0: {},
		1: {1, 5},
		2: {1, 5},
		3: {5},
		4: {5},
		5: {},
	}
	for _, tr := range buildBoth(t, p) {
		for id, df := range expected {
			got := idsOf(tr.DominanceFrontier(mustNode(t, p, id)))
			if !slices.Equal(got, df) {
				t.Errorf("DF(%d): expected %v, got %v", id, df, got)
			}
		}
		idf := idsOf(tr.IteratedDominanceFrontier([]*node{mustNode(t, p, 3)}))
		if !slices.Equal(idf, []int64{5}) {
			t.Errorf("unexpected iterated frontier %v", idf)
		}
		idf = idsOf(tr.IteratedDominanceFrontier([]*node{mustNode(t, p, 2), mustNode(t, p, 4)}))
		if !slices.Equal(idf, []int64{1, 5}) {
			t.Errorf("unexpected iterated frontier %v", idf)
		}
	}
}

func TestEntryPointInItsFrontier(t *testing.T) {
	p := programOf(3, map[int][]int{
		0: {1},
		1: {2, 0},
		2: {0},
	})
	tr, err := dominance.Build(p.Graph)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []int64{0, 1, 2} {
		if got := idsOf(tr.DominanceFrontier(mustNode(t, p, id))); !slices.Equal(got, []int64{0}) {
			t.Errorf("DF(%d): expected [0], got %v", id, got)
		}
	}
}

func TestFrontierConcurrentFirstAccess(t *testing.T) {
	p := flowtest.RandomProgram(60, 4, 42)
	tr, err := dominance.Build(p.Graph)
	if err != nil {
		t.Fatal(err)
	}
	nodes := tr.Nodes()
	results := make([][]string, 8)
	wg := sync.WaitGroup{}
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for _, n := range nodes {
				results[i] = append(results[i], fmt.Sprint(idsOf(tr.DominanceFrontier(n.Original()))))
			}
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		if !slices.Equal(results[0], results[i]) {
			t.Fatalf("concurrent readers observed different frontiers")
		}
	}
}

// checkTree checks the properties of a dominator tree against a brute-force definition and gonum's dominators
func checkTree(t *testing.T, p *flowtest.Program, tr *tree) {
	reachable := p.Graph.Reachable()
	if tr.Len() != len(reachable) {
		t.Fatalf("tree has %d nodes, expected %d", tr.Len(), len(reachable))
	}
	entry := p.Graph.EntryPoint()
	snapshot := p.Graph.Snapshot()
	oracle := flow.Dominators(snapshot.Node(entry.ID()), snapshot)
	for _, n := range reachable {
		if !tr.Dominates(entry, n) {
			t.Errorf("entry does not dominate %v", n)
		}
		idom := tr.ImmediateDominator(n)
		expected := oracle.DominatorOf(n.ID())
		if (idom == nil) != (expected == nil) || (idom != nil && idom.ID() != expected.ID()) {
			t.Errorf("idom(%v) = %v, expected %v", n, idom, expected)
		}
		for _, m := range reachable {
			if n != m && tr.Dominates(n, m) && tr.Dominates(m, n) {
				t.Errorf("%v and %v dominate each other", n, m)
			}
		}
		dominated := idsOf(tr.DominatedNodes(n))
		var expectedDominated []int64
		for _, m := range reachable {
			if tr.Dominates(n, m) {
				expectedDominated = append(expectedDominated, m.ID())
			}
		}
		slices.Sort(dominated)
		slices.Sort(expectedDominated)
		if !slices.Equal(dominated, expectedDominated) {
			t.Errorf("DominatedNodes(%v) = %v, expected %v", n, dominated, expectedDominated)
		}
		// frontier by definition, for join nodes: n dominates a predecessor of m but does not strictly dominate m
		var expectedFrontier []int64
		for _, m := range reachable {
			if len(m.Preds()) < 2 {
				continue
			}
			for _, pred := range m.Preds() {
				if _, ok := tr.Node(pred); ok && tr.Dominates(n, pred) && !tr.StrictlyDominates(n, m) {
					expectedFrontier = append(expectedFrontier, m.ID())
					break
				}
			}
		}
		slices.Sort(expectedFrontier)
		if got := idsOf(tr.DominanceFrontier(n)); !slices.Equal(got, expectedFrontier) {
			t.Errorf("DF(%v) = %v, expected %v", n, got, expectedFrontier)
		}
	}
}

func TestRandomGraphs(t *testing.T) {
	for i := 0; i < 50; i++ {
		p := flowtest.RandomProgram(20, 3, 98765+int64(i))
		trees := buildBoth(t, p)
		for _, tr := range trees {
			checkTree(t, p, tr)
		}
		for _, n := range trees[0].Nodes() {
			a := trees[0].ImmediateDominator(n.Original())
			b := trees[1].ImmediateDominator(n.Original())
			if a != b {
				t.Fatalf("seed %d: path compression changed idom(%v): %v != %v", i, n, a, b)
			}
		}
	}
	for i := 0; i < 5; i++ {
		p := flowtest.RandomProgram(200, 3, 1234+int64(i))
		for _, tr := range buildBoth(t, p) {
			checkTree(t, p, tr)
		}
	}
}

func TestTreeGraphContract(t *testing.T) {
	p := programOf(4, map[int][]int{
		0: {1, 2},
		1: {3},
		2: {3},
	})
	tr, err := dominance.Build(p.Graph)
	if err != nil {
		t.Fatal(err)
	}
	d, err := graphutil.NewDirected(tr)
	if err != nil {
		t.Fatal(err)
	}
	// the tree has the same nodes as the reachable graph, and one edge per non-root node
	edges := 0
	for _, targets := range d.Edges {
		edges += len(targets)
	}
	if d.Order() != 4 || edges != 3 {
		t.Errorf("unexpected tree shape: %d nodes, %d edges", d.Order(), edges)
	}
	if !d.HasEdgeFromTo(0, 3) {
		t.Errorf("expected 0 to immediately dominate 3")
	}
	for _, n := range tr.Nodes() {
		if n.Parent() != nil && n.Depth() != n.Parent().Depth()+1 {
			t.Errorf("inconsistent depth for %v", n)
		}
	}
}
