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

package flowgraph_test

import (
	"errors"
	"testing"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"github.com/awslabs/argot-flow/internal/flowtest"
	"golang.org/x/exp/slices"
)

func ids[I comparable](nodes []*flowgraph.Node[I]) []int64 {
	res := make([]int64, len(nodes))
	for i, n := range nodes {
		res[i] = n.ID()
	}
	return res
}

// loopProgram is:
//
//	0 -> 1 -> 2 -> 1
//	          2 -> 3
//	4 -> 3 (4 unreachable)
func loopProgram() *flowtest.Program {
	p := flowtest.NewProgram()
	p.MustBlock(0, "push 1; set v1")
	p.MustBlock(1, "get v1; brif")
	p.MustBlock(2, "op; br")
	p.MustBlock(3, "ret")
	p.MustBlock(4, "nop")
	p.MustConnect(0, 1, flowgraph.FallThrough)
	p.MustConnect(1, 2, flowgraph.FallThrough)
	p.MustConnect(1, 3, flowgraph.Conditional)
	p.MustConnect(2, 1, flowgraph.Unconditional)
	p.MustConnect(4, 3, flowgraph.FallThrough)
	return p
}

func TestAddNodeErrors(t *testing.T) {
	p := flowtest.NewProgram()
	n := p.MustBlock(0, "push 1; set v1")
	if _, err := p.Graph.AddNode(0); !errors.Is(err, flowgraph.ErrDuplicateNode) {
		t.Errorf("expected duplicate node error, got %v", err)
	}
	if _, err := p.Graph.AddNode(1, n.Instructions()[0]); !errors.Is(err, flowgraph.ErrDuplicateInstruction) {
		t.Errorf("expected duplicate instruction error, got %v", err)
	}
	if _, ok := p.Graph.Node(1); ok || p.Graph.Len() != 1 {
		t.Errorf("failed AddNode must not change the graph")
	}
	if owner, ok := p.Graph.NodeOf(n.Instructions()[1]); !ok || owner != n {
		t.Errorf("expected instruction to belong to node 0")
	}
}

func TestConnectWith(t *testing.T) {
	p := flowtest.NewProgram()
	a := p.MustBlock(0, "brif")
	b := p.MustBlock(1, "nop")
	c := p.MustBlock(2, "ret")
	other := flowtest.NewProgram().MustBlock(0, "nop")

	if _, err := a.ConnectWith(b, flowgraph.FallThrough); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.ConnectWith(c, flowgraph.Unconditional); !errors.Is(err, flowgraph.ErrMultipleUnconditional) {
		t.Errorf("expected second unconditional edge to fail, got %v", err)
	}
	if _, err := a.ConnectWith(other, flowgraph.Conditional); !errors.Is(err, flowgraph.ErrForeignNode) {
		t.Errorf("expected foreign node error, got %v", err)
	}
	for _, kind := range []flowgraph.EdgeKind{flowgraph.Conditional, flowgraph.Conditional, flowgraph.Abnormal} {
		if _, err := a.ConnectWith(c, kind); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if a.OutDegree() != 4 || c.InDegree() != 3 {
		t.Errorf("unexpected degrees out=%d in=%d", a.OutDegree(), c.InDegree())
	}
	if got := ids(a.Succs()); !slices.Equal(got, []int64{1, 2}) {
		t.Errorf("expected distinct successors [1 2], got %v", got)
	}
	if got := ids(c.Preds()); !slices.Equal(got, []int64{0}) {
		t.Errorf("expected distinct predecessors [0], got %v", got)
	}
	if a.UnconditionalEdge().To() != b || len(a.ConditionalEdges()) != 2 || len(a.AbnormalEdges()) != 1 {
		t.Errorf("edges are not stored by kind")
	}
	// contract views are consistent with the typed views
	if len(a.OutEdges()) != a.OutDegree() || len(c.InNodes()) != 1 || c.InEdges()[0].Origin().ID() != 0 {
		t.Errorf("graph contract is inconsistent with the edge set")
	}
	if err := p.Graph.SetEntryPoint(other); !errors.Is(err, flowgraph.ErrForeignNode) {
		t.Errorf("expected foreign entrypoint to be rejected")
	}
}

func TestOrders(t *testing.T) {
	p := loopProgram()
	g := p.Graph
	if got := ids(g.ReversePostOrder()); !slices.Equal(got, []int64{0, 1, 2, 3}) &&
		!slices.Equal(got, []int64{0, 1, 3, 2}) {
		t.Errorf("unexpected reverse postorder %v", got)
	}
	pre, post, parent := g.DepthFirst()
	if len(pre) != 4 || len(post) != 4 {
		t.Errorf("expected 4 reachable nodes, got %d %d", len(pre), len(post))
	}
	n2, _ := g.Node(2)
	if parent[n2].ID() != 1 {
		t.Errorf("expected dfs parent of 2 to be 1")
	}
	if got := ids(g.Reachable()); !slices.Equal(got, []int64{0, 1, 2, 3}) {
		t.Errorf("unexpected reachable nodes %v", got)
	}
	if got := flowgraph.NewGraph[*flowtest.Instruction]().ReversePostOrder(); got != nil {
		t.Errorf("graph without entrypoint has no order")
	}
}

func TestLoopsAndCycles(t *testing.T) {
	p := loopProgram()
	loops := p.Graph.Loops()
	if len(loops) != 1 || !slices.Equal(ids(loops[0]), []int64{1, 2}) {
		t.Fatalf("expected loop [1 2], got %v", loops)
	}
	cycles := p.Graph.Cycles()
	if len(cycles) != 1 || !slices.Equal(ids(cycles[0]), []int64{1, 2, 1}) {
		t.Fatalf("expected cycle [1 2 1], got %v", cycles)
	}
}

func TestVarSet(t *testing.T) {
	p := flowtest.NewProgram()
	ab := p.Vars("a", "b")
	bc := p.Vars("b", "c")
	if u := ab.Union(bc); !u.Equal(p.Vars("a", "b", "c")) {
		t.Errorf("unexpected union %v", u)
	}
	if m := ab.Minus(bc); !m.Equal(p.Vars("a")) {
		t.Errorf("unexpected difference %v", m)
	}
	if m := ab.Minus(ab); !m.IsEmpty() || !m.Equal(flowgraph.VarSet{}) {
		t.Errorf("expected empty difference, got %v", m)
	}
	if !ab.Union(flowgraph.VarSet{}).Equal(ab) || ab.Equal(bc) {
		t.Errorf("set equality is broken")
	}
	if s := bc.Union(ab).String(); s != "{a, b, c}" {
		t.Errorf("unexpected string %q", s)
	}
	// operations do not modify their operands
	if ab.Len() != 2 || bc.Len() != 2 || !ab.Contains(p.Var("a")) || ab.Contains(p.Var("c")) {
		t.Errorf("operands were modified")
	}
}

func TestArchitecture(t *testing.T) {
	p := flowtest.NewProgram()
	n := p.MustBlock(0, "mov x y; brif; ret x")
	arch := flowtest.Architecture{}
	instrs := n.Instructions()
	if !flowgraph.WrittenSet[*flowtest.Instruction](arch, instrs[0]).Equal(p.Vars("x")) ||
		!flowgraph.ReadSet[*flowtest.Instruction](arch, instrs[0]).Equal(p.Vars("y")) {
		t.Errorf("unexpected read/write sets for %v", instrs[0])
	}
	if arch.FlowControl(instrs[1]) != flowgraph.FlowBranch || arch.FlowControl(instrs[2]) != flowgraph.FlowTerminate {
		t.Errorf("unexpected flow control")
	}
	if footer, ok := n.Footer(); !ok || footer != instrs[2] {
		t.Errorf("unexpected footer")
	}
}
