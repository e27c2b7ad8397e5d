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

package flowgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/awslabs/argot-flow/internal/graphutil"
	"golang.org/x/exp/slices"
)

var (
	// ErrDuplicateNode is returned when adding a node whose id is already used in the graph
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrDuplicateInstruction is returned when an instruction is added to more than one node of the graph
	ErrDuplicateInstruction = errors.New("instruction already in graph")

	// ErrForeignNode is returned when connecting or selecting a node that does not belong to the graph
	ErrForeignNode = errors.New("node does not belong to the graph")

	// ErrMultipleUnconditional is returned when a node would get a second fall-through or unconditional edge
	ErrMultipleUnconditional = errors.New("node already has an unconditional successor")
)

// EdgeKind is the type of control transfer an edge represents
type EdgeKind int

const (
	// FallThrough is the edge to the block that follows the last instruction of a block
	FallThrough EdgeKind = iota

	// Unconditional is the edge of an unconditional jump
	Unconditional

	// Conditional is the edge taken when a conditional branch is taken
	Conditional

	// Abnormal is the edge to an exception handler or any other non-local control transfer
	Abnormal
)

func (k EdgeKind) String() string {
	switch k {
	case FallThrough:
		return "fallthrough"
	case Unconditional:
		return "unconditional"
	case Conditional:
		return "conditional"
	case Abnormal:
		return "abnormal"
	default:
		return "unknown"
	}
}

// Graph is a control-flow graph whose basic blocks contain instructions of type I. The graph owns its nodes,
// keyed by an id (typically the offset of the first instruction). The analyses only read graphs.
type Graph[I comparable] struct {
	nodes map[int64]*Node[I]

	// ids are the ids of the nodes, in increasing order
	ids []int64

	// instrs maps every instruction to the node containing it
	instrs map[I]*Node[I]

	entry *Node[I]
}

// Node is a basic block: an ordered list of instructions with typed outgoing edges. A node has at most one
// fall-through or unconditional successor, and any number of conditional and abnormal successors.
type Node[I comparable] struct {
	id    int64
	graph *Graph[I]

	instrs []I

	unconditional *Edge[I]
	conditional   []*Edge[I]
	abnormal      []*Edge[I]
	incoming      []*Edge[I]
}

// Edge is a directed, typed control-flow edge
type Edge[I comparable] struct {
	from *Node[I]
	to   *Node[I]
	kind EdgeKind
}

// NewGraph returns an empty graph with no entrypoint
func NewGraph[I comparable]() *Graph[I] {
	return &Graph[I]{
		nodes:  map[int64]*Node[I]{},
		instrs: map[I]*Node[I]{},
	}
}

// AddNode creates a node with the given id and instructions in the graph. It returns an error if the id is
// already used, or if one of the instructions already belongs to the graph, in which case the graph is left
// unchanged.
func (g *Graph[I]) AddNode(id int64, instrs ...I) (*Node[I], error) {
	if _, ok := g.nodes[id]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateNode, id)
	}
	seen := make(map[I]bool, len(instrs))
	for _, instr := range instrs {
		if _, ok := g.instrs[instr]; ok || seen[instr] {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateInstruction, instr)
		}
		seen[instr] = true
	}
	n := &Node[I]{
		id:     id,
		graph:  g,
		instrs: slices.Clone(instrs),
	}
	for _, instr := range instrs {
		g.instrs[instr] = n
	}
	g.nodes[id] = n
	pos, _ := slices.BinarySearch(g.ids, id)
	g.ids = slices.Insert(g.ids, pos, id)
	return n, nil
}

// SetEntryPoint sets the entrypoint of the graph. The node must belong to the graph.
func (g *Graph[I]) SetEntryPoint(n *Node[I]) error {
	if n == nil || n.graph != g {
		return ErrForeignNode
	}
	g.entry = n
	return nil
}

// EntryPoint returns the entrypoint of the graph, or nil if it has not been set
func (g *Graph[I]) EntryPoint() *Node[I] {
	return g.entry
}

// Node returns the node with the given id
func (g *Graph[I]) Node(id int64) (*Node[I], bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeOf returns the node containing the instruction
func (g *Graph[I]) NodeOf(instr I) (*Node[I], bool) {
	n, ok := g.instrs[instr]
	return n, ok
}

// Nodes returns all the nodes of the graph ordered by id
func (g *Graph[I]) Nodes() []*Node[I] {
	res := make([]*Node[I], len(g.ids))
	for i, id := range g.ids {
		res[i] = g.nodes[id]
	}
	return res
}

// Len returns the number of nodes in the graph
func (g *Graph[I]) Len() int {
	return len(g.nodes)
}

// GraphNodes implements graphutil.Graph
func (g *Graph[I]) GraphNodes() []graphutil.Node {
	res := make([]graphutil.Node, len(g.ids))
	for i, id := range g.ids {
		res[i] = g.nodes[id]
	}
	return res
}

// ID returns the id of the node
func (n *Node[I]) ID() int64 {
	return n.id
}

// Graph returns the graph owning the node
func (n *Node[I]) Graph() *Graph[I] {
	return n.graph
}

// Instructions returns the instructions of the basic block. The slice must not be modified.
func (n *Node[I]) Instructions() []I {
	return n.instrs
}

// IsEmpty returns true when the basic block has no instruction
func (n *Node[I]) IsEmpty() bool {
	return len(n.instrs) == 0
}

// Header returns the first instruction of the node, and false if the node is empty
func (n *Node[I]) Header() (I, bool) {
	var zero I
	if len(n.instrs) == 0 {
		return zero, false
	}
	return n.instrs[0], true
}

// Footer returns the last instruction of the node, and false if the node is empty
func (n *Node[I]) Footer() (I, bool) {
	var zero I
	if len(n.instrs) == 0 {
		return zero, false
	}
	return n.instrs[len(n.instrs)-1], true
}

// ConnectWith adds an edge of the given kind from n to target. Both nodes must belong to the same graph, and a
// node can have only one fall-through or unconditional edge.
func (n *Node[I]) ConnectWith(target *Node[I], kind EdgeKind) (*Edge[I], error) {
	if target == nil || target.graph != n.graph {
		return nil, ErrForeignNode
	}
	e := &Edge[I]{from: n, to: target, kind: kind}
	switch kind {
	case FallThrough, Unconditional:
		if n.unconditional != nil {
			return nil, fmt.Errorf("%w: node %d", ErrMultipleUnconditional, n.id)
		}
		n.unconditional = e
	case Conditional:
		n.conditional = append(n.conditional, e)
	case Abnormal:
		n.abnormal = append(n.abnormal, e)
	default:
		return nil, fmt.Errorf("invalid edge kind %d", kind)
	}
	target.incoming = append(target.incoming, e)
	return e, nil
}

// UnconditionalEdge returns the fall-through or unconditional edge of the node, or nil
func (n *Node[I]) UnconditionalEdge() *Edge[I] {
	return n.unconditional
}

// ConditionalEdges returns the conditional edges of the node
func (n *Node[I]) ConditionalEdges() []*Edge[I] {
	return n.conditional
}

// AbnormalEdges returns the abnormal edges of the node
func (n *Node[I]) AbnormalEdges() []*Edge[I] {
	return n.abnormal
}

// Outgoing returns all the outgoing edges: the unconditional edge first, then the conditional edges, then the
// abnormal edges.
func (n *Node[I]) Outgoing() []*Edge[I] {
	res := make([]*Edge[I], 0, 1+len(n.conditional)+len(n.abnormal))
	if n.unconditional != nil {
		res = append(res, n.unconditional)
	}
	res = append(res, n.conditional...)
	return append(res, n.abnormal...)
}

// Incoming returns all the incoming edges, in the order they were added
func (n *Node[I]) Incoming() []*Edge[I] {
	return n.incoming
}

// Succs returns the distinct successors of the node, in the order of Outgoing
func (n *Node[I]) Succs() []*Node[I] {
	var res []*Node[I]
	for _, e := range n.Outgoing() {
		if !slices.Contains(res, e.to) {
			res = append(res, e.to)
		}
	}
	return res
}

// Preds returns the distinct predecessors of the node, in the order of Incoming
func (n *Node[I]) Preds() []*Node[I] {
	var res []*Node[I]
	for _, e := range n.incoming {
		if !slices.Contains(res, e.from) {
			res = append(res, e.from)
		}
	}
	return res
}

// InDegree returns the number of incoming edges
func (n *Node[I]) InDegree() int {
	return len(n.incoming)
}

// OutDegree returns the number of outgoing edges
func (n *Node[I]) OutDegree() int {
	k := len(n.conditional) + len(n.abnormal)
	if n.unconditional != nil {
		k++
	}
	return k
}

// InNodes implements graphutil.Node
func (n *Node[I]) InNodes() []graphutil.Node {
	preds := n.Preds()
	res := make([]graphutil.Node, len(preds))
	for i, p := range preds {
		res[i] = p
	}
	return res
}

// OutNodes implements graphutil.Node
func (n *Node[I]) OutNodes() []graphutil.Node {
	succs := n.Succs()
	res := make([]graphutil.Node, len(succs))
	for i, s := range succs {
		res[i] = s
	}
	return res
}

// InEdges implements graphutil.Node
func (n *Node[I]) InEdges() []graphutil.Edge {
	res := make([]graphutil.Edge, len(n.incoming))
	for i, e := range n.incoming {
		res[i] = e
	}
	return res
}

// OutEdges implements graphutil.Node
func (n *Node[I]) OutEdges() []graphutil.Edge {
	out := n.Outgoing()
	res := make([]graphutil.Edge, len(out))
	for i, e := range out {
		res[i] = e
	}
	return res
}

func (n *Node[I]) String() string {
	return fmt.Sprintf("block_%d", n.id)
}

// Label returns a multi-line description of the node with its instructions, for rendering
func (n *Node[I]) Label() string {
	var b strings.Builder
	b.WriteString(n.String())
	for _, instr := range n.instrs {
		fmt.Fprintf(&b, "\n%v", instr)
	}
	return b.String()
}

// From returns the origin of the edge
func (e *Edge[I]) From() *Node[I] {
	return e.from
}

// To returns the target of the edge
func (e *Edge[I]) To() *Node[I] {
	return e.to
}

// Kind returns the kind of the edge
func (e *Edge[I]) Kind() EdgeKind {
	return e.kind
}

// Origin implements graphutil.Edge
func (e *Edge[I]) Origin() graphutil.Node {
	return e.from
}

// Target implements graphutil.Edge
func (e *Edge[I]) Target() graphutil.Node {
	return e.to
}

func (e *Edge[I]) String() string {
	return fmt.Sprintf("%s -%s-> %s", e.from, e.kind, e.to)
}
