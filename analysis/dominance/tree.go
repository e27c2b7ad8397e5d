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

package dominance

import (
	"fmt"
	"sync"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"github.com/awslabs/argot-flow/internal/graphutil"
)

// Tree is the dominator tree of a control-flow graph. It covers the nodes reachable from the entrypoint of the
// graph at the time it was built.
type Tree[I comparable] struct {
	// nodes is the arena of tree nodes, indexed by their depth-first preorder in the control-flow graph.
	nodes []*TreeNode[I]

	// index maps the original nodes to their position in nodes
	index map[*flowgraph.Node[I]]int

	// preorder lists the tree nodes in preorder of the dominator tree
	preorder []*TreeNode[I]

	frontierOnce sync.Once
	frontier     [][]int
}

// TreeNode is the node of a dominator tree. Its parent is the node of its immediate dominator.
type TreeNode[I comparable] struct {
	tree     *Tree[I]
	index    int
	original *flowgraph.Node[I]
	parent   *TreeNode[I]
	children []*TreeNode[I]
	depth    int

	// enter and exit are the preorder and postorder numbers of the node in the dominator tree: a dominates b
	// iff a.enter <= b.enter and b.exit <= a.exit
	enter int
	exit  int
}

// newTree builds the tree from the preorder of the control-flow graph and the immediate dominators, given as
// preorder numbers. idom[0] is the entrypoint itself.
func newTree[I comparable](preorder []*flowgraph.Node[I], idom []int) *Tree[I] {
	t := &Tree[I]{
		nodes: make([]*TreeNode[I], len(preorder)),
		index: make(map[*flowgraph.Node[I]]int, len(preorder)),
	}
	for i, n := range preorder {
		t.nodes[i] = &TreeNode[I]{tree: t, index: i, original: n}
		t.index[n] = i
	}
	// idom[i] < i for every i > 0, so parents are complete before their children
	for i := 1; i < len(t.nodes); i++ {
		node := t.nodes[i]
		node.parent = t.nodes[idom[i]]
		node.depth = node.parent.depth + 1
		node.parent.children = append(node.parent.children, node)
	}
	t.number()
	return t
}

// number computes the preorder of the dominator tree and the enter/exit numbers of the nodes
func (t *Tree[I]) number() {
	if len(t.nodes) == 0 {
		return
	}
	type frame struct {
		node *TreeNode[I]
		next int
	}
	pre, post := 0, 0
	root := t.nodes[0]
	root.enter = pre
	t.preorder = append(t.preorder, root)
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.children) {
			child := top.node.children[top.next]
			top.next++
			pre++
			child.enter = pre
			t.preorder = append(t.preorder, child)
			stack = append(stack, frame{node: child})
			continue
		}
		top.node.exit = post
		post++
		stack = stack[:len(stack)-1]
	}
}

// Root returns the root of the tree, whose original node is the entrypoint of the graph
func (t *Tree[I]) Root() *TreeNode[I] {
	return t.nodes[0]
}

// Len returns the number of nodes in the tree
func (t *Tree[I]) Len() int {
	return len(t.nodes)
}

// Nodes returns the nodes of the tree in preorder
func (t *Tree[I]) Nodes() []*TreeNode[I] {
	res := make([]*TreeNode[I], len(t.preorder))
	copy(res, t.preorder)
	return res
}

// Node returns the tree node of the control-flow graph node n, and false if n is not in the tree (it is not
// reachable from the entrypoint)
func (t *Tree[I]) Node(n *flowgraph.Node[I]) (*TreeNode[I], bool) {
	i, ok := t.index[n]
	if !ok {
		return nil, false
	}
	return t.nodes[i], true
}

// mustNode returns the tree node of n. Querying a node that is not in the tree is a programming error.
func (t *Tree[I]) mustNode(n *flowgraph.Node[I]) *TreeNode[I] {
	i, ok := t.index[n]
	if !ok {
		panic(fmt.Sprintf("dominance: %v is not in the dominator tree", n))
	}
	return t.nodes[i]
}

// Dominates returns true if a dominates b, i.e. every path from the entrypoint to b goes through a.
// Every node dominates itself. Both nodes must be in the tree.
func (t *Tree[I]) Dominates(a, b *flowgraph.Node[I]) bool {
	ta := t.mustNode(a)
	tb := t.mustNode(b)
	return ta.enter <= tb.enter && tb.exit <= ta.exit
}

// StrictlyDominates returns true if a dominates b and a != b
func (t *Tree[I]) StrictlyDominates(a, b *flowgraph.Node[I]) bool {
	return a != b && t.Dominates(a, b)
}

// ImmediateDominator returns the immediate dominator of n, and nil for the entrypoint
func (t *Tree[I]) ImmediateDominator(n *flowgraph.Node[I]) *flowgraph.Node[I] {
	tn := t.mustNode(n)
	if tn.parent == nil {
		return nil
	}
	return tn.parent.original
}

// DominatedNodes returns the nodes dominated by n, n included, in preorder of the dominator tree
func (t *Tree[I]) DominatedNodes(n *flowgraph.Node[I]) []*flowgraph.Node[I] {
	tn := t.mustNode(n)
	var res []*flowgraph.Node[I]
	// the subtree of tn is contiguous in the preorder
	for i := tn.enter; i < len(t.preorder); i++ {
		m := t.preorder[i]
		if m.exit > tn.exit {
			break
		}
		res = append(res, m.original)
	}
	return res
}

// GraphNodes implements graphutil.Graph
func (t *Tree[I]) GraphNodes() []graphutil.Node {
	res := make([]graphutil.Node, len(t.preorder))
	for i, n := range t.preorder {
		res[i] = n
	}
	return res
}

// Original returns the control-flow graph node this tree node stands for
func (n *TreeNode[I]) Original() *flowgraph.Node[I] {
	return n.original
}

// Parent returns the node of the immediate dominator, and nil for the root
func (n *TreeNode[I]) Parent() *TreeNode[I] {
	return n.parent
}

// Children returns the nodes immediately dominated by n. The slice must not be modified.
func (n *TreeNode[I]) Children() []*TreeNode[I] {
	return n.children
}

// Depth returns the depth of the node in the tree; the root has depth 0
func (n *TreeNode[I]) Depth() int {
	return n.depth
}

// ID returns the id of the original node
func (n *TreeNode[I]) ID() int64 {
	return n.original.ID()
}

// InDegree is 1 except for the root
func (n *TreeNode[I]) InDegree() int {
	if n.parent == nil {
		return 0
	}
	return 1
}

// OutDegree is the number of children
func (n *TreeNode[I]) OutDegree() int {
	return len(n.children)
}

// InNodes implements graphutil.Node
func (n *TreeNode[I]) InNodes() []graphutil.Node {
	if n.parent == nil {
		return nil
	}
	return []graphutil.Node{n.parent}
}

// OutNodes implements graphutil.Node
func (n *TreeNode[I]) OutNodes() []graphutil.Node {
	res := make([]graphutil.Node, len(n.children))
	for i, c := range n.children {
		res[i] = c
	}
	return res
}

// InEdges implements graphutil.Node
func (n *TreeNode[I]) InEdges() []graphutil.Edge {
	if n.parent == nil {
		return nil
	}
	return []graphutil.Edge{treeEdge[I]{n.parent, n}}
}

// OutEdges implements graphutil.Node
func (n *TreeNode[I]) OutEdges() []graphutil.Edge {
	res := make([]graphutil.Edge, len(n.children))
	for i, c := range n.children {
		res[i] = treeEdge[I]{n, c}
	}
	return res
}

func (n *TreeNode[I]) String() string {
	return n.original.String()
}

// treeEdge is the edge from an immediate dominator to a node it immediately dominates
type treeEdge[I comparable] struct {
	from *TreeNode[I]
	to   *TreeNode[I]
}

func (e treeEdge[I]) Origin() graphutil.Node { return e.from }
func (e treeEdge[I]) Target() graphutil.Node { return e.to }
