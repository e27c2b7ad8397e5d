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
	"github.com/awslabs/argot-flow/internal/funcutil"
	"github.com/awslabs/argot-flow/internal/graphutil"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// DepthFirst visits the nodes reachable from the entrypoint in depth-first order, following the successors in
// the order of Node.Succs. It returns the preorder and the postorder of the visit, and the depth-first spanning
// tree parent of every visited node except the entrypoint. All results are empty if the graph has no entrypoint.
func (g *Graph[I]) DepthFirst() (preorder []*Node[I], postorder []*Node[I], parent map[*Node[I]]*Node[I]) {
	parent = map[*Node[I]]*Node[I]{}
	if g.entry == nil {
		return nil, nil, parent
	}
	type frame struct {
		node  *Node[I]
		succs []*Node[I]
		next  int
	}
	visited := map[*Node[I]]bool{g.entry: true}
	preorder = append(preorder, g.entry)
	stack := []frame{{node: g.entry, succs: g.entry.Succs()}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.succs) {
			s := top.succs[top.next]
			top.next++
			if !visited[s] {
				visited[s] = true
				parent[s] = top.node
				preorder = append(preorder, s)
				stack = append(stack, frame{node: s, succs: s.Succs()})
			}
			continue
		}
		postorder = append(postorder, top.node)
		stack = stack[:len(stack)-1]
	}
	return preorder, postorder, parent
}

// ReversePostOrder returns the nodes reachable from the entrypoint in reverse postorder of a depth-first visit
func (g *Graph[I]) ReversePostOrder() []*Node[I] {
	_, post, _ := g.DepthFirst()
	funcutil.Reverse(post)
	return post
}

// Snapshot returns a view of the graph that works with gonum and yourbasic graph algorithms. The view is not
// updated when the graph changes.
func (g *Graph[I]) Snapshot() *graphutil.Directed {
	d, err := graphutil.NewDirected(g)
	if err != nil {
		// node ids are unique by construction
		panic(err)
	}
	return d
}

// Reachable returns the nodes reachable from the entrypoint, ordered by id
func (g *Graph[I]) Reachable() []*Node[I] {
	if g.entry == nil {
		return nil
	}
	var res []*Node[I]
	df := traverse.DepthFirst{
		Visit: func(n graph.Node) {
			if node, ok := g.nodes[n.ID()]; ok {
				res = append(res, node)
			}
		},
	}
	snapshot := g.Snapshot()
	df.Walk(snapshot, snapshot.Node(g.entry.id), nil)
	slices.SortFunc(res, func(a, b *Node[I]) bool { return a.id < b.id })
	return res
}

// Loops returns the cyclic strongly connected components of the graph. Each loop lists its nodes by increasing
// id, and loops are ordered by their smallest node id.
func (g *Graph[I]) Loops() [][]*Node[I] {
	succs := func(n *Node[I]) []*Node[I] { return n.Succs() }
	var loops [][]*Node[I]
	for _, scc := range graphutil.StronglyConnectedComponents(g.Nodes(), succs) {
		if graphutil.IsCyclic(scc, succs) {
			slices.SortFunc(scc, func(a, b *Node[I]) bool { return a.id < b.id })
			loops = append(loops, scc)
		}
	}
	slices.SortFunc(loops, func(a, b []*Node[I]) bool { return a[0].id < b[0].id })
	return loops
}

// Cycles returns the elementary cycles of the graph. Each cycle starts and ends with the same node.
func (g *Graph[I]) Cycles() [][]*Node[I] {
	var res [][]*Node[I]
	for _, cycle := range graphutil.FindAllElementaryCycles(g.Snapshot()) {
		nodes := make([]*Node[I], len(cycle))
		for i, id := range cycle {
			nodes[i] = g.nodes[id]
		}
		res = append(res, nodes)
	}
	return res
}
