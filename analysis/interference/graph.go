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

// Package interference builds the interference graph of the variables of a liveness analysis: two variables
// interfere when one is written while the other is live, and they cannot share the same storage.
package interference

import (
	"errors"
	"fmt"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"github.com/awslabs/argot-flow/internal/graphutil"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	// ErrNodeOwned is returned when adding a node that already belongs to a graph
	ErrNodeOwned = errors.New("interference: node already belongs to a graph")

	// ErrDuplicateVariable is returned when adding a node for a variable that already has a node in the graph
	ErrDuplicateVariable = errors.New("interference: variable already has a node in the graph")

	// ErrNotInGraph is returned when adding an interference with a node that belongs to no graph
	ErrNotInGraph = errors.New("interference: node does not belong to a graph")

	// ErrForeignNode is returned when adding an interference between nodes of different graphs
	ErrForeignNode = errors.New("interference: nodes belong to different graphs")
)

// Graph is an undirected graph of variables. Adjacency is always symmetric: it can only be changed through
// AddInterference, RemoveInterference and Remove, which update both ends.
type Graph struct {
	nodes  map[flowgraph.Variable]*Node
	nextID int64
}

// Node is the node of a variable in an interference graph
type Node struct {
	variable flowgraph.Variable
	graph    *Graph
	id       int64
	adj      map[*Node]struct{}
}

// NewGraph returns an empty graph
func NewGraph() *Graph {
	return &Graph{nodes: map[flowgraph.Variable]*Node{}}
}

// NewNode returns a node for v that does not belong to any graph yet
func NewNode(v flowgraph.Variable) *Node {
	return &Node{variable: v, id: -1, adj: map[*Node]struct{}{}}
}

// Add adds n to the graph. The node must not belong to a graph, and its variable must not be represented in g.
func (g *Graph) Add(n *Node) error {
	if n.graph != nil {
		return fmt.Errorf("%w: %s", ErrNodeOwned, n)
	}
	if _, ok := g.nodes[n.variable]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVariable, n)
	}
	n.graph = g
	n.id = g.nextID
	g.nextID++
	g.nodes[n.variable] = n
	return nil
}

// AddVariable adds a new node for v to the graph and returns it
func (g *Graph) AddVariable(v flowgraph.Variable) (*Node, error) {
	n := NewNode(v)
	if err := g.Add(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Remove disconnects n from all its neighbours and removes it from the graph. It returns false if n is not in
// the graph. A removed node can be added again to any graph.
func (g *Graph) Remove(n *Node) bool {
	if n == nil || n.graph != g {
		return false
	}
	for other := range n.adj {
		delete(other.adj, n)
	}
	n.adj = map[*Node]struct{}{}
	delete(g.nodes, n.variable)
	n.graph = nil
	n.id = -1
	return true
}

// Node returns the node of v
func (g *Graph) Node(v flowgraph.Variable) (*Node, bool) {
	n, ok := g.nodes[v]
	return n, ok
}

// Nodes returns the nodes of the graph in the order they were added
func (g *Graph) Nodes() []*Node {
	nodes := maps.Values(g.nodes)
	slices.SortFunc(nodes, func(a, b *Node) bool { return a.id < b.id })
	return nodes
}

// Len returns the number of nodes in the graph
func (g *Graph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of interferences in the graph
func (g *Graph) EdgeCount() int {
	count := 0
	for _, n := range g.nodes {
		count += len(n.adj)
	}
	return count / 2
}

// GraphNodes implements graphutil.Graph
func (g *Graph) GraphNodes() []graphutil.Node {
	nodes := g.Nodes()
	res := make([]graphutil.Node, len(nodes))
	for i, n := range nodes {
		res[i] = n
	}
	return res
}

// Variable returns the variable represented by n
func (n *Node) Variable() flowgraph.Variable {
	return n.variable
}

// ID returns the id of n in its graph, or -1 when n is not in a graph
func (n *Node) ID() int64 {
	return n.id
}

// Graph returns the graph n belongs to, or nil
func (n *Node) Graph() *Graph {
	return n.graph
}

// AddInterference records that n and o interfere. Adding an interference with itself does nothing.
func (n *Node) AddInterference(o *Node) error {
	if n == o {
		return nil
	}
	if n.graph == nil || o.graph == nil {
		return fmt.Errorf("%w: %s - %s", ErrNotInGraph, n, o)
	}
	if n.graph != o.graph {
		return fmt.Errorf("%w: %s - %s", ErrForeignNode, n, o)
	}
	n.adj[o] = struct{}{}
	o.adj[n] = struct{}{}
	return nil
}

// RemoveInterference removes the interference between n and o, and returns false if there was none
func (n *Node) RemoveInterference(o *Node) bool {
	if _, ok := n.adj[o]; !ok {
		return false
	}
	delete(n.adj, o)
	delete(o.adj, n)
	return true
}

// Interferes returns true if n and o interfere
func (n *Node) Interferes(o *Node) bool {
	_, ok := n.adj[o]
	return ok
}

// Interference returns the nodes interfering with n, in the order they were added to the graph. The returned
// slice is a copy.
func (n *Node) Interference() []*Node {
	res := maps.Keys(n.adj)
	slices.SortFunc(res, func(a, b *Node) bool { return a.id < b.id })
	return res
}

// Degree returns the number of nodes interfering with n
func (n *Node) Degree() int {
	return len(n.adj)
}

func (n *Node) String() string {
	return n.variable.Name()
}

// InDegree implements graphutil.Node
func (n *Node) InDegree() int { return len(n.adj) }

// OutDegree implements graphutil.Node
func (n *Node) OutDegree() int { return len(n.adj) }

// InNodes implements graphutil.Node
func (n *Node) InNodes() []graphutil.Node { return n.OutNodes() }

// OutNodes implements graphutil.Node
func (n *Node) OutNodes() []graphutil.Node {
	neighbours := n.Interference()
	res := make([]graphutil.Node, len(neighbours))
	for i, o := range neighbours {
		res[i] = o
	}
	return res
}

// InEdges implements graphutil.Node. An interference is seen as an edge in each direction.
func (n *Node) InEdges() []graphutil.Edge {
	neighbours := n.Interference()
	res := make([]graphutil.Edge, len(neighbours))
	for i, o := range neighbours {
		res[i] = edge{o, n}
	}
	return res
}

// OutEdges implements graphutil.Node
func (n *Node) OutEdges() []graphutil.Edge {
	neighbours := n.Interference()
	res := make([]graphutil.Edge, len(neighbours))
	for i, o := range neighbours {
		res[i] = edge{n, o}
	}
	return res
}

type edge struct {
	from *Node
	to   *Node
}

func (e edge) Origin() graphutil.Node { return e.from }
func (e edge) Target() graphutil.Node { return e.to }
