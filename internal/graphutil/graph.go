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

package graphutil

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// Node is the contract shared by the vertices of every graph built by the analyses: a stable identity and a
// consistent view of the incoming and outgoing edges.
type Node interface {
	// ID returns the identity of the node. It is unique within the graph owning the node.
	ID() int64

	// InDegree returns the number of incoming edges
	InDegree() int

	// OutDegree returns the number of outgoing edges
	OutDegree() int

	// InNodes returns the origins of the incoming edges
	InNodes() []Node

	// OutNodes returns the targets of the outgoing edges
	OutNodes() []Node

	// InEdges returns the incoming edges
	InEdges() []Edge

	// OutEdges returns the outgoing edges
	OutEdges() []Edge
}

// Edge is a directed edge between two nodes of the same graph
type Edge interface {
	Origin() Node
	Target() Node
}

// Graph is a graph whose nodes implement the Node contract
type Graph interface {
	GraphNodes() []Node
}

// Directed is a snapshot of a Graph that works with existing graph libraries. It implements the methods to
// satisfy yourbasic's graph.Iterator and Gonum's graph.Directed
type Directed struct {
	// IDMap maps from node IDs to the original nodes
	IDMap map[int64]Node

	// Keys are all the node IDs, sorted. The index of a node id in Keys is the dense index of the node used by
	// the graph.Iterator implementation.
	Keys []int64

	// index maps node IDs to their position in Keys
	index map[int64]int

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between IDMap[x] and IDMap[y]
	Edges map[int64]map[int64]bool

	// reverse is the transposed adjacency matrix
	reverse map[int64]map[int64]bool
}

// NewDirected returns a snapshot of the graph g. Edges whose origin or target is not a node returned by
// g.GraphNodes() are ignored. NewDirected returns an error if two nodes share the same ID.
func NewDirected(g Graph) (*Directed, error) {
	nodes := g.GraphNodes()
	d := &Directed{
		IDMap:   make(map[int64]Node, len(nodes)),
		Keys:    make([]int64, 0, len(nodes)),
		index:   make(map[int64]int, len(nodes)),
		Edges:   make(map[int64]map[int64]bool, len(nodes)),
		reverse: make(map[int64]map[int64]bool, len(nodes)),
	}
	for _, n := range nodes {
		if _, dup := d.IDMap[n.ID()]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.ID())
		}
		d.IDMap[n.ID()] = n
		d.Keys = append(d.Keys, n.ID())
		d.Edges[n.ID()] = map[int64]bool{}
		d.reverse[n.ID()] = map[int64]bool{}
	}
	slices.Sort(d.Keys)
	for i, k := range d.Keys {
		d.index[k] = i
	}
	for _, n := range nodes {
		for _, e := range n.OutEdges() {
			if e.Target() == nil {
				continue
			}
			to := e.Target().ID()
			if _, ok := d.IDMap[to]; !ok {
				continue
			}
			d.Edges[n.ID()][to] = true
			d.reverse[to][n.ID()] = true
		}
	}
	return d, nil
}

// IndexOf returns the dense index of the node with the given id, and false if the node is not in the graph
func (d *Directed) IndexOf(id int64) (int, bool) {
	i, ok := d.index[id]
	return i, ok
}

// *************** yourbasic graph.Iterator implementation **********************

// Order implements the order of the graph.Iterator interface
func (d *Directed) Order() int {
	return len(d.Keys)
}

// Visit implements the graph.Iterator interface. Vertices are the dense indices of the nodes
func (d *Directed) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < 0 || v >= len(d.Keys) {
		return false
	}
	for _, w := range d.sortedTargets(d.Keys[v]) {
		if do(d.index[w], 1) {
			return true
		}
	}
	return false
}

func (d *Directed) sortedTargets(id int64) []int64 {
	targets := make([]int64, 0, len(d.Edges[id]))
	for w := range d.Edges[id] {
		targets = append(targets, w)
	}
	slices.Sort(targets)
	return targets
}

// *************** Gonum graph.Directed implementation **********************

// Node implements the graph.Graph interface
func (d *Directed) Node(id int64) graph.Node {
	n, ok := d.IDMap[id]
	if !ok {
		return nil
	}
	return gonumNode{n}
}

// Nodes returns the set of nodes in the graph, ordered by id
func (d *Directed) Nodes() graph.Nodes {
	return d.nodesOf(d.Keys)
}

// From returns the targets of the edges whose origin has the given id
func (d *Directed) From(id int64) graph.Nodes {
	return d.nodesOf(d.sortedTargets(id))
}

// To returns the origins of the edges whose target has the given id
func (d *Directed) To(id int64) graph.Nodes {
	origins := make([]int64, 0, len(d.reverse[id]))
	for o := range d.reverse[id] {
		origins = append(origins, o)
	}
	slices.Sort(origins)
	return d.nodesOf(origins)
}

func (d *Directed) nodesOf(ids []int64) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = gonumNode{d.IDMap[id]}
	}
	return iterator.NewOrderedNodes(nodes)
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers, in
// either direction
func (d *Directed) HasEdgeBetween(xid, yid int64) bool {
	return d.Edges[xid][yid] || d.Edges[yid][xid]
}

// HasEdgeFromTo returns whether an edge from uid to vid exists
func (d *Directed) HasEdgeFromTo(uid, vid int64) bool {
	return d.Edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (d *Directed) Edge(uid, vid int64) graph.Edge {
	if d.Edges[uid][vid] {
		return gonumEdge{from: gonumNode{d.IDMap[uid]}, to: gonumNode{d.IDMap[vid]}}
	}
	return nil
}

// Undirected is a view of a Directed snapshot where every edge is also traversable backwards. It implements
// Gonum's graph.Undirected. Graphs whose nodes already record edges in both directions (like interference
// graphs) are rendered with this view.
type Undirected struct {
	*Directed
}

// NewUndirected returns the undirected view of the snapshot of g
func NewUndirected(g Graph) (*Undirected, error) {
	d, err := NewDirected(g)
	if err != nil {
		return nil, err
	}
	return &Undirected{d}, nil
}

// From returns the neighbours of the node with the given id
func (u *Undirected) From(id int64) graph.Nodes {
	neighbours := map[int64]bool{}
	for w := range u.Edges[id] {
		neighbours[w] = true
	}
	for w := range u.reverse[id] {
		neighbours[w] = true
	}
	ids := make([]int64, 0, len(neighbours))
	for w := range neighbours {
		ids = append(ids, w)
	}
	slices.Sort(ids)
	return u.nodesOf(ids)
}

// Edge returns the edge between the two identifiers, in either direction
func (u *Undirected) Edge(uid, vid int64) graph.Edge {
	return u.EdgeBetween(uid, vid)
}

// EdgeBetween implements graph.Undirected
func (u *Undirected) EdgeBetween(xid, yid int64) graph.Edge {
	if u.HasEdgeBetween(xid, yid) {
		return gonumEdge{from: gonumNode{u.IDMap[xid]}, to: gonumNode{u.IDMap[yid]}}
	}
	return nil
}

// *************** Nodes and edges **********************

// gonumNode wraps a Node to implement the graph.Node interface
type gonumNode struct {
	Node
}

// Unwrap returns the original node of a node returned by one of the gonum interfaces implemented in this
// package. Nodes coming from elsewhere are returned as nil.
func Unwrap(n graph.Node) Node {
	if g, ok := n.(gonumNode); ok {
		return g.Node
	}
	return nil
}

func (n gonumNode) String() string {
	if s, ok := n.Node.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%d", n.ID())
}

// gonumEdge implements the graph.Edge interface
type gonumEdge struct {
	from gonumNode
	to   gonumNode
}

// From returns the origin of the edge
func (e gonumEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e gonumEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e gonumEdge) ReversedEdge() graph.Edge {
	return gonumEdge{from: e.to, to: e.from}
}
