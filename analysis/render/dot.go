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

// Package render exports graphs implementing the graphutil contracts to the DOT format, through Gonum's
// encoding/dot.
package render

import (
	"fmt"

	"github.com/awslabs/argot-flow/internal/graphutil"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/iterator"
)

// Style decides the DOT attributes of the graph, its nodes and its edges. Nil functions add no attribute.
type Style struct {
	Graph        []encoding.Attribute
	NodeDefaults []encoding.Attribute
	Node         func(n graphutil.Node) []encoding.Attribute
	Edge         func(e graphutil.Edge) []encoding.Attribute
}

// Marshal returns the DOT representation of the directed graph g. Parallel edges are merged into one DOT edge
// whose attributes are those of the first edge.
func Marshal(g graphutil.Graph, name string, style Style) ([]byte, error) {
	dg, err := newDotGraph(g, style)
	if err != nil {
		return nil, err
	}
	return dot.Marshal(directedDot{dg}, name, "", "  ")
}

// MarshalUndirected returns the DOT representation of g, where an edge in either direction is an undirected edge
func MarshalUndirected(g graphutil.Graph, name string, style Style) ([]byte, error) {
	dg, err := newDotGraph(g, style)
	if err != nil {
		return nil, err
	}
	dg.undirected = true
	return dot.Marshal(undirectedDot{dg}, name, "", "  ")
}

// DefaultLabel is the label of nodes when the style does not set one: the node's Label() if it has one, its
// String() otherwise
func DefaultLabel(n graphutil.Node) string {
	switch x := n.(type) {
	case interface{ Label() string }:
		return x.Label()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%d", n.ID())
	}
}

type attributes []encoding.Attribute

func (a attributes) Attributes() []encoding.Attribute {
	return a
}

type dotNode struct {
	id    int64
	attrs attributes
}

func (n *dotNode) ID() int64 {
	return n.id
}

func (n *dotNode) Attributes() []encoding.Attribute {
	return n.attrs
}

type dotEdge struct {
	from  *dotNode
	to    *dotNode
	attrs attributes
}

func (e *dotEdge) From() graph.Node {
	return e.from
}

func (e *dotEdge) To() graph.Node {
	return e.to
}

func (e *dotEdge) ReversedEdge() graph.Edge {
	return &dotEdge{from: e.to, to: e.from, attrs: e.attrs}
}

func (e *dotEdge) Attributes() []encoding.Attribute {
	return e.attrs
}

// dotGraph is an immutable copy of a contract graph with the DOT attributes of its elements
type dotGraph struct {
	nodes      map[int64]*dotNode
	ids        []int64
	out        map[int64]map[int64]*dotEdge
	in         map[int64]map[int64]*dotEdge
	attrs      attributes
	nodeAttrs  attributes
	undirected bool
}

func newDotGraph(g graphutil.Graph, style Style) (*dotGraph, error) {
	dg := &dotGraph{
		nodes:     map[int64]*dotNode{},
		out:       map[int64]map[int64]*dotEdge{},
		in:        map[int64]map[int64]*dotEdge{},
		attrs:     style.Graph,
		nodeAttrs: style.NodeDefaults,
	}
	originals := map[int64]graphutil.Node{}
	for _, n := range g.GraphNodes() {
		originals[n.ID()] = n
		if _, dup := dg.nodes[n.ID()]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.ID())
		}
		attrs := attributes{{Key: "label", Value: DefaultLabel(n)}}
		if style.Node != nil {
			attrs = merge(attrs, style.Node(n))
		}
		dg.nodes[n.ID()] = &dotNode{id: n.ID(), attrs: attrs}
		dg.out[n.ID()] = map[int64]*dotEdge{}
		dg.in[n.ID()] = map[int64]*dotEdge{}
	}
	dg.ids = maps.Keys(dg.nodes)
	slices.Sort(dg.ids)
	for _, id := range dg.ids {
		for _, e := range originals[id].OutEdges() {
			if e.Target() == nil {
				continue
			}
			to, ok := dg.nodes[e.Target().ID()]
			if !ok || dg.out[id][to.id] != nil {
				continue
			}
			de := &dotEdge{from: dg.nodes[id], to: to}
			if style.Edge != nil {
				de.attrs = style.Edge(e)
			}
			dg.out[id][to.id] = de
			dg.in[to.id][id] = de
		}
	}
	return dg, nil
}

// merge returns the attributes of a overridden by those of b
func merge(a, b []encoding.Attribute) attributes {
	res := attributes(slices.Clone(a))
	for _, attr := range b {
		i := slices.IndexFunc(res, func(x encoding.Attribute) bool { return x.Key == attr.Key })
		if i >= 0 {
			res[i] = attr
		} else {
			res = append(res, attr)
		}
	}
	return res
}

func (g *dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return g.attrs, g.nodeAttrs, attributes(nil)
}

func (g *dotGraph) Node(id int64) graph.Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	return nil
}

func (g *dotGraph) Nodes() graph.Nodes {
	return g.nodesOf(g.ids)
}

func (g *dotGraph) nodesOf(ids []int64) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g *dotGraph) neighbours(adj ...map[int64]*dotEdge) graph.Nodes {
	set := map[int64]bool{}
	for _, m := range adj {
		for id := range m {
			set[id] = true
		}
	}
	ids := maps.Keys(set)
	slices.Sort(ids)
	return g.nodesOf(ids)
}

func (g *dotGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.out[xid][yid] != nil || g.out[yid][xid] != nil
}

// edge returns the edge from uid to vid, or nil. Returning a typed nil pointer would not be a nil graph.Edge.
func (g *dotGraph) edge(uid, vid int64) graph.Edge {
	if e := g.out[uid][vid]; e != nil {
		return e
	}
	if g.undirected {
		if e := g.out[vid][uid]; e != nil {
			return e.ReversedEdge()
		}
	}
	return nil
}

type directedDot struct {
	*dotGraph
}

func (g directedDot) From(id int64) graph.Nodes {
	return g.neighbours(g.out[id])
}

func (g directedDot) To(id int64) graph.Nodes {
	return g.neighbours(g.in[id])
}

func (g directedDot) HasEdgeFromTo(uid, vid int64) bool {
	return g.out[uid][vid] != nil
}

func (g directedDot) Edge(uid, vid int64) graph.Edge {
	return g.edge(uid, vid)
}

type undirectedDot struct {
	*dotGraph
}

func (g undirectedDot) From(id int64) graph.Nodes {
	return g.neighbours(g.out[id], g.in[id])
}

func (g undirectedDot) Edge(uid, vid int64) graph.Edge {
	return g.edge(uid, vid)
}

func (g undirectedDot) EdgeBetween(xid, yid int64) graph.Edge {
	return g.edge(xid, yid)
}
