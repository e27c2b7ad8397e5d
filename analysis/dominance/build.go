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
	"errors"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
)

// ErrNoEntryPoint is returned when building the dominator tree of a graph without entrypoint
var ErrNoEntryPoint = errors.New("control-flow graph has no entrypoint")

// Build computes the dominator tree of the nodes of g reachable from its entrypoint
func Build[I comparable](g *flowgraph.Graph[I]) (*Tree[I], error) {
	return build(g, false)
}

// BuildWithPathCompression computes the same tree as Build, compressing the paths of the link-eval forest. This
// is faster on large graphs with deep depth-first trees.
func BuildWithPathCompression[I comparable](g *flowgraph.Graph[I]) (*Tree[I], error) {
	return build(g, true)
}

// ltState holds the arrays of the Lengauer-Tarjan algorithm. All nodes are represented by their depth-first
// preorder number; -1 means undefined.
type ltState struct {
	parent   []int
	semi     []int
	idom     []int
	ancestor []int
	label    []int
	bucket   [][]int
}

func newLtState(n int) *ltState {
	s := &ltState{
		parent:   make([]int, n),
		semi:     make([]int, n),
		idom:     make([]int, n),
		ancestor: make([]int, n),
		label:    make([]int, n),
		bucket:   make([][]int, n),
	}
	for i := 0; i < n; i++ {
		s.parent[i] = -1
		s.semi[i] = i
		s.idom[i] = -1
		s.ancestor[i] = -1
		s.label[i] = i
	}
	return s
}

// evalSimple returns the node with the semidominator of lowest preorder on the forest path from v, excluding
// the root of the forest tree containing v.
func (s *ltState) evalSimple(v int) int {
	if s.ancestor[v] < 0 {
		return v
	}
	best := v
	for u := v; s.ancestor[u] >= 0; u = s.ancestor[u] {
		if s.semi[u] < s.semi[best] {
			best = u
		}
	}
	return best
}

// evalCompress is evalSimple with path compression. label[v] holds the best node on the compressed part of the
// path from v.
func (s *ltState) evalCompress(v int) int {
	if s.ancestor[v] < 0 {
		return v
	}
	var path []int
	for u := v; s.ancestor[s.ancestor[u]] >= 0; u = s.ancestor[u] {
		path = append(path, u)
	}
	for i := len(path) - 1; i >= 0; i-- {
		u := path[i]
		a := s.ancestor[u]
		if s.semi[s.label[a]] < s.semi[s.label[u]] {
			s.label[u] = s.label[a]
		}
		s.ancestor[u] = s.ancestor[a]
	}
	return s.label[v]
}

func build[I comparable](g *flowgraph.Graph[I], compress bool) (*Tree[I], error) {
	entry := g.EntryPoint()
	if entry == nil {
		return nil, ErrNoEntryPoint
	}
	preorder, _, dfsParent := g.DepthFirst()
	n := len(preorder)
	order := make(map[*flowgraph.Node[I]]int, n)
	for i, node := range preorder {
		order[node] = i
	}

	s := newLtState(n)
	for i := 1; i < n; i++ {
		s.parent[i] = order[dfsParent[preorder[i]]]
	}
	eval := s.evalSimple
	if compress {
		eval = s.evalCompress
	}

	for w := n - 1; w > 0; w-- {
		for _, pred := range preorder[w].Preds() {
			v, reachable := order[pred]
			if !reachable {
				continue
			}
			if u := eval(v); s.semi[u] < s.semi[w] {
				s.semi[w] = s.semi[u]
			}
		}
		s.bucket[s.semi[w]] = append(s.bucket[s.semi[w]], w)
		p := s.parent[w]
		s.ancestor[w] = p // link
		for _, v := range s.bucket[p] {
			if u := eval(v); s.semi[u] < s.semi[v] {
				s.idom[v] = u
			} else {
				s.idom[v] = p
			}
		}
		s.bucket[p] = nil
	}
	for w := 1; w < n; w++ {
		if s.idom[w] != s.semi[w] {
			s.idom[w] = s.idom[s.idom[w]]
		}
	}
	s.idom[0] = 0

	return newTree(preorder, s.idom), nil
}
