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
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// Components returns the strongly connected components of the snapshot, as lists of node ids sorted in
// increasing order. The components are computed by yourbasic's graph.StrongComponents over the dense indices.
func Components(d *Directed) [][]int64 {
	var res [][]int64
	for _, component := range graph.StrongComponents(d) {
		ids := make([]int64, len(component))
		for i, v := range component {
			ids[i] = d.Keys[v]
		}
		slices.Sort(ids)
		res = append(res, ids)
	}
	return res
}

// Subgraph returns a new snapshot that is the original graph with only the nodes in include. Only the edges that
// have both the origin and destination nodes in the include nodes are kept in the resulting graph.
func Subgraph(original *Directed, include []int64) *Directed {
	sub := &Directed{
		IDMap:   make(map[int64]Node, len(include)),
		Keys:    make([]int64, 0, len(include)),
		index:   make(map[int64]int, len(include)),
		Edges:   make(map[int64]map[int64]bool, len(include)),
		reverse: make(map[int64]map[int64]bool, len(include)),
	}
	for _, id := range include {
		if n, ok := original.IDMap[id]; ok {
			sub.IDMap[id] = n
			sub.Keys = append(sub.Keys, id)
			sub.Edges[id] = map[int64]bool{}
			sub.reverse[id] = map[int64]bool{}
		}
	}
	slices.Sort(sub.Keys)
	for i, k := range sub.Keys {
		sub.index[k] = i
	}
	for _, id := range sub.Keys {
		for e := range original.Edges[id] {
			if _, ok := sub.IDMap[e]; ok {
				sub.Edges[id][e] = true
				sub.reverse[e][id] = true
			}
		}
	}
	return sub
}

// FindAllElementaryCycles returns the elementary cycles of the graph, following Johnson's algorithm. Each cycle
// starts and ends with the same node id, and starts with its smallest node id.
func FindAllElementaryCycles(d *Directed) [][]int64 {
	s := &cycleState{
		blocked: map[int64]bool{},
		blist:   map[int64]map[int64]bool{},
		stack:   []int64{},
		cycles:  [][]int64{},
	}
	for start := 0; start < len(d.Keys); start++ {
		fg := Subgraph(d, d.Keys[start:])
		// Only the component containing the least node of the subgraph matters for cycles through that node.
		least := d.Keys[start]
		for _, component := range Components(fg) {
			if component[0] != least {
				continue
			}
			if len(component) == 1 && !fg.Edges[least][least] {
				break
			}
			s.stack = []int64{}
			s.blocked = map[int64]bool{}
			s.blist = map[int64]map[int64]bool{}
			s.circuit(least, least, Subgraph(fg, component))
			break
		}
	}
	return s.cycles
}

type cycleState struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *cycleState) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *cycleState) circuit(v int64, start int64, g *Directed) bool {
	found := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range g.sortedTargets(v) {
		if w == start {
			cycle := make([]int64, len(s.stack), len(s.stack)+1)
			copy(cycle, s.stack)
			s.cycles = append(s.cycles, append(cycle, w))
			found = true
		} else if !s.blocked[w] {
			if s.circuit(w, start, g) {
				found = true
			}
		}
	}

	if found {
		s.unblock(v)
	} else {
		for w := range g.Edges[v] {
			if s.blist[w] == nil {
				s.blist[w] = map[int64]bool{}
			}
			s.blist[w][v] = true
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return found
}
