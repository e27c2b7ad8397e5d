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
	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"golang.org/x/exp/slices"
)

// frontiers returns the dominance frontiers of all the nodes of the tree, computing them on first use.
// frontier[i] lists the arena indices of the frontier of t.nodes[i].
func (t *Tree[I]) frontiers() [][]int {
	t.frontierOnce.Do(func() {
		t.frontier = t.computeFrontiers()
	})
	return t.frontier
}

// computeFrontiers walks up the dominator tree from the predecessors of every join node (a node with at least two
// predecessors), until it reaches the immediate dominator of the join node. The join node is in the frontier of
// every node visited on the way.
func (t *Tree[I]) computeFrontiers() [][]int {
	sets := make([]map[int]bool, len(t.nodes))
	for _, m := range t.nodes {
		preds := m.original.Preds()
		if len(preds) < 2 {
			continue
		}
		for _, p := range preds {
			runner, ok := t.Node(p)
			if !ok {
				// unreachable predecessor
				continue
			}
			for runner != nil && runner != m.parent {
				if sets[runner.index] == nil {
					sets[runner.index] = map[int]bool{}
				}
				sets[runner.index][m.index] = true
				runner = runner.parent
			}
		}
	}
	frontier := make([][]int, len(t.nodes))
	for i, set := range sets {
		for j := range set {
			frontier[i] = append(frontier[i], j)
		}
		slices.SortFunc(frontier[i], func(a, b int) bool {
			return t.nodes[a].original.ID() < t.nodes[b].original.ID()
		})
	}
	return frontier
}

// DominanceFrontier returns the dominance frontier of n, ordered by node id: the nodes m such that n dominates
// a predecessor of m but does not strictly dominate m.
func (t *Tree[I]) DominanceFrontier(n *flowgraph.Node[I]) []*flowgraph.Node[I] {
	tn := t.mustNode(n)
	indices := t.frontiers()[tn.index]
	res := make([]*flowgraph.Node[I], len(indices))
	for i, j := range indices {
		res[i] = t.nodes[j].original
	}
	return res
}

// IteratedDominanceFrontier returns the limit of the sequence DF(S), DF(S ∪ DF(S)), ... for the set of nodes S,
// ordered by node id. This is the set of nodes where SSA construction places phi nodes for a variable defined
// in the nodes of S.
func (t *Tree[I]) IteratedDominanceFrontier(nodes []*flowgraph.Node[I]) []*flowgraph.Node[I] {
	frontier := t.frontiers()
	inResult := make([]bool, len(t.nodes))
	queued := make([]bool, len(t.nodes))
	var worklist []int
	for _, n := range nodes {
		tn := t.mustNode(n)
		if !queued[tn.index] {
			queued[tn.index] = true
			worklist = append(worklist, tn.index)
		}
	}
	for len(worklist) > 0 {
		i := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, j := range frontier[i] {
			inResult[j] = true
			if !queued[j] {
				queued[j] = true
				worklist = append(worklist, j)
			}
		}
	}
	var res []*flowgraph.Node[I]
	for i, in := range inResult {
		if in {
			res = append(res, t.nodes[i].original)
		}
	}
	slices.SortFunc(res, func(a, b *flowgraph.Node[I]) bool { return a.ID() < b.ID() })
	return res
}
