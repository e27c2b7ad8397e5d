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

// StronglyConnectedComponents is an implementation of Tarjan's strongly connected component (SCC) algorithm
// for generic nodes T.
// Successors returns a slice containing the targets of directed edges out from the given node.
// sccs is a slice of slices containing the nodes in each SCC. The order within the SCC is arbitrary.
// The order of SCCs is toposorted so that successors appear first; i.e. if the graph is a tree then
// in order from leaves towards the root.
//
// The traversal keeps an explicit stack of frames instead of recursing, so that long chains of basic blocks do
// not grow the goroutine stack.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) (sccs [][]T) {
	type frame struct {
		node  T
		succs []T
		next  int
	}
	stack := make([]T, 0)
	onStack := make(map[T]bool)
	index := make(map[T]int)
	lowlink := make(map[T]int)
	nextIndex := 0
	sccs = make([][]T, 0)

	push := func(v T, frames []frame) []frame {
		index[v] = nextIndex
		lowlink[v] = nextIndex
		nextIndex++
		stack = append(stack, v)
		onStack[v] = true
		return append(frames, frame{node: v, succs: successors(v)})
	}

	for _, root := range nodes {
		if _, ok := index[root]; ok {
			continue
		}
		frames := push(root, nil)
		for len(frames) > 0 {
			top := &frames[len(frames)-1]
			v := top.node
			if top.next < len(top.succs) {
				w := top.succs[top.next]
				top.next++
				if _, seen := index[w]; !seen {
					frames = push(w, frames)
				} else if onStack[w] && index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
				continue
			}
			// all successors of v have been visited
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				scc := make([]T, 0)
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, scc)
			}
		}
	}
	return sccs
}

// IsCyclic returns true if the component contains a cycle: it has more than one node, or its only node is its
// own successor.
func IsCyclic[T comparable](scc []T, successors func(T) []T) bool {
	if len(scc) > 1 {
		return true
	}
	for _, s := range scc {
		for _, w := range successors(s) {
			if w == s {
				return true
			}
		}
	}
	return false
}
