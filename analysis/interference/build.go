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

package interference

import (
	"fmt"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"github.com/awslabs/argot-flow/analysis/liveness"
)

// FromLiveness builds the interference graph of the variables of a: for every instruction, each variable it
// writes interferes with every other variable live after it.
//
// Copies are not special-cased: mov x y makes x and y interfere when y is live after the copy.
func FromLiveness[I comparable](a *liveness.Analysis[I]) (*Graph, error) {
	g := NewGraph()
	for _, v := range a.Variables().Sorted() {
		if _, err := g.AddVariable(v); err != nil {
			return nil, err
		}
	}
	for _, n := range a.Graph().Nodes() {
		for _, instr := range n.Instructions() {
			out := a.Get(instr).Out()
			if out.IsEmpty() {
				continue
			}
			var err error
			a.Written(instr).Each(func(x flowgraph.Variable) {
				out.Each(func(y flowgraph.Variable) {
					if err == nil && x != y {
						err = g.interfere(x, y)
					}
				})
			})
			if err != nil {
				return nil, fmt.Errorf("instruction %v: %w", instr, err)
			}
		}
	}
	return g, nil
}

func (g *Graph) interfere(x, y flowgraph.Variable) error {
	nx, ok := g.nodes[x]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotInGraph, x.Name())
	}
	ny, ok := g.nodes[y]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotInGraph, y.Name())
	}
	return nx.AddInterference(ny)
}
