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

package liveness

import (
	"github.com/awslabs/argot-flow/analysis/flowgraph"
)

// Analysis is the result of a liveness analysis. It is never modified once returned by the Analyzer.
type Analysis[I comparable] struct {
	graph      *flowgraph.Graph[I]
	arch       flowgraph.Architecture[I]
	order      []*flowgraph.Node[I]
	variables  flowgraph.VarSet
	iterations int

	// seeds are the variables live after the exit nodes
	seeds map[*flowgraph.Node[I]]flowgraph.VarSet

	// gen and kill cache the variables read and written by each instruction
	gen  map[I]flowgraph.VarSet
	kill map[I]flowgraph.VarSet

	instrs map[I]Data
	nodes  map[*flowgraph.Node[I]]Data
}

// Graph returns the graph that was analyzed
func (a *Analysis[I]) Graph() *flowgraph.Graph[I] {
	return a.graph
}

// Architecture returns the architecture used to analyze the graph
func (a *Analysis[I]) Architecture() flowgraph.Architecture[I] {
	return a.arch
}

// Variables returns every variable read or written by the analyzed instructions, and the variables live after
// the exit nodes
func (a *Analysis[I]) Variables() flowgraph.VarSet {
	return a.variables
}

// Iterations returns the number of passes it took to reach the fixpoint, including the last pass that did not
// change anything
func (a *Analysis[I]) Iterations() int {
	return a.iterations
}

// Get returns the liveness of instr. Instructions that were not analyzed, such as unreachable instructions,
// have the Empty liveness.
func (a *Analysis[I]) Get(instr I) Data {
	return a.instrs[instr]
}

// Contains returns true if instr was analyzed
func (a *Analysis[I]) Contains(instr I) bool {
	_, ok := a.instrs[instr]
	return ok
}

// NodeLiveness returns the liveness at the boundaries of n. The In of an empty node is its Out.
func (a *Analysis[I]) NodeLiveness(n *flowgraph.Node[I]) Data {
	return a.nodes[n]
}

// Nodes returns the analyzed nodes, in the reverse postorder used by the fixpoint
func (a *Analysis[I]) Nodes() []*flowgraph.Node[I] {
	res := make([]*flowgraph.Node[I], len(a.order))
	copy(res, a.order)
	return res
}

// Written returns the variables written by instr, as reported by the architecture
func (a *Analysis[I]) Written(instr I) flowgraph.VarSet {
	if kill, ok := a.kill[instr]; ok {
		return kill
	}
	return flowgraph.WrittenSet(a.arch, instr)
}

// LiveAt returns the analyzed instructions after which v is live, in reverse postorder of their nodes
func (a *Analysis[I]) LiveAt(v flowgraph.Variable) []I {
	var res []I
	for _, n := range a.order {
		for _, instr := range n.Instructions() {
			if a.instrs[instr].out.Contains(v) {
				res = append(res, instr)
			}
		}
	}
	return res
}

// DeadWrites returns the analyzed instructions that write variables and none of whose written variables is
// live after them, in reverse postorder of their nodes. Instructions with such dead writes may still have other
// effects.
func (a *Analysis[I]) DeadWrites() []I {
	var res []I
	for _, n := range a.order {
		for _, instr := range n.Instructions() {
			kill := a.kill[instr]
			if kill.IsEmpty() {
				continue
			}
			out := a.instrs[instr].out
			dead := true
			kill.Each(func(v flowgraph.Variable) {
				dead = dead && !out.Contains(v)
			})
			if dead {
				res = append(res, instr)
			}
		}
	}
	return res
}
