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
	"errors"

	"github.com/awslabs/argot-flow/analysis/config"
	"github.com/awslabs/argot-flow/analysis/flowgraph"
)

// ErrNoEntryPoint is returned when analyzing a graph that has no entrypoint
var ErrNoEntryPoint = errors.New("liveness: the graph has no entrypoint")

// ExitNode is a node leaving the graph, with the variables that are live after it (e.g. the results of a
// function)
type ExitNode[I comparable] struct {
	Node    *flowgraph.Node[I]
	Results flowgraph.VarSet
}

// Analyzer computes liveness analyses of graphs of instructions of type I
type Analyzer[I comparable] struct {
	Architecture flowgraph.Architecture[I]

	// Logger is optional. When set, the analyzer reports the progress of the fixpoint at the debug and trace
	// levels.
	Logger *config.LogGroup
}

// NewAnalyzer returns an analyzer for the given architecture
func NewAnalyzer[I comparable](arch flowgraph.Architecture[I]) *Analyzer[I] {
	return &Analyzer[I]{Architecture: arch}
}

// ExitNodes returns the nodes of g whose last instruction terminates, each with the results variables
func ExitNodes[I comparable](g *flowgraph.Graph[I], arch flowgraph.Architecture[I],
	results flowgraph.VarSet) []ExitNode[I] {
	var exits []ExitNode[I]
	for _, n := range g.Nodes() {
		if footer, ok := n.Footer(); ok && arch.FlowControl(footer) == flowgraph.FlowTerminate {
			exits = append(exits, ExitNode[I]{Node: n, Results: results})
		}
	}
	return exits
}

// AnalyzeGraph analyzes g assuming that no variable is live when the graph exits
func (a *Analyzer[I]) AnalyzeGraph(g *flowgraph.Graph[I]) (*Analysis[I], error) {
	return a.Analyze(g, nil)
}

// AnalyzeWithResults analyzes g assuming that the results variables are live after every node terminating the
// graph
func (a *Analyzer[I]) AnalyzeWithResults(g *flowgraph.Graph[I], results flowgraph.VarSet) (*Analysis[I], error) {
	return a.Analyze(g, ExitNodes(g, a.Architecture, results))
}

// Analyze computes the liveness of every instruction reachable from the entrypoint of g. The variables of each
// exit node are live after that node.
func (a *Analyzer[I]) Analyze(g *flowgraph.Graph[I], exits []ExitNode[I]) (*Analysis[I], error) {
	if g.EntryPoint() == nil {
		return nil, ErrNoEntryPoint
	}
	res := &Analysis[I]{
		graph:  g,
		arch:   a.Architecture,
		order:  g.ReversePostOrder(),
		seeds:  map[*flowgraph.Node[I]]flowgraph.VarSet{},
		gen:    map[I]flowgraph.VarSet{},
		kill:   map[I]flowgraph.VarSet{},
		instrs: map[I]Data{},
		nodes:  map[*flowgraph.Node[I]]Data{},
	}
	var buf []flowgraph.Variable
	for _, n := range res.order {
		res.nodes[n] = Empty
		for _, instr := range n.Instructions() {
			res.instrs[instr] = Empty
			buf = a.Architecture.ReadVariables(instr, buf[:0])
			res.gen[instr] = flowgraph.NewVarSet(buf...)
			buf = a.Architecture.WrittenVariables(instr, buf[:0])
			res.kill[instr] = flowgraph.NewVarSet(buf...)
			res.variables = res.variables.Union(res.gen[instr]).Union(res.kill[instr])
		}
	}
	for _, exit := range exits {
		res.variables = res.variables.Union(exit.Results)
		if _, reachable := res.nodes[exit.Node]; !reachable {
			continue
		}
		res.seeds[exit.Node] = res.seeds[exit.Node].Union(exit.Results)
		res.nodes[exit.Node] = Data{out: res.seeds[exit.Node]}
	}

	for {
		res.iterations++
		changed := res.pass()
		if a.Logger != nil {
			a.Logger.Tracef("liveness: pass %d over %d nodes, changed: %v", res.iterations, len(res.order), changed)
		}
		if !changed {
			break
		}
	}
	if a.Logger != nil {
		a.Logger.Debugf("liveness: fixpoint reached after %d passes, %d variables, %d nodes",
			res.iterations, res.variables.Len(), len(res.order))
	}
	return res, nil
}

// pass applies the dataflow equations once to every reachable node, in reverse postorder. It returns true if
// the liveness of some node or instruction changed.
func (a *Analysis[I]) pass() bool {
	changed := false
	for _, n := range a.order {
		out := a.seeds[n]
		for _, succ := range n.Succs() {
			out = out.Union(a.nodes[succ].in)
		}
		instrs := n.Instructions()
		live := out
		for i := len(instrs) - 1; i >= 0; i-- {
			instr := instrs[i]
			d := Data{in: a.gen[instr].Union(live.Minus(a.kill[instr])), out: live}
			if !d.Equal(a.instrs[instr]) {
				a.instrs[instr] = d
				changed = true
			}
			live = d.in
		}
		// an empty node behaves like a no-op: its In is its Out
		d := Data{in: live, out: out}
		if !d.Equal(a.nodes[n]) {
			a.nodes[n] = d
			changed = true
		}
	}
	return changed
}
