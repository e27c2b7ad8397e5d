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

package ssaflow

import (
	"errors"
	"fmt"
	"go/types"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"golang.org/x/tools/go/ssa"
)

// ErrNoBody is returned when building the graph of a function without a body, such as external functions
var ErrNoBody = errors.New("function has no body")

// Graph is the control-flow graph of a function in SSA form
type Graph = flowgraph.Graph[ssa.Instruction]

// FromFunction returns the control-flow graph of fn. Each basic block of fn is a node whose id is the index of
// the block. The entrypoint is the first block.
//
// Edges follow the control-flow instructions terminating the blocks: the true branch of an *ssa.If is a
// conditional edge and its false branch a fall-through edge, and an *ssa.Jump is an unconditional edge. When fn
// has a recover block, every other block has an abnormal edge to it, since a panic in any block may resume
// there.
func FromFunction(fn *ssa.Function) (*Graph, error) {
	if len(fn.Blocks) == 0 {
		return nil, fmt.Errorf("%s: %w", fn, ErrNoBody)
	}
	g := flowgraph.NewGraph[ssa.Instruction]()
	nodes := make([]*flowgraph.Node[ssa.Instruction], len(fn.Blocks))
	for i, block := range fn.Blocks {
		n, err := g.AddNode(int64(block.Index), block.Instrs...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		nodes[i] = n
	}
	if err := g.SetEntryPoint(nodes[0]); err != nil {
		return nil, err
	}
	for i, block := range fn.Blocks {
		if err := connect(nodes, i, block); err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
	}
	if fn.Recover != nil {
		rec := nodes[indexOf(fn, fn.Recover)]
		for _, n := range nodes {
			if n == rec {
				continue
			}
			if _, err := n.ConnectWith(rec, flowgraph.Abnormal); err != nil {
				return nil, fmt.Errorf("%s: %w", fn, err)
			}
		}
	}
	return g, nil
}

func connect(nodes []*flowgraph.Node[ssa.Instruction], i int, block *ssa.BasicBlock) error {
	n := nodes[i]
	if len(block.Instrs) == 0 {
		return nil
	}
	switch block.Instrs[len(block.Instrs)-1].(type) {
	case *ssa.If:
		if _, err := n.ConnectWith(nodes[block.Succs[0].Index], flowgraph.Conditional); err != nil {
			return err
		}
		_, err := n.ConnectWith(nodes[block.Succs[1].Index], flowgraph.FallThrough)
		return err
	case *ssa.Jump:
		_, err := n.ConnectWith(nodes[block.Succs[0].Index], flowgraph.Unconditional)
		return err
	default:
		// other successors, if any, fall through
		for j, succ := range block.Succs {
			kind := flowgraph.Conditional
			if j == 0 {
				kind = flowgraph.FallThrough
			}
			if _, err := n.ConnectWith(nodes[succ.Index], kind); err != nil {
				return err
			}
		}
		return nil
	}
}

func indexOf(fn *ssa.Function, block *ssa.BasicBlock) int {
	for i, b := range fn.Blocks {
		if b == block {
			return i
		}
	}
	return -1
}

// Architecture implements flowgraph.Architecture for SSA instructions. The variables are the SSA values that
// hold a result at run time: parameters, free variables and value instructions. Constants, globals, functions
// and builtins are not variables.
//
// A phi reads its edges at the beginning of its block, which is a conservative approximation of the reads
// happening at the end of the predecessors.
type Architecture struct{}

// FlowControl implements flowgraph.Architecture
func (Architecture) FlowControl(instr ssa.Instruction) flowgraph.FlowControl {
	switch instr.(type) {
	case *ssa.If, *ssa.Jump:
		return flowgraph.FlowBranch
	case *ssa.Return, *ssa.Panic:
		return flowgraph.FlowTerminate
	default:
		return flowgraph.FlowFallThrough
	}
}

// ReadVariables implements flowgraph.Architecture
func (Architecture) ReadVariables(instr ssa.Instruction, buf []flowgraph.Variable) []flowgraph.Variable {
	var ops [8]*ssa.Value
	for _, op := range instr.Operands(ops[:0]) {
		if op != nil && *op != nil && IsVariable(*op) {
			buf = append(buf, *op)
		}
	}
	return buf
}

// WrittenVariables implements flowgraph.Architecture
func (Architecture) WrittenVariables(instr ssa.Instruction, buf []flowgraph.Variable) []flowgraph.Variable {
	if v, ok := instr.(ssa.Value); ok && IsVariable(v) {
		buf = append(buf, v)
	}
	return buf
}

// IsVariable returns true if v holds a value computed at run time. Value instructions that produce no result,
// such as calls to functions without results, are not variables.
func IsVariable(v ssa.Value) bool {
	switch v.(type) {
	case *ssa.Parameter, *ssa.FreeVar:
		return true
	case ssa.Instruction:
		if t, ok := v.Type().(*types.Tuple); ok && t.Len() == 0 {
			return false
		}
		return true
	default:
		return false
	}
}
