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

// Package flowtest provides a toy instruction set to build control-flow graphs in tests. A program is written
// as ';'-separated instructions, one string per basic block:
//
//	push 1; set v1; op; get v1
//
// The instructions are:
//   - push N: pushes a constant, touches no variable
//   - set v: writes v
//   - get v: reads v
//   - mov x y: copies y into x (reads y, writes x)
//   - op [v...]: an operation reading the listed variables
//   - nop: does nothing
//   - br, brif: unconditional and conditional branches
//   - ret [v...], throw: leave the graph, ret reads the listed variables
package flowtest

import (
	"fmt"
	"strings"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
)

// OpCode is the operation of an instruction
type OpCode string

const (
	Push  OpCode = "push"
	Set   OpCode = "set"
	Get   OpCode = "get"
	Mov   OpCode = "mov"
	Op    OpCode = "op"
	Nop   OpCode = "nop"
	Br    OpCode = "br"
	BrIf  OpCode = "brif"
	Ret   OpCode = "ret"
	Throw OpCode = "throw"
)

// Variable is a named variable of a toy program
type Variable struct {
	name string
}

// Name returns the name of the variable
func (v *Variable) Name() string {
	return v.name
}

func (v *Variable) String() string {
	return v.name
}

// Instruction is a toy instruction. Instructions are compared by pointer.
type Instruction struct {
	Offset   int64
	OpCode   OpCode
	Constant string
	Reads    []*Variable
	Writes   []*Variable
}

func (i *Instruction) String() string {
	s := fmt.Sprintf("IL_%04x: %s", i.Offset, i.OpCode)
	if i.Constant != "" {
		s += " " + i.Constant
	}
	for _, w := range i.Writes {
		s += " " + w.name
	}
	for _, r := range i.Reads {
		s += " " + r.name
	}
	return s
}

// Architecture implements flowgraph.Architecture for toy instructions
type Architecture struct{}

// FlowControl implements flowgraph.Architecture
func (Architecture) FlowControl(instr *Instruction) flowgraph.FlowControl {
	switch instr.OpCode {
	case Br, BrIf:
		return flowgraph.FlowBranch
	case Ret, Throw:
		return flowgraph.FlowTerminate
	default:
		return flowgraph.FlowFallThrough
	}
}

// ReadVariables implements flowgraph.Architecture
func (Architecture) ReadVariables(instr *Instruction, buf []flowgraph.Variable) []flowgraph.Variable {
	for _, v := range instr.Reads {
		buf = append(buf, v)
	}
	return buf
}

// WrittenVariables implements flowgraph.Architecture
func (Architecture) WrittenVariables(instr *Instruction, buf []flowgraph.Variable) []flowgraph.Variable {
	for _, v := range instr.Writes {
		buf = append(buf, v)
	}
	return buf
}

// Program is a control-flow graph of toy instructions under construction
type Program struct {
	Graph  *flowgraph.Graph[*Instruction]
	vars   map[string]*Variable
	offset int64
}

// NewProgram returns an empty program
func NewProgram() *Program {
	return &Program{
		Graph: flowgraph.NewGraph[*Instruction](),
		vars:  map[string]*Variable{},
	}
}

// Var returns the variable with the given name, creating it if necessary
func (p *Program) Var(name string) *Variable {
	if v, ok := p.vars[name]; ok {
		return v
	}
	v := &Variable{name: name}
	p.vars[name] = v
	return v
}

// Vars returns the variables with the given names as a set
func (p *Program) Vars(names ...string) flowgraph.VarSet {
	vars := make([]flowgraph.Variable, len(names))
	for i, name := range names {
		vars[i] = p.Var(name)
	}
	return flowgraph.NewVarSet(vars...)
}

// Block parses the code and adds a node with the given id containing the instructions. The first block added
// becomes the entrypoint.
func (p *Program) Block(id int64, code string) (*flowgraph.Node[*Instruction], error) {
	instrs, err := p.parse(code)
	if err != nil {
		return nil, err
	}
	n, err := p.Graph.AddNode(id, instrs...)
	if err != nil {
		return nil, err
	}
	if p.Graph.EntryPoint() == nil {
		if err := p.Graph.SetEntryPoint(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// MustBlock is like Block but panics on error
func (p *Program) MustBlock(id int64, code string) *flowgraph.Node[*Instruction] {
	n, err := p.Block(id, code)
	if err != nil {
		panic(err)
	}
	return n
}

// MustConnect adds an edge from the node with id from to the node with id to, and panics on error
func (p *Program) MustConnect(from, to int64, kind flowgraph.EdgeKind) {
	a, ok1 := p.Graph.Node(from)
	b, ok2 := p.Graph.Node(to)
	if !ok1 || !ok2 {
		panic(fmt.Sprintf("no edge possible between %d and %d", from, to))
	}
	if _, err := a.ConnectWith(b, kind); err != nil {
		panic(err)
	}
}

// Instructions returns all the instructions of the program, by node id then position
func (p *Program) Instructions() []*Instruction {
	var res []*Instruction
	for _, n := range p.Graph.Nodes() {
		res = append(res, n.Instructions()...)
	}
	return res
}

func (p *Program) parse(code string) ([]*Instruction, error) {
	var instrs []*Instruction
	for _, text := range strings.Split(code, ";") {
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		instr := &Instruction{Offset: p.offset, OpCode: OpCode(fields[0])}
		args := fields[1:]
		switch instr.OpCode {
		case Push:
			if len(args) > 1 {
				return nil, fmt.Errorf("push takes at most one constant: %q", text)
			}
			instr.Constant = strings.Join(args, "")
		case Set, Get:
			if len(args) != 1 {
				return nil, fmt.Errorf("%s takes one variable: %q", instr.OpCode, text)
			}
			if instr.OpCode == Set {
				instr.Writes = []*Variable{p.Var(args[0])}
			} else {
				instr.Reads = []*Variable{p.Var(args[0])}
			}
		case Mov:
			if len(args) != 2 {
				return nil, fmt.Errorf("mov takes two variables: %q", text)
			}
			instr.Writes = []*Variable{p.Var(args[0])}
			instr.Reads = []*Variable{p.Var(args[1])}
		case Op, Ret:
			for _, a := range args {
				instr.Reads = append(instr.Reads, p.Var(a))
			}
		case Nop, Br, BrIf, Throw:
			if len(args) != 0 {
				return nil, fmt.Errorf("%s takes no argument: %q", instr.OpCode, text)
			}
		default:
			return nil, fmt.Errorf("unknown instruction %q", text)
		}
		p.offset++
		instrs = append(instrs, instr)
	}
	return instrs, nil
}
