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

package flowgraph

// FlowControl classifies how control leaves an instruction
type FlowControl int

const (
	// FlowFallThrough means the instruction always continues with the next instruction
	FlowFallThrough FlowControl = iota

	// FlowBranch means the instruction may transfer control to another basic block
	FlowBranch

	// FlowTerminate means the instruction leaves the graph (return, throw, exit...)
	FlowTerminate
)

func (f FlowControl) String() string {
	switch f {
	case FlowFallThrough:
		return "fallthrough"
	case FlowBranch:
		return "branch"
	case FlowTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Architecture is the only instruction-set specific part of the analyses. It classifies the control flow of
// instructions, and reports which variables they read and write.
//
// ReadVariables and WrittenVariables append the variables to buf and return the extended slice, so that callers
// can reuse a buffer across instructions.
type Architecture[I comparable] interface {
	FlowControl(instr I) FlowControl
	ReadVariables(instr I, buf []Variable) []Variable
	WrittenVariables(instr I, buf []Variable) []Variable
}

// ReadSet returns the set of variables read by instr
func ReadSet[I comparable](arch Architecture[I], instr I) VarSet {
	return NewVarSet(arch.ReadVariables(instr, nil)...)
}

// WrittenSet returns the set of variables written by instr
func WrittenSet[I comparable](arch Architecture[I], instr I) VarSet {
	return NewVarSet(arch.WrittenVariables(instr, nil)...)
}
