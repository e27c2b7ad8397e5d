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

// Package liveness computes which variables are live before and after each instruction of a control-flow graph.
//
// A variable is live at a point if some path from that point reads it before writing it. The analysis is the
// standard backward dataflow analysis, iterated in reverse postorder until a fixpoint is reached:
//
//	IN[i]  = GEN[i] ∪ (OUT[i] \ KILL[i])
//	OUT[i] = IN[next(i)], or the union of the successors' IN for the last instruction of a block
//
// where GEN and KILL are the variables the instruction reads and writes, as reported by the Architecture.
package liveness

import (
	"fmt"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
)

// Data is the liveness at one point of the program: the variables live before (In) and after (Out) it.
// Data values are immutable and compared with Equal.
type Data struct {
	in  flowgraph.VarSet
	out flowgraph.VarSet
}

// Empty is the liveness with no live variable
var Empty = Data{}

// NewData returns the liveness with the given in and out sets
func NewData(in, out flowgraph.VarSet) Data {
	return Data{in: in, out: out}
}

// In returns the variables live before the point
func (d Data) In() flowgraph.VarSet {
	return d.in
}

// Out returns the variables live after the point
func (d Data) Out() flowgraph.VarSet {
	return d.out
}

// IsEmpty returns true if no variable is live before or after the point
func (d Data) IsEmpty() bool {
	return d.in.IsEmpty() && d.out.IsEmpty()
}

// Equal compares the sets, not how they were built
func (d Data) Equal(o Data) bool {
	return d.in.Equal(o.in) && d.out.Equal(o.out)
}

func (d Data) String() string {
	return fmt.Sprintf("In: %s, Out: %s", d.in, d.out)
}
