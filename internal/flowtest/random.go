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

package flowtest

import (
	"fmt"
	"math/rand"

	"github.com/awslabs/argot-flow/analysis/flowgraph"
)

// RandomProgram returns a program with size blocks whose instructions read and write among numVars variables.
// Block 0 is the entrypoint. Some blocks may be unreachable. The same seed always produces the same program.
func RandomProgram(size int, numVars int, seed int64) *Program {
	r := rand.New(rand.NewSource(seed))
	p := NewProgram()
	for i := 0; i < size; i++ {
		var code string
		for j := r.Intn(4); j > 0; j-- {
			v := fmt.Sprintf("v%d", r.Intn(numVars))
			switch r.Intn(3) {
			case 0:
				code += "set " + v + ";"
			case 1:
				code += "get " + v + ";"
			default:
				code += fmt.Sprintf("mov %s v%d;", v, r.Intn(numVars))
			}
		}
		if r.Float32() < 0.15 {
			code += "ret"
		}
		p.MustBlock(int64(i), code)
	}
	for i := 0; i < size; i++ {
		n, _ := p.Graph.Node(int64(i))
		if footer, ok := n.Footer(); ok && footer.OpCode == Ret {
			continue
		}
		if r.Float32() < 0.8 {
			p.MustConnect(int64(i), int64(r.Intn(size)), flowgraph.FallThrough)
		}
		for j := 0; j < 2; j++ {
			if r.Float32() < 0.4 {
				p.MustConnect(int64(i), int64(r.Intn(size)), flowgraph.Conditional)
			}
		}
		if r.Float32() < 0.05 {
			p.MustConnect(int64(i), int64(r.Intn(size)), flowgraph.Abnormal)
		}
	}
	return p
}
