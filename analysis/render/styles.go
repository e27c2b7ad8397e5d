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

package render

import (
	"fmt"
	"strings"

	"github.com/awslabs/argot-flow/analysis/dominance"
	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"github.com/awslabs/argot-flow/analysis/interference"
	"github.com/awslabs/argot-flow/analysis/liveness"
	"github.com/awslabs/argot-flow/internal/graphutil"
	"gonum.org/v1/gonum/graph/encoding"
)

var blockNodes = []encoding.Attribute{
	{Key: "shape", Value: "box"},
	{Key: "fontname", Value: "monospace"},
}

func edgeStyle(kind flowgraph.EdgeKind) []encoding.Attribute {
	switch kind {
	case flowgraph.Unconditional:
		return []encoding.Attribute{{Key: "style", Value: "bold"}}
	case flowgraph.Conditional:
		return []encoding.Attribute{{Key: "style", Value: "dashed"}, {Key: "label", Value: kind.String()}}
	case flowgraph.Abnormal:
		return []encoding.Attribute{{Key: "style", Value: "dotted"}, {Key: "color", Value: "red"}}
	default:
		return nil
	}
}

func cfgStyle[I comparable](g *flowgraph.Graph[I], label func(n *flowgraph.Node[I]) string) Style {
	return Style{
		NodeDefaults: blockNodes,
		Node: func(n graphutil.Node) []encoding.Attribute {
			node := n.(*flowgraph.Node[I])
			var attrs []encoding.Attribute
			if label != nil {
				attrs = append(attrs, encoding.Attribute{Key: "label", Value: label(node)})
			}
			if node == g.EntryPoint() {
				attrs = append(attrs, encoding.Attribute{Key: "penwidth", Value: "2"})
			}
			return attrs
		},
		Edge: func(e graphutil.Edge) []encoding.Attribute {
			if ke, ok := e.(interface{ Kind() flowgraph.EdgeKind }); ok {
				return edgeStyle(ke.Kind())
			}
			return nil
		},
	}
}

// CFG returns the DOT representation of a control-flow graph. Nodes show their instructions, and edges are
// styled by kind.
func CFG[I comparable](g *flowgraph.Graph[I], name string) ([]byte, error) {
	return Marshal(g, name, cfgStyle(g, nil))
}

// Liveness returns the DOT representation of the graph analyzed by a, where each instruction is followed by the
// variables live after it
func Liveness[I comparable](a *liveness.Analysis[I], name string) ([]byte, error) {
	g := a.Graph()
	label := func(n *flowgraph.Node[I]) string {
		var b strings.Builder
		fmt.Fprintf(&b, "%s\nin: %s", n, a.NodeLiveness(n).In())
		for _, instr := range n.Instructions() {
			fmt.Fprintf(&b, "\n%v  %s", instr, a.Get(instr).Out())
		}
		fmt.Fprintf(&b, "\nout: %s", a.NodeLiveness(n).Out())
		return b.String()
	}
	return Marshal(g, name, cfgStyle(g, label))
}

// DominatorTree returns the DOT representation of a dominator tree, with edges from immediate dominators to the
// nodes they dominate
func DominatorTree[I comparable](t *dominance.Tree[I], name string) ([]byte, error) {
	return Marshal(t, name, Style{NodeDefaults: blockNodes})
}

// Interference returns the DOT representation of an interference graph. Node labels are variable names.
func Interference(g *interference.Graph, name string) ([]byte, error) {
	return MarshalUndirected(g, name, Style{
		Node: func(n graphutil.Node) []encoding.Attribute {
			deg := n.(*interference.Node).Degree()
			return []encoding.Attribute{{Key: "tooltip", Value: fmt.Sprintf("degree %d", deg)}}
		},
	})
}
