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

// Package annotate writes the results of the flow analyses back into the source, as comments on the function
// declarations. The source is manipulated through dst, so that existing comments and formatting are preserved.
package annotate

import (
	"fmt"
	"go/ast"
	"go/token"
	"io"
	"strings"

	"github.com/awslabs/argot-flow/analysis/config"
	"github.com/awslabs/argot-flow/analysis/ssaflow"
	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/decorator/resolver/gopackages"
)

// Marker starts every comment inserted by the annotator
const Marker = "// flow:"

// Summary is a short description of the analyses of one function
type Summary struct {
	Blocks        int
	Loops         int
	Variables     int
	Interferences int
	MaxDegree     int
	DeadWrites    int
	Passes        int
	Err           error
}

// Summarize returns the summary of res
func Summarize(res ssaflow.Result) Summary {
	if res.Err != nil {
		return Summary{Err: res.Err}
	}
	s := Summary{
		Blocks:        res.Graph.Len(),
		Loops:         len(res.Graph.Loops()),
		Variables:     res.Liveness.Variables().Len(),
		Interferences: res.Interference.EdgeCount(),
		DeadWrites:    len(res.Liveness.DeadWrites()),
		Passes:        res.Liveness.Iterations(),
	}
	for _, n := range res.Interference.Nodes() {
		if d := n.Degree(); d > s.MaxDegree {
			s.MaxDegree = d
		}
	}
	return s
}

// Comment returns the comment line for the summary, starting with Marker
func (s Summary) Comment() string {
	if s.Err != nil {
		return fmt.Sprintf("%s error: %s", Marker, s.Err)
	}
	return fmt.Sprintf("%s %d blocks, %d loops, %d variables, %d interferences (max degree %d), "+
		"%d dead writes, %d passes",
		Marker, s.Blocks, s.Loops, s.Variables, s.Interferences, s.MaxDegree, s.DeadWrites, s.Passes)
}

// Annotator inserts the summaries of analyzed functions in their declarations
type Annotator struct {
	summaries map[ssaflow.DirectivePos]Summary
	Logger    *config.LogGroup
}

// New returns an annotator for the results. Positions of the functions are resolved in fset, which must be the
// file set the decorated files were parsed with.
func New(fset *token.FileSet, results []ssaflow.Result) *Annotator {
	a := &Annotator{summaries: make(map[ssaflow.DirectivePos]Summary, len(results))}
	for _, res := range results {
		// closures have no declaration to annotate
		if res.Function.Parent() != nil || !res.Function.Pos().IsValid() {
			continue
		}
		a.summaries[ssaflow.NewDirectivePos(fset.Position(res.Function.Pos()))] = Summarize(res)
	}
	return a
}

// File annotates the function declarations of file that have a summary, and returns how many were annotated.
// Comments inserted by a previous run are replaced.
func (a *Annotator) File(dec *decorator.Decorator, file *dst.File) int {
	count := 0
	for _, decl := range file.Decls {
		fd, ok := decl.(*dst.FuncDecl)
		if !ok {
			continue
		}
		astDecl, ok := dec.Ast.Nodes[fd].(*ast.FuncDecl)
		if !ok {
			continue
		}
		s, ok := a.summaries[ssaflow.NewDirectivePos(dec.Fset.Position(astDecl.Name.Pos()))]
		if !ok {
			continue
		}
		clearMarkers(&fd.Decs.Start)
		fd.Decs.Start.Append(s.Comment())
		if a.Logger != nil {
			a.Logger.Tracef("annotated %s", fd.Name.Name)
		}
		count++
	}
	return count
}

// Packages annotates all the files of the packages
func (a *Annotator) Packages(packages []*decorator.Package) int {
	count := 0
	for _, pack := range packages {
		for _, file := range pack.Syntax {
			count += a.File(pack.Decorator, file)
		}
	}
	if a.Logger != nil {
		a.Logger.Debugf("annotated %d functions in %d packages", count, len(packages))
	}
	return count
}

// Print writes the files of the package to w, resolving imports from the package's directory
func Print(w io.Writer, pack *decorator.Package) error {
	r := decorator.NewRestorerWithImports(pack.PkgPath, gopackages.New(pack.Dir))
	for _, file := range pack.Syntax {
		if err := r.Fprint(w, file); err != nil {
			return fmt.Errorf("could not print %s: %w", file.Name.Name, err)
		}
	}
	return nil
}

func clearMarkers(decs *dst.Decorations) {
	var kept []string
	for _, d := range decs.All() {
		if !strings.HasPrefix(d, Marker) {
			kept = append(kept, d)
		}
	}
	decs.Replace(kept...)
}
