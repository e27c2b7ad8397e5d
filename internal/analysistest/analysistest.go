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

// Package analysistest contains helpers to load the programs analyzed in tests, and to read the expectations
// written as annotations in their comments.
package analysistest

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/awslabs/argot-flow/analysis/config"
	"github.com/awslabs/argot-flow/analysis/ssaflow"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// LoadTest loads the program in the directory dir, looking for a main.go and a config.yaml. If additional files
// are specified as extraFiles, the program will be loaded using those files too.
func LoadTest(t *testing.T, dir string, extraFiles []string) (ssaflow.LoadedProgram, *config.Config) {
	configFile := filepath.Join(dir, "config.yaml")
	config.SetGlobalConfig(configFile)
	files := []string{filepath.Join(dir, "./main.go")}
	for _, extraFile := range extraFiles {
		files = append(files, filepath.Join(dir, extraFile))
	}

	prog, err := ssaflow.LoadProgram(nil, "", ssa.BuilderMode(0), files)
	if err != nil {
		t.Fatalf("error loading packages: %v", err)
	}
	cfg, err := config.LoadGlobal()
	if err != nil {
		t.Fatalf("error loading global config: %v", err)
	}
	return prog, cfg
}

// Source is a single-file package built from source in memory
type Source struct {
	Fset    *token.FileSet
	File    *ast.File
	Package *ssa.Package
	Program ssaflow.LoadedProgram
}

// BuildSource parses src as the file p.go of package p and builds its SSA form. The source must not import
// packages that are not in the standard library.
func BuildSource(t *testing.T, src string) Source {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	files := []*ast.File{f}
	pkg, _, err := ssautil.BuildPackage(&types.Config{Importer: importer.Default()}, fset,
		types.NewPackage("p", ""), files, ssa.SanityCheckFunctions)
	if err != nil {
		t.Fatalf("failed to build ssa: %v", err)
	}
	return Source{
		Fset:    fset,
		File:    f,
		Package: pkg,
		Program: ssaflow.LoadedProgram{Program: pkg.Prog, Directives: ssaflow.FindDirectives(fset, files)},
	}
}

// LPos is a position without column
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// RemoveColumn returns the position without its column
func RemoveColumn(pos token.Position) LPos {
	return LPos{Line: pos.Line, Filename: pos.Filename}
}

// annotationRegex returns the regex matching annotations of the form "@Name(id1, id2, id3)"
func annotationRegex(name string) *regexp.Regexp {
	return regexp.MustCompile(`@` + regexp.QuoteMeta(name) + `\(((?:\s*\w*\s*,?)*)\)`)
}

// GetAnnotations returns the arguments of the annotations @name(...) in the comments of files, indexed by the
// line that follows the comment. An annotation written just before a function declaration is indexed by the
// line of the declaration.
func GetAnnotations(fset *token.FileSet, files []*ast.File, name string) map[LPos][]string {
	re := annotationRegex(name)
	res := map[LPos][]string{}
	for _, f := range files {
		for _, group := range f.Comments {
			for _, c := range group.List {
				a := re.FindStringSubmatch(c.Text)
				if len(a) < 2 {
					continue
				}
				pos := RemoveColumn(fset.Position(c.Pos()))
				pos.Line++
				args := []string{}
				for _, arg := range strings.Split(a[1], ",") {
					if arg = strings.TrimSpace(arg); arg != "" {
						args = append(args, arg)
					}
				}
				res[pos] = append(res[pos], args...)
			}
		}
	}
	return res
}

// FunctionPos returns the position of the declaration of fn, without column
func FunctionPos(fn *ssa.Function) LPos {
	return RemoveColumn(fn.Prog.Fset.Position(fn.Pos()))
}
