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

// Package annotate implements the sub-command that adds a summary of the flow analyses as a comment on every
// analyzed function declaration.
package annotate

import (
	"fmt"
	"go/ast"
	"os"

	"github.com/awslabs/argot-flow/analysis/annotate"
	"github.com/awslabs/argot-flow/analysis/ssaflow"
	"github.com/awslabs/argot-flow/cmd/argot-flow/tools"
	"github.com/awslabs/argot-flow/internal/formatutil"
	"github.com/dave/dst/decorator"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Usage of the annotate sub-command
const Usage = `Annotate the functions of your packages with a summary of their flow analyses.
Usage:
  argot-flow annotate [options] <package path(s)>
Examples:
Print the annotated sources
  % argot-flow annotate ./pkg/...
Rewrite the source files in place
  % argot-flow annotate -w ./pkg/...`

// Flags represents the parsed annotate sub-command flags.
type Flags struct {
	tools.CommonFlags
	write bool
}

// NewFlags returns the parsed annotate sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("annotate")
	write := flags.FlagSet.Bool("w", false, "write the annotated sources to the source files instead of printing them")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, write: *write}, nil
}

// Run runs the annotate tool with flags.
func Run(flags Flags) error {
	if flags.NoColor {
		formatutil.SetColors(false)
	}
	cfg, logger, err := tools.Setup(flags.CommonFlags)
	if err != nil {
		return err
	}

	logger.Infof(formatutil.Faint("Reading sources"))
	pkgConfig := &packages.Config{Mode: ssaflow.PkgLoadMode}
	if flags.Platform != "" {
		pkgConfig.Env = append(os.Environ(), "GOOS="+flags.Platform)
	}
	decorated, err := decorator.Load(pkgConfig, flags.FlagSet.Args()...)
	if err != nil {
		return fmt.Errorf("could not load program: %v", err)
	}
	if len(decorated) == 0 {
		return fmt.Errorf("could not load program: no packages")
	}

	initial := make([]*packages.Package, len(decorated))
	var files []*ast.File
	for i, pack := range decorated {
		initial[i] = pack.Package
		files = append(files, pack.Package.Syntax...)
	}
	if packages.PrintErrors(initial) > 0 {
		return fmt.Errorf("could not load program: errors found, exiting")
	}
	prog, _ := ssautil.AllPackages(initial, ssa.InstantiateGenerics)
	prog.Build()
	loaded := ssaflow.LoadedProgram{
		Program:    prog,
		Packages:   initial,
		Directives: ssaflow.FindDirectives(prog.Fset, files),
	}

	funcs := ssaflow.Functions(loaded, cfg)
	if len(funcs) == 0 {
		return fmt.Errorf("no function to analyze in %v", flags.FlagSet.Args())
	}
	annotator := annotate.New(prog.Fset, ssaflow.AnalyzeAll(funcs, cfg, logger))
	annotator.Logger = logger
	count := annotator.Packages(decorated)
	logger.Infof("Annotated %s functions", formatutil.Bold(count))

	for _, pack := range decorated {
		if flags.write {
			if err := pack.Save(); err != nil {
				return fmt.Errorf("could not save %s: %v", pack.PkgPath, err)
			}
			continue
		}
		if err := annotate.Print(os.Stdout, pack); err != nil {
			return err
		}
	}
	return nil
}
