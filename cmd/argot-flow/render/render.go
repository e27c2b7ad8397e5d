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

// Package render implements the sub-command that renders the graphs computed by the flow analyses in the dot
// format.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/awslabs/argot-flow/analysis/render"
	"github.com/awslabs/argot-flow/analysis/ssaflow"
	"github.com/awslabs/argot-flow/cmd/argot-flow/tools"
	"github.com/awslabs/argot-flow/internal/formatutil"
	"golang.org/x/tools/go/ssa"
)

// Usage of the render sub-command
const Usage = `Render the control-flow graph, the dominator tree, the liveness or the interference graph of functions.
Usage:
  argot-flow render [options] <package path(s)>
Examples:
Render the control-flow graph and the dominator tree of the functions whose name contains Parse
  % argot-flow render -func Parse -graphs cfg,domtree -out graphs ./...
Print the interference graph of one function on the standard output
  % argot-flow render -func '^main\.run$' -graphs interference ./cmd/tool`

// Graph kinds that can be rendered
const (
	GraphCFG          = "cfg"
	GraphDominators   = "domtree"
	GraphLiveness     = "liveness"
	GraphInterference = "interference"
)

// AllGraphs lists the graph kinds in the order they are rendered
var AllGraphs = []string{GraphCFG, GraphDominators, GraphLiveness, GraphInterference}

// Flags represents the parsed render sub-command flags.
type Flags struct {
	tools.CommonFlags
	function string
	graphs   []string
	out      string
}

// NewFlags returns the parsed render sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("render")
	function := flags.FlagSet.String("func", "", "regex matching the full names of the functions to render")
	graphs := flags.FlagSet.String("graphs", strings.Join(AllGraphs, ","), "comma-separated graphs to render")
	out := flags.FlagSet.String("out", "", "output folder for the dot files (standard output if not specified)")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	kinds := strings.Split(*graphs, ",")
	for _, kind := range kinds {
		if !isGraphKind(kind) {
			return Flags{}, fmt.Errorf("graph %q not recognized, expected one of %v", kind, AllGraphs)
		}
	}
	return Flags{CommonFlags: common, function: *function, graphs: kinds, out: *out}, nil
}

func isGraphKind(kind string) bool {
	for _, k := range AllGraphs {
		if k == kind {
			return true
		}
	}
	return false
}

// Run runs the render tool with flags.
func Run(flags Flags) error {
	if flags.NoColor {
		formatutil.SetColors(false)
	}
	cfg, logger, err := tools.Setup(flags.CommonFlags)
	if err != nil {
		return err
	}
	filter, err := regexp.Compile(flags.function)
	if err != nil {
		return fmt.Errorf("invalid function regex: %v", err)
	}

	logger.Infof(formatutil.Faint("Reading sources"))
	prog, err := ssaflow.LoadProgram(nil, flags.Platform, ssa.InstantiateGenerics, flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("could not load program: %v", err)
	}
	var funcs []*ssa.Function
	for _, fn := range ssaflow.Functions(prog, cfg) {
		if filter.MatchString(fn.String()) {
			funcs = append(funcs, fn)
		}
	}
	if len(funcs) == 0 {
		return fmt.Errorf("no function to analyze matching %q", flags.function)
	}

	if flags.out != "" {
		if err := os.MkdirAll(flags.out, 0750); err != nil {
			return fmt.Errorf("could not create output folder: %v", err)
		}
	}
	for _, res := range ssaflow.AnalyzeAll(funcs, cfg, logger) {
		if res.Err != nil {
			logger.Errorf("%v", res.Err)
			continue
		}
		for _, kind := range flags.graphs {
			b, err := Graph(res, kind)
			if err != nil {
				return fmt.Errorf("could not render %s of %s: %v", kind, res.Function, err)
			}
			if flags.out == "" {
				os.Stdout.Write(b)
				continue
			}
			file := filepath.Join(flags.out, FileName(res.Function, kind))
			if err := os.WriteFile(file, b, 0600); err != nil {
				return err
			}
			logger.Infof("%s of %s written in %s", kind, formatutil.Bold(res.Function.String()), file)
		}
	}
	return nil
}

// Graph renders the graph of the given kind computed for res
func Graph(res ssaflow.Result, kind string) ([]byte, error) {
	name := res.Function.Name()
	switch kind {
	case GraphCFG:
		return render.CFG(res.Graph, name)
	case GraphDominators:
		return render.DominatorTree(res.Dominators, name)
	case GraphLiveness:
		return render.Liveness(res.Liveness, name)
	case GraphInterference:
		return render.Interference(res.Interference, name)
	default:
		return nil, fmt.Errorf("graph %q not recognized", kind)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// FileName returns the name of the dot file for the graph of fn
func FileName(fn *ssa.Function, kind string) string {
	return unsafeChars.ReplaceAllString(fn.String(), "_") + "." + kind + ".dot"
}
