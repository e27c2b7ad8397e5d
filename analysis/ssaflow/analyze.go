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
	"fmt"
	"go/types"

	"github.com/awslabs/argot-flow/analysis/config"
	"github.com/awslabs/argot-flow/analysis/dominance"
	"github.com/awslabs/argot-flow/analysis/flowgraph"
	"github.com/awslabs/argot-flow/analysis/interference"
	"github.com/awslabs/argot-flow/analysis/liveness"
	"github.com/awslabs/argot-flow/internal/funcutil"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Result holds the analyses of one function. When Err is not nil, the analyses that could not be computed are
// nil.
type Result struct {
	Function     *ssa.Function
	Graph        *Graph
	Dominators   *dominance.Tree[ssa.Instruction]
	Liveness     *liveness.Analysis[ssa.Instruction]
	Interference *interference.Graph
	Err          error
}

// Identifier returns the code identifier of fn, used to match the targets of the config
func Identifier(fn *ssa.Function) config.CodeIdentifier {
	cid := config.CodeIdentifier{Method: fn.Name()}
	if fn.Pkg != nil {
		cid.Package = fn.Pkg.Pkg.Path()
	}
	if recv := fn.Signature.Recv(); recv != nil {
		cid.Receiver = types.TypeString(recv.Type(), types.RelativeTo(recv.Pkg()))
	}
	return cid
}

// Functions returns the functions of the program to analyze according to the config, sorted by name. Synthetic
// functions, functions without a body and functions with an ignore directive are never analyzed.
func Functions(prog LoadedProgram, cfg *config.Config) []*ssa.Function {
	var funcs []*ssa.Function
	for fn := range ssautil.AllFunctions(prog.Program) {
		if fn.Synthetic != "" || len(fn.Blocks) == 0 || fn.Pkg == nil {
			continue
		}
		if !cfg.MatchPkgFilter(fn.Pkg.Pkg.Path()) || !cfg.MatchFunctionFilter(fn.Name()) {
			continue
		}
		if !cfg.IsTarget(Identifier(fn)) {
			continue
		}
		if cfg.MaxFunctionSize > 0 && len(fn.Blocks) > cfg.MaxFunctionSize {
			continue
		}
		if prog.Directives != nil && prog.Directives.IsIgnored(prog.Program.Fset, fn) {
			continue
		}
		funcs = append(funcs, fn)
	}
	slices.SortFunc(funcs, func(a, b *ssa.Function) bool { return a.String() < b.String() })
	return funcs
}

// ResultVariables returns the parameters and free variables of fn whose names are listed in the config's
// result-variables
func ResultVariables(fn *ssa.Function, cfg *config.Config) flowgraph.VarSet {
	var vars []flowgraph.Variable
	for _, p := range fn.Params {
		if slices.Contains(cfg.ResultVariables, p.Name()) {
			vars = append(vars, p)
		}
	}
	for _, fv := range fn.FreeVars {
		if slices.Contains(cfg.ResultVariables, fv.Name()) {
			vars = append(vars, fv)
		}
	}
	return flowgraph.NewVarSet(vars...)
}

// AnalyzeFunction builds the control-flow graph of fn, and computes its dominator tree, its liveness and its
// interference graph. The logger may be nil.
func AnalyzeFunction(fn *ssa.Function, cfg *config.Config, logger *config.LogGroup) Result {
	res := Result{Function: fn}
	g, err := FromFunction(fn)
	if err != nil {
		res.Err = err
		return res
	}
	res.Graph = g

	if cfg.UsePathCompression() {
		res.Dominators, err = dominance.BuildWithPathCompression(g)
	} else {
		res.Dominators, err = dominance.Build(g)
	}
	if err != nil {
		res.Err = fmt.Errorf("%s: dominators: %w", fn, err)
		return res
	}

	analyzer := liveness.NewAnalyzer[ssa.Instruction](Architecture{})
	analyzer.Logger = logger
	res.Liveness, err = analyzer.AnalyzeWithResults(g, ResultVariables(fn, cfg))
	if err != nil {
		res.Err = fmt.Errorf("%s: liveness: %w", fn, err)
		return res
	}

	res.Interference, err = interference.FromLiveness(res.Liveness)
	if err != nil {
		res.Err = fmt.Errorf("%s: interference: %w", fn, err)
		return res
	}
	if logger != nil {
		logger.Debugf("%s: %d blocks, %d variables, %d interferences, %d passes", fn, g.Len(),
			res.Interference.Len(), res.Interference.EdgeCount(), res.Liveness.Iterations())
	}
	return res
}

// AnalyzeAll analyzes the functions in parallel, with cfg.NumRoutines goroutines. Functions do not share any
// state, and the results are in the order of funcs.
func AnalyzeAll(funcs []*ssa.Function, cfg *config.Config, logger *config.LogGroup) []Result {
	return funcutil.MapParallel(funcs, func(fn *ssa.Function) Result {
		return AnalyzeFunction(fn, cfg, logger)
	}, cfg.NumRoutines)
}
