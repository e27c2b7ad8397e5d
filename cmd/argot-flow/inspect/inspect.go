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

// Package inspect implements the sub-command that runs the flow analyses on the functions of a program and prints a
// summary of each analysis.
package inspect

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/awslabs/argot-flow/analysis/ssaflow"
	"github.com/awslabs/argot-flow/cmd/argot-flow/tools"
	"github.com/awslabs/argot-flow/internal/formatutil"
	"golang.org/x/tools/go/ssa"
)

// Usage of the inspect sub-command
const Usage = `Run the dominance, liveness and interference analyses on the functions of your packages.
Usage:
  argot-flow inspect [options] <package path(s)>
Examples:
  % argot-flow inspect -config config.yaml ./...
  % argot-flow inspect -liveness ./cmd/...`

// Flags represents the parsed inspect sub-command flags.
type Flags struct {
	tools.CommonFlags
	liveness bool
}

// NewFlags returns the parsed inspect sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("inspect")
	liveness := flags.FlagSet.Bool("liveness", false, "print the live variables after every instruction")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, liveness: *liveness}, nil
}

// Run runs the inspect tool with flags.
func Run(flags Flags) error {
	if flags.NoColor {
		formatutil.SetColors(false)
	}
	cfg, logger, err := tools.Setup(flags.CommonFlags)
	if err != nil {
		return err
	}

	logger.Infof(formatutil.Faint("Reading sources"))
	start := time.Now()
	prog, err := ssaflow.LoadProgram(nil, flags.Platform, ssa.InstantiateGenerics, flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("could not load program: %v", err)
	}
	logger.Debugf("Program loaded in %.3f s", time.Since(start).Seconds())

	funcs := ssaflow.Functions(prog, cfg)
	if len(funcs) == 0 {
		return fmt.Errorf("no function to analyze in %v", flags.FlagSet.Args())
	}
	logger.Infof(formatutil.Faint(fmt.Sprintf("Analyzing %d functions", len(funcs))))
	start = time.Now()
	results := ssaflow.AnalyzeAll(funcs, cfg, logger)
	logger.Infof(formatutil.Faint(fmt.Sprintf("Analyzed in %.3f s", time.Since(start).Seconds())))

	failed := PrintSummary(os.Stdout, results)
	if flags.liveness {
		if err := ssaflow.WriteLiveness(os.Stdout, results); err != nil {
			return err
		}
	}
	if _, err := ssaflow.WriteReports(results, cfg, logger); err != nil {
		return err
	}
	if failed > 0 {
		logger.Warnf("%d functions could not be analyzed", failed)
	}
	return nil
}

// PrintSummary prints one line per result to w and returns the number of results with an error
func PrintSummary(w io.Writer, results []ssaflow.Result) int {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", formatutil.Red("FAIL"), res.Function, res.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s: %d blocks, %d loops, %d variables, %d interferences, %d passes\n",
			formatutil.Green("OK"), formatutil.Bold(res.Function.String()), res.Graph.Len(),
			len(res.Graph.Loops()), res.Liveness.Variables().Len(), res.Interference.EdgeCount(),
			res.Liveness.Iterations())
		if dead := res.Liveness.DeadWrites(); len(dead) > 0 {
			fmt.Fprintf(w, "   %s %d values are never read\n", formatutil.Yellow("dead:"), len(dead))
		}
	}
	return failed
}
