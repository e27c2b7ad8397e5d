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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/awslabs/argot-flow/analysis/config"
	"github.com/awslabs/argot-flow/analysis/render"
)

// WriteLiveness writes the liveness of every instruction of the results to w, one function after the other
func WriteLiveness(w io.Writer, results []Result) error {
	bw := bufio.NewWriter(w)
	for _, res := range results {
		if res.Liveness == nil {
			continue
		}
		fmt.Fprintf(bw, "func %s\n", res.Function)
		for _, n := range res.Graph.Nodes() {
			fmt.Fprintf(bw, "  %s in: %s\n", n, res.Liveness.NodeLiveness(n).In())
			for _, instr := range n.Instructions() {
				fmt.Fprintf(bw, "    %-40s live: %s\n", instr, res.Liveness.Get(instr).Out())
			}
		}
	}
	return bw.Flush()
}

// WriteReports writes the reports requested by the config in its reports directory, and returns the names of
// the files created
func WriteReports(results []Result, cfg *config.Config, logger *config.LogGroup) ([]string, error) {
	var files []string
	if cfg.ReportLiveness {
		f, err := os.CreateTemp(cfg.ReportsDir, "liveness-*.out")
		if err != nil {
			return files, fmt.Errorf("could not create liveness report: %w", err)
		}
		err = WriteLiveness(f, results)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return files, err
		}
		if logger != nil {
			logger.Infof("Liveness report written in %s", f.Name())
		}
		files = append(files, f.Name())
	}
	if cfg.ReportInterference {
		for _, res := range results {
			if res.Interference == nil {
				continue
			}
			b, err := render.Interference(res.Interference, res.Function.Name())
			if err != nil {
				return files, fmt.Errorf("%s: %w", res.Function, err)
			}
			f, err := os.CreateTemp(cfg.ReportsDir, "interference-*.dot")
			if err != nil {
				return files, fmt.Errorf("could not create interference report: %w", err)
			}
			_, err = f.Write(b)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return files, err
			}
			if logger != nil {
				logger.Debugf("Interference graph of %s written in %s", res.Function, f.Name())
			}
			files = append(files, f.Name())
		}
	}
	return files, nil
}
