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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/argot-flow/cmd/argot-flow/annotate"
	"github.com/awslabs/argot-flow/cmd/argot-flow/inspect"
	"github.com/awslabs/argot-flow/cmd/argot-flow/render"
	"github.com/awslabs/argot-flow/cmd/argot-flow/tools"
)

// Version of the argot-flow tool
const Version = "v0.1.0"

const usage = `Argot-flow: control-flow, dominance, liveness and interference analyses of Go functions
Usage:
  argot-flow [tool] [options] <package path(s)>
Tools:
  - inspect: runs the analyses and prints a summary for each function, optionally with the liveness
  - render: renders the control-flow graph, dominator tree, liveness or interference graph in dot format
  - annotate: adds a summary of the analyses as a comment on each function declaration
Examples:
  Inspect a package with a config: argot-flow inspect -config=config.yaml ./pkg
  Render interference graphs: argot-flow render -graphs interference -out graphs ./pkg`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "inspect":
		flags, err := inspect.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := inspect.Run(flags); err != nil {
			errExit(err)
		}
	case "render":
		flags, err := render.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := render.Run(flags); err != nil {
			errExit(err)
		}
	case "annotate":
		flags, err := annotate.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := annotate.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
