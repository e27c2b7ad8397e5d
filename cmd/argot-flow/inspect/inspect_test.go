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

package inspect

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/awslabs/argot-flow/analysis/config"
	"github.com/awslabs/argot-flow/analysis/ssaflow"
	"github.com/awslabs/argot-flow/internal/analysistest"
	"github.com/awslabs/argot-flow/internal/formatutil"
)

const source = `package p

func dead(a int) int {
	b := a * 2
	_ = b
	return a
}
`

func TestPrintSummary(t *testing.T) {
	formatutil.SetColors(false)
	fn := analysistest.BuildSource(t, source).Package.Func("dead")
	results := []ssaflow.Result{
		ssaflow.AnalyzeFunction(fn, config.NewDefault(), nil),
		{Function: fn, Err: errors.New("broken")},
	}
	var buf bytes.Buffer
	if failed := PrintSummary(&buf, results); failed != 1 {
		t.Errorf("expected one failure, got %d", failed)
	}
	out := buf.String()
	if !strings.Contains(out, "OK p.dead: 1 blocks, 0 loops") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "dead: 1 values are never read") {
		t.Errorf("a * 2 is never read:\n%s", out)
	}
	if !strings.Contains(out, "FAIL p.dead: broken") {
		t.Errorf("expected the failure in the summary:\n%s", out)
	}
}

func TestNewFlags(t *testing.T) {
	flags, err := NewFlags([]string{"-liveness", "-no-color", "./..."})
	if err != nil {
		t.Fatal(err)
	}
	if !flags.liveness || !flags.NoColor || flags.FlagSet.Arg(0) != "./..." {
		t.Errorf("unexpected flags %+v", flags)
	}
}
