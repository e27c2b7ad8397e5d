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

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/awslabs/argot-flow/internal/funcutil"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the analyses and the functions to analyze.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// if the FunctionFilter is specified
	functionFilterRegex *regexp.Regexp

	// Targets lists the functions to analyze. When empty, every function matching the filters is analyzed.
	Targets []CodeIdentifier `yaml:"targets"`

	// ResultVariables are the names of the variables that are live when a function exits
	ResultVariables []string `yaml:"result-variables"`
}

type Options struct {
	// ReportsDir is the directory where all the reports will be stored. If the yaml config file this config struct
	// has been loaded does not specify a ReportsDir but sets any Report* option to true, then ReportsDir will be
	// created in the folder of the config file.
	ReportsDir string `yaml:"reports-dir"`

	// PkgFilter restricts the analyses to the functions whose package path matches this regex (or prefix, if it is
	// not a valid regex)
	PkgFilter string `yaml:"pkg-filter"`

	// FunctionFilter restricts the analyses to the functions whose name matches this regex (or prefix, if it is
	// not a valid regex)
	FunctionFilter string `yaml:"function-filter"`

	// DominatorAlgorithm is the variant of Lengauer-Tarjan used to build dominator trees: "simple" or
	// "path-compression". Both produce the same trees.
	DominatorAlgorithm string `yaml:"dominator-algorithm"`

	// NumRoutines is the number of functions analyzed in parallel. Values <= 0 mean DefaultNumRoutines.
	NumRoutines int `yaml:"num-routines"`

	// ReportLiveness can be set to true, in which case the liveness of every instruction is written to a file
	// named liveness-*.out in the reports directory
	ReportLiveness bool `yaml:"report-liveness"`

	// ReportInterference can be set to true, in which case the interference graph of each function is written in
	// dot format to a file named interference-*.dot in the reports directory
	ReportInterference bool `yaml:"report-interference"`

	// MaxFunctionSize skips functions with more basic blocks than this. Values <= 0 mean no limit.
	MaxFunctionSize int `yaml:"max-function-size"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:      "",
		Targets:         nil,
		ResultVariables: nil,
		Options: Options{
			ReportsDir:         "",
			PkgFilter:          "",
			FunctionFilter:     "",
			DominatorAlgorithm: DominatorSimple,
			NumRoutines:        DefaultNumRoutines,
			ReportLiveness:     false,
			ReportInterference: false,
			MaxFunctionSize:    0,
			LogLevel:           int(InfoLevel),
			SilenceWarn:        false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadBytes(filename, b)
}

// LoadBytes parses the configuration b, which has been read from filename. The reports directory is created
// relative to filename when needed.
func LoadBytes(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.sourceFile = filename

	switch cfg.DominatorAlgorithm {
	case "":
		cfg.DominatorAlgorithm = DominatorSimple
	case DominatorSimple, DominatorPathCompression:
	default:
		return nil, fmt.Errorf("unknown dominator-algorithm %q, expected %q or %q", cfg.DominatorAlgorithm,
			DominatorSimple, DominatorPathCompression)
	}

	if cfg.ReportLiveness || cfg.ReportInterference {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.NumRoutines <= 0 {
		cfg.NumRoutines = DefaultNumRoutines
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	if cfg.FunctionFilter != "" {
		r, err := regexp.Compile(cfg.FunctionFilter)
		if err == nil {
			cfg.functionFilterRegex = r
		}
	}

	cfg.Targets = funcutil.Map(cfg.Targets, CompileRegexes)
	return cfg, nil
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports")
		}
		c.ReportsDir = tmpdir
	} else {
		err := os.Mkdir(c.ReportsDir, 0750)
		if err != nil {
			if !os.IsExist(err) {
				return fmt.Errorf("could not create directory %s", c.ReportsDir)
			}
		}
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// UsePathCompression returns true when dominator trees should be built with path compression
func (c Config) UsePathCompression() bool {
	return c.DominatorAlgorithm == DominatorPathCompression
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function safely
// considers the case where a filter has been specified by the user, but it could not be compiled to a regex. The safe
// case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	return matchFilter(c.pkgFilterRegex, c.PkgFilter, pkgname)
}

// MatchFunctionFilter returns true if the function name matches the function filter, if specified. It follows
// the same rules as MatchPkgFilter.
func (c Config) MatchFunctionFilter(name string) bool {
	return matchFilter(c.functionFilterRegex, c.FunctionFilter, name)
}

func matchFilter(r *regexp.Regexp, filter string, s string) bool {
	if r != nil {
		return r.MatchString(s)
	} else if filter != "" {
		return strings.HasPrefix(s, filter)
	} else {
		return true
	}
}

// IsTarget returns true if the function identified by cid should be analyzed: it matches one of the targets, or
// there are no targets
func (c Config) IsTarget(cid CodeIdentifier) bool {
	if len(c.Targets) == 0 {
		return true
	}
	return funcutil.Exists(c.Targets, cid.equalOnNonEmptyFields)
}
