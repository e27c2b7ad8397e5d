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

package flowgraph

import (
	"golang.org/x/exp/slices"
)

// Variable is a storage location that instructions read and write: a register, a local, a stack slot...
// Variables are compared by identity, so implementations must be comparable (pointers usually are).
type Variable interface {
	Name() string
}

// VarSet is an immutable set of variables. The zero value is the empty set.
// Operations never modify their receiver or arguments; they return new sets, or one of their operands when the
// result is equal to it.
type VarSet struct {
	m map[Variable]struct{}
}

// NewVarSet returns the set containing vars
func NewVarSet(vars ...Variable) VarSet {
	if len(vars) == 0 {
		return VarSet{}
	}
	m := make(map[Variable]struct{}, len(vars))
	for _, v := range vars {
		m[v] = struct{}{}
	}
	return VarSet{m: m}
}

// Len returns the number of variables in the set
func (s VarSet) Len() int {
	return len(s.m)
}

// IsEmpty returns true when the set has no element
func (s VarSet) IsEmpty() bool {
	return len(s.m) == 0
}

// Contains returns true if v is in the set
func (s VarSet) Contains(v Variable) bool {
	_, ok := s.m[v]
	return ok
}

// IsSubsetOf returns true if every variable of s is in o
func (s VarSet) IsSubsetOf(o VarSet) bool {
	if len(s.m) > len(o.m) {
		return false
	}
	for v := range s.m {
		if _, ok := o.m[v]; !ok {
			return false
		}
	}
	return true
}

// Equal returns true if s and o contain the same variables
func (s VarSet) Equal(o VarSet) bool {
	return len(s.m) == len(o.m) && s.IsSubsetOf(o)
}

// Union returns s ∪ o
func (s VarSet) Union(o VarSet) VarSet {
	if o.IsSubsetOf(s) {
		return s
	}
	if s.IsSubsetOf(o) {
		return o
	}
	m := make(map[Variable]struct{}, len(s.m)+len(o.m))
	for v := range s.m {
		m[v] = struct{}{}
	}
	for v := range o.m {
		m[v] = struct{}{}
	}
	return VarSet{m: m}
}

// Minus returns s \ o
func (s VarSet) Minus(o VarSet) VarSet {
	var m map[Variable]struct{}
	for v := range s.m {
		if _, ok := o.m[v]; !ok {
			if m == nil {
				m = make(map[Variable]struct{}, len(s.m))
			}
			m[v] = struct{}{}
		}
	}
	if len(m) == len(s.m) {
		return s
	}
	return VarSet{m: m}
}

// Each calls f on every variable of the set, in no particular order
func (s VarSet) Each(f func(Variable)) {
	for v := range s.m {
		f(v)
	}
}

// Sorted returns the variables of the set sorted by name
func (s VarSet) Sorted() []Variable {
	vars := make([]Variable, 0, len(s.m))
	for v := range s.m {
		vars = append(vars, v)
	}
	slices.SortStableFunc(vars, func(a, b Variable) bool { return a.Name() < b.Name() })
	return vars
}

// Names returns the sorted names of the variables of the set
func (s VarSet) Names() []string {
	names := make([]string, 0, len(s.m))
	for v := range s.m {
		names = append(names, v.Name())
	}
	slices.Sort(names)
	return names
}

func (s VarSet) String() string {
	str := "{"
	for i, name := range s.Names() {
		if i > 0 {
			str += ", "
		}
		str += name
	}
	return str + "}"
}
