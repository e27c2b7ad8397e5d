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

// @Live(n) @Loops(1) @Cycles(1)
func sum(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	return s
}

// @Live(c, a, b) @Loops(0) @Cycles(0)
func choose(c bool, a, b int) int {
	x := a + 1
	y := b + 2
	if c {
		return x
	}
	return y
}

// @Live(a) @Loops(0) @Cycles(0)
func first(a, b int) int {
	return a
}

// @Live(n) @Loops(1) @Cycles(2)
func nested(n int) int {
	t := 0
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			t += j
		}
	}
	return t
}

//argot:ignore
func ignored(a int) int {
	return a
}

func main() {
	println(sum(3), choose(true, 1, 2), first(1, 2), nested(4), ignored(0))
}
