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

// Package dominance computes the dominator tree of a control-flow graph, and answers dominance and dominance
// frontier queries on it.
//
// The immediate dominators are computed with the Lengauer-Tarjan algorithm over the depth-first preorder of the
// nodes reachable from the entrypoint. [Build] uses the simple version where the evaluation walks the ancestor
// chain of the link-eval forest; [BuildWithPathCompression] compresses the forest paths. Both produce the same
// tree.
//
// Trees are immutable once built. Queries on a tree may run concurrently: the dominance frontiers are computed
// the first time they are requested, once for the whole tree.
package dominance
