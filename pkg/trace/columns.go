// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package trace

import "github.com/consensys/go-cairo/pkg/vm"

// Indices of the base columns materialised for every executed step.  The
// layout is fixed: a constraint schema built against a different layout must
// be rejected outright rather than silently reinterpreted.
const (
	// Machine registers.
	ColPc = iota
	ColAp
	ColFp
	// First of the sixteen flag columns; flag i lives at ColFlagBase + i.
	ColFlagBase
	// Biased operand offsets.
	ColOffDst = ColFlagBase + vm.NumFlags
	ColOffOp0 = ColOffDst + 1
	ColOffOp1 = ColOffDst + 2
	// Operand addresses.
	ColDstAddr = ColOffDst + 3
	ColOp0Addr = ColDstAddr + 1
	ColOp1Addr = ColDstAddr + 2
	// Operand values.
	ColDst = ColDstAddr + 3
	ColOp0 = ColDst + 1
	ColOp1 = ColDst + 2
	// Result and auxiliary helper values.
	ColRes  = ColDst + 3
	ColTmp0 = ColRes + 1
	ColTmp1 = ColRes + 2
)

// NumBaseColumns is the total number of base columns produced per step.  A
// constraint schema declaring a different count indicates an incompatible
// schema/trace pairing, which is a fatal construction error.
const NumBaseColumns = ColTmp1 + 1
