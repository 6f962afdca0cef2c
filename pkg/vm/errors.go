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
package vm

import "errors"

// ErrMalformedInput indicates a truncated binary stream, a word value at or
// above the field modulus, or an access to a memory cell which is required to
// be present but was never written.  Such errors are fatal: they indicate the
// recorded execution is unusable, not a transient condition.
var ErrMalformedInput = errors.New("malformed input")

// ErrMalformedInstruction indicates a flag combination outside the defined
// decoding table (e.g. an undefined op1 source or res logic pattern).  This
// signals an incompatibility between the recorded machine and the constraint
// system, and is always fatal.
var ErrMalformedInstruction = errors.New("malformed instruction")

// ErrModulusMismatch indicates the field modulus declared by a compiled
// program differs from the active field.  Checked once, at program load,
// before any proving work begins.
var ErrModulusMismatch = errors.New("modulus mismatch")
