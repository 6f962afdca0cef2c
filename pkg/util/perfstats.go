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
package util

import (
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

// PerfStats tracks elapsed time and memory churn across the stages of a
// long-running computation.  Each call to Log reports the delta since the
// previous stage and restarts the clock.
type PerfStats struct {
	// Time the current stage started.
	stageStart time.Time
	// Total allocation when the current stage started.
	stageAlloc uint64
	// Number of gc cycles when the current stage started.
	stageGc uint32
}

// NewPerfStats starts tracking from the current point in time.
func NewPerfStats() *PerfStats {
	p := &PerfStats{}
	p.reset()
	// Done
	return p
}

// Log reports time and memory consumed by the stage just finished, then
// begins the next one.
func (p *PerfStats) Log(stage string) {
	var m runtime.MemStats
	//
	runtime.ReadMemStats(&m)
	//
	elapsed := time.Since(p.stageStart)
	allocMb := (m.TotalAlloc - p.stageAlloc) / (1024 * 1024)
	gcs := m.NumGC - p.stageGc
	//
	log.Debugf("%s took %s using %dMb (%d gc cycles)", stage, elapsed.Round(time.Millisecond), allocMb, gcs)
	//
	p.reset()
}

func (p *PerfStats) reset() {
	var m runtime.MemStats
	//
	runtime.ReadMemStats(&m)
	//
	p.stageStart = time.Now()
	p.stageAlloc = m.TotalAlloc
	p.stageGc = m.NumGC
}
