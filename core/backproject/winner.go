// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Backprojection driver: assigns every destination texel to the best
// observation that can actually see its surface point, escalating through
// preference levels and falling back to orbital imagery.
package backproject

import (
	"fmt"
	"strconv"
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
)

// Winner - the resolved assignment for one destination texel. A nil Ctx is
// the explicit "no observation" sentinel: the texel was processed but nothing
// could see it, and the compositor fills it instead.
type Winner struct {
	Ctx    *observation.Context
	Source geom.Pixel
}

// WinnerMap - concurrent texel-to-winner assignment supporting at-most-one
// successful write per texel. Losers never write, so whichever worker commits
// first owns the texel permanently.
type WinnerMap struct {
	m      cmap.ConcurrentMap[string, Winner]
	width  int
	height int
}

func NewWinnerMap(width, height int) *WinnerMap {
	return &WinnerMap{
		m:      cmap.New[Winner](),
		width:  width,
		height: height,
	}
}

func (wm *WinnerMap) Width() int  { return wm.width }
func (wm *WinnerMap) Height() int { return wm.height }

func key(row, col int) string {
	return fmt.Sprintf("%d,%d", row, col)
}

func parseKey(k string) (int, int) {
	parts := strings.SplitN(k, ",", 2)
	row, _ := strconv.Atoi(parts[0])
	col, _ := strconv.Atoi(parts[1])
	return row, col
}

// SetIfAbsent - records a winner unless the texel is already resolved.
// Returns true when this call committed the assignment.
func (wm *WinnerMap) SetIfAbsent(row, col int, w Winner) bool {
	return wm.m.SetIfAbsent(key(row, col), w)
}

func (wm *WinnerMap) Get(row, col int) (Winner, bool) {
	return wm.m.Get(key(row, col))
}

func (wm *WinnerMap) Count() int {
	return wm.m.Count()
}

// ForEach - visits every resolved texel. Safe only after the driver has
// finished writing.
func (wm *WinnerMap) ForEach(fn func(row, col int, w Winner)) {
	for k, w := range wm.m.Items() {
		row, col := parseKey(k)
		fn(row, col, w)
	}
}

// Counters - diagnostic loser tallies. Incremented atomically by workers,
// read only after the run completes. Glancing-angle rejections count as
// occluded.
type Counters struct {
	Occluded         int64
	Masked           int64
	OutOfFrame       int64
	ProjectionErrors int64
	OutOfHull        int64
	NonFinite        int64
}

// Stats - run summary. Every generated sample point lands in exactly one of
// the three pixel counts.
type Stats struct {
	BackprojectedSurfacePixels int
	BackprojectedOrbitalPixels int
	MissingPixels              int

	Counters Counters
}
