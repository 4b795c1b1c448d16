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

package backproject

import (
	"sync"
	"testing"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
)

func TestWinnerMapSetIfAbsent(t *testing.T) {
	wm := NewWinnerMap(4, 4)

	first := Winner{Ctx: &observation.Context{Obs: &observation.Observation{Name: "a"}}}
	second := Winner{Ctx: &observation.Context{Obs: &observation.Observation{Name: "b"}}}

	if !wm.SetIfAbsent(1, 2, first) {
		t.Fatalf("first write should commit")
	}
	if wm.SetIfAbsent(1, 2, second) {
		t.Errorf("second write should lose")
	}

	got, ok := wm.Get(1, 2)
	if !ok || got.Ctx.Obs.Name != "a" {
		t.Errorf("texel (1,2): got %v, expected the first writer", got)
	}
	if wm.Count() != 1 {
		t.Errorf("count: got %v, expected 1", wm.Count())
	}
}

func TestWinnerMapConcurrentWriters(t *testing.T) {
	wm := NewWinnerMap(8, 8)

	var wg sync.WaitGroup
	commits := make([]int, 16)
	for worker := 0; worker < 16; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			ctx := &observation.Context{Obs: &observation.Observation{Name: "w"}}
			for row := 0; row < 8; row++ {
				for col := 0; col < 8; col++ {
					if wm.SetIfAbsent(row, col, Winner{Ctx: ctx, Source: geom.Pixel{X: float64(worker)}}) {
						commits[worker]++
					}
				}
			}
		}(worker)
	}
	wg.Wait()

	total := 0
	for _, n := range commits {
		total += n
	}
	if total != 64 {
		t.Errorf("total commits: got %v, expected exactly one per texel", total)
	}
	if wm.Count() != 64 {
		t.Errorf("count: got %v, expected 64", wm.Count())
	}
}

func TestWinnerMapForEach(t *testing.T) {
	wm := NewWinnerMap(4, 4)
	wm.SetIfAbsent(0, 0, Winner{})
	wm.SetIfAbsent(3, 1, Winner{Source: geom.Pixel{X: 7, Y: 9}})

	seen := map[[2]int]Winner{}
	wm.ForEach(func(row, col int, w Winner) {
		seen[[2]int{row, col}] = w
	})

	if len(seen) != 2 {
		t.Fatalf("visited %v texels, expected 2", len(seen))
	}
	if w, ok := seen[[2]int{3, 1}]; !ok || w.Source.X != 7 || w.Source.Y != 9 {
		t.Errorf("texel (3,1): got %v, expected source (7,9)", seen[[2]int{3, 1}])
	}
}
