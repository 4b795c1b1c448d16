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

package hull

import (
	"testing"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitBoxHull() ConvexHull {
	b := geom.EmptyBounds()
	b.Extend(r3.Vec{})
	b.Extend(r3.Vec{X: 1, Y: 1, Z: 1})
	return NewFromBounds(b)
}

func TestBoxHullContains(t *testing.T) {
	h := unitBoxHull()

	tests := []struct {
		p      r3.Vec
		eps    float64
		expect bool
	}{
		{r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, 0, true},
		{r3.Vec{}, 0, true}, // corner is on the boundary
		{r3.Vec{X: 1.01, Y: 0.5, Z: 0.5}, 0, false},
		{r3.Vec{X: 1.01, Y: 0.5, Z: 0.5}, 0.02, true},
		{r3.Vec{X: -0.5, Y: -0.5, Z: -0.5}, 0, false},
	}

	for _, test := range tests {
		if got := h.Contains(test.p, test.eps); got != test.expect {
			t.Errorf("Contains(%v, %v): got %v, expected %v", test.p, test.eps, got, test.expect)
		}
	}
}

func TestHullIntersects(t *testing.T) {
	a := unitBoxHull()

	shifted := geom.EmptyBounds()
	shifted.Extend(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	shifted.Extend(r3.Vec{X: 2, Y: 2, Z: 2})
	b := NewFromBounds(shifted)

	far := geom.EmptyBounds()
	far.Extend(r3.Vec{X: 5, Y: 5, Z: 5})
	far.Extend(r3.Vec{X: 6, Y: 6, Z: 6})
	c := NewFromBounds(far)

	if !a.Intersects(b) || !b.Intersects(a) {
		t.Errorf("overlapping hulls should intersect")
	}
	if a.Intersects(c) || c.Intersects(a) {
		t.Errorf("disjoint hulls should not intersect")
	}
}

func TestFrustumHull(t *testing.T) {
	// Square frustum along +Z: near face 1x1 at z=1, far face 4x4 at z=4
	corners := []r3.Vec{
		{X: -0.5, Y: -0.5, Z: 1},
		{X: 0.5, Y: -0.5, Z: 1},
		{X: 0.5, Y: 0.5, Z: 1},
		{X: -0.5, Y: 0.5, Z: 1},
		{X: -2, Y: -2, Z: 4},
		{X: 2, Y: -2, Z: 4},
		{X: 2, Y: 2, Z: 4},
		{X: -2, Y: 2, Z: 4},
	}

	h, err := NewFrustum(corners)
	if err != nil {
		t.Fatalf("frustum construction failed: %v", err)
	}

	inside := []r3.Vec{
		{Z: 2},
		{X: 1, Y: 1, Z: 3.5},
		{Z: 1.01},
	}
	for _, p := range inside {
		if !h.Contains(p, 0) {
			t.Errorf("interior point %v not contained", p)
		}
	}

	outside := []r3.Vec{
		{Z: 0.5},             // before the near plane
		{Z: 5},               // beyond the far plane
		{X: 2, Y: 0, Z: 1.5}, // off to the side
		{X: 0, Y: -3, Z: 3},
	}
	for _, p := range outside {
		if h.Contains(p, 0) {
			t.Errorf("exterior point %v contained", p)
		}
	}
}

func TestFrustumDegenerate(t *testing.T) {
	_, err := NewFrustum([]r3.Vec{{X: 1}})
	if err == nil {
		t.Errorf("expected error for too few corners")
	}
}

func TestHullTransformed(t *testing.T) {
	h := unitBoxHull()
	moved := h.Transformed(geom.TranslationTransform(r3.Vec{X: 10}))

	if !moved.Contains(r3.Vec{X: 10.5, Y: 0.5, Z: 0.5}, 0) {
		t.Errorf("translated hull does not contain translated interior point")
	}
	if moved.Contains(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, 0) {
		t.Errorf("translated hull still contains original interior point")
	}
}
