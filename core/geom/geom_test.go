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

package geom

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPixelInBounds(t *testing.T) {
	tests := []struct {
		px     Pixel
		w, h   int
		expect bool
	}{
		{Pixel{X: 0, Y: 0}, 10, 10, true},
		{Pixel{X: 9.49, Y: 9.49}, 10, 10, true},
		{Pixel{X: 9.51, Y: 5}, 10, 10, false},
		{Pixel{X: -0.49, Y: 0}, 10, 10, true},
		{Pixel{X: -0.51, Y: 0}, 10, 10, false},
		{Pixel{X: 5, Y: 10}, 10, 10, false},
	}

	for _, test := range tests {
		if got := test.px.InBounds(test.w, test.h); got != test.expect {
			t.Errorf("InBounds(%v, %v, %v): got %v, expected %v", test.px, test.w, test.h, got, test.expect)
		}
	}
}

func Example_pixelRound() {
	col, row := Pixel{X: 3.6, Y: 7.2}.Round()
	fmt.Println(col, row)

	// Output:
	// 4 7
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Errorf("finite vector reported non-finite")
	}
	if IsFinite(r3.Vec{X: math.NaN()}) {
		t.Errorf("NaN vector reported finite")
	}
	if IsFinite(r3.Vec{Z: math.Inf(1)}) {
		t.Errorf("Inf vector reported finite")
	}
}

func TestBounds(t *testing.T) {
	b := EmptyBounds()
	if !b.IsEmpty() {
		t.Errorf("new bounds should be empty")
	}

	b.Extend(r3.Vec{X: -1, Y: 0, Z: 2})
	b.Extend(r3.Vec{X: 3, Y: 4, Z: -2})

	if b.IsEmpty() {
		t.Errorf("extended bounds should not be empty")
	}

	center := b.Center()
	expect := r3.Vec{X: 1, Y: 2, Z: 0}
	if r3.Norm(r3.Sub(center, expect)) > 1e-12 {
		t.Errorf("center: got %v, expected %v", center, expect)
	}

	if !b.Contains(r3.Vec{X: 0, Y: 1, Z: 0}, 0) {
		t.Errorf("interior point not contained")
	}
	if b.Contains(r3.Vec{X: 3.1, Y: 0, Z: 0}, 0) {
		t.Errorf("exterior point contained")
	}
	if !b.Contains(r3.Vec{X: 3.1, Y: 0, Z: 0}, 0.2) {
		t.Errorf("point within epsilon not contained")
	}

	if len(b.Corners()) != 8 {
		t.Errorf("expected 8 corners, got %v", len(b.Corners()))
	}
}

func TestBoundsIntersects(t *testing.T) {
	a := EmptyBounds()
	a.Extend(r3.Vec{})
	a.Extend(r3.Vec{X: 2, Y: 2, Z: 2})

	b := EmptyBounds()
	b.Extend(r3.Vec{X: 1, Y: 1, Z: 1})
	b.Extend(r3.Vec{X: 3, Y: 3, Z: 3})

	c := EmptyBounds()
	c.Extend(r3.Vec{X: 5, Y: 5, Z: 5})
	c.Extend(r3.Vec{X: 6, Y: 6, Z: 6})

	if !a.Intersects(b) || !b.Intersects(a) {
		t.Errorf("overlapping bounds should intersect")
	}
	if a.Intersects(c) {
		t.Errorf("disjoint bounds should not intersect")
	}
}

func TestRayAt(t *testing.T) {
	ray := Ray{Origin: r3.Vec{X: 1}, Dir: r3.Vec{Z: 1}}
	got := ray.At(2.5)
	expect := r3.Vec{X: 1, Z: 2.5}
	if r3.Norm(r3.Sub(got, expect)) > 1e-12 {
		t.Errorf("ray at 2.5: got %v, expected %v", got, expect)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	tr, err := NewTransform([]float64{
		0, -1, 0, 3,
		1, 0, 0, -2,
		0, 0, 1, 5,
		0, 0, 0, 1,
	})
	if err != nil {
		t.Fatalf("transform construction failed: %v", err)
	}

	p := r3.Vec{X: 1.5, Y: -4, Z: 0.25}
	back := tr.Inverted().Apply(tr.Apply(p))
	if r3.Norm(r3.Sub(back, p)) > 1e-10 {
		t.Errorf("round trip moved point: got %v, expected %v", back, p)
	}
}

func TestTransformSingular(t *testing.T) {
	_, err := NewTransform(make([]float64, 16))
	if err == nil {
		t.Errorf("expected error for singular matrix")
	}

	_, err = NewTransform([]float64{1, 2, 3})
	if err == nil {
		t.Errorf("expected error for wrong element count")
	}
}

func TestLookAtTransform(t *testing.T) {
	// Camera 5m above the origin looking straight down
	camToMesh := LookAtTransform(r3.Vec{Z: 5}, r3.Vec{}, r3.Vec{Y: 1})

	// Camera origin maps to the eye position
	eye := camToMesh.Apply(r3.Vec{})
	if r3.Norm(r3.Sub(eye, r3.Vec{Z: 5})) > 1e-10 {
		t.Errorf("camera origin: got %v, expected (0,0,5)", eye)
	}

	// Forward (+Z in camera frame) points down in mesh frame
	fwd := camToMesh.ApplyDir(r3.Vec{Z: 1})
	if r3.Norm(r3.Sub(fwd, r3.Vec{Z: -1})) > 1e-10 {
		t.Errorf("forward direction: got %v, expected (0,0,-1)", fwd)
	}

	// A point 5m in front of the camera lands at the target
	target := camToMesh.Apply(r3.Vec{Z: 5})
	if r3.Norm(target) > 1e-10 {
		t.Errorf("target point: got %v, expected origin", target)
	}
}

func TestApplyRayNormalises(t *testing.T) {
	scaled, err := NewTransform([]float64{
		3, 0, 0, 0,
		0, 3, 0, 0,
		0, 0, 3, 0,
		0, 0, 0, 1,
	})
	if err != nil {
		t.Fatalf("transform construction failed: %v", err)
	}

	out := scaled.ApplyRay(Ray{Dir: r3.Vec{X: 1}})
	if math.Abs(r3.Norm(out.Dir)-1) > 1e-12 {
		t.Errorf("direction not unit length: %v", out.Dir)
	}
}
