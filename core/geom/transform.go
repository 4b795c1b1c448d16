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

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform - a 4x4 affine transform between two 3D frames (typically mesh
// frame <-> observation camera frame). Backed by gonum matrices so we get
// inversion for free. Immutable once constructed.
type Transform struct {
	m   *mat.Dense
	inv *mat.Dense
}

// NewTransform - builds a transform from 16 row-major elements. Fails if the
// matrix is singular, which indicates a corrupt frame lookup rather than
// anything recoverable.
func NewTransform(rowMajor []float64) (Transform, error) {
	if len(rowMajor) != 16 {
		return Transform{}, fmt.Errorf("transform needs 16 elements, got %v", len(rowMajor))
	}

	m := mat.NewDense(4, 4, append([]float64{}, rowMajor...))
	inv := mat.NewDense(4, 4, nil)
	if err := inv.Inverse(m); err != nil {
		return Transform{}, fmt.Errorf("transform not invertible: %v", err)
	}
	return Transform{m: m, inv: inv}, nil
}

// IdentityTransform - maps every point to itself
func IdentityTransform() Transform {
	t, _ := NewTransform([]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	return t
}

// TranslationTransform - pure translation by v
func TranslationTransform(v r3.Vec) Transform {
	t, _ := NewTransform([]float64{
		1, 0, 0, v.X,
		0, 1, 0, v.Y,
		0, 0, 1, v.Z,
		0, 0, 0, 1,
	})
	return t
}

// LookAtTransform - camera-to-world transform for a camera at eye looking at
// target with the given up hint. Camera frame is +Z forward, +X right, +Y down
// (image row direction), matching the camera models in core/camera.
func LookAtTransform(eye, target, up r3.Vec) Transform {
	fwd := r3.Unit(r3.Sub(target, eye))
	right := r3.Cross(fwd, up)
	if r3.Norm(right) < 1e-12 {
		// up is parallel to the view direction, pick another
		right = r3.Cross(fwd, r3.Vec{X: 1})
		if r3.Norm(right) < 1e-12 {
			right = r3.Cross(fwd, r3.Vec{Y: 1})
		}
	}
	right = r3.Unit(right)
	down := r3.Cross(fwd, right)

	t, _ := NewTransform([]float64{
		right.X, down.X, fwd.X, eye.X,
		right.Y, down.Y, fwd.Y, eye.Y,
		right.Z, down.Z, fwd.Z, eye.Z,
		0, 0, 0, 1,
	})
	return t
}

func (t Transform) apply(m *mat.Dense, p r3.Vec, w float64) r3.Vec {
	in := mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, w})
	out := mat.NewVecDense(4, nil)
	out.MulVec(m, in)
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Apply - transforms a point (w=1)
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return t.apply(t.m, p, 1)
}

// ApplyDir - transforms a direction (w=0, translation ignored)
func (t Transform) ApplyDir(v r3.Vec) r3.Vec {
	return t.apply(t.m, v, 0)
}

// ApplyRay - transforms a ray, renormalising the direction so scaled
// transforms still produce unit directions
func (t Transform) ApplyRay(r Ray) Ray {
	return Ray{
		Origin: t.Apply(r.Origin),
		Dir:    r3.Unit(t.ApplyDir(r.Dir)),
	}
}

// Inverted - the inverse transform. Cheap, the inverse matrix is precomputed.
func (t Transform) Inverted() Transform {
	return Transform{m: t.inv, inv: t.m}
}

// Mul - matrix composition: (t.Mul(o)).Apply(p) == t.Apply(o.Apply(p))
func (t Transform) Mul(o Transform) Transform {
	m := mat.NewDense(4, 4, nil)
	m.Mul(t.m, o.m)
	inv := mat.NewDense(4, 4, nil)
	inv.Mul(o.inv, t.inv)
	return Transform{m: m, inv: inv}
}
