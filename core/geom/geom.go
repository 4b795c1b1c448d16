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

// Small geometric building blocks shared by the texturing packages: subpixel
// image coordinates, rays, axis-aligned bounds and 4x4 affine transforms.
// All 3D math is done with gonum r3 vectors.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Pixel - a subpixel image location. X is the column, Y the row.
type Pixel struct {
	X float64
	Y float64
}

// Round - nearest integer pixel (col, row)
func (p Pixel) Round() (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

// InBounds - true if the pixel rounds to a location inside a width x height image
func (p Pixel) InBounds(width, height int) bool {
	c, r := p.Round()
	return c >= 0 && c < width && r >= 0 && r < height
}

// Ray - origin plus unit direction
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// At - the point at parameter t along the ray
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Dir))
}

// IsFinite - rejects NaN/Inf components. Upstream frame transforms can produce
// degenerate points and every entry point into the texturing code checks this.
func IsFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Bounds - an axis aligned bounding box
type Bounds struct {
	Min r3.Vec
	Max r3.Vec
}

// EmptyBounds - an inverted box that extends to nothing until Extend is called
func EmptyBounds() Bounds {
	return Bounds{
		Min: r3.Vec{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64},
		Max: r3.Vec{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64},
	}
}

func (b *Bounds) Extend(p r3.Vec) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Min.Z = math.Min(b.Min.Z, p.Z)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	b.Max.Z = math.Max(b.Max.Z, p.Z)
}

func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

func (b Bounds) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

func (b Bounds) Contains(p r3.Vec, eps float64) bool {
	return p.X >= b.Min.X-eps && p.X <= b.Max.X+eps &&
		p.Y >= b.Min.Y-eps && p.Y <= b.Max.Y+eps &&
		p.Z >= b.Min.Z-eps && p.Z <= b.Max.Z+eps
}

func (b Bounds) Intersects(o Bounds) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Diagonal - length of the box diagonal, a convenient scale estimate
func (b Bounds) Diagonal() float64 {
	if b.IsEmpty() {
		return 0
	}
	return r3.Norm(r3.Sub(b.Max, b.Min))
}

// Corners - the 8 box corners, min corner first
func (b Bounds) Corners() []r3.Vec {
	return []r3.Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}
