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

// Triangle mesh model consumed by the texturing engine. Mesh construction and
// file formats live upstream; this package only provides the surface queries
// the backprojection code needs: bounds, areas, barycentric evaluation and
// UV-space texel sampling.
package trimesh

import (
	"math"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/hull"
	"gonum.org/v1/gonum/spatial/r3"
)

// UV - texture coordinate in [0,1]^2. V grows downward in atlas row order.
type UV struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// Vertex - position plus optional normal and atlas coordinate
type Vertex struct {
	Position r3.Vec `json:"position"`
	Normal   r3.Vec `json:"normal,omitempty"`
	UV       UV     `json:"uv"`
}

// Mesh - shared-vertex triangle list
type Mesh struct {
	Vertices  []Vertex `json:"vertices"`
	Triangles [][3]int `json:"triangles"`
}

func (m *Mesh) Bounds() geom.Bounds {
	b := geom.EmptyBounds()
	for _, v := range m.Vertices {
		b.Extend(v.Position)
	}
	return b
}

// BoundingHull - convex hull of the mesh bounding box, the cheap prefilter
// volume tested against each observation's frustum hull
func (m *Mesh) BoundingHull() hull.ConvexHull {
	return hull.NewFromBounds(m.Bounds())
}

func (m *Mesh) TriangleArea(i int) float64 {
	t := m.Triangles[i]
	a := m.Vertices[t[0]].Position
	b := m.Vertices[t[1]].Position
	c := m.Vertices[t[2]].Position
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

func (m *Mesh) TriangleNormal(i int) r3.Vec {
	t := m.Triangles[i]
	a := m.Vertices[t[0]].Position
	b := m.Vertices[t[1]].Position
	c := m.Vertices[t[2]].Position
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if r3.Norm(n) < 1e-18 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

func (m *Mesh) SurfaceArea() float64 {
	total := 0.0
	for i := range m.Triangles {
		total += m.TriangleArea(i)
	}
	return total
}

// PointAt - barycentric evaluation of a triangle's surface position
func (m *Mesh) PointAt(tri int, bary [3]float64) r3.Vec {
	t := m.Triangles[tri]
	a := m.Vertices[t[0]].Position
	b := m.Vertices[t[1]].Position
	c := m.Vertices[t[2]].Position
	return r3.Add(r3.Add(r3.Scale(bary[0], a), r3.Scale(bary[1], b)), r3.Scale(bary[2], c))
}

// Centroid - area weighted surface centroid, the fallback sample point for
// degenerate meshes where scattering produces nothing
func (m *Mesh) Centroid() r3.Vec {
	total := 0.0
	sum := r3.Vec{}
	for i, t := range m.Triangles {
		area := m.TriangleArea(i)
		c := r3.Scale(1.0/3.0, r3.Add(r3.Add(
			m.Vertices[t[0]].Position,
			m.Vertices[t[1]].Position),
			m.Vertices[t[2]].Position))
		sum = r3.Add(sum, r3.Scale(area, c))
		total += area
	}
	if total < 1e-18 {
		// Zero-area mesh, average the vertices instead
		if len(m.Vertices) == 0 {
			return r3.Vec{}
		}
		for _, v := range m.Vertices {
			sum = r3.Add(sum, v.Position)
		}
		return r3.Scale(1/float64(len(m.Vertices)), sum)
	}
	return r3.Scale(1/total, sum)
}

// baryUV - barycentric coordinates of uv within triangle tri's UV footprint,
// ok=false for degenerate UV triangles
func (m *Mesh) baryUV(tri int, u, v float64) ([3]float64, bool) {
	t := m.Triangles[tri]
	a := m.Vertices[t[0]].UV
	b := m.Vertices[t[1]].UV
	c := m.Vertices[t[2]].UV

	d := (b.V-c.V)*(a.U-c.U) + (c.U-b.U)*(a.V-c.V)
	if math.Abs(d) < 1e-18 {
		return [3]float64{}, false
	}
	b0 := ((b.V-c.V)*(u-c.U) + (c.U-b.U)*(v-c.V)) / d
	b1 := ((c.V-a.V)*(u-c.U) + (a.U-c.U)*(v-c.V)) / d
	return [3]float64{b0, b1, 1 - b0 - b1}, true
}
