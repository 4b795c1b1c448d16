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

// Convex hulls used as cheap visibility prefilters: camera frustum volumes
// and mesh bounding volumes, both expressed in mesh coordinates.
package hull

import (
	"fmt"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Plane - half space boundary. Points with Normal.p <= Offset are inside.
type Plane struct {
	Normal r3.Vec  `json:"normal"`
	Offset float64 `json:"offset"`
}

// SignedDistance - positive outside the half space
func (pl Plane) SignedDistance(p r3.Vec) float64 {
	return r3.Dot(pl.Normal, p) - pl.Offset
}

// ConvexHull - vertex set plus supporting planes. JSON tags so built hulls can
// be cached in the data product store between runs.
type ConvexHull struct {
	Vertices []r3.Vec `json:"vertices"`
	Planes   []Plane  `json:"planes"`
}

// NewFromBounds - hull of an axis aligned box
func NewFromBounds(b geom.Bounds) ConvexHull {
	h := ConvexHull{Vertices: b.Corners()}
	h.Planes = []Plane{
		{Normal: r3.Vec{X: -1}, Offset: -b.Min.X},
		{Normal: r3.Vec{X: 1}, Offset: b.Max.X},
		{Normal: r3.Vec{Y: -1}, Offset: -b.Min.Y},
		{Normal: r3.Vec{Y: 1}, Offset: b.Max.Y},
		{Normal: r3.Vec{Z: -1}, Offset: -b.Min.Z},
		{Normal: r3.Vec{Z: 1}, Offset: b.Max.Z},
	}
	return h
}

// Frustum face topology: 4 near corners then 4 far corners, both wound the
// same way around the view direction.
var frustumFaces = [6][3]int{
	{0, 2, 1}, // near
	{4, 5, 6}, // far
	{0, 1, 5}, // side
	{1, 2, 6}, // side
	{2, 3, 7}, // side
	{3, 0, 4}, // side
}

// NewFrustum - hull of a camera viewing frustum given its 8 corners (near
// plane corners first, then the matching far plane corners). Plane normals
// are oriented outward by checking against the vertex centroid, so corner
// winding does not have to be consistent.
func NewFrustum(corners []r3.Vec) (ConvexHull, error) {
	if len(corners) != 8 {
		return ConvexHull{}, fmt.Errorf("frustum hull needs 8 corners, got %v", len(corners))
	}

	centroid := r3.Vec{}
	for _, c := range corners {
		centroid = r3.Add(centroid, c)
	}
	centroid = r3.Scale(1.0/8.0, centroid)

	h := ConvexHull{Vertices: append([]r3.Vec{}, corners...)}
	for _, f := range frustumFaces {
		a, b, c := corners[f[0]], corners[f[1]], corners[f[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if r3.Norm(n) < 1e-15 {
			// Degenerate face (eg a point-like near plane), skip it. The
			// remaining planes still bound the volume.
			continue
		}
		n = r3.Unit(n)
		if r3.Dot(n, r3.Sub(centroid, a)) > 0 {
			n = r3.Scale(-1, n)
		}
		h.Planes = append(h.Planes, Plane{Normal: n, Offset: r3.Dot(n, a)})
	}
	return h, nil
}

// Contains - true if point is inside or within eps of every supporting plane
func (h ConvexHull) Contains(p r3.Vec, eps float64) bool {
	if len(h.Planes) == 0 {
		return false
	}
	for _, pl := range h.Planes {
		if pl.SignedDistance(p) > eps {
			return false
		}
	}
	return true
}

// Intersects - conservative separating-plane test using both hulls' supporting
// planes as candidate axes. May report an intersection for some disjoint pairs
// (the edge-cross axes are not tested), which is fine for a prefilter: false
// positives cost per-pixel work, false negatives would drop valid imagery.
func (h ConvexHull) Intersects(o ConvexHull) bool {
	if len(h.Vertices) == 0 || len(o.Vertices) == 0 {
		return false
	}
	return !separates(h.Planes, o.Vertices) && !separates(o.Planes, h.Vertices)
}

func separates(planes []Plane, verts []r3.Vec) bool {
	for _, pl := range planes {
		allOut := true
		for _, v := range verts {
			if pl.SignedDistance(v) <= 0 {
				allOut = false
				break
			}
		}
		if allOut {
			return true
		}
	}
	return false
}

// Transformed - hull mapped into another frame. Each supporting plane is
// transformed directly so no face topology is needed.
func (h ConvexHull) Transformed(t geom.Transform) ConvexHull {
	out := ConvexHull{
		Vertices: make([]r3.Vec, len(h.Vertices)),
		Planes:   make([]Plane, 0, len(h.Planes)),
	}
	for i, v := range h.Vertices {
		out.Vertices[i] = t.Apply(v)
	}
	centroid := r3.Vec{}
	for _, v := range out.Vertices {
		centroid = r3.Add(centroid, v)
	}
	if len(out.Vertices) > 0 {
		centroid = r3.Scale(1/float64(len(out.Vertices)), centroid)
	}
	for _, pl := range h.Planes {
		// Anchor point on the plane, transform it and rebuild the normal
		anchor := t.Apply(r3.Scale(pl.Offset, pl.Normal))
		n := normalUnder(t, pl.Normal)
		if r3.Norm(n) < 1e-15 {
			continue
		}
		n = r3.Unit(n)
		if r3.Dot(n, r3.Sub(centroid, anchor)) > 0 {
			// Keep normals pointing outward even under reflections
			n = r3.Scale(-1, n)
		}
		out.Planes = append(out.Planes, Plane{Normal: n, Offset: r3.Dot(n, anchor)})
	}
	return out
}

// normalUnder - transforms a plane normal by building two in-plane directions,
// mapping them, and re-crossing. Correct for any invertible affine transform.
func normalUnder(t geom.Transform, n r3.Vec) r3.Vec {
	u := r3.Cross(n, r3.Vec{X: 1})
	if r3.Norm(u) < 1e-12 {
		u = r3.Cross(n, r3.Vec{Y: 1})
	}
	v := r3.Cross(n, u)
	return r3.Cross(t.ApplyDir(u), t.ApplyDir(v))
}
