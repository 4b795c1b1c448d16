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

package caster

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/trimesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const leafTriangles = 4

type triangle struct {
	a, b, c r3.Vec
	normal  r3.Vec
	bounds  geom.Bounds
}

type bvhNode struct {
	bounds      geom.Bounds
	left, right *bvhNode
	tris        []int // non-nil => leaf
}

// MeshCaster - SceneCaster over one or more triangle meshes using a median
// split AABB tree. AddMesh before Build; queries only after Build.
type MeshCaster struct {
	tris  []triangle
	root  *bvhNode
	built bool
}

func NewMeshCaster(meshes ...*trimesh.Mesh) *MeshCaster {
	mc := &MeshCaster{}
	for _, m := range meshes {
		mc.AddMesh(m)
	}
	return mc
}

func (mc *MeshCaster) AddMesh(m *trimesh.Mesh) {
	for i, t := range m.Triangles {
		tri := triangle{
			a:      m.Vertices[t[0]].Position,
			b:      m.Vertices[t[1]].Position,
			c:      m.Vertices[t[2]].Position,
			normal: m.TriangleNormal(i),
		}
		tri.bounds = geom.EmptyBounds()
		tri.bounds.Extend(tri.a)
		tri.bounds.Extend(tri.b)
		tri.bounds.Extend(tri.c)
		mc.tris = append(mc.tris, tri)
	}
}

// Build - constructs the acceleration tree. The caster is immutable after
// this; calling AddMesh afterwards is a programming error.
func (mc *MeshCaster) Build() error {
	if mc.built {
		return errors.New("mesh caster already built")
	}
	idx := make([]int, len(mc.tris))
	for i := range idx {
		idx[i] = i
	}
	if len(idx) > 0 {
		mc.root = mc.build(idx)
	}
	mc.built = true
	return nil
}

func (mc *MeshCaster) build(idx []int) *bvhNode {
	node := &bvhNode{bounds: geom.EmptyBounds()}
	for _, i := range idx {
		node.bounds.Extend(mc.tris[i].bounds.Min)
		node.bounds.Extend(mc.tris[i].bounds.Max)
	}
	if len(idx) <= leafTriangles {
		node.tris = idx
		return node
	}

	// Median split along the longest axis of the centroid extents
	ext := r3.Sub(node.bounds.Max, node.bounds.Min)
	axis := 0
	if ext.Y > ext.X && ext.Y >= ext.Z {
		axis = 1
	} else if ext.Z > ext.X && ext.Z >= ext.Y {
		axis = 2
	}
	sort.Slice(idx, func(a, b int) bool {
		return centroidAxis(mc.tris[idx[a]], axis) < centroidAxis(mc.tris[idx[b]], axis)
	})

	mid := len(idx) / 2
	node.left = mc.build(idx[:mid])
	node.right = mc.build(idx[mid:])
	return node
}

func centroidAxis(t triangle, axis int) float64 {
	c := r3.Scale(1.0/3.0, r3.Add(r3.Add(t.a, t.b), t.c))
	switch axis {
	case 1:
		return c.Y
	case 2:
		return c.Z
	}
	return c.X
}

// intersectTriangle - Moller-Trumbore, two sided
func intersectTriangle(t triangle, ray geom.Ray) (float64, bool) {
	const eps = 1e-12

	e1 := r3.Sub(t.b, t.a)
	e2 := r3.Sub(t.c, t.a)
	p := r3.Cross(ray.Dir, e2)
	det := r3.Dot(e1, p)
	if math.Abs(det) < eps {
		return 0, false
	}
	invDet := 1 / det

	tv := r3.Sub(ray.Origin, t.a)
	u := r3.Dot(tv, p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := r3.Cross(tv, e1)
	v := r3.Dot(ray.Dir, q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	dist := r3.Dot(e2, q) * invDet
	if dist < eps {
		return 0, false
	}
	return dist, true
}

// rayBoxHits - slab test, returns false when the box cannot contain a hit
// nearer than maxDist
func rayBoxHits(b geom.Bounds, ray geom.Ray, maxDist float64) bool {
	tmin, tmax := 0.0, maxDist
	for axis := 0; axis < 3; axis++ {
		var o, d, lo, hi float64
		switch axis {
		case 0:
			o, d, lo, hi = ray.Origin.X, ray.Dir.X, b.Min.X, b.Max.X
		case 1:
			o, d, lo, hi = ray.Origin.Y, ray.Dir.Y, b.Min.Y, b.Max.Y
		case 2:
			o, d, lo, hi = ray.Origin.Z, ray.Dir.Z, b.Min.Z, b.Max.Z
		}
		if math.Abs(d) < 1e-18 {
			if o < lo || o > hi {
				return false
			}
			continue
		}
		t0 := (lo - o) / d
		t1 := (hi - o) / d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmin > tmax {
			return false
		}
	}
	return true
}

func (mc *MeshCaster) nearest(node *bvhNode, ray geom.Ray, minDist float64, best *float64, bestTri *int) {
	if node == nil || !rayBoxHits(node.bounds, ray, *best) {
		return
	}
	if node.tris != nil {
		for _, i := range node.tris {
			if d, ok := intersectTriangle(mc.tris[i], ray); ok && d > minDist && d < *best {
				*best = d
				*bestTri = i
			}
		}
		return
	}
	mc.nearest(node.left, ray, minDist, best, bestTri)
	mc.nearest(node.right, ray, minDist, best, bestTri)
}

func (mc *MeshCaster) Raycast(ray geom.Ray) (Hit, bool) {
	if !mc.built || mc.root == nil {
		return Hit{}, false
	}
	best := math.MaxFloat64
	bestTri := -1
	mc.nearest(mc.root, ray, 0, &best, &bestTri)
	if bestTri < 0 {
		return Hit{}, false
	}
	return Hit{
		Distance: best,
		Position: ray.At(best),
		Normal:   mc.tris[bestTri].normal,
	}, true
}

func (mc *MeshCaster) RaycastDistance(ray geom.Ray, tolerance float64) (float64, bool) {
	if !mc.built || mc.root == nil {
		return 0, false
	}
	best := math.MaxFloat64
	bestTri := -1
	mc.nearest(mc.root, ray, tolerance, &best, &bestTri)
	if bestTri < 0 {
		return 0, false
	}
	return best, true
}

func (mc *MeshCaster) RaycastPosition(ray geom.Ray) (r3.Vec, bool) {
	hit, ok := mc.Raycast(ray)
	if !ok {
		return r3.Vec{}, false
	}
	return hit.Position, true
}

func (mc *MeshCaster) Occludes(ray geom.Ray, maxDistance float64) bool {
	dist, ok := mc.RaycastDistance(ray, 0)
	return ok && dist < maxDistance
}
