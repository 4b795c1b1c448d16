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

package sampling

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// indexedPoint - kdtree.Comparable over a sample position carrying its index
// into the owning PointIndex
type indexedPoint struct {
	pos r3.Vec
	idx int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	switch d {
	case 0:
		return p.pos.X - q.pos.X
	case 1:
		return p.pos.Y - q.pos.Y
	case 2:
		return p.pos.Z - q.pos.Z
	}
	panic("unreachable")
}

func (p indexedPoint) Dims() int { return 3 }

func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	return r3.Norm2(r3.Sub(p.pos, q.pos))
}

// pointCollection - kdtree.Interface over a point slice
type pointCollection []indexedPoint

func (pc pointCollection) Index(i int) kdtree.Comparable { return pc[i] }
func (pc pointCollection) Len() int                      { return len(pc) }
func (pc pointCollection) Slice(start, end int) kdtree.Interface {
	return pc[start:end]
}
func (pc pointCollection) Pivot(d kdtree.Dim) int {
	p := plane{dim: int(d), points: pc}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

type plane struct {
	dim    int
	points pointCollection
}

func (p plane) Less(i, j int) bool {
	return p.points[i].Compare(p.points[j], kdtree.Dim(p.dim)) < 0
}
func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
func (p plane) Len() int {
	return len(p.points)
}
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}

// PointIndex - immutable kd-tree over scattered sample points. Read-only
// after construction and safe for concurrent queries.
type PointIndex struct {
	tree   *kdtree.Tree
	points []r3.Vec
}

func NewPointIndex(points []r3.Vec) *PointIndex {
	pc := make(pointCollection, len(points))
	for i, p := range points {
		pc[i] = indexedPoint{pos: p, idx: i}
	}
	return &PointIndex{
		tree:   kdtree.New(pc, true),
		points: append([]r3.Vec{}, points...),
	}
}

func (ix *PointIndex) Len() int {
	return len(ix.points)
}

func (ix *PointIndex) Point(i int) r3.Vec {
	return ix.points[i]
}

// Within - indexes of all points within Chebyshev distance 2*radius of
// center. The doubled, rectangular region is a deliberate over-approximation
// of a radius ball: the spatial selection logic benefits from extra
// neighbors and the equivalence-class sorting tolerates them.
func (ix *PointIndex) Within(center r3.Vec, radius float64) []int {
	if ix.Len() == 0 {
		return nil
	}

	reach := 2 * radius
	// Euclidean bound that covers the whole rectangle, then filter
	euclid := reach * math.Sqrt(3)
	keeper := kdtree.NewDistKeeper(euclid * euclid)
	ix.tree.NearestSet(keeper, indexedPoint{pos: center})

	result := []int{}
	for _, c := range keeper.Heap {
		if c.Comparable == nil {
			continue
		}
		p := c.Comparable.(indexedPoint)
		d := r3.Sub(p.pos, center)
		if math.Abs(d.X) <= reach && math.Abs(d.Y) <= reach && math.Abs(d.Z) <= reach {
			result = append(result, p.idx)
		}
	}
	return result
}

// Nearest - index of the closest point to center
func (ix *PointIndex) Nearest(center r3.Vec) int {
	if ix.Len() == 0 {
		return -1
	}
	got, _ := ix.tree.Nearest(indexedPoint{pos: center})
	return got.(indexedPoint).idx
}
