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

// Near-uniform scattering of points on a mesh surface plus a kd-tree index
// for neighbor queries. The scattering only has to hit the requested density
// statistically; the selection code sizes its search radii from the same
// density so the two stay consistent.
package sampling

import (
	"math"
	"math/rand"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/trimesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Spacing - expected distance between neighboring samples at a density given
// in points per square meter
func Spacing(density float64) float64 {
	return 1 / math.Sqrt(2*density)
}

// ScatterSurfacePoints - area-weighted dart throwing with minimum-spacing
// rejection, approximating a Poisson disk distribution. Returns approximately
// density * surfaceArea points. Points outside clip (when non-nil) are
// discarded. Never fails: a degenerate mesh yields its centroid as a single
// fallback point so downstream queries always have a candidate.
func ScatterSurfacePoints(m *trimesh.Mesh, density float64, clip *geom.Bounds, rng *rand.Rand) []r3.Vec {
	area := m.SurfaceArea()
	target := int(math.Ceil(density * area))

	points := []r3.Vec{}
	if target > 0 && len(m.Triangles) > 0 {
		// Cumulative area table for proportional triangle picking
		cdf := make([]float64, len(m.Triangles))
		total := 0.0
		for i := range m.Triangles {
			total += m.TriangleArea(i)
			cdf[i] = total
		}

		spacing := Spacing(density)
		minDist := spacing * 0.7 // rejection radius, below the mean spacing so darts can still land
		grid := newHashGrid(minDist)

		// Dart throwing with a bounded attempt budget; density deviation is
		// tolerated, not an error
		maxAttempts := target * 10
		for attempt := 0; attempt < maxAttempts && len(points) < target; attempt++ {
			p := randomSurfacePoint(m, cdf, total, rng)
			if clip != nil && !clip.Contains(p, 0) {
				continue
			}
			if grid.hasNeighborWithin(p, minDist) {
				continue
			}
			grid.insert(p)
			points = append(points, p)
		}
	}

	if len(points) == 0 {
		// Degenerate or fully clipped mesh, fall back to the centroid so
		// every query still has at least one candidate
		points = append(points, m.Centroid())
	}
	return points
}

func randomSurfacePoint(m *trimesh.Mesh, cdf []float64, total float64, rng *rand.Rand) r3.Vec {
	pick := rng.Float64() * total
	lo, hi := 0, len(cdf)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cdf[mid] < pick {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	// Uniform barycentric via square-root warp
	r1 := math.Sqrt(rng.Float64())
	r2 := rng.Float64()
	bary := [3]float64{1 - r1, r1 * (1 - r2), r1 * r2}
	return m.PointAt(lo, bary)
}

// hashGrid - uniform spatial hash sized to the rejection radius so neighbor
// checks only touch the 27 surrounding cells
type hashGrid struct {
	cell  float64
	cells map[[3]int][]r3.Vec
}

func newHashGrid(cell float64) *hashGrid {
	if cell <= 0 {
		cell = 1
	}
	return &hashGrid{cell: cell, cells: map[[3]int][]r3.Vec{}}
}

func (g *hashGrid) key(p r3.Vec) [3]int {
	return [3]int{
		int(math.Floor(p.X / g.cell)),
		int(math.Floor(p.Y / g.cell)),
		int(math.Floor(p.Z / g.cell)),
	}
}

func (g *hashGrid) insert(p r3.Vec) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], p)
}

func (g *hashGrid) hasNeighborWithin(p r3.Vec, dist float64) bool {
	k := g.key(p)
	d2 := dist * dist
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				for _, q := range g.cells[[3]int{k[0] + dx, k[1] + dy, k[2] + dz}] {
					if r3.Norm2(r3.Sub(p, q)) < d2 {
						return true
					}
				}
			}
		}
	}
	return false
}
