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

package trimesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SampleUVPoint - one destination texel inside the used UV footprint with its
// surface provenance. Generated once per backprojection run, read-only after.
type SampleUVPoint struct {
	Row int
	Col int

	UV    UV
	Point r3.Vec

	Triangle int
	Bary     [3]float64
}

// Operator - UV-space sampling over one mesh. Stateless beyond the mesh
// reference, safe for concurrent use.
type Operator struct {
	mesh *Mesh
}

func NewOperator(m *Mesh) *Operator {
	return &Operator{mesh: m}
}

func (op *Operator) Mesh() *Mesh {
	return op.mesh
}

// SampleUVSpace - generates one sample per destination texel whose center
// falls inside some triangle's UV footprint. Gutter texels (outside every
// triangle) are excluded here so the driver never sees them. Each texel is
// owned by at most one triangle; when UV charts abut, the lowest triangle
// index wins, which keeps output deterministic.
func (op *Operator) SampleUVSpace(width, height int) []SampleUVPoint {
	owned := map[int]bool{}
	samples := []SampleUVPoint{}

	for ti := range op.mesh.Triangles {
		t := op.mesh.Triangles[ti]
		uvs := [3]UV{
			op.mesh.Vertices[t[0]].UV,
			op.mesh.Vertices[t[1]].UV,
			op.mesh.Vertices[t[2]].UV,
		}

		// Texel range covered by this triangle's UV bounding box
		minU, maxU := uvs[0].U, uvs[0].U
		minV, maxV := uvs[0].V, uvs[0].V
		for _, uv := range uvs[1:] {
			minU = math.Min(minU, uv.U)
			maxU = math.Max(maxU, uv.U)
			minV = math.Min(minV, uv.V)
			maxV = math.Max(maxV, uv.V)
		}

		colMin := clampInt(int(math.Floor(minU*float64(width)-0.5)), 0, width-1)
		colMax := clampInt(int(math.Ceil(maxU*float64(width)-0.5)), 0, width-1)
		rowMin := clampInt(int(math.Floor(minV*float64(height)-0.5)), 0, height-1)
		rowMax := clampInt(int(math.Ceil(maxV*float64(height)-0.5)), 0, height-1)

		for row := rowMin; row <= rowMax; row++ {
			for col := colMin; col <= colMax; col++ {
				key := row*width + col
				if owned[key] {
					continue
				}

				u := (float64(col) + 0.5) / float64(width)
				v := (float64(row) + 0.5) / float64(height)

				bary, ok := op.mesh.baryUV(ti, u, v)
				if !ok {
					continue
				}
				const edgeEps = 1e-9
				if bary[0] < -edgeEps || bary[1] < -edgeEps || bary[2] < -edgeEps {
					continue
				}

				owned[key] = true
				samples = append(samples, SampleUVPoint{
					Row:      row,
					Col:      col,
					UV:       UV{U: u, V: v},
					Point:    op.mesh.PointAt(ti, bary),
					Triangle: ti,
					Bary:     bary,
				})
			}
		}
	}

	return samples
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
