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

// Effective ground resolution estimation: how many meters of mesh surface
// one source pixel spans at a given surface point. Used standalone for
// texture quality reporting and as the score primitive inside candidate
// ranking. The 4-neighbor spread is a heuristic and can be overconfident
// when an observation views the point through a narrow gap; it stays behind
// the selection package's scorer seam so alternates can be substituted.
package pixeldist

import (
	"math"
	"math/rand"

	"github.com/NASA-AMMOS/Landform-sub007/core/caster"
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
	"github.com/NASA-AMMOS/Landform-sub007/core/raster"
	"gonum.org/v1/gonum/spatial/r3"
)

// SpreadAtPoint - raycasts the four grid-adjacent pixels of px (clipped to
// image bounds) through the observation's camera into mesh space and returns
// the maximum distance between any hit position and point. ok=false when no
// neighbor ray hits the mesh, which tells the caller to drop this candidate
// for this point rather than treat it as an error.
func SpreadAtPoint(point r3.Vec, px geom.Pixel, ctx *observation.Context, meshCaster caster.SceneCaster) (float64, bool) {
	neighbors := [4]geom.Pixel{
		{X: px.X - 1, Y: px.Y},
		{X: px.X + 1, Y: px.Y},
		{X: px.X, Y: px.Y - 1},
		{X: px.X, Y: px.Y + 1},
	}

	maxDist := 0.0
	hits := 0
	for _, npx := range neighbors {
		npx.X = clampFloat(npx.X, 0, float64(ctx.Obs.Width-1))
		npx.Y = clampFloat(npx.Y, 0, float64(ctx.Obs.Height-1))

		ray, err := ctx.PixelRay(npx)
		if err != nil {
			continue
		}
		pos, ok := meshCaster.RaycastPosition(ray)
		if !ok {
			continue
		}

		hits++
		if d := r3.Norm(r3.Sub(pos, point)); d > maxDist {
			maxDist = d
		}
	}

	if hits == 0 {
		return 0, false
	}
	return maxDist, true
}

// ObservationMedianSpread - median per-pixel resolution across a random
// sample of an observation's frame, for whole-observation reporting. Pixels
// that do not see the mesh are skipped; ok=false when nothing in the sample
// hits.
func ObservationMedianSpread(ctx *observation.Context, meshCaster caster.SceneCaster, samples int, rng *rand.Rand) (float64, bool) {
	spreads := []float64{}

	for i := 0; i < samples; i++ {
		px := geom.Pixel{
			X: rng.Float64() * float64(ctx.Obs.Width-1),
			Y: rng.Float64() * float64(ctx.Obs.Height-1),
		}

		ray, err := ctx.PixelRay(px)
		if err != nil {
			continue
		}
		point, ok := meshCaster.RaycastPosition(ray)
		if !ok {
			continue
		}

		if spread, ok := SpreadAtPoint(point, px, ctx, meshCaster); ok {
			spreads = append(spreads, spread)
		}
	}

	if len(spreads) == 0 {
		return 0, false
	}
	return raster.Median(spreads), true
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
