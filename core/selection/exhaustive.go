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

package selection

import (
	"github.com/NASA-AMMOS/Landform-sub007/core/caster"
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/logger"
	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
	"github.com/NASA-AMMOS/Landform-sub007/core/pixeldist"
	"github.com/NASA-AMMOS/Landform-sub007/core/trimesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Scorer - effective resolution estimate for one (point, candidate) pair.
// ok=false drops the candidate for this point. The default is the 4-neighbor
// raycast spread; the seam exists because that heuristic is known to be
// optimistic through narrow gaps.
type Scorer func(point r3.Vec, px geom.Pixel, ctx *observation.Context, meshCaster caster.SceneCaster) (float64, bool)

// Exhaustive - scores every candidate context at every query point. The
// highest quality ranking and the reference the spatial strategy
// approximates; too slow to run per-texel at full texture resolution.
type Exhaustive struct {
	Prefs Preferences

	// OrbitalBaseline - orbital imagery resolution in meters/pixel. When
	// positive, surface candidates must beat it (see the gate below); zero
	// disables the gate.
	OrbitalBaseline float64

	// Scorer - defaults to pixeldist.SpreadAtPoint
	Scorer Scorer

	log logger.ILogger

	meshBounds geom.Bounds
	meshCaster caster.SceneCaster
	occlusion  caster.SceneCaster
	contexts   []*observation.Context
}

func NewExhaustive(prefs Preferences, log logger.ILogger) *Exhaustive {
	return &Exhaustive{
		Prefs:  prefs,
		Scorer: pixeldist.SpreadAtPoint,
		log:    log,
	}
}

// Initialize - captures the mesh bounds and the two raycasting oracles. The
// mesh caster covers the mesh of interest; the occlusion scene may include
// more geometry (or be the same object).
func (e *Exhaustive) Initialize(mesh *trimesh.Mesh, op *trimesh.Operator, meshCaster, occlusionScene caster.SceneCaster, contexts []*observation.Context) error {
	e.meshBounds = mesh.Bounds()
	e.meshCaster = meshCaster
	e.occlusion = occlusionScene
	e.contexts = contexts
	return nil
}

// FilterAndSortContexts - ranked candidate list for one mesh point. Pure
// function of the point once initialized; safe for concurrent calls.
func (e *Exhaustive) FilterAndSortContexts(point r3.Vec) []ScoredContext {
	if !geom.IsFinite(point) {
		return nil
	}

	// Best score seen per observation; the same image can arrive via more
	// than one product, keep the minimum
	best := map[string]ScoredContext{}

	for _, ctx := range e.contexts {
		px, rng, err := ctx.Project(point)
		if err != nil {
			// Projection errors mean "not visible from this observation",
			// never fatal
			continue
		}
		if rng <= 0 || !ctx.InFrame(px) {
			continue
		}

		score, ok := e.Scorer(point, px, ctx, e.meshCaster)
		if !ok {
			continue
		}

		if !e.passesOrbitalGate(score, ctx) {
			continue
		}

		name := ctx.Obs.Name
		if prev, exists := best[name]; !exists || score < prev.Score {
			best[name] = ScoredContext{Ctx: ctx, Score: score}
		}
	}

	if len(best) == 0 {
		return nil
	}

	list := make([]ScoredContext, 0, len(best))
	for _, sc := range best {
		list = append(list, sc)
	}
	return SortScoredContexts(list, e.Prefs)
}

// passesOrbitalGate - surface candidates are only worth carrying when they
// improve on the orbital baseline. Ties under the equivalence thresholds go
// to the surface candidate when the policy prefers surface imagery or when
// it would add color over a grayscale orbital base.
func (e *Exhaustive) passesOrbitalGate(score float64, ctx *observation.Context) bool {
	if e.OrbitalBaseline <= 0 || ctx.Obs.Orbital {
		return true
	}

	if e.Prefs.Equivalent(score, e.OrbitalBaseline) {
		if e.Prefs.PreferSurface {
			return true
		}
		if e.Prefs.PreferColor != PreferColorNever && ctx.Obs.Bands >= 3 {
			return true
		}
		return false
	}

	return score < e.OrbitalBaseline
}
