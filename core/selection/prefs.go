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

// Ranking of candidate observations per mesh point. Two strategies implement
// the same seam: Exhaustive scores every candidate at every query point,
// Spatial reuses precomputed rankings from nearby surface samples.
package selection

import (
	"github.com/pkg/errors"

	"github.com/NASA-AMMOS/Landform-sub007/core/caster"
	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
	"github.com/NASA-AMMOS/Landform-sub007/core/trimesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// PreferColor - when band count breaks ties between candidates.
type PreferColor int

const (
	// PreferColorNever - band count is ignored
	PreferColorNever PreferColor = iota

	// PreferColorEquivalentScores - color beats grayscale only inside a
	// score equivalence class
	PreferColorEquivalentScores

	// PreferColorAlways - color beats grayscale regardless of score
	PreferColorAlways
)

var preferColorNames = map[string]PreferColor{
	"Never":            PreferColorNever,
	"EquivalentScores": PreferColorEquivalentScores,
	"Always":           PreferColorAlways,
}

// ParsePreferColor - config string to enum, invalid values are a
// configuration fault
func ParsePreferColor(name string) (PreferColor, error) {
	if v, ok := preferColorNames[name]; ok {
		return v, nil
	}
	return PreferColorNever, errors.Errorf("invalid PreferColor value: %v", name)
}

// Preferences - the tie-break policy. The ordering logic is delicate, so the
// whole policy is data rather than hard-coded order: which secondary criteria
// apply, and the thresholds defining score equivalence.
type Preferences struct {
	// Two scores are equivalent when their difference is below
	// AbsEquivThreshold meters OR below RelEquivThreshold times their mean
	AbsEquivThreshold float64
	RelEquivThreshold float64

	PreferColor   PreferColor
	PreferSurface bool // surface imagery beats orbital within a class
	PreferLinear  bool // radiometrically linear products win within a class

	// MaxContexts caps the ranked list length; <= 0 means unbounded
	MaxContexts int
}

// DefaultPreferences - sensible policy for rover surface imagery
func DefaultPreferences() Preferences {
	return Preferences{
		AbsEquivThreshold: 0.001,
		RelEquivThreshold: 0.1,
		PreferColor:       PreferColorEquivalentScores,
		PreferSurface:     true,
		PreferLinear:      false,
		MaxContexts:       8,
	}
}

// Equivalent - the score equivalence relation
func (p Preferences) Equivalent(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= p.AbsEquivThreshold || d <= p.RelEquivThreshold*(a+b)/2
}

// ScoredContext - candidate with its effective resolution in meters of mesh
// surface per source pixel. Lower is better.
type ScoredContext struct {
	Ctx   *observation.Context
	Score float64
}

// Strategy - the selection seam consumed by the backprojection driver.
// Initialize captures the mesh and raycasting oracles; FilterAndSortContexts
// must then be safe to call concurrently.
type Strategy interface {
	Initialize(mesh *trimesh.Mesh, op *trimesh.Operator, meshCaster, occlusionScene caster.SceneCaster, contexts []*observation.Context) error
	FilterAndSortContexts(point r3.Vec) []ScoredContext
}
