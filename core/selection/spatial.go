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
	"math/rand"
	"sync"

	"github.com/pkg/errors"

	"github.com/NASA-AMMOS/Landform-sub007/core/caster"
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/logger"
	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
	"github.com/NASA-AMMOS/Landform-sub007/core/sampling"
	"github.com/NASA-AMMOS/Landform-sub007/core/trimesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mode - how nearby precomputed rankings combine to answer a query.
type Mode int

const (
	// CombinedNeighbors - union of all neighbor candidates still in-frame
	// for the query point, best score per observation
	CombinedNeighbors Mode = iota

	// CombinedFilteredNeighbors - same with a frustum hull prefilter before
	// the exact in-frame check
	CombinedFilteredNeighbors

	// CombinedWeightedNeighbors - union with each neighbor's scores scaled
	// by a linear distance weight in [1,2]
	CombinedWeightedNeighbors

	// CombinedFilteredWeightedNeighbors - both of the above
	CombinedFilteredWeightedNeighbors

	// NearestNeighbor - the closest sample's ranking verbatim
	NearestNeighbor

	// FattestNeighbor - the neighbor with the most cached candidates
	FattestNeighbor

	// BestNeighbor - the neighbor whose best cached score is lowest
	BestNeighbor
)

var modeNames = map[string]Mode{
	"CombinedNeighbors":                 CombinedNeighbors,
	"CombinedFilteredNeighbors":         CombinedFilteredNeighbors,
	"CombinedWeightedNeighbors":         CombinedWeightedNeighbors,
	"CombinedFilteredWeightedNeighbors": CombinedFilteredWeightedNeighbors,
	"NearestNeighbor":                   NearestNeighbor,
	"FattestNeighbor":                   FattestNeighbor,
	"BestNeighbor":                      BestNeighbor,
}

// ParseMode - config string to enum, invalid values are a configuration fault
func ParseMode(name string) (Mode, error) {
	if v, ok := modeNames[name]; ok {
		return v, nil
	}
	return CombinedNeighbors, errors.Errorf("invalid spatial selection mode: %v", name)
}

// SpatialOptions - sampling layout for the precomputed rankings. The surface
// region (inside SurfaceExtent, or the whole mesh when nil) is sampled at
// SurfaceDensity; when orbital imagery is configured the rest of the mesh is
// sampled at the lower OrbitalDensity.
type SpatialOptions struct {
	Mode Mode

	SurfaceDensity float64
	OrbitalDensity float64 // <= 0 means no separate orbital region

	SurfaceExtent *geom.Bounds

	// SearchRadiusSamples - query radius in units of expected sample
	// spacing; the search expands up to 10x spacing before giving up and
	// using the single nearest sample
	SearchRadiusSamples float64

	MaxCores int
	Seed     int64
}

// Spatial - approximates the exhaustive ranking by interpolating precomputed
// rankings at a sparse set of representative surface samples. Accuracy
// degrades gracefully near sparse regions because the equivalence-class sort
// absorbs small score perturbations.
type Spatial struct {
	Opts  SpatialOptions
	Prefs Preferences

	exhaustive *Exhaustive
	log        logger.ILogger

	index         *sampling.PointIndex
	cached        [][]ScoredContext
	surfaceExtent geom.Bounds
	twoRegions    bool
	spacingSurf   float64
	spacingOrb    float64
}

func NewSpatial(opts SpatialOptions, prefs Preferences, log logger.ILogger) *Spatial {
	if opts.SearchRadiusSamples <= 0 {
		opts.SearchRadiusSamples = 2
	}
	return &Spatial{
		Opts:       opts,
		Prefs:      prefs,
		exhaustive: NewExhaustive(prefs, log),
		log:        log,
	}
}

// SetOrbitalBaseline - forwarded to the inner exhaustive strategy
func (s *Spatial) SetOrbitalBaseline(metersPerPixel float64) {
	s.exhaustive.OrbitalBaseline = metersPerPixel
}

// Initialize - scatters representative samples, injects every observation's
// center-pixel ground point (narrow field-of-view images would otherwise be
// missed entirely by sparse sampling), then runs the exhaustive strategy once
// per sample and caches the rankings.
func (s *Spatial) Initialize(mesh *trimesh.Mesh, op *trimesh.Operator, meshCaster, occlusionScene caster.SceneCaster, contexts []*observation.Context) error {
	if s.Opts.SurfaceDensity <= 0 {
		return errors.Errorf("spatial strategy needs a positive surface density, got %v", s.Opts.SurfaceDensity)
	}

	if err := s.exhaustive.Initialize(mesh, op, meshCaster, occlusionScene, contexts); err != nil {
		return err
	}

	if s.Opts.SurfaceExtent != nil {
		s.surfaceExtent = *s.Opts.SurfaceExtent
	} else {
		s.surfaceExtent = mesh.Bounds()
	}
	s.twoRegions = s.Opts.OrbitalDensity > 0
	s.spacingSurf = sampling.Spacing(s.Opts.SurfaceDensity)
	if s.twoRegions {
		s.spacingOrb = sampling.Spacing(s.Opts.OrbitalDensity)
	}

	rng := rand.New(rand.NewSource(s.Opts.Seed))

	points := sampling.ScatterSurfacePoints(mesh, s.Opts.SurfaceDensity, &s.surfaceExtent, rng)
	if s.twoRegions {
		for _, p := range sampling.ScatterSurfacePoints(mesh, s.Opts.OrbitalDensity, nil, rng) {
			if !s.surfaceExtent.Contains(p, 0) {
				points = append(points, p)
			}
		}
	}

	for _, ctx := range contexts {
		ray, err := ctx.PixelRay(ctx.CenterPixel())
		if err != nil {
			continue
		}
		if p, ok := meshCaster.RaycastPosition(ray); ok {
			points = append(points, p)
		}
	}

	s.index = sampling.NewPointIndex(points)

	s.cached = make([][]ScoredContext, len(points))
	parallelFor(len(points), s.Opts.MaxCores, func(i int) {
		s.cached[i] = s.exhaustive.FilterAndSortContexts(points[i])
	})

	s.log.Infof("Spatial selection initialized: %v samples over %v candidate contexts", len(points), len(contexts))
	return nil
}

// FilterAndSortContexts - ranked candidates for a query point by combining
// nearby precomputed rankings under the configured mode.
func (s *Spatial) FilterAndSortContexts(point r3.Vec) []ScoredContext {
	if !geom.IsFinite(point) || s.index == nil || s.index.Len() == 0 {
		return nil
	}

	spacing := s.spacingSurf
	if s.twoRegions && !s.surfaceExtent.Contains(point, 0) {
		spacing = s.spacingOrb
	}

	// Expand the search when nothing is nearby (sparse or edge regions)
	radius := s.Opts.SearchRadiusSamples * spacing
	neighbors := s.index.Within(point, radius)
	for len(neighbors) == 0 && radius < 10*spacing {
		radius *= 2
		neighbors = s.index.Within(point, radius)
	}
	if len(neighbors) == 0 {
		neighbors = []int{s.index.Nearest(point)}
	}

	switch s.Opts.Mode {
	case NearestNeighbor:
		return s.cached[s.index.Nearest(point)]

	case FattestNeighbor:
		best := neighbors[0]
		for _, n := range neighbors[1:] {
			if len(s.cached[n]) > len(s.cached[best]) {
				best = n
			}
		}
		return s.cached[best]

	case BestNeighbor:
		best := -1
		for _, n := range neighbors {
			if len(s.cached[n]) == 0 {
				continue
			}
			if best < 0 || s.cached[n][0].Score < s.cached[best][0].Score {
				best = n
			}
		}
		if best < 0 {
			return nil
		}
		return s.cached[best]
	}

	return s.combineNeighbors(point, neighbors)
}

func (s *Spatial) combineNeighbors(point r3.Vec, neighbors []int) []ScoredContext {
	filtered := s.Opts.Mode == CombinedFilteredNeighbors || s.Opts.Mode == CombinedFilteredWeightedNeighbors
	weighted := s.Opts.Mode == CombinedWeightedNeighbors || s.Opts.Mode == CombinedFilteredWeightedNeighbors

	// Linear distance weights in [1,2]: the nearest neighbor's scores pass
	// through unchanged, the furthest are doubled
	dists := make([]float64, len(neighbors))
	dmin, dmax := 0.0, 0.0
	if weighted {
		for i, n := range neighbors {
			dists[i] = r3.Norm(r3.Sub(s.index.Point(n), point))
		}
		dmin, dmax = dists[0], dists[0]
		for _, d := range dists[1:] {
			if d < dmin {
				dmin = d
			}
			if d > dmax {
				dmax = d
			}
		}
	}

	best := map[string]ScoredContext{}
	for i, n := range neighbors {
		weight := 1.0
		if weighted && dmax > dmin {
			weight = 1 + (dists[i]-dmin)/(dmax-dmin)
		}

		for _, sc := range s.cached[n] {
			if filtered && !sc.Ctx.Hull.Contains(point, 0) {
				continue
			}

			px, rng, err := sc.Ctx.Project(point)
			if err != nil || rng <= 0 || !sc.Ctx.InFrame(px) {
				continue
			}

			score := sc.Score * weight
			name := sc.Ctx.Obs.Name
			if prev, exists := best[name]; !exists || score < prev.Score {
				best[name] = ScoredContext{Ctx: sc.Ctx, Score: score}
			}
		}
	}

	if len(best) == 0 {
		return nil
	}
	list := make([]ScoredContext, 0, len(best))
	for _, sc := range best {
		list = append(list, sc)
	}
	return SortScoredContexts(list, s.Prefs)
}

// parallelFor - bounded fork-join over n items. maxCores <= 1 runs serially,
// which is the supported way to disable parallelism for debugging.
func parallelFor(n, maxCores int, fn func(i int)) {
	if maxCores <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	if maxCores > n {
		maxCores = n
	}

	var wg sync.WaitGroup
	work := make(chan int)

	wg.Add(maxCores)
	for w := 0; w < maxCores; w++ {
		go func() {
			defer wg.Done()
			for i := range work {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)
	wg.Wait()
}
