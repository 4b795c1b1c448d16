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

package backproject

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/NASA-AMMOS/Landform-sub007/core/caster"
	"github.com/NASA-AMMOS/Landform-sub007/core/fileaccess"
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/logger"
	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
	"github.com/NASA-AMMOS/Landform-sub007/core/selection"
	"github.com/NASA-AMMOS/Landform-sub007/core/trimesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const hullEps = 1e-6

// Options - driver tuning. Zero values get sensible defaults from
// DefaultOptions except Resolution, which is required.
type Options struct {
	// Resolution - output texture is Resolution x Resolution texels
	Resolution int

	// BatchSize bounds how many sample points are in flight at once;
	// <= 0 processes everything as a single batch
	BatchSize int

	// MaxCores bounds worker goroutines; <= 1 runs serially
	MaxCores int

	// GlancingAngleDeg - maximum angle between the surface normal and the
	// reversed viewing ray before a hit is rejected as glancing; <= 0
	// disables the check. Only applied when the mesh caster and occlusion
	// scene are the same oracle, since a hit on extra occlusion geometry
	// says nothing about the mesh surface orientation.
	GlancingAngleDeg float64

	// RaycastTolerance - slack in meters when comparing the occlusion hit
	// distance against the expected camera range
	RaycastTolerance float64

	// FullyUnobstructedOnly drops any point occluded in any of its
	// candidate observations, guaranteeing winners are visible everywhere
	// they were ranked
	FullyUnobstructedOnly bool

	// PointTransform optionally remaps sample points before selection and
	// testing, e.g. projecting them onto an enclosing sky sphere
	PointTransform func(r3.Vec) r3.Vec

	// Contexts - observation context construction parameters
	Contexts observation.BuildOptions
}

func DefaultOptions(resolution int) Options {
	return Options{
		Resolution:       resolution,
		BatchSize:        1 << 16,
		MaxCores:         8,
		GlancingAngleDeg: 88,
		RaycastTolerance: 0.01,
		Contexts:         observation.BuildOptions{Near: 0.1, Far: 200},
	}
}

// Driver - runs the backprojection state machine: every destination texel
// ends resolved, either to a surface observation, an orbital observation, or
// the explicit no-observation sentinel.
type Driver struct {
	Strategy selection.Strategy

	meshCaster caster.SceneCaster
	occlusion  caster.SceneCaster
	opts       Options
	log        logger.ILogger
}

func NewDriver(strategy selection.Strategy, meshCaster, occlusionScene caster.SceneCaster, opts Options, log logger.ILogger) *Driver {
	return &Driver{
		Strategy:   strategy,
		meshCaster: meshCaster,
		occlusion:  occlusionScene,
		opts:       opts,
		log:        log,
	}
}

// Backproject - resolves every UV sample of the mesh at the configured
// resolution. Structural problems (no valid resolution, context build
// failure, strategy initialization failure) are fatal; per-point and
// per-candidate failures are folded into Stats.Counters.
func (d *Driver) Backproject(mesh *trimesh.Mesh, op *trimesh.Operator, observations []*observation.Observation, frames observation.FrameCache, fs fileaccess.FileAccess) (*WinnerMap, Stats, error) {
	stats := Stats{}

	if d.opts.Resolution <= 0 {
		return nil, stats, errors.Errorf("invalid output resolution: %v", d.opts.Resolution)
	}

	samples := op.SampleUVSpace(d.opts.Resolution, d.opts.Resolution)
	if d.opts.PointTransform != nil {
		for i := range samples {
			samples[i].Point = d.opts.PointTransform(samples[i].Point)
		}
	}

	contexts, err := observation.BuildContexts(observations, frames, fs, d.opts.Contexts, d.log)
	if err != nil {
		return nil, stats, err
	}

	// Cheap whole-observation prefilter before any per-texel work
	meshHull := mesh.BoundingHull()
	kept := []*observation.Context{}
	for _, ctx := range contexts {
		if ctx.Hull.Intersects(meshHull) {
			kept = append(kept, ctx)
		}
	}
	d.log.Infof("Backprojection: %v of %v observations intersect the mesh, %v sample points",
		len(kept), len(contexts), len(samples))

	surface := []*observation.Context{}
	orbital := []*observation.Context{}
	for _, ctx := range kept {
		if ctx.Obs.Orbital {
			orbital = append(orbital, ctx)
		} else {
			surface = append(surface, ctx)
		}
	}
	// Deterministic fallback order
	sort.Slice(orbital, func(i, j int) bool { return orbital[i].Obs.Name < orbital[j].Obs.Name })

	if err := d.Strategy.Initialize(mesh, op, d.meshCaster, d.occlusion, surface); err != nil {
		return nil, stats, err
	}

	winners := NewWinnerMap(d.opts.Resolution, d.opts.Resolution)

	batchSize := d.opts.BatchSize
	if batchSize <= 0 {
		batchSize = len(samples)
	}
	numBatches := (len(samples) + batchSize - 1) / batchSize

	for start, batchIdx := 0, 0; start < len(samples); start, batchIdx = start+batchSize, batchIdx+1 {
		end := start + batchSize
		if end > len(samples) {
			end = len(samples)
		}
		d.runBatch(samples[start:end], orbital, winners, &stats)
		d.log.Infof("Backprojection batch %v/%v done: %v surface, %v orbital, %v missing",
			batchIdx+1, numBatches,
			stats.BackprojectedSurfacePixels, stats.BackprojectedOrbitalPixels, stats.MissingPixels)
	}

	return winners, stats, nil
}

// runBatch - rank, escalate, fall back. Every sample in the batch is resolved
// by the time this returns.
func (d *Driver) runBatch(batch []trimesh.SampleUVPoint, orbital []*observation.Context, winners *WinnerMap, stats *Stats) {
	c := &stats.Counters

	rankings := make([][]selection.ScoredContext, len(batch))
	parallelOver(len(batch), d.opts.MaxCores, func(i int) {
		if !geom.IsFinite(batch[i].Point) {
			atomic.AddInt64(&c.NonFinite, 1)
			return
		}
		rankings[i] = d.Strategy.FilterAndSortContexts(batch[i].Point)
	})

	if d.opts.FullyUnobstructedOnly {
		parallelOver(len(batch), d.opts.MaxCores, func(i int) {
			for _, sc := range rankings[i] {
				if d.occludedIn(batch[i].Point, sc.Ctx) {
					atomic.AddInt64(&c.Occluded, 1)
					rankings[i] = nil
					return
				}
			}
		})
	}

	pending := map[int]bool{}
	maxLevels := 0
	for i, r := range rankings {
		if len(r) > 0 {
			pending[i] = true
			if len(r) > maxLevels {
				maxLevels = len(r)
			}
		}
	}

	surfaceWins := int64(0)
	for level := 0; level < maxLevels && len(pending) > 0; level++ {
		// Partition the still-unresolved points by their candidate at this
		// level; the groups are disjoint so they can run in parallel
		groups := map[*observation.Context][]int{}
		order := []*observation.Context{}
		for i := range pending {
			if level >= len(rankings[i]) {
				continue
			}
			ctx := rankings[i][level].Ctx
			if _, seen := groups[ctx]; !seen {
				order = append(order, ctx)
			}
			groups[ctx] = append(groups[ctx], i)
		}

		resolved := make([][]int, len(order))
		parallelOver(len(order), d.opts.MaxCores, func(g int) {
			ctx := order[g]
			for _, i := range groups[ctx] {
				px, ok := d.accept(batch[i].Point, ctx, c)
				if !ok {
					continue
				}
				if winners.SetIfAbsent(batch[i].Row, batch[i].Col, Winner{Ctx: ctx, Source: px}) {
					atomic.AddInt64(&surfaceWins, 1)
				}
				resolved[g] = append(resolved[g], i)
			}
		})

		for _, group := range resolved {
			for _, i := range group {
				delete(pending, i)
			}
		}
	}
	stats.BackprojectedSurfacePixels += int(surfaceWins)

	// Orbital fallback and the no-observation sentinel for whatever is left
	for i := range batch {
		if _, ok := winners.Get(batch[i].Row, batch[i].Col); ok {
			continue
		}

		assigned := false
		if geom.IsFinite(batch[i].Point) {
			for _, ctx := range orbital {
				px, ok := d.acceptOrbital(batch[i].Point, ctx, c)
				if !ok {
					continue
				}
				if winners.SetIfAbsent(batch[i].Row, batch[i].Col, Winner{Ctx: ctx, Source: px}) {
					stats.BackprojectedOrbitalPixels++
				}
				assigned = true
				break
			}
		}

		if !assigned {
			winners.SetIfAbsent(batch[i].Row, batch[i].Col, Winner{Ctx: nil})
			stats.MissingPixels++
		}
	}
}

// accept - the raycast-and-accept test for one (point, candidate) pair.
// Returns the source subpixel on success. Every rejection increments exactly
// one counter.
func (d *Driver) accept(point r3.Vec, ctx *observation.Context, c *Counters) (geom.Pixel, bool) {
	if !geom.IsFinite(point) {
		atomic.AddInt64(&c.NonFinite, 1)
		return geom.Pixel{}, false
	}

	if !ctx.Hull.Contains(point, hullEps) {
		atomic.AddInt64(&c.OutOfHull, 1)
		return geom.Pixel{}, false
	}

	px, rng, err := ctx.Project(point)
	if err != nil {
		atomic.AddInt64(&c.ProjectionErrors, 1)
		return geom.Pixel{}, false
	}
	if rng <= 0 || !ctx.InFrame(px) {
		atomic.AddInt64(&c.OutOfFrame, 1)
		return geom.Pixel{}, false
	}

	// Any invalid pixel among the bilinear neighbors pulls the sampled mask
	// value below 1
	if ctx.Mask != nil {
		v, ok := ctx.Mask.BilinearMaskValue(px)
		if !ok || v < 1.0 {
			atomic.AddInt64(&c.Masked, 1)
			return geom.Pixel{}, false
		}
	}

	ray, err := ctx.PixelRay(px)
	if err != nil {
		atomic.AddInt64(&c.ProjectionErrors, 1)
		return geom.Pixel{}, false
	}

	hit, hitOK := d.occlusion.Raycast(ray)
	if hitOK {
		if hit.Distance < rng-d.opts.RaycastTolerance {
			atomic.AddInt64(&c.Occluded, 1)
			return geom.Pixel{}, false
		}
		if d.opts.GlancingAngleDeg > 0 && d.meshCaster == d.occlusion {
			if glancingAngleDeg(hit.Normal, ray.Dir) > d.opts.GlancingAngleDeg {
				atomic.AddInt64(&c.Occluded, 1)
				return geom.Pixel{}, false
			}
		}
	}
	// A miss means the point sits at a geometry boundary; treat as visible

	return px, true
}

// acceptOrbital - the reduced test for orbital fallback: projection bounds
// plus sky occlusion, no mask or glancing checks. Orbital imagery has no
// competing ranking, it either sees the point from above or it does not.
func (d *Driver) acceptOrbital(point r3.Vec, ctx *observation.Context, c *Counters) (geom.Pixel, bool) {
	px, rng, err := ctx.Project(point)
	if err != nil {
		atomic.AddInt64(&c.ProjectionErrors, 1)
		return geom.Pixel{}, false
	}
	if rng <= 0 || !ctx.InFrame(px) {
		atomic.AddInt64(&c.OutOfFrame, 1)
		return geom.Pixel{}, false
	}

	ray, err := ctx.PixelRay(px)
	if err != nil {
		atomic.AddInt64(&c.ProjectionErrors, 1)
		return geom.Pixel{}, false
	}
	if dist, ok := d.occlusion.RaycastDistance(ray, 0); ok && dist < rng-d.opts.RaycastTolerance {
		atomic.AddInt64(&c.Occluded, 1)
		return geom.Pixel{}, false
	}

	return px, true
}

// occludedIn - the occlusion portion of the accept test alone, used by the
// fully-unobstructed-only filter. Candidates the point cannot even project
// into do not count as obstructions.
func (d *Driver) occludedIn(point r3.Vec, ctx *observation.Context) bool {
	px, rng, err := ctx.Project(point)
	if err != nil || rng <= 0 || !ctx.InFrame(px) {
		return false
	}
	ray, err := ctx.PixelRay(px)
	if err != nil {
		return false
	}
	dist, ok := d.occlusion.RaycastDistance(ray, 0)
	return ok && dist < rng-d.opts.RaycastTolerance
}

// glancingAngleDeg - angle in degrees between the surface normal (flipped to
// face the viewer) and the reversed viewing ray
func glancingAngleDeg(normal, rayDir r3.Vec) float64 {
	n := normal
	if r3.Norm(n) < 1e-12 {
		return 0
	}
	n = r3.Unit(n)
	toViewer := r3.Scale(-1, r3.Unit(rayDir))
	if r3.Dot(n, toViewer) < 0 {
		n = r3.Scale(-1, n)
	}
	cos := r3.Dot(n, toViewer)
	if cos > 1 {
		cos = 1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// parallelOver - bounded fork-join over n items; maxCores <= 1 runs serially
func parallelOver(n, maxCores int, fn func(i int)) {
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
