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

package observation

import (
	"fmt"

	"github.com/NASA-AMMOS/Landform-sub007/core/fileaccess"
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/hull"
	"github.com/NASA-AMMOS/Landform-sub007/core/logger"
	"github.com/NASA-AMMOS/Landform-sub007/core/raster"
	"gonum.org/v1/gonum/spatial/r3"
)

// HullCache - stores built frustum hulls in the product store so repeat runs
// over the same observation set skip hull construction. Keys are observation
// names, which are already unique within a run.
type HullCache struct {
	FS     fileaccess.FileAccess
	Bucket string
	Prefix string
}

func (hc *HullCache) path(obsName string) string {
	return hc.Prefix + "/hull-" + fileaccess.MakeValidObjectName(obsName) + ".json"
}

// GetOrCompute - cached hull lookup with compute-and-store on miss. Cache IO
// failures are not fatal, the computed hull is simply not persisted.
func (hc *HullCache) GetOrCompute(obsName string, compute func() (hull.ConvexHull, error), log logger.ILogger) (hull.ConvexHull, error) {
	if hc != nil && hc.FS != nil {
		cached := hull.ConvexHull{}
		err := hc.FS.ReadJSON(hc.Bucket, hc.path(obsName), &cached, true)
		if err == nil && len(cached.Vertices) > 0 {
			return cached, nil
		}
		if err != nil {
			log.Debugf("Hull cache read failed for %v: %v", obsName, err)
		}
	}

	built, err := compute()
	if err != nil {
		return hull.ConvexHull{}, err
	}

	if hc != nil && hc.FS != nil {
		if err := hc.FS.WriteJSON(hc.Bucket, hc.path(obsName), &built); err != nil {
			log.Debugf("Hull cache write failed for %v: %v", obsName, err)
		}
	}
	return built, nil
}

// BuildOptions - context construction parameters. Near/Far bound the frustum
// volume along each corner ray in meters.
type BuildOptions struct {
	Near float64
	Far  float64

	HullCache *HullCache // nil disables caching
}

// FrustumHull - the observation's viewing volume in mesh coordinates, built
// by unprojecting the four image corners and sweeping them from Near to Far.
func FrustumHull(obs *Observation, camToMesh geom.Transform, near, far float64) (hull.ConvexHull, error) {
	cornerPixels := []geom.Pixel{
		{X: 0, Y: 0},
		{X: float64(obs.Width), Y: 0},
		{X: float64(obs.Width), Y: float64(obs.Height)},
		{X: 0, Y: float64(obs.Height)},
	}

	corners := make([]r3.Vec, 0, 8)
	fars := make([]r3.Vec, 0, 4)
	for _, px := range cornerPixels {
		ray, err := obs.Camera.Unproject(px)
		if err != nil {
			return hull.ConvexHull{}, fmt.Errorf("frustum corner unproject failed for %v: %v", obs.Name, err)
		}
		meshRay := camToMesh.ApplyRay(ray)
		corners = append(corners, meshRay.At(near))
		fars = append(fars, meshRay.At(far))
	}
	corners = append(corners, fars...)

	return hull.NewFrustum(corners)
}

// BuildContexts - builds one immutable Context per observation: frame lookup,
// frustum hull (cached when a hull cache is configured) and mask decode. Mask
// products are cached by path so observations sharing a mask decode it once.
// A failed frame lookup or mask load skips that observation with an error log
// rather than failing the run; a structurally invalid camera is fatal.
func BuildContexts(observations []*Observation, frames FrameCache, fs fileaccess.FileAccess, opts BuildOptions, log logger.ILogger) ([]*Context, error) {
	contexts := []*Context{}
	maskCache := map[string]*raster.Image{}

	for _, obs := range observations {
		meshToCam, err := frames.MeshToCamera(obs)
		if err != nil {
			log.Errorf("Skipping observation %v, frame lookup failed: %v", obs.Name, err)
			continue
		}
		camToMesh := meshToCam.Inverted()

		var frustum hull.ConvexHull
		compute := func() (hull.ConvexHull, error) {
			return FrustumHull(obs, camToMesh, opts.Near, opts.Far)
		}
		if opts.HullCache != nil {
			frustum, err = opts.HullCache.GetOrCompute(obs.Name, compute, log)
		} else {
			frustum, err = compute()
		}
		if err != nil {
			return nil, fmt.Errorf("frustum hull build failed for %v: %v", obs.Name, err)
		}

		ctx := &Context{
			Obs:       obs,
			MeshToCam: meshToCam,
			CamToMesh: camToMesh,
			Hull:      frustum,
		}

		if len(obs.MaskPath) > 0 {
			mask, ok := maskCache[obs.MaskPath]
			if !ok {
				data, err := fs.ReadObject(obs.Bucket, obs.MaskPath)
				if err == nil {
					mask, err = raster.Decode(data)
				}
				if err != nil {
					log.Errorf("Skipping observation %v, mask load failed: %v", obs.Name, err)
					continue
				}
				maskCache[obs.MaskPath] = mask
			}
			ctx.Mask = mask
		}

		contexts = append(contexts, ctx)
	}

	return contexts, nil
}
