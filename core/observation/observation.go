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

// Candidate observation model: one source image, its camera, and its
// geometric relationship to the mesh being textured.
package observation

import (
	"github.com/NASA-AMMOS/Landform-sub007/core/camera"
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/hull"
	"github.com/NASA-AMMOS/Landform-sub007/core/raster"
	"gonum.org/v1/gonum/spatial/r3"
)

// Observation - one candidate source image. Name is the unique identity key
// used for winner grouping and deterministic tie-breaking. Immutable.
type Observation struct {
	Name string

	// Product store locations
	Bucket      string
	ImagePath   string
	VariantPath string // optional reprocessed variant, empty if none
	MaskPath    string // optional validity mask image, empty if none

	Width  int
	Height int
	Bands  int

	Orbital bool
	Linear  bool // radiometrically linear products sort ahead when preferred

	Camera camera.CameraModel

	// Precomputed luminance statistics used by the compositor for
	// distribution matching. Zero MAD disables scaling for this observation.
	LumMedian float64
	LumMAD    float64
}

// FrameCache - transform lookup service. Returns the mesh-frame-to-camera-
// frame transform for an observation (mean of the uncertain transform, the
// covariance is not used here).
type FrameCache interface {
	MeshToCamera(obs *Observation) (geom.Transform, error)
}

// StaticFrames - FrameCache over a fixed table, keyed by observation name
type StaticFrames struct {
	Transforms map[string]geom.Transform
}

func (sf *StaticFrames) MeshToCamera(obs *Observation) (geom.Transform, error) {
	t, ok := sf.Transforms[obs.Name]
	if !ok {
		return geom.Transform{}, &UnknownFrameError{Name: obs.Name}
	}
	return t, nil
}

type UnknownFrameError struct {
	Name string
}

func (e *UnknownFrameError) Error() string {
	return "no frame transform for observation: " + e.Name
}

// Context - an observation plus everything needed to test it against mesh
// points: transforms both ways, the frustum hull in mesh coordinates, and the
// decoded mask if one exists. Built once per run, immutable after.
type Context struct {
	Obs *Observation

	MeshToCam geom.Transform
	CamToMesh geom.Transform

	Hull hull.ConvexHull

	Mask *raster.Image // nil when the observation has no mask product
}

// Project - maps a mesh-frame point into the observation image. Returns the
// subpixel location and camera range. Propagates camera.ProjectionError for
// unrepresentable points; bounds are NOT checked here.
func (c *Context) Project(p r3.Vec) (geom.Pixel, float64, error) {
	return c.Obs.Camera.Project(c.MeshToCam.Apply(p))
}

// InFrame - true when the pixel rounds to a location inside the image
func (c *Context) InFrame(px geom.Pixel) bool {
	return px.InBounds(c.Obs.Width, c.Obs.Height)
}

// PixelRay - the mesh-frame viewing ray through a pixel
func (c *Context) PixelRay(px geom.Pixel) (geom.Ray, error) {
	ray, err := c.Obs.Camera.Unproject(px)
	if err != nil {
		return geom.Ray{}, err
	}
	return c.CamToMesh.ApplyRay(ray), nil
}

// CameraPosition - the camera origin in mesh coordinates
func (c *Context) CameraPosition() r3.Vec {
	return c.CamToMesh.Apply(r3.Vec{})
}

// CenterPixel - the image center, the injection point that guarantees
// narrow-field observations are represented in sparse sampling
func (c *Context) CenterPixel() geom.Pixel {
	return geom.Pixel{X: float64(c.Obs.Width) / 2, Y: float64(c.Obs.Height) / 2}
}
