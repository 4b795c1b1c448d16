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
	"testing"

	"github.com/NASA-AMMOS/Landform-sub007/core/camera"
	"github.com/NASA-AMMOS/Landform-sub007/core/fileaccess"
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/hull"
	"github.com/NASA-AMMOS/Landform-sub007/core/logger"
	"github.com/NASA-AMMOS/Landform-sub007/core/raster"
	"gonum.org/v1/gonum/spatial/r3"
)

func downCamToMesh() geom.Transform {
	return geom.LookAtTransform(r3.Vec{X: 5, Y: 5, Z: 10}, r3.Vec{X: 5, Y: 5}, r3.Vec{Y: 1})
}

func downObservation(name string) (*Observation, geom.Transform) {
	cam, _ := camera.NewOrthographic(10, 50, 50)
	obs := &Observation{
		Name:   name,
		Width:  100,
		Height: 100,
		Bands:  1,
		Camera: cam,
	}
	return obs, downCamToMesh().Inverted()
}

func TestStaticFrames(t *testing.T) {
	obs, meshToCam := downObservation("navcam")
	frames := &StaticFrames{Transforms: map[string]geom.Transform{"navcam": meshToCam}}

	if _, err := frames.MeshToCamera(obs); err != nil {
		t.Errorf("known observation: unexpected error %v", err)
	}

	other := &Observation{Name: "hazcam"}
	_, err := frames.MeshToCamera(other)
	if err == nil {
		t.Fatalf("unknown observation: expected an error")
	}
	if _, ok := err.(*UnknownFrameError); !ok {
		t.Errorf("expected UnknownFrameError, got %T", err)
	}
}

func TestContextProjectAndRay(t *testing.T) {
	obs, meshToCam := downObservation("navcam")
	ctx := &Context{Obs: obs, MeshToCam: meshToCam, CamToMesh: meshToCam.Inverted()}

	px, rng, err := ctx.Project(r3.Vec{X: 5, Y: 5})
	if err != nil {
		t.Fatalf("project failed: %v", err)
	}
	if px.X != 50 || px.Y != 50 {
		t.Errorf("boresight pixel: got %v, expected (50,50)", px)
	}
	if rng != 10 {
		t.Errorf("range: got %v, expected 10", rng)
	}
	if !ctx.InFrame(px) {
		t.Errorf("boresight pixel should be in frame")
	}

	ray, err := ctx.PixelRay(px)
	if err != nil {
		t.Fatalf("pixel ray failed: %v", err)
	}
	hit := ray.At(rng)
	if r3.Norm(r3.Sub(hit, r3.Vec{X: 5, Y: 5})) > 1e-9 {
		t.Errorf("ray at range: got %v, expected (5,5,0)", hit)
	}

	cam := ctx.CameraPosition()
	if r3.Norm(r3.Sub(cam, r3.Vec{X: 5, Y: 5, Z: 10})) > 1e-9 {
		t.Errorf("camera position: got %v, expected (5,5,10)", cam)
	}
}

func TestFrustumHullContains(t *testing.T) {
	obs, _ := downObservation("navcam")

	h, err := FrustumHull(obs, downCamToMesh(), 0.1, 200)
	if err != nil {
		t.Fatalf("frustum build failed: %v", err)
	}

	tests := []struct {
		p    r3.Vec
		want bool
	}{
		{r3.Vec{X: 5, Y: 5, Z: 0}, true},   // ground under the boresight
		{r3.Vec{X: 1, Y: 9, Z: 0}, true},   // ground near a footprint corner
		{r3.Vec{X: 50, Y: 50, Z: 0}, false},
		{r3.Vec{X: 5, Y: 5, Z: 11}, false}, // behind the camera
	}
	for _, tc := range tests {
		if got := h.Contains(tc.p, 1e-6); got != tc.want {
			t.Errorf("contains %v: got %v, expected %v", tc.p, got, tc.want)
		}
	}
}

func manifestFS(t *testing.T, m Manifest) fileaccess.FileAccess {
	t.Helper()
	fs := fileaccess.NewMemoryAccess()
	if err := fs.WriteJSON("data", "manifest.json", &m); err != nil {
		t.Fatalf("manifest store failed: %v", err)
	}
	return fs
}

func identityTransform() []float64 {
	return []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func validSpec(name string) ObservationSpec {
	return ObservationSpec{
		Name:         name,
		ImagePath:    name + ".png",
		Width:        100,
		Height:       100,
		Bands:        3,
		Camera:       CameraSpec{Type: "Orthographic", Scale: 10, Cx: 50, Cy: 50},
		MeshToCamera: identityTransform(),
	}
}

func TestLoadManifest(t *testing.T) {
	pinhole := validSpec("mastcam")
	pinhole.Camera = CameraSpec{Type: "Pinhole", Fx: 800, Fy: 800, Cx: 50, Cy: 50}
	pinhole.Orbital = false
	pinhole.LumMedian = 0.4
	pinhole.LumMAD = 0.05

	orbital := validSpec("himap")
	orbital.Orbital = true

	fs := manifestFS(t, Manifest{Observations: []ObservationSpec{pinhole, orbital}})

	observations, frames, err := LoadManifest(fs, "data", "manifest.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(observations) != 2 {
		t.Fatalf("got %v observations, expected 2", len(observations))
	}

	if observations[0].Name != "mastcam" || observations[0].LumMedian != 0.4 {
		t.Errorf("first observation: got %+v", observations[0])
	}
	if !observations[1].Orbital {
		t.Errorf("second observation should be orbital")
	}
	for _, obs := range observations {
		if _, err := frames.MeshToCamera(obs); err != nil {
			t.Errorf("frame lookup for %v failed: %v", obs.Name, err)
		}
	}
}

func TestLoadManifestErrors(t *testing.T) {
	noName := validSpec("")
	dupA := validSpec("dup")
	dupB := validSpec("dup")
	badDims := validSpec("flat")
	badDims.Height = 0
	badCamera := validSpec("cam")
	badCamera.Camera.Type = "Fisheye"
	badTransform := validSpec("xform")
	badTransform.MeshToCamera = []float64{1, 2, 3}

	tests := []struct {
		name  string
		specs []ObservationSpec
	}{
		{"empty name", []ObservationSpec{noName}},
		{"duplicate name", []ObservationSpec{dupA, dupB}},
		{"bad dimensions", []ObservationSpec{badDims}},
		{"bad camera", []ObservationSpec{badCamera}},
		{"bad transform", []ObservationSpec{badTransform}},
	}

	for _, tc := range tests {
		fs := manifestFS(t, Manifest{Observations: tc.specs})
		if _, _, err := LoadManifest(fs, "data", "manifest.json"); err == nil {
			t.Errorf("%v: expected an error", tc.name)
		}
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	fs := fileaccess.NewMemoryAccess()
	if _, _, err := LoadManifest(fs, "data", "nope.json"); err == nil {
		t.Errorf("expected an error for a missing manifest")
	}
}

func TestBuildContexts(t *testing.T) {
	obsA, m2cA := downObservation("a")
	obsB, _ := downObservation("b") // no frame entry, must be skipped

	frames := &StaticFrames{Transforms: map[string]geom.Transform{"a": m2cA}}
	fs := fileaccess.NewMemoryAccess()

	contexts, err := BuildContexts([]*Observation{obsA, obsB}, frames, fs,
		BuildOptions{Near: 0.1, Far: 200}, &logger.NullLogger{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(contexts) != 1 {
		t.Fatalf("got %v contexts, expected 1 (missing frame skips)", len(contexts))
	}
	if contexts[0].Obs.Name != "a" {
		t.Errorf("kept context: got %v, expected a", contexts[0].Obs.Name)
	}
	if len(contexts[0].Hull.Vertices) == 0 {
		t.Errorf("context hull should be built")
	}
	if contexts[0].Mask != nil {
		t.Errorf("no mask product configured, mask should be nil")
	}
}

func TestBuildContextsMask(t *testing.T) {
	obs, m2c := downObservation("a")
	obs.Bucket = "data"
	obs.MaskPath = "a_mask.png"

	mask, err := raster.NewImage(4, 4, 1)
	if err != nil {
		t.Fatalf("mask construction failed: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			mask.Set(x, y, 0, 1)
		}
	}
	mask.SetAllValid(true)
	data, err := mask.EncodePNG()
	if err != nil {
		t.Fatalf("mask encode failed: %v", err)
	}

	fs := fileaccess.NewMemoryAccess()
	if err := fs.WriteObject("data", "a_mask.png", data); err != nil {
		t.Fatalf("mask store failed: %v", err)
	}

	frames := &StaticFrames{Transforms: map[string]geom.Transform{"a": m2c}}
	contexts, err := BuildContexts([]*Observation{obs}, frames, fs,
		BuildOptions{Near: 0.1, Far: 200}, &logger.NullLogger{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(contexts) != 1 || contexts[0].Mask == nil {
		t.Fatalf("expected one context with a decoded mask")
	}
	if contexts[0].Mask.Width != 4 {
		t.Errorf("mask width: got %v, expected 4", contexts[0].Mask.Width)
	}
}

func TestBuildContextsMaskLoadFailureSkips(t *testing.T) {
	obs, m2c := downObservation("a")
	obs.MaskPath = "never-stored.png"

	frames := &StaticFrames{Transforms: map[string]geom.Transform{"a": m2c}}
	contexts, err := BuildContexts([]*Observation{obs}, frames, fileaccess.NewMemoryAccess(),
		BuildOptions{Near: 0.1, Far: 200}, &logger.NullLogger{})
	if err != nil {
		t.Fatalf("a failed mask load must not fail the build: %v", err)
	}
	if len(contexts) != 0 {
		t.Errorf("got %v contexts, expected the observation skipped", len(contexts))
	}
}

func TestHullCache(t *testing.T) {
	obs, _ := downObservation("a")
	fs := fileaccess.NewMemoryAccess()
	hc := &HullCache{FS: fs, Bucket: "cache", Prefix: "hulls"}

	computed := 0
	compute := func() (hull.ConvexHull, error) {
		computed++
		return FrustumHull(obs, downCamToMesh(), 0.1, 200)
	}

	first, err := hc.GetOrCompute("a", compute, &logger.NullLogger{})
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	second, err := hc.GetOrCompute("a", compute, &logger.NullLogger{})
	if err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}

	if computed != 1 {
		t.Errorf("compute ran %v times, expected 1 (second hit the cache)", computed)
	}
	if len(first.Vertices) == 0 || len(second.Vertices) != len(first.Vertices) {
		t.Errorf("cached hull differs: %v vs %v vertices", len(second.Vertices), len(first.Vertices))
	}
	if !second.Contains(r3.Vec{X: 5, Y: 5}, 1e-6) {
		t.Errorf("cached hull lost containment of the footprint center")
	}
}
