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

	"github.com/NASA-AMMOS/Landform-sub007/core/camera"
	"github.com/NASA-AMMOS/Landform-sub007/core/fileaccess"
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/pkg/errors"
)

// CameraSpec - serializable camera parameters
type CameraSpec struct {
	Type string `json:"type"` // Pinhole or Orthographic

	Fx float64 `json:"fx,omitempty"`
	Fy float64 `json:"fy,omitempty"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`

	// Scale - pixels per meter of ground, Orthographic only
	Scale float64 `json:"scale,omitempty"`

	Distortion *camera.BrownConrady `json:"distortion,omitempty"`
}

func (cs CameraSpec) Build() (camera.CameraModel, error) {
	switch cs.Type {
	case "Pinhole":
		return camera.NewPinhole(cs.Fx, cs.Fy, cs.Cx, cs.Cy, cs.Distortion)
	case "Orthographic":
		return camera.NewOrthographic(cs.Scale, cs.Cx, cs.Cy)
	}
	return nil, errors.Errorf("unknown camera type: %v", cs.Type)
}

// ObservationSpec - one manifest entry: the observation's identity, products,
// camera and its mesh-frame-to-camera-frame transform (row-major 4x4)
type ObservationSpec struct {
	Name string `json:"name"`

	Bucket      string `json:"bucket,omitempty"`
	ImagePath   string `json:"imagePath"`
	VariantPath string `json:"variantPath,omitempty"`
	MaskPath    string `json:"maskPath,omitempty"`

	Width  int `json:"width"`
	Height int `json:"height"`
	Bands  int `json:"bands"`

	Orbital bool `json:"orbital,omitempty"`
	Linear  bool `json:"linear,omitempty"`

	Camera       CameraSpec `json:"camera"`
	MeshToCamera []float64  `json:"meshToCamera"`

	LumMedian float64 `json:"lumMedian,omitempty"`
	LumMAD    float64 `json:"lumMAD,omitempty"`
}

// Manifest - the observation list product consumed by the baking tool
type Manifest struct {
	Observations []ObservationSpec `json:"observations"`
}

// LoadManifest - reads and validates the manifest, building the observation
// list and its frame table. Any invalid entry is a structural error, the
// whole load fails.
func LoadManifest(fs fileaccess.FileAccess, bucket string, path string) ([]*Observation, *StaticFrames, error) {
	manifest := Manifest{}
	if err := fs.ReadJSON(bucket, path, &manifest, false); err != nil {
		return nil, nil, fmt.Errorf("failed to read observation manifest %v: %v", path, err)
	}

	observations := make([]*Observation, 0, len(manifest.Observations))
	frames := &StaticFrames{Transforms: map[string]geom.Transform{}}

	for _, spec := range manifest.Observations {
		if len(spec.Name) <= 0 {
			return nil, nil, errors.Errorf("manifest entry with empty name in %v", path)
		}
		if _, dup := frames.Transforms[spec.Name]; dup {
			return nil, nil, errors.Errorf("duplicate observation name: %v", spec.Name)
		}
		if spec.Width <= 0 || spec.Height <= 0 || spec.Bands <= 0 {
			return nil, nil, errors.Errorf("invalid dimensions for observation %v: %vx%vx%v",
				spec.Name, spec.Width, spec.Height, spec.Bands)
		}

		cam, err := spec.Camera.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("bad camera for observation %v: %v", spec.Name, err)
		}

		meshToCam, err := geom.NewTransform(spec.MeshToCamera)
		if err != nil {
			return nil, nil, fmt.Errorf("bad transform for observation %v: %v", spec.Name, err)
		}

		observations = append(observations, &Observation{
			Name:        spec.Name,
			Bucket:      spec.Bucket,
			ImagePath:   spec.ImagePath,
			VariantPath: spec.VariantPath,
			MaskPath:    spec.MaskPath,
			Width:       spec.Width,
			Height:      spec.Height,
			Bands:       spec.Bands,
			Orbital:     spec.Orbital,
			Linear:      spec.Linear,
			Camera:      cam,
			LumMedian:   spec.LumMedian,
			LumMAD:      spec.LumMAD,
		})
		frames.Transforms[spec.Name] = meshToCam
	}

	return observations, frames, nil
}
