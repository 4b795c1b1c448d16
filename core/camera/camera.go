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

// Camera projection models. Points are in the camera frame: +Z forward along
// the boresight, +X along image columns, +Y along image rows.
package camera

import (
	"fmt"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// ProjectionError - returned when a point has no defined projection in a
// camera model (behind the focal plane, outside the distortion model's valid
// radius, etc). This happens routinely during candidate testing and callers
// must treat it as "not visible from this observation", never as a fault.
type ProjectionError struct {
	Reason string
	Point  r3.Vec
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("projection undefined (%v) for point %+v", e.Reason, e.Point)
}

// IsProjectionError - the recoverable/fatal split for camera errors
func IsProjectionError(err error) bool {
	_, ok := err.(*ProjectionError)
	return ok
}

// CameraModel - opaque projection model for one observation.
//
// Project maps a camera-frame point to a subpixel location plus the range
// from the camera to the point. A ProjectionError means the point is not
// representable in this model; any other error is a fault. Out-of-frame
// pixels and non-positive ranges are returned, not errored - bounds policy
// belongs to the caller.
//
// Unproject maps a subpixel location to a camera-frame ray.
type CameraModel interface {
	Project(p r3.Vec) (geom.Pixel, float64, error)
	Unproject(px geom.Pixel) (geom.Ray, error)
}
