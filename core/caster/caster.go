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

// Raycasting oracle consumed by the selection and backprojection code, plus a
// BVH-backed implementation over triangle meshes. The oracle has a strict
// build-then-immutable lifecycle: add meshes, Build once, then query from any
// number of goroutines.
package caster

import (
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hit - nearest intersection along a ray
type Hit struct {
	Distance float64
	Position r3.Vec
	Normal   r3.Vec
}

// SceneCaster - read-only raycasting queries against built scene geometry.
// All methods are safe for concurrent use after Build.
type SceneCaster interface {
	// Raycast - nearest hit with position and surface normal, ok=false on miss
	Raycast(ray geom.Ray) (Hit, bool)

	// RaycastDistance - nearest hit distance ignoring hits closer than
	// tolerance (used to skip self-intersection at the ray start)
	RaycastDistance(ray geom.Ray, tolerance float64) (float64, bool)

	// RaycastPosition - nearest hit position, ok=false on miss
	RaycastPosition(ray geom.Ray) (r3.Vec, bool)

	// Occludes - true if anything intersects the ray segment (0, maxDistance)
	Occludes(ray geom.Ray, maxDistance float64) bool
}
