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

package camera

import (
	"math"

	"github.com/pkg/errors"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// BrownConrady - radial (K1..K3) and tangential (P1, P2) lens distortion
// applied to normalised image coordinates.
type BrownConrady struct {
	K1 float64 `json:"k1"`
	K2 float64 `json:"k2"`
	K3 float64 `json:"k3"`
	P1 float64 `json:"p1"`
	P2 float64 `json:"p2"`
}

func (bc *BrownConrady) distort(x, y float64) (float64, float64) {
	r2 := x*x + y*y
	radial := 1 + bc.K1*r2 + bc.K2*r2*r2 + bc.K3*r2*r2*r2
	xd := x*radial + 2*bc.P1*x*y + bc.P2*(r2+2*x*x)
	yd := y*radial + bc.P1*(r2+2*y*y) + 2*bc.P2*x*y
	return xd, yd
}

// undistort - fixed point iteration, converges quickly for sane lens terms
func (bc *BrownConrady) undistort(xd, yd float64) (float64, float64) {
	x, y := xd, yd
	for i := 0; i < 8; i++ {
		dx, dy := bc.distort(x, y)
		x += xd - dx
		y += yd - dy
	}
	return x, y
}

// Pinhole - central projection camera with focal lengths and principal point
// in pixels, plus optional Brown-Conrady distortion.
type Pinhole struct {
	Fx float64 `json:"fx"`
	Fy float64 `json:"fy"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`

	Distortion *BrownConrady `json:"distortion,omitempty"`
}

// NewPinhole - validates focal lengths up front, bad values are a
// configuration fault not a per-point failure
func NewPinhole(fx, fy, cx, cy float64, dist *BrownConrady) (*Pinhole, error) {
	if fx <= 0 || fy <= 0 {
		return nil, errors.Errorf("pinhole focal lengths must be positive, got fx=%v fy=%v", fx, fy)
	}
	return &Pinhole{Fx: fx, Fy: fy, Cx: cx, Cy: cy, Distortion: dist}, nil
}

func (c *Pinhole) Project(p r3.Vec) (geom.Pixel, float64, error) {
	if p.Z < 1e-9 {
		return geom.Pixel{}, 0, &ProjectionError{Reason: "behind focal plane", Point: p}
	}

	x := p.X / p.Z
	y := p.Y / p.Z
	if c.Distortion != nil {
		x, y = c.Distortion.distort(x, y)
		if math.IsNaN(x) || math.IsNaN(y) {
			return geom.Pixel{}, 0, &ProjectionError{Reason: "distortion diverged", Point: p}
		}
	}

	px := geom.Pixel{
		X: c.Fx*x + c.Cx,
		Y: c.Fy*y + c.Cy,
	}
	return px, r3.Norm(p), nil
}

func (c *Pinhole) Unproject(px geom.Pixel) (geom.Ray, error) {
	x := (px.X - c.Cx) / c.Fx
	y := (px.Y - c.Cy) / c.Fy
	if c.Distortion != nil {
		x, y = c.Distortion.undistort(x, y)
	}
	return geom.Ray{
		Origin: r3.Vec{},
		Dir:    r3.Unit(r3.Vec{X: x, Y: y, Z: 1}),
	}, nil
}

// Orthographic - parallel projection, used for orbital imagery where the
// viewing rays are effectively parallel at surface scale. Scale is pixels per
// meter; range is the point's depth along the boresight.
type Orthographic struct {
	Scale float64 `json:"scale"`
	Cx    float64 `json:"cx"`
	Cy    float64 `json:"cy"`
}

func NewOrthographic(scale, cx, cy float64) (*Orthographic, error) {
	if scale <= 0 {
		return nil, errors.Errorf("orthographic scale must be positive, got %v", scale)
	}
	return &Orthographic{Scale: scale, Cx: cx, Cy: cy}, nil
}

func (c *Orthographic) Project(p r3.Vec) (geom.Pixel, float64, error) {
	px := geom.Pixel{
		X: c.Scale*p.X + c.Cx,
		Y: c.Scale*p.Y + c.Cy,
	}
	// Depth can legitimately be <= 0 here, the caller's range check rejects it
	return px, p.Z, nil
}

func (c *Orthographic) Unproject(px geom.Pixel) (geom.Ray, error) {
	return geom.Ray{
		Origin: r3.Vec{X: (px.X - c.Cx) / c.Scale, Y: (px.Y - c.Cy) / c.Scale},
		Dir:    r3.Vec{Z: 1},
	}, nil
}
