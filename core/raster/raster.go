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

// N-band raster with a per-pixel validity mask. Band values are stored as
// float64 in [0,1] regardless of source bit depth; the texturing code treats
// masks conservatively (bilinear samples touching any invalid pixel count as
// invalid).
package raster

import (
	"math"

	"github.com/pkg/errors"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
)

// Image - width x height x bands raster, row major, band interleaved
type Image struct {
	Width  int
	Height int
	Bands  int

	data []float64
	mask []bool
}

// NewImage - all pixels start valid with zero value
func NewImage(width, height, bands int) (*Image, error) {
	if width <= 0 || height <= 0 || bands <= 0 {
		return nil, errors.Errorf("invalid image dimensions %vx%vx%v", width, height, bands)
	}

	img := &Image{
		Width:  width,
		Height: height,
		Bands:  bands,
		data:   make([]float64, width*height*bands),
		mask:   make([]bool, width*height),
	}
	for i := range img.mask {
		img.mask[i] = true
	}
	return img, nil
}

func (im *Image) InBounds(x, y int) bool {
	return x >= 0 && x < im.Width && y >= 0 && y < im.Height
}

func (im *Image) At(x, y, band int) float64 {
	return im.data[(y*im.Width+x)*im.Bands+band]
}

func (im *Image) Set(x, y, band int, v float64) {
	im.data[(y*im.Width+x)*im.Bands+band] = v
}

func (im *Image) Valid(x, y int) bool {
	return im.mask[y*im.Width+x]
}

func (im *Image) SetValid(x, y int, valid bool) {
	im.mask[y*im.Width+x] = valid
}

// SetAllValid - used by the compositor to start from a fully-invalid output
func (im *Image) SetAllValid(valid bool) {
	for i := range im.mask {
		im.mask[i] = valid
	}
}

func (im *Image) CountValid() int {
	count := 0
	for _, v := range im.mask {
		if v {
			count++
		}
	}
	return count
}

// BilinearSample - interpolated band value at a subpixel location. ok=false
// if the 2x2 support falls outside the image. Invalid pixels contribute their
// stored value; use BilinearMaskValue to reason about validity.
func (im *Image) BilinearSample(px geom.Pixel, band int) (float64, bool) {
	x0, y0, fx, fy, ok := im.bilinearSupport(px)
	if !ok {
		return 0, false
	}

	v00 := im.At(x0, y0, band)
	v10 := im.At(x0+1, y0, band)
	v01 := im.At(x0, y0+1, band)
	v11 := im.At(x0+1, y0+1, band)

	top := v00*(1-fx) + v10*fx
	bot := v01*(1-fx) + v11*fx
	return top*(1-fy) + bot*fy, true
}

// BilinearMaskValue - bilinear interpolation of the validity mask as 0/1
// values. Any invalid pixel in the 2x2 support pulls the result below 1, which
// is exactly the conservative masking rule used during candidate acceptance.
func (im *Image) BilinearMaskValue(px geom.Pixel) (float64, bool) {
	x0, y0, fx, fy, ok := im.bilinearSupport(px)
	if !ok {
		return 0, false
	}

	val := func(x, y int) float64 {
		if im.Valid(x, y) {
			return 1
		}
		return 0
	}

	top := val(x0, y0)*(1-fx) + val(x0+1, y0)*fx
	bot := val(x0, y0+1)*(1-fx) + val(x0+1, y0+1)*fx
	return top*(1-fy) + bot*fy, true
}

func (im *Image) bilinearSupport(px geom.Pixel) (int, int, float64, float64, bool) {
	// Clamp the support to the image edge so border pixels still sample
	x := px.X
	y := px.Y
	if math.IsNaN(x) || math.IsNaN(y) || im.Width < 2 || im.Height < 2 {
		return 0, 0, 0, 0, false
	}
	if x < 0 || y < 0 || x > float64(im.Width-1) || y > float64(im.Height-1) {
		return 0, 0, 0, 0, false
	}

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	if x0 >= im.Width-1 {
		x0 = im.Width - 2
	}
	if y0 >= im.Height-1 {
		y0 = im.Height - 2
	}
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}

	return x0, y0, x - float64(x0), y - float64(y0), true
}
