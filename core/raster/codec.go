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

package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	xdraw "golang.org/x/image/draw"

	// Source observation products arrive as PNG, TIFF or BMP
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Decode - decodes PNG/TIFF/BMP bytes into a 1-band (gray) or 3-band raster.
// All pixels are marked valid; masks are separate products.
func Decode(data []byte) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	bands := 3
	if _, isGray := src.(*image.Gray); isGray {
		bands = 1
	}
	if _, isGray16 := src.(*image.Gray16); isGray16 {
		bands = 1
	}

	img, err := NewImage(w, h, bands)
	if err != nil {
		return nil, err
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if bands == 1 {
				img.Set(x, y, 0, float64(r)/65535.0)
			} else {
				img.Set(x, y, 0, float64(r)/65535.0)
				img.Set(x, y, 1, float64(g)/65535.0)
				img.Set(x, y, 2, float64(b)/65535.0)
			}
		}
	}
	return img, nil
}

// ToNRGBA - clamps bands to 8 bit for encoding. 1-band rasters replicate to
// gray, >=3 bands use the first three. Invalid pixels get zero alpha.
func (im *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			var r, g, b float64
			if im.Bands >= 3 {
				r, g, b = im.At(x, y, 0), im.At(x, y, 1), im.At(x, y, 2)
			} else {
				r = im.At(x, y, 0)
				g, b = r, r
			}
			a := uint8(255)
			if !im.Valid(x, y) {
				a = 0
			}
			out.SetNRGBA(x, y, color.NRGBA{
				R: clampByte(r),
				G: clampByte(g),
				B: clampByte(b),
				A: a,
			})
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// EncodePNG - 8 bit PNG bytes
func (im *Image) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, im.ToNRGBA()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeWebP - lossless WebP bytes
func (im *Image) EncodeWebP() ([]byte, error) {
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, im.ToNRGBA(), nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Preview - downsampled copy for quick-look products
func (im *Image) Preview(width, height int) *image.NRGBA {
	src := im.ToNRGBA()
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return out
}
