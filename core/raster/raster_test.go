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
	"math"
	"testing"

	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
)

func TestNewImageValidation(t *testing.T) {
	if _, err := NewImage(0, 10, 3); err == nil {
		t.Errorf("expected error for zero width")
	}
	if _, err := NewImage(10, 10, 0); err == nil {
		t.Errorf("expected error for zero bands")
	}
}

func TestBilinearSample(t *testing.T) {
	im, err := NewImage(2, 2, 1)
	if err != nil {
		t.Fatalf("image construction failed: %v", err)
	}
	im.Set(0, 0, 0, 0)
	im.Set(1, 0, 0, 1)
	im.Set(0, 1, 0, 2)
	im.Set(1, 1, 0, 3)

	tests := []struct {
		px     geom.Pixel
		expect float64
	}{
		{geom.Pixel{X: 0, Y: 0}, 0},
		{geom.Pixel{X: 1, Y: 1}, 3},
		{geom.Pixel{X: 0.5, Y: 0}, 0.5},
		{geom.Pixel{X: 0, Y: 0.5}, 1},
		{geom.Pixel{X: 0.5, Y: 0.5}, 1.5},
	}

	for _, test := range tests {
		got, ok := im.BilinearSample(test.px, 0)
		if !ok {
			t.Fatalf("sample at %v failed", test.px)
		}
		if math.Abs(got-test.expect) > 1e-12 {
			t.Errorf("sample at %v: got %v, expected %v", test.px, got, test.expect)
		}
	}

	if _, ok := im.BilinearSample(geom.Pixel{X: -0.5, Y: 0}, 0); ok {
		t.Errorf("expected failure outside the image")
	}
	if _, ok := im.BilinearSample(geom.Pixel{X: 1.5, Y: 0}, 0); ok {
		t.Errorf("expected failure outside the image")
	}
}

func TestBilinearMaskValue(t *testing.T) {
	im, _ := NewImage(3, 3, 1)

	// All valid: exactly 1 everywhere
	v, ok := im.BilinearMaskValue(geom.Pixel{X: 1.3, Y: 0.7})
	if !ok || v != 1 {
		t.Errorf("fully valid mask: got %v (ok=%v), expected 1", v, ok)
	}

	// One invalid pixel pulls any sample touching it below 1
	im.SetValid(1, 1, false)
	v, ok = im.BilinearMaskValue(geom.Pixel{X: 0.5, Y: 0.5})
	if !ok {
		t.Fatalf("mask sample failed")
	}
	if v >= 1 {
		t.Errorf("sample touching invalid pixel: got %v, expected < 1", v)
	}

	// Samples away from it are unaffected
	v, _ = im.BilinearMaskValue(geom.Pixel{X: 2, Y: 0})
	if v != 1 {
		t.Errorf("sample away from invalid pixel: got %v, expected 1", v)
	}
}

func TestCountValid(t *testing.T) {
	im, _ := NewImage(4, 4, 1)
	if got := im.CountValid(); got != 16 {
		t.Errorf("new image: got %v valid, expected 16", got)
	}

	im.SetAllValid(false)
	if got := im.CountValid(); got != 0 {
		t.Errorf("after invalidation: got %v valid, expected 0", got)
	}

	im.SetValid(2, 3, true)
	if got := im.CountValid(); got != 1 {
		t.Errorf("after one unmask: got %v valid, expected 1", got)
	}
}

func TestEncodeDecodePNG(t *testing.T) {
	im, _ := NewImage(4, 3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			im.Set(x, y, 0, float64(x)/4)
			im.Set(x, y, 1, float64(y)/3)
			im.Set(x, y, 2, 0.5)
		}
	}

	data, err := im.EncodePNG()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	back, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if back.Width != 4 || back.Height != 3 || back.Bands != 3 {
		t.Fatalf("decoded shape: got %vx%vx%v, expected 4x3x3", back.Width, back.Height, back.Bands)
	}

	// 8-bit quantisation bounds the round trip error
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			for band := 0; band < 3; band++ {
				if math.Abs(back.At(x, y, band)-im.At(x, y, band)) > 1.0/255+1e-9 {
					t.Errorf("pixel (%v,%v) band %v: got %v, expected about %v",
						x, y, band, back.At(x, y, band), im.At(x, y, band))
				}
			}
		}
	}
}

func TestMedianMAD(t *testing.T) {
	med, mad := MedianMAD([]float64{1, 2, 3, 4, 100})
	if med != 3 {
		t.Errorf("median: got %v, expected 3", med)
	}
	if mad != 1 {
		t.Errorf("MAD: got %v, expected 1", mad)
	}

	med, mad = MedianMAD(nil)
	if med != 0 || mad != 0 {
		t.Errorf("empty input: got (%v,%v), expected (0,0)", med, mad)
	}
}
