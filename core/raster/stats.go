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
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Median - quantile over a copy of the values, zero for empty input
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// MedianMAD - median and median absolute deviation. MAD is the robust spread
// estimate used for luminance distribution matching between observations.
func MedianMAD(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	med := Median(values)

	devs := make([]float64, len(values))
	for i, v := range values {
		devs[i] = math.Abs(v - med)
	}
	return med, Median(devs)
}

// BandStats - median and MAD of a band's valid pixels
func (im *Image) BandStats(band int) (float64, float64) {
	values := []float64{}
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			if im.Valid(x, y) {
				values = append(values, im.At(x, y, band))
			}
		}
	}
	return MedianMAD(values)
}
