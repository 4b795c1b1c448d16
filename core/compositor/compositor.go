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

// Texture compositor: turns a resolved winner map into the final texture by
// sampling each winning observation's image, then inpainting and filling
// whatever stayed unobserved.
package compositor

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/NASA-AMMOS/Landform-sub007/core/backproject"
	"github.com/NASA-AMMOS/Landform-sub007/core/fileaccess"
	"github.com/NASA-AMMOS/Landform-sub007/core/geom"
	"github.com/NASA-AMMOS/Landform-sub007/core/logger"
	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
	"github.com/NASA-AMMOS/Landform-sub007/core/raster"
)

// Options - compositing policy. Inpaint radii: negative disables the pass,
// zero runs waves until no invalid pixel has a valid neighbor left, positive
// bounds the number of waves.
type Options struct {
	// Bands - output texture band count, usually 3
	Bands int

	// UseVariant requests each observation's reprocessed variant product
	// and falls back to the original image when the variant is missing
	UseVariant bool

	// LuminanceWeight blends each observation's luminance distribution
	// toward the population median before sampling; 0 disables, 1 matches
	// fully
	LuminanceWeight float64

	// MissingColor - per-band flat fill for texels no observation saw.
	// Length must equal Bands.
	MissingColor []float64

	// InpaintRadius - waves of neighbor-average bleed into unobserved
	// texels before the flat fill
	InpaintRadius int

	// GutterInpaintRadius - second pass after the flat fill that bleeds
	// color into the gutter outside the UV footprint, for minification
	// quality. Negative disables.
	GutterInpaintRadius int
}

func DefaultOptions() Options {
	return Options{
		Bands:               3,
		LuminanceWeight:     0,
		MissingColor:        []float64{0.5, 0.5, 0.5},
		InpaintRadius:       4,
		GutterInpaintRadius: 0,
	}
}

// Stats - compositing summary
type Stats struct {
	SurfacePixels    int
	OrbitalPixels    int
	MissingPixels    int
	VariantFallbacks int
}

type assignment struct {
	row, col int
	source   geom.Pixel
}

// Composite - produces the output texture from a winner map. Only structural
// misconfiguration is fatal; a failed image load fails that observation's
// pixel group with a warning and the texels fall through to inpaint/fill.
func Composite(winners *backproject.WinnerMap, opts Options, fs fileaccess.FileAccess, log logger.ILogger) (*raster.Image, Stats, error) {
	stats := Stats{}

	if opts.Bands <= 0 {
		return nil, stats, errors.Errorf("invalid output band count: %v", opts.Bands)
	}
	if len(opts.MissingColor) != opts.Bands {
		return nil, stats, errors.Errorf("missing color has %v bands, output has %v",
			len(opts.MissingColor), opts.Bands)
	}

	out, err := raster.NewImage(winners.Width(), winners.Height(), opts.Bands)
	if err != nil {
		return nil, stats, err
	}
	out.SetAllValid(false)

	// Group winning texels by observation so each source loads once
	groups := map[string][]assignment{}
	ctxByName := map[string]*observation.Context{}
	observed := make([]bool, winners.Width()*winners.Height())

	winners.ForEach(func(row, col int, w backproject.Winner) {
		if row < 0 || row >= winners.Height() || col < 0 || col >= winners.Width() {
			log.Errorf("Winner texel (%v,%v) is outside the %vx%v output, skipping",
				row, col, winners.Width(), winners.Height())
			return
		}
		observed[row*winners.Width()+col] = true
		if w.Ctx == nil {
			stats.MissingPixels++
			return
		}
		name := w.Ctx.Obs.Name
		ctxByName[name] = w.Ctx
		groups[name] = append(groups[name], assignment{row: row, col: col, source: w.Source})
	})

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	popMedian, popMAD := populationLuminance(names, ctxByName)

	for _, name := range names {
		ctx := ctxByName[name]
		img, usedFallback, err := loadSource(ctx.Obs, opts.UseVariant, fs)
		if err != nil {
			log.Errorf("Failed to load image for %v, its %v texels stay unobserved: %v",
				name, len(groups[name]), err)
			stats.MissingPixels += len(groups[name])
			continue
		}
		if usedFallback {
			stats.VariantFallbacks++
		}

		adjust := luminanceAdjuster(ctx.Obs, opts.LuminanceWeight, popMedian, popMAD)

		wrote := 0
		for _, a := range groups[name] {
			ok := true
			for band := 0; band < opts.Bands && ok; band++ {
				srcBand := band
				if srcBand >= img.Bands {
					srcBand = img.Bands - 1
				}
				v, sampled := img.BilinearSample(a.source, srcBand)
				if !sampled {
					ok = false
					break
				}
				out.Set(a.col, a.row, band, adjust(v))
			}
			if !ok {
				// Outside the source's valid support, fall through to fill
				continue
			}
			out.SetValid(a.col, a.row, true)
			wrote++
		}

		if ctx.Obs.Orbital {
			stats.OrbitalPixels += wrote
		} else {
			stats.SurfacePixels += wrote
		}
	}

	if opts.InpaintRadius >= 0 {
		inpaint(out, opts.InpaintRadius)
	}

	// Flat-fill observed texels that are still invalid; the gutter stays
	// untouched so the second pass can bleed into it
	for row := 0; row < out.Height; row++ {
		for col := 0; col < out.Width; col++ {
			if out.Valid(col, row) || !observed[row*out.Width+col] {
				continue
			}
			for band := 0; band < opts.Bands; band++ {
				out.Set(col, row, band, opts.MissingColor[band])
			}
			out.SetValid(col, row, true)
		}
	}

	if opts.GutterInpaintRadius >= 0 {
		inpaint(out, opts.GutterInpaintRadius)
	}

	return out, stats, nil
}

// loadSource - reads and decodes the observation's image, preferring the
// reprocessed variant when requested and available
func loadSource(obs *observation.Observation, useVariant bool, fs fileaccess.FileAccess) (*raster.Image, bool, error) {
	usedFallback := false
	path := obs.ImagePath
	if useVariant && len(obs.VariantPath) > 0 {
		if exists, err := fs.ObjectExists(obs.Bucket, obs.VariantPath); err == nil && exists {
			path = obs.VariantPath
		} else {
			usedFallback = true
		}
	}

	data, err := fs.ReadObject(obs.Bucket, path)
	if err != nil {
		return nil, usedFallback, err
	}
	img, err := raster.Decode(data)
	if err != nil {
		return nil, usedFallback, err
	}
	return img, usedFallback, nil
}

// populationLuminance - median of the contributing observations' precomputed
// luminance medians and MADs, the matching target. Observations without
// stats (zero MAD) are excluded.
func populationLuminance(names []string, ctxByName map[string]*observation.Context) (float64, float64) {
	medians := []float64{}
	mads := []float64{}
	for _, name := range names {
		obs := ctxByName[name].Obs
		if obs.LumMAD > 0 {
			medians = append(medians, obs.LumMedian)
			mads = append(mads, obs.LumMAD)
		}
	}
	return raster.Median(medians), raster.Median(mads)
}

// luminanceAdjuster - per-value distribution shift toward the population:
// spread scaled by the MAD ratio, center moved toward the population median,
// both blended by weight. Identity when disabled or when the observation has
// no usable stats.
func luminanceAdjuster(obs *observation.Observation, weight, popMedian, popMAD float64) func(float64) float64 {
	if weight <= 0 || obs.LumMAD <= 0 || popMAD <= 0 {
		return func(v float64) float64 { return v }
	}
	med := obs.LumMedian
	scale := 1 + weight*(popMAD/obs.LumMAD-1)
	shift := weight * (popMedian - med)
	return func(v float64) float64 {
		return (v-med)*scale + med + shift
	}
}

// inpaint - bleeds valid color into invalid texels by 8-neighbor averaging.
// Each wave is computed against a snapshot of the previous wave's validity so
// color advances one texel per wave. radius bounds the wave count; 0 runs
// until no invalid texel has a valid neighbor.
func inpaint(im *raster.Image, radius int) {
	for wave := 0; radius == 0 || wave < radius; wave++ {
		snapshot := make([]bool, im.Width*im.Height)
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				snapshot[y*im.Width+x] = im.Valid(x, y)
			}
		}

		changed := false
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				if snapshot[y*im.Width+x] {
					continue
				}

				count := 0
				sums := make([]float64, im.Bands)
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := x+dx, y+dy
						if (dx == 0 && dy == 0) || !im.InBounds(nx, ny) || !snapshot[ny*im.Width+nx] {
							continue
						}
						count++
						for band := 0; band < im.Bands; band++ {
							sums[band] += im.At(nx, ny, band)
						}
					}
				}
				if count == 0 {
					continue
				}

				for band := 0; band < im.Bands; band++ {
					im.Set(x, y, band, sums[band]/float64(count))
				}
				im.SetValid(x, y, true)
				changed = true
			}
		}

		if !changed {
			return
		}
	}
}
