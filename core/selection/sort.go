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

package selection

import "sort"

// SortScoredContexts - the two-level candidate ordering.
//
// Level one: candidates sort by score and partition into equivalence classes,
// best class first. A candidate joins the current class when its score is
// equivalent to the class's first (lowest) score, so the spread inside any
// class stays within the equivalence threshold.
//
// Level two: within each class, candidates reorder by the secondary criteria
// in priority order - band count (when color is preferred), surface over
// orbital, linear over nonlinear, raw score, and finally observation name,
// which makes the full ordering total and deterministic.
//
// PreferColorAlways additionally hoists band count above the class structure:
// color candidates as a block ahead of grayscale, each block keeping its own
// class ordering.
//
// The result is truncated to prefs.MaxContexts when that is positive.
func SortScoredContexts(list []ScoredContext, prefs Preferences) []ScoredContext {
	if len(list) == 0 {
		return list
	}

	sorted := append([]ScoredContext{}, list...)

	if prefs.PreferColor == PreferColorAlways {
		color := []ScoredContext{}
		gray := []ScoredContext{}
		for _, sc := range sorted {
			if sc.Ctx.Obs.Bands >= 3 {
				color = append(color, sc)
			} else {
				gray = append(gray, sc)
			}
		}
		sorted = append(sortByClass(color, prefs), sortByClass(gray, prefs)...)
	} else {
		sorted = sortByClass(sorted, prefs)
	}

	if prefs.MaxContexts > 0 && len(sorted) > prefs.MaxContexts {
		sorted = sorted[:prefs.MaxContexts]
	}
	return sorted
}

func sortByClass(list []ScoredContext, prefs Preferences) []ScoredContext {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score < list[j].Score
		}
		return list[i].Ctx.Obs.Name < list[j].Ctx.Obs.Name
	})

	out := make([]ScoredContext, 0, len(list))
	for start := 0; start < len(list); {
		end := start + 1
		for end < len(list) && prefs.Equivalent(list[start].Score, list[end].Score) {
			end++
		}

		class := append([]ScoredContext{}, list[start:end]...)
		sort.Slice(class, func(i, j int) bool {
			return lessWithinClass(class[i], class[j], prefs)
		})
		out = append(out, class...)

		start = end
	}
	return out
}

func lessWithinClass(a, b ScoredContext, prefs Preferences) bool {
	if prefs.PreferColor != PreferColorNever {
		ac, bc := a.Ctx.Obs.Bands >= 3, b.Ctx.Obs.Bands >= 3
		if ac != bc {
			return ac
		}
	}
	if prefs.PreferSurface {
		if a.Ctx.Obs.Orbital != b.Ctx.Obs.Orbital {
			return !a.Ctx.Obs.Orbital
		}
	}
	if prefs.PreferLinear {
		if a.Ctx.Obs.Linear != b.Ctx.Obs.Linear {
			return a.Ctx.Obs.Linear
		}
	}
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Ctx.Obs.Name < b.Ctx.Obs.Name
}
