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

import (
	"testing"

	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
)

func scored(name string, score float64, bands int, orbital, linear bool) ScoredContext {
	return ScoredContext{
		Ctx: &observation.Context{
			Obs: &observation.Observation{
				Name:    name,
				Bands:   bands,
				Orbital: orbital,
				Linear:  linear,
			},
		},
		Score: score,
	}
}

func names(list []ScoredContext) []string {
	out := make([]string, len(list))
	for i, sc := range list {
		out[i] = sc.Ctx.Obs.Name
	}
	return out
}

func expectOrder(t *testing.T, got []ScoredContext, expect ...string) {
	t.Helper()
	if len(got) != len(expect) {
		t.Fatalf("got %v candidates %v, expected %v", len(got), names(got), expect)
	}
	for i, name := range expect {
		if got[i].Ctx.Obs.Name != name {
			t.Fatalf("position %v: got %v, expected %v (full order %v)", i, got[i].Ctx.Obs.Name, name, names(got))
		}
	}
}

func TestParsePreferColor(t *testing.T) {
	if v, err := ParsePreferColor("Always"); err != nil || v != PreferColorAlways {
		t.Errorf("Always: got (%v, %v)", v, err)
	}
	if _, err := ParsePreferColor("sometimes"); err == nil {
		t.Errorf("expected error for invalid value")
	}
}

func TestEquivalent(t *testing.T) {
	prefs := Preferences{AbsEquivThreshold: 0.001, RelEquivThreshold: 0.1}

	tests := []struct {
		a, b   float64
		expect bool
	}{
		{0.1, 0.1, true},
		{0.1, 0.1005, true},   // within absolute threshold
		{0.1, 0.109, true},    // within relative threshold
		{0.1, 0.115, false},   // outside both
		{2.0, 2.15, true},     // relative scales with magnitude
		{0.001, 0.0015, true}, // tiny scores fall under the absolute threshold
	}

	for _, test := range tests {
		if got := prefs.Equivalent(test.a, test.b); got != test.expect {
			t.Errorf("Equivalent(%v, %v): got %v, expected %v", test.a, test.b, got, test.expect)
		}
	}
}

func TestSortByScore(t *testing.T) {
	prefs := DefaultPreferences()

	got := SortScoredContexts([]ScoredContext{
		scored("c", 0.5, 1, false, false),
		scored("a", 0.1, 1, false, false),
		scored("b", 0.3, 1, false, false),
	}, prefs)

	expectOrder(t, got, "a", "b", "c")
}

func TestSortDeterministicNameTieBreak(t *testing.T) {
	prefs := DefaultPreferences()

	in := []ScoredContext{
		scored("b", 0.1, 1, false, false),
		scored("a", 0.1, 1, false, false),
		scored("c", 0.1, 1, false, false),
	}

	first := SortScoredContexts(in, prefs)
	expectOrder(t, first, "a", "b", "c")

	// Input order must not matter
	in[0], in[2] = in[2], in[0]
	second := SortScoredContexts(in, prefs)
	expectOrder(t, second, "a", "b", "c")
}

func TestSortColorWinsWithinClass(t *testing.T) {
	prefs := DefaultPreferences() // PreferColorEquivalentScores

	// gray scores marginally better but within the equivalence class
	got := SortScoredContexts([]ScoredContext{
		scored("gray", 0.100, 1, false, false),
		scored("color", 0.105, 3, false, false),
	}, prefs)
	expectOrder(t, got, "color", "gray")

	// outside the class, score wins
	got = SortScoredContexts([]ScoredContext{
		scored("gray", 0.1, 1, false, false),
		scored("color", 0.2, 3, false, false),
	}, prefs)
	expectOrder(t, got, "gray", "color")
}

func TestSortPreferColorNever(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.PreferColor = PreferColorNever

	got := SortScoredContexts([]ScoredContext{
		scored("gray", 0.100, 1, false, false),
		scored("color", 0.105, 3, false, false),
	}, prefs)
	expectOrder(t, got, "gray", "color")
}

func TestSortPreferColorAlways(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.PreferColor = PreferColorAlways

	// color block hoists above gray even when gray has far better scores
	got := SortScoredContexts([]ScoredContext{
		scored("gray-sharp", 0.01, 1, false, false),
		scored("color-blurry", 5.0, 3, false, false),
		scored("color-sharp", 0.5, 3, false, false),
	}, prefs)
	expectOrder(t, got, "color-sharp", "color-blurry", "gray-sharp")
}

func TestSortSurfaceOverOrbitalWithinClass(t *testing.T) {
	prefs := DefaultPreferences()

	got := SortScoredContexts([]ScoredContext{
		scored("orbital", 0.100, 1, true, false),
		scored("surface", 0.105, 1, false, false),
	}, prefs)
	expectOrder(t, got, "surface", "orbital")
}

func TestSortLinearPreference(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.PreferLinear = true

	got := SortScoredContexts([]ScoredContext{
		scored("nonlinear", 0.100, 1, false, false),
		scored("linear", 0.105, 1, false, true),
	}, prefs)
	expectOrder(t, got, "linear", "nonlinear")
}

func TestSortMaxContexts(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.MaxContexts = 2

	got := SortScoredContexts([]ScoredContext{
		scored("a", 0.1, 1, false, false),
		scored("b", 0.2, 1, false, false),
		scored("c", 0.3, 1, false, false),
	}, prefs)
	expectOrder(t, got, "a", "b")
}

func TestSortClassSpreadBounded(t *testing.T) {
	// Chained scores: each adjacent pair is equivalent but the ends are not.
	// Classes anchor on their first score so the chain must break.
	prefs := Preferences{
		AbsEquivThreshold: 0,
		RelEquivThreshold: 0.1,
		PreferColor:       PreferColorEquivalentScores,
	}

	got := SortScoredContexts([]ScoredContext{
		scored("a", 1.00, 1, false, false),
		scored("b", 1.09, 1, false, false),
		scored("c", 1.18, 1, false, false),
	}, prefs)

	// a and b share a class; c's score is not equivalent to a's so it starts
	// a new class. Order stays a, b, c but the grouping matters for color
	// preference, checked by adding bands to c.
	expectOrder(t, got, "a", "b", "c")

	got = SortScoredContexts([]ScoredContext{
		scored("a", 1.00, 1, false, false),
		scored("b", 1.09, 3, false, false),
		scored("c", 1.18, 3, false, false),
	}, prefs)
	// b is color inside a's class and hoists to the front of it; c stays in
	// its own later class despite being color
	expectOrder(t, got, "b", "a", "c")
}
