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

// Texture bake run configuration as read from JSON with env var overrides
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// BakeConfig combines config JSON values and env var overrides. Zero values
// for the numeric tuning fields are replaced with the defaults below, so a
// minimal config only names the product locations.
type BakeConfig struct {
	EnvironmentName string
	LogLevel        string // Parsed at startup, invalid values are fatal

	// Product store locations. Empty buckets with the local file system
	// backend mean paths are absolute/relative on disk.
	DataBucket      string
	OutputBucket    string
	HullCachePrefix string // Empty disables hull caching

	// Input products. Frame transforms ride along in the observations
	// manifest, there is no separate frames product.
	MeshPath         string
	ObservationsPath string

	// Output products
	OutputPath  string // Extension selects the codec, .png or .webp
	PreviewPath string // Optional half-resolution preview

	// Output texture
	Resolution   int32
	OutputBands  int32
	MissingColor []float64

	// Selection policy
	Strategy                      string // "Exhaustive" or "Spatial"
	SpatialMode                   string
	PreferColor                   string
	PreferSurface                 bool
	PreferLinear                  bool
	AbsEquivThreshold             float64
	RelEquivThreshold             float64
	MaxContexts                   int32
	SurfaceDensity                float64
	OrbitalDensity                float64
	SearchRadiusSamples           float64
	OrbitalBaselineMetersPerPixel float64

	// Backprojection driver
	BatchSize             int32
	MaxCores              int32
	GlancingAngleDeg      float64
	RaycastTolerance      float64
	FullyUnobstructedOnly bool
	FrustumNear           float64
	FrustumFar            float64
	Seed                  int64

	// Compositor
	UseVariant          bool
	LuminanceWeight     float64
	InpaintRadius       int32
	GutterInpaintRadius int32
}

func NewConfigFromFile(configFilePath string) (BakeConfig, error) {
	var cfg BakeConfig

	configJson, err := os.ReadFile(configFilePath)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file at %s", configFilePath)
	}
	return buildConfig(configJson)
}

func buildConfig(configJson []byte) (BakeConfig, error) {
	var cfg BakeConfig

	err := json.Unmarshal(configJson, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config: %v", err)
	}

	// Override config with any values explicitly set in env vars
	// (LANDFORM_CONFIG_*). For []float64 fields pass a comma-separated
	// string, eg export LANDFORM_CONFIG_MissingColor="0.5,0.5,0.5"
	reflection := reflect.ValueOf(&cfg).Elem()
	for i := 0; i < reflection.NumField(); i++ {
		fieldName := reflection.Type().Field(i).Name
		field := reflection.Field(i)
		val, present := os.LookupEnv(fmt.Sprintf("LANDFORM_CONFIG_%s", fieldName))
		if !present {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(val)
		case reflect.Bool:
			b, err := strconv.ParseBool(val)
			if err != nil {
				fmt.Printf("Could not cast value LANDFORM_CONFIG_%s=%s to Bool\n", fieldName, val)
				continue
			}
			field.SetBool(b)
		case reflect.Int32, reflect.Int64:
			n, err := strconv.Atoi(val)
			if err != nil {
				fmt.Printf("Could not cast value LANDFORM_CONFIG_%s=%s to Int\n", fieldName, val)
				continue
			}
			field.SetInt(int64(n))
		case reflect.Float64:
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				fmt.Printf("Could not cast value LANDFORM_CONFIG_%s=%s to Float\n", fieldName, val)
				continue
			}
			field.SetFloat(f)
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.Float64 {
				parts := strings.Split(val, ",")
				vals := make([]float64, 0, len(parts))
				bad := false
				for _, p := range parts {
					f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
					if err != nil {
						fmt.Printf("Could not cast value LANDFORM_CONFIG_%s=%s to []Float\n", fieldName, val)
						bad = true
						break
					}
					vals = append(vals, f)
				}
				if !bad {
					field.Set(reflect.ValueOf(vals))
				}
			}
		}
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *BakeConfig) {
	if len(cfg.LogLevel) <= 0 {
		cfg.LogLevel = "INFO"
	}
	if cfg.Resolution <= 0 {
		cfg.Resolution = 1024
	}
	if cfg.OutputBands <= 0 {
		cfg.OutputBands = 3
	}
	if len(cfg.MissingColor) <= 0 {
		cfg.MissingColor = []float64{0.5, 0.5, 0.5}
	}
	if len(cfg.Strategy) <= 0 {
		cfg.Strategy = "Spatial"
	}
	if len(cfg.SpatialMode) <= 0 {
		cfg.SpatialMode = "CombinedNeighbors"
	}
	if len(cfg.PreferColor) <= 0 {
		cfg.PreferColor = "EquivalentScores"
	}
	if cfg.AbsEquivThreshold <= 0 {
		cfg.AbsEquivThreshold = 0.001
	}
	if cfg.RelEquivThreshold <= 0 {
		cfg.RelEquivThreshold = 0.1
	}
	if cfg.MaxContexts <= 0 {
		cfg.MaxContexts = 8
	}
	if cfg.SurfaceDensity <= 0 {
		cfg.SurfaceDensity = 200
	}
	if cfg.SearchRadiusSamples <= 0 {
		cfg.SearchRadiusSamples = 2
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1 << 16
	}
	if cfg.MaxCores <= 0 {
		cfg.MaxCores = 8
	}
	if cfg.GlancingAngleDeg <= 0 {
		cfg.GlancingAngleDeg = 88
	}
	if cfg.RaycastTolerance <= 0 {
		cfg.RaycastTolerance = 0.01
	}
	if cfg.FrustumNear <= 0 {
		cfg.FrustumNear = 0.1
	}
	if cfg.FrustumFar <= 0 {
		cfg.FrustumFar = 200
	}
	if cfg.InpaintRadius == 0 {
		cfg.InpaintRadius = 4
	}
}
