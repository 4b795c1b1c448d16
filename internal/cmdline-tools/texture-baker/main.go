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

package main

import (
	"bytes"
	"flag"
	"fmt"
	"image/png"
	"math/rand"
	"os"
	"strings"

	"github.com/NASA-AMMOS/Landform-sub007/api/config"
	"github.com/NASA-AMMOS/Landform-sub007/core/awsutil"
	"github.com/NASA-AMMOS/Landform-sub007/core/backproject"
	"github.com/NASA-AMMOS/Landform-sub007/core/caster"
	"github.com/NASA-AMMOS/Landform-sub007/core/compositor"
	"github.com/NASA-AMMOS/Landform-sub007/core/fileaccess"
	"github.com/NASA-AMMOS/Landform-sub007/core/idgen"
	"github.com/NASA-AMMOS/Landform-sub007/core/logger"
	"github.com/NASA-AMMOS/Landform-sub007/core/observation"
	"github.com/NASA-AMMOS/Landform-sub007/core/pixeldist"
	"github.com/NASA-AMMOS/Landform-sub007/core/raster"
	"github.com/NASA-AMMOS/Landform-sub007/core/selection"
	"github.com/NASA-AMMOS/Landform-sub007/core/trimesh"
)

func main() {
	fmt.Println("===============================")
	fmt.Println("=  Landform texture baker     =")
	fmt.Println("===============================")

	argConfig := flag.String("config", "", "Path to the json bake configuration")
	argReport := flag.Bool("report", false, "Report each observation's median ground resolution instead of baking")
	flag.Parse()

	if len(*argConfig) <= 0 {
		fmt.Println("No -config given")
		os.Exit(1)
	}

	cfg, err := config.NewConfigFromFile(*argConfig)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := logger.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	log := &logger.StdOutLogger{}
	log.SetLogLevel(level)

	// Run ID ties together log output and any products written by this run
	gen := &idgen.UUIDGenerator{}
	log.Infof("Texture bake run %v (environment %v)", gen.GenObjectID(), cfg.EnvironmentName)

	fs, err := makeFileAccess(cfg)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	if err := run(cfg, fs, *argReport, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// makeFileAccess - S3 when a data bucket is configured, local file system
// otherwise
func makeFileAccess(cfg config.BakeConfig) (fileaccess.FileAccess, error) {
	if len(cfg.DataBucket) <= 0 {
		return &fileaccess.FSAccess{}, nil
	}

	s3svc, err := awsutil.NewS3Client()
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %v", err)
	}
	return fileaccess.MakeS3Access(s3svc), nil
}

func run(cfg config.BakeConfig, fs fileaccess.FileAccess, report bool, log logger.ILogger) error {
	mesh := trimesh.Mesh{}
	if err := fs.ReadJSON(cfg.DataBucket, cfg.MeshPath, &mesh, false); err != nil {
		return fmt.Errorf("failed to read mesh %v: %v", cfg.MeshPath, err)
	}
	if len(mesh.Triangles) <= 0 {
		return fmt.Errorf("mesh %v has no triangles", cfg.MeshPath)
	}

	observations, frames, err := observation.LoadManifest(fs, cfg.DataBucket, cfg.ObservationsPath)
	if err != nil {
		return err
	}
	for _, obs := range observations {
		if len(obs.Bucket) <= 0 {
			obs.Bucket = cfg.DataBucket
		}
	}
	log.Infof("Loaded mesh with %v triangles and %v observations", len(mesh.Triangles), len(observations))

	meshCaster := caster.NewMeshCaster(&mesh)
	if err := meshCaster.Build(); err != nil {
		return err
	}

	if report {
		return reportResolution(cfg, fs, &mesh, meshCaster, observations, frames, log)
	}
	return bake(cfg, fs, &mesh, meshCaster, observations, frames, log)
}

func bake(cfg config.BakeConfig, fs fileaccess.FileAccess, mesh *trimesh.Mesh, meshCaster caster.SceneCaster, observations []*observation.Observation, frames observation.FrameCache, log logger.ILogger) error {
	prefs, err := makePreferences(cfg)
	if err != nil {
		return err
	}
	strategy, err := makeStrategy(cfg, prefs, log)
	if err != nil {
		return err
	}

	driverOpts := backproject.Options{
		Resolution:            int(cfg.Resolution),
		BatchSize:             int(cfg.BatchSize),
		MaxCores:              int(cfg.MaxCores),
		GlancingAngleDeg:      cfg.GlancingAngleDeg,
		RaycastTolerance:      cfg.RaycastTolerance,
		FullyUnobstructedOnly: cfg.FullyUnobstructedOnly,
		Contexts: observation.BuildOptions{
			Near: cfg.FrustumNear,
			Far:  cfg.FrustumFar,
		},
	}
	if len(cfg.HullCachePrefix) > 0 {
		driverOpts.Contexts.HullCache = &observation.HullCache{
			FS:     fs,
			Bucket: cfg.OutputBucket,
			Prefix: cfg.HullCachePrefix,
		}
	}

	op := trimesh.NewOperator(mesh)
	driver := backproject.NewDriver(strategy, meshCaster, meshCaster, driverOpts, log)

	winners, driveStats, err := driver.Backproject(mesh, op, observations, frames, fs)
	if err != nil {
		return err
	}
	log.Infof("Backprojection complete: %v surface, %v orbital, %v missing (occluded %v, masked %v, out of frame %v)",
		driveStats.BackprojectedSurfacePixels, driveStats.BackprojectedOrbitalPixels, driveStats.MissingPixels,
		driveStats.Counters.Occluded, driveStats.Counters.Masked, driveStats.Counters.OutOfFrame)

	compOpts := compositor.Options{
		Bands:               int(cfg.OutputBands),
		UseVariant:          cfg.UseVariant,
		LuminanceWeight:     cfg.LuminanceWeight,
		MissingColor:        cfg.MissingColor,
		InpaintRadius:       int(cfg.InpaintRadius),
		GutterInpaintRadius: int(cfg.GutterInpaintRadius),
	}
	texture, compStats, err := compositor.Composite(winners, compOpts, fs, log)
	if err != nil {
		return err
	}
	log.Infof("Composite complete: %v surface, %v orbital, %v missing, %v variant fallbacks",
		compStats.SurfacePixels, compStats.OrbitalPixels, compStats.MissingPixels, compStats.VariantFallbacks)

	var encoded []byte
	if strings.HasSuffix(strings.ToLower(cfg.OutputPath), ".webp") {
		encoded, err = texture.EncodeWebP()
	} else {
		encoded, err = texture.EncodePNG()
	}
	if err != nil {
		return fmt.Errorf("failed to encode texture: %v", err)
	}
	if err := fs.WriteObject(cfg.OutputBucket, cfg.OutputPath, encoded); err != nil {
		return fmt.Errorf("failed to write texture %v: %v", cfg.OutputPath, err)
	}
	log.Infof("Wrote %v", cfg.OutputPath)

	if len(cfg.PreviewPath) > 0 {
		if err := writePreview(cfg, fs, texture); err != nil {
			return err
		}
		log.Infof("Wrote %v", cfg.PreviewPath)
	}

	return nil
}

// writePreview - half-resolution PNG for quick inspection
func writePreview(cfg config.BakeConfig, fs fileaccess.FileAccess, texture *raster.Image) error {
	preview := texture.Preview(texture.Width/2, texture.Height/2)

	var buf bytes.Buffer
	if err := png.Encode(&buf, preview); err != nil {
		return fmt.Errorf("failed to encode preview: %v", err)
	}
	return fs.WriteObject(cfg.OutputBucket, cfg.PreviewPath, buf.Bytes())
}

func makePreferences(cfg config.BakeConfig) (selection.Preferences, error) {
	preferColor, err := selection.ParsePreferColor(cfg.PreferColor)
	if err != nil {
		return selection.Preferences{}, err
	}
	return selection.Preferences{
		AbsEquivThreshold: cfg.AbsEquivThreshold,
		RelEquivThreshold: cfg.RelEquivThreshold,
		PreferColor:       preferColor,
		PreferSurface:     cfg.PreferSurface,
		PreferLinear:      cfg.PreferLinear,
		MaxContexts:       int(cfg.MaxContexts),
	}, nil
}

func makeStrategy(cfg config.BakeConfig, prefs selection.Preferences, log logger.ILogger) (selection.Strategy, error) {
	switch cfg.Strategy {
	case "Exhaustive":
		strategy := selection.NewExhaustive(prefs, log)
		strategy.OrbitalBaseline = cfg.OrbitalBaselineMetersPerPixel
		return strategy, nil

	case "Spatial":
		mode, err := selection.ParseMode(cfg.SpatialMode)
		if err != nil {
			return nil, err
		}
		strategy := selection.NewSpatial(selection.SpatialOptions{
			Mode:                mode,
			SurfaceDensity:      cfg.SurfaceDensity,
			OrbitalDensity:      cfg.OrbitalDensity,
			SearchRadiusSamples: cfg.SearchRadiusSamples,
			MaxCores:            int(cfg.MaxCores),
			Seed:                cfg.Seed,
		}, prefs, log)
		strategy.SetOrbitalBaseline(cfg.OrbitalBaselineMetersPerPixel)
		return strategy, nil
	}

	return nil, fmt.Errorf("unknown selection strategy: %v", cfg.Strategy)
}

// reportResolution - the -report mode: median 4-neighbor ground spread over a
// sampled subset of each observation's frustum, in meters per source pixel
func reportResolution(cfg config.BakeConfig, fs fileaccess.FileAccess, mesh *trimesh.Mesh, meshCaster caster.SceneCaster, observations []*observation.Observation, frames observation.FrameCache, log logger.ILogger) error {
	contexts, err := observation.BuildContexts(observations, frames, fs, observation.BuildOptions{
		Near: cfg.FrustumNear,
		Far:  cfg.FrustumFar,
	}, log)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	const samplesPerObservation = 200

	for _, ctx := range contexts {
		median, ok := pixeldist.ObservationMedianSpread(ctx, meshCaster, samplesPerObservation, rng)
		if !ok {
			log.Infof("%v: no mesh coverage", ctx.Obs.Name)
			continue
		}
		log.Infof("%v: %.4f m/pixel median ground resolution", ctx.Obs.Name, median)
	}
	return nil
}
