// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// Package geomorphon classifies local terrain form from a DEM by
// line-of-sight scanning eight compass rays around each cell, reducing the
// scan to a rotation/reflection-invariant ternary pattern, and looking
// that pattern up in a fixed ten-form table. It generalises the teacher's
// single-purpose windowed-scan tools (deviationFromMean, elevationPercentile)
// into the full r.geomorphon pipeline: classification plus a set of
// per-cell pattern-geometry metrics.
package geomorphon

import (
	"github.com/sirupsen/logrus"

	"github.com/gospatial/terrainsuite/raster"
)

// Form is one of the ten terrain classes the 9x9 k_minus/k_plus table
// resolves to.
type Form int32

const (
	FormUnclassified Form = iota
	FormFlat
	FormPeak
	FormRidge
	FormShoulder
	FormSpur
	FormSlope
	FormHollow
	FormFootslope
	FormValley
	FormPit
)

var formNames = map[Form]string{
	FormUnclassified: "UN",
	FormFlat:         "FL",
	FormPeak:         "PK",
	FormRidge:        "RI",
	FormShoulder:     "SH",
	FormSpur:         "SP",
	FormSlope:        "SL",
	FormHollow:       "HL",
	FormFootslope:    "FS",
	FormValley:       "VL",
	FormPit:          "PT",
}

// String returns the two-letter abbreviation the classification table
// uses (FL, PK, RI, ...).
func (f Form) String() string {
	if s, ok := formNames[f]; ok {
		return s
	}
	return "UN"
}

// ComparisonMode selects how a direction's zenith/nadir pair reduces to a
// single ternary value.
type ComparisonMode int

const (
	// ModeV1 picks whichever of |zenith|, |nadir| is larger; ties are 0.
	ModeV1 ComparisonMode = iota
	// ModeV2 compares each angle against its own threshold independently;
	// when both exceed threshold the larger wins; ties resolve to +1.
	ModeV2
	// ModeV2Distance is ModeV2, but an exact angle tie is broken by
	// whichever extremum was measured over the greater distance.
	ModeV2Distance
)

// Config collects the tunable parameters of a geomorphon run.
type Config struct {
	// SearchRadius is the outer line-of-sight search distance, in cells.
	SearchRadius int
	// SkipRadius is the inner radius below which a step is not examined
	// (lets a scan ignore a cell's immediate, noisy neighbours).
	SkipRadius int
	// FlatThreshold is the angular threshold, in degrees, below which a
	// direction reads as flat (0).
	FlatThreshold float64
	// FlatDistance is the distance (map units) beyond which the flat
	// threshold decays to atan(FlatHeight/d) instead of staying constant.
	// 0 disables decay.
	FlatDistance float64
	// FlatHeight is the decay parameter used once distance exceeds
	// FlatDistance.
	FlatHeight float64
	// Mode selects the ternary comparison strategy.
	Mode ComparisonMode
	// ExtendedCorrection re-classifies shoulder/footslope/ridge/spur forms
	// at half the search radius when SearchRadius exceeds 10 cells,
	// overriding to flat if the smaller-scale form is flat.
	ExtendedCorrection bool
}

// DefaultConfig returns the spec's documented defaults: a 3-cell skip-free
// search radius and a 1 degree flat threshold under the V2 comparison mode.
func DefaultConfig() Config {
	return Config{
		SearchRadius:  3,
		SkipRadius:    0,
		FlatThreshold: 1.0,
		Mode:          ModeV2,
	}
}

// Context is the single owned per-run state threaded through a
// classification pass, matching the flow package's context-over-globals
// design.
type Context struct {
	Region raster.Region
	Config Config
	Log    logrus.FieldLogger
}

// NewContext builds a run context for region. A nil log installs a
// logrus.New() default logger.
func NewContext(region raster.Region, cfg Config, log logrus.FieldLogger) *Context {
	if log == nil {
		log = logrus.New()
	}
	return &Context{Region: region, Config: cfg, Log: log}
}

// rayOrder fixes the 8 compass directions in the order spec.md's scan
// walks them: NE, N, NW, W, SW, S, SE, E. This differs from the flow
// package's canonical bit order (which starts at East) because the
// ternary pattern's rotation symmetry is defined over this specific
// cyclic sequence.
var rayOrder = [8]raster.Direction{
	raster.Northeast, raster.North, raster.Northwest, raster.West,
	raster.Southwest, raster.South, raster.Southeast, raster.East,
}

func rayOffset(i int) (dRow, dCol int) {
	dRow, dCol, _ = rayOrder[i].Offset()
	return
}
