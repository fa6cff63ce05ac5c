// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// Package flow implements the hydrological flow engine: depression
// filling, flat-direction resolution, A*-ordered single- and multi-flow
// accumulation, downslope path tracing, and flowline integration over a
// DEM. It is the generalisation of the teacher's fillDepressions.go,
// breachDepressions.go, and d8FlowAccumulation.go tools into a single
// owned-context pipeline, per the "global mutable state -> single owned
// context" design note: no package-level globals, one *Context threaded
// through every pass.
package flow

import (
	"github.com/sirupsen/logrus"

	"github.com/gospatial/terrainsuite/raster"
)

// Direction re-exports raster.Direction's bit values so that callers of
// this package never need to import raster directly just for a compass
// bit.
type Direction = raster.Direction

const (
	East      = raster.East
	Northeast = raster.Northeast
	North     = raster.North
	Northwest = raster.Northwest
	West      = raster.West
	Southwest = raster.Southwest
	South     = raster.South
	Southeast = raster.Southeast
)

// pitSentinel is the direction-raster value assigned to a cell whose every
// neighbour is higher (spec.md's "slope < 0 produces the sentinel -256").
const pitSentinel = -256

// Config collects the tunable parameters of a flow run: stream threshold,
// MFD convergence factor, resolver iteration cap, and the ambient options
// carried over from the teacher's FillDepressions/D8FlowAccumulation
// tools (fixFlats, lnTransform).
type Config struct {
	// StreamThreshold is the accumulation magnitude above which a cell is
	// tagged as belonging to the stream network during the SFD pass.
	StreamThreshold float64
	// ConvergenceFactor is MFD's exponent c, 1..10, default 5.
	ConvergenceFactor float64
	// MaxResolverPasses bounds the flat-direction resolver's iteration
	// count; 0 means unbounded (run until no cell changes).
	MaxResolverPasses int
	// FixFlats raises each pit FillPits fills a small epsilon above its
	// lowest neighbour, so that a second fill+resolve pass is a true no-op,
	// matching the teacher's
	// FillDepressions "fixFlats" option.
	FixFlats bool
	// LogTransform requests the natural log of the accumulation output,
	// matching the teacher's d8FlowAccumulation.go "lnTransform" option.
	LogTransform bool
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		StreamThreshold:   100,
		ConvergenceFactor: 5,
		MaxResolverPasses: 0,
		FixFlats:          false,
		LogTransform:      false,
	}
}

// Context is the single owned per-run state a flow computation threads
// through its passes, replacing the teacher's process-wide alt/wat/asp/
// Region/Values/Near globals.
type Context struct {
	Region raster.Region
	Config Config
	Log    logrus.FieldLogger

	// Warnings accumulates non-fatal conditions (unresolved flats, MFD
	// proportion drift) for the end-of-run summary spec.md §7 requires.
	Warnings []string
}

// NewContext builds a run context for region, applying cfg and attaching
// log (a nil log installs a default logrus.New() logger, which writes to
// stderr).
func NewContext(region raster.Region, cfg Config, log logrus.FieldLogger) *Context {
	if log == nil {
		l := logrus.New()
		log = l
	}
	return &Context{Region: region, Config: cfg, Log: log}
}

// warn records a warning both in the run's Warnings slice and via the
// structured logger, matching spec.md §7's "warnings count and are
// summarised at end-of-run."
func (c *Context) warn(fields logrus.Fields, msg string) {
	c.Warnings = append(c.Warnings, msg)
	c.Log.WithFields(fields).Warn(msg)
}
