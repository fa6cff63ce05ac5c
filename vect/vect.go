// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// Package vect converts classified rasters into vector geometry: closed
// area boundaries with per-region centroids (a 2x2-window topological
// sweep), and thinned-line polylines with junction nodes (a 3x3-window
// neighbour-count sweep). It generalises the teacher's raster-only
// windowed-scan tools into the two r.to.vect passes.
package vect

import (
	"github.com/sirupsen/logrus"

	"github.com/gospatial/terrainsuite/raster"
)

// Context is the single owned per-run state a vectorisation pass threads
// through, matching the flow and geomorphon packages' context-over-
// globals design.
type Context struct {
	Region raster.Region
	Log    logrus.FieldLogger

	// Warnings accumulates non-fatal conditions for an end-of-run summary.
	Warnings []string
}

// NewContext builds a run context for region. A nil log installs a
// logrus.New() default logger.
func NewContext(region raster.Region, log logrus.FieldLogger) *Context {
	if log == nil {
		log = logrus.New()
	}
	return &Context{Region: region, Log: log}
}

func (c *Context) warn(fields logrus.Fields, msg string) {
	c.Warnings = append(c.Warnings, msg)
	c.Log.WithFields(fields).Warn(msg)
}
