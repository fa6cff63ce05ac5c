// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/gospatial/terrainsuite/geomorphon"
	"github.com/gospatial/terrainsuite/raster"
)

var (
	geomorphonInput      string
	geomorphonOutput     string
	geomorphonWithMetrics bool
)

var geomorphonCmd = &cobra.Command{
	Use:   "geomorphon",
	Short: "Classify landform pattern (geomorphons) over a DEM",
	RunE: func(cmd *cobra.Command, args []string) error {
		elev, err := raster.ReadGrassASCII[float64](geomorphonInput)
		if err != nil {
			return err
		}
		c := geomorphon.NewContext(elev.Region, cfg.Geomorphon, log)
		result := c.Run(elev, geomorphonWithMetrics)
		if err := raster.WriteGrassASCII(geomorphonOutput, result.Form); err != nil {
			return err
		}
		if !geomorphonWithMetrics {
			return nil
		}
		if err := raster.WriteGrassASCII(geomorphonOutput+".elongation", result.Elongation); err != nil {
			return err
		}
		if err := raster.WriteGrassASCII(geomorphonOutput+".azimuth", result.Azimuth); err != nil {
			return err
		}
		return raster.WriteGrassASCII(geomorphonOutput+".variance", result.Variance)
	},
}

func init() {
	geomorphonCmd.Flags().StringVar(&geomorphonInput, "input", "", "input elevation raster (required)")
	geomorphonCmd.Flags().StringVar(&geomorphonOutput, "output", "", "output geomorphon form-code raster (required)")
	geomorphonCmd.Flags().BoolVar(&geomorphonWithMetrics, "metrics", false, "also write elongation/azimuth/variance geometry-metric rasters")
	geomorphonCmd.MarkFlagRequired("input")
	geomorphonCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(geomorphonCmd)
}
