// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/gospatial/terrainsuite/flow"
	"github.com/gospatial/terrainsuite/raster"
)

var (
	directionInput      string
	directionOutput     string
	directionMaxPpupdate int
)

var directionCmd = &cobra.Command{
	Use:   "direction",
	Short: "Compute and resolve D8 flow directions over a DEM",
	RunE: func(cmd *cobra.Command, args []string) error {
		elev, err := raster.ReadGrassASCII[float64](directionInput)
		if err != nil {
			return err
		}
		c := flow.NewContext(elev.Region, cfg.Flow, log)
		_, dir, undrained := c.ResolveFlow(elev, directionMaxPpupdate)
		if len(undrained) > 0 {
			log.WithField("count", len(undrained)).Warn("cells remained undrained after flat resolution and pour-point update")
		}
		printWarnings(c.Warnings)
		out := raster.EncodeDirectionRaster(dir, cfg.DirectionEncoding())
		return raster.WriteGrassASCII(directionOutput, out)
	},
}

func init() {
	directionCmd.Flags().StringVar(&directionInput, "input", "", "input elevation raster (required)")
	directionCmd.Flags().StringVar(&directionOutput, "output", "", "output direction raster (required)")
	directionCmd.Flags().IntVar(&directionMaxPpupdate, "max-ppupdate-passes", 0, "cap on fill/resolve/pour-point-update iterations (0 = until every cell drains to a map edge)")
	directionCmd.MarkFlagRequired("input")
	directionCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(directionCmd)
}
