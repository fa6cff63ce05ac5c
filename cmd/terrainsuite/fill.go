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
	fillInput  string
	fillOutput string
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Remove depressions from a DEM by filling (or breaching, when the config file sets method to breach)",
	RunE: func(cmd *cobra.Command, args []string) error {
		elev, err := raster.ReadGrassASCII[float64](fillInput)
		if err != nil {
			return err
		}
		c := flow.NewContext(elev.Region, cfg.Flow, log)

		var out *raster.TypedRaster[float64]
		if cfg.Method == "breach" {
			out, _ = c.BreachDepressions(elev, flow.BreachOptions{})
		} else {
			out = c.FillPits(elev)
		}
		printWarnings(c.Warnings)
		return raster.WriteGrassASCII(fillOutput, out)
	},
}

func init() {
	fillCmd.Flags().StringVar(&fillInput, "input", "", "input elevation raster (required)")
	fillCmd.Flags().StringVar(&fillOutput, "output", "", "output filled elevation raster (required)")
	fillCmd.MarkFlagRequired("input")
	fillCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(fillCmd)
}
