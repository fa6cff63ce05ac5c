// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/gospatial/terrainsuite/raster"
	"github.com/gospatial/terrainsuite/vect"
)

var (
	tovectAreasInput  string
	tovectAreasOutput string
	tovectAreasSmooth bool

	tovectLinesInput     string
	tovectLinesOutput    string
	tovectLinesPreserve  bool
)

var tovectAreasCmd = &cobra.Command{
	Use:   "tovect-areas",
	Short: "Convert a classified raster into area boundary polygons (GeoJSON)",
	RunE: func(cmd *cobra.Command, args []string) error {
		vals, err := raster.ReadGrassASCII[float64](tovectAreasInput)
		if err != nil {
			return err
		}
		c := vect.NewContext(vals.Region, log)
		result, err := c.ExtractAreas(vals, vect.AreaOptions{Smooth: tovectAreasSmooth})
		if err != nil {
			return err
		}
		printWarnings(c.Warnings)
		return vect.WriteAreasGeoJSON(tovectAreasOutput, result)
	},
}

var tovectLinesCmd = &cobra.Command{
	Use:   "tovect-lines",
	Short: "Convert a thinned-line raster into polylines (GeoJSON)",
	RunE: func(cmd *cobra.Command, args []string) error {
		vals, err := raster.ReadGrassASCII[float64](tovectLinesInput)
		if err != nil {
			return err
		}
		c := vect.NewContext(vals.Region, log)
		lines, err := c.ExtractLines(vals, vect.LineOptions{PreserveValue: tovectLinesPreserve})
		if err != nil {
			return err
		}
		printWarnings(c.Warnings)
		return vect.WriteLinesGeoJSON(tovectLinesOutput, lines)
	},
}

func init() {
	tovectAreasCmd.Flags().StringVar(&tovectAreasInput, "input", "", "input classified raster (required)")
	tovectAreasCmd.Flags().StringVar(&tovectAreasOutput, "output", "", "output GeoJSON path (required)")
	tovectAreasCmd.Flags().BoolVar(&tovectAreasSmooth, "smooth", false, "apply 45-degree chamfer smoothing to boundaries")
	tovectAreasCmd.MarkFlagRequired("input")
	tovectAreasCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(tovectAreasCmd)

	tovectLinesCmd.Flags().StringVar(&tovectLinesInput, "input", "", "input thinned-line raster (required)")
	tovectLinesCmd.Flags().StringVar(&tovectLinesOutput, "output", "", "output GeoJSON path (required)")
	tovectLinesCmd.Flags().BoolVar(&tovectLinesPreserve, "preserve-value", false, "split lines at every raster value change")
	tovectLinesCmd.MarkFlagRequired("input")
	tovectLinesCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(tovectLinesCmd)
}
