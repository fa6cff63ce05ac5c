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
	accumulateInput     string
	accumulateOutput    string
	accumulateTCIOutput   string
	accumulateSwaleOutput string
	accumulateMFD         bool
	accumulateLog         bool
)

var accumulateCmd = &cobra.Command{
	Use:   "accumulate",
	Short: "Run A*-ordered SFD or MFD flow accumulation over a DEM",
	RunE: func(cmd *cobra.Command, args []string) error {
		elev, err := raster.ReadGrassASCII[float64](accumulateInput)
		if err != nil {
			return err
		}
		flowCfg := cfg.Flow
		if accumulateLog {
			flowCfg.LogTransform = true
		}
		c := flow.NewContext(elev.Region, flowCfg, log)

		var result flow.AccumResult
		if accumulateMFD {
			result = c.RunMFD(elev, nil)
			if result.DuplicateSwaleDrift > 0 {
				log.WithField("count", result.DuplicateSwaleDrift).Warn("MFD proportion drift exceeded tolerance")
			}
		} else {
			result = c.RunSFD(elev, nil)
		}
		printWarnings(c.Warnings)

		if err := raster.WriteGrassASCII(accumulateOutput, result.Accum); err != nil {
			return err
		}
		if accumulateTCIOutput != "" {
			if err := raster.WriteGrassASCII(accumulateTCIOutput, result.TCI); err != nil {
				return err
			}
		}
		if accumulateSwaleOutput != "" && result.Swale != nil {
			return raster.WriteGrassASCII(accumulateSwaleOutput, result.Swale)
		}
		return nil
	},
}

func init() {
	accumulateCmd.Flags().StringVar(&accumulateInput, "input", "", "input (filled) elevation raster (required)")
	accumulateCmd.Flags().StringVar(&accumulateOutput, "output", "", "output accumulation raster (required)")
	accumulateCmd.Flags().StringVar(&accumulateTCIOutput, "tci-output", "", "optional output topographic-convergence-index raster")
	accumulateCmd.Flags().StringVar(&accumulateSwaleOutput, "swale-output", "", "optional output stream/swale mask raster (SFD only)")
	accumulateCmd.Flags().BoolVar(&accumulateMFD, "mfd", false, "use multi-flow-direction instead of single-flow-direction")
	accumulateCmd.Flags().BoolVar(&accumulateLog, "log", false, "natural-log-transform the accumulation output")
	accumulateCmd.MarkFlagRequired("input")
	accumulateCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(accumulateCmd)
}
