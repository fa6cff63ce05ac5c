// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gospatial/terrainsuite/config"
)

var (
	configFile string
	logLevel   string

	cfg config.Config
	log *logrus.Logger
)

// rootCmd is a thin dispatcher: it loads configuration and a logger, then
// hands off to one of the core-package wrappers below. No algorithmic
// logic lives here or in any subcommand file -- every subcommand parses
// its flags, reads input rasters, calls into flow/geomorphon/vect, and
// writes output.
var rootCmd = &cobra.Command{
	Use:   "terrainsuite",
	Short: "Hydrology, landform classification, and raster-to-vector conversion over a DEM.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logrus.New()
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("unrecognised --log-level %q: %w", logLevel, err)
		}
		log.SetLevel(level)

		if configFile == "" {
			cfg = config.Default()
			return nil
		}
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a TOML/YAML/JSON run configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logrus level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
