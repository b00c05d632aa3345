package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wegman-software/osm2geojson-go/internal/config"
	"github.com/wegman-software/osm2geojson-go/internal/logger"
)

var (
	cfg     = config.DefaultConfig()
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "osm2geojson",
	Short: "Convert OpenStreetMap XML to GeoJSON",
	Long: `osm2geojson converts an OpenStreetMap XML extract into a GeoJSON
FeatureCollection.

Features:
  - Multipolygon relations assembled from outer and inner member ways
  - Parallel way resolution and ring assembly
  - YAML area rules and Lua property hooks
  - Plain, gzip, zstd and xz input with memory-mapped plain files`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg.Verbose = viper.GetBool("verbose")
		cfg.LogFile = viper.GetString("log-file")
		cfg.Workers = viper.GetInt("workers")
		cfg.MetricsInterval = viper.GetDuration("metrics-interval")

		// Initialize logger with optional file output
		if cfg.LogFile != "" {
			logger.InitWithFile(cfg.Verbose, cfg.LogFile)
		} else {
			logger.Init(cfg.Verbose)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Get().Debug("Using config file", zap.String("path", used))
		}
	},
}

// Execute runs the root command
func Execute() error {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		logger.Get().Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./osm2geojson.yaml)")
	flags.BoolP("verbose", "v", false, "Enable verbose output")
	flags.IntP("workers", "j", cfg.Workers, "Number of parallel workers")

	// Logging and metrics flags
	flags.String("log-file", "", "Path to log file for persistent logging (JSON format)")
	flags.Duration("metrics-interval", 0, "Interval for system metrics logging, 0 disables (e.g., 10s, 1m)")

	for _, name := range []string{"verbose", "workers", "log-file", "metrics-interval"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("osm2geojson")
	}

	viper.SetEnvPrefix("OSM2GEOJSON")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// A missing default config file is fine
	_ = viper.ReadInConfig()
}

// conversionFlags registers the flags shared by convert and check
func conversionFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("style", "S", "", "Area rules YAML file")
	flags.String("lua", "", "Lua script defining process_properties(object)")
	flags.Bool("keep-duplicates", false, "Also emit member ways of assembled multipolygons")
	flags.Bool("include-untagged-nodes", false, "Emit untagged nodes that belong to ways")
	flags.String("closed-ways", cfg.ClosedWays, "Geometry for closed ways with no area tags: line or area")
	flags.String("max-input-size", "", "Refuse inputs larger than this (e.g., 512MB, 2GiB)")
	flags.Bool("fail-on-warnings", false, "Exit with an error when any diagnostic is recorded")
}

// loadConfig binds the command's flags and copies the merged flag, env and
// config file values into cfg. Binding happens per run since convert and
// check share flag names.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	cfg.InputFile = args[0]
	cfg.StyleFile = viper.GetString("style")
	cfg.LuaFile = viper.GetString("lua")
	cfg.KeepDuplicates = viper.GetBool("keep-duplicates")
	cfg.IncludeUntaggedNodes = viper.GetBool("include-untagged-nodes")
	cfg.ClosedWays = viper.GetString("closed-ways")
	cfg.MaxInputSize = viper.GetString("max-input-size")
	cfg.FailOnWarnings = viper.GetBool("fail-on-warnings")
	if f := cmd.Flags().Lookup("output"); f != nil {
		cfg.OutputFile = viper.GetString("output")
		cfg.Indent = viper.GetBool("indent")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// elapsed rounds durations for log output
func elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
