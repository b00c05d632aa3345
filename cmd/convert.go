package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/osm2geojson-go/internal/feature"
	"github.com/wegman-software/osm2geojson-go/internal/logger"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.osm>",
	Short: "Convert an OSM XML file to GeoJSON",
	Long: `Convert an OSM XML document into a GeoJSON FeatureCollection.

The input may be plain, gzip, zstd or xz compressed XML; "-" reads stdin.
Features are emitted as relations, then ways, then standalone nodes, each
in document order. Without -o the collection is written to stdout.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: loadConfig,
	RunE:    runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	conversionFlags(convertCmd)
	convertCmd.Flags().StringP("output", "o", "", "Output GeoJSON file (default stdout)")
	convertCmd.Flags().Bool("indent", false, "Indent the GeoJSON output")
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := logger.Get()
	start := time.Now()

	result, err := runConversion(cfg)
	if err != nil {
		return err
	}

	data, err := feature.Marshal(result.Collection, cfg.Indent)
	if err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}
	data = append(data, '\n')

	if cfg.ToStdout() {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	} else if err := writeFile(cfg.OutputFile, data); err != nil {
		return err
	}

	log.Info("GeoJSON written",
		zap.String("output", outputName()),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
		zap.Duration("total_time", elapsed(start)),
	)
	return nil
}

// writeFile writes through a temporary file in the target directory so a
// failed run never leaves a truncated document behind
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming output: %w", err)
	}
	return nil
}

func outputName() string {
	if cfg.ToStdout() {
		return "stdout"
	}
	return cfg.OutputFile
}
