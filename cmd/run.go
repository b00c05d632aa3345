package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/wegman-software/osm2geojson-go/internal/config"
	"github.com/wegman-software/osm2geojson-go/internal/convert"
	"github.com/wegman-software/osm2geojson-go/internal/diag"
	"github.com/wegman-software/osm2geojson-go/internal/flex"
	"github.com/wegman-software/osm2geojson-go/internal/geometry"
	"github.com/wegman-software/osm2geojson-go/internal/logger"
	"github.com/wegman-software/osm2geojson-go/internal/metrics"
	"github.com/wegman-software/osm2geojson-go/internal/source"
	"github.com/wegman-software/osm2geojson-go/internal/style"
)

// buildOptions turns the configuration into converter options. The
// returned cleanup releases the Lua state, if one was created.
func buildOptions(c *config.Config) (convert.Options, func(), error) {
	opts := convert.DefaultOptions()
	opts.KeepDuplicateGeometries = c.KeepDuplicates
	opts.IncludeUntaggedNodes = c.IncludeUntaggedNodes
	opts.Workers = c.Workers
	cleanup := func() {}

	policy, err := geometry.ParseClosedWayPolicy(c.ClosedWays)
	if err != nil {
		return opts, cleanup, err
	}
	opts.ClosedWays = policy

	if c.StyleFile != "" {
		rules, err := style.LoadAreaRules(c.StyleFile)
		if err != nil {
			return opts, cleanup, fmt.Errorf("loading area rules: %w", err)
		}
		opts.AreaRules = rules
	}

	if c.LuaFile != "" {
		script := flex.NewPropertyScript()
		if err := script.LoadFile(c.LuaFile); err != nil {
			script.Close()
			return opts, cleanup, fmt.Errorf("loading property script: %w", err)
		}
		opts.Properties = script
		cleanup = script.Close
	}

	return opts, cleanup, nil
}

// runConversion loads the input and converts it, logging progress and
// diagnostics. It is shared by convert and check.
func runConversion(c *config.Config) (*convert.Result, error) {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, cleanup, err := buildOptions(c)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var collector *metrics.Collector
	if c.MetricsInterval > 0 {
		collector = metrics.NewCollector(c.MetricsInterval, log)
		collector.SetStage("load")
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go collector.Start(metricsCtx)
	}

	logFields := []zap.Field{
		zap.String("input", c.InputFile),
		zap.Int("workers", opts.Workers),
		zap.String("closed_ways", string(opts.ClosedWays)),
	}
	if c.StyleFile != "" {
		logFields = append(logFields, zap.String("style", c.StyleFile))
	}
	if c.LuaFile != "" {
		logFields = append(logFields, zap.String("lua", c.LuaFile))
	}
	log.Info("Starting conversion", logFields...)

	limit, err := c.MaxInputBytes()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := source.Open(c.InputFile, limit)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	log.Info("Input loaded",
		zap.String("compression", string(doc.Compression)),
		zap.String("raw_size", humanize.Bytes(uint64(doc.RawSize))),
		zap.String("size", humanize.Bytes(uint64(len(doc.Data)))),
		zap.Duration("duration", elapsed(start)),
	)

	if collector != nil {
		collector.SetStage("convert")
	}
	opts.InputSize = int64(len(doc.Data))
	opts.Progress = func(p convert.Progress) {
		log.Info("Parsing",
			zap.String("elements", humanize.Comma(p.Elements)),
			zap.String("read", humanize.Bytes(uint64(p.Bytes))),
			zap.String("progress", fmt.Sprintf("%.1f%%", p.Percentage)),
			zap.String("rate", convert.FormatThroughput(p.Throughput)),
			zap.String("eta", convert.FormatETA(p.ETA)),
		)
	}
	result, err := convert.NewConverter(opts).Run(ctx, doc.Reader())
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", c.InputFile, err)
	}

	reportWarnings(log, result.Warnings)
	reportStats(log, result.Stats)
	if collector != nil {
		if peak := collector.PeakRSS(); peak > 0 {
			log.Info("Peak memory", zap.String("rss", humanize.Bytes(peak)))
		}
	}

	if c.FailOnWarnings && len(result.Warnings) > 0 {
		return result, fmt.Errorf("%d diagnostics recorded", len(result.Warnings))
	}
	return result, nil
}

// reportWarnings logs each diagnostic at debug level and a per-kind
// summary at warn level
func reportWarnings(log *zap.Logger, warnings diag.List) {
	for _, w := range warnings {
		log.Debug("Diagnostic",
			zap.String("kind", string(w.Kind)),
			zap.String("element", w.Element),
			zap.String("ref", w.Ref),
			zap.String("message", w.Message),
		)
	}
	if len(warnings) == 0 {
		return
	}

	counts := warnings.ByKind()
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	fields := make([]zap.Field, 0, len(kinds)+1)
	fields = append(fields, zap.Int("total", len(warnings)))
	for _, kind := range kinds {
		fields = append(fields, zap.Int(kind, counts[diag.Kind(kind)]))
	}
	log.Warn("Conversion produced diagnostics", fields...)
}

func reportStats(log *zap.Logger, s convert.Stats) {
	log.Info("Conversion complete",
		zap.String("nodes", humanize.Comma(int64(s.Nodes))),
		zap.String("ways", humanize.Comma(int64(s.Ways))),
		zap.String("relations", humanize.Comma(int64(s.Relations))),
		zap.String("features", humanize.Comma(int64(s.Features()))),
		zap.Int("points", s.Points),
		zap.Int("lines", s.Lines),
		zap.Int("polygons", s.Polygons),
		zap.Int("multipolygons", s.MultiPolygons),
		zap.Int("null_geometries", s.NullGeometries),
		zap.Duration("parse", s.ParseDuration.Round(time.Millisecond)),
		zap.Duration("resolve", s.ResolveDuration.Round(time.Millisecond)),
		zap.Duration("build", s.BuildDuration.Round(time.Millisecond)),
	)
}
