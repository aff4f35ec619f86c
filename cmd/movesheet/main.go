package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/plyforge/movesheet/pkg/config"
	"github.com/plyforge/movesheet/pkg/logger"
	"github.com/plyforge/movesheet/pkg/pgn"
	"github.com/plyforge/movesheet/pkg/sink"
)

func main() {
	app := &cli.App{
		Name:  "movesheet",
		Usage: "Extract per-move eval, centipawn loss and clock data from annotated PGN archives",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "pgn",
				Usage: "Comma-separated archive paths, URLs or directories (.pgn, .bz2, .zst)",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output CSV path (single-stream mode)",
			},
			&cli.StringFlag{
				Name:  "out-dir",
				Usage: "Output directory for derived and bucketed file names",
			},
			&cli.BoolFlag{
				Name:  "bucket-by-tc",
				Usage: "Write one CSV per distinct TimeControl tag",
			},
			&cli.IntFlag{
				Name:  "min-elo",
				Usage: "Reject games where either player is rated below this",
			},
			&cli.Int64Flag{
				Name:  "max-lines",
				Usage: "Stop after this many lines (test mode, 0 = unlimited)",
			},
			&cli.IntFlag{
				Name:  "flush-rows",
				Usage: "Buffered-row threshold before output is written",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Streaming read size in bytes",
			},
			&cli.BoolFlag{
				Name:  "profile",
				Usage: "Write a CPU profile for the run",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Debug logging with console output",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Verbose)
	defer func() { _ = log.Sync() }()

	if cfg.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sources, err := pgn.ParsePath(cfg.Source)
	if err != nil {
		return fmt.Errorf("could not parse pgn path: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no usable sources in %q", cfg.Source)
	}

	out, err := buildSink(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	pcfg := pgn.ParserConfig{
		Filters: pgn.Filters{
			MinElo:           cfg.Filter.MinElo,
			RequireClockEval: cfg.Filter.RequireClockEvalValue(),
			ExcludeAbandoned: cfg.Filter.ExcludeAbandonedValue(),
			RejectOnBadClock: cfg.Filter.RejectOnBadClock(),
		},
		ChunkSize: cfg.ChunkSize,
		MaxLines:  cfg.MaxLines,
	}

	start := time.Now()
	var games, rows int64

SourceLoop:
	for _, source := range sources {
		select {
		case <-ctx.Done():
			break SourceLoop
		default:
		}

		pp := pgn.NewParser(source, out, pcfg, log)
		if err := pp.Run(ctx); err != nil {
			log.Error("source failed", zap.Error(err))
			return err
		}
		pp.Progress(true)
		fmt.Println()

		games += pp.Games()
		rows += pp.Rows()
	}

	log.Info("run complete",
		zap.Int64("games", games),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// loadConfig layers CLI flags over the YAML file (or defaults).
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("pgn") {
		cfg.Source = c.String("pgn")
	}
	if c.IsSet("out") {
		cfg.Output.Path = c.String("out")
	}
	if c.IsSet("out-dir") {
		cfg.Output.Dir = c.String("out-dir")
	}
	if c.IsSet("bucket-by-tc") {
		cfg.Output.BucketByTimeControl = c.Bool("bucket-by-tc")
	}
	if c.IsSet("min-elo") {
		cfg.Filter.MinElo = c.Int("min-elo")
	}
	if c.IsSet("max-lines") {
		cfg.MaxLines = c.Int64("max-lines")
	}
	if c.IsSet("flush-rows") {
		cfg.FlushRows = c.Int("flush-rows")
	}
	if c.IsSet("chunk-size") {
		cfg.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("profile") {
		cfg.Profile = c.Bool("profile")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}

	return cfg, cfg.Validate()
}

func buildSink(cfg *config.Config, log *zap.Logger) (*sink.CSV, error) {
	baseName := fmt.Sprintf("%s_%d", pgn.Stem(firstSource(cfg.Source)), cfg.Filter.MinElo)

	scfg := sink.CSVConfig{
		BucketByTimeControl: cfg.Output.BucketByTimeControl,
		Dir:                 cfg.Output.Dir,
		BaseName:            baseName,
		FlushRows:           cfg.FlushRows,
	}
	if !scfg.BucketByTimeControl {
		scfg.Path = cfg.Output.Path
		if scfg.Path == "" {
			scfg.Path = filepath.Join(cfg.Output.Dir, baseName+".csv")
		}
	}

	return sink.NewCSV(scfg, log)
}

func firstSource(source string) string {
	if i := strings.IndexByte(source, ','); i >= 0 {
		return strings.TrimSpace(source[:i])
	}
	return strings.TrimSpace(source)
}
