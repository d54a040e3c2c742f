package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/mangrove/config"
	"github.com/pthm-cable/mangrove/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to project YAML (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logFile := flag.String("logfile", "", "Duplicate log output to this file")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	logStats := flag.Bool("log-stats", false, "Output step stats via slog")

	flag.Parse()

	// Set up slog (JSON to stdout, optionally duplicated to a file)
	var out io.Writer = os.Stdout
	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			slog.Error("failed to open log file", "path", *logFile, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}
	logger := slog.New(slog.NewJSONHandler(out, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	start := time.Now()
	slog.Info("mangrove started", "project", *configPath, "at", start.Format(time.RFC3339))

	s, err := sim.NewSimulation(cfg, sim.Options{
		Seed:      *seed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to set up project", "error", err)
		os.Exit(1)
	}

	runErr := s.Run()
	if err := s.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if runErr != nil {
		slog.Error("simulation failed", "error", runErr)
		os.Exit(1)
	}

	slog.Info("mangrove finished",
		"project", *configPath,
		"output_dir", s.Config().Output.Dir,
		"total_seconds", time.Since(start).Seconds(),
	)
}
