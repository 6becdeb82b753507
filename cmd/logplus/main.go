package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"github.com/lxfight/astrbot-plugin-logplus/internal/config"
	"github.com/lxfight/astrbot-plugin-logplus/internal/engine"
	"github.com/lxfight/astrbot-plugin-logplus/internal/model"
)

// cliOptions is the parsed command line.
type cliOptions struct {
	Cmd        string
	ConfigPath string
	DataDir    string
}

// parseArgs accepts flags on either side of the optional command name,
// so both "logplus -data ./logs stats" and "logplus stats -data ./logs"
// work. Stdlib flag parsing stops at the first non-flag argument; the
// remainder after the command name is parsed a second time.
func parseArgs(args []string) (cliOptions, error) {
	opts := cliOptions{ConfigPath: "logplus.toml", DataDir: "./logs"}

	fs := flag.NewFlagSet("logplus", flag.ContinueOnError)
	fs.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Path to TOML config file")
	fs.StringVar(&opts.DataDir, "data", opts.DataDir, "Root directory for log segments")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.Cmd = fs.Arg(0)
	if fs.NArg() > 1 {
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		log.Warn().Err(err).Str("path", opts.ConfigPath).Msg("config not loaded, using defaults")
	}

	// Commands are dispatched over the parsed name; default is the
	// long-running daemon.
	switch opts.Cmd {
	case "stats":
		printStats(engine.CollectStats(opts.DataDir))
	case "cleanup":
		runCleanup(opts.DataDir, cfg)
	case "", "run":
		runDaemon(opts.DataDir, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected run, stats or cleanup)\n", opts.Cmd)
		os.Exit(2)
	}
}

func runDaemon(dataDir string, cfg config.Config) {
	eng, err := engine.New(dataDir, cfg)
	if err != nil {
		log.Error().Err(err).Msg("engine init failed")
		os.Exit(1)
	}
	if err := eng.Start(); err != nil {
		log.Error().Err(err).Msg("engine start failed")
		os.Exit(1)
	}

	// Emit a marker record so a fresh data dir is visibly wired up.
	eng.Log(model.LevelInfo, "cmd/logplus/main.go", 0, "logplus daemon started")

	// Graceful shutdown hook
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eng.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown incomplete")
	}
}

func runCleanup(dataDir string, cfg config.Config) {
	eng, err := engine.New(dataDir, cfg)
	if err != nil {
		log.Error().Err(err).Msg("engine init failed")
		os.Exit(1)
	}
	defer eng.Stop(context.Background())

	res := eng.Cleanup()
	fmt.Printf("compressed: %d\ndeleted: %d\nfreed: %d bytes\n",
		res.Compressed, res.Deleted, res.FreedBytes)
}

func printStats(st engine.Stats) {
	fmt.Printf("files: %d\ntotal size: %d bytes\ncompressed: %d\n",
		st.TotalFiles, st.TotalSize, st.CompressedCount)
	for dir, ds := range st.Directories {
		fmt.Printf("  %-12s %4d files  %10d bytes\n", dir, ds.Count, ds.Size)
	}
	if !st.OldestFile.IsZero() {
		fmt.Printf("oldest: %s\nnewest: %s\n",
			st.OldestFile.Format(time.RFC3339), st.NewestFile.Format(time.RFC3339))
	}
}
