package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/pomodoro/internal/app"
	"github.com/sadopc/pomodoro/internal/config"
	"github.com/sadopc/pomodoro/internal/logging"
	"github.com/sadopc/pomodoro/internal/tui"
)

var Version = "dev"

// cli holds what the persistent pre-run resolved for the subcommands.
type cli struct {
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
	logFile    string

	loader   *config.Loader
	cfg      *config.Config
	log      *slog.Logger
	levelVar *slog.LevelVar
	closeLog func() error
}

func main() {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:     "pomodoro",
		Short:   "Pomodoro timer with tasks, statistics and achievements",
		Version: Version,
		Long: `A Pomodoro timer. Without a subcommand it opens the terminal interface.

Examples:
  pomodoro
  pomodoro serve --addr :3000
  pomodoro export --format csv --out sessions.csv
  pomodoro import pomodoro-backup-2025-06-01.json`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) { c.teardown() },
		RunE:              c.runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.configPath, "config", config.DefaultPath(), "config file")
	pf.StringVar(&c.dbPath, "db", "", "database file (overrides db_path)")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.logFormat, "log-format", "", "log format: text, json")
	pf.StringVar(&c.logFile, "log-file", "", "write logs to this file (the terminal interface logs nowhere otherwise)")

	rootCmd.AddCommand(c.serveCmd())
	rootCmd.AddCommand(c.exportCmd())
	rootCmd.AddCommand(c.importCmd())
	rootCmd.AddCommand(c.statsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config file, applies flag overrides and installs the logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	c.loader = config.NewLoader(c.configPath)
	cfg, err := c.loader.Load()
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	var w io.Writer = os.Stderr
	c.closeLog = func() error { return nil }
	switch {
	case c.logFile != "":
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		w = f
		c.closeLog = f.Close
	case cmd.Name() == cmd.Root().Name():
		// Log lines would draw over the alternate screen.
		w = io.Discard
	}
	c.log, c.levelVar = logging.New(w, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(c.log)
	return nil
}

func (c *cli) teardown() {
	if c.closeLog != nil {
		c.closeLog()
	}
}

func (c *cli) openApp() (*app.App, error) {
	return app.New(c.cfg, c.log)
}

func (c *cli) runTUI(cmd *cobra.Command, _ []string) error {
	core, err := c.openApp()
	if err != nil {
		return err
	}
	defer core.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	// The store stays open until both the interface and the maintenance
	// loops have returned.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return core.Run(ctx) })
	g.Go(func() error {
		defer cancel()
		return tui.Run(ctx, core)
	})
	return g.Wait()
}
