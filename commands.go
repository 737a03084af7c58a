package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/pomodoro/internal/config"
	"github.com/sadopc/pomodoro/internal/export"
	"github.com/sadopc/pomodoro/internal/logging"
	"github.com/sadopc/pomodoro/internal/server"
	"github.com/sadopc/pomodoro/internal/stats"
)

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (c *cli) serveCmd() *cobra.Command {
	var addr, staticDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the static frontend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			if staticDir != "" {
				c.cfg.Server.StaticDir = staticDir
			}

			core, err := c.openApp()
			if err != nil {
				return err
			}
			defer core.Close()

			// Only the log level is live; everything else needs a restart.
			c.loader.Watch(func(cfg *config.Config, e fsnotify.Event) {
				if c.logLevel == "" {
					c.levelVar.Set(logging.ParseLevel(cfg.Log.Level))
				}
				c.log.Info("config reloaded", "file", e.Name, "log_level", cfg.Log.Level)
			}, func(err error) {
				c.log.Warn("config reload failed", "error", err)
			})

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			srv := server.New(core, c.cfg.Server, c.log.With("component", "server"), Version)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return core.Run(ctx) })
			g.Go(func() error { return srv.Run(ctx) })
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&staticDir, "static", "", "frontend directory (overrides server.static_dir)")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions as CSV or JSON, or write a full backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.openApp()
			if err != nil {
				return err
			}
			defer core.Close()

			now := core.Store.Now()
			sessions := core.Store.Sessions()
			index := export.TaskIndex(core.Store.Tasks())

			switch format {
			case "csv":
				if out == "" {
					return export.WriteCSV(cmd.OutOrStdout(), sessions, index)
				}
				err = export.ToCSV(sessions, index, out)
			case "json":
				if out == "" {
					return export.WriteJSON(cmd.OutOrStdout(), sessions, index)
				}
				err = export.ToJSON(sessions, index, out)
			case "backup":
				if out == "" {
					out = export.BackupFilename(now)
				}
				var data []byte
				if data, err = core.Store.ExportAll(); err != nil {
					return err
				}
				if err = export.WriteBackup(data, out); err == nil {
					core.MarkBackup(now)
				}
			default:
				return fmt.Errorf("unknown format %q (want csv, json or backup)", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "backup", "csv, json or backup")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (csv and json default to stdout)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Restore a backup written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading backup: %w", err)
			}

			core, err := c.openApp()
			if err != nil {
				return err
			}
			defer core.Close()

			report, ok := core.Import(data)
			for section, reason := range report.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", section, reason)
			}
			if !ok {
				return fmt.Errorf("import of %s failed", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print focus statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.openApp()
			if err != nil {
				return err
			}
			defer core.Close()

			st := core.Stats.Score()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total focus:   %s\n", stats.FormatFocusTime(st.TotalFocusMinutes))
			fmt.Fprintf(out, "Sessions:      %d\n", st.TotalSessions)
			fmt.Fprintf(out, "Tasks done:    %d\n", st.TotalTasksCompleted)
			fmt.Fprintf(out, "Streak:        %d days (longest %d)\n", st.CurrentStreak, st.LongestStreak)
			fmt.Fprintf(out, "Score:         %d\n", st.ProductivityScore)
			fmt.Fprintf(out, "Today:         %s\n", core.Stats.Trend().Text)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
