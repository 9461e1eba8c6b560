package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/tree_viewer/pkg/logging"
	"github.com/Dicklesworthstone/tree_viewer/pkg/script"
	"github.com/Dicklesworthstone/tree_viewer/pkg/server"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive tree editor over HTTP",
		Long: `Start a local preview server. The page at / edits the tree in the
browser and follows changes live over server-sent events. The JSON API
lives under /api, Prometheus metrics under /metrics.

With --script the tree is seeded from the script and rebuilt whenever
the file changes on disk.`,
		Example: `  tv serve
  tv serve --addr :9000 --script family.tv.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cmd, a, viper.GetString("server.addr"), scriptPath)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "seed the tree from this script and follow its changes")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// runServer blocks until ctx is done or the listener fails
func runServer(ctx context.Context, cmd *cobra.Command, a *app, addr, scriptPath string) error {
	var sc *script.Script
	if scriptPath != "" {
		var err error
		if sc, err = script.Load(scriptPath); err != nil {
			return err
		}
	}

	title := a.cfg.Export.Title
	if sc != nil && sc.Title != "" {
		title = sc.Title
	}
	sess := a.newSession(scriptLocale(sc))
	srv := server.New(sess, server.Options{
		Title:  title,
		Layout: a.cfg.LayoutOptions(),
		Logger: a.logger,
	})
	defer srv.Close()

	if sc != nil {
		logReplay(a.logger, scriptPath, srv.Replay(sc))
		unwatch, err := script.Watch(scriptPath, script.DefaultDebounce, func() {
			next, err := script.Load(scriptPath)
			if err != nil {
				a.logger.Warn("script reload skipped", "path", scriptPath, "error", err)
				return
			}
			logReplay(a.logger, scriptPath, srv.Replay(next))
		})
		if err != nil {
			a.logger.Warn("script watcher unavailable (live reload disabled)", "error", err)
		} else {
			defer unwatch()
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.logger.Slog().Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "addr", ln.Addr().String(), "session", sess.ID())
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	// Event streams never finish on their own
	srv.Close()
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func logReplay(logger *logging.Logger, path string, rep script.Report) {
	if rep.OK() {
		logger.Info("script replayed", "path", path, "steps", len(rep.Results))
		return
	}
	logger.Warn("script replayed with rejections", "path", path, "steps", len(rep.Results), "failed", rep.Failed)
}
