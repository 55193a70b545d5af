package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/s0up4200/qbitdrop/internal/api"
	"github.com/s0up4200/qbitdrop/internal/client"
	"github.com/s0up4200/qbitdrop/internal/config"
	"github.com/s0up4200/qbitdrop/internal/logger"
	"github.com/s0up4200/qbitdrop/internal/metrics"
	"github.com/s0up4200/qbitdrop/internal/web"
	"github.com/s0up4200/qbitdrop/pkg/version"
)

const (
	shutdownTimeout = 10 * time.Second
	probeTimeout    = 10 * time.Second
)

func main() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// closeLog flushes and releases the log file, if one was opened.
func closeLog() {
	if logCloser == nil {
		return
	}
	if err := logCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
	logCloser = nil
}

var (
	debug    bool
	logLevel string

	cfg       *config.Config
	logCloser io.Closer

	rootCmd = &cobra.Command{
		Use:   "qbitdrop",
		Short: "qbitdrop hands torrent links from a web page to qBittorrent",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.Load()
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			logCloser = logger.Setup(cfg.Log, debug)
		},
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  runServe,
		Example: `  # Listen on 8000 and save movies to /data/movies
  APP_PORT=8000 MOVIES_DIRECTORY=/data/movies qbitdrop serve`,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE:  runConfig,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version information and check for updates",
		Run: func(cmd *cobra.Command, args []string) {
			version.CheckForUpdates(cmd.Context(), "s0up4200", "qbitdrop")
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error), overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Info().
		Str("version", version.Version).
		Str("addr", cfg.Addr()).
		Str("qbittorrent", cfg.QBittorrentURL()).
		Dur("qbittorrentTimeout", cfg.QBittorrentTimeout).
		Str("moviesDirectory", cfg.MoviesDirectory).
		Str("seriesDirectory", cfg.SeriesDirectory).
		Str("assetRoot", cfg.AssetRoot).
		Strs("corsAllowedOrigins", cfg.CORSAllowedOrigins).
		Bool("metricsEnabled", cfg.MetricsEnabled).
		Msg("starting qbitdrop")

	if _, err := os.Stat(cfg.AssetRoot); err != nil {
		log.Warn().Err(err).Str("assetRoot", cfg.AssetRoot).Msg("asset root is not readable, static files will 404")
	}

	qb := client.NewQBitClient(cfg.QBittorrentURL(), cfg.QBittorrentTimeout)

	srv := api.NewServer(&api.Dependencies{
		Config:     cfg,
		Client:     qb,
		Metrics:    metrics.NewManager(),
		WebHandler: web.NewHandler(os.DirFS(cfg.AssetRoot)),
	})

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		log.Error().Err(err).Str("addr", cfg.Addr()).Msg("failed to listen")
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Msgf("server listening on http://%s", listener.Addr())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		probeDaemon(gctx, qb)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}

// probeDaemon logs whether qBittorrent is reachable. It never blocks startup.
func probeDaemon(parent context.Context, qb *client.QBitClient) {
	ctx, cancel := context.WithTimeout(parent, probeTimeout)
	defer cancel()

	status, err := qb.Status(ctx)
	if err != nil {
		if parent.Err() == nil {
			log.Warn().Err(err).Msg("qbittorrent is not reachable yet, add requests will fail until it is")
		}
		return
	}

	if !status.SupportsTorrentsAdd() {
		log.Warn().
			Str("webApiVersion", status.WebAPIVersion).
			Msg("qbittorrent web api is older than 2.0, torrents/add is not available")
		return
	}

	log.Info().
		Str("qbittorrentVersion", status.Version).
		Str("webApiVersion", status.WebAPIVersion).
		Msg("connected to qbittorrent")
}
