package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/linhsuan/shortstack"
	"github.com/linhsuan/shortstack/config"
	"github.com/linhsuan/shortstack/database"
	"github.com/linhsuan/shortstack/filesystem"
	shorthttp "github.com/linhsuan/shortstack/http"
	"github.com/linhsuan/shortstack/s3store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the shortstack HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	repos, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()
	slog.Info("connected to database", "type", cfg.Database.Type)

	store, closeStore, err := openObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	slog.Info("object store ready", "backend", cfg.Storage.Backend)

	recorder := shortstack.NewRecorder(repos.Analytics, time.Duration(cfg.Analytics.WriteTimeout)*time.Second)
	shortener := shortstack.NewShortenerService(repos.Links, recorder)

	sites, err := shortstack.NewSiteService(repos.Sites, store, recorder)
	if err != nil {
		return fmt.Errorf("create site service: %w", err)
	}

	admin := shorthttp.NewAdminHandler(shorthttp.AdminConfig{
		Links:     repos.Links,
		Sites:     repos.Sites,
		Analytics: repos.Analytics,
		Manager:   sites,
		Sessions:  repos.Sessions,
		KV:        repos.KV,
		CORS:      cfg.CORS,
	})

	router := shorthttp.NewHostRouter(
		shorthttp.Domains{SiteHosting: cfg.Domains.SiteHosting, Admin: cfg.Domains.Admin},
		shorthttp.NewSiteHandler(sites).Router(),
		admin.Router(),
		shorthttp.NewShortenerHandler(shortener, cfg.Domains.PublicBaseURL).Router(),
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr,
		"site_domain", cfg.Domains.SiteHosting, "admin_domain", cfg.Domains.Admin)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	// let in-flight analytics writes land before exiting
	recorder.Wait()
	return nil
}

func openObjectStore(ctx context.Context, cfg *config.Config) (shortstack.ObjectStore, func(), error) {
	switch cfg.Storage.Backend {
	case "s3":
		client, err := s3store.NewClient(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("create s3 client: %w", err)
		}
		return s3store.New(client, cfg.Storage.S3.Bucket), func() {}, nil

	case "fs":
		path := cfg.Storage.FS.Path
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}
		root, err := os.OpenRoot(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}
		return filesystem.New(root), func() { _ = root.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
