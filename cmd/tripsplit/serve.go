package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"tripsplit/internal/config"
	"tripsplit/internal/qr"
	"tripsplit/internal/server"
	"tripsplit/internal/storage"
	"tripsplit/internal/storage/sqlite"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tripsplit HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.SQLiteDBPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seedPeople(ctx, store, cfg.SeedPeople); err != nil {
		return err
	}

	qrClient := qr.NewClient(
		qr.WithEndpoint(cfg.QREndpoint),
		qr.WithHTTPClient(&http.Client{Timeout: cfg.QRTimeout}),
	)

	srv := server.New(store, qrClient,
		server.WithUploadDir(cfg.UploadDir),
		server.WithStaticDir(cfg.StaticDir),
	)

	// h2c allows HTTP/2 clients without TLS termination in front.
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h2c.NewHandler(srv.Handler(), &http2.Server{}),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "address", httpServer.Addr, "url", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// seedPeople registers the configured default group members. Existing
// names are untouched; seeding is idempotent across restarts.
func seedPeople(ctx context.Context, store storage.Store, names []string) error {
	for _, name := range names {
		if err := store.AddPerson(ctx, name); err != nil {
			return fmt.Errorf("failed to seed person %q: %w", name, err)
		}
	}
	if len(names) > 0 {
		slog.Info("Seeded default people", "count", len(names))
	}
	return nil
}
