package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/conorfennell/studydeck/internal/config"
	"github.com/conorfennell/studydeck/internal/source"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/web"
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg := config.LoadOrExit(flags)

	db, err := storage.Open(cfg.DB)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DB, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database ready", "path", cfg.DB)

	syncer := source.NewSyncer(db, cfg.Repos, cfg.Questions)

	if path, _ := flags.GetString("add-source"); path != "" {
		id, err := syncer.AddSource(path)
		if err != nil {
			slog.Error("failed to add source", "path", path, "error", err)
			os.Exit(1)
		}
		slog.Info("source added", "id", id, "path", path, "type", source.DetectType(path))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if doSync, _ := flags.GetBool("sync"); doSync {
		if err := syncer.SyncAll(ctx); err != nil {
			slog.Error("sync failed", "error", err)
			os.Exit(1)
		}
		return
	}

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: web.NewServer(db, syncer, cfg.Questions),
	}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	slog.Info("listening", "addr", cfg.Listen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
