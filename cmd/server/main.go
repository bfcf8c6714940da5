package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/QuangNH139/jira-nidec-sub000/internal/server"
	"github.com/QuangNH139/jira-nidec-sub000/internal/service"
	"github.com/QuangNH139/jira-nidec-sub000/internal/storage/sqlite"
	"github.com/QuangNH139/jira-nidec-sub000/internal/util"
)

func main() {
	addrFlag := flag.String("addr", util.EnvOrDefault("JIRA_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("JIRA_DB_PATH", "data/board.db"), "Path to sqlite database file")
	staticFlag := flag.String("static", util.EnvOrDefault("JIRA_STATIC_DIR", "web/dist"), "Directory with built frontend")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	svc := service.New(store, logger)
	srv := server.New(svc, logger, *staticFlag)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
