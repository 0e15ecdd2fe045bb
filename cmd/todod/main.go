// Package main is the entry point for todod, a small server for the /todos
// collection that the todosync REST backend talks to.
//
// Settings come from the environment:
//
//	TODOD_ADDR             listen address (default :8080)
//	TODOD_DATABASE_URL     Postgres DSN; empty keeps todos in memory
//	TODOD_JWT_SECRET       enables HS256 bearer auth
//	TODOD_ALLOWED_ORIGINS  comma-separated CORS origins (default *)
//	TODOD_LOG_LEVEL        debug, info, warn, error (default info)
//	TODOD_LOG_FILE         log to a rotated file instead of stderr
//	TODOD_ENV              production selects JSON logs
//
// "todod token [subject]" prints a token for TODOD_JWT_SECRET, for use as
// api_token in the todosync config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"todosync/internal/logging"
	"todosync/internal/todoapi"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func loadSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TODOD")
	v.AutomaticEnv()
	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("env", "development")
	return v
}

func run(args []string) int {
	settings := loadSettings()

	if len(args) > 0 && args[0] == "token" {
		return printToken(settings, args[1:])
	}

	logger, closer, err := logging.New(logging.Options{
		Level: settings.GetString("log_level"),
		File:  settings.GetString("log_file"),
		Env:   settings.GetString("env"),
		App:   "todod",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, settings.GetString("database_url"), logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return 1
	}
	defer cleanup()

	var origins []string
	for _, o := range strings.Split(settings.GetString("allowed_origins"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	handler, err := todoapi.New(todoapi.Options{
		Store:          store,
		JWTSecret:      []byte(settings.GetString("jwt_secret")),
		AllowedOrigins: origins,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("failed to build server", "error", err)
		return 1
	}

	srv := &http.Server{
		Addr:              settings.GetString("addr"),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "auth", settings.GetString("jwt_secret") != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			return 1
		}
		logger.Info("stopped")
	}
	return 0
}

func openStore(ctx context.Context, dsn string, logger *slog.Logger) (todoapi.Store, func(), error) {
	if dsn == "" {
		logger.Info("using in-memory store")
		return todoapi.NewMemoryStore(), func() {}, nil
	}
	pg, err := todoapi.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using postgres store")
	return pg, func() { pg.Close() }, nil
}

func printToken(settings *viper.Viper, args []string) int {
	secret := settings.GetString("jwt_secret")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "error: TODOD_JWT_SECRET is not set")
		return 2
	}
	subject := "todosync"
	if len(args) > 0 {
		subject = args[0]
	}
	token, err := todoapi.IssueToken([]byte(secret), subject, 365*24*time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Println(token)
	return 0
}
