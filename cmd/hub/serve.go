package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/sekai-hub/auth"
	"github.com/jrsteele09/sekai-hub/credentials"
	"github.com/jrsteele09/sekai-hub/internal/config"
	"github.com/jrsteele09/sekai-hub/server"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hub web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		return run(cmd.Context(), c)
	},
}

func run(ctx context.Context, c config.Config) error {
	setupLogging(c)
	displayAppname(c.GetAppName())

	repo, closeRepo, err := newCredentialsRepo(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepo()

	manager, err := auth.NewManager(ctx, c, repo)
	if err != nil {
		return err
	}

	handler, err := server.New(c, manager)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              listenAddr(c),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(srv)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	if err := shutdown(srv); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newCredentialsRepo opens the configured credential backend. The returned
// func releases it.
func newCredentialsRepo(ctx context.Context, c config.StoreConfig) (credentials.Repo, func(), error) {
	switch backend := c.GetStoreBackend(); backend {
	case config.StoreBackendMemory:
		log.Warn().Msg("Using in-memory credential store, sign-ins are lost on restart")
		return credentials.NewInMemoryRepo(), func() {}, nil
	case config.StoreBackendFile:
		repo, err := credentials.NewFileRepo(c.GetStoreFile())
		if err != nil {
			return nil, nil, fmt.Errorf("[hub newCredentialsRepo] %w", err)
		}
		log.Info().Str("path", c.GetStoreFile()).Msg("Using file credential store")
		return repo, func() {}, nil
	case config.StoreBackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.GetRedisAddr()})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("[hub newCredentialsRepo] redis %s: %w", c.GetRedisAddr(), err)
		}
		log.Info().Str("addr", c.GetRedisAddr()).Msg("Using redis credential store")
		return credentials.NewRedisRepo(rdb, c.GetRedisPrefix()), func() {
			if err := rdb.Close(); err != nil {
				log.Err(err).Msg("Failed to close redis client")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("[hub newCredentialsRepo] unknown store backend %q", backend)
	}
}

func listenAddr(c config.EnvConfig) string {
	if flagPort != "" {
		return ":" + strings.TrimPrefix(flagPort, ":")
	}
	return c.GetPort()
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
