package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"feedsync/app/repositories"
	"feedsync/app/routes"
	"feedsync/app/services"
	"feedsync/config"
	"feedsync/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// RunAppServer wires the feed to the remote store and serves the local API
// until ctx is cancelled. The first load runs in the background; until it
// finishes the feed reports loading.
func RunAppServer(ctx context.Context, cfg config.Config) error {
	log := logger.FromContext(ctx)

	liked, err := repositories.OpenLikedRepository(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open liked posts: %w", err)
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout}
	posts := repositories.NewRemotePostRepository(cfg.APIURL, client, log)
	feed := services.NewFeedService(posts, liked, services.WithLogger(log))
	defer feed.Close()

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}

	go feed.Load(ctx)

	srv := &http.Server{
		Handler:           routes.SetupRoutes(feed, log),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return logger.WithLogger(context.Background(), log) },
	}
	log.Info("serving feed", "addr", listener.Addr().String(), "api", cfg.APIURL)
	return serve(ctx, srv, listener)
}

// serve runs srv on l and shuts it down gracefully once ctx is done.
func serve(ctx context.Context, srv *http.Server, l net.Listener) error {
	log := logger.FromContext(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
