package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ken-mbira/channels/core/channel"
	"github.com/Ken-mbira/channels/core/config"
	"github.com/Ken-mbira/channels/core/logger"
	"github.com/Ken-mbira/channels/core/routing"
	"github.com/Ken-mbira/channels/core/scope"
	"github.com/Ken-mbira/channels/core/server"
	redislayer "github.com/Ken-mbira/channels/integration/channel/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg)
	var srvCfg server.Config
	config.MustLoad(&srvCfg)

	log := newLogger(cfg.LogLevel)

	layer, cleanup, err := buildLayer(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build channel layer", logger.Error(err))
		os.Exit(1)
	}
	defer cleanup()

	ws := routing.NewURLRouter(layer,
		routing.WithRouterLogger(log),
		routing.WithDecorators(usernameFromCookie),
		routing.WithAllowAnyOrigin(),
	)
	ws.Handle("/ws/chat/{room}", newChatHandler(log))

	root := routing.NewProtocolRouter(routing.WithProtocolLogger(log))
	root.Handle(scope.ProtocolWebSocket, ws)
	root.Handle(scope.ProtocolHTTP, pageMux())

	srv, err := server.NewFromConfig(srvCfg, server.WithLogger(log))
	if err != nil {
		log.Error("failed to build server", logger.Error(err))
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		if err := srv.Stop(); err != nil {
			log.Error("shutdown failed", logger.Error(err))
		}
	}()

	if err := srv.Start(ctx, root); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server failed", logger.Error(err))
		os.Exit(1)
	}
}

// buildLayer picks the Redis layer when REDIS_URL is set, the in-memory
// layer otherwise. The returned cleanup closes the layer and, for Redis, the
// client behind it.
func buildLayer(ctx context.Context, cfg appConfig, log *slog.Logger) (channel.Layer, func(), error) {
	if cfg.RedisURL == "" {
		layer := channel.NewInMemoryLayer(
			channel.WithCapacity(cfg.ChannelCapacity),
			channel.WithExpiry(cfg.MessageExpiry),
			channel.WithLogger(log),
		)
		return layer, func() { _ = layer.Close() }, nil
	}

	client, err := redislayer.Connect(ctx, redislayer.Config{
		ConnectionURL: cfg.RedisURL,
		RetryAttempts: 3,
	})
	if err != nil {
		return nil, nil, err
	}

	layer := redislayer.NewLayer(client,
		redislayer.WithKeyPrefix("chatserver"),
		redislayer.WithCapacity(cfg.ChannelCapacity),
		redislayer.WithExpiry(cfg.MessageExpiry),
		redislayer.WithLogger(log),
	)
	log.Info("using redis channel layer")
	return layer, func() {
		_ = layer.Close()
		_ = client.Close()
	}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
