package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/justfoolingaround/spotify-webhooks/internal/config"
	"github.com/justfoolingaround/spotify-webhooks/internal/listener"
	"github.com/justfoolingaround/spotify-webhooks/internal/notify"
	"github.com/justfoolingaround/spotify-webhooks/internal/spotify"
	"github.com/justfoolingaround/spotify-webhooks/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	cfg.ApplyFlags(os.Args[1:])
	logrus.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := spotify.NewClient(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.RefreshToken)
	source := spotify.NewCachedClient(client)
	builder := notify.NewBuilder(source, cfg.Debug)
	channel := webhook.NewChannel(cfg.WebhookURL, nil)

	ln := listener.New(client, client.HTTPClient(), cfg.Invisible,
		func(ctx context.Context, cluster *spotify.Cluster, diag notify.Diagnostics) error {
			msg, err := builder.Build(ctx, cluster, diag)
			if err != nil {
				return err
			}
			if msg == nil {
				logrus.Debug("event carries no track, nothing to render")
				return nil
			}
			return channel.Publish(ctx, msg)
		})

	logrus.WithFields(logrus.Fields{
		"debug":     cfg.Debug,
		"invisible": cfg.Invisible,
	}).Info("listening for player state changes")

	if err := ln.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Fatal("listener stopped")
	}
}
