// Command server starts the website's HTTP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/avolkov/website/internal/auth"
	"github.com/avolkov/website/internal/clientid"
	"github.com/avolkov/website/internal/config"
	"github.com/avolkov/website/internal/cookie"
	"github.com/avolkov/website/internal/logger"
	"github.com/avolkov/website/internal/magiclink"
	"github.com/avolkov/website/internal/migrate"
	"github.com/avolkov/website/internal/ranking"
	"github.com/avolkov/website/internal/repository/postgres"
	"github.com/avolkov/website/internal/server"
	"github.com/avolkov/website/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	var log *slog.Logger
	if cfg.App.IsProduction() {
		log = logger.New(logger.WithProduction(cfg.App.Name))
	} else {
		log = logger.New(logger.WithDevelopment(cfg.App.Name))
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
		return err
	}

	db, err := postgres.New(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	cookies, err := cookie.New(cfg.Cookie.Secrets, cookie.WithSecure(cfg.Cookie.Secure))
	if err != nil {
		return err
	}

	sessions := session.NewStore(cookies, cfg.Session)
	clients := clientid.NewResolver(cookies, cfg.ClientID)

	users := postgres.NewUserRepo(db)
	records := postgres.NewSessionRepo(db, cfg.Session.TTL)

	codec, err := magiclink.NewCodec(cfg.MagicLink.Secret, cfg.MagicLink.TTL)
	if err != nil {
		return err
	}

	var sender magiclink.Sender
	if cfg.App.IsProduction() {
		sender, err = magiclink.NewPostmarkSender(cfg.Postmark)
		if err != nil {
			return err
		}
	} else {
		sender = magiclink.NewDevSender(log)
	}

	authSvc := auth.New(sessions, users, records, codec, auth.WithLogger(log))
	tracker := ranking.NewTracker(rdb, cfg.Ranking, log)

	handlers := server.NewHandlers(authSvc, clients, tracker, codec, sender, users,
		cfg.App.BaseURL, cfg.MagicLink.TTL, log)

	srv := server.New(cfg.HTTP, server.Router(handlers, log))
	return server.Run(ctx, srv, cfg.HTTP.ShutdownTimeout, log)
}
