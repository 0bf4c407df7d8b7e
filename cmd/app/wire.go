package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sushihentaime/blogify/internal/aiservice"
	"github.com/sushihentaime/blogify/internal/appwrite"
	"github.com/sushihentaime/blogify/internal/blogservice"
	"github.com/sushihentaime/blogify/internal/common"
	"github.com/sushihentaime/blogify/internal/mailservice"
	"github.com/sushihentaime/blogify/internal/userservice"
)

const sessionPruneInterval = time.Hour

type backends struct {
	posts    blogservice.PostStore
	files    blogservice.FileStore
	accounts userservice.Accounts
	// sessions is set when expired sessions stay stored until pruned.
	sessions userservice.ExpiredSessionDeleter
	memFiles *blogservice.MemoryFileStore
	db       *sql.DB
}

// newApplication builds every service from cfg. The returned function releases
// the connections it opened.
func newApplication(ctx context.Context, cfg *Config, logger *slog.Logger) (*application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if b.db != nil {
		closers = append(closers, func() { common.CloseDB(b.db) })
	}

	if b.sessions != nil {
		pruner := userservice.NewSessionPruner(b.sessions, sessionPruneInterval, logger)
		pruner.Start()
		closers = append(closers, pruner.Close)
	}

	proxy := aiservice.NewProxy(aiservice.Config{
		APIKey:        cfg.AIAPIKey,
		Model:         cfg.AIModel,
		Endpoint:      cfg.AIEndpoint,
		RatePerMinute: cfg.AIRatePerMinute,
	}, logger)

	var generator blogservice.Generator
	switch {
	case cfg.AIProxyURL != "":
		generator = aiservice.NewClient(cfg.AIProxyURL, 0)
	case proxy.Configured():
		generator = proxy
	default:
		logger.Info("AI generation is not configured, serving mock content")
	}

	likes, closeLikes, err := openLikeStore(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeLikes)

	app := &application{
		config:   cfg,
		logger:   logger,
		aiProxy:  proxy,
		memFiles: b.memFiles,
	}

	var (
		producer common.MessageProducer
		cleaner  blogservice.FileCleaner
	)

	if cfg.MQHost != "" {
		broker, err := openBroker(cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { broker.Close() })

		producer = broker
		cleaner = blogservice.NewBrokerCleaner(broker)

		app.cleanupWorker = blogservice.NewCleanupWorker(broker, b.files, logger)
		if err := app.cleanupWorker.Start(); err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, app.cleanupWorker.Close)

		if cfg.MailHost != "" {
			app.mailService = mailservice.NewMailService(broker, mailservice.MailConfig{
				Host:     cfg.MailHost,
				Port:     cfg.MailPort,
				Username: cfg.MailUser,
				Password: cfg.MailPassword,
				Sender:   cfg.MailSender,
				SiteURL:  cfg.SiteURL,
			}, logger)
			app.mailService.SendWelcomeEmail()
			closers = append(closers, app.mailService.Close)
		}
	}

	app.blogService = blogservice.NewBlogService(blogservice.Config{
		Posts:          b.posts,
		Files:          b.files,
		Generator:      generator,
		Cleaner:        cleaner,
		ImageSourceURL: cfg.ImageSourceURL,
	}, common.NewCache(5*time.Minute, 10*time.Minute), logger)

	app.userService = userservice.NewUserService(b.accounts, likes, producer, common.NewCache(time.Minute, 5*time.Minute), logger)

	return app, cleanup, nil
}

func openBackends(ctx context.Context, cfg *Config) (*backends, error) {
	var b backends

	switch cfg.StoreBackend {
	case "memory":
		b.posts = blogservice.NewMemoryPostStore()
		b.accounts = userservice.NewMemoryAccounts()

	case "postgres":
		db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 10, 5, 15*time.Minute)
		if err != nil {
			return nil, err
		}

		if cfg.MigrationsPath != "" {
			if _, err := common.MigrateUp(cfg.MigrationsPath, common.PostgresURI(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)); err != nil {
				db.Close()
				return nil, err
			}
		}

		b.db = db
		b.posts = blogservice.NewPostgresPostStore(db)
		accounts := userservice.NewPostgresAccounts(db)
		b.accounts = accounts
		b.sessions = accounts

	case "appwrite":
		client := appwrite.NewClient(appwrite.Config{
			Endpoint:  cfg.AppwriteURL,
			ProjectID: cfg.AppwriteProjectID,
			APIKey:    cfg.AppwriteAPIKey,
		})

		b.posts = blogservice.NewAppwritePostStore(client, cfg.AppwriteDatabaseID, cfg.AppwriteCollectionID)
		b.accounts = userservice.NewAppwriteAccounts(client)
		if cfg.AppwriteBucketID != "" {
			b.files = blogservice.NewAppwriteFileStore(client, cfg.AppwriteBucketID)
		}

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if b.files == nil && cfg.S3Bucket != "" {
		files, err := blogservice.NewS3FileStore(ctx, blogservice.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			if b.db != nil {
				b.db.Close()
			}
			return nil, err
		}
		b.files = files
	}

	if b.files == nil {
		b.memFiles = blogservice.NewMemoryFileStore(strings.TrimRight(cfg.SiteURL, "/") + "/v1/files")
		b.files = b.memFiles
	}

	return &b, nil
}

// openLikeStore returns the store and a function closing its connection.
func openLikeStore(ctx context.Context, cfg *Config) (userservice.LikeStore, func(), error) {
	if cfg.RedisURL == "" {
		return userservice.NewMemoryLikeStore(common.NewCache(time.Hour, 10*time.Minute)), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("could not connect to redis: %w", err)
	}

	return userservice.NewRedisLikeStore(rdb), func() { rdb.Close() }, nil
}

func openBroker(cfg *Config) (*common.MessageBroker, error) {
	broker, err := common.NewMessageBroker(common.AMQPURI(cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort))
	if err != nil {
		return nil, err
	}

	if err := common.SetupUserExchange(broker); err != nil {
		broker.Close()
		return nil, err
	}

	if err := common.SetupFileExchange(broker); err != nil {
		broker.Close()
		return nil, err
	}

	return broker, nil
}
