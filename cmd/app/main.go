package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/sushihentaime/blogify/internal/blogservice"
	"github.com/sushihentaime/blogify/internal/mailservice"
	"github.com/sushihentaime/blogify/internal/userservice"
)

type application struct {
	config        *Config
	logger        *slog.Logger
	userService   *userservice.UserService
	blogService   *blogservice.BlogService
	mailService   *mailservice.MailService
	cleanupWorker *blogservice.CleanupWorker
	aiProxy       http.Handler
	// memFiles is set when uploads are kept in process.
	memFiles *blogservice.MemoryFileStore
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	path := ".env"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := loadConfig(path)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app, cleanup, err := newApplication(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize the application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	err = app.serve(":" + cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
