package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ObituaryScanner/internal/app"
	"ObituaryScanner/internal/config"
	"ObituaryScanner/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single collection pass and exit")
	source := flag.String("source", "", "run a single source by slug and exit")
	suppress := flag.Int64("suppress", 0, "suppress a stored record by id and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *suppress > 0:
		err = application.Suppress(ctx, *suppress)
	case *source != "":
		err = application.RunSource(ctx, *source)
	case *once:
		err = application.RunOnce(ctx)
	default:
		err = application.Serve(ctx)
	}

	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
