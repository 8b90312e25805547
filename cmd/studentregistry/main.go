package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/GoArmGo/StudentRegistry/internal/app"
	"github.com/GoArmGo/StudentRegistry/internal/di"
)

func main() {
	mode := flag.String("mode", app.ModeServer, "Режим запуска: server, worker или seed")
	flag.Parse()

	// bootstrap-логгер нужен, пока основной slog ещё не собран из конфигурации
	bootstrapLogger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	bootstrapLogger.Info("starting application", "mode", *mode)

	ctx := context.Background()

	application, err := di.BuildApp(ctx)
	if err != nil {
		bootstrapLogger.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	logger := application.LoggerIns()
	logger.Info("application initialized successfully")

	if err := application.Run(ctx, *mode); err != nil {
		logger.Error("application run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
