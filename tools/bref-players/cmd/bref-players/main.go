package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	appplayers "github.com/tyler180/bball-reference-scrapers/internal/app/players"
	"github.com/tyler180/bball-reference-scrapers/internal/config"
)

func main() {
	level := slog.LevelInfo
	if cfg, err := config.FromEnv(); err == nil && cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	lambda.Start(appplayers.LambdaEntrypoint)
}
