package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gokw/internal/api"
	"gokw/internal/config"
	"gokw/internal/container"
	"gokw/ui"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.Open(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	server := api.NewServer(api.Config{
		Port:         appConfig.Server.Port,
		GinMode:      appConfig.Server.GinMode,
		MinGroupSize: appConfig.Analysis.MinGroupSize,
		Workers:      appConfig.Analysis.Workers,
	}, appContainer.Checker, appContainer.Pipeline, appContainer.Runs, appContainer.Metrics, appContainer.Logger)

	viewer, err := ui.NewApp(ui.Config{Port: appConfig.Server.UIPort}, appContainer.Runs, appContainer.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize report viewer: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	g.Go(func() error { return viewer.Start(gctx) })
	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
