package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/vadim/igdm-console/internal/app"
	"github.com/vadim/igdm-console/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; environment variables are used when empty")
	flag.Parse()

	// Load configuration
	var cfg config.Config
	if *configPath != "" {
		fileCfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			log.Fatalf("failed to load config file: %v", err)
		}
		cfg = fileCfg
	} else {
		cfg = config.MustLoad()
	}

	// Create root context
	ctx := context.Background()

	// Initialize application
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	// Run application (blocks until shutdown)
	if err := application.Run(ctx); err != nil {
		log.Printf("application error: %v", err)
		os.Exit(1)
	}
}
