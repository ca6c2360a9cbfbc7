package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/pauljones0/swapThemes/internal/app"
	"github.com/pauljones0/swapThemes/internal/config"
	"github.com/pauljones0/swapThemes/internal/logger"
)

// generate runs one weekly cycle, or with -theme one suggestion run, and prints the result as JSON.
func main() {
	themeID := flag.String("theme", "", "run the suggestion pipeline for this existing theme instead of a full weekly cycle")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.SetDefault(logger.New(os.Stderr, cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	var out any
	if *themeID != "" {
		out, err = a.Service.GenerateForTheme(ctx, *themeID)
	} else {
		out, err = a.Cycle.Run(ctx)
	}
	if err != nil {
		a.Close()
		log.Fatalf("Run failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
}
