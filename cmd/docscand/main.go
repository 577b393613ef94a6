package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivlev/docscan/internal/config"
	"github.com/ivlev/docscan/internal/engine"
	"github.com/ivlev/docscan/internal/ocr/backend"
	"github.com/ivlev/docscan/internal/otel"
	"github.com/ivlev/docscan/internal/server"
	"github.com/ivlev/docscan/internal/system"
)

var version = "dev"

func main() {
	configPtr := flag.String("config", "", "YAML configuration file")
	addrPtr := flag.String("addr", "", "Listen address (overrides the config)")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}
	if *addrPtr != "" {
		cfg.Server.Address = *addrPtr
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	otel.SetupLogging(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "docscand", version)
	if err != nil {
		log.Fatalf("[-] Telemetry error: %v", err)
	}
	defer shutdown(context.Background())

	// Each in-flight upload holds a temp file
	system.InitResourceLimits(8192)

	recognizer, err := backend.New(cfg.OCR)
	if err != nil {
		log.Fatalf("[-] OCR error: %v", err)
	}

	pipeline, err := engine.New(cfg, recognizer)
	if err != nil {
		log.Fatalf("[-] Pipeline error: %v", err)
	}

	srv, err := server.New(cfg.Server, pipeline)
	if err != nil {
		log.Fatalf("[-] Server error: %v", err)
	}

	slog.Info("docscand starting",
		"version", version,
		"detector", cfg.Detection.Detector,
		"ocr", recognizer.Name(),
		"max_concurrent", cfg.Server.MaxConcurrent,
		"telemetry", otel.Enabled(),
	)

	if err := srv.ListenAndServe(ctx, cfg.Server.Address); err != nil {
		log.Fatalf("[-] %v", err)
	}

	slog.Info("docscand stopped")
}
