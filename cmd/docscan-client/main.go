package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/docscan/internal/client"
	"github.com/ivlev/docscan/internal/source"

	"github.com/google/uuid"
)

func main() {
	inputPtr := flag.String("input", "", "Photo or directory of photos to upload")
	outPtr := flag.String("out", "output", "Directory for downloaded results")
	urlPtr := flag.String("url", "http://localhost:5000", "docscand base URL")
	timeoutPtr := flag.Duration("timeout", 2*time.Minute, "Timeout per upload")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] scan|ocr|all|health\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	mode := "scan"
	if flag.NArg() > 0 {
		mode = strings.ToLower(flag.Arg(0))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := client.New(*urlPtr,
		client.WithRequestID(uuid.NewString()),
	)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	var modes []string
	switch mode {
	case "scan", "ocr":
		modes = []string{mode}
	case "all":
		modes = []string{"scan", "ocr"}
	case "health":
		health, err := c.Health(ctx)
		if err != nil {
			log.Fatalf("[-] Health check failed: %v", err)
		}
		fmt.Printf("[+] %s: %v (ocr: %v)\n", *urlPtr, health["status"], health["ocr"])
		return
	default:
		flag.Usage()
		os.Exit(2)
	}

	if *inputPtr == "" {
		log.Fatalf("[-] -input is required")
	}

	inputs, err := source.List(*inputPtr)
	if err != nil {
		log.Fatalf("[-] Input error: %v", err)
	}

	if err := os.MkdirAll(*outPtr, 0755); err != nil {
		log.Fatalf("[-] Output error: %v", err)
	}

	fmt.Printf("[*] Server: %s | Files: %d | Mode: %s\n", *urlPtr, len(inputs), mode)

	failed := 0

	for _, in := range inputs {
		for _, m := range modes {
			start := time.Now()

			uploadCtx, cancel := context.WithTimeout(ctx, *timeoutPtr)
			result, err := c.ScanFile(uploadCtx, m, in.Path)
			cancel()

			if err != nil {
				fmt.Printf("[!] %s (%s): %v\n", in.Label(), m, err)
				failed++
				continue
			}

			name := result.Filename
			if name == "" {
				name = fallbackName(in.Label(), m)
			}

			path := filepath.Join(*outPtr, filepath.Base(name))
			if err := os.WriteFile(path, result.Content, 0644); err != nil {
				fmt.Printf("[!] %s: %v\n", path, err)
				failed++
				continue
			}

			fmt.Printf("[+] %s -> %s (%.2fs)\n", in.Label(), path, time.Since(start).Seconds())
		}
	}

	if failed > 0 {
		log.Fatalf("[-] %d uploads failed", failed)
	}

	fmt.Printf("[+++] Done! Results saved to %s\n", *outPtr)
}

func fallbackName(label, mode string) string {
	base := strings.TrimSuffix(label, filepath.Ext(label))
	if mode == "scan" {
		return base + "_scanned.jpg"
	}
	return base + "_recognized.txt"
}
