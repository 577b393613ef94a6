package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ivlev/docscan/internal/config"
	"github.com/ivlev/docscan/internal/engine"
	"github.com/ivlev/docscan/internal/ocr"
	"github.com/ivlev/docscan/internal/ocr/backend"
	"github.com/ivlev/docscan/internal/otel"
	"github.com/ivlev/docscan/internal/source"
	"github.com/ivlev/docscan/internal/system"

	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	// Create the default directories if they do not exist
	dirs := []string{"input", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	inputPtr := flag.String("input", "", "Photo, PDF or directory of photos (default: newest image in input/)")
	outputPtr := flag.String("output", "output", "Output directory")
	modePtr := flag.String("mode", "scan", "Output: scan, text or all")
	configPtr := flag.String("config", "", "YAML configuration file")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Files processed in parallel")
	detectorPtr := flag.String("detector", "", "Boundary detector: otsu, opencv")
	minAreaPtr := flag.Float64("min-area", 0, "Minimum contour area in detection pixels")
	epsilonPtr := flag.Float64("epsilon", 0, "Polygon approximation tolerance, fraction of the perimeter")
	thresholdPtr := flag.Int("threshold", -1, "Scan binarization threshold (0-255)")
	marginPtr := flag.Int("margin", -1, "Pixels cropped from each scan edge")
	qualityPtr := flag.Int("quality", 0, "Scan JPEG quality (1-100)")
	ocrPtr := flag.String("ocr", "", "OCR engine: gosseract, command, none")
	statsPtr := flag.Bool("stats", false, "Print a performance report")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}

	// Flags override the file
	if *detectorPtr != "" {
		cfg.Detection.Detector = *detectorPtr
	}
	if *minAreaPtr > 0 {
		cfg.Detection.MinArea = *minAreaPtr
	}
	if *epsilonPtr > 0 {
		cfg.Detection.Epsilon = *epsilonPtr
	}
	if *thresholdPtr >= 0 {
		cfg.Format.Threshold = *thresholdPtr
	}
	if *marginPtr >= 0 {
		cfg.Format.Margin = *marginPtr
	}
	if *qualityPtr > 0 {
		cfg.Format.JPEGQuality = *qualityPtr
	}
	if *ocrPtr != "" {
		cfg.OCR.Engine = *ocrPtr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	otel.SetupLogging(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := otel.Setup(ctx, "docscan", version)
	if err != nil {
		log.Printf("[!] Telemetry disabled: %v", err)
	} else {
		defer shutdown(context.Background())
	}

	var modes []engine.Mode
	if *modePtr == "all" {
		modes = []engine.Mode{engine.ModeScan, engine.ModeText}
	} else {
		m, err := engine.ParseMode(*modePtr)
		if err != nil {
			log.Fatalf("[-] %v", err)
		}
		modes = []engine.Mode{m}
	}

	var recognizer ocr.Engine
	for _, m := range modes {
		if m == engine.ModeText {
			recognizer, err = backend.New(cfg.OCR)
			if err != nil {
				log.Fatalf("[-] OCR error: %v", err)
			}
		}
	}

	pipeline, err := engine.New(cfg, recognizer)
	if err != nil {
		log.Fatalf("[-] Pipeline error: %v", err)
	}

	inputPath := *inputPtr
	if inputPath == "" {
		latest, err := system.FindLatestImage("input", source.Extensions)
		if err != nil {
			log.Fatalf("[-] Error: %v. Put a photo into input/", err)
		}
		inputPath = latest
		fmt.Printf("[*] Selected file: %s\n", inputPath)
	}

	inputs, err := source.List(inputPath)
	if err != nil {
		log.Fatalf("[-] Input error: %v", err)
	}
	if len(inputs) == 0 {
		log.Fatalf("[-] Error: no supported files in %s", inputPath)
	}

	if err := os.MkdirAll(*outputPtr, 0755); err != nil {
		log.Fatalf("[-] Output error: %v", err)
	}

	fmt.Println("--- [DOCSCAN] ---")
	fmt.Printf("[*] Input: %s | Files: %d | Mode: %s | Workers: %d\n", inputPath, len(inputs), *modePtr, *workersPtr)
	fmt.Println("-----------------")

	startTime := time.Now()

	var (
		done     atomic.Int32
		failures atomic.Int32
		mu       sync.Mutex
		timings  engine.Timings
		fallback int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*workersPtr, 1))

	for _, in := range inputs {
		g.Go(func() error {
			for _, m := range modes {
				result, err := pipeline.Process(gctx, in, m)
				if err != nil {
					log.Printf("[!] %s (%s): %v", in.Label(), m, err)
					failures.Add(1)
					continue
				}

				if err := writeResult(*outputPtr, in, result); err != nil {
					log.Printf("[!] %s: %v", in.Label(), err)
					failures.Add(1)
					continue
				}

				mu.Lock()
				timings.Load += result.Timings.Load
				timings.Detect += result.Timings.Detect
				timings.Rectify += result.Timings.Rectify
				timings.Format += result.Timings.Format
				if result.Contour.Fallback {
					fallback++
				}
				mu.Unlock()
			}

			fmt.Printf("[>] Ready: %d/%d\n", done.Add(1), len(inputs))
			return nil
		})
	}

	g.Wait()

	totalTime := time.Since(startTime)

	if *statsPtr {
		report := fmt.Sprintf(
			"--- [PERFORMANCE REPORT] ---\n"+
				"Build: %s\n"+
				"Total Time: %.2fs\n"+
				"Decoding: %.2fs\n"+
				"Detection: %.2fs\n"+
				"Rectification: %.2fs\n"+
				"Formatting: %.2fs\n"+
				"Full-frame fallbacks: %d\n"+
				"Files/s: %.2f\n",
			version, totalTime.Seconds(), timings.Load.Seconds(), timings.Detect.Seconds(),
			timings.Rectify.Seconds(), timings.Format.Seconds(), fallback,
			float64(len(inputs))/totalTime.Seconds(),
		)

		if stats, err := system.ReadStats(ctx); err == nil {
			report += fmt.Sprintf("Process RSS: %.1f MiB | Host memory used: %.1f%%\n",
				float64(stats.ProcessRSS)/(1<<20), stats.MemUsedPct)
		}

		fmt.Print(report + "----------------------------\n")
	}

	if n := failures.Load(); n > 0 {
		log.Fatalf("[-] %d of %d runs failed", n, len(inputs)*len(modes))
	}

	fmt.Printf("[+++] Done! Results saved to %s\n", *outputPtr)
}

func writeResult(dir string, in source.Input, result *engine.Result) error {
	name := in.Label()
	base := strings.ReplaceAll(strings.TrimSuffix(name, filepath.Ext(name)), " ", "_")

	switch result.Mode {
	case engine.ModeScan:
		return os.WriteFile(filepath.Join(dir, base+"_scanned.jpg"), result.Scan.Data, 0644)
	case engine.ModeText:
		return os.WriteFile(filepath.Join(dir, base+"_recognized.txt"), []byte(result.Text), 0644)
	}

	return nil
}
