package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/docscan/internal/fixture"
)

func main() {
	outPtr := flag.String("out", "input", "Output directory")
	namePtr := flag.String("name", "page", "Base file name")
	formatPtr := flag.String("format", "jpg", "Image format: jpg or png")
	qualityPtr := flag.Int("quality", 92, "JPEG quality")
	countPtr := flag.Int("count", 1, "Number of photos")
	jitterPtr := flag.Float64("jitter", 0, "Random corner displacement in pixels")
	seedPtr := flag.Uint64("seed", 1, "Random seed for -jitter")
	qrPtr := flag.String("qr", "https://example.com/docscan", "QR payload, empty for none")
	textPtr := flag.String("text", "", "Page text, lines separated by |")

	flag.Parse()

	if err := os.MkdirAll(*outPtr, 0755); err != nil {
		log.Fatalf("[-] Output error: %v", err)
	}

	base := fixture.DefaultOptions()
	base.QR = *qrPtr
	if *textPtr != "" {
		base.Lines = strings.Split(*textPtr, "|")
	}

	r := rand.New(rand.NewPCG(*seedPtr, *seedPtr))

	for i := 0; i < *countPtr; i++ {
		o := base
		if *jitterPtr > 0 {
			o = fixture.Jitter(base, r, *jitterPtr)
		}

		photo, err := fixture.NewPhoto(o)
		if err != nil {
			log.Fatalf("[-] Render error: %v", err)
		}

		name := *namePtr
		if *countPtr > 1 {
			name = fmt.Sprintf("%s_%03d", *namePtr, i+1)
		}

		var data []byte
		switch *formatPtr {
		case "png":
			data, err = fixture.EncodePNG(photo.Image)
		case "jpg", "jpeg":
			data, err = fixture.EncodeJPEG(photo.Image, *qualityPtr)
		default:
			log.Fatalf("[-] Unknown format: %s", *formatPtr)
		}
		if err != nil {
			log.Fatalf("[-] Encode error: %v", err)
		}

		imageName := name + "." + *formatPtr
		if err := os.WriteFile(filepath.Join(*outPtr, imageName), data, 0644); err != nil {
			log.Fatalf("[-] Write error: %v", err)
		}

		gt := fixture.NewGroundTruth(imageName, photo)
		if err := fixture.WriteGroundTruth(gt, filepath.Join(*outPtr, name+".yaml")); err != nil {
			log.Fatalf("[-] Write error: %v", err)
		}

		fmt.Printf("[+] %s %s\n", imageName, photo.Corners)
	}

	fmt.Printf("[+++] Done! %d photos in %s\n", *countPtr, *outPtr)
}
