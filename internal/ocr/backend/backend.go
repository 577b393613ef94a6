// Package backend builds the configured OCR engine.
package backend

import (
	"fmt"

	"github.com/ivlev/docscan/internal/config"
	"github.com/ivlev/docscan/internal/ocr"
	"github.com/ivlev/docscan/internal/ocr/tesseract"
)

// New creates the engine named by c.Engine, wrapped with rate limiting and
// tracing
func New(c config.OCR) (ocr.Engine, error) {
	var e ocr.Engine

	switch c.Engine {
	case "gosseract", "":
		t := tesseract.New()
		t.TessdataPrefix = c.Tessdata
		t.Languages = c.Languages
		t.PSM = c.PSM
		e = t

	case "command":
		e = &ocr.CommandEngine{
			BinaryPath: c.Binary,
			Languages:  c.Languages,
			PSM:        c.PSM,
			Tessdata:   c.Tessdata,
		}

	case "none":
		e = ocr.Disabled{}

	default:
		return nil, fmt.Errorf("unknown ocr engine: %s", c.Engine)
	}

	return ocr.NewObservable(ocr.NewLimited(c.Limiter(), e)), nil
}
