// Package source turns caller input, a file path or raw bytes, into a
// decoded image.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrInputNotFound   = errors.New("input not found")
	ErrInputUnreadable = errors.New("input unreadable")
)

var pdfMagic = []byte("%PDF-")

// Input is either a path on disk or an in-memory byte stream
type Input struct {
	Path string
	Data []byte
	Name string // Original file name, used for output naming
}

func FromPath(path string) Input {
	return Input{Path: path}
}

func FromBytes(name string, data []byte) Input {
	return Input{Name: name, Data: data}
}

// Label is the name used for logs and output files
func (in Input) Label() string {
	if in.Name != "" {
		return in.Name
	}
	if in.Path != "" {
		return filepath.Base(in.Path)
	}
	return "upload"
}

// Loader decodes inputs into images
type Loader struct {
	PDFDPI int // Render resolution for PDF input
}

// NewLoader creates a loader with default settings
func NewLoader() *Loader {
	return &Loader{PDFDPI: 200}
}

// Load reads and decodes the input. PDF input yields its first page.
func (l *Loader) Load(in Input) (image.Image, error) {
	data := in.Data

	if data == nil {
		if in.Path == "" {
			return nil, fmt.Errorf("%w: no path or data given", ErrInputNotFound)
		}

		var err error
		data, err = os.ReadFile(in.Path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, in.Path)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputUnreadable, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInputUnreadable, in.Label())
	}

	if bytes.HasPrefix(data, pdfMagic) {
		img, err := l.firstPage(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInputUnreadable, in.Label(), err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputUnreadable, in.Label(), err)
	}

	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrInputUnreadable, in.Label())
	}

	return img, nil
}

func (l *Loader) firstPage(data []byte) (image.Image, error) {
	doc, err := NewPDFFromMemory(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.PageCount() == 0 {
		return nil, errors.New("pdf has no pages")
	}

	dpi := l.PDFDPI
	if dpi <= 0 {
		dpi = 200
	}

	return doc.RenderPage(0, dpi)
}
