package source

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// PDF renders pages of a PDF document through MuPDF
type PDF struct {
	doc *fitz.Document
}

func NewPDF(path string) (*PDF, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDF{doc: doc}, nil
}

func NewPDFFromMemory(data []byte) (*PDF, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return &PDF{doc: doc}, nil
}

func (p *PDF) PageCount() int {
	return p.doc.NumPage()
}

func (p *PDF) PageDimensions(index int) (float64, float64, error) {
	rect, err := p.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (p *PDF) RenderPage(index int, dpi int) (image.Image, error) {
	return p.doc.ImageDPI(index, float64(dpi))
}

func (p *PDF) Close() error {
	return p.doc.Close()
}
