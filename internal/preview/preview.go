// Package preview renders PNG thumbnails of generated PDFs with MuPDF.
package preview

import (
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI keeps a section page thumbnail around 600px wide.
const DefaultDPI = 50.0

// ErrEmpty is returned for a document without pages.
var ErrEmpty = errors.New("preview: document has no pages")

// FirstPagePNG renders page 1 of the PDF in data at dpi.
func FirstPagePNG(data []byte, dpi float64) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("error opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, ErrEmpty
	}
	png, err := doc.ImagePNG(0, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render first page: %w", err)
	}
	return png, nil
}
