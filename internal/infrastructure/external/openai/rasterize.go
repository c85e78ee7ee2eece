package openai

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
)

const (
	renderDPI    = 150
	jpegQuality  = 85
	maxPDFPages  = 3
	mimeTypeJPEG = "image/jpeg"
)

// rasterizePDF renders the first pages of a PDF document as JPEG images
func rasterizePDF(content []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	images := make([][]byte, 0, pages)
	for n := 0; n < pages; n++ {
		img, err := doc.ImageDPI(n, renderDPI)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", n, err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", n, err)
		}
		images = append(images, buf.Bytes())
	}
	return images, nil
}
