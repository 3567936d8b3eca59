//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/gene-scanner-mcp/internal/imaging"
)

// TesseractEngine reads single characters restricted to Alphabet.
type TesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine starts a Tesseract client on the language data in
// tessdataDir and runs one recognition on a blank image, so a client that
// cannot load its data fails here rather than on the first real cell.
func NewTesseractEngine(tessdataDir, language string) (*TesseractEngine, error) {
	client := gosseract.NewClient()

	if err := client.SetTessdataPrefix(tessdataDir); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set tessdata path: %w", err)
	}
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetWhitelist(Alphabet); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	e := &TesseractEngine{client: client}
	if err := e.warmUp(); err != nil {
		client.Close()
		return nil, err
	}
	return e, nil
}

func (e *TesseractEngine) warmUp() error {
	blank := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	data, err := imaging.EncodePNG(blank)
	if err != nil {
		return err
	}
	if _, err := e.Recognize(context.Background(), data); err != nil {
		return fmt.Errorf("engine warm-up failed: %w", err)
	}
	return nil
}

// Recognize returns the raw text Tesseract reads in png.
func (e *TesseractEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Close releases the Tesseract client.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}

// NewTesseractFactory returns a factory that fills cache for language and
// starts a TesseractEngine on it.
func NewTesseractFactory(cache *TessdataCache, language string) EngineFactory {
	return func(ctx context.Context, slot int) (Engine, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir, err := cache.Ensure(language)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare language data: %w", err)
		}
		return NewTesseractEngine(dir, language)
	}
}

// Probe reports whether Tesseract can run with the data in cache.
func Probe(cache *TessdataCache, language string) Info {
	info := Info{
		Backend:     "gosseract",
		Language:    language,
		TessdataDir: cache.Dir(),
	}

	client := gosseract.NewClient()
	info.Version = client.Version()
	client.Close()

	if _, err := cache.Ensure(language); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = true
	return info
}
