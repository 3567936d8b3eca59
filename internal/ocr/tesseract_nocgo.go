//go:build !cgo

package ocr

import (
	"context"

	"github.com/ironsheep/gene-scanner-mcp/internal/resilience"
)

// NewTesseractFactory returns a factory whose engines always fail with
// ErrUnavailable. Provisioning gives up on the first attempt.
func NewTesseractFactory(cache *TessdataCache, language string) EngineFactory {
	return func(ctx context.Context, slot int) (Engine, error) {
		return nil, resilience.Permanent(ErrUnavailable)
	}
}

// Probe reports Tesseract as unavailable.
func Probe(cache *TessdataCache, language string) Info {
	return Info{
		Backend:     "none",
		Language:    language,
		TessdataDir: cache.Dir(),
		Error:       ErrUnavailable.Error(),
	}
}
