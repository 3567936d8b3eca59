// Package ocr recognizes single gene letters with Tesseract.
//
// A Pool holds one recognition engine per gene slot. Engines are created
// together by Provision and kept for the life of the process, so a scanner
// that is stopped and started again does not pay the start-up cost twice.
// Each engine is used by one goroutine at a time.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Builds without cgo compile, but every engine fails with ErrUnavailable.
//
// # Language Data
//
// Engines read language data from a private cache directory managed by
// TessdataCache. The cache is filled from the system's tessdata directory on
// first use. When engines fail to start, the pool clears the cache before the
// next attempt, so a truncated or corrupted copy is replaced.
//
// # Results
//
// Every recognition yields a Candidate: either one letter of Alphabet or
// NoMatch. Engine errors, panics and text that is not exactly one allowed
// letter all become NoMatch; they never reach the caller as errors.
package ocr
