package ocr

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// TessdataCache is a private copy of Tesseract language data.
//
// Engines never read the system tessdata directory directly. Ensure copies
// the files a language needs into the cache directory, and Clear discards
// them so the next Ensure copies them afresh.
type TessdataCache struct {
	mu      sync.Mutex
	dir     string
	sources []string
}

// NewTessdataCache creates a cache rooted at dir that copies language data
// from the first of sources holding it. Empty sources are ignored.
func NewTessdataCache(dir string, sources ...string) *TessdataCache {
	kept := make([]string, 0, len(sources))
	for _, s := range sources {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return &TessdataCache{dir: dir, sources: kept}
}

// DefaultTessdataDir returns the per-user cache location for language data.
func DefaultTessdataDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "gene-scanner", "tessdata")
}

// DefaultTessdataSources lists where Tesseract installations commonly keep
// their language data, TESSDATA_PREFIX first.
func DefaultTessdataSources() []string {
	var sources []string
	if prefix := os.Getenv("TESSDATA_PREFIX"); prefix != "" {
		sources = append(sources, prefix, filepath.Join(prefix, "tessdata"))
	}

	switch runtime.GOOS {
	case "darwin":
		sources = append(sources,
			"/opt/homebrew/share/tessdata",
			"/usr/local/share/tessdata",
		)
	case "windows":
		sources = append(sources,
			`C:\Program Files\Tesseract-OCR\tessdata`,
			`C:\Program Files (x86)\Tesseract-OCR\tessdata`,
		)
	default:
		sources = append(sources,
			"/usr/share/tesseract-ocr/5/tessdata",
			"/usr/share/tesseract-ocr/4.00/tessdata",
			"/usr/share/tessdata",
			"/usr/local/share/tessdata",
		)
	}
	return sources
}

// Dir returns the cache directory.
func (c *TessdataCache) Dir() string {
	return c.dir
}

// Ensure makes sure the cache holds the data files for language and returns
// the cache directory. language may combine several languages with "+".
//
// A cached file whose size differs from its source is copied again.
func (c *TessdataCache) Ensure(language string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create tessdata directory: %w", err)
	}

	for _, lang := range strings.Split(language, "+") {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		if err := c.ensureFile(lang + ".traineddata"); err != nil {
			return "", err
		}
	}
	return c.dir, nil
}

func (c *TessdataCache) ensureFile(name string) error {
	src, info, err := c.find(name)
	if err != nil {
		return err
	}

	dst := filepath.Join(c.dir, name)
	if cached, err := os.Stat(dst); err == nil && cached.Size() == info.Size() {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("failed to copy %s: %w", name, err)
	}
	return nil
}

func (c *TessdataCache) find(name string) (string, os.FileInfo, error) {
	for _, dir := range c.sources {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, info, nil
		}
	}
	return "", nil, fmt.Errorf("language data %s not found in %s", name, strings.Join(c.sources, ", "))
}

// Clear removes the cache directory and everything in it.
func (c *TessdataCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("failed to clear tessdata cache: %w", err)
	}
	return nil
}

// copyFile writes src to dst through a temporary file so a partially
// written copy never carries the final name.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
