package ocr

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTraineddata(t *testing.T, dir, lang, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, lang+".traineddata"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestTessdataCache_EnsureCopiesFromFirstSourceWithFile(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "empty")
	system := filepath.Join(root, "system")
	writeTraineddata(t, system, "eng", "english model")
	cacheDir := filepath.Join(root, "cache")

	cache := NewTessdataCache(cacheDir, "", empty, system)
	dir, err := cache.Ensure("eng")
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if dir != cacheDir {
		t.Errorf("dir: got %s, want %s", dir, cacheDir)
	}

	data, err := os.ReadFile(filepath.Join(cacheDir, "eng.traineddata"))
	if err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	if string(data) != "english model" {
		t.Errorf("cached content: got %q", data)
	}
}

func TestTessdataCache_EnsureMultipleLanguages(t *testing.T) {
	root := t.TempDir()
	system := filepath.Join(root, "system")
	writeTraineddata(t, system, "eng", "e")
	writeTraineddata(t, system, "osd", "o")

	cache := NewTessdataCache(filepath.Join(root, "cache"), system)
	if _, err := cache.Ensure("eng+osd"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	for _, name := range []string{"eng.traineddata", "osd.traineddata"} {
		if _, err := os.Stat(filepath.Join(cache.Dir(), name)); err != nil {
			t.Errorf("%s not cached: %v", name, err)
		}
	}
}

func TestTessdataCache_EnsureReplacesTruncatedCopy(t *testing.T) {
	root := t.TempDir()
	system := filepath.Join(root, "system")
	writeTraineddata(t, system, "eng", "complete model data")
	cacheDir := filepath.Join(root, "cache")
	writeTraineddata(t, cacheDir, "eng", "trunc")

	cache := NewTessdataCache(cacheDir, system)
	if _, err := cache.Ensure("eng"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(cacheDir, "eng.traineddata"))
	if string(data) != "complete model data" {
		t.Errorf("truncated copy was kept: %q", data)
	}
}

func TestTessdataCache_EnsureMissingLanguage(t *testing.T) {
	root := t.TempDir()
	cache := NewTessdataCache(filepath.Join(root, "cache"), filepath.Join(root, "nowhere"))

	if _, err := cache.Ensure("eng"); err == nil {
		t.Error("Ensure should fail when no source holds the language")
	}
}

func TestTessdataCache_Clear(t *testing.T) {
	root := t.TempDir()
	system := filepath.Join(root, "system")
	writeTraineddata(t, system, "eng", "model")

	cache := NewTessdataCache(filepath.Join(root, "cache"), system)
	if _, err := cache.Ensure("eng"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(cache.Dir()); !os.IsNotExist(err) {
		t.Errorf("cache dir still exists after Clear: %v", err)
	}

	// Clearing an absent cache is not an error.
	if err := cache.Clear(); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}

	if _, err := cache.Ensure("eng"); err != nil {
		t.Errorf("Ensure after Clear failed: %v", err)
	}
}

func TestDefaultTessdataSources_PrefersEnvironment(t *testing.T) {
	t.Setenv("TESSDATA_PREFIX", "/custom/prefix")

	sources := DefaultTessdataSources()

	if len(sources) < 2 || sources[0] != "/custom/prefix" {
		t.Errorf("sources: got %v, want /custom/prefix first", sources)
	}
}
