package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/ironsheep/gene-scanner-mcp/internal/imaging"
)

// DefaultMaxConsecutiveFailures is how many grabs in a row may fail before a
// screen source gives up and ends.
const DefaultMaxConsecutiveFailures = 5

// shooter takes one screenshot and returns the encoded image.
type shooter func(ctx context.Context) ([]byte, error)

// ScreenProvider captures the primary display with the platform's
// screenshot tool.
type ScreenProvider struct {
	MaxConsecutiveFailures int

	newShooter func(tempDir string) (shooter, error)
}

// NewScreenProvider creates a provider for the current platform.
func NewScreenProvider() *ScreenProvider {
	return &ScreenProvider{
		MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
		newShooter:             platformShooter,
	}
}

// Acquire takes a probe screenshot. If the tool is missing or the capture is
// refused, it returns an error wrapping ErrDenied.
func (p *ScreenProvider) Acquire(ctx context.Context) (Source, error) {
	tmpDir, err := os.MkdirTemp("", "gene-scanner-screen-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for screenshots: %w", err)
	}

	shoot, err := p.newShooter(tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("%w: %v", ErrDenied, err)
	}

	data, err := shoot(ctx)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("%w: %v", ErrDenied, err)
	}
	first, err := imaging.Decode(data)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("%w: %v", ErrDenied, err)
	}

	maxFailures := p.MaxConsecutiveFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxConsecutiveFailures
	}

	b := first.Bounds()
	slog.Info("screen capture granted", "width", b.Dx(), "height", b.Dy())

	return &screenSource{
		shoot:       shoot,
		tempDir:     tmpDir,
		maxFailures: maxFailures,
		pending:     first,
		done:        make(chan struct{}),
	}, nil
}

type screenSource struct {
	shoot       shooter
	tempDir     string
	maxFailures int

	mu       sync.Mutex
	pending  image.Image
	failures int

	done     chan struct{}
	stopOnce sync.Once
}

func (s *screenSource) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return nil, ErrEnded
	default:
	}

	if s.pending != nil {
		img := s.pending
		s.pending = nil
		return img, nil
	}

	img, err := s.grab()
	if err == nil {
		s.failures = 0
		return img, nil
	}

	s.failures++
	slog.Warn("screen capture failed", "consecutive", s.failures, "error", err)
	if s.failures >= s.maxFailures {
		slog.Error("screen capture ended after repeated failures", "failures", s.failures)
		s.end()
	}
	return nil, err
}

func (s *screenSource) grab() (image.Image, error) {
	data, err := s.shoot(context.Background())
	if err != nil {
		return nil, err
	}
	return imaging.Decode(data)
}

func (s *screenSource) Done() <-chan struct{} {
	return s.done
}

func (s *screenSource) Stop() {
	s.end()
}

func (s *screenSource) end() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.tempDir != "" {
			os.RemoveAll(s.tempDir)
		}
	})
}

// runScreenshot runs a screenshot command that writes to out and returns the
// file's contents.
func runScreenshot(ctx context.Context, out string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", filepath.Base(name), err, bytes.TrimSpace(stderr.Bytes()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	os.Remove(out)
	return data, nil
}
