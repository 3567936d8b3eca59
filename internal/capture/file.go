package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/ironsheep/gene-scanner-mcp/internal/imaging"
)

// FileProvider replays still frames from image files, one per Frame call.
// Without looping the source ends after the last frame.
type FileProvider struct {
	paths []string
	loop  bool
	cache *imaging.ImageCache
}

// NewFileProvider creates a provider for paths. cache may be nil.
func NewFileProvider(paths []string, loop bool, cache *imaging.ImageCache) *FileProvider {
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	return &FileProvider{
		paths: append([]string(nil), paths...),
		loop:  loop,
		cache: cache,
	}
}

// Acquire checks that the first frame can be read. A missing or unreadable
// first frame is reported as ErrDenied.
func (p *FileProvider) Acquire(ctx context.Context) (Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.paths) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrDenied, errors.New("no frames configured"))
	}
	if _, err := p.cache.Load(p.paths[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDenied, err)
	}
	return &fileSource{
		provider: p,
		done:     make(chan struct{}),
	}, nil
}

type fileSource struct {
	provider *FileProvider

	mu   sync.Mutex
	next int

	done     chan struct{}
	stopOnce sync.Once
}

func (s *fileSource) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return nil, ErrEnded
	default:
	}

	p := s.provider
	if s.next >= len(p.paths) {
		if !p.loop {
			s.end()
			return nil, ErrEnded
		}
		s.next = 0
	}

	path := p.paths[s.next]
	s.next++
	return p.cache.Load(path)
}

func (s *fileSource) Done() <-chan struct{} {
	return s.done
}

// Stop ends the source and drops its frames from the cache so that edits
// to the files are picked up by the next session.
func (s *fileSource) Stop() {
	s.end()

	p := s.provider
	for _, path := range p.paths {
		p.cache.Evict(path)
	}
	slog.Debug("file source stopped", "frames", len(p.paths), "cached", p.cache.Len())
}

func (s *fileSource) end() {
	s.stopOnce.Do(func() { close(s.done) })
}
