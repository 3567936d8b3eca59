package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/ironsheep/gene-scanner-mcp/internal/geometry"
	"github.com/ironsheep/gene-scanner-mcp/internal/imaging"
	"github.com/ironsheep/gene-scanner-mcp/internal/resilience"
)

var (
	// ErrProvisionExhausted is returned by Provision when engines could not
	// be started within the configured number of attempts.
	ErrProvisionExhausted = errors.New("recognition workers could not be started")

	// ErrUnavailable is returned by engine factories when Tesseract is not
	// compiled into the binary.
	ErrUnavailable = errors.New("tesseract support is not available in this build")
)

// Engine recognizes the text in one encoded image. Implementations need not
// be safe for concurrent use; the pool serializes calls per slot.
type Engine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
	Close() error
}

// EngineFactory creates the engine bound to slot.
type EngineFactory func(ctx context.Context, slot int) (Engine, error)

// Cache is the on-disk state engines are created from. The pool clears it
// between failed provisioning attempts.
type Cache interface {
	Clear() error
}

type slot struct {
	mu     sync.Mutex
	engine Engine
}

// Pool holds one engine per gene slot.
type Pool struct {
	size    int
	factory EngineFactory
	cache   Cache
	retry   resilience.RetryConfig

	mu    sync.RWMutex
	slots []*slot
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithCache sets the cache cleared between provisioning attempts.
func WithCache(c Cache) PoolOption {
	return func(p *Pool) { p.cache = c }
}

// WithRetry sets how often and how fast provisioning is retried.
func WithRetry(cfg resilience.RetryConfig) PoolOption {
	return func(p *Pool) { p.retry = cfg }
}

// NewPool creates an unprovisioned pool of size slots.
func NewPool(size int, factory EngineFactory, opts ...PoolOption) *Pool {
	p := &Pool{
		size:    size,
		factory: factory,
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

// Ready reports whether the pool holds a live engine for every slot.
func (p *Pool) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.slots != nil
}

// Provision creates an engine for every slot, all at once.
//
// Parameters:
//   - ctx: Cancels provisioning, including any backoff wait between attempts.
//
// Returns:
//   - error: nil once every slot holds a live engine.
//
// A pool that is already provisioned returns immediately. Concurrent calls
// are serialized, so only one attempt series runs at a time.
//
// # Error Handling
//
// If any slot fails, every engine created in that attempt is closed, the
// language data cache is cleared and the attempt is repeated after a
// backoff, up to the retry limit. Then:
//   - Returns the context error if ctx was cancelled
//   - Returns an error wrapping ErrProvisionExhausted and the last failure
//     when the attempts run out
//   - Stops retrying at once on a permanent failure such as ErrUnavailable
func (p *Pool) Provision(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.slots != nil {
		return nil
	}

	cfg := p.retry
	cfg.OnRetry = func(attempt int, err error) {
		slog.Warn("recognition workers failed to start, clearing language data", "attempt", attempt, "error", err)
		if p.cache == nil {
			return
		}
		if err := p.cache.Clear(); err != nil {
			slog.Warn("failed to clear language data cache", "error", err)
		}
	}

	attempts := 0
	err := resilience.Retry(ctx, cfg, func() error {
		attempts++
		slots, err := p.createAll(ctx)
		if err != nil {
			return err
		}
		p.slots = slots
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		return fmt.Errorf("%w after %d attempts: %w", ErrProvisionExhausted, attempts, err)
	}

	slog.Info("recognition workers ready", "count", p.size, "attempts", attempts)
	return nil
}

func (p *Pool) createAll(ctx context.Context) ([]*slot, error) {
	slots := make([]*slot, p.size)
	errs := make([]error, p.size)

	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := p.create(ctx, i)
			if err != nil {
				errs[i] = fmt.Errorf("slot %d: %w", i, err)
				return
			}
			slots[i] = &slot{engine: e}
		}(i)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		for _, s := range slots {
			if s != nil {
				_ = s.engine.Close()
			}
		}
		return nil, err
	}
	return slots, nil
}

func (p *Pool) create(ctx context.Context, i int) (e Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine factory panicked: %v", r)
		}
	}()
	e, err = p.factory(ctx, i)
	if err == nil && e == nil {
		err = errors.New("engine factory returned no engine")
	}
	return e, err
}

// Recognize transforms cell and reads it with the engine bound to slotIndex.
//
// record, when not nil, receives every intermediate image of the transform.
// Any failure yields NoMatch.
func (p *Pool) Recognize(ctx context.Context, slotIndex int, cell image.Image, record imaging.StepRecorder) (c Candidate) {
	region, position := geometry.SlotCell(slotIndex)
	log := slog.With("slot", slotIndex, "region", region, "position", position)

	defer func() {
		if r := recover(); r != nil {
			log.Error("recognition panicked", "panic", r)
			c = NoMatch
		}
	}()

	s := p.slot(slotIndex)
	if s == nil {
		log.Debug("recognition requested for unprovisioned slot")
		return NoMatch
	}

	prepared := imaging.Preprocess(cell, record)
	data, err := imaging.EncodePNG(prepared)
	if err != nil {
		log.Debug("failed to encode cell", "error", err)
		return NoMatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return NoMatch
	}

	raw, err := s.engine.Recognize(ctx, data)
	if err != nil {
		log.Debug("recognition failed", "error", err)
		return NoMatch
	}
	return ParseCandidate(raw)
}

func (p *Pool) slot(i int) *slot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i < 0 || i >= len(p.slots) {
		return nil
	}
	return p.slots[i]
}

// Close releases every engine. The pool can be provisioned again afterwards.
func (p *Pool) Close() error {
	p.mu.Lock()
	slots := p.slots
	p.slots = nil
	p.mu.Unlock()

	var errs []error
	for i, s := range slots {
		s.mu.Lock()
		if err := s.engine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
		}
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}
