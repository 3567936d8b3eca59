package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/ironsheep/gene-scanner-mcp/internal/capture"
	"github.com/ironsheep/gene-scanner-mcp/internal/events"
	"github.com/ironsheep/gene-scanner-mcp/internal/geometry"
	"github.com/ironsheep/gene-scanner-mcp/internal/imaging"
	"github.com/ironsheep/gene-scanner-mcp/internal/ocr"
	"github.com/ironsheep/gene-scanner-mcp/internal/syncx"
)

// DefaultScanInterval is the minimum delay between two cycle starts.
const DefaultScanInterval = 200 * time.Millisecond

// Recognizer reads gene cells. *ocr.Pool implements it.
type Recognizer interface {
	Provision(ctx context.Context) error
	Recognize(ctx context.Context, slot int, cell image.Image, record imaging.StepRecorder) ocr.Candidate
	Size() int
	// Ready reports whether every slot holds a live worker.
	Ready() bool
}

// Config tunes a Scanner. Zero values select the defaults.
type Config struct {
	Regions      []geometry.Region
	ScanInterval time.Duration
	// SkipUnchanged skips cycles whose frame has a perceptual hash within
	// UnchangedDistance bits of the previous frame's.
	SkipUnchanged     bool
	UnchangedDistance int
	RecentLimit       int
}

func (c Config) withDefaults() Config {
	if len(c.Regions) == 0 {
		c.Regions = geometry.DefaultRegions()
	}
	if c.ScanInterval <= 0 {
		c.ScanInterval = DefaultScanInterval
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = DefaultRecentLimit
	}
	return c
}

// Scanner drives capture sessions.
type Scanner struct {
	provider capture.Provider
	pool     Recognizer
	hub      *events.Hub
	cfg      Config

	state *syncx.RWGuard[State]

	// mu guards the fields below and the Initializing -> Scanning
	// transition. It is never held while events are emitted.
	mu          sync.Mutex
	cancelStart context.CancelFunc
	startDone   chan struct{}
	current     *run
	last        *Session
}

// run is the state of one session's loop.
type run struct {
	session  *Session
	source   capture.Source
	cancel   context.CancelFunc
	finished chan struct{}

	// Owned by the loop goroutine.
	surface  *image.RGBA
	lastHash *goimagehash.ImageHash
}

// New creates an idle scanner. hub may be nil, in which case the scanner
// creates its own.
func New(provider capture.Provider, pool Recognizer, hub *events.Hub, cfg Config) (*Scanner, error) {
	cfg = cfg.withDefaults()
	if hub == nil {
		hub = events.NewHub()
	}
	if need := len(cfg.Regions) * geometry.CellsPerRegion; pool.Size() < need {
		return nil, fmt.Errorf("recognizer has %d slots, %d regions need %d", pool.Size(), len(cfg.Regions), need)
	}
	return &Scanner{
		provider: provider,
		pool:     pool,
		hub:      hub,
		cfg:      cfg,
		state:    syncx.NewGuard(Idle),
	}, nil
}

// Hub returns the hub the scanner emits on.
func (s *Scanner) Hub() *events.Hub {
	return s.hub
}

// Subscribe registers a listener on the scanner's hub.
func (s *Scanner) Subscribe(fn events.Listener) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

// Regions returns the region layouts scanned each cycle.
func (s *Scanner) Regions() []geometry.Region {
	return append([]geometry.Region(nil), s.cfg.Regions...)
}

// State returns the current lifecycle state.
func (s *Scanner) State() State {
	return s.state.Get()
}

// Start opens a capture session and returns once scanning has begun.
//
// Parameters:
//   - ctx: Bounds start-up only. Cancelling it, or calling Stop, while the
//     workers are provisioning aborts the start. The running session is not
//     tied to ctx.
//   - opts: Selects the optional PREVIEW and DEBUG_PIPELINE events.
//
// Returns:
//   - error: nil once STARTED has been emitted and the cycle loop runs.
//
// # Events
//
// A successful start emits INITIALIZING after the capture source is
// acquired and STARTED after the workers are ready.
//
// # Errors
//
//   - ErrAlreadyRunning if a session is initializing or running
//   - An error wrapping capture.ErrDenied if the source is refused; nothing
//     is emitted
//   - Provisioning failure or cancellation after INITIALIZING: the source is
//     released, STOPPED is emitted and the cause is returned
func (s *Scanner) Start(ctx context.Context, opts Options) error {
	startCtx, cancelStart := context.WithCancel(ctx)
	defer cancelStart()

	s.mu.Lock()
	if prev, ok := s.state.CompareAndSwap(func(st State) bool { return st == Idle }, Initializing); !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrAlreadyRunning, prev)
	}
	done := make(chan struct{})
	s.cancelStart = cancelStart
	s.startDone = done
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancelStart = nil
		s.startDone = nil
		s.mu.Unlock()
		close(done)
	}()

	src, err := s.provider.Acquire(startCtx)
	if err != nil {
		s.state.Set(Idle)
		return fmt.Errorf("failed to acquire capture source: %w", err)
	}

	s.hub.Emit(events.KindInitializing, nil)

	abort := func(err error) error {
		src.Stop()
		s.state.Set(Idle)
		s.hub.Emit(events.KindStopped, nil)
		return err
	}

	if err := s.pool.Provision(startCtx); err != nil {
		slog.Error("recognition workers unavailable", "error", err)
		return abort(fmt.Errorf("failed to start recognition workers: %w", err))
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	r := &run{
		session:  newSession(opts, s.cfg.RecentLimit),
		source:   src,
		cancel:   cancelRun,
		finished: make(chan struct{}),
	}

	s.mu.Lock()
	if err := startCtx.Err(); err != nil {
		s.mu.Unlock()
		cancelRun()
		return abort(err)
	}
	s.current = r
	s.last = r.session
	s.state.Set(Scanning)
	s.mu.Unlock()

	slog.Info("scanner started", "session", r.session.ID, "preview", opts.WithPreview, "debug", opts.WithDebug)
	s.hub.Emit(events.KindStarted, nil)

	go s.watch(r)
	go s.loop(runCtx, r)
	return nil
}

// Stop ends the current session and waits until STOPPED has been emitted or
// ctx is done. Stopping a session that is still initializing cancels its
// start-up; Start then returns the cancellation error.
func (s *Scanner) Stop(ctx context.Context) error {
	s.mu.Lock()
	switch s.state.Get() {
	case Initializing:
		cancel, done := s.cancelStart, s.startDone
		s.mu.Unlock()
		cancel()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	case Scanning, Stopping:
		r := s.current
		s.mu.Unlock()
		if r == nil {
			return ErrNotRunning
		}
		s.requestStop(r, "stop requested")
		select {
		case <-r.finished:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
		s.mu.Unlock()
		return ErrNotRunning
	}
}

func (s *Scanner) requestStop(r *run, reason string) {
	if _, ok := s.state.CompareAndSwap(func(st State) bool { return st == Scanning }, Stopping); ok {
		slog.Info("scanner stopping", "session", r.session.ID, "reason", reason)
	}
	r.cancel()
}

// watch stops the session when its source ends on its own.
func (s *Scanner) watch(r *run) {
	select {
	case <-r.source.Done():
		s.requestStop(r, "capture source ended")
	case <-r.finished:
	}
}

// Wait blocks until the current session, if any, has stopped.
func (s *Scanner) Wait(ctx context.Context) error {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	select {
	case <-r.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scanner) loop(ctx context.Context, r *run) {
	defer s.teardown(r)

	for {
		if ctx.Err() != nil {
			return
		}

		started := time.Now()
		s.cycle(ctx, r)
		if ctx.Err() != nil {
			return
		}

		wait := s.cfg.ScanInterval - time.Since(started)
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Scanner) teardown(r *run) {
	r.cancel()
	r.source.Stop()
	r.session.end()

	s.mu.Lock()
	if s.current == r {
		s.current = nil
	}
	s.state.Set(Idle)
	s.mu.Unlock()

	info := r.session.Info()
	slog.Info("scanner stopped", "session", info.ID, "cycles", info.Cycles, "found", info.Found)
	s.hub.Emit(events.KindStopped, nil)
	close(r.finished)
}

// Status is a snapshot of the scanner.
type Status struct {
	State        State        `json:"state"`
	Session      *SessionInfo `json:"session,omitempty"`
	Regions      []string     `json:"regions"`
	WorkersReady bool         `json:"workers_ready"`
}

// Status returns the current state and the most recent session, if any.
func (s *Scanner) Status() Status {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	st := Status{State: s.state.Get(), WorkersReady: s.pool.Ready()}
	for _, r := range s.cfg.Regions {
		st.Regions = append(st.Regions, r.Name)
	}
	if last != nil {
		info := last.Info()
		st.Session = &info
	}
	return st
}

// Results returns the results of the current session, or of the last one
// until the next Start.
func (s *Scanner) Results() []Result {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return nil
	}
	return last.Results()
}

// IsDenied reports whether err came from a refused capture source.
func IsDenied(err error) bool {
	return errors.Is(err, capture.ErrDenied)
}
