package scanner

import (
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/gene-scanner-mcp/internal/syncx"
)

// DefaultRecentLimit is how many results a session keeps.
const DefaultRecentLimit = 100

// Options select the optional event streams of a session.
type Options struct {
	WithPreview bool `json:"with_preview"`
	WithDebug   bool `json:"with_debug"`
}

// Result is one SAPLING-FOUND report.
type Result struct {
	SessionID   string    `json:"session_id"`
	RegionIndex int       `json:"region_index"`
	Region      string    `json:"region"`
	Genes       string    `json:"genes"`
	FoundAt     time.Time `json:"found_at"`
}

// Session is one capture session, from Start until the source is released.
type Session struct {
	ID        string
	StartedAt time.Time
	Options   Options

	limit int
	stats *syncx.RWGuard[sessionStats]
}

type sessionStats struct {
	cycles  int
	skipped int
	found   int
	recent  []Result
	endedAt time.Time
}

func newSession(opts Options, limit int) *Session {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Options:   opts,
		limit:     limit,
		stats:     syncx.NewGuard(sessionStats{}),
	}
}

func (s *Session) countCycle() {
	s.stats.Write(func(st *sessionStats) { st.cycles++ })
}

func (s *Session) countSkipped() {
	s.stats.Write(func(st *sessionStats) { st.skipped++ })
}

func (s *Session) record(r Result) {
	s.stats.Write(func(st *sessionStats) {
		st.found++
		st.recent = append(st.recent, r)
		if over := len(st.recent) - s.limit; over > 0 {
			st.recent = append([]Result(nil), st.recent[over:]...)
		}
	})
}

func (s *Session) end() {
	s.stats.Write(func(st *sessionStats) { st.endedAt = time.Now() })
}

// Results returns the session's most recent results, oldest first.
func (s *Session) Results() []Result {
	return syncx.View(s.stats, func(st sessionStats) []Result {
		return append([]Result(nil), st.recent...)
	})
}

// SessionInfo is a snapshot of a session.
type SessionInfo struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Options   Options    `json:"options"`
	Cycles    int        `json:"cycles"`
	Skipped   int        `json:"skipped_frames"`
	Found     int        `json:"found"`
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	st := s.stats.Get()
	info := SessionInfo{
		ID:        s.ID,
		StartedAt: s.StartedAt,
		Options:   s.Options,
		Cycles:    st.cycles,
		Skipped:   st.skipped,
		Found:     st.found,
	}
	if !st.endedAt.IsZero() {
		ended := st.endedAt
		info.EndedAt = &ended
	}
	return info
}
