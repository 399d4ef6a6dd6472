// Package memory keeps a short per-student conversation window in process.
// Each student gets a FIFO of recent turns; old turns are evicted once the
// window is full, and idle sessions are swept away by a background loop.
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/metrics"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/sliceutil"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	// DefaultWindow is the number of turns kept per student.
	DefaultWindow = 10

	// defaultSessionTTL is how long an idle session survives.
	defaultSessionTTL = 2 * time.Hour

	// defaultSweepPeriod is how often idle sessions are collected.
	defaultSweepPeriod = 10 * time.Minute
)

// Turn is one message in a conversation.
type Turn struct {
	Role     string
	Text     string
	Category parser.Category
	At       time.Time
}

type session struct {
	turns    []Turn
	lastSeen time.Time
}

// Store holds conversation windows keyed by student ID.
// It is safe for concurrent use; operations on different students do not
// contend beyond the session map lookup.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	window   int
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *logger.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store keeping window turns per student and starts the
// idle-session sweeper. window <= 0 falls back to DefaultWindow. m may be
// nil in tests.
func NewStore(window int, m *metrics.Metrics, log *logger.Logger) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	s := &Store{
		sessions: make(map[string]*session),
		window:   window,
		ttl:      defaultSessionTTL,
		metrics:  m,
		logger:   log.WithModule("memory"),
		stop:     make(chan struct{}),
	}
	go s.sweepLoop(defaultSweepPeriod)
	return s
}

// Append records one turn for studentID, evicting the oldest turn when the
// window is full.
func (s *Store) Append(studentID string, turn Turn) {
	if studentID == "" {
		return
	}
	if turn.At.IsZero() {
		turn.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[studentID]
	if !ok {
		sess = &session{}
		s.sessions[studentID] = sess
		s.updateSessionGauge()
	}
	sess.lastSeen = time.Now()
	sess.turns = append(sess.turns, turn)

	for len(sess.turns) > s.window {
		sess.turns = sess.turns[1:]
		if s.metrics != nil {
			s.metrics.MemoryEvictionsTotal.Inc()
		}
	}
}

// Recent returns up to k most recent turns for studentID, oldest first.
// k <= 0 returns the whole window. The slice is a copy.
func (s *Store) Recent(studentID string, k int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[studentID]
	if !ok || len(sess.turns) == 0 {
		return nil
	}

	turns := sess.turns
	if k > 0 && len(turns) > k {
		turns = turns[len(turns)-k:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Summary describes what the student asked about recently, for steering an
// unrecognized question. Returns "" when there is no history.
func (s *Store) Summary(studentID string) string {
	turns := s.Recent(studentID, 0)

	var topics []string
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Role != RoleUser {
			continue
		}
		if topic := categoryTopic(t.Category); topic != "" {
			topics = append(topics, topic)
		}
	}
	topics = sliceutil.Deduplicate(topics, func(s string) string { return s })
	if len(topics) > 3 {
		topics = topics[:3]
	}
	if len(topics) == 0 {
		return ""
	}
	return "최근에 " + strings.Join(topics, ", ") + "에 대해 물어보셨어요."
}

func categoryTopic(c parser.Category) string {
	switch c {
	case parser.CategoryStudentInfo:
		return "학생 정보"
	case parser.CategoryCourseSearch:
		return "강의 검색"
	case parser.CategoryEnrollmentHistory:
		return "수강 이력"
	case parser.CategoryGraduation:
		return "졸업 요건"
	case parser.CategoryRecommendation:
		return "과목 추천"
	case parser.CategorySummary:
		return "종합 현황"
	default:
		return ""
	}
}

// Clear removes the session for studentID.
func (s *Store) Clear(studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[studentID]; ok {
		delete(s.sessions, studentID)
		s.updateSessionGauge()
	}
}

// ActiveSessions returns the number of students with live windows.
func (s *Store) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stop terminates the sweeper. Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) sweepLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.updateSessionGauge()
		s.logger.WithField("removed", removed).Debugf("swept idle sessions")
	}
}

// updateSessionGauge must be called with mu held.
func (s *Store) updateSessionGauge() {
	if s.metrics != nil {
		s.metrics.MemorySessionsActive.Set(float64(len(s.sessions)))
	}
}
