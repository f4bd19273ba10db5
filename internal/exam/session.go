package exam

import (
	"sync"
	"time"
)

// session is the in-memory state of one live attempt: the answer ledger and
// the countdown timer. Confined to the student's active session; nothing here
// is persisted until submission.
type session struct {
	mu        sync.Mutex
	attemptID string
	questions map[string]struct{} // frozen question set, guards ledger keys
	answers   map[string]string
	deadline  time.Time
	timer     *time.Timer
	finished  bool // set once a submission has been accepted
}

func (s *session) recordAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return ErrAttemptNotEditable
	}
	if _, ok := s.questions[questionID]; !ok {
		return ErrQuestionNotInAttempt
	}
	s.answers[questionID] = value
	return nil
}

func (s *session) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// finish marks the session submitted and stops the countdown. Returns false
// if a submission was already accepted, making the timer/manual race a no-op.
func (s *session) finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	s.finished = true
	if s.timer != nil {
		s.timer.Stop()
	}
	return true
}

// reopen undoes finish after a failed store write so the ledger survives and
// a retry can resubmit. The countdown is not restarted.
func (s *session) reopen() {
	s.mu.Lock()
	s.finished = false
	s.mu.Unlock()
}

func (s *session) remaining(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	left := int(s.deadline.Sub(now).Seconds())
	if left < 0 {
		return 0
	}
	return left
}

// sessions is the registry of live attempts, one entry per in_progress
// attempt in this process.
type sessions struct {
	mu   sync.Mutex
	byID map[string]*session
}

func newSessions() *sessions {
	return &sessions{byID: map[string]*session{}}
}

// start registers a session and arms its countdown. onExpire fires exactly
// once when the clock runs out, unless the session finished first.
func (r *sessions) start(attemptID string, questionIDs []string, d time.Duration, onExpire func(attemptID string)) *session {
	qs := make(map[string]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		qs[id] = struct{}{}
	}
	s := &session{
		attemptID: attemptID,
		questions: qs,
		answers:   map[string]string{},
		deadline:  time.Now().Add(d),
	}
	s.timer = time.AfterFunc(d, func() { onExpire(attemptID) })
	r.mu.Lock()
	r.byID[attemptID] = s
	r.mu.Unlock()
	return s
}

func (r *sessions) get(attemptID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[attemptID]
}

func (r *sessions) remove(attemptID string) {
	r.mu.Lock()
	delete(r.byID, attemptID)
	r.mu.Unlock()
}
