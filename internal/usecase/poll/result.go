package poll

import "time"

// State is the terminal state of one cycle.
type State string

const (
	// StateCompleted: new stories were archived and matching ones dispatched.
	StateCompleted State = "completed"
	// StateNoNew: the page parsed but every story was already in history.
	StateNoNew State = "no_new"
	// StateFetchFailed: the listing could not be retrieved; retried after the backoff.
	StateFetchFailed State = "fetch_failed"
	// StateParseFailed: the listing could not be turned into stories; retried after the backoff.
	StateParseFailed State = "parse_failed"
	// StateCanceled: the cycle was abandoned because the service is stopping.
	StateCanceled State = "canceled"
)

// Succeeded reports whether the cycle reached a scheduled (non-backoff) state.
func (s State) Succeeded() bool {
	return s == StateCompleted || s == StateNoNew
}

// CycleResult describes how one cycle ended.
type CycleResult struct {
	CycleID   string
	State     State
	Delay     time.Duration // until the next cycle
	Extracted int
	New       int
	Matched   int
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Status is a snapshot of the poll loop for the health endpoint.
type Status struct {
	LastCycle           *CycleResult
	LastSuccess         *time.Time
	NextRun             *time.Time
	ConsecutiveFailures int
	HistorySize         int
}

// Healthy reports whether fewer than maxFailures cycles in a row have failed.
// A loop that has not run yet is healthy.
func (st Status) Healthy(maxFailures int) bool {
	return st.ConsecutiveFailures < maxFailures
}

// Status returns the latest snapshot. Safe for concurrent use.
func (s *Service) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st := s.status
	if st.LastCycle != nil {
		c := *st.LastCycle
		st.LastCycle = &c
	}
	return st
}

func (s *Service) updateStatus(fn func(*Status)) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	fn(&s.status)
}
