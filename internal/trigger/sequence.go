package trigger

import "sync/atomic"

// Token tags one request to an external capability.
type Token uint64

// Sequence issues request tokens. Only the newest token is current; a
// result that arrives carrying an older token is stale and must be dropped.
// Safe for concurrent use so worker goroutines may check Current.
type Sequence struct {
	n atomic.Uint64
}

// Next starts a new request, invalidating the previous one.
func (s *Sequence) Next() Token {
	return Token(s.n.Add(1))
}

// Invalidate abandons the in-flight request without starting another.
func (s *Sequence) Invalidate() {
	s.n.Add(1)
}

// Current reports whether t is still the live request.
func (s *Sequence) Current(t Token) bool {
	return t != 0 && uint64(t) == s.n.Load()
}
