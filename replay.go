package lambdakit

import "github.com/pkg/errors"

// ReplayTo runs a fresh session for prog up to step n. The machine is
// deterministic, so the result matches any other session stopped at n.
// 途中で停止した場合は、その時点のセッションを返す。
func ReplayTo(prog *Program, opts Options, n int) (*Session, error) {
	s, err := NewSession(prog, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Advance(n); err != nil {
		return s, err
	}
	return s, nil
}

// Advance steps forward until n steps have executed or the machine is
// done. It is a no-op when the session is already at or past n.
func (s *Session) Advance(n int) error {
	for s.m.Steps() < n && !s.Done() {
		if _, err := s.Step(); err != nil {
			return errors.Wrapf(err, "replaying step %d", s.m.Steps())
		}
	}
	return nil
}

// Rewind moves the session to step n, replaying from the start when n is
// behind the current step. The trace is rebuilt along the way.
func (s *Session) Rewind(n int) error {
	if n >= s.m.Steps() && s.m.Fault() == nil {
		return s.Advance(n)
	}
	fresh, err := ReplayTo(s.prog, s.opts, n)
	if fresh != nil {
		*s = *fresh
	}
	return err
}
