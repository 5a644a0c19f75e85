package client

import (
	"context"
	"errors"
	"time"
)

// GuardState is the guard's four-state machine.
type GuardState int

const (
	// GuardChecking is the initial state while the session request is in
	// flight; callers render a loading indicator.
	GuardChecking GuardState = iota
	// GuardAuthorized means a session user is present and carries one of
	// the allowed roles; children may render.
	GuardAuthorized
	// GuardUnauthorized means the user is authenticated but lacks every
	// allowed role; redirect to the public landing route, silently.
	GuardUnauthorized
	// GuardUnauthenticated means no session; redirect identically.
	GuardUnauthenticated
)

func (s GuardState) String() string {
	switch s {
	case GuardChecking:
		return "checking"
	case GuardAuthorized:
		return "authorized"
	case GuardUnauthorized:
		return "unauthorized"
	case GuardUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// SessionFetcher is the slice of Client the guard needs.
type SessionFetcher interface {
	Me(ctx context.Context) (*SessionUser, error)
}

// Guard gates a route on session presence and role membership. The loading
// indicator is shown for at least MinDisplay regardless of how fast the
// session endpoint answers.
type Guard struct {
	session    SessionFetcher
	allowed    []string
	minDisplay time.Duration
}

// DefaultMinDisplay is the fixed minimum loading-indicator duration.
const DefaultMinDisplay = 500 * time.Millisecond

// NewGuard builds a guard for the given allowed-role set. minDisplay < 0
// falls back to DefaultMinDisplay; 0 disables the delay (useful in tests).
func NewGuard(session SessionFetcher, allowed []string, minDisplay time.Duration) *Guard {
	if minDisplay < 0 {
		minDisplay = DefaultMinDisplay
	}
	return &Guard{session: session, allowed: allowed, minDisplay: minDisplay}
}

// Check runs the session request and resolves the guard state. Authorized
// results are held back until the minimum display window has elapsed; error
// and redirect outcomes return immediately. The session user is returned
// alongside authenticated states.
func (g *Guard) Check(ctx context.Context) (GuardState, *SessionUser, error) {
	start := time.Now()

	user, err := g.session.Me(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return GuardUnauthenticated, nil, nil
		}
		// Network failure is indistinguishable from "no session" for
		// routing purposes; the caller still redirects.
		return GuardUnauthenticated, nil, err
	}
	if user == nil || len(user.Roles) == 0 || !user.HasAnyRole(g.allowed...) {
		return GuardUnauthorized, user, nil
	}

	if remaining := g.minDisplay - time.Since(start); remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return GuardChecking, nil, ctx.Err()
		case <-timer.C:
		}
	}
	return GuardAuthorized, user, nil
}
