// Package session keeps the console's per-browser state: who is signed in,
// the platform cookies to replay, menu expansion, wizard progress and
// pending notifications.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/navigation"
	"github.com/bissquit/mediconnect-console/internal/wizard"
)

// State is the authentication state of a session.
type State string

// States.
const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// EventKind names what happened to a session.
type EventKind string

// Events.
const (
	EventResolved   EventKind = "resolved"
	EventUnresolved EventKind = "unresolved"
	EventLoggedIn   EventKind = "logged_in"
	EventLoggedOut  EventKind = "logged_out"
	EventExpired    EventKind = "expired"
)

// ErrInvalidTransition is returned by Apply for events the current state
// does not accept or that carry an invalid role.
var ErrInvalidTransition = errors.New("invalid session transition")

// transitions is the authentication state machine.
var transitions = map[State]map[EventKind]State{
	StateUnauthenticated: {
		EventResolved:   StateAuthenticated,
		EventLoggedIn:   StateAuthenticated,
		EventUnresolved: StateUnauthenticated,
		EventLoggedOut:  StateUnauthenticated,
		EventExpired:    StateUnauthenticated,
	},
	StateAuthenticated: {
		EventResolved:   StateAuthenticated,
		EventUnresolved: StateUnauthenticated,
		EventLoggedOut:  StateUnauthenticated,
		EventExpired:    StateUnauthenticated,
	},
}

// Event is an input to Session.Apply.
type Event struct {
	Kind        EventKind
	Role        domain.Role
	Credentials backend.Credentials
}

// Resolved reports that the platform identified the caller as role.
func Resolved(role domain.Role) Event {
	return Event{Kind: EventResolved, Role: role}
}

// Unresolved reports that the platform could not identify the caller.
func Unresolved() Event {
	return Event{Kind: EventUnresolved}
}

// LoggedIn reports a successful login with the platform cookies it set.
func LoggedIn(role domain.Role, creds backend.Credentials) Event {
	return Event{Kind: EventLoggedIn, Role: role, Credentials: creds}
}

// LoggedOut reports an explicit logout.
func LoggedOut() Event {
	return Event{Kind: EventLoggedOut}
}

// Expired reports that the platform rejected the stored cookies.
func Expired() Event {
	return Event{Kind: EventExpired}
}

// Session is one browser's console state.
type Session struct {
	ID          string                `json:"id"`
	State       State                 `json:"state"`
	Role        domain.Role           `json:"role,omitempty"`
	Credentials backend.Credentials   `json:"credentials,omitempty"`
	Resolved    bool                  `json:"resolved"`
	ResolvedAt  time.Time             `json:"resolved_at,omitempty"`
	Menu        navigation.MenuState  `json:"menu,omitempty"`
	Wizard      wizard.State          `json:"wizard"`
	Pending     []domain.Notification `json:"pending,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// New creates an unauthenticated session.
func New(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		State:     StateUnauthenticated,
		CreatedAt: now,
	}
}

// Authenticated reports whether the session has a role.
func (s *Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.Role != ""
}

// Apply is the only writer of State, Role and Credentials. Leaving the
// authenticated state drops everything tied to the signed-in user.
func (s *Session) Apply(ev Event, now time.Time) error {
	to, ok := transitions[s.State][ev.Kind]
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev.Kind, s.State)
	}

	if to == StateAuthenticated && !ev.Role.Valid() {
		return fmt.Errorf("%w: %s with role %q", ErrInvalidTransition, ev.Kind, ev.Role)
	}

	switch ev.Kind {
	case EventLoggedIn:
		s.Credentials = ev.Credentials
		s.markResolved(now)
	case EventResolved, EventUnresolved:
		s.markResolved(now)
	}

	if to == StateUnauthenticated {
		s.Role = ""
		s.Credentials = nil
		s.Menu = nil
		s.Wizard = wizard.State{}
	} else {
		if s.Role != ev.Role {
			s.Menu = nil
			s.Wizard = wizard.State{}
		}
		s.Role = ev.Role
	}

	s.State = to
	return nil
}

func (s *Session) markResolved(now time.Time) {
	s.Resolved = true
	s.ResolvedAt = now
}

// NeedsResolve reports whether the platform should be asked who the caller
// is. A positive interval also re-asks once the last answer is that old.
func (s *Session) NeedsResolve(now time.Time, interval time.Duration) bool {
	if !s.Resolved {
		return true
	}
	return interval > 0 && now.Sub(s.ResolvedAt) >= interval
}

// Notify queues a notification for the next rendered page.
func (s *Session) Notify(n domain.Notification) {
	s.Pending = append(s.Pending, n)
}

// TakeNotifications returns and clears the queued notifications.
func (s *Session) TakeNotifications() []domain.Notification {
	out := s.Pending
	s.Pending = nil
	return out
}
