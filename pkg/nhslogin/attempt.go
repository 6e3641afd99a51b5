package nhslogin

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Attempt is the handle for one authorize request. It resolves exactly once:
// with the hydrated session when the code exchange succeeds, or with an error
// when the exchange fails, the launch fails, or a newer attempt replaces it.
type Attempt struct {
	id   string
	mode PresentationMode

	once    sync.Once
	done    chan struct{}
	session Session
	err     error
}

func newAttempt(mode PresentationMode) *Attempt {
	return &Attempt{
		id:   uuid.NewString(),
		mode: mode,
		done: make(chan struct{}),
	}
}

// ID returns the attempt identifier used in logs.
func (a *Attempt) ID() string { return a.id }

// Mode returns the presentation mode the attempt was launched with.
func (a *Attempt) Mode() PresentationMode { return a.mode }

// Done is closed once the attempt has a result.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Wait blocks until the attempt resolves or ctx ends.
func (a *Attempt) Wait(ctx context.Context) (Session, error) {
	select {
	case <-a.done:
		return a.session, a.err
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

// Result returns the outcome without blocking, or ErrAttemptPending while
// the attempt is unresolved.
func (a *Attempt) Result() (Session, error) {
	select {
	case <-a.done:
		return a.session, a.err
	default:
		return Session{}, ErrAttemptPending
	}
}

func (a *Attempt) resolve(s Session) bool {
	return a.finish(s, nil)
}

func (a *Attempt) reject(err error) bool {
	return a.finish(Session{}, err)
}

func (a *Attempt) finish(s Session, err error) bool {
	fired := false
	a.once.Do(func() {
		a.session = s
		a.err = err
		fired = true
		close(a.done)
	})
	return fired
}

// pendingSlot holds the single attempt waiting for a redirect.
type pendingSlot struct {
	mu      sync.Mutex
	attempt *Attempt
}

// register makes a the pending attempt, rejecting whatever it replaces.
func (p *pendingSlot) register(a *Attempt) {
	p.mu.Lock()
	prev := p.attempt
	p.attempt = a
	p.mu.Unlock()

	if prev != nil && prev != a {
		prev.reject(ErrAttemptSuperseded)
	}
}

// withdraw clears a if it is still pending and rejects it with err.
func (p *pendingSlot) withdraw(a *Attempt, err error) {
	p.mu.Lock()
	if p.attempt == a {
		p.attempt = nil
	}
	p.mu.Unlock()

	a.reject(err)
}

// take removes and returns the pending attempt, if any.
func (p *pendingSlot) take() *Attempt {
	p.mu.Lock()
	defer p.mu.Unlock()
	a := p.attempt
	p.attempt = nil
	return a
}
