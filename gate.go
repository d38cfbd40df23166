package goRedeem

import (
	"context"
	"sync"
)

// SessionGate decides whether the redemption workflow is reachable. It hands
// out one workflow per signed-in user and discards it once the session ends.
type SessionGate struct {
	session     *AuthSession
	newWorkflow func() (*Workflow, error)

	mu    sync.Mutex
	wf    *Workflow
	owner string
}

func newSessionGate(session *AuthSession, newWorkflow func() (*Workflow, error)) *SessionGate {
	return &SessionGate{session: session, newWorkflow: newWorkflow}
}

// Check refreshes the session status from storage.
func (g *SessionGate) Check(ctx context.Context) (SessionStatus, error) {
	if g == nil {
		return StatusUnknown, ErrEngineNotReady
	}
	status, err := g.session.CheckStatus(ctx)
	if status != StatusAuthenticated {
		g.drop()
	}
	return status, err
}

// Workflow returns the current user's workflow from the cached status. It
// returns ErrNotAuthenticated unless the session is authenticated.
func (g *SessionGate) Workflow() (*Workflow, error) {
	if g == nil {
		return nil, ErrEngineNotReady
	}
	user, ok := g.session.User()
	if g.session.Status() != StatusAuthenticated || !ok {
		g.drop()
		return nil, ErrNotAuthenticated
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.wf != nil && g.owner == user.ID {
		return g.wf, nil
	}
	wf, err := g.newWorkflow()
	if err != nil {
		return nil, err
	}
	g.wf = wf
	g.owner = user.ID
	return wf, nil
}

// Enter runs Check and then Workflow.
func (g *SessionGate) Enter(ctx context.Context) (*Workflow, error) {
	status, err := g.Check(ctx)
	if err != nil {
		return nil, err
	}
	if status != StatusAuthenticated {
		return nil, ErrNotAuthenticated
	}
	return g.Workflow()
}

func (g *SessionGate) drop() {
	g.mu.Lock()
	g.wf = nil
	g.owner = ""
	g.mu.Unlock()
}
