package cart

import (
	"context"
	"sync"

	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/google/uuid"
)

// Registry tracks the open register sessions and the engine owning each
// draft order.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Engine
	deps     EngineDeps
}

func NewRegistry(deps EngineDeps) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Engine),
		deps:     deps,
	}
}

// Open starts a new session with an empty draft order.
func (r *Registry) Open(ctx context.Context) (*Engine, error) {
	sessionID := uuid.New()
	engine, err := NewEngine(ctx, sessionID, r.deps)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[sessionID] = engine
	r.mu.Unlock()
	return engine, nil
}

// Get resolves a session's engine.
func (r *Registry) Get(sessionID uuid.UUID) (*Engine, error) {
	r.mu.RLock()
	engine, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return engine, nil
}

// Close drops a session and its draft order.
func (r *Registry) Close(sessionID uuid.UUID) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
