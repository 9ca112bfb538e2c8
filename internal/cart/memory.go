package cart

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLineRepository keeps cart lines in process.
type MemoryLineRepository struct {
	mu    sync.RWMutex
	lines map[uuid.UUID]*Line
}

func NewMemoryLineRepository() *MemoryLineRepository {
	return &MemoryLineRepository{lines: make(map[uuid.UUID]*Line)}
}

func (r *MemoryLineRepository) ListByToken(_ context.Context, cartToken string) ([]*Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Line, 0)
	for _, line := range r.lines {
		if line.CartToken == cartToken {
			out = append(out, line.clone())
		}
	}
	slices.SortFunc(out, func(a, b *Line) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (r *MemoryLineRepository) Get(_ context.Context, id uuid.UUID) (*Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	line, ok := r.lines[id]
	if !ok {
		return nil, &NotFoundError{Resource: "cart_line", Key: id.String()}
	}
	return line.clone(), nil
}

func (r *MemoryLineRepository) Create(_ context.Context, line *Line) (*Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	now := time.Now().UTC()
	if line.CreatedAt.IsZero() {
		line.CreatedAt = now
	}
	line.UpdatedAt = now
	r.lines[line.ID] = line.clone()
	return line.clone(), nil
}

func (r *MemoryLineRepository) Update(_ context.Context, line *Line) (*Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lines[line.ID]; !ok {
		return nil, &NotFoundError{Resource: "cart_line", Key: line.ID.String()}
	}
	line.UpdatedAt = time.Now().UTC()
	r.lines[line.ID] = line.clone()
	return line.clone(), nil
}

func (r *MemoryLineRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lines, id)
	return nil
}

// MemorySessionRepository keeps customer sessions in process.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*CustomerSession
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[uuid.UUID]*CustomerSession)}
}

func (r *MemorySessionRepository) Get(_ context.Context, id uuid.UUID) (*CustomerSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, &NotFoundError{Resource: "customer_session", Key: id.String()}
	}
	return session.clone(), nil
}

func (r *MemorySessionRepository) Create(_ context.Context, session *CustomerSession) (*CustomerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	r.sessions[session.ID] = session.clone()
	return session.clone(), nil
}

func (r *MemorySessionRepository) Update(_ context.Context, session *CustomerSession) (*CustomerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return nil, &NotFoundError{Resource: "customer_session", Key: session.ID.String()}
	}
	session.UpdatedAt = time.Now().UTC()
	r.sessions[session.ID] = session.clone()
	return session.clone(), nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
