package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weatherwave/internal/weather"
)

var (
	// ErrNotFound is returned for unknown or evicted sessions.
	ErrNotFound = errors.New("session not found")
	// ErrFull is returned when the registry is at capacity.
	ErrFull = errors.New("session limit reached")
)

// Factory builds a fresh controller for a new session.
type Factory func() *weather.Controller

type entry struct {
	ctrl     *weather.Controller
	lastSeen time.Time
	issued   bool // created by Create; only these are reachable through Get/Touch/Delete
}

// Registry is a concurrency-safe set of view-state controllers keyed by
// session id. Front ends keep separate registries; evicting a session
// closes its controller.
type Registry struct {
	mu sync.Mutex

	data    map[string]*entry
	factory Factory

	maxIdle     time.Duration // sessions idle longer than this are swept (0 = never)
	maxSessions int           // 0 = unlimited

	now func() time.Time
	log *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, maxIdle time.Duration, maxSessions int, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		data:        make(map[string]*entry),
		factory:     factory,
		maxIdle:     maxIdle,
		maxSessions: maxSessions,
		now:         time.Now,
		log:         logger,
	}
}

// Create registers a new session under a random id. Only ids issued here
// can be looked up with Get, Touch or Delete.
func (r *Registry) Create() (string, *weather.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	e, err := r.add(id)
	if err != nil {
		return "", nil, err
	}
	e.issued = true
	return id, e.ctrl, nil
}

// GetOrCreate returns a live controller for a caller-chosen id, creating
// it when absent or when the previous one was closed.
func (r *Registry) GetOrCreate(id string) (*weather.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.data[id]; ok && !e.ctrl.Closed() {
		e.lastSeen = r.now()
		return e.ctrl, nil
	}
	delete(r.data, id)

	e, err := r.add(id)
	if err != nil {
		return nil, err
	}
	return e.ctrl, nil
}

// add must be called with r.mu held.
func (r *Registry) add(id string) (*entry, error) {
	if r.maxSessions > 0 && len(r.data) >= r.maxSessions {
		return nil, ErrFull
	}
	e := &entry{ctrl: r.factory(), lastSeen: r.now()}
	r.data[id] = e
	r.log.Debug("session created", zap.String("session", id))
	return e, nil
}

// issuedEntry must be called with r.mu held.
func (r *Registry) issuedEntry(id string) (*entry, bool) {
	e, ok := r.data[id]
	if !ok || !e.issued {
		return nil, false
	}
	return e, true
}

// Get returns the controller for an issued id and marks the session as active.
func (r *Registry) Get(id string) (*weather.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.issuedEntry(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.ctrl, nil
}

// Touch marks an issued session as active without returning it.
func (r *Registry) Touch(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.issuedEntry(id)
	if !ok {
		return ErrNotFound
	}
	e.lastSeen = r.now()
	return nil
}

// Delete closes and forgets the session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.issuedEntry(id)
	if ok {
		delete(r.data, id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	e.ctrl.Close()
	r.log.Debug("session deleted", zap.String("session", id))
	return nil
}

// Sweep evicts sessions idle for longer than maxIdle and returns how many
// were removed.
func (r *Registry) Sweep() int {
	if r.maxIdle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.maxIdle)

	r.mu.Lock()
	var evicted []*weather.Controller
	for id, e := range r.data {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.ctrl)
			delete(r.data, id)
		}
	}
	r.mu.Unlock()

	for _, c := range evicted {
		c.Close()
	}
	if len(evicted) > 0 {
		r.log.Info("idle sessions evicted", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	data := r.data
	r.data = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range data {
		e.ctrl.Close()
	}
}
