package httpapi

import (
	"sync"
	"time"

	"rainharvest-advisor/internal/session"
	"rainharvest-advisor/internal/workflow"
)

// Registry maps session IDs to their workflow machines. Machines live in
// process memory; only the assessment snapshot is externalized. Idle
// sessions expire after the configured TTL so abandoned sessions do not
// accumulate for the life of the process.
type Registry struct {
	mu       sync.Mutex
	machines map[string]registryEntry
	factory  func() *workflow.Machine
	idleTTL  time.Duration
}

type registryEntry struct {
	machine *workflow.Machine
	expires time.Time // zero = no ttl
}

// NewRegistry creates a session registry. idleTTL bounds how long an
// untouched session survives; zero disables expiry.
func NewRegistry(factory func() *workflow.Machine, idleTTL time.Duration) *Registry {
	return &Registry{
		machines: make(map[string]registryEntry),
		factory:  factory,
		idleTTL:  idleTTL,
	}
}

// Create starts a fresh session and returns its ID. Expired sessions are
// swept here, so the map stays bounded without a background goroutine.
func (r *Registry) Create() (string, *workflow.Machine) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.machines {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(r.machines, id)
		}
	}

	id := session.NewID()
	m := r.factory()
	r.machines[id] = registryEntry{machine: m, expires: r.deadline(now)}
	return id, m
}

// Get returns the machine for a session ID, nil if unknown or expired.
// A hit refreshes the session's idle deadline.
func (r *Registry) Get(id string) *workflow.Machine {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.machines[id]
	if !ok {
		return nil
	}
	if !e.expires.IsZero() && now.After(e.expires) {
		delete(r.machines, id)
		return nil
	}
	e.expires = r.deadline(now)
	r.machines[id] = e
	return e.machine
}

// Remove drops a session outright.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.machines, id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.machines)
}

func (r *Registry) deadline(now time.Time) time.Time {
	if r.idleTTL <= 0 {
		return time.Time{}
	}
	return now.Add(r.idleTTL)
}
