package viewstate

import "sync"

// Registry holds one State per user.
type Registry struct {
	mu     sync.Mutex
	states map[string]*State
}

func NewRegistry() *Registry {
	return &Registry{states: make(map[string]*State)}
}

// Get returns a snapshot of the user's state, creating it on first use.
func (r *Registry) Get(userID string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state(userID).Clone()
}

// Update runs fn against the user's state while holding the lock. If fn
// fails the state is left as it was.
func (r *Registry) Update(userID string, fn func(*State) error) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.state(userID)
	working := current.Clone()
	if err := fn(&working); err != nil {
		return current.Clone(), err
	}
	r.states[userID] = &working
	return working.Clone(), nil
}

// Drop forgets the user's state, e.g. after a password reset ends every
// session.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	delete(r.states, userID)
	r.mu.Unlock()
}

func (r *Registry) state(userID string) *State {
	s, ok := r.states[userID]
	if !ok {
		s = New()
		r.states[userID] = s
	}
	return s
}
