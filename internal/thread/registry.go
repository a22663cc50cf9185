package thread

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry holds the live thread sessions. When it is full the least recently
// used session is evicted and closed.
type Registry struct {
	sessions *lru.Cache[uuid.UUID, *Composer]
}

func NewRegistry(size int) (*Registry, error) {
	sessions, err := lru.NewWithEvict(size, func(_ uuid.UUID, c *Composer) {
		c.Close()
	})
	if err != nil {
		return nil, err
	}

	return &Registry{sessions: sessions}, nil
}

func (r *Registry) Add(c *Composer) uuid.UUID {
	id := uuid.New()
	r.sessions.Add(id, c)
	return id
}

func (r *Registry) Get(id uuid.UUID) (*Composer, bool) {
	return r.sessions.Get(id)
}

// Remove closes and forgets the session.
func (r *Registry) Remove(id uuid.UUID) {
	r.sessions.Remove(id)
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}

// Purge closes every session.
func (r *Registry) Purge() {
	r.sessions.Purge()
}
