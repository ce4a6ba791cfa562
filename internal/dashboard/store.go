package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opencitylabs/tripdash/models"
)

// Store owns the widgets currently pinned to the dashboard. Mutations are
// mutex-guarded so a render never observes a torn collection.
type Store struct {
	mu        sync.RWMutex
	instances []models.WidgetInstance
}

func NewStore() *Store {
	return &Store{}
}

// Create pins a new widget instance and returns its id. Ids are UUIDs, so
// uniqueness holds even under concurrent creation.
func (s *Store) Create(kind, title string, payload models.Payload, provenance string) string {
	inst := models.WidgetInstance{
		ID:         uuid.NewString(),
		Provenance: provenance,
		Kind:       kind,
		Title:      title,
		Payload:    payload,
		CreatedAt:  time.Now(),
	}
	s.mu.Lock()
	s.instances = append(s.instances, inst)
	s.mu.Unlock()
	return inst.ID
}

// List returns pinned instances, most recently created first.
func (s *Store) List() []models.WidgetInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WidgetInstance, len(s.instances))
	for i, inst := range s.instances {
		out[len(s.instances)-1-i] = inst
	}
	return out
}

// Remove deletes the instance with the given id. Absence is not an error;
// it just returns false.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, inst := range s.instances {
		if inst.ID == id {
			s.instances = append(s.instances[:i], s.instances[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops all instances unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	s.instances = nil
	s.mu.Unlock()
}

// Len reports the number of pinned instances.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}
