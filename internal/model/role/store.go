package role

// Store exposes role profile retrieval for handlers and services.
type Store interface {
	List() []Profile
	Find(r Role) (Profile, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Profile
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied profiles.
func NewMemoryStore(items []Profile) *MemoryStore {
	copied := make([]Profile, len(items))
	for i, item := range items {
		item.SampleQuestions = append([]string(nil), item.SampleQuestions...)
		copied[i] = item
	}
	return &MemoryStore{items: copied}
}

// List returns the profiles in seed order.
func (s *MemoryStore) List() []Profile {
	out := make([]Profile, len(s.items))
	for i, item := range s.items {
		item.SampleQuestions = append([]string(nil), item.SampleQuestions...)
		out[i] = item
	}
	return out
}

// Find looks up the profile for a role.
func (s *MemoryStore) Find(r Role) (Profile, bool) {
	for _, item := range s.items {
		if item.Role == r {
			item.SampleQuestions = append([]string(nil), item.SampleQuestions...)
			return item, true
		}
	}
	return Profile{}, false
}
