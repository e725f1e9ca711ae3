package httpserver

import "sync"

const defaultSeenCapacity = 4096

// seenMessages remembers recent WhatsApp message ids. The oldest id is
// forgotten once capacity is reached.
type seenMessages struct {
	mu    sync.Mutex
	limit int
	ids   map[string]struct{}
	order []string
}

func newSeenMessages(capacity int) *seenMessages {
	if capacity <= 0 {
		capacity = defaultSeenCapacity
	}
	return &seenMessages{
		limit: capacity,
		ids:   make(map[string]struct{}, capacity),
	}
}

// claim returns false when id was already claimed.
func (s *seenMessages) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	if len(s.order) >= s.limit {
		delete(s.ids, s.order[0])
		s.order = s.order[1:]
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// release lets a failed turn be retried on redelivery.
func (s *seenMessages) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; !ok {
		return
	}
	delete(s.ids, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
