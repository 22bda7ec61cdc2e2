package pending

// Attributes are the actor attributes captured for one event id.
// Missing attributes are empty strings.
type Attributes struct {
	Exe string
	UID string
}

// Store keeps two independent maps keyed by event id.
type Store struct {
	exe map[string]string // event id -> executable
	uid map[string]string // event id -> user
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		exe: make(map[string]string),
		uid: make(map[string]string),
	}
}

// SetExe records the executable for an event id (command).
func (s *Store) SetExe(id, exe string) {
	s.exe[id] = exe
}

// SetUID records the user for an event id (command).
func (s *Store) SetUID(id, uid string) {
	s.uid[id] = uid
}

// Take removes and returns the attributes captured for an event id (command).
// Absent attributes come back empty.
func (s *Store) Take(id string) Attributes {
	attrs := Attributes{
		Exe: s.exe[id],
		UID: s.uid[id],
	}
	delete(s.exe, id)
	delete(s.uid, id)
	return attrs
}

// Len returns the number of event ids still waiting to be consumed (query).
func (s *Store) Len() int {
	n := len(s.exe)
	for id := range s.uid {
		if _, ok := s.exe[id]; !ok {
			n++
		}
	}
	return n
}
