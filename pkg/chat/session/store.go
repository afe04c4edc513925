package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrUnknownSession is returned for any operation on a session id that was
// never created. Appends never create sessions as a side effect.
var ErrUnknownSession = errors.New("unknown session")

// Turn roles. The transcript only ever holds user and assistant turns; the
// system role exists for prompt assembly.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is one role-tagged message in a session transcript. Immutable once
// appended.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// sessionEntry holds one session's transcript behind its own lock, so
// appends on different sessions never contend.
type sessionEntry struct {
	mu    sync.Mutex
	turns []Turn
}

// Store owns every session transcript in the process. Sessions live for the
// process lifetime; there is no eviction or durable persistence, which is a
// documented limitation of the service.
type Store struct {
	sessions *cache.Cache
}

func NewStore() *Store {
	return &Store{
		sessions: cache.New(cache.NoExpiration, 0),
	}
}

// Create mints a fresh session id with an empty transcript. It never fails.
func (s *Store) Create() string {
	id := uuid.NewString()
	s.sessions.Set(id, &sessionEntry{}, cache.NoExpiration)
	return id
}

// Exists reports whether the session id is known.
func (s *Store) Exists(id string) bool {
	_, found := s.sessions.Get(id)
	return found
}

// Append adds the given turns to the session transcript as one atomic step.
// Callers persisting an exchange pass the user and assistant turns together
// so the transcript never ends up half-appended.
func (s *Store) Append(id string, turns ...Turn) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.turns = append(entry.turns, turns...)
	return nil
}

// Transcript returns a snapshot of the session's ordered turns. The copy is
// safe to hold across network calls without blocking appends.
func (s *Store) Transcript(id string) ([]Turn, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	snapshot := make([]Turn, len(entry.turns))
	copy(snapshot, entry.turns)
	return snapshot, nil
}

func (s *Store) entry(id string) (*sessionEntry, error) {
	x, found := s.sessions.Get(id)
	if !found {
		return nil, ErrUnknownSession
	}
	return x.(*sessionEntry), nil
}
