package csvimport

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EntityType names a kind of record that can be bulk imported.
type EntityType string

const (
	EntityProducts  EntityType = "products"
	EntityInventory EntityType = "inventory"
	EntityDemand    EntityType = "demand"
)

// ImportState tracks an upload through validate and import.
type ImportState string

const (
	StateCreated    ImportState = "created"
	StateValidating ImportState = "validating"
	StateValidated  ImportState = "validated"
	StateImporting  ImportState = "importing"
	StateCompleted  ImportState = "completed"
	StateFailed     ImportState = "failed"
	StateCancelled  ImportState = "cancelled"
)

func (s ImportState) terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// ImportSession is one uploaded file moving through the import pipeline.
// Validation results are attached so the confirm step can be answered
// without re-reading the file.
type ImportSession struct {
	ID          uuid.UUID        `json:"id"`
	EntityType  EntityType       `json:"entity_type"`
	FileName    string           `json:"file_name"`
	FileSize    int64            `json:"file_size"`
	State       ImportState      `json:"state"`
	TotalRows   int              `json:"total_rows"`
	ValidRows   int              `json:"valid_rows"`
	ErrorRows   int              `json:"error_rows"`
	Errors      []RowError       `json:"errors,omitempty"`
	Preview     []map[string]any `json:"preview,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// NewImportSession starts a session in the created state.
func NewImportSession(entityType EntityType, fileName string, fileSize int64) *ImportSession {
	now := time.Now()
	return &ImportSession{
		ID:         uuid.New(),
		EntityType: entityType,
		FileName:   fileName,
		FileSize:   fileSize,
		State:      StateCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
		Errors:     make([]RowError, 0),
		Preview:    make([]map[string]any, 0),
	}
}

// UpdateState moves the session to a new state, stamping CompletedAt
// once a terminal state is reached.
func (s *ImportSession) UpdateState(state ImportState) {
	now := time.Now()
	s.State = state
	s.UpdatedAt = now
	if state.terminal() {
		s.CompletedAt = &now
	}
}

// SetValidationResult copies the outcome of a validation pass onto the session.
func (s *ImportSession) SetValidationResult(result *ValidationResult) {
	s.TotalRows = result.TotalRows
	s.ValidRows = result.ValidRows
	s.ErrorRows = result.ErrorRows
	s.Errors = result.Errors
	s.Preview = result.Preview
	s.UpdatedAt = time.Now()
}

// IsValid reports whether validation found no bad rows.
func (s *ImportSession) IsValid() bool {
	return s.ErrorRows == 0
}

// SessionStore keeps import sessions between the validate and confirm calls.
type SessionStore interface {
	Save(session *ImportSession) error
	Get(id uuid.UUID) (*ImportSession, error)
	List(limit int) ([]*ImportSession, error)
	Delete(id uuid.UUID) error
}

// InMemorySessionStore holds sessions in a map with a TTL. A background
// goroutine evicts expired entries until Stop is called.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*ImportSession
	ttl      time.Duration
	done     chan struct{}
}

// NewInMemorySessionStore creates a store and starts its eviction loop.
func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	s := &InMemorySessionStore{
		sessions: make(map[uuid.UUID]*ImportSession),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.evictLoop()
	return s
}

func (s *InMemorySessionStore) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.done:
			return
		}
	}
}

// Stop terminates the eviction goroutine.
func (s *InMemorySessionStore) Stop() {
	close(s.done)
}

func (s *InMemorySessionStore) expired(session *ImportSession) bool {
	return time.Since(session.CreatedAt) > s.ttl
}

func (s *InMemorySessionStore) Save(session *ImportSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

// Get returns the session, or nil when unknown or past its TTL.
func (s *InMemorySessionStore) Get(id uuid.UUID) (*ImportSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return nil, nil
	}
	return session, nil
}

// List returns up to limit live sessions in no particular order.
func (s *InMemorySessionStore) List(limit int) ([]*ImportSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var live []*ImportSession
	for _, session := range s.sessions {
		if s.expired(session) {
			continue
		}
		live = append(live, session)
		if len(live) >= limit {
			break
		}
	}
	return live, nil
}

func (s *InMemorySessionStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Cleanup drops every expired session.
func (s *InMemorySessionStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
		}
	}
}
