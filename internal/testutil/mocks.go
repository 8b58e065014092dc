package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
)

// MockUserStore is an in-memory user.Store. It stores and returns copies,
// so a failed Put leaves the stored record untouched.
type MockUserStore struct {
	mu          sync.Mutex
	Users       map[string]*user.Record
	EmailIndex  map[string]string
	GetError    error
	PutError    error
	CreateError error
	PutCalls    int
}

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		Users:      make(map[string]*user.Record),
		EmailIndex: make(map[string]string),
	}
}

// Seed stores r directly, bypassing injected errors
func (m *MockUserStore) Seed(r *user.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[r.ID] = r.Clone()
	m.EmailIndex[r.Email] = r.ID
}

// Record returns a copy of the stored record for assertions
func (m *MockUserStore) Record(id string) *user.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Users[id].Clone()
}

func (m *MockUserStore) Get(ctx context.Context, id string) (*user.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	r, ok := m.Users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return r.Clone(), nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*user.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	id, ok := m.EmailIndex[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return m.Users[id].Clone(), nil
}

func (m *MockUserStore) Create(ctx context.Context, r *user.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, exists := m.EmailIndex[r.Email]; exists {
		return user.ErrAlreadyExists
	}
	m.Users[r.ID] = r.Clone()
	m.EmailIndex[r.Email] = r.ID
	return nil
}

func (m *MockUserStore) Put(ctx context.Context, r *user.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutError != nil {
		return m.PutError
	}
	if _, ok := m.Users[r.ID]; !ok {
		return user.ErrNotFound
	}
	m.Users[r.ID] = r.Clone()
	m.EmailIndex[r.Email] = r.ID
	return nil
}

func (m *MockUserStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	ids := make([]string, 0, len(m.Users))
	for id := range m.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockUserStore) Ping(ctx context.Context) error {
	return m.GetError
}

// MockProvider is a chat.Provider returning a fixed generation
type MockProvider struct {
	mu         sync.Mutex
	Text       string
	TokensUsed int64
	Err        error
	Calls      int
	LastModel  plan.ModelConfig
	LastMax    int

	// OnGenerate runs before the response is returned, e.g. to cancel ctx
	OnGenerate func()
}

func (m *MockProvider) Generate(ctx context.Context, model plan.ModelConfig, messages []chat.Message, maxTokens int) (*chat.Generation, error) {
	m.mu.Lock()
	m.Calls++
	m.LastModel = model
	m.LastMax = maxTokens
	hook := m.OnGenerate
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &chat.Generation{Text: m.Text, TokensUsed: m.TokensUsed}, nil
}

// MockEventLog is an in-memory billing.EventLog
type MockEventLog struct {
	mu         sync.Mutex
	Claimed    map[string]string
	ClaimError error
	Releases   int
}

func NewMockEventLog() *MockEventLog {
	return &MockEventLog{Claimed: make(map[string]string)}
}

func (m *MockEventLog) Claim(ctx context.Context, id, eventType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClaimError != nil {
		return false, m.ClaimError
	}
	if _, ok := m.Claimed[id]; ok {
		return false, nil
	}
	m.Claimed[id] = eventType
	return true, nil
}

func (m *MockEventLog) Release(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Claimed, id)
	m.Releases++
	return nil
}
