/* test_mocks.go
 * Contains mock structures for testing the API package and its consumers
 */

package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vlakddp4/publicbot/api/shared"
	"github.com/vlakddp4/publicbot/api/store"
)

// MockStore implements store.Interface in memory, applying the same merge policy as the real engines
type MockStore struct {
	mu           sync.Mutex
	Participants map[int64]shared.Participant
	Now          func() time.Time

	// Error injection for testing error paths
	UpsertError        error
	UpdateProfileError error
	DeleteError        error
	GetError           error
	ExistsError        error
	CountError         error
	PageError          error
	PingError          error

	// Call counters, used to assert the store was not touched
	Calls int
}

// NewMockStore creates an empty MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		Participants: make(map[int64]shared.Participant),
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

var _ store.Interface = (*MockStore)(nil)

// Upsert mock implementation
func (m *MockStore) Upsert(_ context.Context, participant shared.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	var existing *shared.Participant
	if p, ok := m.Participants[participant.UserID]; ok {
		existing = &p
	}
	m.Participants[participant.UserID] = store.MergeRegistration(existing, participant, m.Now())
	return nil
}

// UpdateProfile mock implementation
func (m *MockStore) UpdateProfile(_ context.Context, userID int64, profile shared.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.UpdateProfileError != nil {
		return m.UpdateProfileError
	}
	existing, ok := m.Participants[userID]
	if !ok {
		return store.ErrNotFound
	}
	m.Participants[userID] = store.MergeProfile(existing, profile, m.Now())
	return nil
}

// Delete mock implementation
func (m *MockStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Participants, userID)
	return nil
}

// Get mock implementation
func (m *MockStore) Get(_ context.Context, userID int64) (shared.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.GetError != nil {
		return shared.Participant{}, m.GetError
	}
	p, ok := m.Participants[userID]
	if !ok {
		return shared.Participant{}, store.ErrNotFound
	}
	return p, nil
}

// Exists mock implementation
func (m *MockStore) Exists(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	_, ok := m.Participants[userID]
	return ok, nil
}

// Count mock implementation
func (m *MockStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.CountError != nil {
		return 0, m.CountError
	}
	return len(m.Participants), nil
}

// Page mock implementation, ordered by user id like the real engines
func (m *MockStore) Page(_ context.Context, limit int, offset int) ([]shared.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.PageError != nil {
		return nil, m.PageError
	}
	ids := make([]int64, 0, len(m.Participants))
	for id := range m.Participants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var page []shared.Participant
	for i := offset; i < len(ids) && len(page) < limit; i++ {
		page = append(page, m.Participants[ids[i]])
	}
	return page, nil
}

// Ping mock implementation
func (m *MockStore) Ping(_ context.Context) error {
	return m.PingError
}

// Close mock implementation
func (m *MockStore) Close() error {
	return nil
}

// MockMirror records mirrored attachments
type MockMirror struct {
	URL      string
	Err      error
	Mirrored []shared.Attachment
}

// Mirror mock implementation
func (m *MockMirror) Mirror(_ context.Context, _ int64, attachment shared.Attachment) (string, error) {
	m.Mirrored = append(m.Mirrored, attachment)
	if m.Err != nil {
		return "", m.Err
	}
	if m.URL == "" {
		return attachment.URL, nil
	}
	return m.URL, nil
}
