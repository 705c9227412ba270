package store

import (
	"context"
	"sync"

	"mastery/internal/ledger/models"
	id "mastery/pkg/domain"
	"mastery/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return sentinel.ErrNotFound when the requested entity does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// InMemoryStore keeps ledger state in process maps. Apply holds the write
// lock for the whole batch so readers never observe a partial operation.
type InMemoryStore struct {
	mu            sync.RWMutex
	config        *models.Config
	nextID        id.VerificationID
	verifications map[id.VerificationID]*models.Verification
	index         map[models.UserCourseKey]id.VerificationID
	updates       map[id.VerificationID]*models.VerificationUpdate
	certificates  map[id.VerificationID]*models.Certificate
}

// NewInMemory constructs an empty in-memory ledger store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		verifications: make(map[id.VerificationID]*models.Verification),
		index:         make(map[models.UserCourseKey]id.VerificationID),
		updates:       make(map[id.VerificationID]*models.VerificationUpdate),
		certificates:  make(map[id.VerificationID]*models.Certificate),
	}
}

func (s *InMemoryStore) LoadConfig(_ context.Context) (*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return nil, sentinel.ErrNotFound
	}
	cfg := *s.config
	return &cfg, nil
}

func (s *InMemoryStore) NextID(_ context.Context) (id.VerificationID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID, nil
}

func (s *InMemoryStore) FindVerification(_ context.Context, vid id.VerificationID) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifications[vid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyRecord := *v
	return &copyRecord, nil
}

func (s *InMemoryStore) FindIDByUserCourse(_ context.Context, user id.Principal, courseID id.CourseID) (id.VerificationID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vid, ok := s.index[models.UserCourseKey{User: user, CourseID: courseID}]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return vid, nil
}

func (s *InMemoryStore) FindUpdate(_ context.Context, vid id.VerificationID) (*models.VerificationUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.updates[vid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyRecord := *u
	return &copyRecord, nil
}

func (s *InMemoryStore) FindCertificate(_ context.Context, vid id.VerificationID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certificates[vid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyRecord := *c
	return &copyRecord, nil
}

// Apply writes every staged entry of the batch. Nothing is written and
// sentinel.ErrConflict is returned when an index entry would point an
// existing (user, course) pair at a different verification, a new
// verification or certificate id is already taken, or next id moved since
// the batch was built (sentinel.ErrStale).
func (s *InMemoryStore) Apply(_ context.Context, batch *models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.NextID != nil && (*batch.NextID == 0 || s.nextID != *batch.NextID-1) {
		return sentinel.ErrStale
	}
	for key, vid := range batch.Index {
		if existing, ok := s.index[key]; ok && existing != vid {
			return sentinel.ErrConflict
		}
	}
	for _, vid := range batch.Created() {
		if _, ok := s.verifications[vid]; ok {
			return sentinel.ErrConflict
		}
	}
	for vid := range batch.Certificates {
		if _, ok := s.certificates[vid]; ok {
			return sentinel.ErrConflict
		}
	}

	if batch.Config != nil {
		cfg := *batch.Config
		s.config = &cfg
	}
	if batch.NextID != nil {
		s.nextID = *batch.NextID
	}
	for vid, v := range batch.Verifications {
		copyRecord := *v
		s.verifications[vid] = &copyRecord
	}
	for key, vid := range batch.Index {
		s.index[key] = vid
	}
	for vid, u := range batch.Updates {
		copyRecord := *u
		s.updates[vid] = &copyRecord
	}
	for vid, c := range batch.Certificates {
		copyRecord := *c
		s.certificates[vid] = &copyRecord
	}
	return nil
}
