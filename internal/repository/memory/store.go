// Package memory provides in-memory repository implementations backed by a
// single mutex-guarded Store. They serve tests and local development runs
// where a PostgreSQL instance is unavailable.
package memory

import (
	"sync"

	"cropdoc/internal/lockout"
	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/google/uuid"
)

type pendingKey struct {
	email   string
	purpose string
}

type lockoutKey struct {
	key     string
	purpose string
}

// Store holds all in-memory state shared by the repositories it vends.
type Store struct {
	mu sync.Mutex

	users        map[uuid.UUID]*models.User
	usersByEmail map[string]uuid.UUID
	history      map[uuid.UUID][]models.PasswordHistory
	pending      map[pendingKey]*models.PendingVerification
	lockouts     map[lockoutKey]lockout.State
	complaints   map[uuid.UUID]*models.Complaint
	diagnoses    []models.Diagnosis
	audits       []models.AuditLog
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:        make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]uuid.UUID),
		history:      make(map[uuid.UUID][]models.PasswordHistory),
		pending:      make(map[pendingKey]*models.PendingVerification),
		lockouts:     make(map[lockoutKey]lockout.State),
		complaints:   make(map[uuid.UUID]*models.Complaint),
	}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) PasswordHistory() repository.PasswordHistoryRepository {
	return &passwordHistoryRepository{store: s}
}

func (s *Store) PendingVerifications() repository.PendingVerificationRepository {
	return &pendingVerificationRepository{store: s}
}

func (s *Store) Lockouts() lockout.Store {
	return &lockoutStore{store: s}
}

func (s *Store) Complaints() repository.ComplaintRepository {
	return &complaintRepository{store: s}
}

func (s *Store) Diagnoses() repository.DiagnosisRepository {
	return &diagnosisRepository{store: s}
}

func (s *Store) AuditLogs() repository.AuditLogRepository {
	return &auditLogRepository{store: s}
}
