package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"strings"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNoCredential indicates the account has no stored hash at all.
	// Callers redirect to the reset flow instead of treating this as a
	// wrong password.
	ErrNoCredential = errors.New("no credential set")
	// ErrCredentialMismatch indicates the candidate secret does not match
	ErrCredentialMismatch = errors.New("credential mismatch")
)

// CredentialStore verifies and rotates account credentials and enforces
// non-reuse against password history.
type CredentialStore struct {
	users   repository.UserRepository
	history repository.PasswordHistoryRepository
}

// NewCredentialStore creates a credential store over the given repositories
func NewCredentialStore(users repository.UserRepository, history repository.PasswordHistoryRepository) *CredentialStore {
	return &CredentialStore{users: users, history: history}
}

// isLegacyHash reports whether the stored value predates bcrypt storage.
// Early rows carry a bare SHA-256 hex digest.
func isLegacyHash(hash string) bool {
	if strings.HasPrefix(hash, "$2") {
		return false
	}
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// matchesStoredHash compares a candidate secret against a stored hash in
// either format. Legacy entries carry the bare SHA-256 digest, and may
// survive in history after the current hash has been upgraded.
func matchesStoredHash(hash, candidate string) bool {
	if isLegacyHash(hash) {
		digest := sha256.Sum256([]byte(candidate))
		stored, err := hex.DecodeString(hash)
		return err == nil && subtle.ConstantTimeCompare(digest[:], stored) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// Verify checks the candidate secret against the user's stored hash.
// A legacy hash that matches is immediately re-hashed with bcrypt so
// storage self-heals without a forced reset; user.PasswordHash is updated
// in place. Returns ErrNoCredential when no hash is stored at all.
func (s *CredentialStore) Verify(ctx context.Context, user *models.User, secret string) error {
	if user.PasswordHash == "" {
		return ErrNoCredential
	}

	if isLegacyHash(user.PasswordHash) {
		if !matchesStoredHash(user.PasswordHash, secret) {
			return ErrCredentialMismatch
		}

		upgraded, err := HashPassword(secret)
		if err != nil {
			return err
		}
		if err := s.users.UpdatePasswordHash(ctx, user.ID, upgraded); err != nil {
			// The match stands; the upgrade retries on the next login.
			log.Printf("Failed to upgrade legacy hash for user %s: %v", user.ID, err)
			return nil
		}
		user.PasswordHash = upgraded
		return nil
	}

	if !matchesStoredHash(user.PasswordHash, secret) {
		return ErrCredentialMismatch
	}
	return nil
}

// Rotate replaces the user's credential with newSecret, retiring the
// current hash into history and pruning history beyond historyDepth.
func (s *CredentialStore) Rotate(ctx context.Context, user *models.User, newSecret string, historyDepth int) error {
	hash, err := HashPassword(newSecret)
	if err != nil {
		return err
	}
	if err := s.users.RotatePassword(ctx, user.ID, hash, historyDepth); err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

// WasRecentlyUsed reports whether the candidate matches the current hash
// or any of the newest depth history entries. Both comparisons handle
// legacy-format hashes, so reuse prevention holds across the migration.
func (s *CredentialStore) WasRecentlyUsed(ctx context.Context, user *models.User, candidate string, depth int) (bool, error) {
	if user.PasswordHash != "" && matchesStoredHash(user.PasswordHash, candidate) {
		return true, nil
	}

	entries, err := s.history.ListRecent(ctx, user.ID, depth)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if matchesStoredHash(entry.PasswordHash, candidate) {
			return true, nil
		}
	}
	return false, nil
}
