// Package otp issues and verifies one-time numeric codes used to prove
// control of an email address. Codes are stored hashed with an expiry and
// a bounded attempt budget on a pending verification record.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// CodeDigits is the length of generated codes
const CodeDigits = 6

var (
	// ErrNoPending indicates no pending record exists for the email/purpose
	ErrNoPending = errors.New("no pending verification")
	// ErrExpired indicates the code's validity window has passed
	ErrExpired = errors.New("verification code expired")
	// ErrMismatch indicates the submitted code does not match
	ErrMismatch = errors.New("verification code mismatch")
	// ErrTooManyAttempts indicates the attempt budget is exhausted
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

var codeSpace = big.NewInt(1000000)

// GenerateCode draws a code uniformly from [0, 10^6), zero-padded so
// leading zeros are preserved.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeDigits, n), nil
}

// Issuer manages the pending-record lifecycle around one-time codes
type Issuer struct {
	repo        repository.PendingVerificationRepository
	ttl         time.Duration
	maxAttempts int
}

// NewIssuer creates an issuer with the given code lifetime and per-record
// attempt budget
func NewIssuer(repo repository.PendingVerificationRepository, ttl time.Duration, maxAttempts int) *Issuer {
	return &Issuer{repo: repo, ttl: ttl, maxAttempts: maxAttempts}
}

// Issue generates a code, stores its hash and expiry on pv, and upserts
// the record keyed by (email, purpose), replacing any prior record for
// the same key. The plaintext code is returned once for delivery and
// never stored.
func (i *Issuer) Issue(ctx context.Context, pv *models.PendingVerification) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	pv.OTPHash = string(hash)
	pv.ExpiresAt = time.Now().Add(i.ttl)
	pv.Attempts = 0

	if err := i.repo.Upsert(ctx, pv); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the submitted code against the pending record. Expiry is
// inclusive: a code submitted exactly at its expiry timestamp fails.
// Expired records and records whose attempt budget is exhausted are
// discarded. Verify does not consume the record on success; the caller
// completes its promotion work first and then calls Consume, relying on
// the account email uniqueness constraint to dedupe if it crashes between
// the two.
func (i *Issuer) Verify(ctx context.Context, email, purpose, code string) (*models.PendingVerification, error) {
	pv, err := i.repo.Get(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrPendingNotFound) {
			return nil, ErrNoPending
		}
		return nil, err
	}

	if !time.Now().Before(pv.ExpiresAt) {
		if err := i.repo.Delete(ctx, email, purpose); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	attempts, err := i.repo.IncrementAttempts(ctx, email, purpose)
	if err != nil {
		return nil, err
	}
	if attempts > i.maxAttempts {
		if err := i.repo.Delete(ctx, email, purpose); err != nil {
			return nil, err
		}
		return nil, ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(pv.OTPHash), []byte(code)) != nil {
		return nil, ErrMismatch
	}

	return pv, nil
}

// Consume deletes the pending record after a successful verification
func (i *Issuer) Consume(ctx context.Context, email, purpose string) error {
	return i.repo.Delete(ctx, email, purpose)
}
