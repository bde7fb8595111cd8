// Package testutil provides utilities for testing
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cropdoc/internal/api/routes"
	"cropdoc/internal/config"
	"cropdoc/internal/models"
	"cropdoc/internal/ratelimit"
	"cropdoc/internal/repository/memory"
	"cropdoc/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// RecordingEmailSender captures outgoing mail instead of delivering it,
// so tests can read back the one-time codes that would have been emailed.
type RecordingEmailSender struct {
	mu           sync.Mutex
	codes        map[string]string
	changedSent  map[string]int
	failDelivery bool
}

// NewRecordingEmailSender creates an empty recorder
func NewRecordingEmailSender() *RecordingEmailSender {
	return &RecordingEmailSender{
		codes:       make(map[string]string),
		changedSent: make(map[string]int),
	}
}

// FailDelivery makes every send return an error, for exercising the
// best-effort paths.
func (s *RecordingEmailSender) FailDelivery(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelivery = fail
}

func (s *RecordingEmailSender) SendOTPEmail(to, name, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelivery {
		return errDeliveryFailed
	}
	s.codes[to] = code
	return nil
}

func (s *RecordingEmailSender) SendPasswordChangedEmail(to, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelivery {
		return errDeliveryFailed
	}
	s.changedSent[to]++
	return nil
}

// LastCode returns the most recent code sent to the recipient
func (s *RecordingEmailSender) LastCode(to string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[to]
}

// ChangedNotifications returns how many password-changed notices went to
// the recipient
func (s *RecordingEmailSender) ChangedNotifications(to string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changedSent[to]
}

var errDeliveryFailed = &deliveryError{}

type deliveryError struct{}

func (e *deliveryError) Error() string { return "delivery failed" }

// TestContext holds common test dependencies: a router over in-memory
// stores plus handles to the stores themselves.
type TestContext struct {
	T      *testing.T
	Config *config.Config
	Router *gin.Engine
	Store  *memory.Store
	Email  *RecordingEmailSender
}

// TestConfig returns a configuration with production-like security
// defaults and test-only credentials.
func TestConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{Port: "8080"},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret-not-for-production",
			TokenLifetime:        2 * time.Hour,
			MaxFailedAttempts:    5,
			LockoutDuration:      15 * time.Minute,
			OTPTTL:               10 * time.Minute,
			OTPMaxAttempts:       5,
			PasswordHistoryDepth: 5,
		},
		Email: config.EmailConfig{AppName: "CropDoc"},
		RateLimit: config.RateLimitConfig{
			Requests: 10000,
			Window:   60,
			Burst:    10000,
		},
	}
}

// NewTestContext creates a router wired over in-memory stores
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)
	validation.Initialize()

	cfg := TestConfig()
	store := memory.NewStore()
	sender := NewRecordingEmailSender()

	router := routes.New(routes.Deps{
		Config:       cfg,
		Users:        store.Users(),
		History:      store.PasswordHistory(),
		Pending:      store.PendingVerifications(),
		Complaints:   store.Complaints(),
		Diagnoses:    store.Diagnoses(),
		Audit:        store.AuditLogs(),
		LockoutStore: store.Lockouts(),
		RateStore:    ratelimit.NewMemoryStore(),
		Email:        sender,
	})

	return &TestContext{
		T:      t,
		Config: cfg,
		Router: router,
		Store:  store,
		Email:  sender,
	}
}

// CreateVerifiedUser inserts a registered account directly into the store.
// bcrypt.MinCost keeps the hashing fast; verification only compares.
func (tc *TestContext) CreateVerifiedUser(email, password string) *models.User {
	tc.T.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(tc.T, err)

	user := &models.User{
		Name:          "Test User",
		Email:         email,
		Role:          models.RoleFarmer,
		PasswordHash:  string(hash),
		EmailVerified: true,
	}
	require.NoError(tc.T, tc.Store.Users().Create(context.Background(), user))
	return user
}

// DoRequest performs a JSON request against the router. A non-empty token
// is sent as a bearer credential.
func (tc *TestContext) DoRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	tc.T.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(tc.T, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	tc.Router.ServeHTTP(w, req)
	return w
}

// DecodeResponse unmarshals a recorded JSON response body into out
func (tc *TestContext) DecodeResponse(w *httptest.ResponseRecorder, out interface{}) {
	tc.T.Helper()
	require.NoError(tc.T, json.Unmarshal(w.Body.Bytes(), out))
}
