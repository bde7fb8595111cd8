package handlers_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"testing"

	"cropdoc/internal/models"
	"cropdoc/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationFlow(t *testing.T) {
	tc := testutil.NewTestContext(t)

	w := tc.DoRequest(http.MethodPost, "/register-otp", models.RegisterOTPRequest{
		Name:     "Asha",
		Email:    "Asha@Example.com",
		Password: "Sunfl0wer!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The email was normalized before the code went out.
	code := tc.Email.LastCode("asha@example.com")
	require.Len(t, code, 6)

	w = tc.DoRequest(http.MethodPost, "/verify-otp", models.VerifyOTPRequest{
		Email: "asha@example.com",
		OTP:   code,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.AuthResponse
	tc.DecodeResponse(w, &resp)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "asha@example.com", resp.User.Email)
	assert.Equal(t, models.RoleFarmer, resp.User.Role)

	// The token works immediately.
	w = tc.DoRequest(http.MethodGet, "/account", nil, resp.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var info models.UserInfo
	tc.DecodeResponse(w, &info)
	assert.Equal(t, resp.User.ID, info.ID)

	// The code was consumed by the promotion.
	w = tc.DoRequest(http.MethodPost, "/verify-otp", models.VerifyOTPRequest{
		Email: "asha@example.com",
		OTP:   code,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterOTPRejectsExistingEmail(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")

	w := tc.DoRequest(http.MethodPost, "/register-otp", models.RegisterOTPRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "An0ther!pass",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	tc.DecodeResponse(w, &resp)
	assert.Equal(t, "email already registered", resp.Error)
}

func TestRegisterOTPRejectsWeakPassword(t *testing.T) {
	tc := testutil.NewTestContext(t)

	w := tc.DoRequest(http.MethodPost, "/register-otp", models.RegisterOTPRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "lowercase1234",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, tc.Email.LastCode("asha@example.com"))
}

func TestRegisterOTPReissueInvalidatesPriorCode(t *testing.T) {
	tc := testutil.NewTestContext(t)

	req := models.RegisterOTPRequest{Name: "Asha", Email: "asha@example.com", Password: "Sunfl0wer!"}
	w := tc.DoRequest(http.MethodPost, "/register-otp", req, "")
	require.Equal(t, http.StatusOK, w.Code)
	first := tc.Email.LastCode("asha@example.com")

	w = tc.DoRequest(http.MethodPost, "/register-otp", req, "")
	require.Equal(t, http.StatusOK, w.Code)
	second := tc.Email.LastCode("asha@example.com")

	if first != second {
		w = tc.DoRequest(http.MethodPost, "/verify-otp", models.VerifyOTPRequest{
			Email: "asha@example.com", OTP: first,
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w = tc.DoRequest(http.MethodPost, "/verify-otp", models.VerifyOTPRequest{
		Email: "asha@example.com", OTP: second,
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestVerifyOTPWrongCode(t *testing.T) {
	tc := testutil.NewTestContext(t)

	w := tc.DoRequest(http.MethodPost, "/register-otp", models.RegisterOTPRequest{
		Name: "Asha", Email: "asha@example.com", Password: "Sunfl0wer!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	code := tc.Email.LastCode("asha@example.com")
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	w = tc.DoRequest(http.MethodPost, "/verify-otp", models.VerifyOTPRequest{
		Email: "asha@example.com", OTP: wrong,
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	tc.DecodeResponse(w, &resp)
	assert.Equal(t, "invalid verification code", resp.Error)
}

func TestRegistrationSurvivesEmailOutage(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.Email.FailDelivery(true)

	// Delivery failure is invisible to the caller.
	w := tc.DoRequest(http.MethodPost, "/register-otp", models.RegisterOTPRequest{
		Name: "Asha", Email: "asha@example.com", Password: "Sunfl0wer!",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLoginSuccess(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")

	w := tc.DoRequest(http.MethodPost, "/login", models.LoginRequest{
		Email:    "Asha@Example.com",
		Password: "Sunfl0wer!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AuthResponse
	tc.DecodeResponse(w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")

	w := tc.DoRequest(http.MethodPost, "/login", models.LoginRequest{
		Email: "asha@example.com", Password: "WrongPass1!",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var wrongPass models.ErrorResponse
	tc.DecodeResponse(w, &wrongPass)

	w = tc.DoRequest(http.MethodPost, "/login", models.LoginRequest{
		Email: "nobody@example.com", Password: "WrongPass1!",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var unknown models.ErrorResponse
	tc.DecodeResponse(w, &unknown)

	assert.Equal(t, wrongPass.Error, unknown.Error)
}

func TestLoginLockout(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")

	bad := models.LoginRequest{Email: "asha@example.com", Password: "WrongPass1!"}

	// The fifth failure trips the lock but still answers 401.
	for i := 0; i < 5; i++ {
		w := tc.DoRequest(http.MethodPost, "/login", bad, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}

	// The sixth attempt is refused before credentials are even checked,
	// correct password included.
	w := tc.DoRequest(http.MethodPost, "/login", models.LoginRequest{
		Email: "asha@example.com", Password: "Sunfl0wer!",
	}, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp models.ErrorResponse
	tc.DecodeResponse(w, &resp)
	assert.Greater(t, resp.RetryAfterSeconds, 0)
	assert.LessOrEqual(t, resp.RetryAfterSeconds, 15*60)
	assert.Greater(t, resp.RetryAfterSeconds, 14*60)
}

func TestLoginSuccessResetsFailureCounter(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")

	bad := models.LoginRequest{Email: "asha@example.com", Password: "WrongPass1!"}
	good := models.LoginRequest{Email: "asha@example.com", Password: "Sunfl0wer!"}

	for i := 0; i < 4; i++ {
		w := tc.DoRequest(http.MethodPost, "/login", bad, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := tc.DoRequest(http.MethodPost, "/login", good, "")
	require.Equal(t, http.StatusOK, w.Code)

	// The counter started over, so the next failure is number one.
	w = tc.DoRequest(http.MethodPost, "/login", bad, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = tc.DoRequest(http.MethodPost, "/login", good, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLegacyHashLoginUpgrades(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateVerifiedUser("asha@example.com", "placeholder")

	digest := sha256.Sum256([]byte("LegacyPass1"))
	require.NoError(t, tc.Store.Users().UpdatePasswordHash(
		context.Background(), user.ID, hex.EncodeToString(digest[:]),
	))

	w := tc.DoRequest(http.MethodPost, "/login", models.LoginRequest{
		Email: "asha@example.com", Password: "LegacyPass1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := tc.Store.Users().GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))

	// Same password still works after the upgrade.
	w = tc.DoRequest(http.MethodPost, "/login", models.LoginRequest{
		Email: "asha@example.com", Password: "LegacyPass1",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")

	// Unknown emails get the same answer as known ones.
	w := tc.DoRequest(http.MethodPost, "/forgot-password", models.ForgotPasswordRequest{
		Email: "nobody@example.com",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, tc.Email.LastCode("nobody@example.com"))

	w = tc.DoRequest(http.MethodPost, "/forgot-password", models.ForgotPasswordRequest{
		Email: "asha@example.com",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code := tc.Email.LastCode("asha@example.com")
	require.Len(t, code, 6)

	// Resetting to the current password is refused.
	w = tc.DoRequest(http.MethodPost, "/reset-password", models.ResetPasswordRequest{
		Email: "asha@example.com", OTP: code, NewPassword: "Sunfl0wer!",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = tc.DoRequest(http.MethodPost, "/reset-password", models.ResetPasswordRequest{
		Email: "asha@example.com", OTP: code, NewPassword: "Fresh1!field",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Old password is dead, new one works.
	w = tc.DoRequest(http.MethodPost, "/login", models.LoginRequest{
		Email: "asha@example.com", Password: "Sunfl0wer!",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = tc.DoRequest(http.MethodPost, "/login", models.LoginRequest{
		Email: "asha@example.com", Password: "Fresh1!field",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// The code was consumed by the successful reset.
	w = tc.DoRequest(http.MethodPost, "/reset-password", models.ResetPasswordRequest{
		Email: "asha@example.com", OTP: code, NewPassword: "Again1!crop",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetPasswordRejectsLegacyCurrentPassword(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateVerifiedUser("asha@example.com", "placeholder")

	// An account that never logged in since the hash migration still
	// carries the bare digest when the reset flow runs.
	digest := sha256.Sum256([]byte("LegacyPass1!"))
	require.NoError(t, tc.Store.Users().UpdatePasswordHash(
		context.Background(), user.ID, hex.EncodeToString(digest[:]),
	))

	w := tc.DoRequest(http.MethodPost, "/forgot-password", models.ForgotPasswordRequest{
		Email: "asha@example.com",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code := tc.Email.LastCode("asha@example.com")
	require.Len(t, code, 6)

	// Resetting to the password behind the legacy hash is still reuse.
	w = tc.DoRequest(http.MethodPost, "/reset-password", models.ResetPasswordRequest{
		Email: "asha@example.com", OTP: code, NewPassword: "LegacyPass1!",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	tc.DecodeResponse(w, &resp)
	assert.Equal(t, "new password was recently used, choose a different one", resp.Error)

	// A genuinely new password completes the reset.
	w = tc.DoRequest(http.MethodPost, "/reset-password", models.ResetPasswordRequest{
		Email: "asha@example.com", OTP: code, NewPassword: "Fresh1!field",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// And the retired legacy password stays blocked for the next reset.
	w = tc.DoRequest(http.MethodPost, "/forgot-password", models.ForgotPasswordRequest{
		Email: "asha@example.com",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code = tc.Email.LastCode("asha@example.com")

	w = tc.DoRequest(http.MethodPost, "/reset-password", models.ResetPasswordRequest{
		Email: "asha@example.com", OTP: code, NewPassword: "LegacyPass1!",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	tc.DecodeResponse(w, &resp)
	assert.Equal(t, "new password was recently used, choose a different one", resp.Error)
}

func TestAccountRequiresToken(t *testing.T) {
	tc := testutil.NewTestContext(t)

	w := tc.DoRequest(http.MethodGet, "/account", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tc.DoRequest(http.MethodGet, "/account", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
