package otp_test

import (
	"context"
	"testing"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/otp"
	"cropdoc/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := otp.GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, otp.CodeDigits)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestIssueAndVerify(t *testing.T) {
	repo := memory.NewStore().PendingVerifications()
	issuer := otp.NewIssuer(repo, 10*time.Minute, 5)
	ctx := context.Background()

	pending := &models.PendingVerification{
		Email:   "farmer@example.com",
		Purpose: models.PurposeRegister,
		Name:    "Asha",
	}
	code, err := issuer.Issue(ctx, pending)
	require.NoError(t, err)
	require.Len(t, code, otp.CodeDigits)

	got, err := issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, code)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)

	// Verify does not consume; only Consume does.
	require.NoError(t, issuer.Consume(ctx, "farmer@example.com", models.PurposeRegister))
	_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, code)
	assert.ErrorIs(t, err, otp.ErrNoPending)
}

func TestVerifyWrongCode(t *testing.T) {
	repo := memory.NewStore().PendingVerifications()
	issuer := otp.NewIssuer(repo, 10*time.Minute, 5)
	ctx := context.Background()

	pending := &models.PendingVerification{Email: "farmer@example.com", Purpose: models.PurposeRegister}
	code, err := issuer.Issue(ctx, pending)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, wrong)
	assert.ErrorIs(t, err, otp.ErrMismatch)

	// A mismatch does not invalidate the record.
	_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, code)
	assert.NoError(t, err)
}

func TestVerifyExpiryIsInclusive(t *testing.T) {
	repo := memory.NewStore().PendingVerifications()
	issuer := otp.NewIssuer(repo, 0, 5)
	ctx := context.Background()

	pending := &models.PendingVerification{Email: "farmer@example.com", Purpose: models.PurposeRegister}
	code, err := issuer.Issue(ctx, pending)
	require.NoError(t, err)

	// Zero TTL means the code is already at its expiry timestamp.
	_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, code)
	assert.ErrorIs(t, err, otp.ErrExpired)

	// The expired record was discarded.
	_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, code)
	assert.ErrorIs(t, err, otp.ErrNoPending)
}

func TestVerifyAttemptBudget(t *testing.T) {
	repo := memory.NewStore().PendingVerifications()
	issuer := otp.NewIssuer(repo, 10*time.Minute, 2)
	ctx := context.Background()

	pending := &models.PendingVerification{Email: "farmer@example.com", Purpose: models.PurposeRegister}
	code, err := issuer.Issue(ctx, pending)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 2; i++ {
		_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, wrong)
		assert.ErrorIs(t, err, otp.ErrMismatch)
	}

	// Budget exhausted: even the correct code is refused and the record
	// is discarded.
	_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, code)
	assert.ErrorIs(t, err, otp.ErrTooManyAttempts)

	_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, code)
	assert.ErrorIs(t, err, otp.ErrNoPending)
}

func TestReissueReplacesPriorCode(t *testing.T) {
	repo := memory.NewStore().PendingVerifications()
	issuer := otp.NewIssuer(repo, 10*time.Minute, 5)
	ctx := context.Background()

	first, err := issuer.Issue(ctx, &models.PendingVerification{Email: "farmer@example.com", Purpose: models.PurposeRegister})
	require.NoError(t, err)
	second, err := issuer.Issue(ctx, &models.PendingVerification{Email: "farmer@example.com", Purpose: models.PurposeRegister})
	require.NoError(t, err)

	if first != second {
		_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, first)
		assert.ErrorIs(t, err, otp.ErrMismatch)
	}

	_, err = issuer.Verify(ctx, "farmer@example.com", models.PurposeRegister, second)
	assert.NoError(t, err)
}
