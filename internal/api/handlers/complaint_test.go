package handlers_test

import (
	"net/http"
	"testing"

	"cropdoc/internal/models"
	"cropdoc/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaintLifecycle(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")
	token := loginToken(t, tc, "asha@example.com", "Sunfl0wer!")

	w := tc.DoRequest(http.MethodGet, "/complaints", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = tc.DoRequest(http.MethodPost, "/complaints", models.CreateComplaintRequest{
		Subject: "Wrong advice",
		Message: "The blight remedy did not help my tomatoes.",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Complaint
	tc.DecodeResponse(w, &created)
	assert.Equal(t, models.ComplaintStatusOpen, created.Status)

	w = tc.DoRequest(http.MethodGet, "/complaints", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Complaint
	tc.DecodeResponse(w, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestComplaintsAreScopedPerUser(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")
	tc.CreateVerifiedUser("binta@example.com", "Harvest1!")
	ashaToken := loginToken(t, tc, "asha@example.com", "Sunfl0wer!")
	bintaToken := loginToken(t, tc, "binta@example.com", "Harvest1!")

	w := tc.DoRequest(http.MethodPost, "/complaints", models.CreateComplaintRequest{
		Subject: "Login trouble",
		Message: "I keep getting locked out.",
	}, ashaToken)
	require.Equal(t, http.StatusCreated, w.Code)

	w = tc.DoRequest(http.MethodGet, "/complaints", nil, bintaToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestComplaintRateLimit(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")
	token := loginToken(t, tc, "asha@example.com", "Sunfl0wer!")

	req := models.CreateComplaintRequest{
		Subject: "Repeated issue",
		Message: "Filing the same ticket again.",
	}
	for i := 0; i < 5; i++ {
		w := tc.DoRequest(http.MethodPost, "/complaints", req, token)
		require.Equal(t, http.StatusCreated, w.Code, "complaint %d", i+1)
	}

	w := tc.DoRequest(http.MethodPost, "/complaints", req, token)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp models.ErrorResponse
	tc.DecodeResponse(w, &resp)
	assert.Greater(t, resp.RetryAfterSeconds, 0)

	// Reading is not throttled.
	w = tc.DoRequest(http.MethodGet, "/complaints", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDiagnosisLifecycle(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateVerifiedUser("asha@example.com", "Sunfl0wer!")
	token := loginToken(t, tc, "asha@example.com", "Sunfl0wer!")

	w := tc.DoRequest(http.MethodPost, "/diagnoses", models.CreateDiagnosisRequest{
		Crop:   "tomato",
		Result: testutil.String("early blight"),
		Advice: testutil.String("Remove affected leaves and apply a copper fungicide."),
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Diagnosis
	tc.DecodeResponse(w, &created)
	assert.Equal(t, "tomato", created.Crop)

	w = tc.DoRequest(http.MethodGet, "/diagnoses", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Diagnosis
	tc.DecodeResponse(w, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestDiagnosesRequireToken(t *testing.T) {
	tc := testutil.NewTestContext(t)

	w := tc.DoRequest(http.MethodGet, "/diagnoses", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tc.DoRequest(http.MethodPost, "/diagnoses", models.CreateDiagnosisRequest{Crop: "maize"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
