package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("draft: %w", ErrNotFound), http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrUnavailable, http.StatusBadGateway},
		{fmt.Errorf("token: %w", ErrUnauthorized), http.StatusUnauthorized},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

type fieldErr map[string]string

func (f fieldErr) Error() string                  { return "fields invalid" }
func (f fieldErr) FieldErrors() map[string]string { return f }

func TestRespondErrorCarriesFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("%w: %w", ErrValidation, fieldErr{"wing_uuid": "Branch is required"}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Validation Failed", body.Title)
	assert.Equal(t, "Branch is required", body.Errors["wing_uuid"])
}

func TestFieldProblemCarriesErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	FieldProblem(rec, http.StatusUnprocessableEntity, "Validation Failed", map[string]string{"items": "Debits must equal Credits"}, []string{"reference: taken"})

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Debits must equal Credits", body.Errors["items"])
	assert.Equal(t, []string{"reference: taken"}, body.Notices)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}
