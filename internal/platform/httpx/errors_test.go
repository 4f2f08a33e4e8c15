package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animedojo/anime-api/internal/shared"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTranslateStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		title  string
	}{
		{"not found", &shared.NotFoundError{Resource: "anime", ID: 7}, http.StatusBadRequest, TitleBadRequest},
		{"wrapped not found", fmt.Errorf("find: %w", shared.ErrNotFound), http.StatusBadRequest, TitleBadRequest},
		{"bad request", fmt.Errorf("%w: invalid id", shared.ErrBadRequest), http.StatusBadRequest, TitleBadRequest},
		{"credentials", shared.ErrInvalidCredentials, http.StatusForbidden, TitleUnauthenticated},
		{"anonymous", shared.ErrUnauthenticated, http.StatusForbidden, TitleUnauthenticated},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, TitleForbidden},
		{"route", shared.ErrRouteNotFound, http.StatusNotFound, TitleRouteNotFound},
		{"rate limited", shared.ErrTooManyRequests, http.StatusTooManyRequests, TitleTooManyRequests},
		{"timeout", shared.ErrTimeout, http.StatusGatewayTimeout, TitleTimeout},
		{"deadline", fmt.Errorf("list anime: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, TitleTimeout},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, TitleInternal},
		{"nil", nil, http.StatusInternalServerError, TitleInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Translate(tc.err, fixedNow)
			assert.Equal(t, tc.status, p.Status)
			assert.Equal(t, tc.title, p.Title)
			assert.Equal(t, fixedNow, p.Timestamp)
			assert.NotEmpty(t, p.Details)
			assert.Nil(t, p.ValidationDetails)
		})
	}
}

func TestTranslateNotFoundHasDetails(t *testing.T) {
	p := Translate(&shared.NotFoundError{Resource: "anime", ID: 99}, fixedNow)

	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "anime not found", p.Details)
	assert.Equal(t, "shared.NotFoundError", p.DeveloperMessage)
}

func TestTranslateValidationListsEachField(t *testing.T) {
	v := &shared.ValidationError{}
	v.Add("name", "The anime name cannot be empty")

	p := Translate(fmt.Errorf("save: %w", v), fixedNow)

	require.NotNil(t, p.ValidationDetails)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, TitleInvalidFields, p.Title)
	assert.Equal(t, "name", p.Fields)
	assert.Equal(t, "The anime name cannot be empty", p.FieldsMessage)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, FieldDetail{Field: "name", Message: "The anime name cannot be empty"}, p.Errors[0])
}

func TestTranslateNeverLeaksInternalText(t *testing.T) {
	p := Translate(errors.New("password=hunter2 host=db"), fixedNow)

	assert.NotContains(t, p.Details, "hunter2")
	assert.NotContains(t, p.DeveloperMessage, "hunter2")
}

func TestTranslateRecoversFromPanickingError(t *testing.T) {
	var nilNotFound *shared.NotFoundError
	var err error = nilNotFound

	var p Payload
	require.NotPanics(t, func() { p = Translate(err, fixedNow) })
	assert.Equal(t, http.StatusInternalServerError, p.Status)
	assert.Equal(t, TitleInternal, p.Title)
}

func TestPayloadJSONShape(t *testing.T) {
	raw, err := json.Marshal(Translate(shared.ErrForbidden, fixedNow))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"timestamp", "status", "title", "details", "developerMessage"} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, "errors")

	v := &shared.ValidationError{}
	v.Add("name", "required")
	raw, err = json.Marshal(Translate(v, fixedNow))
	require.NoError(t, err)
	fields = map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"fields", "fieldsMessage", "errors"} {
		assert.Contains(t, fields, key)
	}
}

func TestRespondErrorInternalCarriesRequestID(t *testing.T) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondError(w, r, nil, errors.New("boom"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/animes", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var p Payload
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.True(t, strings.HasPrefix(p.DeveloperMessage, "request_id="))
	assert.NotContains(t, p.Details, "boom")
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/animes", strings.NewReader("{not json"))
	err := DecodeJSON(req, &target)
	assert.ErrorIs(t, err, shared.ErrBadRequest)

	req = httptest.NewRequest(http.MethodPost, "/animes", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(req, &target), shared.ErrBadRequest)

	req = httptest.NewRequest(http.MethodPost, "/animes", strings.NewReader(`{"name":"Naruto"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "Naruto", target.Name)
}
