package animes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animedojo/anime-api/internal/animes"
	"github.com/animedojo/anime-api/internal/platform/httpx"
	"github.com/animedojo/anime-api/internal/shared"
	_ "github.com/animedojo/anime-api/testing"
)

func newAnimeRouter(seed ...string) http.Handler {
	svc := animes.NewService(animes.NewMemoryRepository(seed...), nil, nil)
	r := chi.NewRouter()
	r.Route("/animes", animes.NewHandler(nil, svc).MountRoutes)
	return r
}

func serve(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListReturnsPageEnvelope(t *testing.T) {
	h := newAnimeRouter("Anime Test")

	rec := serve(t, h, http.MethodGet, "/animes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	page, err := shared.DecodePage[animes.Anime](rec.Body)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Anime Test", page.Content[0].Name)
	assert.Equal(t, 1, page.TotalElements)
	assert.Equal(t, 20, page.Size)
	assert.True(t, page.Last)
}

func TestListHonoursPageParameters(t *testing.T) {
	h := newAnimeRouter("a", "b", "c")

	rec := serve(t, h, http.MethodGet, "/animes?page=1&size=2&sort=id,asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page, err := shared.DecodePage[animes.Anime](rec.Body)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "c", page.Content[0].Name)
	assert.Equal(t, 2, page.TotalPages)
}

func TestListAllAndFind(t *testing.T) {
	h := newAnimeRouter("Anime Test")

	rec := serve(t, h, http.MethodGet, "/animes/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Anime Test"}]`, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/animes/find?name=Anime%20Test", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Anime Test"}]`, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/animes/find?name=Nope", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestFindByIDMissingIsBadRequest(t *testing.T) {
	h := newAnimeRouter("Anime Test")

	rec := serve(t, h, http.MethodGet, "/animes/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Anime Test"}`, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/animes/99", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var p httpx.Payload
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, httpx.TitleBadRequest, p.Title)
	assert.NotEmpty(t, p.Details)

	rec = serve(t, h, http.MethodGet, "/animes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveReturnsCreated(t *testing.T) {
	h := newAnimeRouter("Anime Test")

	rec := serve(t, h, http.MethodPost, "/animes", map[string]string{"name": "Naruto"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/animes/2", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"id":2,"name":"Naruto"}`, rec.Body.String())
}

func TestSaveWithEmptyNameListsField(t *testing.T) {
	h := newAnimeRouter()

	rec := serve(t, h, http.MethodPost, "/animes", map[string]string{"name": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var p httpx.Payload
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	require.NotNil(t, p.ValidationDetails)
	assert.Equal(t, httpx.TitleInvalidFields, p.Title)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "name", p.Errors[0].Field)
}

func TestSaveMalformedBody(t *testing.T) {
	h := newAnimeRouter()

	req := httptest.NewRequest(http.MethodPost, "/animes", bytes.NewBufferString(`{"name":`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplaceAndDelete(t *testing.T) {
	h := newAnimeRouter("Anime Test")

	rec := serve(t, h, http.MethodPut, "/animes", map[string]any{"id": 1, "name": "Berserk"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(t, h, http.MethodPut, "/animes", map[string]any{"id": 7, "name": "Berserk"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, h, http.MethodDelete, "/animes/admin/1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, h, http.MethodDelete, "/animes/admin/1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
