package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "ANIMESESSION", 30*time.Minute, false), mr
}

func requestWith(cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/animes", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestSessionCreateAndLoad(t *testing.T) {
	sm, mr := newSessionManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	sess, err := sm.Create(ctx, rec, "user")
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "ANIMESESSION", cookies[0].Name)
	assert.Equal(t, sess.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	assert.True(t, mr.Exists("animes:session:"+sess.ID))

	loaded, err := sm.Load(ctx, requestWith(cookies))
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "user", loaded.Username)
	assert.Equal(t, sess.ID, loaded.ID)
}

func TestSessionLoadWithoutCookie(t *testing.T) {
	sm, _ := newSessionManager(t)

	sess, err := sm.Load(context.Background(), requestWith(nil))
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSessionLoadIgnoresForgedID(t *testing.T) {
	sm, _ := newSessionManager(t)

	sess, err := sm.Load(context.Background(), requestWith([]*http.Cookie{{Name: "ANIMESESSION", Value: "*"}}))
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSessionExpires(t *testing.T) {
	sm, mr := newSessionManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	_, err := sm.Create(ctx, rec, "user")
	require.NoError(t, err)

	mr.FastForward(31 * time.Minute)
	sess, err := sm.Load(ctx, requestWith(rec.Result().Cookies()))
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSessionDestroy(t *testing.T) {
	sm, mr := newSessionManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	sess, err := sm.Create(ctx, rec, "admin")
	require.NoError(t, err)
	req := requestWith(rec.Result().Cookies())

	out := httptest.NewRecorder()
	require.NoError(t, sm.Destroy(ctx, out, req))
	assert.False(t, mr.Exists("animes:session:"+sess.ID))
	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionStoreFailureSurfaces(t *testing.T) {
	sm, mr := newSessionManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	_, err := sm.Create(ctx, rec, "user")
	require.NoError(t, err)
	mr.Close()

	_, err = sm.Load(ctx, requestWith(rec.Result().Cookies()))
	assert.Error(t, err)
}
