package animes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animedojo/anime-api/internal/shared"
)

type auditStub struct {
	logs []shared.AuditLog
	err  error
}

func (a *auditStub) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

func newTestService(seed ...string) (*Service, *MemoryRepository, *auditStub) {
	repo := NewMemoryRepository(seed...)
	audit := &auditStub{}
	return NewService(repo, audit, nil), repo, audit
}

func TestServiceListAllPaged(t *testing.T) {
	svc, _, _ := newTestService("Anime Test")

	page, err := svc.ListAll(context.Background(), shared.NewPageRequest(0, 20))
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Anime Test", page.Content[0].Name)
	assert.Equal(t, 1, page.TotalPages)
	assert.True(t, page.Last)
}

func TestServiceFindByIDMissing(t *testing.T) {
	svc, _, _ := newTestService("Anime Test")

	_, err := svc.FindByIDOrThrowBadRequest(context.Background(), 42)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.EqualError(t, err, "anime not found")
}

func TestServiceFindByNameNoMatchIsEmpty(t *testing.T) {
	svc, _, _ := newTestService("Anime Test")

	items, err := svc.FindByName(context.Background(), "Missing")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	items, err = svc.FindByName(context.Background(), "Anime Test")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
}

func TestServiceSaveValidatesName(t *testing.T) {
	svc, repo, audit := newTestService()

	for _, name := range []string{"", "   "} {
		_, err := svc.Save(context.Background(), PostRequestBody{Name: name})
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "name", verr.Fields[0].Field)
	}

	all, _ := repo.ListAll(context.Background())
	assert.Empty(t, all)
	assert.Empty(t, audit.logs)
}

func TestServiceSaveAssignsIDAndAudits(t *testing.T) {
	svc, _, audit := newTestService("Anime Test")
	ctx := shared.ContextWithActor(context.Background(), "user")

	saved, err := svc.Save(ctx, PostRequestBody{Name: " Naruto "})
	require.NoError(t, err)
	assert.Equal(t, Anime{ID: 2, Name: "Naruto"}, saved)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "user", audit.logs[0].Actor)
	assert.Equal(t, actionCreate, audit.logs[0].Action)
	assert.Equal(t, "2", audit.logs[0].EntityID)
}

func TestServiceReplace(t *testing.T) {
	svc, repo, audit := newTestService("Anime Test")

	require.NoError(t, svc.Replace(context.Background(), PutRequestBody{ID: 1, Name: "Berserk"}))
	got, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Berserk", got.Name)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "Anime Test", audit.logs[0].Meta["from"])

	err = svc.Replace(context.Background(), PutRequestBody{ID: 9, Name: "Berserk"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.Replace(context.Background(), PutRequestBody{Name: ""})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Equal(t, "id", verr.Fields[0].Field)
	assert.Equal(t, "name", verr.Fields[1].Field)
}

func TestServiceDelete(t *testing.T) {
	svc, repo, audit := newTestService("Anime Test")

	require.NoError(t, svc.Delete(context.Background(), 1))
	_, err := repo.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, actionDelete, audit.logs[0].Action)

	assert.ErrorIs(t, svc.Delete(context.Background(), 1), shared.ErrNotFound)
}

func TestServiceAuditFailureDoesNotFailRequest(t *testing.T) {
	svc, _, audit := newTestService()
	audit.err = errors.New("audit table missing")

	_, err := svc.Save(context.Background(), PostRequestBody{Name: "Monster"})
	assert.NoError(t, err)
}
