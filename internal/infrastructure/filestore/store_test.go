package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-autopost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "verifications.json"))
}

func pendingRequest(id string, createdAt time.Time) *domain.VerificationRequest {
	return &domain.VerificationRequest{
		VerificationID: id,
		Status:         domain.StatusPending,
		SessionKey:     "login:" + id,
		Metadata:       map[string]string{"account": "bot1"},
		CreatedAt:      createdAt,
	}
}

func TestPut_ThenListPending_IncludesRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, pendingRequest("v1", time.Now().UTC())))

	list, err := s.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v1", list[0].VerificationID)
	assert.Equal(t, domain.StatusPending, list[0].Status)
}

func TestPut_DuplicateID_ReturnsConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, pendingRequest("v1", time.Now().UTC())))
	err := s.Put(ctx, pendingRequest("v1", time.Now().UTC()))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGet_UnknownID_ReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByStatus_OrderedByCreatedAtAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, s.Put(ctx, pendingRequest("newer", base.Add(time.Minute))))
	require.NoError(t, s.Put(ctx, pendingRequest("oldest", base.Add(-time.Minute))))
	require.NoError(t, s.Put(ctx, pendingRequest("middle", base)))

	list, err := s.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "oldest", list[0].VerificationID)
	assert.Equal(t, "middle", list[1].VerificationID)
	assert.Equal(t, "newer", list[2].VerificationID)
}

func TestTransition_PendingToCompleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, pendingRequest("v1", time.Now().UTC())))

	resolvedAt := time.Now().UTC()
	v, err := s.Transition(ctx, "v1", domain.StatusCompleted, "482913", resolvedAt)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, v.Status)
	assert.Equal(t, "482913", v.Code)
	require.NotNil(t, v.ResolvedAt)

	got, err := s.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "482913", got.Code)
}

func TestTransition_AlreadyTerminal_ReturnsConflictAndLeavesRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, pendingRequest("v1", time.Now().UTC())))
	_, err := s.Transition(ctx, "v1", domain.StatusExpired, "", time.Now().UTC())
	require.NoError(t, err)

	_, err = s.Transition(ctx, "v1", domain.StatusCompleted, "482913", time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := s.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)
	assert.Empty(t, got.Code)
}

func TestTransition_UnknownID_ReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Transition(context.Background(), "missing", domain.StatusCompleted, "1", time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindPendingBySessionKey_ReturnsOldestPendingMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	older := pendingRequest("v1", base.Add(-time.Minute))
	older.SessionKey = "login:bot1"
	newer := pendingRequest("v2", base)
	newer.SessionKey = "login:bot1"
	require.NoError(t, s.Put(ctx, older))
	require.NoError(t, s.Put(ctx, newer))

	got, err := s.FindPendingBySessionKey(ctx, "login:bot1")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.VerificationID)
}

func TestFindPendingBySessionKey_IgnoresResolvedRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := pendingRequest("v1", time.Now().UTC())
	v.SessionKey = "login:bot1"
	require.NoError(t, s.Put(ctx, v))
	_, err := s.Transition(ctx, "v1", domain.StatusCompleted, "1", time.Now().UTC())
	require.NoError(t, err)

	_, err = s.FindPendingBySessionKey(ctx, "login:bot1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReset_EmptiesStoreAndDropsOldIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, pendingRequest("v1", time.Now().UTC())))
	require.NoError(t, s.Reset(ctx))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Get(ctx, "v1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoad_CorruptSnapshot_PreservedAndStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verifications.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	// The bad document must still exist under a .corrupt- name.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var preserved bool
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "verifications.json.corrupt-") {
			preserved = true
		}
	}
	assert.True(t, preserved, "corrupt snapshot should be preserved alongside")
}

func TestSave_VisibleToSecondStoreInstance(t *testing.T) {
	// Two Store values sharing one path model the two processes sharing a
	// volume: a write by one must be seen by the next read of the other.
	path := filepath.Join(t.TempDir(), "verifications.json")
	writer := New(path)
	reader := New(path)
	ctx := context.Background()

	require.NoError(t, writer.Put(ctx, pendingRequest("v1", time.Now().UTC())))

	got, err := reader.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	_, err = reader.Transition(ctx, "v1", domain.StatusCompleted, "482913", time.Now().UTC())
	require.NoError(t, err)

	got, err = writer.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "482913", got.Code)
}

func TestSave_NoPartialDocumentOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verifications.json")
	s := New(path)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Put(ctx, pendingRequest(string(rune('a'+i)), time.Now().UTC())))
		// Every intermediate snapshot must parse in full.
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var m map[string]domain.VerificationRequest
		assert.NoError(t, json.Unmarshal(data, &m))
	}
}
