package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	gosync "sync"
	"testing"
	"time"

	"fieldsync/internal/app/client/config"
	"fieldsync/internal/domain/inspection"
	"fieldsync/internal/domain/reference"
	"fieldsync/internal/utils/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteServer минимальная система учета осмотров
type remoteServer struct {
	mu      gosync.Mutex
	healthy bool
	nextID  int64
	byKey   map[string]int64
	actions []string
}

func (s *remoteServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/v1/health":
		if !s.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/inspections":
		var req inspection.CreateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if id, ok := s.byKey[req.ClientID]; ok {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "exists", "id": id})
			return
		}
		s.nextID++
		s.byKey[req.ClientID] = s.nextID
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(inspection.CreateResponse{ID: s.nextID})
	case r.URL.Path == "/api/v1/locations":
		_ = json.NewEncoder(w).Encode([]reference.Location{{ID: "l1", Name: "Elm House"}})
	case r.URL.Path == "/api/v1/units":
		_ = json.NewEncoder(w).Encode([]reference.Unit{{ID: "u1", LocationID: "l1", Name: "Apt 1"}})
	default:
		s.actions = append(s.actions, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}
}

func (s *remoteServer) setHealthy(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = v
}

func newTestApp(t *testing.T) (*App, *remoteServer) {
	t.Helper()
	rs := &remoteServer{nextID: 41, byKey: make(map[string]int64)}
	srv := httptest.NewServer(rs)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		Env:              config.EnvLocal,
		RemoteURL:        srv.URL,
		ConfigDir:        dir,
		DataPath:         filepath.Join(dir, "fieldsync.db"),
		DeviceID:         "tablet-1",
		SyncInterval:     time.Hour,
		RequestTimeout:   2 * time.Second,
		ProbeInterval:    time.Second,
		SaveDebounce:     10 * time.Millisecond,
		ReferenceRefresh: time.Hour,
		MediaMaxWidth:    1920,
		MediaQuality:     0.7,
		ReferenceLive:    true,
	}

	app, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, rs
}

func TestApp_OfflineCaptureThenSync(t *testing.T) {
	ctx := context.Background()
	app, rs := newTestApp(t)

	s, err := app.Drafts().Begin(ctx, inspection.Payload{LocationID: "l1", Type: "routine"})
	require.NoError(t, err)
	require.NoError(t, s.AddChecklistItem(inspection.ChecklistItem{Name: "Walls", Condition: "good"}))
	require.NoError(t, s.Submit(ctx))

	counts, err := app.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Pending)

	// сервер недоступен: проход откладывается, запись остается pending
	result := app.SyncNow(ctx)
	assert.Zero(t, result.Attempted)
	rec, err := app.GetRecord(ctx, s.ClientID())
	require.NoError(t, err)
	assert.Equal(t, inspection.SyncPending, rec.SyncState)

	rs.setHealthy(true)
	result = app.SyncNow(ctx)
	assert.Equal(t, 1, result.Succeeded)

	rec, err = app.GetRecord(ctx, s.ClientID())
	require.NoError(t, err)
	assert.Equal(t, inspection.SyncSynced, rec.SyncState)
	assert.Equal(t, int64(42), rec.ServerID)
	assert.True(t, app.Online())
}

func TestApp_ReviewLockPurge(t *testing.T) {
	ctx := context.Background()
	app, rs := newTestApp(t)
	rs.setHealthy(true)
	require.True(t, app.CheckConnection(ctx))

	pending, err := app.Drafts().Begin(ctx, inspection.Payload{LocationID: "l1"})
	require.NoError(t, err)
	assert.ErrorIs(t, app.PurgeSynced(ctx, pending.ClientID()), inspection.ErrNotSynced)
	assert.ErrorIs(t, app.ReviewRecord(ctx, "missing"), inspection.ErrNotFound)

	// при наличии сети submit сразу отправляет запись
	require.NoError(t, pending.Submit(ctx))
	rec, err := app.GetRecord(ctx, pending.ClientID())
	require.NoError(t, err)
	require.Equal(t, inspection.SyncSynced, rec.SyncState)

	require.NoError(t, app.ReviewRecord(ctx, rec.ClientID))
	require.NoError(t, app.LockRecord(ctx, rec.ClientID))
	assert.Equal(t, []string{
		"POST /api/v1/inspections/42/review",
		"POST /api/v1/inspections/42/lock",
	}, rs.actions)

	require.NoError(t, app.PurgeSynced(ctx, rec.ClientID))
	_, err = app.GetRecord(ctx, rec.ClientID)
	assert.ErrorIs(t, err, inspection.ErrNotFound)
}

func TestApp_RetryFailedOffline(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)

	s, err := app.Drafts().Begin(ctx, inspection.Payload{})
	require.NoError(t, err)
	require.NoError(t, s.Submit(ctx))

	rec, err := app.GetRecord(ctx, s.ClientID())
	require.NoError(t, err)
	rec.MarkFailed(assert.AnError, time.Now())
	require.NoError(t, app.records.Put(ctx, rec))

	result, err := app.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)

	counts, err := app.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Failed)
	assert.Equal(t, 1, counts.Pending)
}

func TestApp_PurgeAllSynced(t *testing.T) {
	ctx := context.Background()
	app, rs := newTestApp(t)
	rs.setHealthy(true)

	for i := 0; i < 2; i++ {
		s, err := app.Drafts().Begin(ctx, inspection.Payload{})
		require.NoError(t, err)
		require.NoError(t, s.Submit(ctx))
	}
	_, err := app.Drafts().Begin(ctx, inspection.Payload{})
	require.NoError(t, err)

	require.Equal(t, 2, app.SyncNow(ctx).Succeeded)

	n, err := app.PurgeAllSynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	counts, err := app.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, inspection.Counts{Drafts: 1}, counts)
}

func TestApp_ReferenceLookup(t *testing.T) {
	ctx := context.Background()
	app, rs := newTestApp(t)
	rs.setHealthy(true)
	require.True(t, app.CheckConnection(ctx))

	require.True(t, app.References().Refresh(ctx))

	rs.setHealthy(false)
	require.False(t, app.CheckConnection(ctx))

	units, err := app.References().Units(ctx, reference.UnitFilter{LocationID: "l1"})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Apt 1", units[0].Name)
}
