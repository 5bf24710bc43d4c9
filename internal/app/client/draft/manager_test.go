package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fieldsync/internal/app/client/connectivity"
	"fieldsync/internal/domain/inspection"
	"fieldsync/internal/utils/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memRepo хранилище в памяти со счетчиком записей
type memRepo struct {
	mu      sync.Mutex
	records map[string]*inspection.Record
	puts    int
	putErr  error
	// blockPut, если задан, задерживает Put до закрытия канала
	blockPut chan struct{}
	entered  chan struct{}
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]*inspection.Record)}
}

func (r *memRepo) Put(_ context.Context, rec *inspection.Record) error {
	r.mu.Lock()
	block, entered := r.blockPut, r.entered
	r.mu.Unlock()
	if block != nil {
		entered <- struct{}{}
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.puts++
	r.records[rec.ClientID] = rec.Clone()
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*inspection.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, inspection.ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *memRepo) List(context.Context, inspection.Filter) ([]*inspection.Record, error) {
	return nil, nil
}

func (r *memRepo) Counts(context.Context) (inspection.Counts, error) {
	return inspection.Counts{}, nil
}

func (r *memRepo) ResetFailed(context.Context) (int, error) {
	return 0, nil
}

func (r *memRepo) putCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts
}

type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) SyncOne(ctx context.Context, clientID string) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

func setup(t *testing.T, online bool) (*Manager, *memRepo, *MockSyncer) {
	t.Helper()
	log := logger.Discard()
	repo := newMemRepo()
	syncer := &MockSyncer{}
	conn := connectivity.NewMonitor(nil, time.Second, log)
	conn.SetOnline(online)

	m := NewManager(repo, syncer, conn, log,
		WithQuietPeriod(30*time.Millisecond),
		WithDeviceID("tablet-7"),
	)
	return m, repo, syncer
}

func TestManager_BeginPersistsImmediately(t *testing.T) {
	m, repo, _ := setup(t, false)

	s, err := m.Begin(context.Background(), inspection.Payload{LocationID: "loc-1", Type: "move_in"})
	require.NoError(t, err)

	_, err = uuid.Parse(s.ClientID())
	assert.NoError(t, err)

	stored, err := repo.Get(context.Background(), s.ClientID())
	require.NoError(t, err)
	assert.Equal(t, inspection.StateDraft, stored.RecordState)
	assert.Equal(t, inspection.SyncState(""), stored.SyncState)
	assert.Equal(t, "tablet-7", stored.Payload.DeviceID)
	assert.Equal(t, 1, repo.putCount())
}

func TestSession_DebounceCoalescesEdits(t *testing.T) {
	m, repo, _ := setup(t, false)
	s, err := m.Begin(context.Background(), inspection.Payload{LocationID: "loc-1"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddChecklistItem(inspection.ChecklistItem{Name: "item", Condition: "good"}))
	}
	// до истечения паузы ничего не записано
	assert.Equal(t, 1, repo.putCount())

	require.Eventually(t, func() bool { return repo.putCount() == 2 }, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 2, repo.putCount())

	stored, err := repo.Get(context.Background(), s.ClientID())
	require.NoError(t, err)
	assert.Len(t, stored.ChecklistItems, 5)
}

func TestSession_ForceSave(t *testing.T) {
	m, repo, _ := setup(t, false)
	s, err := m.Begin(context.Background(), inspection.Payload{})
	require.NoError(t, err)

	require.NoError(t, s.AddMeterReading(inspection.MeterReading{MeterKind: "water", CurrentValue: 12.5}))
	require.NoError(t, s.ForceSave(context.Background()))
	assert.Equal(t, 2, repo.putCount())

	// таймер отменен, повторной записи нет
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 2, repo.putCount())

	stored, err := repo.Get(context.Background(), s.ClientID())
	require.NoError(t, err)
	require.Len(t, stored.MeterReadings, 1)
	assert.NotEmpty(t, stored.MeterReadings[0].ClientID)
}

func TestSession_SubmitOffline(t *testing.T) {
	m, repo, syncer := setup(t, false)
	s, err := m.Begin(context.Background(), inspection.Payload{LocationID: "loc-1"})
	require.NoError(t, err)
	require.NoError(t, s.AddMedia(inspection.MediaItem{Raw: []byte("raw")}))

	require.NoError(t, s.Submit(context.Background()))

	stored, err := repo.Get(context.Background(), s.ClientID())
	require.NoError(t, err)
	assert.Equal(t, inspection.StateSubmitted, stored.RecordState)
	assert.Equal(t, inspection.SyncPending, stored.SyncState)
	require.NotNil(t, stored.OfflineCreatedAt)
	assert.True(t, stored.OfflineCreatedAt.Equal(stored.CreatedAt))
	require.NotNil(t, stored.SubmittedAt)
	assert.Len(t, stored.MediaItems, 1, "pending edits are included in the submitted record")
	syncer.AssertNotCalled(t, "SyncOne", mock.Anything, mock.Anything)
}

func TestSession_SubmitOnlineSyncsImmediately(t *testing.T) {
	tests := []struct {
		name    string
		syncErr error
	}{
		{name: "sync succeeds"},
		{name: "sync failure is not returned", syncErr: errors.New("remote 500")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, syncer := setup(t, true)
			s, err := m.Begin(context.Background(), inspection.Payload{})
			require.NoError(t, err)

			syncer.On("SyncOne", mock.Anything, s.ClientID()).Return(tt.syncErr).Once()

			require.NoError(t, s.Submit(context.Background()))
			syncer.AssertExpectations(t)
		})
	}
}

func TestSession_EditAfterSubmit(t *testing.T) {
	m, repo, _ := setup(t, false)
	s, err := m.Begin(context.Background(), inspection.Payload{})
	require.NoError(t, err)
	require.NoError(t, s.Submit(context.Background()))

	err = s.AddChecklistItem(inspection.ChecklistItem{Name: "late"})
	assert.ErrorIs(t, err, inspection.ErrAlreadySubmitted)
	assert.ErrorIs(t, s.Submit(context.Background()), inspection.ErrAlreadySubmitted)

	_, err = m.Resume(context.Background(), s.ClientID())
	assert.ErrorIs(t, err, inspection.ErrAlreadySubmitted)

	stored, err := repo.Get(context.Background(), s.ClientID())
	require.NoError(t, err)
	assert.Empty(t, stored.ChecklistItems)
}

func TestSession_SubmitStoreFailureKeepsDraft(t *testing.T) {
	m, repo, _ := setup(t, false)
	s, err := m.Begin(context.Background(), inspection.Payload{})
	require.NoError(t, err)

	repo.mu.Lock()
	repo.putErr = errors.New("disk full")
	repo.mu.Unlock()

	require.Error(t, s.Submit(context.Background()))
	assert.True(t, s.Record().IsDraft())

	repo.mu.Lock()
	repo.putErr = nil
	repo.mu.Unlock()

	require.NoError(t, s.Submit(context.Background()))
	assert.False(t, s.Record().IsDraft())
}

func TestSession_CloseFlushesAndResume(t *testing.T) {
	m, _, _ := setup(t, false)
	s, err := m.Begin(context.Background(), inspection.Payload{Notes: "first"})
	require.NoError(t, err)

	require.NoError(t, s.Edit(func(rec *inspection.Record) { rec.Payload.Notes = "edited" }))
	require.NoError(t, s.Close(context.Background()))
	assert.Error(t, s.Edit(func(rec *inspection.Record) {}))

	resumed, err := m.Resume(context.Background(), s.ClientID())
	require.NoError(t, err)
	assert.Equal(t, "edited", resumed.Record().Payload.Notes)

	_, err = m.Resume(context.Background(), "missing")
	assert.ErrorIs(t, err, inspection.ErrNotFound)
}

func TestSession_EditDuringSubmitIsRejected(t *testing.T) {
	tests := []struct {
		name   string
		putErr error
	}{
		{name: "submit succeeds"},
		{name: "submit write fails", putErr: errors.New("disk full")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m, repo, _ := setup(t, false)

			s, err := m.Begin(ctx, inspection.Payload{LocationID: "loc-1", Type: "routine"})
			require.NoError(t, err)

			repo.mu.Lock()
			repo.blockPut = make(chan struct{})
			repo.entered = make(chan struct{}, 1)
			repo.putErr = tt.putErr
			block, entered := repo.blockPut, repo.entered
			repo.mu.Unlock()

			done := make(chan error, 1)
			go func() { done <- s.Submit(ctx) }()

			select {
			case <-entered:
			case <-time.After(2 * time.Second):
				t.Fatal("submit did not reach the store")
			}

			err = s.Edit(func(rec *inspection.Record) { rec.Payload.Notes = "late" })
			assert.ErrorIs(t, err, inspection.ErrAlreadySubmitted)

			repo.mu.Lock()
			repo.blockPut = nil
			repo.mu.Unlock()
			close(block)

			submitErr := <-done
			if tt.putErr != nil {
				require.Error(t, submitErr)
				assert.Equal(t, inspection.StateDraft, s.Record().RecordState)
				// после неудачной отправки черновик снова редактируется
				assert.NoError(t, s.Edit(func(rec *inspection.Record) { rec.Payload.Notes = "retry" }))
			} else {
				require.NoError(t, submitErr)
			}
			assert.NotEqual(t, "late", s.Record().Payload.Notes)
		})
	}
}
