package draft

import (
	"context"
	"fmt"
	"time"

	"fieldsync/internal/app/client/connectivity"
	"fieldsync/internal/domain/inspection"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// DefaultQuietPeriod пауза после последнего изменения перед сохранением
const DefaultQuietPeriod = 2 * time.Second

// Syncer немедленная отправка записи после submit
type Syncer interface {
	SyncOne(ctx context.Context, clientID string) error
}

// Manager жизненный цикл черновиков: создание, редактирование, отправка
type Manager struct {
	repo     inspection.Repository
	syncer   Syncer
	conn     connectivity.Source
	log      *slog.Logger
	quiet    time.Duration
	deviceID string
	now      func() time.Time
}

type Option func(*Manager)

func WithQuietPeriod(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.quiet = d
		}
	}
}

// WithDeviceID значение по умолчанию для Payload.DeviceID
func WithDeviceID(id string) Option {
	return func(m *Manager) {
		m.deviceID = id
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(repo inspection.Repository, syncer Syncer, conn connectivity.Source, log *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		repo:   repo,
		syncer: syncer,
		conn:   conn,
		log:    log.With(slog.String("component", "draft_manager")),
		quiet:  DefaultQuietPeriod,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin создает черновик и сразу сохраняет его
func (m *Manager) Begin(ctx context.Context, payload inspection.Payload) (*Session, error) {
	now := m.now()
	if payload.DeviceID == "" {
		payload.DeviceID = m.deviceID
	}

	rec := &inspection.Record{
		ClientID:     uuid.NewString(),
		Payload:      payload,
		RecordState:  inspection.StateDraft,
		CreatedAt:    now,
		LastModified: now,
	}

	if err := m.repo.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("save new draft: %w", err)
	}

	m.log.Debug("draft created", slog.String("client_id", rec.ClientID))
	return newSession(m, rec), nil
}

// Resume открывает сохраненный черновик для продолжения работы
func (m *Manager) Resume(ctx context.Context, clientID string) (*Session, error) {
	rec, err := m.repo.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !rec.IsDraft() {
		return nil, fmt.Errorf("%w: %s", inspection.ErrAlreadySubmitted, clientID)
	}
	return newSession(m, rec), nil
}
