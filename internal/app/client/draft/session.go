package draft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fieldsync/internal/domain/inspection"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Session открытый на редактирование черновик.
// Изменения накапливаются в памяти и сохраняются после паузы quiet.
type Session struct {
	m  *Manager
	id string

	// saveMu упорядочивает записи в хранилище: снимок берется под ним,
	// поэтому более поздний снимок всегда пишется последним
	saveMu sync.Mutex

	mu        sync.Mutex
	rec       *inspection.Record
	timer     *time.Timer
	dirty     bool
	submitted bool
	// submitting выставлен, пока отправленная запись пишется в хранилище
	submitting bool
	closed     bool
}

func newSession(m *Manager, rec *inspection.Record) *Session {
	return &Session{m: m, id: rec.ClientID, rec: rec}
}

func (s *Session) ClientID() string {
	return s.id
}

// Record копия текущего состояния
func (s *Session) Record() *inspection.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone()
}

// Edit применяет изменение и планирует сохранение
func (s *Session) Edit(fn func(rec *inspection.Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted || s.submitting {
		return inspection.ErrAlreadySubmitted
	}
	if s.closed {
		return fmt.Errorf("draft session %s closed", s.id)
	}

	fn(s.rec)
	s.rec.LastModified = s.m.now()
	s.dirty = true
	s.scheduleLocked()
	return nil
}

func (s *Session) AddChecklistItem(item inspection.ChecklistItem) error {
	if item.ClientID == "" {
		item.ClientID = uuid.NewString()
	}
	return s.Edit(func(rec *inspection.Record) {
		rec.ChecklistItems = append(rec.ChecklistItems, item)
	})
}

// AddMedia прикладывает исходный файл. Сжатие выполняется при синхронизации.
func (s *Session) AddMedia(item inspection.MediaItem) error {
	if item.ClientID == "" {
		item.ClientID = uuid.NewString()
	}
	if item.Kind == "" {
		item.Kind = inspection.MediaPhoto
	}
	if item.CapturedAt.IsZero() {
		item.CapturedAt = s.m.now()
	}
	return s.Edit(func(rec *inspection.Record) {
		rec.MediaItems = append(rec.MediaItems, item)
	})
}

func (s *Session) AddMeterReading(reading inspection.MeterReading) error {
	if reading.ClientID == "" {
		reading.ClientID = uuid.NewString()
	}
	return s.Edit(func(rec *inspection.Record) {
		rec.MeterReadings = append(rec.MeterReadings, reading)
	})
}

// ForceSave сохраняет накопленные изменения немедленно
func (s *Session) ForceSave(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()

	return s.save(ctx)
}

// Submit переводит черновик в submitted и ставит в очередь синхронизации.
// При наличии сети запись сразу отправляется; ошибка отправки не возвращается,
// запись остается в очереди в состоянии failed или pending.
func (s *Session) Submit(ctx context.Context) error {
	s.saveMu.Lock()

	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		s.saveMu.Unlock()
		return inspection.ErrAlreadySubmitted
	}
	s.stopTimerLocked()

	before := s.rec.Clone()
	if err := s.rec.Submit(s.m.now()); err != nil {
		s.mu.Unlock()
		s.saveMu.Unlock()
		return err
	}
	snapshot := s.rec.Clone()
	s.submitting = true
	s.mu.Unlock()

	if err := s.m.repo.Put(ctx, snapshot); err != nil {
		s.mu.Lock()
		s.rec = before
		s.dirty = true
		s.submitting = false
		s.mu.Unlock()
		s.saveMu.Unlock()
		return fmt.Errorf("save submitted record: %w", err)
	}

	s.mu.Lock()
	s.submitted = true
	s.submitting = false
	s.dirty = false
	s.mu.Unlock()
	s.saveMu.Unlock()

	log := s.m.log.With(slog.String("client_id", snapshot.ClientID))
	log.Info("inspection submitted")

	if s.m.syncer == nil || !s.m.conn.Online() {
		log.Debug("offline, record queued for sync")
		return nil
	}

	if err := s.m.syncer.SyncOne(ctx, snapshot.ClientID); err != nil {
		log.Warn("immediate sync failed", slog.String("error", err.Error()))
	}
	return nil
}

// Close сохраняет несохраненные изменения и закрывает сессию
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimerLocked()
	s.closed = true
	s.mu.Unlock()

	return s.save(ctx)
}

func (s *Session) scheduleLocked() {
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.m.quiet, s.flush)
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) flush() {
	if err := s.save(context.Background()); err != nil {
		s.m.log.Error("debounced save failed",
			slog.String("client_id", s.id),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Session) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty || s.submitted {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.rec.Clone()
	s.dirty = false
	s.mu.Unlock()

	if err := s.m.repo.Put(ctx, snapshot); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return fmt.Errorf("save draft %s: %w", snapshot.ClientID, err)
	}

	s.m.log.Debug("draft saved", slog.String("client_id", snapshot.ClientID))
	return nil
}
