package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fieldsync/internal/app/client/connectivity"
	"fieldsync/internal/app/client/media"
	"fieldsync/internal/domain/inspection"

	"golang.org/x/exp/slog"
)

const (
	DefaultInterval       = 30 * time.Second
	DefaultRequestTimeout = 15 * time.Second
)

// операции для SyncError
const (
	opLoad   = "load"
	opCreate = "create"
	opSave   = "save"
	opList   = "list_pending"
)

// Remote операции сервера, используемые при синхронизации
type Remote interface {
	CreateInspection(ctx context.Context, req inspection.CreateRequest) (int64, error)
	UploadMedia(ctx context.Context, serverID int64, m inspection.MediaUpload) error
}

type Config struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	Media          media.Options
}

func DefaultConfig() Config {
	return Config{
		Interval:       DefaultInterval,
		RequestTimeout: DefaultRequestTimeout,
		Media:          media.DefaultOptions(),
	}
}

// Engine движок синхронизации. Один экземпляр на процесс: флаг прохода
// и таймер принадлежат экземпляру.
type Engine struct {
	repo   inspection.Repository
	remote Remote
	conn   connectivity.Source
	log    *slog.Logger
	cfg    Config
	now    func() time.Time

	running atomic.Bool

	mu       sync.Mutex
	inflight map[string]struct{}

	statsMu sync.RWMutex
	stats   Stats

	wg sync.WaitGroup
}

func New(repo inspection.Repository, remote Remote, conn connectivity.Source, log *slog.Logger, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.Media.MaxWidth <= 0 && cfg.Media.Quality <= 0 {
		cfg.Media = def.Media
	}

	return &Engine{
		repo:     repo,
		remote:   remote,
		conn:     conn,
		log:      log.With(slog.String("component", "sync_engine")),
		cfg:      cfg,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
}

// SyncOne синхронизирует одну запись. Черновик - успешный no-op,
// failed запись требует RetryFailed и возвращает ErrRetryRequired.
func (e *Engine) SyncOne(ctx context.Context, clientID string) error {
	if !e.acquire(clientID) {
		return fmt.Errorf("%w: %s", inspection.ErrInFlight, clientID)
	}
	defer e.release(clientID)

	_, err := e.syncRecord(ctx, clientID)
	return err
}

// SyncAllPending проходит по всем ожидающим записям по очереди, от старых к новым.
// Параллельный вызов возвращает пустой результат со Skipped=true.
// Ошибки отдельных записей собираются в результат и не возвращаются.
func (e *Engine) SyncAllPending(ctx context.Context) *BatchResult {
	if !e.running.CompareAndSwap(false, true) {
		BatchesSkipped.Inc()
		e.log.Debug("sync pass already running, skipping")
		return &BatchResult{Skipped: true, Errors: []SyncError{}}
	}
	defer e.running.Store(false)

	result := &BatchResult{
		StartTime: e.now(),
		Errors:    []SyncError{},
	}

	records, err := e.repo.List(ctx, inspection.Filter{
		RecordState: inspection.StateSubmitted,
		SyncStates:  []inspection.SyncState{inspection.SyncPending},
	})
	if err != nil {
		e.log.Error("list pending records failed", slog.String("error", err.Error()))
		result.Errors = append(result.Errors, SyncError{
			Error:     err.Error(),
			Operation: opList,
			Timestamp: e.now(),
		})
		e.finish(result)
		return result
	}

	PendingRecords.Set(float64(len(records)))
	if len(records) > 0 {
		e.log.Info("sync pass started", slog.Int("pending", len(records)))
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			e.log.Warn("sync pass interrupted", slog.String("error", ctx.Err().Error()))
			break
		}

		if !e.acquire(rec.ClientID) {
			// запись уже отправляется вызовом SyncOne после submit
			e.log.Debug("record in flight, skipping", slog.String("client_id", rec.ClientID))
			continue
		}

		result.Attempted++
		op, err := e.syncRecord(ctx, rec.ClientID)
		e.release(rec.ClientID)

		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, SyncError{
				ClientID:  rec.ClientID,
				Error:     err.Error(),
				Operation: op,
				Timestamp: e.now(),
			})
			continue
		}
		result.Succeeded++
	}

	e.finish(result)
	return result
}

// RetryFailed возвращает failed записи в pending и запускает проход.
// Это единственный путь failed -> pending.
func (e *Engine) RetryFailed(ctx context.Context) (*BatchResult, error) {
	n, err := e.repo.ResetFailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset failed records: %w", err)
	}
	e.log.Info("failed records queued for retry", slog.Int("count", n))

	return e.SyncAllPending(ctx), nil
}

// Run планирует проходы по таймеру (только при наличии сети) и при
// восстановлении связи. Блокируется до отмены контекста.
func (e *Engine) Run(ctx context.Context) {
	events, cancel := e.conn.Subscribe()
	defer cancel()

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	e.log.Info("sync scheduler started", slog.Duration("interval", e.cfg.Interval))

	if e.conn.Online() {
		e.trigger(ctx, "startup")
	}

	for {
		select {
		case <-ctx.Done():
			e.wg.Wait()
			e.log.Info("sync scheduler stopped")
			return
		case <-ticker.C:
			if e.conn.Online() {
				e.trigger(ctx, "timer")
			}
		case online := <-events:
			if online {
				e.trigger(ctx, "reconnect")
			}
		}
	}
}

// IsSyncing идет ли сейчас проход
func (e *Engine) IsSyncing() bool {
	return e.running.Load()
}

func (e *Engine) Stats() Stats {
	e.statsMu.RLock()
	defer e.statsMu.RUnlock()

	s := e.stats
	if s.LastResult != nil {
		r := *s.LastResult
		r.Errors = append([]SyncError(nil), s.LastResult.Errors...)
		s.LastResult = &r
	}
	return s
}

func (e *Engine) trigger(ctx context.Context, reason string) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		result := e.SyncAllPending(ctx)
		if result.Skipped {
			return
		}
		if result.Attempted > 0 {
			e.log.Info("sync pass finished",
				slog.String("reason", reason),
				slog.Int("attempted", result.Attempted),
				slog.Int("succeeded", result.Succeeded),
				slog.Int("failed", result.Failed),
				slog.Duration("duration", result.Duration),
			)
		}
	}()
}

// syncRecord конвейер одной записи. Возвращает операцию, на которой
// произошла ошибка.
func (e *Engine) syncRecord(ctx context.Context, clientID string) (string, error) {
	log := e.log.With(slog.String("client_id", clientID))

	rec, err := e.repo.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, inspection.ErrNotFound) {
			log.Warn("record not found")
		}
		return opLoad, err
	}

	if rec.IsDraft() {
		log.Debug("record is a draft, nothing to sync")
		return "", nil
	}
	if rec.SyncState == inspection.SyncFailed {
		return opLoad, fmt.Errorf("%w: %s", inspection.ErrRetryRequired, clientID)
	}

	rec.Attempts++

	createCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	serverID, err := e.remote.CreateInspection(createCtx, inspection.NewCreateRequest(rec))
	cancel()

	switch {
	case errors.Is(err, inspection.ErrDuplicate):
		log.Info("record already exists remotely, marking synced", slog.Int64("server_id", serverID))
		rec.MarkSynced(serverID, e.now())
		if err := e.repo.Put(ctx, rec); err != nil {
			return opSave, fmt.Errorf("save synced record: %w", err)
		}
		RecordsProcessed.WithLabelValues("duplicate").Inc()
		e.updateStats(func(s *Stats) { s.Duplicates++ })
		return "", nil

	case err != nil:
		log.Warn("create failed", slog.String("error", err.Error()), slog.Int("attempts", rec.Attempts))
		rec.MarkFailed(err, e.now())
		if saveErr := e.repo.Put(ctx, rec); saveErr != nil {
			return opSave, fmt.Errorf("save failed record: %w", saveErr)
		}
		RecordsProcessed.WithLabelValues("failed").Inc()
		e.updateStats(func(s *Stats) { s.TotalFailed++ })
		return opCreate, err
	}

	e.uploadMedia(ctx, log, serverID, rec.MediaItems)

	rec.MarkSynced(serverID, e.now())
	if err := e.repo.Put(ctx, rec); err != nil {
		return opSave, fmt.Errorf("save synced record: %w", err)
	}

	log.Info("record synced", slog.Int64("server_id", serverID))
	RecordsProcessed.WithLabelValues("synced").Inc()
	e.updateStats(func(s *Stats) { s.TotalUploaded++ })
	return "", nil
}

// uploadMedia загружает вложения строго по очереди. Ошибка одного вложения
// только логируется.
func (e *Engine) uploadMedia(ctx context.Context, log *slog.Logger, serverID int64, items []inspection.MediaItem) {
	for _, item := range items {
		processed := media.Process(item.Raw, e.cfg.Media)

		contentType := processed.ContentType
		if !processed.Compressed && item.ContentType != "" {
			contentType = item.ContentType
		}

		upload := inspection.MediaUpload{
			ClientID:    item.ClientID,
			Kind:        item.Kind,
			ContentType: contentType,
			FileName:    item.FileName,
			CapturedAt:  item.CapturedAt,
			Data:        processed.Data,
			Digest:      media.Digest(processed.Data),
		}

		uploadCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
		err := e.remote.UploadMedia(uploadCtx, serverID, upload)
		cancel()

		if err != nil {
			log.Warn("media upload failed, skipping",
				slog.String("media_id", item.ClientID),
				slog.String("error", err.Error()),
			)
			MediaUploads.WithLabelValues("error").Inc()
			e.updateStats(func(s *Stats) { s.MediaFailures++ })
			continue
		}

		MediaUploads.WithLabelValues("ok").Inc()
		e.updateStats(func(s *Stats) { s.MediaUploaded++ })
	}
}

func (e *Engine) finish(result *BatchResult) {
	result.EndTime = e.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	BatchDuration.Observe(result.Duration.Seconds())

	e.updateStats(func(s *Stats) {
		s.TotalBatches++
		if len(result.Errors) == 0 {
			s.LastSuccessful = result.EndTime
		} else {
			s.LastFailed = result.EndTime
		}
		last := *result
		last.Errors = append([]SyncError(nil), result.Errors...)
		s.LastResult = &last
	})
}

func (e *Engine) updateStats(fn func(s *Stats)) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	fn(&e.stats)
}

func (e *Engine) acquire(clientID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[clientID]; busy {
		return false
	}
	e.inflight[clientID] = struct{}{}
	return true
}

func (e *Engine) release(clientID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, clientID)
}
