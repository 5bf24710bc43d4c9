package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"fieldsync/internal/app/client/api"
	"fieldsync/internal/app/client/config"
	"fieldsync/internal/app/client/connectivity"
	"fieldsync/internal/app/client/draft"
	"fieldsync/internal/app/client/media"
	"fieldsync/internal/app/client/refcache"
	"fieldsync/internal/app/client/remote"
	"fieldsync/internal/app/client/syncengine"
	"fieldsync/internal/domain/inspection"
	"fieldsync/internal/infrastructure/storage/sqlite"
)

const openTimeout = 30 * time.Second

// App агент сбора осмотров: хранилище, синхронизация, кэш справочников
type App struct {
	config  *config.Config
	log     *slog.Logger
	storage *sqlite.Storage
	records *sqlite.DraftRepository
	remote  *remote.Client
	monitor *connectivity.Monitor
	engine  *syncengine.Engine
	refs    *refcache.Manager
	drafts  *draft.Manager
	wg      gosync.WaitGroup
	cancel  context.CancelFunc
	mu      gosync.Mutex
}

// New открывает локальное хранилище и собирает компоненты.
// Ошибки хранилища (ErrStorageUnavailable, ErrSchema) фатальны.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	storage := sqlite.New(cfg.DataPath, log)

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()
	if _, err := storage.Open(ctx); err != nil {
		return nil, fmt.Errorf("ошибка открытия локального хранилища: %w", err)
	}

	records := sqlite.NewDraftRepository(storage, log)
	references := sqlite.NewReferenceRepository(storage, log)

	remoteClient := remote.New(cfg.RemoteURL, cfg.DeviceID, cfg.RequestTimeout, log)
	monitor := connectivity.NewMonitor(remoteClient, cfg.ProbeInterval, log)

	engine := syncengine.New(records, remoteClient, monitor, log, syncengine.Config{
		Interval:       cfg.SyncInterval,
		RequestTimeout: cfg.RequestTimeout,
		Media: media.Options{
			MaxWidth: cfg.MediaMaxWidth,
			Quality:  cfg.MediaQuality,
		},
	})

	refs := refcache.New(remoteClient, references, monitor, log,
		refcache.WithLiveRead(cfg.ReferenceLive),
		refcache.WithLiveTimeout(cfg.RequestTimeout),
	)

	drafts := draft.NewManager(records, engine, monitor, log,
		draft.WithQuietPeriod(cfg.SaveDebounce),
		draft.WithDeviceID(cfg.DeviceID),
	)

	return &App{
		config:  cfg,
		log:     log,
		storage: storage,
		records: records,
		remote:  remoteClient,
		monitor: monitor,
		engine:  engine,
		refs:    refs,
		drafts:  drafts,
	}, nil
}

// Run запускает агента до сигнала завершения: мониторинг сети,
// планировщик синхронизации, обновление справочников и API статуса.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	go a.handleSignals()

	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		a.monitor.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.engine.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.refs.RunPeriodic(ctx, a.config.ReferenceRefresh)
	}()

	errCh := make(chan error, 1)
	if a.config.StatusAddress != "" {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			errCh <- a.serveStatus(ctx)
		}()
	}

	a.log.Info("Агент запущен",
		slog.String("remote", a.config.RemoteURL),
		slog.String("env", a.config.Env),
		slog.String("device_id", a.config.DeviceID),
	)

	a.wg.Wait()
	close(errCh)

	closeErr := a.Close()
	if err := <-errCh; err != nil {
		return err
	}
	return closeErr
}

func (a *App) serveStatus(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.StatusAddress,
		Handler:           api.New(a, a.log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Info("API статуса запущен", slog.String("address", a.config.StatusAddress))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.Shutdown()
		return fmt.Errorf("ошибка API статуса: %w", err)
	}
	return nil
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	a.log.Info("Получен сигнал завершения", slog.String("signal", sig.String()))

	a.Shutdown()
}

// Shutdown останавливает фоновые процессы
func (a *App) Shutdown() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Close освобождает локальное хранилище
func (a *App) Close() error {
	return a.storage.Close()
}

func (a *App) Config() *config.Config {
	return a.config
}

// Drafts менеджер черновиков
func (a *App) Drafts() *draft.Manager {
	return a.drafts
}

// References кэш справочников
func (a *App) References() *refcache.Manager {
	return a.refs
}

// CheckConnection проверяет сервер и обновляет состояние сети
func (a *App) CheckConnection(ctx context.Context) bool {
	return a.monitor.Probe(ctx)
}

func (a *App) Online() bool {
	return a.monitor.Online()
}

func (a *App) IsSyncing() bool {
	return a.engine.IsSyncing()
}

func (a *App) Stats() syncengine.Stats {
	return a.engine.Stats()
}

func (a *App) Counts(ctx context.Context) (inspection.Counts, error) {
	return a.records.Counts(ctx)
}

// ListRecords записи из локального хранилища
func (a *App) ListRecords(ctx context.Context, filter inspection.Filter) ([]*inspection.Record, error) {
	return a.records.List(ctx, filter)
}

func (a *App) GetRecord(ctx context.Context, clientID string) (*inspection.Record, error) {
	return a.records.Get(ctx, clientID)
}

// SyncNow запускает проход синхронизации. Без сети проход не выполняется:
// иначе все ожидающие записи стали бы failed.
func (a *App) SyncNow(ctx context.Context) *syncengine.BatchResult {
	if !a.ensureOnline(ctx) {
		a.log.Info("Нет связи с сервером, синхронизация отложена")
		return &syncengine.BatchResult{Errors: []syncengine.SyncError{}}
	}
	return a.engine.SyncAllPending(ctx)
}

// RetryFailed возвращает failed записи в очередь. При наличии сети
// сразу выполняется проход, иначе записи уйдут при восстановлении связи.
func (a *App) RetryFailed(ctx context.Context) (*syncengine.BatchResult, error) {
	if !a.ensureOnline(ctx) {
		n, err := a.records.ResetFailed(ctx)
		if err != nil {
			return nil, fmt.Errorf("reset failed records: %w", err)
		}
		a.log.Info("Нет связи с сервером, записи возвращены в очередь", slog.Int("count", n))
		return &syncengine.BatchResult{Errors: []syncengine.SyncError{}}, nil
	}
	return a.engine.RetryFailed(ctx)
}

// ReviewRecord отмечает синхронизированный осмотр проверенным на сервере
func (a *App) ReviewRecord(ctx context.Context, clientID string) error {
	rec, err := a.syncedRecord(ctx, clientID)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()
	return a.remote.Review(reqCtx, rec.ServerID)
}

// LockRecord блокирует синхронизированный осмотр на сервере
func (a *App) LockRecord(ctx context.Context, clientID string) error {
	rec, err := a.syncedRecord(ctx, clientID)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()
	return a.remote.Lock(reqCtx, rec.ServerID)
}

// PurgeSynced удаляет локальную копию синхронизированной записи.
// Записи в других состояниях не удаляются.
func (a *App) PurgeSynced(ctx context.Context, clientID string) error {
	if _, err := a.syncedRecord(ctx, clientID); err != nil {
		return err
	}
	if err := a.records.Delete(ctx, clientID); err != nil {
		return err
	}
	a.log.Info("Синхронизированная запись удалена", slog.String("client_id", clientID))
	return nil
}

// PurgeAllSynced удаляет все синхронизированные записи и возвращает их количество
func (a *App) PurgeAllSynced(ctx context.Context) (int, error) {
	synced, err := a.records.List(ctx, inspection.Filter{
		RecordState: inspection.StateSubmitted,
		SyncStates:  []inspection.SyncState{inspection.SyncSynced},
	})
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, rec := range synced {
		if err := a.records.Delete(ctx, rec.ClientID); err != nil {
			return purged, err
		}
		purged++
	}
	return purged, nil
}

func (a *App) syncedRecord(ctx context.Context, clientID string) (*inspection.Record, error) {
	rec, err := a.records.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if rec.SyncState != inspection.SyncSynced || rec.ServerID == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", inspection.ErrNotSynced, clientID, rec.SyncState.DisplayName())
	}
	return rec, nil
}

func (a *App) ensureOnline(ctx context.Context) bool {
	if a.monitor.Online() {
		return true
	}
	return a.monitor.Probe(ctx)
}
