package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fieldsync/internal/domain/inspection"
	"fieldsync/internal/infrastructure/migration"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"
)

// Storage локальное хранилище на SQLite. Open идемпотентен:
// повторные вызовы возвращают тот же хэндл, параллельные первые
// открытия разделяют одну операцию.
type Storage struct {
	path   string
	log    *slog.Logger
	target uint
	engine migration.MigrationEngine

	mu    sync.Mutex
	db    *sql.DB
	group singleflight.Group
}

const openTimeout = 30 * time.Second

type Option func(*Storage)

// WithSchemaVersion задает целевую версию схемы
func WithSchemaVersion(v uint) Option {
	return func(s *Storage) {
		s.target = v
	}
}

// WithMigrationEngine подменяет движок миграций
func WithMigrationEngine(engine migration.MigrationEngine) Option {
	return func(s *Storage) {
		s.engine = engine
	}
}

func New(path string, log *slog.Logger, opts ...Option) *Storage {
	s := &Storage{
		path:   path,
		log:    log.With(slog.String("component", "sqlite_storage")),
		target: migration.SchemaVersion,
		engine: migration.DefaultEngine,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open открывает базу (или возвращает уже открытую).
// Открытие общее для всех конкурентных вызовов, поэтому отмена ctx
// первого вызывающего на него не влияет; время ограничено openTimeout.
func (s *Storage) Open(ctx context.Context) (*sql.DB, error) {
	if db := s.current(); db != nil {
		return db, nil
	}

	v, err, shared := s.group.Do("open", func() (any, error) {
		openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), openTimeout)
		defer cancel()
		return s.open(openCtx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("open shared with in-flight caller")
	}
	return v.(*sql.DB), nil
}

func (s *Storage) current() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

func (s *Storage) open(ctx context.Context) (*sql.DB, error) {
	if db := s.current(); db != nil {
		return db, nil
	}

	if err := ensureWritableDir(filepath.Dir(s.path)); err != nil {
		return nil, fmt.Errorf("%w: %v", inspection.ErrStorageUnavailable, err)
	}

	if err := migration.NewMigration(migration.DatabaseURL(s.path), s.target, s.engine).Up(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", s.path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", inspection.ErrStorageUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", inspection.ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	s.db = db
	s.mu.Unlock()

	s.log.Info("local storage opened", slog.String("path", s.path), slog.Uint64("schema", uint64(s.target)))
	return db, nil
}

// Close освобождает хэндл. Следующий Open инициализирует базу заново.
func (s *Storage) Close() error {
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.mu.Unlock()

	if db == nil {
		return nil
	}
	return db.Close()
}

// Path путь к файлу базы
func (s *Storage) Path() string {
	return s.path
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
