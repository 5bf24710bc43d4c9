package migration

import (
	"embed"
	"errors"
	"fmt"

	"fieldsync/internal/domain/inspection"

	"github.com/golang-migrate/migrate/v4"
	// Blank import required for SQLite driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// SchemaVersion последняя известная клиенту версия схемы
const SchemaVersion uint = 2

//go:embed sql/*.sql
var migrations embed.FS

// Migrator интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Version() (uint, bool, error)
	Migrate(version uint) error
	Close() (error, error)
}

// MigrationEngine фабрика для создания мигратора (чтобы не лезть в ФС и БД в тестах)
type MigrationEngine func(databaseURL string) (Migrator, error)

type Migration struct {
	databaseURL string
	target      uint
	engine      MigrationEngine
}

func NewMigration(databaseURL string, target uint, engine MigrationEngine) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{
		databaseURL: databaseURL,
		target:      target,
		engine:      engine,
	}
}

// DefaultEngine реальная реализация: встроенные миграции + sqlite3
func DefaultEngine(databaseURL string) (Migrator, error) {
	src, err := iofs.New(migrations, "sql")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, databaseURL)
}

// DatabaseURL строит URL драйвера sqlite3 для файла базы
func DatabaseURL(path string) string {
	return "sqlite3://" + path
}

// Up поднимает схему до целевой версии. Даунгрейд не поддерживается.
func (mg *Migration) Up() (err error) {
	m, err := mg.engine(mg.databaseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", inspection.ErrSchema, err)
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("%w: read version: %v", inspection.ErrSchema, err)
	}
	if dirty {
		return fmt.Errorf("%w: version %d is dirty", inspection.ErrSchema, current)
	}
	if current > mg.target {
		return fmt.Errorf("%w: stored version %d is newer than supported %d",
			inspection.ErrSchema, current, mg.target)
	}

	if err := m.Migrate(mg.target); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: migration up error: %v", inspection.ErrSchema, err)
	}
	return nil
}
