package migration

import (
	"errors"
	"testing"

	"fieldsync/internal/domain/inspection"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMigrator мок для интерфейса Migrator
type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func (m *MockMigrator) Migrate(version uint) error {
	args := m.Called(version)
	return args.Error(0)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func engineFor(m Migrator) MigrationEngine {
	return func(string) (Migrator, error) {
		return m, nil
	}
}

func TestMigration_Up_FreshDatabase(t *testing.T) {
	mockM := new(MockMigrator)

	mockM.On("Version").Return(uint(0), false, migrate.ErrNilVersion)
	mockM.On("Migrate", SchemaVersion).Return(nil)
	mockM.On("Close").Return(nil, nil)

	mg := NewMigration("sqlite3://test.db", SchemaVersion, engineFor(mockM))
	err := mg.Up()

	assert.NoError(t, err)
	mockM.AssertExpectations(t)
}

func TestMigration_Up_Upgrade(t *testing.T) {
	mockM := new(MockMigrator)

	// Старая схема v1 поднимается до v2 без потери данных
	mockM.On("Version").Return(uint(1), false, nil)
	mockM.On("Migrate", SchemaVersion).Return(nil)
	mockM.On("Close").Return(nil, nil)

	err := NewMigration("", SchemaVersion, engineFor(mockM)).Up()

	assert.NoError(t, err)
	mockM.AssertExpectations(t)
}

func TestMigration_Up_NoChange(t *testing.T) {
	mockM := new(MockMigrator)

	// ErrNoChange не должна считаться ошибкой в методе Up()
	mockM.On("Version").Return(SchemaVersion, false, nil)
	mockM.On("Migrate", SchemaVersion).Return(migrate.ErrNoChange)
	mockM.On("Close").Return(nil, nil)

	err := NewMigration("", SchemaVersion, engineFor(mockM)).Up()

	assert.NoError(t, err)
}

func TestMigration_Up_Downgrade(t *testing.T) {
	mockM := new(MockMigrator)

	mockM.On("Version").Return(SchemaVersion+1, false, nil)
	mockM.On("Close").Return(nil, nil)

	err := NewMigration("", SchemaVersion, engineFor(mockM)).Up()

	assert.ErrorIs(t, err, inspection.ErrSchema)
	mockM.AssertNotCalled(t, "Migrate", mock.Anything)
}

func TestMigration_Up_Dirty(t *testing.T) {
	mockM := new(MockMigrator)

	mockM.On("Version").Return(uint(1), true, nil)
	mockM.On("Close").Return(nil, nil)

	err := NewMigration("", SchemaVersion, engineFor(mockM)).Up()

	assert.ErrorIs(t, err, inspection.ErrSchema)
}

func TestMigration_Up_EngineError(t *testing.T) {
	// Ошибка на этапе создания мигратора (например, неверный драйвер)
	engine := func(string) (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	err := NewMigration("", SchemaVersion, engine).Up()

	assert.ErrorIs(t, err, inspection.ErrSchema)
	assert.Contains(t, err.Error(), "engine crash")
}

func TestMigration_Up_CloseError(t *testing.T) {
	mockM := new(MockMigrator)

	mockM.On("Version").Return(uint(0), false, migrate.ErrNilVersion)
	mockM.On("Migrate", SchemaVersion).Return(nil)
	mockM.On("Close").Return(nil, errors.New("db close failed"))

	err := NewMigration("", SchemaVersion, engineFor(mockM)).Up()

	assert.EqualError(t, err, "db close failed")
}
