package inspection

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
)

// RecordState состояние авторинга записи
type RecordState string

const (
	StateDraft     RecordState = "draft"
	StateSubmitted RecordState = "submitted"
)

func (RecordState) Schema() huma.Schema {
	return huma.Schema{
		Type:        "string",
		Enum:        []any{string(StateDraft), string(StateSubmitted)},
		Description: "Состояние авторинга записи",
		Examples:    []any{StateSubmitted},
	}
}

// Validate реализует интерфейс huma.Validatable.
func (s RecordState) Validate() error {
	switch s {
	case StateDraft, StateSubmitted:
		return nil
	}
	return fmt.Errorf("invalid record state: %s", s)
}

func (s RecordState) String() string {
	return string(s)
}

// SyncState состояние синхронизации. Пустое значение у черновиков.
type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
	SyncFailed  SyncState = "failed"
)

func (SyncState) Schema() huma.Schema {
	return huma.Schema{
		Type:        "string",
		Enum:        []any{string(SyncPending), string(SyncSynced), string(SyncFailed)},
		Description: "Состояние синхронизации записи",
		Examples:    []any{SyncPending},
	}
}

// Validate реализует интерфейс huma.Validatable.
func (s SyncState) Validate() error {
	switch s {
	case SyncPending, SyncSynced, SyncFailed:
		return nil
	}
	return fmt.Errorf("invalid sync state: %s", s)
}

func (s SyncState) String() string {
	return string(s)
}

// DisplayName возвращает человекочитаемое название состояния.
func (s SyncState) DisplayName() string {
	switch s {
	case SyncPending:
		return "Ожидает отправки"
	case SyncSynced:
		return "Синхронизирована"
	case SyncFailed:
		return "Ошибка синхронизации"
	default:
		return "Черновик"
	}
}

// MediaKind тип вложения
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// Validate реализует интерфейс huma.Validatable.
func (k MediaKind) Validate() error {
	switch k {
	case MediaPhoto, MediaVideo:
		return nil
	}
	return fmt.Errorf("invalid media kind: %s", k)
}

func (k MediaKind) String() string {
	return string(k)
}
