package inspection

import (
	"context"
)

// Filter параметры выборки черновиков
type Filter struct {
	SyncStates  []SyncState
	RecordState RecordState
	LocationID  string
	Limit       int
}

// Counts количество записей по состояниям
type Counts struct {
	Drafts  int `json:"drafts"`
	Pending int `json:"pending"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
}

// Repository локальное хранилище черновиков
type Repository interface {
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, clientID string) (*Record, error)
	Delete(ctx context.Context, clientID string) error
	List(ctx context.Context, filter Filter) ([]*Record, error)
	Counts(ctx context.Context) (Counts, error)
	// ResetFailed переводит все failed записи обратно в pending
	ResetFailed(ctx context.Context) (int, error)
}
