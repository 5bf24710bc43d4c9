package sync

import (
	"fieldsync/internal/app/client/syncengine"
	"fieldsync/internal/domain/inspection"
)

type getStatusInput struct{}

type getStatusOutput struct {
	Body StatusResponse
}

// StatusResponse данные постоянного индикатора синхронизации
type StatusResponse struct {
	Counts  inspection.Counts `json:"counts"`
	Online  bool              `json:"online"`
	Syncing bool              `json:"syncing"`
	Stats   syncengine.Stats  `json:"stats"`
}

type syncNowInput struct{}

type syncNowOutput struct {
	Body *syncengine.BatchResult
}

type retryFailedInput struct{}

type retryFailedOutput struct {
	Body *syncengine.BatchResult
}
