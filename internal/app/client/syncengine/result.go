package syncengine

import (
	"time"
)

// SyncError ошибка синхронизации одной записи
type SyncError struct {
	ClientID  string    `json:"client_id"`
	Error     string    `json:"error"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchResult итог прохода синхронизации.
// Skipped=true означает, что проход уже выполнялся и этот вызов ничего не сделал.
type BatchResult struct {
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Errors    []SyncError   `json:"errors"`
	Skipped   bool          `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
}

// Stats накопленная статистика движка
type Stats struct {
	TotalBatches   int          `json:"total_batches"`
	LastSuccessful time.Time    `json:"last_successful"`
	LastFailed     time.Time    `json:"last_failed"`
	TotalUploaded  int          `json:"total_uploaded"`
	TotalFailed    int          `json:"total_failed"`
	Duplicates     int          `json:"duplicates"`
	MediaUploaded  int          `json:"media_uploaded"`
	MediaFailures  int          `json:"media_failures"`
	LastResult     *BatchResult `json:"last_result,omitempty"`
}
