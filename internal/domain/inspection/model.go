package inspection

import (
	"time"
)

// Geo координаты места осмотра
type Geo struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// Payload метаданные осмотра
type Payload struct {
	LocationID  string    `json:"location_id"`
	UnitID      string    `json:"unit_id,omitempty"`
	Type        string    `json:"type"`
	InspectedAt time.Time `json:"inspected_at"`
	Geo         *Geo      `json:"geo,omitempty"`
	DeviceID    string    `json:"device_id"`
	Notes       string    `json:"notes,omitempty"`
}

// ChecklistItem пункт чек-листа
type ChecklistItem struct {
	ClientID  string `json:"client_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Condition string `json:"condition"`
	Comment   string `json:"comment,omitempty"`
	Score     *int   `json:"score,omitempty"`
	Severity  string `json:"severity,omitempty"`
	FollowUp  bool   `json:"follow_up"`
}

// MediaItem вложение. Raw хранится локально и никогда не отправляется как есть.
type MediaItem struct {
	ClientID    string    `json:"client_id"`
	Raw         []byte    `json:"raw"`
	Kind        MediaKind `json:"kind"`
	ContentType string    `json:"content_type,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	CapturedAt  time.Time `json:"captured_at"`
}

// MeterReading показание счетчика
type MeterReading struct {
	ClientID      string    `json:"client_id"`
	MeterKind     string    `json:"meter_kind"`
	PreviousValue float64   `json:"previous_value"`
	CurrentValue  float64   `json:"current_value"`
	ReadingDate   time.Time `json:"reading_date"`
}

// Record черновик осмотра - единица работы синхронизации.
// ClientID назначается один раз при создании и служит ключом идемпотентности.
type Record struct {
	ClientID         string          `json:"client_id"`
	Payload          Payload         `json:"payload"`
	RecordState      RecordState     `json:"record_state"`
	ChecklistItems   []ChecklistItem `json:"checklist_items"`
	MediaItems       []MediaItem     `json:"media_items"`
	MeterReadings    []MeterReading  `json:"meter_readings"`
	SyncState        SyncState       `json:"sync_state,omitempty"`
	ServerID         int64           `json:"server_id,omitempty"`
	SyncError        string          `json:"sync_error,omitempty"`
	Attempts         int             `json:"attempts"`
	CreatedAt        time.Time       `json:"created_at"`
	LastModified     time.Time       `json:"last_modified"`
	SubmittedAt      *time.Time      `json:"submitted_at,omitempty"`
	OfflineCreatedAt *time.Time      `json:"offline_created_at,omitempty"`
	SyncedAt         *time.Time      `json:"synced_at,omitempty"`
}

// IsDraft проверяет, что запись еще не отправлена пользователем
func (r *Record) IsDraft() bool {
	return r.RecordState != StateSubmitted
}

// Clone возвращает глубокую копию записи
func (r *Record) Clone() *Record {
	c := *r
	c.ChecklistItems = append([]ChecklistItem(nil), r.ChecklistItems...)
	for i := range c.ChecklistItems {
		if s := r.ChecklistItems[i].Score; s != nil {
			v := *s
			c.ChecklistItems[i].Score = &v
		}
	}
	c.MediaItems = make([]MediaItem, len(r.MediaItems))
	for i, m := range r.MediaItems {
		m.Raw = append([]byte(nil), m.Raw...)
		c.MediaItems[i] = m
	}
	c.MeterReadings = append([]MeterReading(nil), r.MeterReadings...)
	if r.Payload.Geo != nil {
		g := *r.Payload.Geo
		c.Payload.Geo = &g
	}
	c.SubmittedAt = cloneTime(r.SubmittedAt)
	c.OfflineCreatedAt = cloneTime(r.OfflineCreatedAt)
	c.SyncedAt = cloneTime(r.SyncedAt)
	return &c
}

// Submit переводит запись в submitted и ставит в очередь синхронизации
func (r *Record) Submit(now time.Time) error {
	if r.RecordState == StateSubmitted {
		return ErrAlreadySubmitted
	}
	created := r.CreatedAt
	r.RecordState = StateSubmitted
	r.SyncState = SyncPending
	r.SubmittedAt = &now
	r.OfflineCreatedAt = &created
	r.LastModified = now
	return nil
}

// MarkSynced pending -> synced
func (r *Record) MarkSynced(serverID int64, now time.Time) {
	if serverID != 0 {
		r.ServerID = serverID
	}
	r.SyncState = SyncSynced
	r.SyncError = ""
	r.SyncedAt = &now
	r.LastModified = now
}

// MarkFailed pending -> failed
func (r *Record) MarkFailed(cause error, now time.Time) {
	r.SyncState = SyncFailed
	if cause != nil {
		r.SyncError = cause.Error()
	}
	r.LastModified = now
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
