package inspection

import "time"

// CreateRequest тело запроса создания осмотра на сервере.
// Медиа намеренно не входят в запрос и загружаются отдельно.
type CreateRequest struct {
	ClientID         string          `json:"client_id"`
	LocationID       string          `json:"location_id"`
	UnitID           string          `json:"unit_id,omitempty"`
	Type             string          `json:"type"`
	InspectedAt      time.Time       `json:"inspected_at"`
	Geo              *Geo            `json:"geo,omitempty"`
	DeviceID         string          `json:"device_id"`
	Notes            string          `json:"notes,omitempty"`
	OfflineCreatedAt *time.Time      `json:"offline_created_at,omitempty"`
	ChecklistItems   []ChecklistItem `json:"checklist_items"`
	MeterReadings    []MeterReading  `json:"meter_readings"`
}

// CreateResponse ответ сервера на создание
type CreateResponse struct {
	ID int64 `json:"id"`
}

// MediaUpload подготовленное к отправке вложение
type MediaUpload struct {
	ClientID    string
	Kind        MediaKind
	ContentType string
	FileName    string
	CapturedAt  time.Time
	Data        []byte
	Digest      string
}

// NewCreateRequest собирает запрос создания из записи
func NewCreateRequest(rec *Record) CreateRequest {
	return CreateRequest{
		ClientID:         rec.ClientID,
		LocationID:       rec.Payload.LocationID,
		UnitID:           rec.Payload.UnitID,
		Type:             rec.Payload.Type,
		InspectedAt:      rec.Payload.InspectedAt,
		Geo:              rec.Payload.Geo,
		DeviceID:         rec.Payload.DeviceID,
		Notes:            rec.Payload.Notes,
		OfflineCreatedAt: rec.OfflineCreatedAt,
		ChecklistItems:   nonNilChecklist(rec.ChecklistItems),
		MeterReadings:    nonNilReadings(rec.MeterReadings),
	}
}

func nonNilChecklist(items []ChecklistItem) []ChecklistItem {
	if items == nil {
		return []ChecklistItem{}
	}
	return items
}

func nonNilReadings(items []MeterReading) []MeterReading {
	if items == nil {
		return []MeterReading{}
	}
	return items
}
