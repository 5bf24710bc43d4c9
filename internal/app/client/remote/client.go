package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fieldsync/internal/domain/inspection"
	"fieldsync/internal/domain/reference"

	"github.com/go-resty/resty/v2"
	"golang.org/x/exp/slog"
)

const (
	HeaderDeviceID       = "X-Device-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderContentDigest  = "X-Content-Digest"

	// CodeDuplicate код ошибки сервера для уже существующей записи
	CodeDuplicate = "duplicate"

	userAgent = "FieldSync-Agent/1.0"
)

// StatusError ошибка, возвращенная сервером
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// errorBody тело ответа с ошибкой. ID заполняется сервером при дубликате.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
	ID      int64  `json:"id"`
}

// Client HTTP клиент системы учета осмотров
type Client struct {
	http     *resty.Client
	log      *slog.Logger
	deviceID string
}

// New создает клиента. timeout - верхняя граница любого запроса,
// вызывающий может сузить ее через контекст.
func New(baseURL, deviceID string, timeout time.Duration, log *slog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetHeader(HeaderDeviceID, deviceID)

	return &Client{
		http:     rc,
		log:      log.With(slog.String("component", "remote")),
		deviceID: deviceID,
	}
}

// HealthCheck проверяет доступность сервера
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/api/v1/health")
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// CreateInspection создает осмотр на сервере и возвращает его id.
// Если сервер уже знает client_id, возвращается существующий id (если он
// передан) и ошибка, оборачивающая inspection.ErrDuplicate.
func (c *Client) CreateInspection(ctx context.Context, req inspection.CreateRequest) (int64, error) {
	var result inspection.CreateResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(HeaderIdempotencyKey, req.ClientID).
		SetBody(req).
		SetResult(&result).
		Post("/api/v1/inspections")
	if err != nil {
		return 0, fmt.Errorf("create inspection: %w", err)
	}

	if resp.IsError() {
		se := statusError(resp)
		var status *StatusError
		if errors.As(se, &status) && (status.Status == http.StatusConflict || status.Code == CodeDuplicate) {
			existing := existingID(resp.Body())
			c.log.Debug("inspection already exists remotely",
				slog.String("client_id", req.ClientID),
				slog.Int64("server_id", existing),
			)
			return existing, fmt.Errorf("%w: %s", inspection.ErrDuplicate, req.ClientID)
		}
		return 0, fmt.Errorf("create inspection: %w", se)
	}

	if result.ID == 0 {
		return 0, fmt.Errorf("create inspection: empty id in response")
	}

	return result.ID, nil
}

// UploadMedia загружает одно сжатое вложение к осмотру
func (c *Client) UploadMedia(ctx context.Context, serverID int64, m inspection.MediaUpload) error {
	fileName := m.FileName
	if fileName == "" {
		fileName = m.ClientID + ".jpg"
	}

	r := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(serverID, 10)).
		SetHeader(HeaderIdempotencyKey, m.ClientID).
		SetFileReader("file", fileName, bytes.NewReader(m.Data)).
		SetFormData(map[string]string{
			"client_id":    m.ClientID,
			"kind":         string(m.Kind),
			"content_type": m.ContentType,
			"captured_at":  m.CapturedAt.UTC().Format(time.RFC3339),
		})
	if m.Digest != "" {
		r.SetHeader(HeaderContentDigest, m.Digest)
	}

	resp, err := r.Post("/api/v1/inspections/{id}/media")
	if err != nil {
		return fmt.Errorf("upload media %s: %w", m.ClientID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload media %s: %w", m.ClientID, statusError(resp))
	}
	return nil
}

// Review переводит осмотр на сервере в состояние "проверен"
func (c *Client) Review(ctx context.Context, serverID int64) error {
	return c.advance(ctx, serverID, "review")
}

// Lock блокирует осмотр на сервере от изменений
func (c *Client) Lock(ctx context.Context, serverID int64) error {
	return c.advance(ctx, serverID, "lock")
}

func (c *Client) advance(ctx context.Context, serverID int64, action string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(serverID, 10)).
		SetPathParam("action", action).
		Post("/api/v1/inspections/{id}/{action}")
	if err != nil {
		return fmt.Errorf("%s inspection %d: %w", action, serverID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s inspection %d: %w", action, serverID, statusError(resp))
	}
	return nil
}

// FetchLocations загружает список объектов
func (c *Client) FetchLocations(ctx context.Context) ([]reference.Location, error) {
	var locations []reference.Location

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&locations).
		Get("/api/v1/locations")
	if err != nil {
		return nil, fmt.Errorf("fetch locations: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch locations: %w", statusError(resp))
	}
	return locations, nil
}

// FetchUnits загружает помещения. Пустой locationID - все помещения.
func (c *Client) FetchUnits(ctx context.Context, locationID string) ([]reference.Unit, error) {
	var units []reference.Unit

	r := c.http.R().
		SetContext(ctx).
		SetResult(&units)
	if locationID != "" {
		r.SetQueryParam("location_id", locationID)
	}

	resp, err := r.Get("/api/v1/units")
	if err != nil {
		return nil, fmt.Errorf("fetch units: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch units: %w", statusError(resp))
	}
	return units, nil
}

func statusError(resp *resty.Response) error {
	se := &StatusError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}

	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		se.Code = body.Code
		switch {
		case body.Error != "":
			se.Message = body.Error
		case body.Message != "":
			se.Message = body.Message
		}
	}
	return se
}

func existingID(raw []byte) int64 {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0
	}
	return body.ID
}
