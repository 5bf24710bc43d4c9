package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fieldsync/internal/domain/inspection"
	"fieldsync/internal/utils/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "device-1", 5*time.Second, logger.Discard())
}

func TestClient_CreateInspection(t *testing.T) {
	var got inspection.CreateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/inspections", r.URL.Path)
		assert.Equal(t, "device-1", r.Header.Get(HeaderDeviceID))
		assert.Equal(t, "abc", r.Header.Get(HeaderIdempotencyKey))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42}`))
	})

	rec := &inspection.Record{ClientID: "abc", Payload: inspection.Payload{LocationID: "loc-1", Type: "routine"}}
	id, err := c.CreateInspection(context.Background(), inspection.NewCreateRequest(rec))

	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "abc", got.ClientID)
	assert.Equal(t, "loc-1", got.LocationID)
	assert.NotNil(t, got.ChecklistItems)
}

func TestClient_CreateInspection_Duplicate(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		expectedID int64
	}{
		{
			name:       "conflict with id",
			status:     http.StatusConflict,
			body:       `{"error":"exists","id":42}`,
			expectedID: 42,
		},
		{
			name:       "conflict without body",
			status:     http.StatusConflict,
			body:       ``,
			expectedID: 0,
		},
		{
			name:       "duplicate error code",
			status:     http.StatusUnprocessableEntity,
			body:       `{"code":"duplicate","id":7}`,
			expectedID: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			id, err := c.CreateInspection(context.Background(), inspection.CreateRequest{ClientID: "abc"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, inspection.ErrDuplicate))
			assert.Equal(t, tt.expectedID, id)
		})
	}
}

func TestClient_CreateInspection_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database down"}`))
	})

	_, err := c.CreateInspection(context.Background(), inspection.CreateRequest{ClientID: "abc"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, inspection.ErrDuplicate))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "database down", se.Message)
}

func TestClient_UploadMedia(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/inspections/42/media", r.URL.Path)
		assert.Equal(t, "deadbeef", r.Header.Get(HeaderContentDigest))
		assert.Equal(t, "m-1", r.Header.Get(HeaderIdempotencyKey))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "m-1", r.FormValue("client_id"))
		assert.Equal(t, "photo", r.FormValue("kind"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "m-1.jpg", hdr.Filename)
		assert.Equal(t, []byte("jpeg-bytes"), data)

		w.WriteHeader(http.StatusCreated)
	})

	err := c.UploadMedia(context.Background(), 42, inspection.MediaUpload{
		ClientID:    "m-1",
		Kind:        inspection.MediaPhoto,
		ContentType: "image/jpeg",
		CapturedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Data:        []byte("jpeg-bytes"),
		Digest:      "deadbeef",
	})
	require.NoError(t, err)
}

func TestClient_ReviewAndLock(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/api/v1/inspections/9/lock" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.Review(context.Background(), 9))
	err := c.Lock(context.Background(), 9)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Status)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/api/v1/inspections/9/review", "/api/v1/inspections/9/lock"}, paths)
}

func TestClient_FetchReference(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/locations":
			_, _ = w.Write([]byte(`[{"id":"l1","name":"Main St 1"}]`))
		case "/api/v1/units":
			assert.Equal(t, "l1", r.URL.Query().Get("location_id"))
			_, _ = w.Write([]byte(`[{"id":"u1","location_id":"l1","name":"Apt 1"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	locations, err := c.FetchLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "Main St 1", locations[0].Name)

	units, err := c.FetchUnits(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "l1", units[0].LocationID)
}

func TestClient_HealthCheck(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	assert.NoError(t, c.HealthCheck(context.Background()))
	healthy.Store(false)
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestClient_ContextTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CreateInspection(ctx, inspection.CreateRequest{ClientID: "abc"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, inspection.ErrDuplicate))
}
