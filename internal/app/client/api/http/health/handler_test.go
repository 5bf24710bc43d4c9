package health

import (
	"context"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

type staticConn bool

func (s staticConn) Online() bool { return bool(s) }

func TestHandler_healthCheck(t *testing.T) {
	tests := []struct {
		name           string
		online         bool
		expectedStatus string
	}{
		{
			name:           "online agent returns OK",
			online:         true,
			expectedStatus: "OK",
		},
		{
			name:           "offline agent is still healthy",
			online:         false,
			expectedStatus: "OK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handler := NewHandler(staticConn(tt.online), slog.Default(), huma.Middlewares{})

			// Act
			output, err := handler.healthCheck(context.Background(), &Input{})

			// Assert
			assert.NoError(t, err)
			assert.NotNil(t, output)
			assert.Equal(t, tt.expectedStatus, output.Body.Status)
			assert.Equal(t, tt.online, output.Body.Online)
		})
	}
}

func TestNewHandler(t *testing.T) {
	handler := NewHandler(staticConn(true), slog.Default(), huma.Middlewares{})

	assert.NotNil(t, handler)
	assert.NotNil(t, handler.log)
	assert.NotNil(t, handler.middleware)
}
