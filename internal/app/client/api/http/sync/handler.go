package sync

import (
	"context"

	"fieldsync/internal/app/client/syncengine"
	"fieldsync/internal/domain/inspection"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Servicer операции синхронизации, доступные индикатору
type Servicer interface {
	Counts(ctx context.Context) (inspection.Counts, error)
	Online() bool
	IsSyncing() bool
	Stats() syncengine.Stats
	SyncNow(ctx context.Context) *syncengine.BatchResult
	RetryFailed(ctx context.Context) (*syncengine.BatchResult, error)
}

type Handler struct {
	service    Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.getStatusOp(), h.getStatus)
	huma.Register(api, h.syncNowOp(), h.syncNow)
	huma.Register(api, h.retryFailedOp(), h.retryFailed)
}

func (h *Handler) getStatus(ctx context.Context, _ *getStatusInput) (*getStatusOutput, error) {
	counts, err := h.service.Counts(ctx)
	if err != nil {
		h.log.Error("failed to count records", slog.String("error", err.Error()))
		return nil, huma.Error503ServiceUnavailable("local storage unavailable", err)
	}

	return &getStatusOutput{
		Body: StatusResponse{
			Counts:  counts,
			Online:  h.service.Online(),
			Syncing: h.service.IsSyncing(),
			Stats:   h.service.Stats(),
		},
	}, nil
}

func (h *Handler) syncNow(ctx context.Context, _ *syncNowInput) (*syncNowOutput, error) {
	return &syncNowOutput{Body: h.service.SyncNow(ctx)}, nil
}

func (h *Handler) retryFailed(ctx context.Context, _ *retryFailedInput) (*retryFailedOutput, error) {
	result, err := h.service.RetryFailed(ctx)
	if err != nil {
		h.log.Error("retry failed records", slog.String("error", err.Error()))
		return nil, huma.Error503ServiceUnavailable("local storage unavailable", err)
	}
	return &retryFailedOutput{Body: result}, nil
}
