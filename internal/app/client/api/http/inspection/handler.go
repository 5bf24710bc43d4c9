package inspection

import (
	"context"
	"errors"

	"fieldsync/internal/domain/inspection"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Servicer операции над уже синхронизированными записями
type Servicer interface {
	ReviewRecord(ctx context.Context, clientID string) error
	LockRecord(ctx context.Context, clientID string) error
	PurgeSynced(ctx context.Context, clientID string) error
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
	huma.Register(api, h.reviewOp(), h.review)
	huma.Register(api, h.lockOp(), h.lock)
	huma.Register(api, h.purgeOp(), h.purge)
}

func (h *Handler) review(ctx context.Context, input *clientIDInput) (*actionOutput, error) {
	return h.do(ctx, "review", input.ClientID, h.service.ReviewRecord)
}

func (h *Handler) lock(ctx context.Context, input *clientIDInput) (*actionOutput, error) {
	return h.do(ctx, "lock", input.ClientID, h.service.LockRecord)
}

func (h *Handler) purge(ctx context.Context, input *clientIDInput) (*actionOutput, error) {
	return h.do(ctx, "purge", input.ClientID, h.service.PurgeSynced)
}

func (h *Handler) do(ctx context.Context, action, clientID string, fn func(context.Context, string) error) (*actionOutput, error) {
	if err := fn(ctx, clientID); err != nil {
		h.log.Warn("record action failed",
			slog.String("action", action),
			slog.String("client_id", clientID),
			slog.String("error", err.Error()),
		)
		return nil, toHTTPError(err)
	}

	return &actionOutput{
		Body: ActionResponse{Status: "OK", ClientID: clientID},
	}, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, inspection.ErrNotFound):
		return huma.Error404NotFound("record not found", err)
	case errors.Is(err, inspection.ErrNotSynced):
		return huma.Error409Conflict("record is not synced yet", err)
	case errors.Is(err, inspection.ErrStorageUnavailable):
		return huma.Error503ServiceUnavailable("local storage unavailable", err)
	default:
		return huma.Error502BadGateway("remote system rejected the request", err)
	}
}
