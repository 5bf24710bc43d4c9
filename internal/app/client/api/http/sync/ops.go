package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) getStatusOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-get-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/status",
		Summary:     "Статус синхронизации",
		Description: "Количество черновиков, ожидающих и ошибочных записей, состояние сети",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) syncNowOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-now",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync",
		Summary:     "Синхронизировать сейчас",
		Description: "Запускает проход по ожидающим записям; если проход уже идет, возвращает skipped",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) retryFailedOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-retry-failed",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/retry",
		Summary:     "Повторить ошибочные",
		Description: "Возвращает failed записи в очередь и запускает проход",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}
