package inspection

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) reviewOp() huma.Operation {
	return huma.Operation{
		OperationID: "inspection-review",
		Method:      http.MethodPost,
		Path:        "/api/v1/inspections/{client_id}/review",
		Summary:     "Отметить осмотр проверенным",
		Description: "Вызывает review на сервере для синхронизированной записи",
		Tags:        []string{"inspections"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) lockOp() huma.Operation {
	return huma.Operation{
		OperationID: "inspection-lock",
		Method:      http.MethodPost,
		Path:        "/api/v1/inspections/{client_id}/lock",
		Summary:     "Заблокировать осмотр",
		Description: "Вызывает lock на сервере для синхронизированной записи",
		Tags:        []string{"inspections"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) purgeOp() huma.Operation {
	return huma.Operation{
		OperationID: "inspection-purge",
		Method:      http.MethodDelete,
		Path:        "/api/v1/inspections/{client_id}",
		Summary:     "Удалить синхронизированную запись",
		Description: "Удаляет локальную копию записи; допускается только для synced",
		Tags:        []string{"inspections"},
		Middlewares: h.middleware,
	}
}
