// Локальный API статуса агента (только loopback):
//GET    /api/v1/health                          # Состояние агента
//GET    /api/v1/sync/status                     # Индикатор: счетчики, сеть, статистика
//POST   /api/v1/sync                            # Синхронизировать сейчас
//POST   /api/v1/sync/retry                      # Повторить failed
//POST   /api/v1/inspections/{client_id}/review  # Review на сервере
//POST   /api/v1/inspections/{client_id}/lock    # Lock на сервере
//DELETE /api/v1/inspections/{client_id}         # Удалить synced запись локально
//GET    /metrics                                # Prometheus

package api

import (
	healthAPI "fieldsync/internal/app/client/api/http/health"
	inspectionAPI "fieldsync/internal/app/client/api/http/inspection"
	"fieldsync/internal/app/client/api/http/middleware/logger"
	syncAPI "fieldsync/internal/app/client/api/http/sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"
)

// Service все, что API требует от агента
type Service interface {
	syncAPI.Servicer
	inspectionAPI.Servicer
}

type Handlers struct {
	Health     *healthAPI.Handler
	Sync       *syncAPI.Handler
	Inspection *inspectionAPI.Handler
}

// New создает *chi.Mux со всеми операциями и /metrics
func New(svc Service, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("FieldSync Agent API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(svc, log)
	h.Health.SetupRoutes(API)
	h.Sync.SetupRoutes(API)
	h.Inspection.SetupRoutes(API)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// handlers создает обработчики; у каждого своя копия цепочки мидлварей
func handlers(svc Service, log *slog.Logger) *Handlers {
	loggerMW := logger.New(log)
	chain := func() huma.Middlewares {
		return huma.Middlewares{loggerMW.Middleware()}
	}

	return &Handlers{
		Health:     healthAPI.NewHandler(svc, log, chain()),
		Sync:       syncAPI.NewHandler(svc, log, chain()),
		Inspection: inspectionAPI.NewHandler(svc, log, chain()),
	}
}
