package refcache

import (
	"context"
	"sort"
	"time"

	"fieldsync/internal/app/client/connectivity"
	"fieldsync/internal/domain/reference"

	"golang.org/x/exp/slog"
)

const (
	defaultLiveTimeout     = 5 * time.Second
	DefaultRefreshInterval = 15 * time.Minute
)

// Fetcher источник справочных данных на сервере
type Fetcher interface {
	FetchLocations(ctx context.Context) ([]reference.Location, error)
	FetchUnits(ctx context.Context, locationID string) ([]reference.Unit, error)
}

// Manager кэш справочников для работы без сети.
// Ошибки сети никогда не возвращаются вызывающему, только ошибки локального хранилища.
type Manager struct {
	fetcher     Fetcher
	repo        reference.Repository
	conn        connectivity.Source
	log         *slog.Logger
	liveRead    bool
	liveTimeout time.Duration
}

type Option func(*Manager)

// WithLiveRead включает попытку живого чтения при наличии сети
func WithLiveRead(enabled bool) Option {
	return func(m *Manager) {
		m.liveRead = enabled
	}
}

func WithLiveTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.liveTimeout = d
		}
	}
}

func New(fetcher Fetcher, repo reference.Repository, conn connectivity.Source, log *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		fetcher:     fetcher,
		repo:        repo,
		conn:        conn,
		log:         log.With(slog.String("component", "reference_cache")),
		liveRead:    true,
		liveTimeout: defaultLiveTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Refresh перезаписывает кэш данными сервера. Возвращает true, если
// кэш обновлен полностью.
func (m *Manager) Refresh(ctx context.Context) bool {
	if !m.conn.Online() {
		m.log.Debug("refresh skipped, offline")
		return false
	}

	locations, err := m.fetcher.FetchLocations(ctx)
	if err != nil {
		m.log.Warn("fetch locations failed", slog.String("error", err.Error()))
		return false
	}
	if err := m.repo.ReplaceLocations(ctx, locations); err != nil {
		m.log.Error("cache locations failed", slog.String("error", err.Error()))
		return false
	}

	units, err := m.fetcher.FetchUnits(ctx, "")
	if err != nil {
		m.log.Warn("fetch units failed", slog.String("error", err.Error()))
		return false
	}
	if err := m.repo.ReplaceUnits(ctx, units); err != nil {
		m.log.Error("cache units failed", slog.String("error", err.Error()))
		return false
	}

	m.log.Info("reference data refreshed",
		slog.Int("locations", len(locations)),
		slog.Int("units", len(units)),
	)
	return true
}

// Locations объекты по фильтру: живые данные при наличии сети, иначе кэш
func (m *Manager) Locations(ctx context.Context, filter reference.LocationFilter) ([]reference.Location, error) {
	if m.live() {
		fetchCtx, cancel := context.WithTimeout(ctx, m.liveTimeout)
		locations, err := m.fetcher.FetchLocations(fetchCtx)
		cancel()

		if err == nil {
			if err := m.repo.ReplaceLocations(ctx, locations); err != nil {
				m.log.Error("write-through locations failed", slog.String("error", err.Error()))
			}
			out := make([]reference.Location, 0, len(locations))
			for _, l := range locations {
				if filter.Match(l) {
					out = append(out, l)
				}
			}
			sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
			return out, nil
		}
		m.log.Debug("live locations read failed, using cache", slog.String("error", err.Error()))
	}

	return m.repo.ListLocations(ctx, filter)
}

// Units помещения по фильтру: живые данные при наличии сети, иначе кэш
func (m *Manager) Units(ctx context.Context, filter reference.UnitFilter) ([]reference.Unit, error) {
	if m.live() {
		fetchCtx, cancel := context.WithTimeout(ctx, m.liveTimeout)
		units, err := m.fetcher.FetchUnits(fetchCtx, "")
		cancel()

		if err == nil {
			if err := m.repo.ReplaceUnits(ctx, units); err != nil {
				m.log.Error("write-through units failed", slog.String("error", err.Error()))
			}
			out := make([]reference.Unit, 0, len(units))
			for _, u := range units {
				if filter.Match(u) {
					out = append(out, u)
				}
			}
			sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
			return out, nil
		}
		m.log.Debug("live units read failed, using cache", slog.String("error", err.Error()))
	}

	return m.repo.ListUnits(ctx, filter)
}

// RunPeriodic обновляет кэш по таймеру и при восстановлении связи.
// Неположительный interval заменяется на DefaultRefreshInterval.
func (m *Manager) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	events, cancel := m.conn.Subscribe()
	defer cancel()

	m.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Refresh(ctx)
		case online := <-events:
			if online {
				m.Refresh(ctx)
			}
		}
	}
}

func (m *Manager) live() bool {
	return m.liveRead && m.conn.Online()
}
