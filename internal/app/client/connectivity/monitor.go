package connectivity

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

const maxProbeTimeout = 5 * time.Second

// Prober проверка доступности сервера
type Prober interface {
	HealthCheck(ctx context.Context) error
}

// Source источник состояния сети для движка синхронизации и кэша справочников
type Source interface {
	Online() bool
	// Subscribe возвращает канал переходов online/offline и функцию отписки
	Subscribe() (<-chan bool, func())
}

// Monitor отслеживает доступность сервера.
// Подписчики получают только смены состояния, не каждую проверку.
type Monitor struct {
	prober   Prober
	interval time.Duration
	backoff  *Backoff
	log      *slog.Logger

	mu     sync.RWMutex
	online bool
	subs   map[int]chan bool
	nextID int
}

// NewMonitor создает монитор. С nil prober состояние меняется только через SetOnline.
func NewMonitor(prober Prober, interval time.Duration, log *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		backoff:  NewBackoff(time.Second, interval*6, 2),
		log:      log.With(slog.String("component", "connectivity")),
		subs:     make(map[int]chan bool),
	}
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
	return ch, cancel
}

// SetOnline выставляет состояние и уведомляет подписчиков при смене
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online

	if online {
		m.log.Info("connection restored")
	} else {
		m.log.Warn("connection lost")
	}

	for _, ch := range m.subs {
		// медленный подписчик видит только последнее состояние
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}

// Probe выполняет одну проверку и обновляет состояние
func (m *Monitor) Probe(ctx context.Context) bool {
	if m.prober == nil {
		return m.Online()
	}

	timeout := min(m.interval, maxProbeTimeout)
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := m.prober.HealthCheck(probeCtx)
	if err != nil {
		m.log.Debug("health check failed", slog.String("error", err.Error()))
	}
	m.SetOnline(err == nil)
	return err == nil
}

// Run проверяет сервер до отмены контекста. Пока сервер недоступен,
// интервал растет по Backoff.
func (m *Monitor) Run(ctx context.Context) {
	if m.prober == nil {
		<-ctx.Done()
		return
	}

	for {
		var wait time.Duration
		if m.Probe(ctx) {
			m.backoff.Reset()
			wait = m.interval
		} else {
			wait = m.backoff.Next()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
