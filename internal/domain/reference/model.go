package reference

import (
	"strings"
	"time"
)

// Location объект недвижимости
type Location struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Address  string    `json:"address,omitempty"`
	CachedAt time.Time `json:"cached_at"`
}

// Unit помещение внутри объекта
type Unit struct {
	ID         string    `json:"id"`
	LocationID string    `json:"location_id"`
	Name       string    `json:"name"`
	CachedAt   time.Time `json:"cached_at"`
}

// LocationFilter фильтр объектов
type LocationFilter struct {
	Query string
}

// Match проверяет соответствие объекта фильтру (без учета регистра)
func (f LocationFilter) Match(l Location) bool {
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(l.Name), q) ||
		strings.Contains(strings.ToLower(l.Address), q)
}

// UnitFilter фильтр помещений
type UnitFilter struct {
	LocationID string
}

// Match проверяет соответствие помещения фильтру
func (f UnitFilter) Match(u Unit) bool {
	return f.LocationID == "" || u.LocationID == f.LocationID
}
