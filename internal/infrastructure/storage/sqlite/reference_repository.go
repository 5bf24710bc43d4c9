package sqlite

import (
	"context"
	"fmt"
	"time"

	"fieldsync/internal/domain/reference"

	"golang.org/x/exp/slog"
)

type ReferenceRepository struct {
	storage *Storage
	log     *slog.Logger
}

func NewReferenceRepository(storage *Storage, log *slog.Logger) *ReferenceRepository {
	return &ReferenceRepository{
		storage: storage,
		log:     log.With(slog.String("component", "reference_repository")),
	}
}

// ReplaceLocations полностью перезаписывает кэш объектов
func (r *ReferenceRepository) ReplaceLocations(ctx context.Context, locations []reference.Location) error {
	db, err := r.storage.Open(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM locations`); err != nil {
		return fmt.Errorf("clear locations: %w", err)
	}

	now := time.Now()
	for _, l := range locations {
		cachedAt := l.CachedAt
		if cachedAt.IsZero() {
			cachedAt = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO locations (id, name, address, cached_at) VALUES (?, ?, ?, ?)`,
			l.ID, l.Name, l.Address, cachedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert location %s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug("locations cache replaced", "count", len(locations))
	return nil
}

// ReplaceUnits полностью перезаписывает кэш помещений
func (r *ReferenceRepository) ReplaceUnits(ctx context.Context, units []reference.Unit) error {
	db, err := r.storage.Open(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM units`); err != nil {
		return fmt.Errorf("clear units: %w", err)
	}

	now := time.Now()
	for _, u := range units {
		cachedAt := u.CachedAt
		if cachedAt.IsZero() {
			cachedAt = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO units (id, location_id, name, cached_at) VALUES (?, ?, ?, ?)`,
			u.ID, u.LocationID, u.Name, cachedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert unit %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug("units cache replaced", "count", len(units))
	return nil
}

// ListLocations фильтрует в Go через filter.Match: LIKE в SQLite не
// учитывает регистр кириллицы и трактует % и _ как шаблон
func (r *ReferenceRepository) ListLocations(ctx context.Context, filter reference.LocationFilter) ([]reference.Location, error) {
	db, err := r.storage.Open(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT id, name, address, cached_at FROM locations ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []reference.Location
	for rows.Next() {
		var l reference.Location
		var cachedAt int64
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &cachedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		l.CachedAt = time.UnixMilli(cachedAt)
		if !filter.Match(l) {
			continue
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *ReferenceRepository) ListUnits(ctx context.Context, filter reference.UnitFilter) ([]reference.Unit, error) {
	db, err := r.storage.Open(ctx)
	if err != nil {
		return nil, err
	}

	query := "SELECT id, location_id, name, cached_at FROM units WHERE 1=1"
	args := []any{}
	if filter.LocationID != "" {
		query += " AND location_id = ?"
		args = append(args, filter.LocationID)
	}
	query += " ORDER BY name ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var out []reference.Unit
	for rows.Next() {
		var u reference.Unit
		var cachedAt int64
		if err := rows.Scan(&u.ID, &u.LocationID, &u.Name, &cachedAt); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.CachedAt = time.UnixMilli(cachedAt)
		out = append(out, u)
	}
	return out, rows.Err()
}
