package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldsync/internal/domain/inspection"

	"golang.org/x/exp/slog"
)

type DraftRepository struct {
	storage *Storage
	log     *slog.Logger
}

func NewDraftRepository(storage *Storage, log *slog.Logger) *DraftRepository {
	return &DraftRepository{
		storage: storage,
		log:     log.With(slog.String("component", "draft_repository")),
	}
}

// Put вставляет или обновляет запись по client_id
func (r *DraftRepository) Put(ctx context.Context, rec *inspection.Record) error {
	db, err := r.storage.Open(ctx)
	if err != nil {
		return err
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	const query = `
		INSERT INTO drafts (client_id, record_state, sync_state, location_id, server_id,
		                    document, created_at, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			record_state = excluded.record_state,
			sync_state = excluded.sync_state,
			location_id = excluded.location_id,
			server_id = excluded.server_id,
			document = excluded.document,
			last_modified = excluded.last_modified`

	_, err = db.ExecContext(ctx, query,
		rec.ClientID, rec.RecordState, rec.SyncState, rec.Payload.LocationID, rec.ServerID,
		doc, rec.CreatedAt.UnixMilli(), rec.LastModified.UnixMilli())
	if err != nil {
		r.log.Error("failed to put record", "client_id", rec.ClientID, "error", err)
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (r *DraftRepository) Get(ctx context.Context, clientID string) (*inspection.Record, error) {
	db, err := r.storage.Open(ctx)
	if err != nil {
		return nil, err
	}

	var doc []byte
	err = db.QueryRowContext(ctx, `SELECT document FROM drafts WHERE client_id = ?`, clientID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", inspection.ErrNotFound, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	return decode(doc)
}

func (r *DraftRepository) Delete(ctx context.Context, clientID string) error {
	db, err := r.storage.Open(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM drafts WHERE client_id = ?`, clientID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", inspection.ErrNotFound, clientID)
	}
	return nil
}

// List возвращает записи по фильтру, старые первыми
func (r *DraftRepository) List(ctx context.Context, filter inspection.Filter) ([]*inspection.Record, error) {
	db, err := r.storage.Open(ctx)
	if err != nil {
		return nil, err
	}

	query := "SELECT document FROM drafts WHERE 1=1"
	args := []any{}

	if len(filter.SyncStates) > 0 {
		query += " AND sync_state IN (?" + strings.Repeat(", ?", len(filter.SyncStates)-1) + ")"
		for _, st := range filter.SyncStates {
			args = append(args, st)
		}
	}

	if filter.RecordState != "" {
		query += " AND record_state = ?"
		args = append(args, filter.RecordState)
	}

	if filter.LocationID != "" {
		query += " AND location_id = ?"
		args = append(args, filter.LocationID)
	}

	query += " ORDER BY created_at ASC, client_id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*inspection.Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := decode(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Counts считает записи по состояниям для индикатора синхронизации
func (r *DraftRepository) Counts(ctx context.Context) (inspection.Counts, error) {
	var counts inspection.Counts

	db, err := r.storage.Open(ctx)
	if err != nil {
		return counts, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT record_state, sync_state, COUNT(*)
		FROM drafts
		GROUP BY record_state, sync_state`)
	if err != nil {
		return counts, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordState, syncState string
		var n int
		if err := rows.Scan(&recordState, &syncState, &n); err != nil {
			return counts, fmt.Errorf("scan counts: %w", err)
		}
		if inspection.RecordState(recordState) != inspection.StateSubmitted {
			counts.Drafts += n
			continue
		}
		switch inspection.SyncState(syncState) {
		case inspection.SyncPending:
			counts.Pending += n
		case inspection.SyncSynced:
			counts.Synced += n
		case inspection.SyncFailed:
			counts.Failed += n
		}
	}
	return counts, rows.Err()
}

// ResetFailed переводит failed -> pending в одной транзакции
func (r *DraftRepository) ResetFailed(ctx context.Context) (int, error) {
	db, err := r.storage.Open(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT document FROM drafts WHERE sync_state = ?`, inspection.SyncFailed)
	if err != nil {
		return 0, fmt.Errorf("select failed records: %w", err)
	}

	var failed []*inspection.Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan record: %w", err)
		}
		rec, err := decode(doc)
		if err != nil {
			rows.Close()
			return 0, err
		}
		failed = append(failed, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	now := time.Now()
	for _, rec := range failed {
		rec.SyncState = inspection.SyncPending
		rec.SyncError = ""
		rec.LastModified = now

		doc, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("marshal record: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE drafts SET sync_state = ?, document = ?, last_modified = ?
			WHERE client_id = ?`,
			rec.SyncState, doc, now.UnixMilli(), rec.ClientID)
		if err != nil {
			return 0, fmt.Errorf("reset record %s: %w", rec.ClientID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(failed), nil
}

func decode(doc []byte) (*inspection.Record, error) {
	var rec inspection.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}
