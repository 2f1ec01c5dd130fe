package store

import (
	"context"
	"database/sql"
	"fmt"
)

// defaultBatchSize bounds how many rows of one model are held in memory
// while streaming an export.
const defaultBatchSize = 500

// ForEachInstance streams every instance of the model in ascending pk order,
// calling fn once per row. Rows are fetched in keyset-paginated batches so
// memory use is bounded by one batch, not the model's total size.
//
// Returning an error from fn stops the scan and propagates the error.
func (s *Store) ForEachInstance(ctx context.Context, model string, fn func(Record) error) error {
	lastPK := int64(-1)
	for {
		batch, err := s.listBatch(ctx, model, lastPK, defaultBatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		for _, rec := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		lastPK = batch[len(batch)-1].PK
	}
}

// listBatch returns up to limit instances with pk greater than afterPK.
func (s *Store) listBatch(ctx context.Context, model string, afterPK int64, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model, pk, natural_key, fields
		FROM instances
		WHERE model = ? AND pk > ?
		ORDER BY pk ASC
		LIMIT ?
	`, model, afterPK, limit)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	var batch []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		batch = append(batch, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return batch, nil
}

// GetInstance returns one instance by identity.
func (s *Store) GetInstance(ctx context.Context, model string, pk int64) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT model, pk, natural_key, fields
		FROM instances
		WHERE model = ? AND pk = ?
	`, model, pk)

	rec, err := scanRecordRow(row)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// NaturalKeyOf returns the stored natural key for (model, pk).
// Export uses it to substitute reference pks with portable identities.
func (s *Store) NaturalKeyOf(ctx context.Context, model string, pk int64) (string, bool, error) {
	var key string
	err := s.db.QueryRowContext(ctx,
		`SELECT natural_key FROM instances WHERE model = ? AND pk = ?`,
		model, pk).Scan(&key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("natural key of %s pk=%d: %w", model, pk, err)
	}
	return key, true, nil
}

// LookupPK resolves a natural key to a storage primary key.
// When tx is non-nil the lookup runs inside it, so import sees instances
// written earlier in the same (uncommitted) run.
func (s *Store) LookupPK(ctx context.Context, tx *sql.Tx, model, naturalKey string) (int64, bool, error) {
	query := `SELECT pk FROM instances WHERE model = ? AND natural_key = ?`

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, model, naturalKey)
	} else {
		row = s.db.QueryRowContext(ctx, query, model, naturalKey)
	}

	var pk int64
	err := row.Scan(&pk)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup %s by natural key: %w", model, err)
	}
	return pk, true, nil
}

// CountInstances returns the number of stored instances for a model.
func (s *Store) CountInstances(ctx context.Context, model string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM instances WHERE model = ?`, model).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count instances: %w", err)
	}
	return n, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var rec Record
	var fieldsJSON string
	if err := rows.Scan(&rec.Model, &rec.PK, &rec.NaturalKey, &fieldsJSON); err != nil {
		return rec, fmt.Errorf("scan instance: %w", err)
	}
	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return rec, err
	}
	rec.Fields = fields
	return rec, nil
}

func scanRecordRow(row *sql.Row) (Record, error) {
	var rec Record
	var fieldsJSON string
	if err := row.Scan(&rec.Model, &rec.PK, &rec.NaturalKey, &fieldsJSON); err != nil {
		return rec, err
	}
	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return rec, err
	}
	rec.Fields = fields
	return rec, nil
}
