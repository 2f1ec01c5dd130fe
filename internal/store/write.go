package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Record is one stored instance row.
type Record struct {
	Model      string
	PK         int64
	NaturalKey string
	Fields     map[string]any
}

// UpsertInstance writes an instance row within the given transaction.
//
// Identity conflicts on (model, pk) update the row in place. A natural-key
// collision against a different pk violates the unique index and surfaces
// as a constraint error - that is the integrity signal import relies on,
// so it is deliberately not swallowed here.
func (s *Store) UpsertInstance(ctx context.Context, tx *sql.Tx, rec Record) error {
	fieldsJSON, err := marshalFields(rec.Fields)
	if err != nil {
		return fmt.Errorf("upsert instance: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO instances (model, pk, natural_key, fields)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(model, pk) DO UPDATE SET
			natural_key = excluded.natural_key,
			fields = excluded.fields
	`,
		rec.Model,
		rec.PK,
		rec.NaturalKey,
		fieldsJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert instance %s pk=%d: %w", rec.Model, rec.PK, err)
	}

	return nil
}

// ResetSequences sets every model's sequence counter to max(pk)+1 so that
// subsequently allocated keys cannot collide with stored instances.
// Called after a successful import commit.
func (s *Store) ResetSequences(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sequences (model, next_pk)
		SELECT model, MAX(pk) + 1 FROM instances GROUP BY model
		ON CONFLICT(model) DO UPDATE SET next_pk = excluded.next_pk
	`)
	if err != nil {
		return fmt.Errorf("reset sequences: %w", err)
	}
	return nil
}

// NextPK allocates the next primary key for a model, starting at 1 for
// models with no allocation history.
func (s *Store) NextPK(ctx context.Context, model string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("next pk: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var next int64
	err = tx.QueryRowContext(ctx,
		`SELECT next_pk FROM sequences WHERE model = ?`, model).Scan(&next)
	switch {
	case err == sql.ErrNoRows:
		next = 1
	case err != nil:
		return 0, fmt.Errorf("next pk: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sequences (model, next_pk) VALUES (?, ?)
		ON CONFLICT(model) DO UPDATE SET next_pk = excluded.next_pk
	`, model, next+1)
	if err != nil {
		return 0, fmt.Errorf("next pk: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("next pk: commit: %w", err)
	}
	return next, nil
}

// IsConstraint reports whether err is a SQLite constraint violation
// (uniqueness or consistency rule). Uses errors.As to handle wrapped errors.
func IsConstraint(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}
