package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/roach88/reliquary/internal/schema"
	"github.com/roach88/reliquary/internal/snapshot"
	"github.com/roach88/reliquary/internal/store"
)

// Import restores a snapshot document into the store as one all-or-nothing
// operation.
//
// Instances are replayed in document order; the document is trusted to
// already satisfy dependency order, so the resolver is not re-run. Every
// write happens inside a single transaction: any integrity violation or
// unresolvable reference rolls back the entire import. After a successful
// commit, every model's primary-key sequence is reset past the imported
// keys.
func Import(ctx context.Context, st *store.Store, reg *schema.Registry, r io.Reader) error {
	run := uuid.NewString()
	slog.Info("beginning import", "run", run)

	tx, err := st.Begin(ctx)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	dec := snapshot.NewDecoder(r)
	imported := 0
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import aborted: %w", err)
		}

		inst, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}

		m, ok := reg.Get(inst.Model)
		if !ok {
			return fmt.Errorf("import: document names unknown model %q", inst.Model)
		}
		if reg.Excluded(m.Name) {
			slog.Info("skipping model", "model", m.Name, "run", run)
			continue
		}

		rec, err := importInstance(ctx, st, tx, reg, m, inst)
		if err != nil {
			return err
		}

		if err := st.UpsertInstance(ctx, tx, rec); err != nil {
			if store.IsConstraint(err) {
				ie := &IntegrityError{Model: inst.Model, PK: inst.PK, Err: err}
				slog.Error("import failed", "run", run, "error", ie)
				fmt.Fprintln(os.Stderr, ie.Remediation())
				return ie
			}
			return fmt.Errorf("import %s pk=%d: %w", inst.Model, inst.PK, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import: commit: %w", err)
	}

	if err := st.ResetSequences(ctx); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	slog.Info("import complete", "run", run, "instances", imported)
	return nil
}

// importInstance converts a document record into its storage form: natural
// identities resolve back to primary keys and the instance's own natural
// key is computed from its payload.
func importInstance(ctx context.Context, st *store.Store, tx *sql.Tx, reg *schema.Registry, m *schema.Model, inst snapshot.Instance) (store.Record, error) {
	fields := make(map[string]any, len(inst.Fields))
	for k, v := range inst.Fields {
		fields[k] = v
	}

	for _, ref := range m.References {
		v, ok := fields[ref.Field]
		if !ok || v == nil {
			continue
		}
		pk, err := resolveIdentity(ctx, st, tx, inst, ref.Field, ref.Target, v)
		if err != nil {
			return store.Record{}, err
		}
		fields[ref.Field] = pk
	}

	for _, ref := range m.ManyReferences {
		v, ok := fields[ref.Field]
		if !ok || v == nil {
			continue
		}
		identities, ok := v.([]any)
		if !ok {
			return store.Record{}, fmt.Errorf("import %s pk=%d field %s: expected list of identities, got %T",
				inst.Model, inst.PK, ref.Field, v)
		}
		pks := make([]any, len(identities))
		for i, identity := range identities {
			pk, err := resolveIdentity(ctx, st, tx, inst, ref.Field, ref.Target, identity)
			if err != nil {
				return store.Record{}, err
			}
			pks[i] = pk
		}
		fields[ref.Field] = pks
	}

	naturalKey, err := instanceNaturalKey(m, fields)
	if err != nil {
		return store.Record{}, fmt.Errorf("import %s pk=%d: %w", inst.Model, inst.PK, err)
	}

	return store.Record{
		Model:      m.Name,
		PK:         inst.PK,
		NaturalKey: naturalKey,
		Fields:     fields,
	}, nil
}

// resolveIdentity maps one natural identity back to a primary key, looking
// through the import transaction so earlier uncommitted rows are visible.
func resolveIdentity(ctx context.Context, st *store.Store, tx *sql.Tx, inst snapshot.Instance, field, target string, identity any) (int64, error) {
	values, ok := identity.([]any)
	if !ok {
		values = []any{identity}
	}
	key, err := store.EncodeNaturalKey(values)
	if err != nil {
		return 0, fmt.Errorf("import %s pk=%d field %s: %w", inst.Model, inst.PK, field, err)
	}

	pk, found, err := st.LookupPK(ctx, tx, target, key)
	if err != nil {
		return 0, fmt.Errorf("import %s pk=%d field %s: %w", inst.Model, inst.PK, field, err)
	}
	if !found {
		return 0, &MalformedReferenceError{
			Model:  inst.Model,
			PK:     inst.PK,
			Field:  field,
			Target: target,
			Key:    key,
		}
	}
	return pk, nil
}

// instanceNaturalKey encodes the model's natural-key tuple from the
// instance's storage-form fields.
func instanceNaturalKey(m *schema.Model, fields map[string]any) (string, error) {
	values := make([]any, len(m.NaturalKey))
	for i, name := range m.NaturalKey {
		v, ok := fields[name]
		if !ok {
			return "", fmt.Errorf("missing natural key field %q", name)
		}
		values[i] = v
	}
	return store.EncodeNaturalKey(values)
}
