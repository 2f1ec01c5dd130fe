package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/reliquary/internal/schema"
	"github.com/roach88/reliquary/internal/snapshot"
	"github.com/roach88/reliquary/internal/store"
)

// ExportOptions configures an export run.
type ExportOptions struct {
	// Silent suppresses progress and skip notices.
	Silent bool

	// Indent is the pretty-print width for the document; zero is compact.
	Indent int

	// Exclude lists model names to omit, matched case-insensitively.
	Exclude []string
}

// Export streams the full includable dataset as one snapshot document.
//
// Models are visited in dependency-resolver order; within a model, instances
// stream in ascending pk order. A model is skipped (with a notice) when it
// is named in Exclude, flagged non-includable, or is a proxy view. The
// source store is never mutated.
func Export(ctx context.Context, st *store.Store, reg *schema.Registry, w io.Writer, opts ExportOptions) error {
	order, err := reg.Resolve()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	excluded := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[strings.ToLower(name)] = true
	}

	if !opts.Silent {
		slog.Info("beginning export", "models", len(order))
	}

	enc := snapshot.NewEncoder(w, opts.Indent)
	for _, m := range order {
		if excluded[strings.ToLower(m.Name)] || !m.Includable || m.Proxy {
			if !opts.Silent {
				slog.Info("skipping model", "model", m.Name)
			}
			continue
		}

		err := st.ForEachInstance(ctx, m.Name, func(rec store.Record) error {
			inst, err := exportInstance(ctx, st, reg, m, rec)
			if err != nil {
				return err
			}
			return enc.Encode(inst)
		})
		if err != nil {
			return fmt.Errorf("export %s: %w", m.Name, err)
		}

		if !opts.Silent {
			slog.Debug("model exported", "model", m.Name)
		}
	}

	return enc.Close()
}

// exportInstance converts a stored record into its portable document form:
// the pk field is lifted out of the payload, reference fields are replaced
// by the target's natural identity, and timestamps are normalized to
// millisecond-UTC form.
func exportInstance(ctx context.Context, st *store.Store, reg *schema.Registry, m *schema.Model, rec store.Record) (snapshot.Instance, error) {
	fields := make(map[string]any, len(rec.Fields))
	for k, v := range rec.Fields {
		if k == m.PKField {
			continue
		}
		fields[k] = v
	}

	for _, ref := range m.References {
		v, ok := fields[ref.Field]
		if !ok || v == nil {
			continue
		}
		identity, err := naturalIdentity(ctx, st, ref.Target, v)
		if err != nil {
			return snapshot.Instance{}, fmt.Errorf("instance pk=%d field %s: %w", rec.PK, ref.Field, err)
		}
		fields[ref.Field] = identity
	}

	for _, ref := range m.ManyReferences {
		v, ok := fields[ref.Field]
		if !ok || v == nil {
			continue
		}
		pks, ok := v.([]any)
		if !ok {
			return snapshot.Instance{}, fmt.Errorf("instance pk=%d field %s: expected list of keys, got %T", rec.PK, ref.Field, v)
		}
		identities := make([]any, len(pks))
		for i, pk := range pks {
			identity, err := naturalIdentity(ctx, st, ref.Target, pk)
			if err != nil {
				return snapshot.Instance{}, fmt.Errorf("instance pk=%d field %s[%d]: %w", rec.PK, ref.Field, i, err)
			}
			identities[i] = identity
		}
		fields[ref.Field] = identities
	}

	for _, name := range m.DateTimeFields {
		v, ok := fields[name]
		if !ok || v == nil {
			continue
		}
		raw, ok := v.(string)
		if !ok {
			return snapshot.Instance{}, fmt.Errorf("instance pk=%d field %s: expected timestamp string, got %T", rec.PK, name, v)
		}
		normalized, err := snapshot.NormalizeTimestamp(raw)
		if err != nil {
			return snapshot.Instance{}, fmt.Errorf("instance pk=%d field %s: %w", rec.PK, name, err)
		}
		fields[name] = normalized
	}

	return snapshot.Instance{Model: m.Name, PK: rec.PK, Fields: fields}, nil
}

// naturalIdentity resolves a reference pk to the target's natural identity.
// Single-field natural keys serialize as a bare scalar, composite keys as a
// list of the key field values in declaration order.
func naturalIdentity(ctx context.Context, st *store.Store, target string, v any) (any, error) {
	pk, err := asPK(v)
	if err != nil {
		return nil, err
	}

	key, found, err := st.NaturalKeyOf(ctx, target, pk)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("referenced %s pk=%d does not exist", target, pk)
	}

	values, err := store.DecodeNaturalKey(key)
	if err != nil {
		return nil, err
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}

// asPK coerces a stored field value to an integer primary key.
func asPK(v any) (int64, error) {
	switch val := v.(type) {
	case json.Number:
		return val.Int64()
	case int64:
		return val, nil
	case float64:
		return int64(val), nil
	default:
		return 0, fmt.Errorf("expected integer key, got %T", v)
	}
}
