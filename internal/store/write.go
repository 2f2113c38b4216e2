package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/provtrack/internal/schema"
)

// Sync implements syncer.Backend.
//
// The batch is written in one transaction. Each record is claimed through
// the UNIQUE event_key constraint; a record whose key is already stored
// returns the stored receipt when its digest matches and aborts the batch
// with schema.ErrKeyConflict when it does not.
func (s *Store) Sync(ctx context.Context, records []schema.Record) ([]schema.Receipt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sync: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	receipts := make([]schema.Receipt, len(records))
	for i, r := range records {
		rc, err := writeRecord(ctx, tx, r)
		if err != nil {
			return nil, fmt.Errorf("sync %q: %w", r.Key, err)
		}
		receipts[i] = rc
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sync: commit: %w", err)
	}
	return receipts, nil
}

// writeRecord stores one record, or returns the receipt of an identical
// earlier submission.
func writeRecord(ctx context.Context, tx *sql.Tx, r schema.Record) (schema.Receipt, error) {
	digest, err := schema.Digest(r.Event)
	if err != nil {
		return schema.Receipt{}, err
	}

	// Claim the key. body and receipt are filled in once the entity ids
	// are known.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO events (event_key, seq, kind, digest, body, receipt)
		VALUES (?, ?, ?, ?, '', '[]')
		ON CONFLICT(event_key) DO NOTHING
	`, r.Key, r.Seq, string(r.Event.Kind), digest)
	if err != nil {
		return schema.Receipt{}, fmt.Errorf("insert event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return schema.Receipt{}, fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return existingReceipt(ctx, tx, r.Key, digest)
	}

	eventID, err := result.LastInsertId()
	if err != nil {
		return schema.Receipt{}, fmt.Errorf("last insert id: %w", err)
	}

	stamped := r.Clone()
	slots := schema.Slots(&stamped.Event)
	rc := schema.Receipt{Key: r.Key, EventID: eventID, IDs: make([]int64, len(slots))}
	for i, slot := range slots {
		id, err := insertSlot(ctx, tx, eventID, slot)
		if err != nil {
			return schema.Receipt{}, err
		}
		*slot.ID = id
		rc.IDs[i] = id
	}
	stamped.ID = eventID

	body, err := marshalText("event", stamped.Event)
	if err != nil {
		return schema.Receipt{}, err
	}
	receipt, err := marshalText("receipt", rc.IDs)
	if err != nil {
		return schema.Receipt{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE events SET body = ?, receipt = ? WHERE id = ?
	`, body, receipt, eventID); err != nil {
		return schema.Receipt{}, fmt.Errorf("update event: %w", err)
	}
	return rc, nil
}

// existingReceipt resolves a resubmitted key.
func existingReceipt(ctx context.Context, tx *sql.Tx, key, digest string) (schema.Receipt, error) {
	var (
		eventID      int64
		storedDigest string
		receiptJSON  string
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, digest, receipt FROM events WHERE event_key = ?
	`, key).Scan(&eventID, &storedDigest, &receiptJSON)
	if err != nil {
		return schema.Receipt{}, fmt.Errorf("select existing: %w", err)
	}
	if storedDigest != digest {
		return schema.Receipt{}, schema.ErrKeyConflict
	}

	ids, err := unmarshalIDs(receiptJSON)
	if err != nil {
		return schema.Receipt{}, err
	}
	return schema.Receipt{Key: key, EventID: eventID, IDs: ids}, nil
}

// insertSlot writes the entity row behind one id slot and returns its id.
func insertSlot(ctx context.Context, tx *sql.Tx, eventID int64, slot schema.Slot) (int64, error) {
	var (
		result sql.Result
		err    error
	)
	switch slot.Kind {
	case schema.SlotDataFrame:
		df := slot.DataFrame
		cols, merr := marshalText("columns", df.Columns)
		if merr != nil {
			return 0, merr
		}
		result, err = tx.ExecContext(ctx, `
			INSERT INTO dataframes (event_id, num_rows, tag, columns)
			VALUES (?, ?, ?, ?)
		`, eventID, df.NumRows, df.Tag, cols)

	case schema.SlotTransformer:
		t := slot.Transformer
		state, merr := marshalText("state", t.State)
		if merr != nil {
			return 0, merr
		}
		result, err = tx.ExecContext(ctx, `
			INSERT INTO transformers (event_id, type, tag, state)
			VALUES (?, ?, ?, ?)
		`, eventID, t.Type, t.Tag, state)

	case schema.SlotSpec:
		sp := slot.Spec
		features, merr := marshalText("feature columns", sp.FeatureColumns)
		if merr != nil {
			return 0, merr
		}
		hps, merr := marshalText("hyperparameters", sp.HyperParameters)
		if merr != nil {
			return 0, merr
		}
		result, err = tx.ExecContext(ctx, `
			INSERT INTO transformer_specs (event_id, transformer_type, tag, feature_columns, hyperparameters)
			VALUES (?, ?, ?, ?, ?)
		`, eventID, sp.TransformerType, sp.Tag, features, hps)

	default:
		return 0, fmt.Errorf("unknown slot kind %q", slot.Kind)
	}
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", slot.Kind, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: last insert id: %w", slot.Kind, err)
	}
	return id, nil
}
